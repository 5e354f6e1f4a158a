package lorebook

import (
	"bytes"
	"errors"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"lorebook/pkg/schema"
)

const document = `{
  "entries": {
    "0": {"uid": 0, "key": ["Saber"], "comment": "Saber", "content": "A knight.", "displayIndex": 2, "characterFilter": {"isExclude": false, "names": []}},
    "3": {"uid": 3, "key": ["Rin"], "comment": "Rin", "content": "A mage with a ruby.", "displayIndex": 1},
    "7": {"uid": 7, "key": [], "comment": "New Entry", "content": "", "displayIndex": 1}
  },
  "originalData": {"name": "Fate"}
}`

func load(t *testing.T) *Book {
	t.Helper()
	b := New()
	if err := b.Import(strings.NewReader(document)); err != nil {
		t.Fatalf("Import: %v", err)
	}
	return b
}

func uids(entries []schema.Entry) []int {
	out := make([]int, len(entries))
	for i, e := range entries {
		out[i] = e.UID
	}
	return out
}

func TestEntriesOrder(t *testing.T) {
	b := load(t)
	if got, want := uids(b.Entries()), []int{3, 7, 0}; !reflect.DeepEqual(got, want) {
		t.Errorf("order = %v, want %v", got, want)
	}
}

func TestSearch(t *testing.T) {
	b := load(t)
	tests := []struct {
		q    string
		want []int
	}{
		{q: "", want: []int{3, 7, 0}},
		{q: "saber", want: []int{0}},
		{q: "RUBY", want: []int{3}},
		{q: "nobody", want: []int{}},
	}
	for _, tt := range tests {
		if got := uids(b.Search(tt.q)); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("Search(%q) = %v, want %v", tt.q, got, tt.want)
		}
	}
}

func TestAddAllocatesMaxPlusOne(t *testing.T) {
	b := New()
	first := b.Add()
	if first.UID != 0 || first.DisplayIndex != 0 || first.Comment != schema.DefaultComment {
		t.Errorf("first entry = %+v", first)
	}

	b = load(t)
	if got := b.NextUID(); got != 8 {
		t.Errorf("NextUID = %d, want 8", got)
	}
	e := b.Create(func(e *schema.Entry) {
		e.UID = 100
		e.Comment = "Generating: Archer..."
	})
	if e.UID != 8 || e.DisplayIndex != 8 {
		t.Errorf("created uid = %d, displayIndex = %d", e.UID, e.DisplayIndex)
	}
	stored, err := b.Get(8)
	if err != nil || stored.Comment != "Generating: Archer..." {
		t.Errorf("Get(8) = %+v, %v", stored, err)
	}
	if b.Len() != 4 {
		t.Errorf("Len = %d", b.Len())
	}
}

func TestGetReturnsCopy(t *testing.T) {
	b := load(t)
	e, _ := b.Get(0)
	e.Key[0] = "changed"
	again, _ := b.Get(0)
	if again.Key[0] != "Saber" {
		t.Error("Get leaked a reference into the book")
	}
}

func TestUpdateKeepsUID(t *testing.T) {
	b := load(t)
	e, err := b.Update(3, func(e *schema.Entry) {
		e.UID = 9
		e.Content = "changed"
	})
	if err != nil {
		t.Fatal(err)
	}
	if e.UID != 3 || e.Content != "changed" {
		t.Errorf("Update = %+v", e)
	}
	if _, err := b.Get(9); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get(9) err = %v", err)
	}
	if _, err := b.Update(42, func(*schema.Entry) {}); !errors.Is(err, ErrNotFound) {
		t.Errorf("Update(42) err = %v", err)
	}
}

func TestPatch(t *testing.T) {
	b := load(t)
	e, err := b.Patch(0, []byte(`{"uid": 5, "comment": "Artoria", "order": 50, "color": "gold"}`))
	if err != nil {
		t.Fatalf("Patch: %v", err)
	}
	if e.UID != 0 || e.Comment != "Artoria" || e.Field("order").Int() != 50 {
		t.Errorf("patched = %+v", e)
	}
	if e.Content != "A knight." {
		t.Errorf("untouched field changed: %q", e.Content)
	}
	if string(e.Extra["color"]) != `"gold"` || e.Extra["characterFilter"] == nil {
		t.Errorf("extra = %v", e.Extra)
	}

	if _, err := b.Patch(0, []byte(`{"order": 10, "comment": 5}`)); !errors.Is(err, ErrInvalidDocument) {
		t.Errorf("bad type err = %v", err)
	}
	if e, _ := b.Get(0); e.Field("order").Int() != 50 || e.Comment != "Artoria" {
		t.Errorf("failed patch changed the entry: %+v", e)
	}
	if _, err := b.Patch(0, []byte(`[]`)); !errors.Is(err, ErrInvalidDocument) {
		t.Errorf("non-object err = %v", err)
	}
	if _, err := b.Patch(99, []byte(`{}`)); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing entry err = %v", err)
	}
}

func TestDelete(t *testing.T) {
	b := load(t)
	if err := b.Delete(3); err != nil {
		t.Fatal(err)
	}
	if err := b.Delete(3); !errors.Is(err, ErrNotFound) {
		t.Errorf("second Delete err = %v", err)
	}
	if b.Len() != 2 {
		t.Errorf("Len = %d", b.Len())
	}
}

func TestNames(t *testing.T) {
	b := load(t)
	want := []string{"Rin", "Saber"}
	if got := b.Names(); !reflect.DeepEqual(got, want) {
		t.Errorf("Names = %q, want %q", got, want)
	}

	if _, err := b.Patch(7, []byte(`{"comment":"Archer","key":["Archer","Emiya","Rin"]}`)); err != nil {
		t.Fatal(err)
	}
	want = []string{"Rin", "Archer", "Emiya", "Saber"}
	if got := b.Names(); !reflect.DeepEqual(got, want) {
		t.Errorf("Names after patch = %q, want %q", got, want)
	}
}

func TestExportImportRoundTrip(t *testing.T) {
	b := load(t)
	b.Add()

	var buf bytes.Buffer
	if err := b.Export(&buf); err != nil {
		t.Fatal(err)
	}

	other := New()
	if err := other.Import(&buf); err != nil {
		t.Fatalf("Import: %v", err)
	}
	if !reflect.DeepEqual(b.Snapshot(), other.Snapshot()) {
		t.Errorf("round trip mismatch:\n%+v\n%+v", b.Snapshot(), other.Snapshot())
	}
	if string(other.Snapshot().Extra["originalData"]) != `{"name":"Fate"}` {
		t.Errorf("top-level extra lost: %v", other.Snapshot().Extra)
	}
}

func TestImportRejectsInvalidDocuments(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{name: "not json", doc: `entries`},
		{name: "no entries", doc: `{"name": "x"}`},
		{name: "entries array", doc: `{"entries": []}`},
		{name: "entries null", doc: `{"entries": null}`},
		{name: "uid mismatch", doc: `{"entries": {"1": {"uid": 2}}}`},
		{name: "bad field type", doc: `{"entries": {"1": {"uid": 1, "key": "x"}}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := load(t)
			before := b.Snapshot()
			if err := b.Import(strings.NewReader(tt.doc)); !errors.Is(err, ErrInvalidDocument) {
				t.Errorf("err = %v, want ErrInvalidDocument", err)
			}
			if !reflect.DeepEqual(before, b.Snapshot()) {
				t.Error("failed import changed the book")
			}
		})
	}
}

func TestOpenSave(t *testing.T) {
	path := filepath.Join(t.TempDir(), "book.json")

	b, err := Open(path)
	if err != nil {
		t.Fatalf("Open missing: %v", err)
	}
	if b.Len() != 0 {
		t.Errorf("Len = %d", b.Len())
	}

	b = load(t)
	if err := b.Save(path); err != nil {
		t.Fatal(err)
	}
	reopened, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(b.Snapshot(), reopened.Snapshot()) {
		t.Error("saved book differs after reopening")
	}
}
