package lorebook

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"maps"
	"slices"
	"strconv"
	"strings"
	"sync"

	"github.com/charmbracelet/log"

	"lorebook/pkg/schema"
	"lorebook/pkg/utils"
)

var (
	ErrNotFound        = errors.New("entry not found")
	ErrInvalidDocument = errors.New("invalid lorebook document")
)

// Book is the in-memory lorebook being edited. All methods are safe for
// concurrent use and hand out copies, never references into the book.
type Book struct {
	mu   sync.RWMutex
	book schema.Lorebook
}

func New() *Book {
	return &Book{book: schema.Lorebook{Entries: map[string]schema.Entry{}}}
}

// Open loads the document at path. A missing file gives an empty book.
func Open(path string) (*Book, error) {
	if !utils.Exists(path) {
		log.Info("starting with an empty lorebook", "path", path)
		return New(), nil
	}
	doc, err := utils.Load[schema.Lorebook](path)
	if err != nil {
		return nil, fmt.Errorf("failed to load lorebook %s: %w", path, err)
	}
	if err := validate(doc); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	log.Info("loaded lorebook", "path", path, "entries", len(doc.Entries))
	return &Book{book: doc}, nil
}

// Save writes the current document to path.
func (b *Book) Save(path string) error {
	return utils.Save(path, b.Snapshot())
}

func key(uid int) string { return strconv.Itoa(uid) }

// Len returns the number of entries.
func (b *Book) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.book.Entries)
}

// Entries returns every entry ordered by displayIndex, then uid.
func (b *Book) Entries() []schema.Entry {
	return b.Search("")
}

// Search returns the entries whose comment or content contains q, ignoring
// case, in list order. An empty q matches everything.
func (b *Book) Search(q string) []schema.Entry {
	q = strings.ToLower(strings.TrimSpace(q))

	b.mu.RLock()
	out := make([]schema.Entry, 0, len(b.book.Entries))
	for _, e := range b.book.Entries {
		if q != "" &&
			!strings.Contains(strings.ToLower(e.Comment), q) &&
			!strings.Contains(strings.ToLower(e.Content), q) {
			continue
		}
		out = append(out, e.Clone())
	}
	b.mu.RUnlock()

	slices.SortFunc(out, func(x, y schema.Entry) int {
		if x.DisplayIndex != y.DisplayIndex {
			return x.DisplayIndex - y.DisplayIndex
		}
		return x.UID - y.UID
	})
	return out
}

func (b *Book) Get(uid int) (schema.Entry, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	e, ok := b.book.Entries[key(uid)]
	if !ok {
		return schema.Entry{}, fmt.Errorf("%w: %d", ErrNotFound, uid)
	}
	return e.Clone(), nil
}

// nextUID is max(existing uids)+1, or 0 for an empty book. Caller holds mu.
func (b *Book) nextUID() int {
	next := 0
	for _, e := range b.book.Entries {
		if e.UID >= next {
			next = e.UID + 1
		}
	}
	return next
}

// NextUID reports the uid the next created entry will get.
func (b *Book) NextUID() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.nextUID()
}

// Add creates an entry with default fields and a fresh uid.
func (b *Book) Add() schema.Entry {
	return b.Create(func(*schema.Entry) {})
}

// Create allocates a fresh uid against the current state, applies init to a
// defaulted entry and stores it. The uid and key are fixed after init runs.
func (b *Book) Create(init func(e *schema.Entry)) schema.Entry {
	b.mu.Lock()
	defer b.mu.Unlock()

	uid := b.nextUID()
	e := schema.NewEntry(uid)
	init(&e)
	e.UID = uid
	if e.Key == nil {
		e.Key = []string{}
	}

	if b.book.Entries == nil {
		b.book.Entries = map[string]schema.Entry{}
	}
	b.book.Entries[key(uid)] = e
	return e.Clone()
}

// Update applies fn to the stored entry. The uid cannot be changed.
func (b *Book) Update(uid int, fn func(e *schema.Entry)) (schema.Entry, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	e, ok := b.book.Entries[key(uid)]
	if !ok {
		return schema.Entry{}, fmt.Errorf("%w: %d", ErrNotFound, uid)
	}
	e = e.Clone()
	fn(&e)
	e.UID = uid
	b.book.Entries[key(uid)] = e
	return e.Clone(), nil
}

// SetContent replaces the content of an entry, used for live previews.
func (b *Book) SetContent(uid int, content string) error {
	_, err := b.Update(uid, func(e *schema.Entry) { e.Content = content })
	return err
}

// Patch merges a partial JSON object into an entry. Members that are not
// entry fields are kept as extra data. A uid member is ignored.
func (b *Book) Patch(uid int, patch []byte) (schema.Entry, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(patch, &fields); err != nil {
		return schema.Entry{}, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	delete(fields, "uid")

	var patchErr error
	e, err := b.Update(uid, func(e *schema.Entry) {
		current, err := json.Marshal(e)
		if err != nil {
			patchErr = err
			return
		}
		var merged map[string]json.RawMessage
		if err := json.Unmarshal(current, &merged); err != nil {
			patchErr = err
			return
		}
		maps.Copy(merged, fields)

		data, err := json.Marshal(merged)
		if err != nil {
			patchErr = err
			return
		}
		var next schema.Entry
		if err := json.Unmarshal(data, &next); err != nil {
			patchErr = fmt.Errorf("%w: %v", ErrInvalidDocument, err)
			return
		}
		if next.Key == nil {
			next.Key = []string{}
		}
		*e = next
	})
	if err != nil {
		return schema.Entry{}, err
	}
	if patchErr != nil {
		// Update stored an unchanged clone, nothing to roll back.
		return schema.Entry{}, patchErr
	}
	return e, nil
}

func (b *Book) Delete(uid int) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.book.Entries[key(uid)]; !ok {
		return fmt.Errorf("%w: %d", ErrNotFound, uid)
	}
	delete(b.book.Entries, key(uid))
	return nil
}

// Names returns the exclusion set for batch generation: for each entry in
// list order, its comment unless it is the default label, then its keywords.
// Each name appears once, at its first position.
func (b *Book) Names() []string {
	seen := make(map[string]struct{})
	names := []string{}
	add := func(name string) {
		if name == "" {
			return
		}
		if _, ok := seen[name]; ok {
			return
		}
		seen[name] = struct{}{}
		names = append(names, name)
	}
	for _, e := range b.Entries() {
		if e.Comment != schema.DefaultComment {
			add(e.Comment)
		}
		for _, k := range e.Key {
			add(k)
		}
	}
	return names
}

// Snapshot returns a deep copy of the whole document.
func (b *Book) Snapshot() schema.Lorebook {
	b.mu.RLock()
	defer b.mu.RUnlock()

	doc := schema.Lorebook{Entries: make(map[string]schema.Entry, len(b.book.Entries))}
	for k, e := range b.book.Entries {
		doc.Entries[k] = e.Clone()
	}
	if b.book.Extra != nil {
		doc.Extra = make(map[string]json.RawMessage, len(b.book.Extra))
		for k, v := range b.book.Extra {
			doc.Extra[k] = append(json.RawMessage{}, v...)
		}
	}
	return doc
}

// Export writes the document as indented JSON.
func (b *Book) Export(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(b.Snapshot())
}

// Import replaces the whole book with the document read from r. On any
// error the current book is left untouched.
func (b *Book) Import(r io.Reader) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}

	var probe struct {
		Entries json.RawMessage `json:"entries"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	if len(probe.Entries) == 0 || probe.Entries[0] != '{' {
		return fmt.Errorf("%w: missing entries object", ErrInvalidDocument)
	}

	var doc schema.Lorebook
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	if err := validate(doc); err != nil {
		return err
	}

	b.mu.Lock()
	b.book = doc
	b.mu.Unlock()
	log.Info("imported lorebook", "entries", len(doc.Entries))
	return nil
}

func validate(doc schema.Lorebook) error {
	if doc.Entries == nil {
		return fmt.Errorf("%w: missing entries object", ErrInvalidDocument)
	}
	for k, e := range doc.Entries {
		if k != key(e.UID) {
			return fmt.Errorf("%w: entry %q has uid %d", ErrInvalidDocument, k, e.UID)
		}
	}
	return nil
}
