package schema

import (
	"bytes"
	"encoding/json"
	"reflect"
	"strings"

	"github.com/tidwall/gjson"
)

// DefaultComment is the label given to entries created by hand.
const DefaultComment = "New Entry"

// Entry is a single keyword-activated lorebook record. Only the fields the
// editor reads or writes are typed. Everything else, including the activation
// flags and weights, stays in Extra as the raw JSON it was imported with and
// is written back unchanged on export.
type Entry struct {
	UID          int      `json:"uid" jsonschema_description:"Unique identifier, equal to the entry's key in the entries map"`
	Key          []string `json:"key" jsonschema_description:"Primary activation keywords"`
	Comment      string   `json:"comment" jsonschema_description:"Human-readable label, usually the character name"`
	Content      string   `json:"content" jsonschema_description:"Text injected into the prompt when the entry activates"`
	DisplayIndex int      `json:"displayIndex" jsonschema_description:"List position; ties are broken by uid"`

	Extra map[string]json.RawMessage `json:"-"`
}

// entryDefaults are the auxiliary fields of a hand-made entry.
var entryDefaults = map[string]string{
	"keysecondary":        `[]`,
	"constant":            `false`,
	"vectorized":          `false`,
	"selective":           `true`,
	"selectiveLogic":      `0`,
	"addMemo":             `true`,
	"order":               `100`,
	"position":            `1`,
	"disable":             `false`,
	"ignoreBudget":        `false`,
	"excludeRecursion":    `false`,
	"preventRecursion":    `false`,
	"delayUntilRecursion": `false`,
	"probability":         `100`,
	"useProbability":      `true`,
	"depth":               `4`,
	"group":               `""`,
	"groupOverride":       `false`,
	"groupWeight":         `100`,
	"sticky":              `0`,
	"cooldown":            `0`,
	"delay":               `0`,
}

// NewEntry returns an entry with the editor defaults and the given uid.
func NewEntry(uid int) Entry {
	extra := make(map[string]json.RawMessage, len(entryDefaults))
	for k, v := range entryDefaults {
		extra[k] = json.RawMessage(v)
	}
	return Entry{
		UID:          uid,
		Key:          []string{},
		Comment:      DefaultComment,
		DisplayIndex: uid,
		Extra:        extra,
	}
}

// Field returns the raw value of an auxiliary member, such as "order".
func (e Entry) Field(name string) gjson.Result {
	raw, ok := e.Extra[name]
	if !ok {
		return gjson.Result{}
	}
	return gjson.ParseBytes(raw)
}

type entryAlias Entry

var entryKeys = jsonKeys(reflect.TypeFor[entryAlias]())

func (e Entry) MarshalJSON() ([]byte, error) {
	data, err := json.Marshal(entryAlias(e))
	if err != nil {
		return nil, err
	}
	return mergeExtra(data, e.Extra)
}

func (e *Entry) UnmarshalJSON(data []byte) error {
	var a entryAlias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	a.Extra = collectExtra(data, entryKeys)
	*e = Entry(a)
	return nil
}

// Clone returns a copy that shares no slices or maps with e.
func (e Entry) Clone() Entry {
	c := e
	if e.Key != nil {
		c.Key = append([]string{}, e.Key...)
	}
	if e.Extra != nil {
		c.Extra = make(map[string]json.RawMessage, len(e.Extra))
		for k, v := range e.Extra {
			c.Extra[k] = append(json.RawMessage{}, v...)
		}
	}
	return c
}

func jsonKeys(t reflect.Type) map[string]struct{} {
	keys := make(map[string]struct{}, t.NumField())
	for i := range t.NumField() {
		name, _, _ := strings.Cut(t.Field(i).Tag.Get("json"), ",")
		if name == "" || name == "-" {
			continue
		}
		keys[name] = struct{}{}
	}
	return keys
}

// collectExtra returns the members of a JSON object whose names are not in known.
// Values are compacted so that a decode/encode/decode cycle is stable.
func collectExtra(data []byte, known map[string]struct{}) map[string]json.RawMessage {
	var extra map[string]json.RawMessage
	gjson.ParseBytes(data).ForEach(func(key, value gjson.Result) bool {
		if _, ok := known[key.String()]; ok {
			return true
		}
		var buf bytes.Buffer
		if err := json.Compact(&buf, []byte(value.Raw)); err != nil {
			return true
		}
		if extra == nil {
			extra = make(map[string]json.RawMessage)
		}
		extra[key.String()] = buf.Bytes()
		return true
	})
	return extra
}

func mergeExtra(data []byte, extra map[string]json.RawMessage) ([]byte, error) {
	if len(extra) == 0 {
		return data, nil
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, err
	}
	for k, v := range extra {
		if _, ok := fields[k]; ok {
			continue
		}
		fields[k] = v
	}
	return json.Marshal(fields)
}
