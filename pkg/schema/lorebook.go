package schema

import (
	"encoding/json"
	"reflect"
)

// Lorebook is the whole editable document. Entries are keyed by the
// decimal form of their uid.
type Lorebook struct {
	Entries map[string]Entry `json:"entries" jsonschema_description:"Entries keyed by stringified uid"`

	Extra map[string]json.RawMessage `json:"-"`
}

type lorebookAlias Lorebook

var lorebookKeys = jsonKeys(reflect.TypeFor[lorebookAlias]())

func (l Lorebook) MarshalJSON() ([]byte, error) {
	a := lorebookAlias(l)
	if a.Entries == nil {
		a.Entries = map[string]Entry{}
	}
	data, err := json.Marshal(a)
	if err != nil {
		return nil, err
	}
	return mergeExtra(data, l.Extra)
}

func (l *Lorebook) UnmarshalJSON(data []byte) error {
	var a lorebookAlias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	a.Extra = collectExtra(data, lorebookKeys)
	*l = Lorebook(a)
	return nil
}
