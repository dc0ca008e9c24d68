package schema

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// DataDescription lists which vector fields feed the models and which raw
// fields the frontend may display
type DataDescription struct {
	ModelSelectors     []string `json:"Model_Selectors"`
	UIFields           UIFields `json:"UI_Fields"`
	OriginalDataFields []string `json:"Original_Data_Fields"`
}

// UIGroup is a named group of fields the frontend shows together
type UIGroup struct {
	Name   string
	Fields []string
}

// UIFields keeps the UI groups in the order they appear in the description.
// The frontend addresses groups by position.
type UIFields []UIGroup

// UnmarshalJSON decodes a JSON object of group name to field list, keeping
// the key order
func (u *UIFields) UnmarshalJSON(data []byte) error {
	var groups map[string][]string
	if err := json.Unmarshal(data, &groups); err != nil {
		return err
	}
	if groups == nil {
		*u = nil
		return nil
	}

	order, err := objectKeys(data)
	if err != nil {
		return err
	}

	ordered := make(UIFields, 0, len(order))
	seen := map[string]struct{}{}
	for _, name := range order {
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		ordered = append(ordered, UIGroup{Name: name, Fields: groups[name]})
	}
	*u = ordered
	return nil
}

// MarshalJSON writes the groups back as an object in order
func (u UIFields) MarshalJSON() ([]byte, error) {
	buf := []byte{'{'}
	for i, g := range u {
		if i > 0 {
			buf = append(buf, ',')
		}
		name, err := json.Marshal(g.Name)
		if err != nil {
			return nil, err
		}
		fields, err := json.Marshal(g.Fields)
		if err != nil {
			return nil, err
		}
		buf = append(buf, name...)
		buf = append(buf, ':')
		buf = append(buf, fields...)
	}
	return append(buf, '}'), nil
}

// Lookup returns the fields of a group by name
func (u UIFields) Lookup(name string) ([]string, bool) {
	for _, g := range u {
		if g.Name == name {
			return g.Fields, true
		}
	}
	return nil, false
}

// objectKeys lists the top level keys of a JSON object in document order
func objectKeys(data []byte) ([]string, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	if _, err := dec.Token(); err != nil {
		return nil, err
	}

	keys := make([]string, 0)
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("unexpected token %v in UI fields", tok)
		}
		keys = append(keys, key)

		var skip json.RawMessage
		if err := dec.Decode(&skip); err != nil {
			return nil, err
		}
	}
	return keys, nil
}
