package structure

import (
	"encoding/json"
	"fmt"
)

// APIStructure is the wire shape returned by the REST API. Levels is kept raw
// because malformed responses may omit it or send something other than a list.
type APIStructure struct {
	ID     string          `json:"id"`
	Name   string          `json:"name"`
	Levels json.RawMessage `json:"levels,omitempty"`
}

// FromAPI maps the wire shape onto a Structure. A missing or non-list levels
// field becomes an empty level list; non-string entries are skipped.
func FromAPI(a APIStructure) Structure {
	s := Structure{ID: a.ID, Name: a.Name, Levels: []string{}}
	if len(a.Levels) == 0 {
		return s
	}
	var raw []any
	if err := json.Unmarshal(a.Levels, &raw); err != nil {
		return s
	}
	for _, v := range raw {
		if str, ok := v.(string); ok {
			s.Levels = append(s.Levels, str)
		}
	}
	return s
}

// ToAPI is the inverse of FromAPI.
func ToAPI(s Structure) (APIStructure, error) {
	levels := s.Levels
	if levels == nil {
		levels = []string{}
	}
	raw, err := json.Marshal(levels)
	if err != nil {
		return APIStructure{}, fmt.Errorf("encoding levels: %w", err)
	}
	return APIStructure{ID: s.ID, Name: s.Name, Levels: raw}, nil
}

// FromAPIList maps every element with FromAPI.
func FromAPIList(in []APIStructure) []Structure {
	out := make([]Structure, 0, len(in))
	for _, a := range in {
		out = append(out, FromAPI(a))
	}
	return out
}
