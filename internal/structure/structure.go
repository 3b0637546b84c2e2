// Package structure defines user-defined hierarchies ("structures"): a name plus an
// ordered list of level labels, shallowest first.
package structure

import (
	"errors"
	"strings"
)

// DefaultLevels is the built-in Goal → Objective → Project → Task hierarchy.
var DefaultLevels = []string{"Goal", "Objective", "Project", "Task"}

// DefaultName is used when a structure is created from the built-in template
// without an explicit name.
const DefaultName = "Goals & Projects"

// ErrInvalid is returned when a structure has no usable name or no non-empty levels.
var ErrInvalid = errors.New("structure needs a name and at least one level")

// Structure is a named ordered list of hierarchy levels.
type Structure struct {
	ID     string   `json:"id"`
	Name   string   `json:"name"`
	Levels []string `json:"levels"`
}

// Draft is a structure the user is about to create; it has no id yet.
type Draft struct {
	Name   string   `json:"name"`
	Levels []string `json:"levels"`
}

// IsDefault reports whether s.Levels is exactly the built-in hierarchy,
// compared case-insensitively and in order. An empty level list is never default.
func IsDefault(s Structure) bool {
	return isDefaultLevels(s.Levels)
}

func isDefaultLevels(levels []string) bool {
	return joinLower(levels) == joinLower(DefaultLevels)
}

// joinLower uses '|' because level labels are not expected to contain it.
func joinLower(levels []string) string {
	lowered := make([]string, len(levels))
	for i, l := range levels {
		lowered[i] = strings.ToLower(l)
	}
	return strings.Join(lowered, "|")
}

// HasLevels reports whether the structure has anything to drill down into.
func (s Structure) HasLevels() bool {
	return len(s.Levels) > 0
}

// Level returns the label at idx.
func (s Structure) Level(idx int) (string, bool) {
	if idx < 0 || idx >= len(s.Levels) {
		return "", false
	}
	return s.Levels[idx], true
}

// LevelBySlug returns the index of the first level whose slug equals slug.
// Distinct labels may share a slug; the shallowest one wins.
func (s Structure) LevelBySlug(slug string) (int, bool) {
	for i, l := range s.Levels {
		if Slugify(l) == slug {
			return i, true
		}
	}
	return -1, false
}

// Normalize trims the name and levels and drops empty levels. When the name is
// blank and the levels are the built-in hierarchy, DefaultName is used.
func (d Draft) Normalize() Draft {
	out := Draft{Name: strings.TrimSpace(d.Name)}
	out.Levels = CleanLevels(d.Levels)
	if out.Name == "" && isDefaultLevels(out.Levels) {
		out.Name = DefaultName
	}
	return out
}

// Validate returns ErrInvalid when the normalized draft cannot be created.
func (d Draft) Validate() error {
	n := d.Normalize()
	if n.Name == "" || len(n.Levels) == 0 {
		return ErrInvalid
	}
	return nil
}

// CleanLevels trims every label and drops the empty ones, keeping order.
func CleanLevels(levels []string) []string {
	out := make([]string, 0, len(levels))
	for _, l := range levels {
		if l = strings.TrimSpace(l); l != "" {
			out = append(out, l)
		}
	}
	return out
}

// Clone returns a copy that shares no slice memory with s.
func (s Structure) Clone() Structure {
	c := s
	if s.Levels != nil {
		c.Levels = make([]string, len(s.Levels))
		copy(c.Levels, s.Levels)
	}
	return c
}
