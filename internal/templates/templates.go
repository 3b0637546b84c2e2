// Package templates loads the catalogue of structure templates: named level
// lists a user can start a new structure from.
package templates

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/p-blackswan/lifeos/internal/structure"
)

//go:embed catalogue.yaml
var builtin []byte

// DefaultKey identifies the built-in Goal → Objective → Project → Task template.
const DefaultKey = "goals-projects"

// Template is one catalogue entry.
type Template struct {
	Key         string   `yaml:"key" json:"key"`
	Name        string   `yaml:"name" json:"name"`
	Description string   `yaml:"description" json:"description,omitempty"`
	Levels      []string `yaml:"levels" json:"levels"`
}

// Draft converts the template into a structure draft. A non-blank name
// overrides the template's own.
func (t Template) Draft(name string) structure.Draft {
	if strings.TrimSpace(name) == "" {
		name = t.Name
	}
	levels := make([]string, len(t.Levels))
	copy(levels, t.Levels)
	return structure.Draft{Name: name, Levels: levels}
}

type file struct {
	Templates []Template `yaml:"templates"`
}

// Catalogue is an ordered, key-addressable set of templates. The default
// template is always present and always first.
type Catalogue struct {
	list  []Template
	byKey map[string]int
}

// Builtin returns the embedded catalogue.
func Builtin() *Catalogue {
	c, err := Parse(builtin)
	if err != nil {
		panic(fmt.Sprintf("templates: embedded catalogue: %v", err))
	}
	return c
}

// Load reads a catalogue from path. An empty path returns the embedded one.
func Load(path string) (*Catalogue, error) {
	if path == "" {
		return Builtin(), nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("templates: read %s: %w", path, err)
	}
	c, err := Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("templates: %s: %w", path, err)
	}
	return c, nil
}

// Parse decodes a YAML catalogue. Entries must have a unique key and at least
// one non-empty level; names default to the key.
func Parse(data []byte) (*Catalogue, error) {
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse: %w", err)
	}

	c := &Catalogue{byKey: make(map[string]int)}
	c.add(Template{
		Key:         DefaultKey,
		Name:        structure.DefaultName,
		Description: "The built-in four-level hierarchy.",
		Levels:      append([]string(nil), structure.DefaultLevels...),
	})

	for i, t := range f.Templates {
		t.Key = strings.TrimSpace(t.Key)
		if t.Key == "" {
			return nil, fmt.Errorf("template %d: key is required", i)
		}
		t.Levels = structure.CleanLevels(t.Levels)
		if len(t.Levels) == 0 {
			return nil, fmt.Errorf("template %q: at least one level is required", t.Key)
		}
		if strings.TrimSpace(t.Name) == "" {
			t.Name = t.Key
		}
		if t.Key == DefaultKey {
			// The file may rename or describe the default but not move it.
			c.list[0] = t
			continue
		}
		if _, dup := c.byKey[t.Key]; dup {
			return nil, fmt.Errorf("template %q: duplicate key", t.Key)
		}
		c.add(t)
	}
	return c, nil
}

func (c *Catalogue) add(t Template) {
	c.byKey[t.Key] = len(c.list)
	c.list = append(c.list, t)
}

// List returns the templates in catalogue order.
func (c *Catalogue) List() []Template {
	out := make([]Template, len(c.list))
	copy(out, c.list)
	return out
}

// Get looks a template up by key.
func (c *Catalogue) Get(key string) (Template, bool) {
	i, ok := c.byKey[key]
	if !ok {
		return Template{}, false
	}
	return c.list[i], true
}

// Default returns the built-in template.
func (c *Catalogue) Default() Template {
	return c.list[0]
}
