package templates

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/p-blackswan/lifeos/internal/structure"
)

func TestBuiltin(t *testing.T) {
	c := Builtin()
	list := c.List()
	require.NotEmpty(t, list)
	assert.Equal(t, DefaultKey, list[0].Key)
	assert.Equal(t, structure.DefaultLevels, c.Default().Levels)

	okr, ok := c.Get("okr")
	require.True(t, ok)
	assert.Equal(t, []string{"Objective", "Key Result", "Initiative"}, okr.Levels)

	_, ok = c.Get("missing")
	assert.False(t, ok)
}

func TestDefaultTemplateDraftIsDefault(t *testing.T) {
	d := Builtin().Default().Draft("").Normalize()
	assert.Equal(t, structure.DefaultName, d.Name)
	assert.True(t, structure.IsDefault(structure.Structure{Levels: d.Levels}))
}

func TestDraft_NameOverride(t *testing.T) {
	tpl := Template{Key: "k", Name: "Template", Levels: []string{"A"}}
	assert.Equal(t, "Mine", tpl.Draft("Mine").Name)
	assert.Equal(t, "Template", tpl.Draft("  ").Name)

	d := tpl.Draft("")
	d.Levels[0] = "changed"
	assert.Equal(t, "A", tpl.Levels[0])
}

func TestParse(t *testing.T) {
	c, err := Parse([]byte(`
templates:
  - key: sprint
    levels: [Epic, " ", Story]
  - key: goals-projects
    name: Big Picture
    levels: [Goal, Objective, Project, Task]
`))
	require.NoError(t, err)

	list := c.List()
	require.Len(t, list, 2)
	assert.Equal(t, "Big Picture", list[0].Name)
	assert.Equal(t, "sprint", list[1].Name)
	assert.Equal(t, []string{"Epic", "Story"}, list[1].Levels)
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"invalid yaml", `{ invalid yaml :`},
		{"missing key", "templates:\n  - name: x\n    levels: [A]\n"},
		{"no levels", "templates:\n  - key: x\n    levels: [' ']\n"},
		{"duplicate", "templates:\n  - key: x\n    levels: [A]\n  - key: x\n    levels: [B]\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			assert.Error(t, err)
		})
	}
}

func TestLoad(t *testing.T) {
	c, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Builtin().List(), c.List())

	path := filepath.Join(t.TempDir(), "templates.yaml")
	require.NoError(t, os.WriteFile(path, []byte("templates:\n  - key: gtd\n    levels: [Project, Next Action]\n"), 0o600))
	c, err = Load(path)
	require.NoError(t, err)
	_, ok := c.Get("gtd")
	assert.True(t, ok)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
