package workspace

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/p-blackswan/lifeos/internal/clientstate"
	lerrors "github.com/p-blackswan/lifeos/internal/errors"
	"github.com/p-blackswan/lifeos/internal/nav"
	"github.com/p-blackswan/lifeos/internal/structure"
	"github.com/p-blackswan/lifeos/pkg/kvstore"
)

// fakeAPI is an in-memory API that counts calls.
type fakeAPI struct {
	structures []structure.APIStructure
	nextID     int
	calls      map[string]int
	fail       error
}

func newFakeAPI(list ...structure.APIStructure) *fakeAPI {
	return &fakeAPI{structures: list, calls: map[string]int{}}
}

func levels(l ...string) json.RawMessage {
	raw, _ := json.Marshal(l)
	return raw
}

func (f *fakeAPI) GetStructures(_ context.Context) ([]structure.APIStructure, error) {
	f.calls["get"]++
	if f.fail != nil {
		return nil, f.fail
	}
	return append([]structure.APIStructure(nil), f.structures...), nil
}

func (f *fakeAPI) CreateStructure(_ context.Context, d structure.Draft) (structure.APIStructure, error) {
	f.calls["create"]++
	if f.fail != nil {
		return structure.APIStructure{}, f.fail
	}
	f.nextID++
	a := structure.APIStructure{ID: fmt.Sprintf("new-%d", f.nextID), Name: d.Name, Levels: levels(d.Levels...)}
	f.structures = append(f.structures, a)
	return a, nil
}

func (f *fakeAPI) UpdateStructureLevels(_ context.Context, id string, l []string) (structure.APIStructure, error) {
	f.calls["update"]++
	if f.fail != nil {
		return structure.APIStructure{}, f.fail
	}
	for i, a := range f.structures {
		if a.ID == id {
			f.structures[i].Levels = levels(l...)
			return f.structures[i], nil
		}
	}
	return structure.APIStructure{}, lerrors.NewAPIError("lifeos", 404, "not found")
}

func (f *fakeAPI) DeleteStructure(_ context.Context, id string) error {
	f.calls["delete"]++
	if f.fail != nil {
		return f.fail
	}
	for i, a := range f.structures {
		if a.ID == id {
			f.structures = append(f.structures[:i], f.structures[i+1:]...)
			return nil
		}
	}
	return lerrors.NewAPIError("lifeos", 404, "not found")
}

func newWorkspace(t *testing.T, api API) (*Workspace, *clientstate.State) {
	t.Helper()
	st := clientstate.New(kvstore.NewMemoryStore(), clientstate.UserContext{UserID: "u1", Role: nav.RoleUser})
	return New(api, st, zerolog.Nop()), st
}

func TestWorkspace_LoadNormalizesMalformedLevels(t *testing.T) {
	api := newFakeAPI(
		structure.APIStructure{ID: "a", Name: "Life", Levels: levels("Goal", "Objective", "Project", "Task")},
		structure.APIStructure{ID: "b", Name: "Broken"},
		structure.APIStructure{ID: "c", Name: "Odd", Levels: json.RawMessage(`"Plan"`)},
	)
	ws, _ := newWorkspace(t, api)
	require.NoError(t, ws.Load(context.Background()))

	list := ws.Structures()
	require.Len(t, list, 3)
	assert.Equal(t, []string{}, list[1].Levels)
	assert.Equal(t, []string{}, list[2].Levels)
}

func TestWorkspace_LoadErrorIsReturnedWithoutRetry(t *testing.T) {
	api := newFakeAPI()
	api.fail = lerrors.NewAPIError("lifeos", 503, "down")
	ws, _ := newWorkspace(t, api)

	err := ws.Load(context.Background())
	require.Error(t, err)
	assert.True(t, lerrors.IsRetryable(err))
	assert.Equal(t, 1, api.calls["get"])
	assert.Empty(t, ws.Structures())
}

func TestWorkspace_Create(t *testing.T) {
	api := newFakeAPI()
	ws, _ := newWorkspace(t, api)

	s, err := ws.Create(context.Background(), structure.Draft{Name: " Product ", Levels: []string{"Plan", " ", "Ship"}})
	require.NoError(t, err)
	assert.Equal(t, "new-1", s.ID)
	assert.Equal(t, "Product", s.Name)
	assert.Equal(t, []string{"Plan", "Ship"}, s.Levels)
	assert.Len(t, ws.Structures(), 1)
}

func TestWorkspace_CreateInvalidSkipsNetwork(t *testing.T) {
	api := newFakeAPI()
	ws, _ := newWorkspace(t, api)

	_, err := ws.Create(context.Background(), structure.Draft{Name: "x", Levels: []string{"", "  "}})
	assert.ErrorIs(t, err, structure.ErrInvalid)
	_, err = ws.Create(context.Background(), structure.Draft{Name: "", Levels: []string{"Plan"}})
	assert.ErrorIs(t, err, structure.ErrInvalid)

	assert.Zero(t, api.calls["create"])
	assert.Empty(t, ws.Structures())
}

func TestWorkspace_CreateDefaultTemplateGetsName(t *testing.T) {
	ws, _ := newWorkspace(t, newFakeAPI())
	s, err := ws.Create(context.Background(), structure.Draft{Levels: structure.DefaultLevels})
	require.NoError(t, err)
	assert.Equal(t, structure.DefaultName, s.Name)
	assert.True(t, structure.IsDefault(s))
}

func TestWorkspace_UpdateLevelsReplacesById(t *testing.T) {
	api := newFakeAPI(
		structure.APIStructure{ID: "a", Name: "A", Levels: levels("One")},
		structure.APIStructure{ID: "b", Name: "B", Levels: levels("Two")},
	)
	ws, _ := newWorkspace(t, api)
	require.NoError(t, ws.Load(context.Background()))

	s, err := ws.UpdateLevels(context.Background(), "b", []string{"Plan", "Build"})
	require.NoError(t, err)
	assert.Equal(t, []string{"Plan", "Build"}, s.Levels)

	list := ws.Structures()
	assert.Equal(t, []string{"One"}, list[0].Levels)
	assert.Equal(t, []string{"Plan", "Build"}, list[1].Levels)
	assert.Equal(t, "B", list[1].Name)

	_, err = ws.UpdateLevels(context.Background(), "b", []string{" "})
	assert.ErrorIs(t, err, structure.ErrInvalid)
	assert.Equal(t, 1, api.calls["update"])
}

func TestWorkspace_DeleteClearsSelection(t *testing.T) {
	ctx := context.Background()
	api := newFakeAPI(
		structure.APIStructure{ID: "a", Name: "A", Levels: levels("One")},
		structure.APIStructure{ID: "b", Name: "B", Levels: levels("Two")},
	)
	ws, st := newWorkspace(t, api)
	require.NoError(t, ws.Load(ctx))

	_, err := ws.Select(ctx, "a")
	require.NoError(t, err)
	_, err = ws.ToggleExpanded(ctx, "a")
	require.NoError(t, err)
	_, err = ws.ToggleExpanded(ctx, "b")
	require.NoError(t, err)

	require.NoError(t, ws.Delete(ctx, "a"))

	m, err := ws.Mode(ctx)
	require.NoError(t, err)
	assert.True(t, m.IsPrimary())
	stored, _ := st.Mode(ctx)
	assert.True(t, stored.IsPrimary(), "persisted selection cleared too")

	exp, _ := st.Expanded(ctx)
	assert.Equal(t, map[string]bool{"b": true}, exp)
	require.Len(t, ws.Structures(), 1)
	assert.Equal(t, "b", ws.Structures()[0].ID)
}

func TestWorkspace_DeleteOtherKeepsSelection(t *testing.T) {
	ctx := context.Background()
	api := newFakeAPI(
		structure.APIStructure{ID: "a", Name: "A", Levels: levels("One")},
		structure.APIStructure{ID: "b", Name: "B", Levels: levels("Two")},
	)
	ws, _ := newWorkspace(t, api)
	require.NoError(t, ws.Load(ctx))
	_, err := ws.Select(ctx, "a")
	require.NoError(t, err)

	require.NoError(t, ws.Delete(ctx, "b"))
	m, _ := ws.Mode(ctx)
	id, ok := m.StructureID()
	assert.True(t, ok)
	assert.Equal(t, "a", id)
}

func TestWorkspace_DeleteFailureKeepsCollection(t *testing.T) {
	ctx := context.Background()
	api := newFakeAPI(structure.APIStructure{ID: "a", Name: "A", Levels: levels("One")})
	ws, _ := newWorkspace(t, api)
	require.NoError(t, ws.Load(ctx))

	api.fail = errors.New("connection refused")
	assert.Error(t, ws.Delete(ctx, "a"))
	assert.Len(t, ws.Structures(), 1)
}

func TestWorkspace_StaleSelectionResolvesToPrimary(t *testing.T) {
	ctx := context.Background()
	api := newFakeAPI(structure.APIStructure{ID: "a", Name: "A", Levels: levels("One")})
	ws, st := newWorkspace(t, api)
	require.NoError(t, ws.Load(ctx))
	require.NoError(t, st.SetMode(ctx, nav.ScopedTo("deleted-elsewhere")))

	m, err := ws.Mode(ctx)
	require.NoError(t, err)
	assert.True(t, m.IsPrimary())

	sb, err := ws.Sidebar(ctx, "/dashboard", nav.DefaultItems())
	require.NoError(t, err)
	assert.Equal(t, "primary", sb.Mode)
	assert.Nil(t, sb.Scoped)
}

func TestWorkspace_SelectToggleAndUnknown(t *testing.T) {
	ctx := context.Background()
	api := newFakeAPI(structure.APIStructure{ID: "a", Name: "A", Levels: levels("Plan", "Ship")})
	ws, _ := newWorkspace(t, api)
	require.NoError(t, ws.Load(ctx))

	m, err := ws.Select(ctx, "a")
	require.NoError(t, err)
	assert.False(t, m.IsPrimary())

	sb, err := ws.Sidebar(ctx, "/s/a/ship", nav.DefaultItems())
	require.NoError(t, err)
	require.NotNil(t, sb.Scoped)
	assert.True(t, sb.Scoped.Levels[1].Active)

	m, err = ws.Select(ctx, "a")
	require.NoError(t, err)
	assert.True(t, m.IsPrimary())

	_, err = ws.Select(ctx, "zzz")
	assert.ErrorIs(t, err, ErrUnknownStructure)
	_, err = ws.ToggleExpanded(ctx, "zzz")
	assert.ErrorIs(t, err, ErrUnknownStructure)

	require.NoError(t, ws.Deselect(ctx))
}
