// Package workspace is the client's view of the user's structures. It keeps the
// fetched collection consistent with every create, level update and delete it
// performs through the API, and owns the per-user sidebar state that goes with
// it.
package workspace

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/p-blackswan/lifeos/internal/clientstate"
	"github.com/p-blackswan/lifeos/internal/nav"
	"github.com/p-blackswan/lifeos/internal/structure"
)

// API is the subset of the LifeOS REST API the workspace needs.
type API interface {
	GetStructures(ctx context.Context) ([]structure.APIStructure, error)
	CreateStructure(ctx context.Context, d structure.Draft) (structure.APIStructure, error)
	UpdateStructureLevels(ctx context.Context, id string, levels []string) (structure.APIStructure, error)
	DeleteStructure(ctx context.Context, id string) error
}

// Workspace holds the structures of one user. API errors are returned
// unchanged and never retried here.
type Workspace struct {
	api    API
	state  *clientstate.State
	logger zerolog.Logger

	mu         sync.Mutex
	structures []structure.Structure
}

// New creates a workspace for the user state belongs to.
func New(api API, state *clientstate.State, logger zerolog.Logger) *Workspace {
	return &Workspace{
		api:    api,
		state:  state,
		logger: logger.With().Str("component", "workspace").Str("user_id", state.User().UserID).Logger(),
	}
}

// Load replaces the collection with the server's.
func (w *Workspace) Load(ctx context.Context) error {
	raw, err := w.api.GetStructures(ctx)
	if err != nil {
		w.logger.Warn().Err(err).Msg("failed to load structures")
		return fmt.Errorf("loading structures: %w", err)
	}
	list := structure.FromAPIList(raw)

	w.mu.Lock()
	w.structures = list
	w.mu.Unlock()

	w.logger.Debug().Int("count", len(list)).Msg("structures loaded")
	return nil
}

// Structures returns a copy of the current collection.
func (w *Workspace) Structures() []structure.Structure {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]structure.Structure, len(w.structures))
	for i, s := range w.structures {
		out[i] = s.Clone()
	}
	return out
}

// Get returns the structure with id from the current collection.
func (w *Workspace) Get(id string) (structure.Structure, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, s := range w.structures {
		if s.ID == id {
			return s.Clone(), true
		}
	}
	return structure.Structure{}, false
}

// Create validates d and, only if it is valid, creates it through the API and
// appends the result. An invalid draft returns structure.ErrInvalid without
// any network call.
func (w *Workspace) Create(ctx context.Context, d structure.Draft) (structure.Structure, error) {
	if err := d.Validate(); err != nil {
		return structure.Structure{}, err
	}
	raw, err := w.api.CreateStructure(ctx, d.Normalize())
	if err != nil {
		w.logger.Warn().Err(err).Str("name", d.Name).Msg("failed to create structure")
		return structure.Structure{}, fmt.Errorf("creating structure: %w", err)
	}
	s := structure.FromAPI(raw)

	w.mu.Lock()
	w.structures = append(w.structures, s)
	w.mu.Unlock()

	w.logger.Info().Str("structure_id", s.ID).Int("levels", len(s.Levels)).Msg("structure created")
	return s.Clone(), nil
}

// UpdateLevels replaces the whole level list of structure id.
func (w *Workspace) UpdateLevels(ctx context.Context, id string, levels []string) (structure.Structure, error) {
	cleaned := structure.CleanLevels(levels)
	if len(cleaned) == 0 {
		return structure.Structure{}, structure.ErrInvalid
	}
	raw, err := w.api.UpdateStructureLevels(ctx, id, cleaned)
	if err != nil {
		w.logger.Warn().Err(err).Str("structure_id", id).Msg("failed to update levels")
		return structure.Structure{}, fmt.Errorf("updating structure %s: %w", id, err)
	}
	updated := structure.FromAPI(raw)

	w.mu.Lock()
	for i := range w.structures {
		if w.structures[i].ID == id {
			w.structures[i].Levels = updated.Levels
			if updated.Name != "" {
				w.structures[i].Name = updated.Name
			}
			updated = w.structures[i]
			break
		}
	}
	w.mu.Unlock()

	return updated.Clone(), nil
}

// Delete removes structure id through the API, then from the collection and
// from the sidebar state (selection and expansion).
func (w *Workspace) Delete(ctx context.Context, id string) error {
	if err := w.api.DeleteStructure(ctx, id); err != nil {
		w.logger.Warn().Err(err).Str("structure_id", id).Msg("failed to delete structure")
		return fmt.Errorf("deleting structure %s: %w", id, err)
	}

	w.mu.Lock()
	kept := w.structures[:0]
	for _, s := range w.structures {
		if s.ID != id {
			kept = append(kept, s)
		}
	}
	w.structures = kept
	w.mu.Unlock()

	if err := w.state.Forget(ctx, id); err != nil {
		return fmt.Errorf("clearing state for %s: %w", id, err)
	}
	w.logger.Info().Str("structure_id", id).Msg("structure deleted")
	return nil
}

// Mode returns the sidebar mode, falling back to primary when the stored
// selection points at a structure that no longer exists.
func (w *Workspace) Mode(ctx context.Context) (nav.Mode, error) {
	m, err := w.state.Mode(ctx)
	if err != nil {
		return nav.Primary(), err
	}
	if id, ok := m.StructureID(); ok {
		if _, exists := w.Get(id); !exists {
			return nav.Primary(), nil
		}
	}
	return m, nil
}

// Select applies nav.Mode.Select for id and persists the result.
func (w *Workspace) Select(ctx context.Context, id string) (nav.Mode, error) {
	if _, ok := w.Get(id); !ok {
		return nav.Primary(), fmt.Errorf("structure %s: %w", id, ErrUnknownStructure)
	}
	cur, err := w.Mode(ctx)
	if err != nil {
		return cur, err
	}
	next := cur.Select(id)
	return next, w.state.SetMode(ctx, next)
}

// Deselect returns to the primary menu.
func (w *Workspace) Deselect(ctx context.Context) error {
	return w.state.SetMode(ctx, nav.Primary())
}

// ToggleExpanded flips the expansion of one structure in the primary sidebar.
func (w *Workspace) ToggleExpanded(ctx context.Context, id string) (bool, error) {
	if _, ok := w.Get(id); !ok {
		return false, fmt.Errorf("structure %s: %w", id, ErrUnknownStructure)
	}
	return w.state.ToggleExpanded(ctx, id)
}

// Sidebar resolves the navigation for currentPath from the persisted state.
func (w *Workspace) Sidebar(ctx context.Context, currentPath string, items []nav.Item) (nav.Sidebar, error) {
	mode, err := w.Mode(ctx)
	if err != nil {
		return nav.Sidebar{}, err
	}
	expanded, err := w.state.Expanded(ctx)
	if err != nil {
		return nav.Sidebar{}, err
	}
	return nav.Resolve(nav.Input{
		Structures:  w.Structures(),
		Mode:        mode,
		CurrentPath: currentPath,
		Items:       items,
		Role:        w.state.User().Role,
		Expanded:    expanded,
	}), nil
}
