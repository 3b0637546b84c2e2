// Package clientstate keeps the client's per-user sidebar state (selected
// structure, expanded structures, collapsed flag) in a kvstore.Store. Every key
// is namespaced by user id, so switching users switches state without any
// explicit teardown.
package clientstate

import (
	"context"
	"fmt"
	"slices"

	"github.com/p-blackswan/lifeos/internal/nav"
	"github.com/p-blackswan/lifeos/pkg/kvstore"
)

const keyPrefix = "lifeos"

// CurrentUserKey holds the last signed-in UserContext.
const CurrentUserKey = keyPrefix + ":current-user"

// UserContext identifies the signed-in user.
type UserContext struct {
	UserID string   `json:"user_id"`
	Role   nav.Role `json:"role"`
}

// SaveCurrentUser records uc as the signed-in user.
func SaveCurrentUser(ctx context.Context, s kvstore.Store, uc UserContext) error {
	return kvstore.SetJSON(ctx, s, CurrentUserKey, uc)
}

// LoadCurrentUser returns the signed-in user, if any.
func LoadCurrentUser(ctx context.Context, s kvstore.Store) (UserContext, bool, error) {
	var uc UserContext
	found, err := kvstore.GetJSON(ctx, s, CurrentUserKey, &uc)
	if err != nil || !found || uc.UserID == "" {
		return UserContext{}, false, err
	}
	return uc, true, nil
}

// State is one user's persisted sidebar state.
type State struct {
	store kvstore.Store
	user  UserContext
}

// New scopes state to uc.
func New(store kvstore.Store, uc UserContext) *State {
	return &State{store: store, user: uc}
}

// User returns the user this state belongs to.
func (s *State) User() UserContext { return s.user }

func (s *State) key(name string) string {
	return fmt.Sprintf("%s:%s:%s", keyPrefix, s.user.UserID, name)
}

// Mode returns the persisted sidebar mode.
func (s *State) Mode(ctx context.Context) (nav.Mode, error) {
	var id string
	found, err := kvstore.GetJSON(ctx, s.store, s.key("selected-structure"), &id)
	if err != nil {
		return nav.Primary(), err
	}
	if !found || id == "" {
		return nav.Primary(), nil
	}
	return nav.ScopedTo(id), nil
}

// SetMode persists m; the primary mode clears the stored selection.
func (s *State) SetMode(ctx context.Context, m nav.Mode) error {
	id, scoped := m.StructureID()
	if !scoped {
		return s.store.Remove(ctx, s.key("selected-structure"))
	}
	return kvstore.SetJSON(ctx, s.store, s.key("selected-structure"), id)
}

// Expanded returns the set of structure ids whose levels are shown.
func (s *State) Expanded(ctx context.Context) (map[string]bool, error) {
	var ids []string
	if _, err := kvstore.GetJSON(ctx, s.store, s.key("expanded-structures"), &ids); err != nil {
		return map[string]bool{}, err
	}
	set := make(map[string]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set, nil
}

// ToggleExpanded flips one structure's expansion and returns the new value.
// Other structures are untouched.
func (s *State) ToggleExpanded(ctx context.Context, structureID string) (bool, error) {
	set, err := s.Expanded(ctx)
	if err != nil {
		return false, err
	}
	now := !set[structureID]
	if now {
		set[structureID] = true
	} else {
		delete(set, structureID)
	}
	return now, s.saveExpanded(ctx, set)
}

func (s *State) saveExpanded(ctx context.Context, set map[string]bool) error {
	ids := make([]string, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return kvstore.SetJSON(ctx, s.store, s.key("expanded-structures"), ids)
}

// Forget drops every reference to a deleted structure: the selection if it
// pointed there, and its expansion flag.
func (s *State) Forget(ctx context.Context, structureID string) error {
	m, err := s.Mode(ctx)
	if err != nil {
		return err
	}
	if id, ok := m.StructureID(); ok && id == structureID {
		if err := s.SetMode(ctx, nav.Primary()); err != nil {
			return err
		}
	}
	set, err := s.Expanded(ctx)
	if err != nil {
		return err
	}
	if set[structureID] {
		delete(set, structureID)
		return s.saveExpanded(ctx, set)
	}
	return nil
}

// SidebarCollapsed returns the persisted collapsed flag.
func (s *State) SidebarCollapsed(ctx context.Context) (bool, error) {
	var v bool
	_, err := kvstore.GetJSON(ctx, s.store, s.key("sidebar-collapsed"), &v)
	return v, err
}

// SetSidebarCollapsed persists the collapsed flag.
func (s *State) SetSidebarCollapsed(ctx context.Context, collapsed bool) error {
	return kvstore.SetJSON(ctx, s.store, s.key("sidebar-collapsed"), collapsed)
}
