// Package nav resolves sidebar navigation and routes from the static menu and the
// user's structures.
package nav

import "slices"

// Role is the viewer's access level.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// ParseRole maps a claim value onto a Role; anything unknown is a plain user.
func ParseRole(s string) Role {
	if Role(s) == RoleAdmin {
		return RoleAdmin
	}
	return RoleUser
}

// Item is one entry of the static navigation menu.
type Item struct {
	Name  string `json:"name"`
	Href  string `json:"href"`
	Icon  string `json:"icon"`
	Roles []Role `json:"roles"`
}

// VisibleTo reports whether a viewer with role may see the item. Admins see
// user items in addition to admin-only ones.
func (i Item) VisibleTo(role Role) bool {
	if slices.Contains(i.Roles, role) {
		return true
	}
	return role == RoleAdmin && slices.Contains(i.Roles, RoleUser)
}

// Filter returns the items visible to role, in their original order.
func Filter(items []Item, role Role) []Item {
	out := make([]Item, 0, len(items))
	for _, it := range items {
		if it.VisibleTo(role) {
			out = append(out, it)
		}
	}
	return out
}

// DefaultItems is the primary menu.
func DefaultItems() []Item {
	both := []Role{RoleUser, RoleAdmin}
	return []Item{
		{Name: "Dashboard", Href: "/dashboard", Icon: "home", Roles: both},
		{Name: "Goals", Href: "/goals", Icon: "target", Roles: both},
		{Name: "Objectives", Href: "/objectives", Icon: "flag", Roles: both},
		{Name: "Projects", Href: "/projects", Icon: "folder", Roles: both},
		{Name: "Tasks", Href: "/tasks", Icon: "check-square", Roles: both},
		{Name: "Habits", Href: "/habits", Icon: "repeat", Roles: both},
		{Name: "Calendar", Href: "/calendar", Icon: "calendar", Roles: both},
		{Name: "Notes", Href: "/notes", Icon: "file-text", Roles: both},
		{Name: "Admin", Href: "/admin-dashboard", Icon: "shield", Roles: []Role{RoleAdmin}},
		{Name: "Settings", Href: "/settings", Icon: "settings", Roles: both},
	}
}

// IsActive is exact path equality; sub-paths do not activate a parent item.
func IsActive(href, currentPath string) bool {
	return href == currentPath
}
