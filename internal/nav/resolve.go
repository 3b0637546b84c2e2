package nav

import (
	"github.com/p-blackswan/lifeos/internal/structure"
)

// legacyRoutes are the static pages of the built-in hierarchy, by level index.
var legacyRoutes = []string{"/goals", "/objectives", "/projects", "/tasks"}

// LevelRoute returns the page a level of s links to: the legacy static page for
// the built-in hierarchy, otherwise /s/{id}/{slug}. ok is false when idx is
// outside s.Levels.
func LevelRoute(s structure.Structure, idx int) (string, bool) {
	label, ok := s.Level(idx)
	if !ok {
		return "", false
	}
	if structure.IsDefault(s) && idx < len(legacyRoutes) {
		return legacyRoutes[idx], true
	}
	return "/s/" + s.ID + "/" + structure.Slugify(label), true
}

// Mode is which sidebar is showing: the primary menu, or the menu scoped to one
// structure. There is no deeper nesting than that.
type Mode struct {
	scopedTo string
}

// Primary is the unscoped sidebar.
func Primary() Mode { return Mode{} }

// ScopedTo is the sidebar of a single structure.
func ScopedTo(structureID string) Mode { return Mode{scopedTo: structureID} }

// StructureID returns the scoped structure, if any.
func (m Mode) StructureID() (string, bool) {
	return m.scopedTo, m.scopedTo != ""
}

// IsPrimary reports whether m is the primary menu.
func (m Mode) IsPrimary() bool { return m.scopedTo == "" }

// Select toggles: selecting the structure already in scope goes back to the
// primary menu, anything else replaces the current scope.
func (m Mode) Select(structureID string) Mode {
	if structureID == "" || structureID == m.scopedTo {
		return Primary()
	}
	return ScopedTo(structureID)
}

func (m Mode) String() string {
	if m.IsPrimary() {
		return "primary"
	}
	return "scoped:" + m.scopedTo
}

// Link is a resolved sidebar entry.
type Link struct {
	Name   string `json:"name"`
	Href   string `json:"href"`
	Icon   string `json:"icon,omitempty"`
	Active bool   `json:"active"`
}

// StructureEntry is a structure in the primary sidebar. Levels is only filled
// when the structure is expanded.
type StructureEntry struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	IsDefault bool   `json:"is_default"`
	Expanded  bool   `json:"expanded"`
	Levels    []Link `json:"levels,omitempty"`
}

// ScopedMenu is the secondary sidebar of one structure.
type ScopedMenu struct {
	StructureID string `json:"structure_id"`
	Name        string `json:"name"`
	Utilities   []Link `json:"utilities"`
	Levels      []Link `json:"levels"`
}

// Sidebar is the resolved navigation for one render.
type Sidebar struct {
	Mode       string           `json:"mode"`
	Items      []Link           `json:"items,omitempty"`
	Structures []StructureEntry `json:"structures,omitempty"`
	Scoped     *ScopedMenu      `json:"scoped,omitempty"`
}

// Input is everything Resolve needs.
type Input struct {
	Structures  []structure.Structure
	Mode        Mode
	CurrentPath string
	Items       []Item
	Role        Role
	// RoleFiltered means Items were already filtered for Role.
	RoleFiltered bool
	Expanded     map[string]bool
}

// Resolve builds the sidebar. A scope pointing at a structure that is no longer
// in Structures falls back to the primary menu.
func Resolve(in Input) Sidebar {
	if id, ok := in.Mode.StructureID(); ok {
		if s, found := find(in.Structures, id); found {
			return Sidebar{Mode: ScopedTo(id).String(), Scoped: scopedMenu(s, in.CurrentPath)}
		}
	}

	items := in.Items
	if !in.RoleFiltered {
		items = Filter(items, in.Role)
	}
	sb := Sidebar{Mode: Primary().String(), Items: make([]Link, 0, len(items))}
	for _, it := range items {
		sb.Items = append(sb.Items, Link{
			Name:   it.Name,
			Href:   it.Href,
			Icon:   it.Icon,
			Active: IsActive(it.Href, in.CurrentPath),
		})
	}
	for _, s := range in.Structures {
		entry := StructureEntry{
			ID:        s.ID,
			Name:      s.Name,
			IsDefault: structure.IsDefault(s),
			Expanded:  in.Expanded[s.ID],
		}
		if entry.Expanded {
			entry.Levels = levelLinks(s, in.CurrentPath)
		}
		sb.Structures = append(sb.Structures, entry)
	}
	return sb
}

func scopedMenu(s structure.Structure, currentPath string) *ScopedMenu {
	base := "/structures/" + s.ID
	utilities := []Link{
		{Name: "Calendar", Href: base + "/calendar", Icon: "calendar"},
		{Name: "Habits", Href: base + "/habits", Icon: "repeat"},
		{Name: "Notes", Href: base + "/notes", Icon: "file-text"},
	}
	for i := range utilities {
		utilities[i].Active = IsActive(utilities[i].Href, currentPath)
	}
	return &ScopedMenu{
		StructureID: s.ID,
		Name:        s.Name,
		Utilities:   utilities,
		Levels:      levelLinks(s, currentPath),
	}
}

func levelLinks(s structure.Structure, currentPath string) []Link {
	links := make([]Link, 0, len(s.Levels))
	for i, label := range s.Levels {
		href, _ := LevelRoute(s, i)
		links = append(links, Link{Name: label, Href: href, Active: IsActive(href, currentPath)})
	}
	return links
}

func find(structures []structure.Structure, id string) (structure.Structure, bool) {
	for _, s := range structures {
		if s.ID == id {
			return s, true
		}
	}
	return structure.Structure{}, false
}
