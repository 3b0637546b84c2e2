package nav

import (
	"strings"

	"github.com/p-blackswan/lifeos/internal/structure"
)

// FallbackRoute is where unmatched paths are redirected.
const FallbackRoute = "/dashboard"

// StaticRoutes are the fixed pages of the application.
var StaticRoutes = []string{
	"/dashboard", "/goals", "/objectives", "/projects", "/tasks", "/habits",
	"/calendar", "/notes", "/settings", "/admin-dashboard",
	"/login", "/register", "/unauthorized",
}

// dynamicRoutes are matched in order; fixed segments must precede :levelSlug.
var dynamicRoutes = []string{
	"/structures/:structureId",
	"/structures/:structureId/calendar",
	"/structures/:structureId/habits",
	"/structures/:structureId/notes",
	"/structures/:structureId/:levelSlug",
	"/s/:structureId/:levelSlug",
}

// MatchKind classifies a routing result.
type MatchKind string

const (
	MatchStatic   MatchKind = "static"
	MatchDynamic  MatchKind = "dynamic"
	MatchRedirect MatchKind = "redirect"
)

// Match is the result of routing a path.
type Match struct {
	Kind     MatchKind         `json:"kind"`
	Pattern  string            `json:"pattern,omitempty"`
	Params   map[string]string `json:"params,omitempty"`
	Redirect string            `json:"redirect,omitempty"`
}

// MatchPath routes path against the static then dynamic tables. Anything
// unmatched redirects to FallbackRoute.
func MatchPath(path string) Match {
	for _, r := range StaticRoutes {
		if r == path {
			return Match{Kind: MatchStatic, Pattern: r}
		}
	}
	segs := splitPath(path)
	for _, pattern := range dynamicRoutes {
		if params, ok := matchPattern(splitPath(pattern), segs); ok {
			return Match{Kind: MatchDynamic, Pattern: pattern, Params: params}
		}
	}
	return Match{Kind: MatchRedirect, Redirect: FallbackRoute}
}

func splitPath(p string) []string {
	p = strings.Trim(p, "/")
	if p == "" {
		return nil
	}
	return strings.Split(p, "/")
}

func matchPattern(pattern, segs []string) (map[string]string, bool) {
	if len(pattern) != len(segs) {
		return nil, false
	}
	params := make(map[string]string)
	for i, p := range pattern {
		if strings.HasPrefix(p, ":") {
			if segs[i] == "" {
				return nil, false
			}
			params[p[1:]] = segs[i]
			continue
		}
		if p != segs[i] {
			return nil, false
		}
	}
	return params, true
}

// ResolveLevel finds the structure and level index a dynamic level route
// points at.
func ResolveLevel(structures []structure.Structure, structureID, levelSlug string) (structure.Structure, int, bool) {
	s, ok := find(structures, structureID)
	if !ok {
		return structure.Structure{}, -1, false
	}
	idx, ok := s.LevelBySlug(levelSlug)
	if !ok {
		return structure.Structure{}, -1, false
	}
	return s, idx, true
}
