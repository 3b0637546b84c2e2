package server

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/p-blackswan/lifeos/internal/nav"
	"github.com/p-blackswan/lifeos/internal/stats"
	"github.com/p-blackswan/lifeos/internal/store"
	"github.com/p-blackswan/lifeos/internal/structure"
)

// RouteResolution is the response of GET /api/v1/routes/resolve. Structure
// and Level are set when a dynamic route names a structure (and level) the
// caller owns.
type RouteResolution struct {
	Match     nav.Match            `json:"match"`
	Structure *structure.Structure `json:"structure,omitempty"`
	Level     *LevelRef            `json:"level,omitempty"`
}

// LevelRef identifies one level of a structure.
type LevelRef struct {
	Index int    `json:"index"`
	Label string `json:"label"`
	Slug  string `json:"slug"`
}

// CalendarResponse is the response of GET /api/v1/calendar.
type CalendarResponse struct {
	Month    string          `json:"month"`
	Timezone string          `json:"timezone"`
	Days     []stats.GridDay `json:"days"`
}

// Navigation handles GET /api/v1/navigation. The sidebar is resolved
// statelessly from the query: path, selected structure and expanded ids.
func (h *handlers) Navigation(c *fiber.Ctx) error {
	id := identity(c)
	structures, err := h.store.ListStructures(c.UserContext(), id.UserID)
	if err != nil {
		return storeError(c, err)
	}

	mode := nav.Primary()
	if sel := strings.TrimSpace(c.Query("selected")); sel != "" {
		mode = nav.ScopedTo(sel)
	}

	expanded := make(map[string]bool)
	for _, e := range strings.Split(c.Query("expanded"), ",") {
		if e = strings.TrimSpace(e); e != "" {
			expanded[e] = true
		}
	}

	return c.JSON(nav.Resolve(nav.Input{
		Structures:  structures,
		Mode:        mode,
		CurrentPath: c.Query("path"),
		Items:       h.items,
		Role:        id.Role,
		Expanded:    expanded,
	}))
}

// ResolveRoute handles GET /api/v1/routes/resolve.
func (h *handlers) ResolveRoute(c *fiber.Ctx) error {
	path := c.Query("path")
	if path == "" {
		return badRequest(c, "missing_path", "path query parameter is required")
	}

	res := RouteResolution{Match: nav.MatchPath(path)}
	structureID := res.Match.Params["structureId"]
	if res.Match.Kind != nav.MatchDynamic || structureID == "" {
		return c.JSON(res)
	}

	structures, err := h.store.ListStructures(c.UserContext(), identity(c).UserID)
	if err != nil {
		return storeError(c, err)
	}
	if slug, ok := res.Match.Params["levelSlug"]; ok {
		if st, idx, found := nav.ResolveLevel(structures, structureID, slug); found {
			res.Structure = &st
			res.Level = &LevelRef{Index: idx, Label: st.Levels[idx], Slug: slug}
		}
		return c.JSON(res)
	}
	for i := range structures {
		if structures[i].ID == structureID {
			res.Structure = &structures[i]
			break
		}
	}
	return c.JSON(res)
}

// Calendar handles GET /api/v1/calendar?month=YYYY-MM&tz=&today=.
func (h *handlers) Calendar(c *fiber.Ctx) error {
	loc, err := h.locationFor(c)
	if err != nil {
		return badRequest(c, "invalid_timezone", err.Error())
	}
	today, err := h.today(c, loc)
	if err != nil {
		return badRequest(c, "invalid_date", "today must be YYYY-MM-DD")
	}

	anchor := time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, loc)
	if m := c.Query("month"); m != "" {
		anchor, err = time.ParseInLocation("2006-01", m, loc)
		if err != nil {
			return badRequest(c, "invalid_month", "month must be YYYY-MM")
		}
	}

	// The grid pads up to six days on either side of the month.
	r := store.EventRange{From: anchor.AddDate(0, 0, -7), To: anchor.AddDate(0, 1, 7)}
	events, err := h.store.ListEvents(c.UserContext(), identity(c).UserID, c.Query("structure"), r)
	if err != nil {
		return storeError(c, err)
	}

	return c.JSON(CalendarResponse{
		Month:    anchor.Format("2006-01"),
		Timezone: loc.String(),
		Days:     stats.MonthGrid(anchor, today, events, loc),
	})
}
