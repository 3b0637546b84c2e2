package server

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/p-blackswan/lifeos/internal/metrics"
	"github.com/p-blackswan/lifeos/internal/models"
	"github.com/p-blackswan/lifeos/internal/nav"
	"github.com/p-blackswan/lifeos/internal/structure"
	"github.com/p-blackswan/lifeos/internal/templates"
)

// handlers holds dependencies for HTTP handlers.
type handlers struct {
	store     Store
	templates *templates.Catalogue
	items     []nav.Item
	metrics   *metrics.Metrics
	now       func() time.Time
	location  *time.Location
	startTime time.Time
	logger    zerolog.Logger
}

// CreateStructureRequest is the body of POST /api/v1/structures. When Template
// is set, the template supplies the levels and a default name.
type CreateStructureRequest struct {
	Name     string   `json:"name"`
	Levels   []string `json:"levels"`
	Template string   `json:"template,omitempty"`
}

// UpdateLevelsRequest is the body of PUT /api/v1/structures/:id/levels.
type UpdateLevelsRequest struct {
	Levels []string `json:"levels"`
}

func (h *handlers) recordStructureOp(op string, err error) {
	if h.metrics != nil {
		h.metrics.RecordStructureOp(op, err)
	}
}

// ListStructures handles GET /api/v1/structures.
func (h *handlers) ListStructures(c *fiber.Ctx) error {
	list, err := h.store.ListStructures(c.UserContext(), identity(c).UserID)
	if err != nil {
		return storeError(c, err)
	}
	return c.JSON(list)
}

// GetStructure handles GET /api/v1/structures/:id.
func (h *handlers) GetStructure(c *fiber.Ctx) error {
	st, err := h.store.GetStructure(c.UserContext(), identity(c).UserID, c.Params("id"))
	if err != nil {
		return storeError(c, err)
	}
	return c.JSON(st)
}

// CreateStructure handles POST /api/v1/structures.
func (h *handlers) CreateStructure(c *fiber.Ctx) error {
	var req CreateStructureRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid_body", "Invalid request body: "+err.Error())
	}

	draft := structure.Draft{Name: req.Name, Levels: req.Levels}
	if key := strings.TrimSpace(req.Template); key != "" {
		tpl, ok := h.templates.Get(key)
		if !ok {
			return badRequest(c, "unknown_template", "Unknown structure template: "+key)
		}
		draft = tpl.Draft(req.Name)
	}

	st, err := h.store.CreateStructure(c.UserContext(), identity(c).UserID, draft)
	h.recordStructureOp("create", err)
	if err != nil {
		return storeError(c, err)
	}

	h.logger.Info().
		Str("user", identity(c).UserID).
		Str("structure", st.ID).
		Int("levels", len(st.Levels)).
		Msg("structure created")
	return c.Status(fiber.StatusCreated).JSON(st)
}

// UpdateStructureLevels handles PUT /api/v1/structures/:id/levels.
func (h *handlers) UpdateStructureLevels(c *fiber.Ctx) error {
	var req UpdateLevelsRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid_body", "Invalid request body: "+err.Error())
	}

	st, err := h.store.UpdateStructureLevels(c.UserContext(), identity(c).UserID, c.Params("id"), req.Levels)
	h.recordStructureOp("update_levels", err)
	if err != nil {
		return storeError(c, err)
	}
	return c.JSON(st)
}

// DeleteStructure handles DELETE /api/v1/structures/:id.
func (h *handlers) DeleteStructure(c *fiber.Ctx) error {
	id := c.Params("id")
	err := h.store.DeleteStructure(c.UserContext(), identity(c).UserID, id)
	h.recordStructureOp("delete", err)
	if err != nil {
		return storeError(c, err)
	}

	h.logger.Info().Str("user", identity(c).UserID).Str("structure", id).Msg("structure deleted")
	return c.SendStatus(fiber.StatusNoContent)
}

// ListTemplates handles GET /api/v1/structure-templates.
func (h *handlers) ListTemplates(c *fiber.Ctx) error {
	return c.JSON(h.templates.List())
}

// Me handles GET /api/v1/me.
func (h *handlers) Me(c *fiber.Ctx) error {
	return c.JSON(identity(c))
}

// AdminStats handles GET /api/v1/admin/stats.
func (h *handlers) AdminStats(c *fiber.Ctx) error {
	counts, err := h.store.Counts(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"counts":         counts,
		"uptime_seconds": int64(h.now().Sub(h.startTime).Seconds()),
	})
}

// locationFor resolves ?tz=, falling back to the configured default.
func (h *handlers) locationFor(c *fiber.Ctx) (*time.Location, error) {
	tz := c.Query("tz")
	if tz == "" {
		return h.location, nil
	}
	return time.LoadLocation(tz)
}

// today resolves the viewer's "today": ?date= or ?today= as YYYY-MM-DD in loc,
// otherwise the current time in loc.
func (h *handlers) today(c *fiber.Ctx, loc *time.Location) (time.Time, error) {
	raw := c.Query("date")
	if raw == "" {
		raw = c.Query("today")
	}
	if raw == "" {
		return h.now().In(loc), nil
	}
	return time.ParseInLocation(models.DateLayout, raw, loc)
}
