package server

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/p-blackswan/lifeos/internal/models"
	"github.com/p-blackswan/lifeos/internal/stats"
	"github.com/p-blackswan/lifeos/internal/store"
)

// ToggleHabitRequest is the body of POST /api/v1/habits/:id/toggle. An empty
// date means today in the viewer's timezone.
type ToggleHabitRequest struct {
	Date string `json:"date"`
}

// ListHabits handles GET /api/v1/habits.
func (h *handlers) ListHabits(c *fiber.Ctx) error {
	list, err := h.store.ListHabits(c.UserContext(), identity(c).UserID, c.Query("structure"))
	if err != nil {
		return storeError(c, err)
	}
	return c.JSON(list)
}

// CreateHabit handles POST /api/v1/habits.
func (h *handlers) CreateHabit(c *fiber.Ctx) error {
	var req store.HabitInput
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid_body", "Invalid request body: "+err.Error())
	}
	habit, err := h.store.CreateHabit(c.UserContext(), identity(c).UserID, req)
	if err != nil {
		return storeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(habit)
}

// ToggleHabit handles POST /api/v1/habits/:id/toggle.
func (h *handlers) ToggleHabit(c *fiber.Ctx) error {
	var req ToggleHabitRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return badRequest(c, "invalid_body", "Invalid request body: "+err.Error())
		}
	}
	if req.Date == "" {
		loc, err := h.locationFor(c)
		if err != nil {
			return badRequest(c, "invalid_timezone", err.Error())
		}
		req.Date = h.now().In(loc).Format(models.DateLayout)
	}

	habit, err := h.store.ToggleHabitDate(c.UserContext(), identity(c).UserID, c.Params("id"), req.Date)
	if err != nil {
		return storeError(c, err)
	}
	if h.metrics != nil {
		completed := false
		for _, d := range habit.CompletedDates {
			if d == req.Date {
				completed = true
				break
			}
		}
		h.metrics.RecordHabitToggle(completed)
	}
	return c.JSON(habit)
}

// DeleteHabit handles DELETE /api/v1/habits/:id.
func (h *handlers) DeleteHabit(c *fiber.Ctx) error {
	if err := h.store.DeleteHabit(c.UserContext(), identity(c).UserID, c.Params("id")); err != nil {
		return storeError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// HabitStats handles GET /api/v1/habits/stats.
func (h *handlers) HabitStats(c *fiber.Ctx) error {
	loc, err := h.locationFor(c)
	if err != nil {
		return badRequest(c, "invalid_timezone", err.Error())
	}
	today, err := h.today(c, loc)
	if err != nil {
		return badRequest(c, "invalid_date", "date must be YYYY-MM-DD")
	}

	list, err := h.store.ListHabits(c.UserContext(), identity(c).UserID, c.Query("structure"))
	if err != nil {
		return storeError(c, err)
	}
	return c.JSON(stats.Habits(list, today))
}

// ListGoals handles GET /api/v1/goals.
func (h *handlers) ListGoals(c *fiber.Ctx) error {
	list, err := h.store.ListGoals(c.UserContext(), identity(c).UserID, c.Query("structure"))
	if err != nil {
		return storeError(c, err)
	}
	return c.JSON(list)
}

// CreateGoal handles POST /api/v1/goals.
func (h *handlers) CreateGoal(c *fiber.Ctx) error {
	var req store.GoalInput
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid_body", "Invalid request body: "+err.Error())
	}
	goal, err := h.store.CreateGoal(c.UserContext(), identity(c).UserID, req)
	if err != nil {
		return storeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(goal)
}

// UpdateGoal handles PATCH /api/v1/goals/:id.
func (h *handlers) UpdateGoal(c *fiber.Ctx) error {
	var req store.GoalPatch
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid_body", "Invalid request body: "+err.Error())
	}
	goal, err := h.store.UpdateGoal(c.UserContext(), identity(c).UserID, c.Params("id"), req)
	if err != nil {
		return storeError(c, err)
	}
	return c.JSON(goal)
}

// DeleteGoal handles DELETE /api/v1/goals/:id.
func (h *handlers) DeleteGoal(c *fiber.Ctx) error {
	if err := h.store.DeleteGoal(c.UserContext(), identity(c).UserID, c.Params("id")); err != nil {
		return storeError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// GoalProgress handles GET /api/v1/goals/progress.
func (h *handlers) GoalProgress(c *fiber.Ctx) error {
	list, err := h.store.ListGoals(c.UserContext(), identity(c).UserID, c.Query("structure"))
	if err != nil {
		return storeError(c, err)
	}
	return c.JSON(stats.Summarize(list))
}

// ListEvents handles GET /api/v1/events. from and to are optional RFC 3339
// bounds on the start time.
func (h *handlers) ListEvents(c *fiber.Ctx) error {
	var r store.EventRange
	for _, q := range []struct {
		name string
		dst  *time.Time
	}{{"from", &r.From}, {"to", &r.To}} {
		raw := c.Query(q.name)
		if raw == "" {
			continue
		}
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return badRequest(c, "invalid_range", q.name+" must be an RFC 3339 timestamp")
		}
		*q.dst = t
	}

	list, err := h.store.ListEvents(c.UserContext(), identity(c).UserID, c.Query("structure"), r)
	if err != nil {
		return storeError(c, err)
	}
	return c.JSON(list)
}

// CreateEvent handles POST /api/v1/events.
func (h *handlers) CreateEvent(c *fiber.Ctx) error {
	var req store.EventInput
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid_body", "Invalid request body: "+err.Error())
	}
	ev, err := h.store.CreateEvent(c.UserContext(), identity(c).UserID, req)
	if err != nil {
		return storeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(ev)
}

// DeleteEvent handles DELETE /api/v1/events/:id.
func (h *handlers) DeleteEvent(c *fiber.Ctx) error {
	if err := h.store.DeleteEvent(c.UserContext(), identity(c).UserID, c.Params("id")); err != nil {
		return storeError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// ListNotes handles GET /api/v1/notes.
func (h *handlers) ListNotes(c *fiber.Ctx) error {
	list, err := h.store.ListNotes(c.UserContext(), identity(c).UserID, c.Query("structure"))
	if err != nil {
		return storeError(c, err)
	}
	return c.JSON(list)
}

// CreateNote handles POST /api/v1/notes.
func (h *handlers) CreateNote(c *fiber.Ctx) error {
	var req store.NoteInput
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid_body", "Invalid request body: "+err.Error())
	}
	note, err := h.store.CreateNote(c.UserContext(), identity(c).UserID, req)
	if err != nil {
		return storeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(note)
}

// DeleteNote handles DELETE /api/v1/notes/:id.
func (h *handlers) DeleteNote(c *fiber.Ctx) error {
	if err := h.store.DeleteNote(c.UserContext(), identity(c).UserID, c.Params("id")); err != nil {
		return storeError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
