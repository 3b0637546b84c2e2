package server

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	lerrors "github.com/p-blackswan/lifeos/internal/errors"
	"github.com/p-blackswan/lifeos/internal/structure"
)

// ProblemDetail follows RFC 7807 for error responses.
type ProblemDetail struct {
	Type     string `json:"type"`
	Title    string `json:"title"`
	Status   int    `json:"status"`
	Detail   string `json:"detail,omitempty"`
	Instance string `json:"instance,omitempty"`
}

// problemResponse returns an RFC 7807 Problem Detail error response.
func problemResponse(c *fiber.Ctx, status int, errType, title, detail string) error {
	return c.Status(status).JSON(ProblemDetail{
		Type:     errType,
		Title:    title,
		Status:   status,
		Detail:   detail,
		Instance: c.Path(),
	})
}

func badRequest(c *fiber.Ctx, errType, detail string) error {
	return problemResponse(c, fiber.StatusBadRequest, errType, "Bad Request", detail)
}

// storeError maps domain and store errors onto problem responses. Anything
// unrecognised is returned as-is for the error handler to turn into a 500.
func storeError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, structure.ErrInvalid):
		return badRequest(c, "invalid_structure", err.Error())
	case errors.Is(err, lerrors.ErrInvalidInput):
		return badRequest(c, "invalid_input", err.Error())
	case errors.Is(err, lerrors.ErrNotFound):
		return problemResponse(c, fiber.StatusNotFound, "not_found", "Not Found", err.Error())
	}
	return err
}
