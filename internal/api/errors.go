package api

import (
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"skill-marketplace/internal/booking"
)

// respondError maps a lifecycle error kind to its HTTP status. Anything
// unclassified is logged and hidden behind a generic 500.
func respondError(c *fiber.Ctx, err error, fallback string) error {
	status, message := fiber.StatusInternalServerError, fallback

	switch booking.Kind(err) {
	case booking.ErrNotFound:
		status, message = fiber.StatusNotFound, err.Error()
	case booking.ErrInvalidState:
		status, message = fiber.StatusConflict, err.Error()
	case booking.ErrPermission:
		status, message = fiber.StatusForbidden, err.Error()
	case booking.ErrCapacityExceeded:
		status, message = fiber.StatusConflict, "Session is full."
	case booking.ErrValidation:
		status, message = fiber.StatusBadRequest, err.Error()
	case booking.ErrConcurrencyConflict:
		status, message = fiber.StatusConflict, "The session changed while processing your request, please retry."
	case booking.ErrDuplicate:
		status, message = fiber.StatusConflict, err.Error()
	default:
		slog.ErrorContext(c.UserContext(), fallback, slog.String("error", err.Error()))
	}

	return c.Status(status).JSON(fiber.Map{"error": message, "code": errorCode(err)})
}

func errorCode(err error) string {
	switch booking.Kind(err) {
	case booking.ErrNotFound:
		return "not_found"
	case booking.ErrInvalidState:
		return "invalid_state"
	case booking.ErrPermission:
		return "permission_denied"
	case booking.ErrCapacityExceeded:
		return "capacity_exceeded"
	case booking.ErrValidation:
		return "validation_failed"
	case booking.ErrConcurrencyConflict:
		return "concurrency_conflict"
	case booking.ErrDuplicate:
		return "duplicate"
	}
	return "internal"
}
