package api

import (
	"github.com/gofiber/fiber/v2"

	"skill-marketplace/internal/booking"
	"skill-marketplace/internal/repository"
	"skill-marketplace/internal/service"
)

// InternalHandler serves service-to-service reads guarded by the shared
// secret instead of a user token.
type InternalHandler struct {
	auditRepo      repository.AuditRepository
	sessionService service.SessionService
}

func NewInternalHandler(auditRepo repository.AuditRepository, sessionService service.SessionService) *InternalHandler {
	return &InternalHandler{
		auditRepo:      auditRepo,
		sessionService: sessionService,
	}
}

func (h *InternalHandler) ListBookingEvents(c *fiber.Ctx) error {
	bookingID, err := parseIDParam(c, "id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid booking ID format"})
	}

	events, err := h.auditRepo.ListByBooking(c.UserContext(), bookingID)
	if err != nil {
		return respondError(c, err, "Could not fetch booking events")
	}

	return c.Status(fiber.StatusOK).JSON(events)
}

func (h *InternalHandler) GetSessionCapacity(c *fiber.Ctx) error {
	sessionID, err := parseIDParam(c, "id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid session ID format"})
	}

	remaining, err := h.sessionService.RemainingCapacity(c.UserContext(), sessionID)
	if err != nil {
		return respondError(c, err, "Could not fetch capacity")
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"session_id":         sessionID,
		"capacity_remaining": remaining,
		"is_full":            booking.IsFull(remaining),
	})
}
