package api

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"skill-marketplace/internal/booking"
	"skill-marketplace/internal/model"
	"skill-marketplace/internal/service"
)

const sessionsPageSize = 10

type SessionHandler struct {
	sessionService service.SessionService
}

func NewSessionHandler(sessionService service.SessionService) *SessionHandler {
	return &SessionHandler{sessionService: sessionService}
}

type SessionOutcomeResponse struct {
	SessionID        uuid.UUID `json:"session_id"`
	From             string    `json:"from"`
	To               string    `json:"to"`
	BookingsAffected int       `json:"bookings_affected"`
	SeatsReleased    int       `json:"seats_released"`
}

func outcomeResponse(sessionID uuid.UUID, out booking.SessionOutcome) SessionOutcomeResponse {
	return SessionOutcomeResponse{
		SessionID:        sessionID,
		From:             string(out.From),
		To:               string(out.To),
		BookingsAffected: len(out.Transitions),
		SeatsReleased:    out.CapacityDelta(),
	}
}

func parseIDParam(c *fiber.Ctx, name string) (uuid.UUID, error) {
	return uuid.Parse(c.Params(name))
}

func (h *SessionHandler) CreateSession(c *fiber.Ctx) error {
	actor, err := ActorFromCtx(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid user claims"})
	}

	var request service.CreateSessionInput
	if err := c.BodyParser(&request); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}

	createdSession, err := h.sessionService.CreateSession(c.UserContext(), actor, request)
	if err != nil {
		return respondError(c, err, "Could not create session")
	}

	return c.Status(fiber.StatusCreated).JSON(createdSession)
}

func (h *SessionHandler) ListUpcomingSessions(c *fiber.Ctx) error {
	categoryID := c.Query("category_id")
	page := c.QueryInt("page", 1)
	limit := c.QueryInt("limit", sessionsPageSize)

	result, err := h.sessionService.ListUpcomingSessions(c.UserContext(), categoryID, page, limit)
	if err != nil {
		return respondError(c, err, "Could not fetch sessions")
	}

	return c.Status(fiber.StatusOK).JSON(result)
}

func (h *SessionHandler) ListHistory(c *fiber.Ctx) error {
	actor, err := ActorFromCtx(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid user claims"})
	}

	history, err := h.sessionService.ListUserHistory(c.UserContext(), actor)
	if err != nil {
		return respondError(c, err, "Could not fetch session history")
	}

	return c.Status(fiber.StatusOK).JSON(history)
}

func (h *SessionHandler) ListMySessions(c *fiber.Ctx) error {
	actor, err := ActorFromCtx(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid user claims"})
	}

	sessions, err := h.sessionService.ListInstructorSessions(c.UserContext(), actor)
	if err != nil {
		return respondError(c, err, "Could not fetch sessions")
	}

	return c.Status(fiber.StatusOK).JSON(sessions)
}

func (h *SessionHandler) GetSessionDetails(c *fiber.Ctx) error {
	sessionID, err := parseIDParam(c, "id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid session ID format"})
	}

	session, err := h.sessionService.GetSessionDetails(c.UserContext(), sessionID)
	if err != nil {
		return respondError(c, err, "Could not fetch session details")
	}

	return c.Status(fiber.StatusOK).JSON(session)
}

func (h *SessionHandler) GetCapacity(c *fiber.Ctx) error {
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

func (h *SessionHandler) CancelSession(c *fiber.Ctx) error {
	return h.closeSession(c, h.sessionService.CancelSession, "Could not cancel session")
}

func (h *SessionHandler) CompleteSession(c *fiber.Ctx) error {
	return h.closeSession(c, h.sessionService.CompleteSession, "Could not complete session")
}

type closeFunc func(ctx context.Context, actor model.Actor, sessionID uuid.UUID) (booking.SessionOutcome, error)

func (h *SessionHandler) closeSession(c *fiber.Ctx, closeFn closeFunc, fallback string) error {
	actor, err := ActorFromCtx(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid user claims"})
	}

	sessionID, err := parseIDParam(c, "id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid session ID format"})
	}

	out, err := closeFn(c.UserContext(), actor, sessionID)
	if err != nil {
		return respondError(c, err, fallback)
	}

	return c.Status(fiber.StatusOK).JSON(outcomeResponse(sessionID, out))
}

func (h *SessionHandler) GetCategories(c *fiber.Ctx) error {
	categories, err := h.sessionService.GetCategories(c.UserContext())
	if err != nil {
		return respondError(c, err, "Failed to fetch categories")
	}
	return c.Status(fiber.StatusOK).JSON(categories)
}
