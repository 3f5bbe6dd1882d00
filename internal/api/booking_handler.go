package api

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"skill-marketplace/internal/booking"
	"skill-marketplace/internal/model"
	"skill-marketplace/internal/service"
)

type BookingHandler struct {
	bookingService service.BookingService
}

func NewBookingHandler(bookingService service.BookingService) *BookingHandler {
	return &BookingHandler{bookingService: bookingService}
}

type TransitionResponse struct {
	BookingID     uuid.UUID           `json:"booking_id"`
	SessionID     uuid.UUID           `json:"session_id"`
	From          model.BookingStatus `json:"from"`
	Status        model.BookingStatus `json:"status"`
	CapacityDelta int                 `json:"capacity_delta"`
}

func (h *BookingHandler) RequestBooking(c *fiber.Ctx) error {
	actor, err := ActorFromCtx(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid user claims"})
	}

	sessionID, err := parseIDParam(c, "id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid session ID format"})
	}

	b, err := h.bookingService.RequestBooking(c.UserContext(), actor, sessionID)
	if err != nil {
		return respondError(c, err, "Could not request booking")
	}

	return c.Status(fiber.StatusCreated).JSON(b)
}

func (h *BookingHandler) ListSessionBookings(c *fiber.Ctx) error {
	actor, err := ActorFromCtx(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid user claims"})
	}

	sessionID, err := parseIDParam(c, "id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid session ID format"})
	}

	bookings, err := h.bookingService.ListSessionBookings(c.UserContext(), actor, sessionID)
	if err != nil {
		return respondError(c, err, "Could not fetch bookings")
	}

	return c.Status(fiber.StatusOK).JSON(bookings)
}

func (h *BookingHandler) ListMyBookings(c *fiber.Ctx) error {
	actor, err := ActorFromCtx(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid user claims"})
	}

	bookings, err := h.bookingService.ListMyBookings(c.UserContext(), actor)
	if err != nil {
		return respondError(c, err, "Could not fetch bookings")
	}

	return c.Status(fiber.StatusOK).JSON(bookings)
}

func (h *BookingHandler) GetBooking(c *fiber.Ctx) error {
	actor, err := ActorFromCtx(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid user claims"})
	}

	bookingID, err := parseIDParam(c, "id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid booking ID format"})
	}

	b, err := h.bookingService.GetBooking(c.UserContext(), actor, bookingID)
	if err != nil {
		return respondError(c, err, "Could not fetch booking")
	}

	return c.Status(fiber.StatusOK).JSON(b)
}

func (h *BookingHandler) AcceptBooking(c *fiber.Ctx) error {
	return h.transition(c, booking.ActionAccept, h.bookingService.AcceptBooking, "Could not accept booking")
}

func (h *BookingHandler) DeclineBooking(c *fiber.Ctx) error {
	return h.transition(c, booking.ActionDecline, h.bookingService.DeclineBooking, "Could not decline booking")
}

func (h *BookingHandler) CancelBooking(c *fiber.Ctx) error {
	return h.transition(c, booking.ActionCancel, h.bookingService.CancelBooking, "Could not cancel booking")
}

type transitionFunc func(ctx context.Context, actor model.Actor, bookingID uuid.UUID) (booking.Transition, error)

func (h *BookingHandler) transition(c *fiber.Ctx, action booking.Action, apply transitionFunc, fallback string) error {
	actor, err := ActorFromCtx(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid user claims"})
	}

	bookingID, err := parseIDParam(c, "id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid booking ID format"})
	}

	t, err := apply(c.UserContext(), actor, bookingID)
	recordTransition(action, err)
	if err != nil {
		return respondError(c, err, fallback)
	}

	return c.Status(fiber.StatusOK).JSON(TransitionResponse{
		BookingID:     t.BookingID,
		SessionID:     t.SessionID,
		From:          t.From,
		Status:        t.To,
		CapacityDelta: t.CapacityDelta,
	})
}
