package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"skill-marketplace/internal/booking"
	"skill-marketplace/internal/events"
	"skill-marketplace/internal/model"
	"skill-marketplace/internal/repository"
)

// BookingService drives the booking lifecycle. Every transition is decided
// by the booking package against rows locked inside one transaction.
type BookingService interface {
	RequestBooking(ctx context.Context, actor model.Actor, sessionID uuid.UUID) (*model.Booking, error)
	AcceptBooking(ctx context.Context, actor model.Actor, bookingID uuid.UUID) (booking.Transition, error)
	DeclineBooking(ctx context.Context, actor model.Actor, bookingID uuid.UUID) (booking.Transition, error)
	CancelBooking(ctx context.Context, actor model.Actor, bookingID uuid.UUID) (booking.Transition, error)
	GetBooking(ctx context.Context, actor model.Actor, bookingID uuid.UUID) (*model.Booking, error)
	ListSessionBookings(ctx context.Context, actor model.Actor, sessionID uuid.UUID) ([]model.BookingDetails, error)
	ListMyBookings(ctx context.Context, actor model.Actor) ([]model.BookingDetails, error)
}

type bookingService struct {
	bookingRepo repository.BookingRepository
	sessionRepo repository.SessionRepository
	publisher   events.EventPublisher
}

func NewBookingService(bookingRepo repository.BookingRepository, sessionRepo repository.SessionRepository, pub events.EventPublisher) BookingService {
	return &bookingService{
		bookingRepo: bookingRepo,
		sessionRepo: sessionRepo,
		publisher:   pub,
	}
}

func (s *bookingService) RequestBooking(ctx context.Context, actor model.Actor, sessionID uuid.UUID) (*model.Booking, error) {
	// Fail fast on role before opening a transaction.
	if actor.Role != model.RoleLearner {
		return nil, fmt.Errorf("%w: only learners can book sessions", booking.ErrPermission)
	}

	created, err := s.bookingRepo.Create(ctx, sessionID, actor.ID, func(session *model.Session, active *model.Booking) error {
		return booking.CheckRequest(actor, session, active)
	})
	if err != nil {
		return nil, err
	}

	logPublish(ctx, events.SubjectBookingRequested, s.publisher.PublishBookingRequested(created))
	return created, nil
}

func (s *bookingService) AcceptBooking(ctx context.Context, actor model.Actor, bookingID uuid.UUID) (booking.Transition, error) {
	return s.transition(ctx, booking.ActionAccept, actor, bookingID)
}

func (s *bookingService) DeclineBooking(ctx context.Context, actor model.Actor, bookingID uuid.UUID) (booking.Transition, error) {
	return s.transition(ctx, booking.ActionDecline, actor, bookingID)
}

func (s *bookingService) CancelBooking(ctx context.Context, actor model.Actor, bookingID uuid.UUID) (booking.Transition, error) {
	return s.transition(ctx, booking.ActionCancel, actor, bookingID)
}

func (s *bookingService) transition(ctx context.Context, action booking.Action, actor model.Actor, bookingID uuid.UUID) (booking.Transition, error) {
	t, err := s.bookingRepo.Transition(ctx, bookingID, func(b *model.Booking, session *model.Session) (booking.Transition, error) {
		return booking.Decide(action, actor, b, session)
	})
	if err != nil {
		return booking.Transition{}, err
	}

	logPublish(ctx, "booking."+string(t.To), s.publisher.PublishBookingTransition(t))
	return t, nil
}

// GetBooking is visible to the booking's learner, the session instructor and
// admins.
func (s *bookingService) GetBooking(ctx context.Context, actor model.Actor, bookingID uuid.UUID) (*model.Booking, error) {
	b, err := s.bookingRepo.FindByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if b == nil {
		return nil, fmt.Errorf("%w: booking %s", booking.ErrNotFound, bookingID)
	}
	if actor.Role == model.RoleAdmin || actor.ID == b.LearnerID {
		return b, nil
	}

	if _, err := s.requireSessionOwner(ctx, actor, b.SessionID); err != nil {
		return nil, err
	}
	return b, nil
}

func (s *bookingService) ListSessionBookings(ctx context.Context, actor model.Actor, sessionID uuid.UUID) ([]model.BookingDetails, error) {
	if _, err := s.requireSessionOwner(ctx, actor, sessionID); err != nil {
		return nil, err
	}
	return s.bookingRepo.ListBySession(ctx, sessionID)
}

func (s *bookingService) ListMyBookings(ctx context.Context, actor model.Actor) ([]model.BookingDetails, error) {
	return s.bookingRepo.ListByLearner(ctx, actor.ID)
}

func (s *bookingService) requireSessionOwner(ctx context.Context, actor model.Actor, sessionID uuid.UUID) (*model.Session, error) {
	session, err := s.sessionRepo.FindByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, fmt.Errorf("%w: session %s", booking.ErrNotFound, sessionID)
	}
	if actor.Role != model.RoleAdmin && actor.ID != session.InstructorID {
		return nil, fmt.Errorf("%w: not the session instructor", booking.ErrPermission)
	}
	return session, nil
}
