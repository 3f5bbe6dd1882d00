package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"

	"skill-marketplace/internal/booking"
	"skill-marketplace/internal/events"
	"skill-marketplace/internal/model"
	"skill-marketplace/internal/repository"
)

const categoriesCacheKey = "categories"

var validate = validator.New()

type CreateSessionInput struct {
	Title         string     `json:"title" validate:"required,min=5,max=100"`
	Description   string     `json:"description" validate:"max=500"`
	CategoryID    *uuid.UUID `json:"category_id"`
	StartAt       time.Time  `json:"start_at" validate:"required"`
	EndAt         *time.Time `json:"end_at"`
	TotalCapacity int        `json:"total_capacity" validate:"required,min=1,max=1000"`
}

type SessionService interface {
	CreateSession(ctx context.Context, actor model.Actor, in CreateSessionInput) (*model.Session, error)
	ListUpcomingSessions(ctx context.Context, categoryID string, page int, limit int) (*repository.PaginatedSessions, error)
	GetSessionDetails(ctx context.Context, sessionID uuid.UUID) (*model.Session, error)
	ListUserHistory(ctx context.Context, actor model.Actor) ([]model.SessionDetails, error)
	ListInstructorSessions(ctx context.Context, actor model.Actor) ([]model.SessionDetails, error)
	GetCategories(ctx context.Context) ([]model.Category, error)
	RemainingCapacity(ctx context.Context, sessionID uuid.UUID) (int, error)
	IsFull(ctx context.Context, sessionID uuid.UUID) (bool, error)
	CancelSession(ctx context.Context, actor model.Actor, sessionID uuid.UUID) (booking.SessionOutcome, error)
	CompleteSession(ctx context.Context, actor model.Actor, sessionID uuid.UUID) (booking.SessionOutcome, error)
}

type sessionService struct {
	sessionRepo repository.SessionRepository
	bookingRepo repository.BookingRepository
	publisher   events.EventPublisher
	categories  *cache.Cache
	now         func() time.Time
}

func NewSessionService(
	sessionRepo repository.SessionRepository,
	bookingRepo repository.BookingRepository,
	pub events.EventPublisher,
	categoriesTTL time.Duration,
) SessionService {
	return &sessionService{
		sessionRepo: sessionRepo,
		bookingRepo: bookingRepo,
		publisher:   pub,
		categories:  cache.New(categoriesTTL, 2*categoriesTTL),
		now:         time.Now,
	}
}

func (s *sessionService) CreateSession(ctx context.Context, actor model.Actor, in CreateSessionInput) (*model.Session, error) {
	if actor.Role != model.RoleInstructor {
		return nil, fmt.Errorf("%w: only instructors can create sessions", booking.ErrPermission)
	}

	in.Title = strings.TrimSpace(in.Title)
	if err := validate.Struct(in); err != nil {
		return nil, fmt.Errorf("%w: %s", booking.ErrValidation, err.Error())
	}
	if !in.StartAt.After(s.now()) {
		return nil, fmt.Errorf("%w: start_at must be in the future", booking.ErrValidation)
	}
	if in.EndAt != nil && !in.EndAt.After(in.StartAt) {
		return nil, fmt.Errorf("%w: end_at must be after start_at", booking.ErrValidation)
	}

	createdSession, err := s.sessionRepo.Create(ctx, &model.Session{
		InstructorID:  actor.ID,
		CategoryID:    in.CategoryID,
		Title:         in.Title,
		Description:   in.Description,
		StartAt:       in.StartAt,
		EndAt:         in.EndAt,
		TotalCapacity: in.TotalCapacity,
	})
	if err != nil {
		return nil, err
	}

	s.categories.Delete(categoriesCacheKey)
	logPublish(ctx, events.SubjectSessionCreated, s.publisher.PublishSessionCreated(createdSession))

	return createdSession, nil
}

func (s *sessionService) ListUpcomingSessions(ctx context.Context, categoryID string, page int, limit int) (*repository.PaginatedSessions, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 10
	}
	if categoryID != "" {
		if _, err := uuid.Parse(categoryID); err != nil {
			return nil, fmt.Errorf("%w: invalid category_id", booking.ErrValidation)
		}
	}
	return s.sessionRepo.ListUpcoming(ctx, categoryID, page, limit)
}

func (s *sessionService) GetSessionDetails(ctx context.Context, sessionID uuid.UUID) (*model.Session, error) {
	session, err := s.sessionRepo.FindByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, fmt.Errorf("%w: session %s", booking.ErrNotFound, sessionID)
	}
	return session, nil
}

func (s *sessionService) ListUserHistory(ctx context.Context, actor model.Actor) ([]model.SessionDetails, error) {
	return s.sessionRepo.ListHistoryByLearnerID(ctx, actor.ID)
}

func (s *sessionService) ListInstructorSessions(ctx context.Context, actor model.Actor) ([]model.SessionDetails, error) {
	if actor.Role != model.RoleInstructor {
		return nil, fmt.Errorf("%w: only instructors own sessions", booking.ErrPermission)
	}
	return s.sessionRepo.ListByInstructorID(ctx, actor.ID)
}

func (s *sessionService) GetCategories(ctx context.Context) ([]model.Category, error) {
	if cached, ok := s.categories.Get(categoriesCacheKey); ok {
		return cached.([]model.Category), nil
	}

	categories, err := s.sessionRepo.GetCategories(ctx)
	if err != nil {
		return nil, err
	}

	s.categories.SetDefault(categoriesCacheKey, categories)
	return categories, nil
}

func (s *sessionService) RemainingCapacity(ctx context.Context, sessionID uuid.UUID) (int, error) {
	session, err := s.GetSessionDetails(ctx, sessionID)
	if err != nil {
		return 0, err
	}
	return session.CapacityRemaining, nil
}

func (s *sessionService) IsFull(ctx context.Context, sessionID uuid.UUID) (bool, error) {
	remaining, err := s.RemainingCapacity(ctx, sessionID)
	if err != nil {
		return false, err
	}
	return booking.IsFull(remaining), nil
}

func (s *sessionService) CancelSession(ctx context.Context, actor model.Actor, sessionID uuid.UUID) (booking.SessionOutcome, error) {
	return s.closeSession(ctx, sessionID, func(session *model.Session, bookings []model.Booking) (booking.SessionOutcome, error) {
		return booking.DecideCancelSession(actor, session, bookings)
	})
}

func (s *sessionService) CompleteSession(ctx context.Context, actor model.Actor, sessionID uuid.UUID) (booking.SessionOutcome, error) {
	now := s.now()
	return s.closeSession(ctx, sessionID, func(session *model.Session, bookings []model.Booking) (booking.SessionOutcome, error) {
		return booking.DecideCompleteSession(actor, session, bookings, now)
	})
}

func (s *sessionService) closeSession(ctx context.Context, sessionID uuid.UUID, decide repository.SessionDecideFunc) (booking.SessionOutcome, error) {
	var locked model.Session
	outcome, err := s.bookingRepo.TransitionSession(ctx, sessionID, func(session *model.Session, bookings []model.Booking) (booking.SessionOutcome, error) {
		out, err := decide(session, bookings)
		if err == nil {
			locked = *session
		}
		return out, err
	})
	if err != nil {
		return booking.SessionOutcome{}, err
	}

	s.categories.Delete(categoriesCacheKey)
	locked.Status = outcome.To
	locked.CapacityRemaining += outcome.CapacityDelta()
	logPublish(ctx, "session."+string(outcome.To), s.publisher.PublishSessionClosed(&locked, outcome))

	return outcome, nil
}
