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

type RatingService interface {
	CanRate(ctx context.Context, actor model.Actor, sessionID uuid.UUID) (bool, error)
	CreateRating(ctx context.Context, actor model.Actor, sessionID uuid.UUID, rating int, comment *string) (*model.Rating, error)
	UpdateRating(ctx context.Context, actor model.Actor, ratingID uuid.UUID, rating int, comment *string) (*model.Rating, error)
	DeleteRating(ctx context.Context, actor model.Actor, ratingID uuid.UUID) error
	ListSessionRatings(ctx context.Context, sessionID uuid.UUID) ([]model.Rating, error)
	InstructorSummary(ctx context.Context, instructorID uuid.UUID) (*model.RatingSummary, error)
}

type ratingService struct {
	ratingRepo  repository.RatingRepository
	sessionRepo repository.SessionRepository
	bookingRepo repository.BookingRepository
	publisher   events.EventPublisher
}

func NewRatingService(
	ratingRepo repository.RatingRepository,
	sessionRepo repository.SessionRepository,
	bookingRepo repository.BookingRepository,
	pub events.EventPublisher,
) RatingService {
	return &ratingService{
		ratingRepo:  ratingRepo,
		sessionRepo: sessionRepo,
		bookingRepo: bookingRepo,
		publisher:   pub,
	}
}

func (s *ratingService) eligibility(ctx context.Context, learnerID, sessionID uuid.UUID) (booking.Eligibility, error) {
	session, err := s.sessionRepo.FindByID(ctx, sessionID)
	if err != nil {
		return booking.Eligibility{}, err
	}
	if session == nil {
		return booking.Eligibility{}, nil
	}

	accepted, err := s.bookingRepo.HasAccepted(ctx, learnerID, sessionID)
	if err != nil {
		return booking.Eligibility{}, err
	}

	rated, err := s.ratingRepo.Exists(ctx, learnerID, sessionID)
	if err != nil {
		return booking.Eligibility{}, err
	}

	return booking.Eligibility{Session: session, HasAccepted: accepted, AlreadyRated: rated}, nil
}

func (s *ratingService) CanRate(ctx context.Context, actor model.Actor, sessionID uuid.UUID) (bool, error) {
	e, err := s.eligibility(ctx, actor.ID, sessionID)
	if err != nil {
		return false, err
	}
	return e.CanRate(), nil
}

// CreateRating re-checks eligibility server side; the unique constraint on
// (session_id, learner_id) still catches a racing second insert.
func (s *ratingService) CreateRating(ctx context.Context, actor model.Actor, sessionID uuid.UUID, rating int, comment *string) (*model.Rating, error) {
	if err := booking.ValidateRating(rating, comment); err != nil {
		return nil, err
	}

	e, err := s.eligibility(ctx, actor.ID, sessionID)
	if err != nil {
		return nil, err
	}
	if err := e.Check(); err != nil {
		return nil, err
	}

	newRating := &model.Rating{
		SessionID: sessionID,
		LearnerID: actor.ID,
		Rating:    rating,
		Comment:   comment,
	}
	if err := s.ratingRepo.Create(ctx, newRating); err != nil {
		return nil, err
	}

	logPublish(ctx, events.SubjectRatingCreated, s.publisher.PublishRatingCreated(newRating))
	return newRating, nil
}

func (s *ratingService) UpdateRating(ctx context.Context, actor model.Actor, ratingID uuid.UUID, rating int, comment *string) (*model.Rating, error) {
	existing, err := s.ownedRating(ctx, actor, ratingID)
	if err != nil {
		return nil, err
	}
	if err := booking.ValidateRating(rating, comment); err != nil {
		return nil, err
	}

	existing.Rating = rating
	existing.Comment = comment
	if err := s.ratingRepo.Update(ctx, existing); err != nil {
		return nil, err
	}
	return existing, nil
}

func (s *ratingService) DeleteRating(ctx context.Context, actor model.Actor, ratingID uuid.UUID) error {
	if _, err := s.ownedRating(ctx, actor, ratingID); err != nil {
		return err
	}
	return s.ratingRepo.Delete(ctx, ratingID)
}

func (s *ratingService) ownedRating(ctx context.Context, actor model.Actor, ratingID uuid.UUID) (*model.Rating, error) {
	existing, err := s.ratingRepo.FindByID(ctx, ratingID)
	if err != nil {
		return nil, err
	}
	if err := booking.CheckRatingOwner(actor, existing); err != nil {
		return nil, fmt.Errorf("rating %s: %w", ratingID, err)
	}
	return existing, nil
}

func (s *ratingService) ListSessionRatings(ctx context.Context, sessionID uuid.UUID) ([]model.Rating, error) {
	return s.ratingRepo.ListBySession(ctx, sessionID)
}

func (s *ratingService) InstructorSummary(ctx context.Context, instructorID uuid.UUID) (*model.RatingSummary, error) {
	return s.ratingRepo.SummaryForInstructor(ctx, instructorID)
}
