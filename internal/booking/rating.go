package booking

import (
	"fmt"
	"unicode/utf8"

	"skill-marketplace/internal/model"
)

const (
	MinRating        = 1
	MaxRating        = 5
	MaxCommentLength = 1000
)

// Eligibility is the state the rating gate is evaluated over.
type Eligibility struct {
	Session      *model.Session
	HasAccepted  bool
	AlreadyRated bool
}

// CanRate is true iff the session is completed, the learner held an accepted
// booking for it and has not rated it yet.
func (e Eligibility) CanRate() bool {
	return e.Check() == nil
}

// Check explains why rating is not allowed, or returns nil.
func (e Eligibility) Check() error {
	if e.Session == nil {
		return fmt.Errorf("%w: session", ErrNotFound)
	}
	if e.Session.Status != model.SessionCompleted {
		return fmt.Errorf("%w: session is %s, not completed", ErrInvalidState, e.Session.Status)
	}
	if !e.HasAccepted {
		return fmt.Errorf("%w: no accepted booking for this session", ErrPermission)
	}
	if e.AlreadyRated {
		return fmt.Errorf("%w: session already rated", ErrDuplicate)
	}
	return nil
}

func ValidateRating(rating int, comment *string) error {
	if rating < MinRating || rating > MaxRating {
		return fmt.Errorf("%w: rating must be between %d and %d", ErrValidation, MinRating, MaxRating)
	}
	if comment != nil && utf8.RuneCountInString(*comment) > MaxCommentLength {
		return fmt.Errorf("%w: comment exceeds %d characters", ErrValidation, MaxCommentLength)
	}
	return nil
}

// CheckRatingOwner guards update and delete of an existing rating.
func CheckRatingOwner(actor model.Actor, r *model.Rating) error {
	if r == nil {
		return fmt.Errorf("%w: rating", ErrNotFound)
	}
	if r.LearnerID != actor.ID {
		return fmt.Errorf("%w: rating belongs to another learner", ErrPermission)
	}
	return nil
}
