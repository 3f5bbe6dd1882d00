// Package booking holds the booking lifecycle state machine.
//
// Everything here is pure: callers load the booking and its session, ask
// Decide for a Transition and persist it atomically. The package never reads
// ambient identity, clocks or storage on its own.
package booking

import (
	"fmt"

	"github.com/google/uuid"

	"skill-marketplace/internal/model"
)

type Action string

const (
	ActionAccept  Action = "accept"
	ActionDecline Action = "decline"
	ActionCancel  Action = "cancel"
)

// Transition is the outcome of a legal booking state change.
type Transition struct {
	BookingID     uuid.UUID
	SessionID     uuid.UUID
	LearnerID     uuid.UUID
	From          model.BookingStatus
	To            model.BookingStatus
	CapacityDelta int
}

// Decide validates action against the current booking and session state.
// A nil error means the returned transition must be applied as one unit:
// the booking moves From -> To and the session's capacity_remaining moves by
// CapacityDelta.
func Decide(action Action, actor model.Actor, b *model.Booking, s *model.Session) (Transition, error) {
	if b == nil {
		return Transition{}, fmt.Errorf("%w: booking", ErrNotFound)
	}
	if s == nil || s.ID != b.SessionID {
		return Transition{}, fmt.Errorf("%w: session %s", ErrNotFound, b.SessionID)
	}

	t := Transition{
		BookingID: b.ID,
		SessionID: s.ID,
		LearnerID: b.LearnerID,
		From:      b.Status,
	}

	switch action {
	case ActionAccept:
		if actor.ID != s.InstructorID {
			return Transition{}, fmt.Errorf("%w: only the session instructor can accept bookings", ErrPermission)
		}
		if b.Status != model.BookingPending {
			return Transition{}, fmt.Errorf("%w: cannot accept a %s booking", ErrInvalidState, b.Status)
		}
		if s.Status != model.SessionUpcoming {
			return Transition{}, fmt.Errorf("%w: session is %s", ErrInvalidState, s.Status)
		}
		if s.CapacityRemaining <= 0 {
			return Transition{}, ErrCapacityExceeded
		}
		t.To = model.BookingAccepted
		t.CapacityDelta = -1

	case ActionDecline:
		if actor.ID != s.InstructorID {
			return Transition{}, fmt.Errorf("%w: only the session instructor can decline bookings", ErrPermission)
		}
		if b.Status != model.BookingPending {
			return Transition{}, fmt.Errorf("%w: cannot decline a %s booking", ErrInvalidState, b.Status)
		}
		t.To = model.BookingDeclined

	case ActionCancel:
		if actor.ID != b.LearnerID {
			return Transition{}, fmt.Errorf("%w: booking belongs to another learner", ErrPermission)
		}
		if !b.Status.Active() {
			return Transition{}, fmt.Errorf("%w: cannot cancel a %s booking", ErrInvalidState, b.Status)
		}
		if s.Status != model.SessionUpcoming {
			return Transition{}, fmt.Errorf("%w: session is %s", ErrInvalidState, s.Status)
		}
		t.To = model.BookingCanceled
		if b.Status == model.BookingAccepted {
			t.CapacityDelta = 1
		}

	default:
		return Transition{}, fmt.Errorf("%w: unknown action %q", ErrValidation, action)
	}

	if err := checkCapacity(s, t.CapacityDelta); err != nil {
		return Transition{}, err
	}
	return t, nil
}

// checkCapacity refuses any delta that would leave capacity_remaining outside
// [0, total_capacity].
func checkCapacity(s *model.Session, delta int) error {
	next := s.CapacityRemaining + delta
	if next < 0 {
		return ErrCapacityExceeded
	}
	if next > s.TotalCapacity {
		return fmt.Errorf("%w: capacity_remaining %d would exceed total %d", ErrConcurrencyConflict, next, s.TotalCapacity)
	}
	return nil
}

// CheckRequest validates a learner's request to book a seat. Capacity is
// deliberately not consulted: admission control happens at acceptance, so an
// instructor may pick among more requests than there are seats.
func CheckRequest(actor model.Actor, s *model.Session, active *model.Booking) error {
	if actor.Role != model.RoleLearner {
		return fmt.Errorf("%w: only learners can book sessions", ErrPermission)
	}
	if s == nil {
		return fmt.Errorf("%w: session", ErrNotFound)
	}
	if s.InstructorID == actor.ID {
		return fmt.Errorf("%w: instructors cannot book their own session", ErrPermission)
	}
	if s.Status != model.SessionUpcoming {
		return fmt.Errorf("%w: session is %s", ErrInvalidState, s.Status)
	}
	if active != nil {
		return fmt.Errorf("%w: an active booking %s already exists for this session", ErrDuplicate, active.ID)
	}
	return nil
}
