package booking

import (
	"fmt"
	"time"

	"skill-marketplace/internal/model"
)

// SessionOutcome describes a session status change and the booking
// transitions it forces.
type SessionOutcome struct {
	From        model.SessionStatus
	To          model.SessionStatus
	Transitions []Transition
}

// CapacityDelta is the net change to capacity_remaining over all transitions.
func (o SessionOutcome) CapacityDelta() int {
	delta := 0
	for _, t := range o.Transitions {
		delta += t.CapacityDelta
	}
	return delta
}

// IsFull reports whether a session with the given remaining seats can admit
// no further accepted booking.
func IsFull(capacityRemaining int) bool {
	return capacityRemaining <= 0
}

// DecideCancelSession cancels an upcoming session. Every pending or accepted
// booking is canceled with it and each accepted one gives its seat back, so
// the session ends with capacity_remaining == total_capacity.
func DecideCancelSession(actor model.Actor, s *model.Session, bookings []model.Booking) (SessionOutcome, error) {
	if s == nil {
		return SessionOutcome{}, fmt.Errorf("%w: session", ErrNotFound)
	}
	if actor.Role != model.RoleAdmin && actor.ID != s.InstructorID {
		return SessionOutcome{}, fmt.Errorf("%w: only the instructor or an admin can cancel a session", ErrPermission)
	}
	if s.Status != model.SessionUpcoming {
		return SessionOutcome{}, fmt.Errorf("%w: session is %s", ErrInvalidState, s.Status)
	}

	out := SessionOutcome{From: s.Status, To: model.SessionCanceled}
	for _, b := range bookings {
		if b.SessionID != s.ID || !b.Status.Active() {
			continue
		}
		t := Transition{
			BookingID: b.ID,
			SessionID: s.ID,
			LearnerID: b.LearnerID,
			From:      b.Status,
			To:        model.BookingCanceled,
		}
		if b.Status == model.BookingAccepted {
			t.CapacityDelta = 1
		}
		out.Transitions = append(out.Transitions, t)
	}

	if err := checkCapacity(s, out.CapacityDelta()); err != nil {
		return SessionOutcome{}, err
	}
	return out, nil
}

// DecideCompleteSession marks a started session completed. Only admins
// confirm completion. Pending requests that were never admitted are declined;
// accepted bookings stay accepted so their learners can rate.
func DecideCompleteSession(actor model.Actor, s *model.Session, bookings []model.Booking, now time.Time) (SessionOutcome, error) {
	if s == nil {
		return SessionOutcome{}, fmt.Errorf("%w: session", ErrNotFound)
	}
	if actor.Role != model.RoleAdmin {
		return SessionOutcome{}, fmt.Errorf("%w: only an admin can complete a session", ErrPermission)
	}
	if s.Status != model.SessionUpcoming {
		return SessionOutcome{}, fmt.Errorf("%w: session is %s", ErrInvalidState, s.Status)
	}
	if s.StartAt.After(now) {
		return SessionOutcome{}, fmt.Errorf("%w: session has not started yet", ErrInvalidState)
	}

	out := SessionOutcome{From: s.Status, To: model.SessionCompleted}
	for _, b := range bookings {
		if b.SessionID != s.ID || b.Status != model.BookingPending {
			continue
		}
		out.Transitions = append(out.Transitions, Transition{
			BookingID: b.ID,
			SessionID: s.ID,
			LearnerID: b.LearnerID,
			From:      b.Status,
			To:        model.BookingDeclined,
		})
	}
	return out, nil
}
