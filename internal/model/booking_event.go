package model

import (
	"time"

	"github.com/google/uuid"
)

// BookingEvent is one row of the booking audit trail.
type BookingEvent struct {
	ID         uuid.UUID `db:"id" json:"id"`
	BookingID  uuid.UUID `db:"booking_id" json:"booking_id"`
	SessionID  uuid.UUID `db:"session_id" json:"session_id"`
	LearnerID  uuid.UUID `db:"learner_id" json:"learner_id"`
	EventType  string    `db:"event_type" json:"event_type"`
	OccurredAt time.Time `db:"occurred_at" json:"occurred_at"`
}
