package model

import (
	"time"

	"github.com/google/uuid"
)

type Rating struct {
	ID        uuid.UUID `db:"id" json:"id"`
	SessionID uuid.UUID `db:"session_id" json:"session_id"`
	LearnerID uuid.UUID `db:"learner_id" json:"learner_id"`
	Rating    int       `db:"rating" json:"rating"`
	Comment   *string   `db:"comment" json:"comment,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

type RatingSummary struct {
	InstructorID uuid.UUID `db:"instructor_id" json:"instructor_id"`
	Average      float64   `db:"average" json:"average"`
	Count        int       `db:"count" json:"count"`
}
