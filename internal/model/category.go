package model

import "github.com/google/uuid"

// Category groups sessions by the skill they teach.
type Category struct {
	ID               uuid.UUID `db:"id" json:"id"`
	Name             string    `db:"name" json:"name"`
	Icon             string    `db:"icon" json:"icon"`
	UpcomingSessions int       `db:"upcoming_sessions" json:"upcoming_sessions"`
}
