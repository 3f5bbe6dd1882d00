package model

import (
	"database/sql/driver"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type SessionStatus string

const (
	SessionUpcoming  SessionStatus = "upcoming"
	SessionCompleted SessionStatus = "completed"
	SessionCanceled  SessionStatus = "canceled"
)

func ParseSessionStatus(s string) (SessionStatus, error) {
	switch st := SessionStatus(s); st {
	case SessionUpcoming, SessionCompleted, SessionCanceled:
		return st, nil
	}
	return "", fmt.Errorf("unknown session status %q", s)
}

func (s *SessionStatus) Scan(src any) error {
	raw, err := scanString(src)
	if err != nil {
		return err
	}
	parsed, err := ParseSessionStatus(raw)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

func (s SessionStatus) Value() (driver.Value, error) {
	if _, err := ParseSessionStatus(string(s)); err != nil {
		return nil, err
	}
	return string(s), nil
}

type Session struct {
	ID                uuid.UUID     `db:"id" json:"id"`
	InstructorID      uuid.UUID     `db:"instructor_id" json:"instructor_id"`
	CategoryID        *uuid.UUID    `db:"category_id" json:"category_id,omitempty"`
	Title             string        `db:"title" json:"title"`
	Description       string        `db:"description" json:"description"`
	StartAt           time.Time     `db:"start_at" json:"start_at"`
	EndAt             *time.Time    `db:"end_at" json:"end_at,omitempty"`
	TotalCapacity     int           `db:"total_capacity" json:"total_capacity"`
	CapacityRemaining int           `db:"capacity_remaining" json:"capacity_remaining"`
	Status            SessionStatus `db:"status" json:"status"`
	CreatedAt         time.Time     `db:"created_at" json:"created_at"`
}

type SessionDetails struct {
	ID                uuid.UUID     `db:"id" json:"id"`
	Title             string        `db:"title" json:"title"`
	Description       string        `db:"description" json:"description"`
	StartAt           time.Time     `db:"start_at" json:"start_at"`
	EndAt             *time.Time    `db:"end_at" json:"end_at,omitempty"`
	TotalCapacity     int           `db:"total_capacity" json:"total_capacity"`
	CapacityRemaining int           `db:"capacity_remaining" json:"capacity_remaining"`
	Status            SessionStatus `db:"status" json:"status"`
	CategoryID        *uuid.UUID    `db:"category_id" json:"category_id,omitempty"`
	InstructorID      uuid.UUID     `db:"instructor_id" json:"instructor_id"`
	InstructorName    string        `db:"instructor_name" json:"instructor_name"`
}
