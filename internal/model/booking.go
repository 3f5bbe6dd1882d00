package model

import (
	"database/sql/driver"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type BookingStatus string

const (
	BookingPending  BookingStatus = "pending"
	BookingAccepted BookingStatus = "accepted"
	BookingDeclined BookingStatus = "declined"
	BookingCanceled BookingStatus = "canceled"
)

func ParseBookingStatus(s string) (BookingStatus, error) {
	switch st := BookingStatus(s); st {
	case BookingPending, BookingAccepted, BookingDeclined, BookingCanceled:
		return st, nil
	}
	return "", fmt.Errorf("unknown booking status %q", s)
}

// Active reports whether the booking still holds or may claim a seat.
func (s BookingStatus) Active() bool {
	return s == BookingPending || s == BookingAccepted
}

// Terminal reports whether no further transition can leave the status.
func (s BookingStatus) Terminal() bool {
	return s == BookingDeclined || s == BookingCanceled
}

func (s *BookingStatus) Scan(src any) error {
	raw, err := scanString(src)
	if err != nil {
		return err
	}
	parsed, err := ParseBookingStatus(raw)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

func (s BookingStatus) Value() (driver.Value, error) {
	if _, err := ParseBookingStatus(string(s)); err != nil {
		return nil, err
	}
	return string(s), nil
}

type Booking struct {
	ID        uuid.UUID     `db:"id" json:"id"`
	SessionID uuid.UUID     `db:"session_id" json:"session_id"`
	LearnerID uuid.UUID     `db:"learner_id" json:"learner_id"`
	Status    BookingStatus `db:"status" json:"status"`
	CreatedAt time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt time.Time     `db:"updated_at" json:"updated_at"`
}

// BookingDetails is a booking joined with the session and learner it links.
type BookingDetails struct {
	Booking
	SessionTitle   string    `db:"session_title" json:"session_title"`
	SessionStartAt time.Time `db:"session_start_at" json:"session_start_at"`
	LearnerName    string    `db:"learner_name" json:"learner_name"`
}
