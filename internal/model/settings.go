package model

import (
	"time"

	"github.com/google/uuid"
)

type UserSettings struct {
	UserID             uuid.UUID `db:"user_id" json:"-"`
	Theme              string    `db:"theme" json:"theme"`
	Language           string    `db:"language" json:"language"`
	EmailNotifications bool      `db:"email_notifications" json:"email_notifications"`
	PushNotifications  bool      `db:"push_notifications" json:"push_notifications"`
	UpdatedAt          time.Time `db:"updated_at" json:"updated_at"`
}

// DefaultSettings is what a user sees before saving any preference.
func DefaultSettings(userID uuid.UUID) *UserSettings {
	return &UserSettings{
		UserID:             userID,
		Theme:              "system",
		Language:           "en",
		EmailNotifications: true,
		PushNotifications:  true,
	}
}
