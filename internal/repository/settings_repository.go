package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"skill-marketplace/internal/model"
)

type SettingsRepository interface {
	Get(ctx context.Context, userID uuid.UUID) (*model.UserSettings, error)
	Upsert(ctx context.Context, settings *model.UserSettings) error
}

type postgresSettingsRepository struct {
	db *sqlx.DB
}

func NewPostgresSettingsRepository(db *sqlx.DB) SettingsRepository {
	return &postgresSettingsRepository{db: db}
}

// Get returns nil when the user has never saved settings.
func (r *postgresSettingsRepository) Get(ctx context.Context, userID uuid.UUID) (*model.UserSettings, error) {
	var settings model.UserSettings
	query := `SELECT user_id, theme, language, email_notifications, push_notifications, updated_at FROM user_settings WHERE user_id = $1`
	if err := r.db.GetContext(ctx, &settings, query, userID); err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, err
	}
	return &settings, nil
}

func (r *postgresSettingsRepository) Upsert(ctx context.Context, settings *model.UserSettings) error {
	query := `
		INSERT INTO user_settings (user_id, theme, language, email_notifications, push_notifications)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (user_id) DO UPDATE SET
			theme = EXCLUDED.theme,
			language = EXCLUDED.language,
			email_notifications = EXCLUDED.email_notifications,
			push_notifications = EXCLUDED.push_notifications,
			updated_at = now()
		RETURNING updated_at
	`
	return r.db.QueryRowxContext(ctx, query,
		settings.UserID, settings.Theme, settings.Language,
		settings.EmailNotifications, settings.PushNotifications,
	).Scan(&settings.UpdatedAt)
}
