package migrations

import (
	"database/sql"

	"github.com/pressly/goose/v3"
)

func init() {
	goose.AddMigration(upCreateUserSettings, downCreateUserSettings)
}

func upCreateUserSettings(tx *sql.Tx) error {
	_, err := tx.Exec(`
		CREATE TABLE IF NOT EXISTS user_settings (
			user_id UUID PRIMARY KEY REFERENCES users(id) ON DELETE CASCADE,
			theme TEXT NOT NULL DEFAULT 'system' CHECK (theme IN ('light', 'dark', 'system')),
			language TEXT NOT NULL DEFAULT 'en',
			email_notifications BOOLEAN NOT NULL DEFAULT TRUE,
			push_notifications BOOLEAN NOT NULL DEFAULT TRUE,
			updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT now()
		);
	`)
	return err
}

func downCreateUserSettings(tx *sql.Tx) error {
	_, err := tx.Exec(`DROP TABLE IF EXISTS user_settings;`)
	return err
}
