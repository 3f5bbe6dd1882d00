package migrations

import (
	"database/sql"

	"github.com/pressly/goose/v3"
)

func init() {
	goose.AddMigration(upCreateCategoriesTable, downCreateCategoriesTable)
}

func upCreateCategoriesTable(tx *sql.Tx) error {
	_, err := tx.Exec(`
		CREATE TABLE IF NOT EXISTS categories (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			name TEXT NOT NULL UNIQUE,
			icon TEXT NOT NULL
		);

		-- Seed skill categories
		INSERT INTO categories (name, icon) VALUES
		('Music', 'music'),
		('Cooking', 'utensils'),
		('Languages', 'globe'),
		('Crafts', 'scissors'),
		('Technology', 'laptop'),
		('Fitness', 'heart');
	`)
	return err
}

func downCreateCategoriesTable(tx *sql.Tx) error {
	_, err := tx.Exec(`DROP TABLE IF EXISTS categories;`)
	return err
}
