package migrations

import (
	"context"
	"database/sql"

	"github.com/pressly/goose/v3"
)

func init() {
	goose.AddMigrationContext(upCreateSessionsTable, downCreateSessionsTable)
}

func upCreateSessionsTable(ctx context.Context, tx *sql.Tx) error {
	query := `
		CREATE TABLE sessions (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			instructor_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			category_id UUID REFERENCES categories(id),
			title TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			start_at TIMESTAMP WITH TIME ZONE NOT NULL,
			end_at TIMESTAMP WITH TIME ZONE,
			total_capacity INT NOT NULL CHECK (total_capacity > 0),
			capacity_remaining INT NOT NULL,
			status TEXT NOT NULL DEFAULT 'upcoming' CHECK (status IN ('upcoming', 'completed', 'canceled')),
			created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT now(),
			CONSTRAINT sessions_capacity_bounds CHECK (capacity_remaining >= 0 AND capacity_remaining <= total_capacity)
		);

		CREATE INDEX IF NOT EXISTS idx_sessions_start_at ON sessions(start_at) WHERE status = 'upcoming';
		CREATE INDEX IF NOT EXISTS idx_sessions_instructor_id ON sessions(instructor_id);
	`

	_, err := tx.ExecContext(ctx, query)
	return err
}

func downCreateSessionsTable(ctx context.Context, tx *sql.Tx) error {
	_, err := tx.ExecContext(ctx, `DROP TABLE IF EXISTS sessions;`)
	return err
}
