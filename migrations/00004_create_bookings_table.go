package migrations

import (
	"context"
	"database/sql"

	"github.com/pressly/goose/v3"
)

func init() {
	goose.AddMigrationContext(upCreateBookingsTable, downCreateBookingsTable)
}

func upCreateBookingsTable(ctx context.Context, tx *sql.Tx) error {
	query := `
		CREATE TABLE bookings (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			session_id UUID NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
			learner_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			status TEXT NOT NULL DEFAULT 'pending' CHECK (status IN ('pending', 'accepted', 'declined', 'canceled')),
			created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT now(),
			updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT now()
		);

		-- At most one pending or accepted booking per learner and session
		CREATE UNIQUE INDEX IF NOT EXISTS uq_bookings_active_learner_session
			ON bookings(learner_id, session_id) WHERE status IN ('pending', 'accepted');
		CREATE INDEX IF NOT EXISTS idx_bookings_session_id ON bookings(session_id, status);
	`

	_, err := tx.ExecContext(ctx, query)
	return err
}

func downCreateBookingsTable(ctx context.Context, tx *sql.Tx) error {
	_, err := tx.ExecContext(ctx, `DROP TABLE IF EXISTS bookings;`)
	return err
}
