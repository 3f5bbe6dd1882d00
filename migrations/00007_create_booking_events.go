package migrations

import (
	"database/sql"

	"github.com/pressly/goose/v3"
)

func init() {
	goose.AddMigration(upCreateBookingEvents, downCreateBookingEvents)
}

func upCreateBookingEvents(tx *sql.Tx) error {
	_, err := tx.Exec(`
		CREATE TABLE IF NOT EXISTS booking_events (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			booking_id UUID NOT NULL REFERENCES bookings(id) ON DELETE CASCADE,
			session_id UUID NOT NULL,
			learner_id UUID NOT NULL,
			event_type TEXT NOT NULL,
			occurred_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT now()
		);

		CREATE INDEX IF NOT EXISTS idx_booking_events_booking_id ON booking_events(booking_id, occurred_at);
	`)
	return err
}

func downCreateBookingEvents(tx *sql.Tx) error {
	_, err := tx.Exec(`DROP TABLE IF EXISTS booking_events;`)
	return err
}
