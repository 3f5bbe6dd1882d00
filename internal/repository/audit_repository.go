package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"skill-marketplace/internal/model"
)

// AuditRepository stores the booking event trail fed by the audit subscriber.
type AuditRepository interface {
	SaveEvent(ctx context.Context, event *model.BookingEvent) error
	ListByBooking(ctx context.Context, bookingID uuid.UUID) ([]model.BookingEvent, error)
}

type postgresAuditRepository struct {
	db *sqlx.DB
}

func NewPostgresAuditRepository(db *sqlx.DB) AuditRepository {
	return &postgresAuditRepository{db: db}
}

func (r *postgresAuditRepository) SaveEvent(ctx context.Context, event *model.BookingEvent) error {
	query := `INSERT INTO booking_events (booking_id, session_id, learner_id, event_type, occurred_at) VALUES ($1, $2, $3, $4, $5)`
	_, err := r.db.ExecContext(ctx, query, event.BookingID, event.SessionID, event.LearnerID, event.EventType, event.OccurredAt)
	return err
}

func (r *postgresAuditRepository) ListByBooking(ctx context.Context, bookingID uuid.UUID) ([]model.BookingEvent, error) {
	events := []model.BookingEvent{}
	query := `SELECT id, booking_id, session_id, learner_id, event_type, occurred_at FROM booking_events WHERE booking_id = $1 ORDER BY occurred_at ASC`
	err := r.db.SelectContext(ctx, &events, query, bookingID)
	return events, err
}
