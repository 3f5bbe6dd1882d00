package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"skill-marketplace/internal/booking"
	"skill-marketplace/internal/model"
)

const bookingColumns = `id, session_id, learner_id, status, created_at, updated_at`

const bookingDetailsQuery = `
	SELECT b.id, b.session_id, b.learner_id, b.status, b.created_at, b.updated_at,
		s.title AS session_title, s.start_at AS session_start_at,
		COALESCE(u.name, '') AS learner_name
	FROM bookings b
	JOIN sessions s ON s.id = b.session_id
	LEFT JOIN users u ON u.id = b.learner_id
`

// RequestCheckFunc validates a new booking against the locked session and
// the learner's current active booking for it, if any.
type RequestCheckFunc func(s *model.Session, active *model.Booking) error

// DecideFunc turns the locked booking and session into a transition.
type DecideFunc func(b *model.Booking, s *model.Session) (booking.Transition, error)

// SessionDecideFunc turns the locked session and all its bookings into a
// session outcome.
type SessionDecideFunc func(s *model.Session, bookings []model.Booking) (booking.SessionOutcome, error)

// BookingRepository persists bookings and applies lifecycle transitions.
//
// Every method that changes booking status or session capacity locks the
// session row first (SELECT ... FOR UPDATE, or FOR SHARE for new requests),
// so accept and cancel on one session are serialized and a failed decision
// writes nothing.
type BookingRepository interface {
	Create(ctx context.Context, sessionID, learnerID uuid.UUID, check RequestCheckFunc) (*model.Booking, error)
	FindByID(ctx context.Context, bookingID uuid.UUID) (*model.Booking, error)
	FindActive(ctx context.Context, learnerID, sessionID uuid.UUID) (*model.Booking, error)
	HasAccepted(ctx context.Context, learnerID, sessionID uuid.UUID) (bool, error)
	ListBySession(ctx context.Context, sessionID uuid.UUID) ([]model.BookingDetails, error)
	ListByLearner(ctx context.Context, learnerID uuid.UUID) ([]model.BookingDetails, error)
	Transition(ctx context.Context, bookingID uuid.UUID, decide DecideFunc) (booking.Transition, error)
	TransitionSession(ctx context.Context, sessionID uuid.UUID, decide SessionDecideFunc) (booking.SessionOutcome, error)
}

type postgresBookingRepository struct {
	db *sqlx.DB
}

func NewPostgresBookingRepository(db *sqlx.DB) BookingRepository {
	return &postgresBookingRepository{db: db}
}

func (r *postgresBookingRepository) Create(ctx context.Context, sessionID, learnerID uuid.UUID, check RequestCheckFunc) (*model.Booking, error) {
	var created model.Booking

	err := withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		session, err := lockSession(ctx, tx, sessionID, "FOR SHARE")
		if err != nil {
			return err
		}

		active, err := findActive(ctx, tx, learnerID, sessionID)
		if err != nil {
			return err
		}

		if err := check(session, active); err != nil {
			return err
		}

		query := `
			INSERT INTO bookings (session_id, learner_id, status)
			VALUES ($1, $2, $3)
			RETURNING ` + bookingColumns
		err = tx.QueryRowxContext(ctx, query, sessionID, learnerID, model.BookingPending).StructScan(&created)
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: an active booking already exists for this session", booking.ErrDuplicate)
		}
		return err
	})
	if err != nil {
		return nil, err
	}

	return &created, nil
}

func (r *postgresBookingRepository) FindByID(ctx context.Context, bookingID uuid.UUID) (*model.Booking, error) {
	var b model.Booking
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = $1`
	err := r.db.GetContext(ctx, &b, query, bookingID)

	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, err
	}

	return &b, nil
}

func (r *postgresBookingRepository) FindActive(ctx context.Context, learnerID, sessionID uuid.UUID) (*model.Booking, error) {
	return findActive(ctx, r.db, learnerID, sessionID)
}

func (r *postgresBookingRepository) HasAccepted(ctx context.Context, learnerID, sessionID uuid.UUID) (bool, error) {
	var exists bool
	query := `SELECT EXISTS(SELECT 1 FROM bookings WHERE learner_id = $1 AND session_id = $2 AND status = 'accepted')`
	err := r.db.GetContext(ctx, &exists, query, learnerID, sessionID)
	if err != nil && !isNoRows(err) {
		return false, err
	}
	return exists, nil
}

func (r *postgresBookingRepository) ListBySession(ctx context.Context, sessionID uuid.UUID) ([]model.BookingDetails, error) {
	bookings := []model.BookingDetails{}
	query := bookingDetailsQuery + ` WHERE b.session_id = $1 ORDER BY b.created_at ASC`
	err := r.db.SelectContext(ctx, &bookings, query, sessionID)
	return bookings, err
}

func (r *postgresBookingRepository) ListByLearner(ctx context.Context, learnerID uuid.UUID) ([]model.BookingDetails, error) {
	bookings := []model.BookingDetails{}
	query := bookingDetailsQuery + ` WHERE b.learner_id = $1 ORDER BY s.start_at DESC`
	err := r.db.SelectContext(ctx, &bookings, query, learnerID)
	return bookings, err
}

func (r *postgresBookingRepository) Transition(ctx context.Context, bookingID uuid.UUID, decide DecideFunc) (booking.Transition, error) {
	var result booking.Transition

	err := withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		// session_id never changes, so it is safe to read before locking
		var sessionID uuid.UUID
		err := tx.GetContext(ctx, &sessionID, `SELECT session_id FROM bookings WHERE id = $1`, bookingID)
		if isNoRows(err) {
			return fmt.Errorf("%w: booking %s", booking.ErrNotFound, bookingID)
		}
		if err != nil {
			return err
		}

		session, err := lockSession(ctx, tx, sessionID, "FOR UPDATE")
		if err != nil {
			return err
		}

		var b model.Booking
		err = tx.GetContext(ctx, &b, `SELECT `+bookingColumns+` FROM bookings WHERE id = $1 FOR UPDATE`, bookingID)
		if err != nil {
			return err
		}

		t, err := decide(&b, session)
		if err != nil {
			return err
		}

		if err := applyTransition(ctx, tx, t); err != nil {
			return err
		}
		if err := adjustCapacity(ctx, tx, sessionID, t.CapacityDelta); err != nil {
			return err
		}

		result = t
		return nil
	})

	return result, err
}

func (r *postgresBookingRepository) TransitionSession(ctx context.Context, sessionID uuid.UUID, decide SessionDecideFunc) (booking.SessionOutcome, error) {
	var result booking.SessionOutcome

	err := withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		session, err := lockSession(ctx, tx, sessionID, "FOR UPDATE")
		if err != nil {
			return err
		}

		bookings := []model.Booking{}
		query := `SELECT ` + bookingColumns + ` FROM bookings WHERE session_id = $1 AND status IN ('pending', 'accepted') ORDER BY created_at FOR UPDATE`
		if err := tx.SelectContext(ctx, &bookings, query, sessionID); err != nil {
			return err
		}

		out, err := decide(session, bookings)
		if err != nil {
			return err
		}

		res, err := tx.ExecContext(ctx, `UPDATE sessions SET status = $1 WHERE id = $2 AND status = $3`, out.To, sessionID, out.From)
		if err != nil {
			return err
		}
		if err := expectOneRow(res, "session "+sessionID.String()); err != nil {
			return err
		}

		for _, t := range out.Transitions {
			if err := applyTransition(ctx, tx, t); err != nil {
				return err
			}
		}
		if err := adjustCapacity(ctx, tx, sessionID, out.CapacityDelta()); err != nil {
			return err
		}

		result = out
		return nil
	})

	return result, err
}

type queryer interface {
	GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
}

func findActive(ctx context.Context, q queryer, learnerID, sessionID uuid.UUID) (*model.Booking, error) {
	var b model.Booking
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE learner_id = $1 AND session_id = $2 AND status IN ('pending', 'accepted')`
	err := q.GetContext(ctx, &b, query, learnerID, sessionID)
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, err
	}
	return &b, nil
}

func lockSession(ctx context.Context, tx *sqlx.Tx, sessionID uuid.UUID, lock string) (*model.Session, error) {
	var s model.Session
	err := tx.GetContext(ctx, &s, `SELECT `+sessionColumns+` FROM sessions WHERE id = $1 `+lock, sessionID)
	if isNoRows(err) {
		return nil, fmt.Errorf("%w: session %s", booking.ErrNotFound, sessionID)
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func applyTransition(ctx context.Context, tx *sqlx.Tx, t booking.Transition) error {
	res, err := tx.ExecContext(ctx,
		`UPDATE bookings SET status = $1, updated_at = now() WHERE id = $2 AND status = $3`,
		t.To, t.BookingID, t.From,
	)
	if err != nil {
		return err
	}
	return expectOneRow(res, "booking "+t.BookingID.String())
}

func adjustCapacity(ctx context.Context, tx *sqlx.Tx, sessionID uuid.UUID, delta int) error {
	if delta == 0 {
		return nil
	}

	res, err := tx.ExecContext(ctx,
		`UPDATE sessions SET capacity_remaining = capacity_remaining + $1 WHERE id = $2`,
		delta, sessionID,
	)
	if pgCode(err) == pgCheckViolation {
		return fmt.Errorf("%w: capacity bounds violated for session %s", booking.ErrConcurrencyConflict, sessionID)
	}
	if err != nil {
		return err
	}
	return expectOneRow(res, "session "+sessionID.String())
}

type rowsAffecter interface {
	RowsAffected() (int64, error)
}

func expectOneRow(res rowsAffecter, what string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n != 1 {
		return fmt.Errorf("%w: %s changed underneath", booking.ErrConcurrencyConflict, what)
	}
	return nil
}
