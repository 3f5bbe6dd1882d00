package repository_test

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/require"

	"skill-marketplace/internal/booking"
	"skill-marketplace/internal/model"
	repo "skill-marketplace/internal/repository"
)

var bookingRowColumns = []string{"id", "session_id", "learner_id", "status", "created_at", "updated_at"}

func bookingRow(id, sessionID, learnerID uuid.UUID, status model.BookingStatus) *sqlmock.Rows {
	return sqlmock.NewRows(bookingRowColumns).
		AddRow(id.String(), sessionID.String(), learnerID.String(), string(status), time.Now(), time.Now())
}

func acceptAs(actor model.Actor) repo.DecideFunc {
	return func(b *model.Booking, s *model.Session) (booking.Transition, error) {
		return booking.Decide(booking.ActionAccept, actor, b, s)
	}
}

func TestPostgresBookingRepository_Create(t *testing.T) {
	sqlxDB, mock := newMockDB(t)
	r := repo.NewPostgresBookingRepository(sqlxDB)

	sessionID, instructorID, learnerID, bookingID := uuid.New(), uuid.New(), uuid.New(), uuid.New()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`FROM sessions WHERE id = $1 FOR SHARE`)).
		WithArgs(sessionID.String()).
		WillReturnRows(sessionRow(sessionID, instructorID, 2, 2, model.SessionUpcoming))
	mock.ExpectQuery(regexp.QuoteMeta(`status IN ('pending', 'accepted')`)).
		WithArgs(learnerID.String(), sessionID.String()).
		WillReturnRows(sqlmock.NewRows(bookingRowColumns))
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO bookings`)).
		WithArgs(sessionID.String(), learnerID.String(), "pending").
		WillReturnRows(bookingRow(bookingID, sessionID, learnerID, model.BookingPending))
	mock.ExpectCommit()

	actor := model.Actor{ID: learnerID, Role: model.RoleLearner}
	b, err := r.Create(context.Background(), sessionID, learnerID, func(s *model.Session, active *model.Booking) error {
		return booking.CheckRequest(actor, s, active)
	})
	require.NoError(t, err)
	require.Equal(t, bookingID, b.ID)
	require.Equal(t, model.BookingPending, b.Status)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresBookingRepository_Create_DuplicateActive(t *testing.T) {
	sqlxDB, mock := newMockDB(t)
	r := repo.NewPostgresBookingRepository(sqlxDB)

	sessionID, learnerID := uuid.New(), uuid.New()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`FOR SHARE`)).
		WillReturnRows(sessionRow(sessionID, uuid.New(), 2, 2, model.SessionUpcoming))
	mock.ExpectQuery(regexp.QuoteMeta(`status IN ('pending', 'accepted')`)).
		WillReturnRows(bookingRow(uuid.New(), sessionID, learnerID, model.BookingPending))
	mock.ExpectRollback()

	actor := model.Actor{ID: learnerID, Role: model.RoleLearner}
	_, err := r.Create(context.Background(), sessionID, learnerID, func(s *model.Session, active *model.Booking) error {
		return booking.CheckRequest(actor, s, active)
	})
	require.ErrorIs(t, err, booking.ErrDuplicate)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresBookingRepository_Create_UniqueViolation(t *testing.T) {
	sqlxDB, mock := newMockDB(t)
	r := repo.NewPostgresBookingRepository(sqlxDB)

	sessionID, learnerID := uuid.New(), uuid.New()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`FOR SHARE`)).
		WillReturnRows(sessionRow(sessionID, uuid.New(), 2, 2, model.SessionUpcoming))
	mock.ExpectQuery(regexp.QuoteMeta(`status IN ('pending', 'accepted')`)).
		WillReturnRows(sqlmock.NewRows(bookingRowColumns))
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO bookings`)).
		WillReturnError(&pgconn.PgError{Code: "23505"})
	mock.ExpectRollback()

	_, err := r.Create(context.Background(), sessionID, learnerID, func(*model.Session, *model.Booking) error { return nil })
	require.ErrorIs(t, err, booking.ErrDuplicate)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresBookingRepository_Transition_Accept(t *testing.T) {
	sqlxDB, mock := newMockDB(t)
	r := repo.NewPostgresBookingRepository(sqlxDB)

	sessionID, instructorID, learnerID, bookingID := uuid.New(), uuid.New(), uuid.New(), uuid.New()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT session_id FROM bookings WHERE id = $1`)).
		WithArgs(bookingID.String()).
		WillReturnRows(sqlmock.NewRows([]string{"session_id"}).AddRow(sessionID.String()))
	mock.ExpectQuery(regexp.QuoteMeta(`FROM sessions WHERE id = $1 FOR UPDATE`)).
		WithArgs(sessionID.String()).
		WillReturnRows(sessionRow(sessionID, instructorID, 2, 1, model.SessionUpcoming))
	mock.ExpectQuery(regexp.QuoteMeta(`FROM bookings WHERE id = $1 FOR UPDATE`)).
		WithArgs(bookingID.String()).
		WillReturnRows(bookingRow(bookingID, sessionID, learnerID, model.BookingPending))
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE bookings SET status = $1, updated_at = now() WHERE id = $2 AND status = $3`)).
		WithArgs("accepted", bookingID.String(), "pending").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE sessions SET capacity_remaining = capacity_remaining + $1 WHERE id = $2`)).
		WithArgs(-1, sessionID.String()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	tr, err := r.Transition(context.Background(), bookingID, acceptAs(model.Actor{ID: instructorID, Role: model.RoleInstructor}))
	require.NoError(t, err)
	require.Equal(t, model.BookingAccepted, tr.To)
	require.Equal(t, -1, tr.CapacityDelta)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresBookingRepository_Transition_FullSessionWritesNothing(t *testing.T) {
	sqlxDB, mock := newMockDB(t)
	r := repo.NewPostgresBookingRepository(sqlxDB)

	sessionID, instructorID, bookingID := uuid.New(), uuid.New(), uuid.New()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT session_id FROM bookings`)).
		WillReturnRows(sqlmock.NewRows([]string{"session_id"}).AddRow(sessionID.String()))
	mock.ExpectQuery(regexp.QuoteMeta(`FOR UPDATE`)).
		WillReturnRows(sessionRow(sessionID, instructorID, 1, 0, model.SessionUpcoming))
	mock.ExpectQuery(regexp.QuoteMeta(`FROM bookings WHERE id = $1 FOR UPDATE`)).
		WillReturnRows(bookingRow(bookingID, sessionID, uuid.New(), model.BookingPending))
	mock.ExpectRollback()

	_, err := r.Transition(context.Background(), bookingID, acceptAs(model.Actor{ID: instructorID, Role: model.RoleInstructor}))
	require.ErrorIs(t, err, booking.ErrCapacityExceeded)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresBookingRepository_Transition_NotFound(t *testing.T) {
	sqlxDB, mock := newMockDB(t)
	r := repo.NewPostgresBookingRepository(sqlxDB)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT session_id FROM bookings`)).
		WillReturnRows(sqlmock.NewRows([]string{"session_id"}))
	mock.ExpectRollback()

	_, err := r.Transition(context.Background(), uuid.New(), acceptAs(model.Actor{ID: uuid.New(), Role: model.RoleInstructor}))
	require.ErrorIs(t, err, booking.ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresBookingRepository_Transition_StaleRowIsConflict(t *testing.T) {
	sqlxDB, mock := newMockDB(t)
	r := repo.NewPostgresBookingRepository(sqlxDB)

	sessionID, instructorID, bookingID := uuid.New(), uuid.New(), uuid.New()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT session_id FROM bookings`)).
		WillReturnRows(sqlmock.NewRows([]string{"session_id"}).AddRow(sessionID.String()))
	mock.ExpectQuery(regexp.QuoteMeta(`FOR UPDATE`)).
		WillReturnRows(sessionRow(sessionID, instructorID, 2, 2, model.SessionUpcoming))
	mock.ExpectQuery(regexp.QuoteMeta(`FROM bookings WHERE id = $1 FOR UPDATE`)).
		WillReturnRows(bookingRow(bookingID, sessionID, uuid.New(), model.BookingPending))
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE bookings SET status`)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	_, err := r.Transition(context.Background(), bookingID, acceptAs(model.Actor{ID: instructorID, Role: model.RoleInstructor}))
	require.ErrorIs(t, err, booking.ErrConcurrencyConflict)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresBookingRepository_Transition_CheckViolationIsConflict(t *testing.T) {
	sqlxDB, mock := newMockDB(t)
	r := repo.NewPostgresBookingRepository(sqlxDB)

	sessionID, instructorID, bookingID := uuid.New(), uuid.New(), uuid.New()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT session_id FROM bookings`)).
		WillReturnRows(sqlmock.NewRows([]string{"session_id"}).AddRow(sessionID.String()))
	mock.ExpectQuery(regexp.QuoteMeta(`FOR UPDATE`)).
		WillReturnRows(sessionRow(sessionID, instructorID, 2, 1, model.SessionUpcoming))
	mock.ExpectQuery(regexp.QuoteMeta(`FROM bookings WHERE id = $1 FOR UPDATE`)).
		WillReturnRows(bookingRow(bookingID, sessionID, uuid.New(), model.BookingPending))
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE bookings SET status`)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE sessions SET capacity_remaining`)).
		WillReturnError(&pgconn.PgError{Code: "23514", ConstraintName: "sessions_capacity_bounds"})
	mock.ExpectRollback()

	_, err := r.Transition(context.Background(), bookingID, acceptAs(model.Actor{ID: instructorID, Role: model.RoleInstructor}))
	require.ErrorIs(t, err, booking.ErrConcurrencyConflict)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresBookingRepository_Transition_RetriesSerializationFailure(t *testing.T) {
	sqlxDB, mock := newMockDB(t)
	r := repo.NewPostgresBookingRepository(sqlxDB)

	for i := 0; i < 3; i++ {
		mock.ExpectBegin()
		mock.ExpectQuery(regexp.QuoteMeta(`SELECT session_id FROM bookings`)).
			WillReturnError(&pgconn.PgError{Code: "40001"})
		mock.ExpectRollback()
	}

	_, err := r.Transition(context.Background(), uuid.New(), acceptAs(model.Actor{ID: uuid.New(), Role: model.RoleInstructor}))
	require.ErrorIs(t, err, booking.ErrConcurrencyConflict)

	var pgErr *pgconn.PgError
	require.True(t, errors.As(err, &pgErr))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresBookingRepository_TransitionSession_Cancel(t *testing.T) {
	sqlxDB, mock := newMockDB(t)
	r := repo.NewPostgresBookingRepository(sqlxDB)

	sessionID, instructorID := uuid.New(), uuid.New()
	pendingID, acceptedID := uuid.New(), uuid.New()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`FROM sessions WHERE id = $1 FOR UPDATE`)).
		WillReturnRows(sessionRow(sessionID, instructorID, 3, 2, model.SessionUpcoming))
	mock.ExpectQuery(regexp.QuoteMeta(`WHERE session_id = $1 AND status IN ('pending', 'accepted')`)).
		WithArgs(sessionID.String()).
		WillReturnRows(sqlmock.NewRows(bookingRowColumns).
			AddRow(pendingID.String(), sessionID.String(), uuid.New().String(), "pending", time.Now(), time.Now()).
			AddRow(acceptedID.String(), sessionID.String(), uuid.New().String(), "accepted", time.Now(), time.Now()))
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE sessions SET status = $1 WHERE id = $2 AND status = $3`)).
		WithArgs("canceled", sessionID.String(), "upcoming").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE bookings SET status`)).
		WithArgs("canceled", pendingID.String(), "pending").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE bookings SET status`)).
		WithArgs("canceled", acceptedID.String(), "accepted").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE sessions SET capacity_remaining`)).
		WithArgs(1, sessionID.String()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	actor := model.Actor{ID: instructorID, Role: model.RoleInstructor}
	out, err := r.TransitionSession(context.Background(), sessionID, func(s *model.Session, bookings []model.Booking) (booking.SessionOutcome, error) {
		return booking.DecideCancelSession(actor, s, bookings)
	})
	require.NoError(t, err)
	require.Equal(t, model.SessionCanceled, out.To)
	require.Len(t, out.Transitions, 2)
	require.NoError(t, mock.ExpectationsWereMet())
}
