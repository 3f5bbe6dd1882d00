package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"skill-marketplace/internal/model"
)

type PaginationMeta struct {
	CurrentPage int `json:"current_page"`
	TotalPages  int `json:"total_pages"`
	TotalItems  int `json:"total_items"`
	PerPage     int `json:"per_page"`
}

type PaginatedSessions struct {
	Data []model.SessionDetails `json:"data"`
	Meta PaginationMeta         `json:"meta"`
}

const sessionColumns = `id, instructor_id, category_id, title, description, start_at, end_at, total_capacity, capacity_remaining, status, created_at`

const sessionDetailsColumns = `
	s.id, s.title, s.description, s.start_at, s.end_at,
	s.total_capacity, s.capacity_remaining, s.status, s.category_id,
	s.instructor_id, COALESCE(u.name, 'Unknown Instructor') AS instructor_name`

// SessionRepository owns session rows. capacity_remaining is only ever
// written by BookingRepository transitions.
type SessionRepository interface {
	Create(ctx context.Context, session *model.Session) (*model.Session, error)
	FindByID(ctx context.Context, sessionID uuid.UUID) (*model.Session, error)
	ListUpcoming(ctx context.Context, categoryID string, page int, limit int) (*PaginatedSessions, error)
	ListHistoryByLearnerID(ctx context.Context, learnerID uuid.UUID) ([]model.SessionDetails, error)
	ListByInstructorID(ctx context.Context, instructorID uuid.UUID) ([]model.SessionDetails, error)
	GetCategories(ctx context.Context) ([]model.Category, error)
}

type postgresSessionRepository struct {
	db *sqlx.DB
}

func NewPostgresSessionRepository(db *sqlx.DB) SessionRepository {
	return &postgresSessionRepository{db: db}
}

func (r *postgresSessionRepository) Create(ctx context.Context, session *model.Session) (*model.Session, error) {
	query := `
		INSERT INTO sessions (instructor_id, category_id, title, description, start_at, end_at, total_capacity, capacity_remaining)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $7)
		RETURNING id, capacity_remaining, status, created_at
	`

	row := r.db.QueryRowxContext(ctx, query,
		session.InstructorID, session.CategoryID, session.Title, session.Description,
		session.StartAt, session.EndAt, session.TotalCapacity,
	)
	if err := row.Scan(&session.ID, &session.CapacityRemaining, &session.Status, &session.CreatedAt); err != nil {
		return nil, err
	}

	return session, nil
}

func (r *postgresSessionRepository) FindByID(ctx context.Context, sessionID uuid.UUID) (*model.Session, error) {
	var session model.Session
	query := `SELECT ` + sessionColumns + ` FROM sessions WHERE id = $1`
	err := r.db.GetContext(ctx, &session, query, sessionID)

	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}

		return nil, err
	}

	return &session, nil
}

func (r *postgresSessionRepository) ListUpcoming(ctx context.Context, categoryID string, page int, limit int) (*PaginatedSessions, error) {
	offset := (page - 1) * limit

	baseQuery := `
		SELECT ` + sessionDetailsColumns + `
		FROM sessions s
		LEFT JOIN users u ON s.instructor_id = u.id
		WHERE s.status = 'upcoming' AND s.start_at > NOW()
	`

	args := []interface{}{}
	argID := 1
	if categoryID != "" {
		baseQuery += fmt.Sprintf(" AND s.category_id = $%d", argID)
		args = append(args, categoryID)
		argID++
	}

	countQuery := "SELECT COUNT(*) FROM (" + baseQuery + ") AS count_query"
	var totalItems int
	if err := r.db.GetContext(ctx, &totalItems, countQuery, args...); err != nil {
		return nil, err
	}

	baseQuery += fmt.Sprintf(" ORDER BY s.start_at ASC LIMIT $%d OFFSET $%d", argID, argID+1)
	args = append(args, limit, offset)

	var sessions []model.SessionDetails
	if err := r.db.SelectContext(ctx, &sessions, baseQuery, args...); err != nil {
		return nil, err
	}

	if sessions == nil {
		sessions = []model.SessionDetails{}
	}

	totalPages := (totalItems + limit - 1) / limit

	return &PaginatedSessions{
		Data: sessions,
		Meta: PaginationMeta{
			CurrentPage: page,
			TotalPages:  totalPages,
			TotalItems:  totalItems,
			PerPage:     limit,
		},
	}, nil
}

func (r *postgresSessionRepository) ListHistoryByLearnerID(ctx context.Context, learnerID uuid.UUID) ([]model.SessionDetails, error) {
	sessions := []model.SessionDetails{}
	query := `
		SELECT ` + sessionDetailsColumns + `
		FROM sessions s
		LEFT JOIN users u ON s.instructor_id = u.id
		JOIN bookings b ON s.id = b.session_id
		WHERE b.learner_id = $1 AND b.status = 'accepted'
		ORDER BY s.start_at DESC
	`
	err := r.db.SelectContext(ctx, &sessions, query, learnerID)
	return sessions, err
}

func (r *postgresSessionRepository) ListByInstructorID(ctx context.Context, instructorID uuid.UUID) ([]model.SessionDetails, error) {
	sessions := []model.SessionDetails{}
	query := `
		SELECT ` + sessionDetailsColumns + `
		FROM sessions s
		LEFT JOIN users u ON s.instructor_id = u.id
		WHERE s.instructor_id = $1
		ORDER BY s.start_at DESC
	`
	err := r.db.SelectContext(ctx, &sessions, query, instructorID)
	return sessions, err
}

func (r *postgresSessionRepository) GetCategories(ctx context.Context) ([]model.Category, error) {
	categories := []model.Category{}
	query := `
		SELECT c.id, c.name, c.icon, COUNT(s.id) AS upcoming_sessions
		FROM categories c
		LEFT JOIN sessions s ON s.category_id = c.id AND s.status = 'upcoming'
		GROUP BY c.id, c.name, c.icon
		ORDER BY c.name
	`
	err := r.db.SelectContext(ctx, &categories, query)
	return categories, err
}
