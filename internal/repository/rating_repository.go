package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"skill-marketplace/internal/booking"
	"skill-marketplace/internal/model"
)

const ratingColumns = `id, session_id, learner_id, rating, comment, created_at, updated_at`

type RatingRepository interface {
	Create(ctx context.Context, rating *model.Rating) error
	FindByID(ctx context.Context, ratingID uuid.UUID) (*model.Rating, error)
	Exists(ctx context.Context, learnerID, sessionID uuid.UUID) (bool, error)
	Update(ctx context.Context, rating *model.Rating) error
	Delete(ctx context.Context, ratingID uuid.UUID) error
	ListBySession(ctx context.Context, sessionID uuid.UUID) ([]model.Rating, error)
	SummaryForInstructor(ctx context.Context, instructorID uuid.UUID) (*model.RatingSummary, error)
}

type postgresRatingRepository struct {
	db *sqlx.DB
}

func NewPostgresRatingRepository(db *sqlx.DB) RatingRepository {
	return &postgresRatingRepository{db: db}
}

func (r *postgresRatingRepository) Create(ctx context.Context, rating *model.Rating) error {
	query := `
		INSERT INTO ratings (session_id, learner_id, rating, comment)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at
	`
	err := r.db.QueryRowxContext(ctx, query, rating.SessionID, rating.LearnerID, rating.Rating, rating.Comment).
		Scan(&rating.ID, &rating.CreatedAt, &rating.UpdatedAt)
	if isUniqueViolation(err) {
		return fmt.Errorf("%w: session already rated", booking.ErrDuplicate)
	}
	return err
}

func (r *postgresRatingRepository) FindByID(ctx context.Context, ratingID uuid.UUID) (*model.Rating, error) {
	var rating model.Rating
	err := r.db.GetContext(ctx, &rating, `SELECT `+ratingColumns+` FROM ratings WHERE id = $1`, ratingID)
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, err
	}
	return &rating, nil
}

func (r *postgresRatingRepository) Exists(ctx context.Context, learnerID, sessionID uuid.UUID) (bool, error) {
	var exists bool
	query := `SELECT EXISTS(SELECT 1 FROM ratings WHERE learner_id = $1 AND session_id = $2)`
	err := r.db.GetContext(ctx, &exists, query, learnerID, sessionID)
	if err != nil && !isNoRows(err) {
		return false, err
	}
	return exists, nil
}

func (r *postgresRatingRepository) Update(ctx context.Context, rating *model.Rating) error {
	query := `
		UPDATE ratings SET rating = $1, comment = $2, updated_at = now()
		WHERE id = $3 AND learner_id = $4
		RETURNING updated_at
	`
	err := r.db.QueryRowxContext(ctx, query, rating.Rating, rating.Comment, rating.ID, rating.LearnerID).Scan(&rating.UpdatedAt)
	if isNoRows(err) {
		return fmt.Errorf("%w: rating %s", booking.ErrNotFound, rating.ID)
	}
	return err
}

func (r *postgresRatingRepository) Delete(ctx context.Context, ratingID uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM ratings WHERE id = $1`, ratingID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: rating %s", booking.ErrNotFound, ratingID)
	}
	return nil
}

func (r *postgresRatingRepository) ListBySession(ctx context.Context, sessionID uuid.UUID) ([]model.Rating, error) {
	ratings := []model.Rating{}
	query := `SELECT ` + ratingColumns + ` FROM ratings WHERE session_id = $1 ORDER BY created_at DESC`
	err := r.db.SelectContext(ctx, &ratings, query, sessionID)
	return ratings, err
}

func (r *postgresRatingRepository) SummaryForInstructor(ctx context.Context, instructorID uuid.UUID) (*model.RatingSummary, error) {
	summary := model.RatingSummary{InstructorID: instructorID}
	query := `
		SELECT COALESCE(AVG(r.rating), 0)::float8 AS average, COUNT(r.id) AS count
		FROM ratings r
		JOIN sessions s ON s.id = r.session_id
		WHERE s.instructor_id = $1
	`
	if err := r.db.QueryRowxContext(ctx, query, instructorID).Scan(&summary.Average, &summary.Count); err != nil {
		return nil, err
	}
	return &summary, nil
}
