package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/thingful/thingful/internal/common"
	"github.com/thingful/thingful/internal/models"
)

// PostgresReviewRepository implements review writes against a PostgreSQL database.
type PostgresReviewRepository struct {
	DB *sql.DB
}

// NewPostgresReviewRepository creates a new PostgresReviewRepository.
func NewPostgresReviewRepository(db *sql.DB) *PostgresReviewRepository {
	return &PostgresReviewRepository{DB: db}
}

// InsertReview stores a review and returns it joined with its author.
// A thing or user that no longer exists yields common.ErrNotFound.
func (r *PostgresReviewRepository) InsertReview(ctx context.Context, review models.NewReview) (*models.Review, error) {
	rv, err := scanReview(r.DB.QueryRowContext(ctx, `
		WITH r AS (
			INSERT INTO thingful_reviews (thing_id, user_id, rating, text)
			VALUES ($1, $2, $3, $4)
			RETURNING id, text, rating, thing_id, date_created, user_id
		)
		SELECT `+reviewColumns+`
		FROM r JOIN thingful_users u ON u.id = r.user_id
	`, review.ThingID, review.UserID, review.Rating, review.Text))
	if err != nil {
		if pgErrorCode(err) == pgForeignKeyViolation {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("InsertReview: %w", err)
	}
	return &rv, nil
}
