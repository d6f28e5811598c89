package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/thingful/thingful/internal/common"
	"github.com/thingful/thingful/internal/models"
)

const thingSelect = `SELECT
	t.id, t.title, COALESCE(t.content, ''), COALESCE(t.image, ''), t.date_created,
	COUNT(DISTINCT r.id) AS number_of_reviews,
	COALESCE(AVG(r.rating), 0) AS average_review_rating,
	u.id, u.user_name, u.full_name, COALESCE(u.nickname, ''), u.date_created
	FROM thingful_things t
	JOIN thingful_users u ON u.id = t.user_id
	LEFT JOIN thingful_reviews r ON r.thing_id = t.id`

// PostgresThingRepository implements thing and review reads against a PostgreSQL database.
type PostgresThingRepository struct {
	// DB is the database handle for executing queries.
	DB *sql.DB
}

// NewPostgresThingRepository creates a new PostgresThingRepository using the provided *sql.DB.
func NewPostgresThingRepository(db *sql.DB) *PostgresThingRepository {
	return &PostgresThingRepository{DB: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanThing(row rowScanner) (models.Thing, error) {
	var t models.Thing
	err := row.Scan(
		&t.ID, &t.Title, &t.Content, &t.Image, &t.DateCreated,
		&t.NumberOfReviews, &t.AverageReviewRating,
		&t.Author.ID, &t.Author.UserName, &t.Author.FullName, &t.Author.Nickname, &t.Author.DateCreated,
	)
	return t, err
}

// ListThings returns all things ordered by id, each with its author and
// review aggregates.
func (r *PostgresThingRepository) ListThings(ctx context.Context) ([]models.Thing, error) {
	rows, err := r.DB.QueryContext(ctx, thingSelect+`
		GROUP BY t.id, u.id
		ORDER BY t.id`)
	if err != nil {
		return nil, fmt.Errorf("ListThings: %w", err)
	}
	defer rows.Close()

	things := []models.Thing{}
	for rows.Next() {
		t, err := scanThing(rows)
		if err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		things = append(things, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ListThings: %w", err)
	}
	return things, nil
}

// GetThing returns a single thing by id, or common.ErrNotFound.
func (r *PostgresThingRepository) GetThing(ctx context.Context, id int64) (*models.Thing, error) {
	t, err := scanThing(r.DB.QueryRowContext(ctx, thingSelect+`
		WHERE t.id = $1
		GROUP BY t.id, u.id`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("GetThing: %w", err)
	}
	return &t, nil
}

const reviewColumns = `
	r.id, r.text, r.rating, r.thing_id, r.date_created,
	u.id, u.user_name, u.full_name, COALESCE(u.nickname, ''), u.date_created`

func scanReview(row rowScanner) (models.Review, error) {
	var rv models.Review
	err := row.Scan(
		&rv.ID, &rv.Text, &rv.Rating, &rv.ThingID, &rv.DateCreated,
		&rv.Author.ID, &rv.Author.UserName, &rv.Author.FullName, &rv.Author.Nickname, &rv.Author.DateCreated,
	)
	return rv, err
}

// ListReviewsForThing returns the reviews of a thing ordered by id.
func (r *PostgresThingRepository) ListReviewsForThing(ctx context.Context, thingID int64) ([]models.Review, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT `+reviewColumns+`
		FROM thingful_reviews r
		JOIN thingful_users u ON u.id = r.user_id
		WHERE r.thing_id = $1
		ORDER BY r.id`, thingID)
	if err != nil {
		return nil, fmt.Errorf("ListReviewsForThing: %w", err)
	}
	defer rows.Close()

	reviews := []models.Review{}
	for rows.Next() {
		rv, err := scanReview(rows)
		if err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		reviews = append(reviews, rv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ListReviewsForThing: %w", err)
	}
	return reviews, nil
}
