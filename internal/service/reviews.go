package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/thingful/thingful/internal/models"
	"github.com/thingful/thingful/internal/sanitize"
)

// ErrInvalidReview is returned when a review has an out-of-range rating or
// an empty text.
var ErrInvalidReview = errors.New("invalid review")

const (
	minRating = 1
	maxRating = 5
)

// ReviewRepository defines the persistence operations needed to store reviews.
type ReviewRepository interface {
	// InsertReview stores a review and returns it with its author.
	InsertReview(ctx context.Context, review models.NewReview) (*models.Review, error)
}

// ThingFinder resolves a thing by id.
type ThingFinder interface {
	GetThing(ctx context.Context, id int64) (*models.Thing, error)
}

// ReviewService implements review creation.
type ReviewService struct {
	reviews   ReviewRepository
	things    ThingFinder
	sanitizer sanitize.Sanitizer
}

// NewReviewService constructs a ReviewService.
func NewReviewService(reviews ReviewRepository, things ThingFinder, sanitizer sanitize.Sanitizer) *ReviewService {
	return &ReviewService{reviews: reviews, things: things, sanitizer: sanitizer}
}

// Create stores a review written by the authenticated user. The target
// thing must exist, otherwise common.ErrNotFound is returned.
func (s *ReviewService) Create(ctx context.Context, review models.NewReview) (models.ReviewView, error) {
	if review.Rating < minRating || review.Rating > maxRating {
		return models.ReviewView{}, fmt.Errorf("%w: rating must be between %d and %d", ErrInvalidReview, minRating, maxRating)
	}
	if strings.TrimSpace(review.Text) == "" {
		return models.ReviewView{}, fmt.Errorf("%w: text is empty", ErrInvalidReview)
	}

	if _, err := s.things.GetThing(ctx, review.ThingID); err != nil {
		return models.ReviewView{}, err
	}

	stored, err := s.reviews.InsertReview(ctx, review)
	if err != nil {
		return models.ReviewView{}, err
	}
	return serializeReview(s.sanitizer, stored), nil
}
