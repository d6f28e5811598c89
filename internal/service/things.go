package service

import (
	"context"

	"github.com/thingful/thingful/internal/models"
	"github.com/thingful/thingful/internal/sanitize"
)

// ThingRepository defines the persistence operations needed by the
// ThingService and ReviewService.
type ThingRepository interface {
	// ListThings returns every thing with its author and review aggregates.
	ListThings(ctx context.Context) ([]models.Thing, error)
	// GetThing returns a single thing, or common.ErrNotFound.
	GetThing(ctx context.Context, id int64) (*models.Thing, error)
	// ListReviewsForThing returns the reviews of a thing, oldest first.
	ListReviewsForThing(ctx context.Context, thingID int64) ([]models.Review, error)
}

// ThingService implements the read side of things and their reviews.
type ThingService struct {
	repo      ThingRepository
	sanitizer sanitize.Sanitizer
}

// NewThingService constructs a ThingService.
func NewThingService(repo ThingRepository, sanitizer sanitize.Sanitizer) *ThingService {
	return &ThingService{repo: repo, sanitizer: sanitizer}
}

// List returns all things as sanitized views.
func (s *ThingService) List(ctx context.Context) ([]models.ThingView, error) {
	things, err := s.repo.ListThings(ctx)
	if err != nil {
		return nil, err
	}

	views := make([]models.ThingView, 0, len(things))
	for i := range things {
		views = append(views, s.serializeThing(&things[i]))
	}
	return views, nil
}

// Get returns the thing with the given id, or common.ErrNotFound.
func (s *ThingService) Get(ctx context.Context, id int64) (models.ThingView, error) {
	thing, err := s.repo.GetThing(ctx, id)
	if err != nil {
		return models.ThingView{}, err
	}
	return s.serializeThing(thing), nil
}

// Reviews returns the reviews of the thing with the given id. A missing
// thing yields common.ErrNotFound rather than an empty list.
func (s *ThingService) Reviews(ctx context.Context, thingID int64) ([]models.ReviewView, error) {
	if _, err := s.repo.GetThing(ctx, thingID); err != nil {
		return nil, err
	}

	reviews, err := s.repo.ListReviewsForThing(ctx, thingID)
	if err != nil {
		return nil, err
	}

	views := make([]models.ReviewView, 0, len(reviews))
	for i := range reviews {
		views = append(views, serializeReview(s.sanitizer, &reviews[i]))
	}
	return views, nil
}

func (s *ThingService) serializeThing(t *models.Thing) models.ThingView {
	return models.ThingView{
		ID:                  t.ID,
		Title:               s.sanitizer.Sanitize(t.Title),
		Content:             s.sanitizer.Sanitize(t.Content),
		Image:               t.Image,
		DateCreated:         t.DateCreated,
		NumberOfReviews:     t.NumberOfReviews,
		AverageReviewRating: t.AverageReviewRating,
		User:                serializeUser(s.sanitizer, &t.Author),
	}
}

func serializeReview(sanitizer sanitize.Sanitizer, r *models.Review) models.ReviewView {
	return models.ReviewView{
		ID:          r.ID,
		Rating:      r.Rating,
		Text:        sanitizer.Sanitize(r.Text),
		ThingID:     r.ThingID,
		DateCreated: r.DateCreated,
		User:        serializeUser(sanitizer, &r.Author),
	}
}
