package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thingful/thingful/internal/common"
	"github.com/thingful/thingful/internal/models"
	"github.com/thingful/thingful/internal/sanitize"
	"github.com/thingful/thingful/internal/service"
)

type mockThingRepo struct {
	ListThingsFunc          func(ctx context.Context) ([]models.Thing, error)
	GetThingFunc            func(ctx context.Context, id int64) (*models.Thing, error)
	ListReviewsForThingFunc func(ctx context.Context, thingID int64) ([]models.Review, error)
}

func (m *mockThingRepo) ListThings(ctx context.Context) ([]models.Thing, error) {
	return m.ListThingsFunc(ctx)
}
func (m *mockThingRepo) GetThing(ctx context.Context, id int64) (*models.Thing, error) {
	return m.GetThingFunc(ctx, id)
}
func (m *mockThingRepo) ListReviewsForThing(ctx context.Context, thingID int64) ([]models.Review, error) {
	return m.ListReviewsForThingFunc(ctx, thingID)
}

type mockReviewRepo struct {
	InsertReviewFunc func(ctx context.Context, review models.NewReview) (*models.Review, error)
}

func (m *mockReviewRepo) InsertReview(ctx context.Context, review models.NewReview) (*models.Review, error) {
	return m.InsertReviewFunc(ctx, review)
}

var testAuthor = models.User{ID: 1, UserName: "dunder", FullName: "Dunder Mifflin", Password: "$2a$12$hash"}

func TestThingService_List(t *testing.T) {
	created := time.Date(2029, 1, 22, 16, 28, 32, 0, time.UTC)
	repo := &mockThingRepo{
		ListThingsFunc: func(context.Context) ([]models.Thing, error) {
			return []models.Thing{
				{ID: 1, Title: "First test thing!", Content: "Lorem", DateCreated: created, NumberOfReviews: 2, AverageReviewRating: 3.5, Author: testAuthor},
				{ID: 2, Title: `Naughty <script>alert("xss");</script>`, Content: `Bad image <img src="https://x" onerror="alert(1)">`, Author: testAuthor},
			}, nil
		},
	}
	svc := service.NewThingService(repo, sanitize.New())

	views, err := svc.List(context.Background())
	require.NoError(t, err)
	require.Len(t, views, 2)

	assert.Equal(t, "First test thing!", views[0].Title)
	assert.Equal(t, created, views[0].DateCreated)
	assert.Equal(t, int64(2), views[0].NumberOfReviews)
	assert.InDelta(t, 3.5, views[0].AverageReviewRating, 0.0001)
	assert.Equal(t, "dunder", views[0].User.UserName)

	assert.NotContains(t, views[1].Title, "<script>")
	assert.NotContains(t, views[1].Content, "onerror")
}

func TestThingService_ListEmpty(t *testing.T) {
	repo := &mockThingRepo{
		ListThingsFunc: func(context.Context) ([]models.Thing, error) { return nil, nil },
	}
	svc := service.NewThingService(repo, sanitize.New())

	views, err := svc.List(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, views)
	assert.Empty(t, views)
}

func TestThingService_ListError(t *testing.T) {
	wantErr := errors.New("db down")
	repo := &mockThingRepo{
		ListThingsFunc: func(context.Context) ([]models.Thing, error) { return nil, wantErr },
	}
	svc := service.NewThingService(repo, sanitize.New())

	_, err := svc.List(context.Background())
	assert.Equal(t, wantErr, err)
}

func TestThingService_Get(t *testing.T) {
	repo := &mockThingRepo{
		GetThingFunc: func(_ context.Context, id int64) (*models.Thing, error) {
			if id != 2 {
				return nil, common.ErrNotFound
			}
			return &models.Thing{ID: 2, Title: "Second", Author: testAuthor}, nil
		},
	}
	svc := service.NewThingService(repo, sanitize.New())

	view, err := svc.Get(context.Background(), 2)
	require.NoError(t, err)
	assert.Equal(t, "Second", view.Title)

	_, err = svc.Get(context.Background(), 123456)
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestThingService_Reviews(t *testing.T) {
	listCalled := false
	repo := &mockThingRepo{
		GetThingFunc: func(_ context.Context, id int64) (*models.Thing, error) {
			if id != 1 {
				return nil, common.ErrNotFound
			}
			return &models.Thing{ID: 1}, nil
		},
		ListReviewsForThingFunc: func(_ context.Context, thingID int64) ([]models.Review, error) {
			listCalled = true
			return []models.Review{
				{ID: 10, ThingID: thingID, Rating: 5, Text: "<i>great</i>", Author: testAuthor},
			}, nil
		},
	}
	svc := service.NewThingService(repo, sanitize.New())

	views, err := svc.Reviews(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, "great", views[0].Text)
	assert.Equal(t, int64(1), views[0].ThingID)
	assert.Equal(t, "Dunder Mifflin", views[0].User.FullName)

	listCalled = false
	_, err = svc.Reviews(context.Background(), 99)
	assert.ErrorIs(t, err, common.ErrNotFound)
	assert.False(t, listCalled)
}

func TestReviewService_Create(t *testing.T) {
	var got models.NewReview
	things := &mockThingRepo{
		GetThingFunc: func(_ context.Context, id int64) (*models.Thing, error) {
			if id != 1 {
				return nil, common.ErrNotFound
			}
			return &models.Thing{ID: 1}, nil
		},
	}
	reviews := &mockReviewRepo{
		InsertReviewFunc: func(_ context.Context, r models.NewReview) (*models.Review, error) {
			got = r
			return &models.Review{ID: 3, ThingID: r.ThingID, Rating: r.Rating, Text: r.Text, Author: testAuthor}, nil
		},
	}
	svc := service.NewReviewService(reviews, things, sanitize.New())

	view, err := svc.Create(context.Background(), models.NewReview{ThingID: 1, UserID: 1, Rating: 4, Text: "Solid"})
	require.NoError(t, err)
	assert.Equal(t, int64(3), view.ID)
	assert.Equal(t, 4, view.Rating)
	assert.Equal(t, int64(1), got.UserID)

	_, err = svc.Create(context.Background(), models.NewReview{ThingID: 2, UserID: 1, Rating: 4, Text: "Solid"})
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestReviewService_CreateStoreError(t *testing.T) {
	wantErr := errors.New("insert failed")
	things := &mockThingRepo{
		GetThingFunc: func(context.Context, int64) (*models.Thing, error) { return &models.Thing{ID: 1}, nil },
	}
	reviews := &mockReviewRepo{
		InsertReviewFunc: func(context.Context, models.NewReview) (*models.Review, error) { return nil, wantErr },
	}
	svc := service.NewReviewService(reviews, things, sanitize.New())

	_, err := svc.Create(context.Background(), models.NewReview{ThingID: 1, UserID: 1, Rating: 1, Text: "meh"})
	assert.Equal(t, wantErr, err)
}

func TestReviewService_CreateInvalid(t *testing.T) {
	things := &mockThingRepo{
		GetThingFunc: func(context.Context, int64) (*models.Thing, error) {
			t.Fatal("thing lookup must not run for invalid reviews")
			return nil, nil
		},
	}
	svc := service.NewReviewService(&mockReviewRepo{}, things, sanitize.New())

	tests := []struct {
		name   string
		review models.NewReview
	}{
		{"rating too low", models.NewReview{ThingID: 1, Rating: 0, Text: "ok"}},
		{"rating too high", models.NewReview{ThingID: 1, Rating: 6, Text: "ok"}},
		{"blank text", models.NewReview{ThingID: 1, Rating: 3, Text: "   "}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), tt.review)
			assert.ErrorIs(t, err, service.ErrInvalidReview)
		})
	}
}
