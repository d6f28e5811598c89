package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/thingful/thingful/internal/common"
	"github.com/thingful/thingful/internal/middleware"
	"github.com/thingful/thingful/internal/models"
	"github.com/thingful/thingful/internal/service"
)

// ReviewService defines the review operations required by the ReviewHandler.
type ReviewService interface {
	Create(ctx context.Context, review models.NewReview) (models.ReviewView, error)
}

// ReviewHandler handles HTTP requests for reviews.
type ReviewHandler struct {
	ReviewService ReviewService
	Logger        *zap.Logger
}

// CreateReviewRequest represents the JSON payload for a new review.
type CreateReviewRequest struct {
	ThingID int64  `json:"thing_id" validate:"required,gt=0"`
	Rating  int    `json:"rating" validate:"required,min=1,max=5"`
	Text    string `json:"text" validate:"required"`
}

// Create handles POST /api/reviews. The author is the authenticated user.
func (h *ReviewHandler) Create(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Unauthorized request")
		return
	}

	var req CreateReviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, validationMessage(err))
		return
	}

	review, err := h.ReviewService.Create(r.Context(), models.NewReview{
		ThingID: req.ThingID,
		UserID:  user.ID,
		Rating:  req.Rating,
		Text:    req.Text,
	})
	if err != nil {
		if errors.Is(err, service.ErrInvalidReview) {
			writeError(w, http.StatusBadRequest, "Invalid review")
			return
		}
		if errors.Is(err, common.ErrNotFound) {
			writeError(w, http.StatusNotFound, msgThingNotFound)
			return
		}
		internalError(w, r, h.Logger, "failed to create review", err)
		return
	}

	w.Header().Set("Location", fmt.Sprintf("/api/reviews/%d", review.ID))
	writeJSON(w, http.StatusCreated, review)
}
