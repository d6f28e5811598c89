package http

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/thingful/thingful/internal/common"
	"github.com/thingful/thingful/internal/models"
)

const msgThingNotFound = "Thing doesn't exist"

// ThingService defines the thing operations required by the ThingHandler.
type ThingService interface {
	List(ctx context.Context) ([]models.ThingView, error)
	Get(ctx context.Context, id int64) (models.ThingView, error)
	Reviews(ctx context.Context, thingID int64) ([]models.ReviewView, error)
}

// ThingHandler handles HTTP requests for things and their reviews.
type ThingHandler struct {
	ThingService ThingService
	Logger       *zap.Logger
}

// List handles GET /api/things.
func (h *ThingHandler) List(w http.ResponseWriter, r *http.Request) {
	things, err := h.ThingService.List(r.Context())
	if err != nil {
		internalError(w, r, h.Logger, "failed to list things", err)
		return
	}
	writeJSON(w, http.StatusOK, things)
}

// Get handles GET /api/things/{thing_id}.
func (h *ThingHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := thingID(r)
	if !ok {
		writeError(w, http.StatusNotFound, msgThingNotFound)
		return
	}

	thing, err := h.ThingService.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			writeError(w, http.StatusNotFound, msgThingNotFound)
			return
		}
		internalError(w, r, h.Logger, "failed to get thing", err)
		return
	}
	writeJSON(w, http.StatusOK, thing)
}

// Reviews handles GET /api/things/{thing_id}/reviews.
func (h *ThingHandler) Reviews(w http.ResponseWriter, r *http.Request) {
	id, ok := thingID(r)
	if !ok {
		writeError(w, http.StatusNotFound, msgThingNotFound)
		return
	}

	reviews, err := h.ThingService.Reviews(r.Context(), id)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			writeError(w, http.StatusNotFound, msgThingNotFound)
			return
		}
		internalError(w, r, h.Logger, "failed to list reviews", err)
		return
	}
	writeJSON(w, http.StatusOK, reviews)
}

func thingID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "thing_id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
