package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/thingful/thingful/internal/middleware"
)

// RouterConfig collects the handlers and middleware mounted by NewRouter.
type RouterConfig struct {
	Users   *UserHandler
	Things  *ThingHandler
	Reviews *ReviewHandler

	// RequireAuth guards the protected routes.
	RequireAuth func(http.Handler) http.Handler
	Logger      *zap.Logger
	// Metrics may be nil.
	Metrics *middleware.Metrics
	// MetricsHandler serves /metrics when set.
	MetricsHandler http.Handler
}

// NewRouter constructs the HTTP handler that serves the Thingful API.
//
// Routes:
//
//	POST /api/users                      → Users.Register
//	GET  /api/things                     → Things.List
//	GET  /api/things/{thing_id}          → Things.Get (protected)
//	GET  /api/things/{thing_id}/reviews  → Things.Reviews (protected)
//	POST /api/reviews                    → Reviews.Create (protected)
//	GET  /healthz
//	GET  /metrics
//
// Middleware chain (applied in order):
//  1. Recoverer turns panics into 500s
//  2. WithRequestLogging logs every request with its id
//  3. Metrics.Instrument counts requests per route
//  4. RequireAuth on protected routes
//  5. AllowContentType("application/json") on /api requests with a body
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(chiMiddleware.Recoverer)
	r.Use(middleware.WithRequestLogging(cfg.Logger))
	r.Use(cfg.Metrics.Instrument)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if cfg.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", cfg.MetricsHandler)
	}

	jsonOnly := chiMiddleware.AllowContentType("application/json")

	r.Route("/api", func(r chi.Router) {
		// Public endpoints
		r.Group(func(r chi.Router) {
			r.Use(jsonOnly)
			r.Post("/users", cfg.Users.Register)
			r.Get("/things", cfg.Things.List)
		})

		// Protected group: requires valid bearer credentials
		r.Group(func(r chi.Router) {
			r.Use(cfg.RequireAuth)
			r.Use(jsonOnly)
			r.Get("/things/{thing_id}", cfg.Things.Get)
			r.Get("/things/{thing_id}/reviews", cfg.Things.Reviews)
			r.Post("/reviews", cfg.Reviews.Create)
		})
	})

	return r
}
