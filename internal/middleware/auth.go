// Package middleware provides HTTP middlewares for authentication, request
// logging and metrics.
package middleware

import (
	"context"
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/thingful/thingful/internal/auth"
	"github.com/thingful/thingful/internal/models"
)

type ctxKey string

const userKey ctxKey = "user"

const (
	msgMissingBearer = "Missing bearer token"
	msgUnauthorized  = "Unauthorized request"
	msgInternal      = "internal error"
)

// Authenticator resolves the user behind an Authorization header value.
type Authenticator interface {
	Authenticate(ctx context.Context, header string) (*models.User, error)
}

// RequireAuth is a middleware that admits only requests carrying valid
// bearer credentials.
//
// A header that is absent or not a bearer token yields 401 "Missing bearer
// token". Every other credential failure (malformed token, unknown user,
// wrong password) yields the same 401 "Unauthorized request" so that
// responses do not reveal whether an account exists. Store failures yield
// 500. On success the user is stored in the request context.
func RequireAuth(gate Authenticator, logger *zap.Logger, metrics *Metrics) func(http.Handler) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, err := gate.Authenticate(r.Context(), r.Header.Get("Authorization"))
			if err != nil {
				reason := auth.Reason(err)
				metrics.observeRejection(reason)

				if !auth.IsRejection(err) {
					logger.Error("authentication failed",
						zap.String("request_id", RequestIDFromContext(r.Context())),
						zap.Error(err),
					)
					writeJSONError(w, http.StatusInternalServerError, msgInternal)
					return
				}

				logger.Info("request rejected",
					zap.String("request_id", RequestIDFromContext(r.Context())),
					zap.String("path", r.URL.Path),
					zap.String("reason", reason),
				)
				msg := msgUnauthorized
				if reason == "missing_credentials" {
					msg = msgMissingBearer
				}
				writeJSONError(w, http.StatusUnauthorized, msg)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
		})
	}
}

// WithUser returns a copy of ctx carrying the authenticated user.
func WithUser(ctx context.Context, user *models.User) context.Context {
	return context.WithValue(ctx, userKey, user)
}

// UserFromContext returns the user stored by RequireAuth.
func UserFromContext(ctx context.Context) (*models.User, bool) {
	user, ok := ctx.Value(userKey).(*models.User)
	return user, ok && user != nil
}

func writeJSONError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
