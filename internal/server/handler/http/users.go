// Package http provides the HTTP handlers and routing of the Thingful API.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/thingful/thingful/internal/common"
	"github.com/thingful/thingful/internal/models"
	"github.com/thingful/thingful/internal/service"
)

// UserService defines the user operations required by the HTTP handlers.
type UserService interface {
	// Register validates the password policy, hashes the password and
	// stores the user.
	Register(ctx context.Context, in service.RegisterInput) (*models.User, error)
	// SerializeUser returns the public view of a user.
	SerializeUser(user *models.User) models.UserView
}

// UserHandler handles HTTP requests for user registration.
type UserHandler struct {
	// UserService performs the underlying user operations.
	UserService UserService
	// Logger receives store failures.
	Logger *zap.Logger
}

// RegisterRequest represents the JSON payload for user registration.
type RegisterRequest struct {
	FullName string `json:"full_name" validate:"required"`
	UserName string `json:"user_name" validate:"required"`
	Password string `json:"password" validate:"required"`
	Nickname string `json:"nickname"`
}

// Register handles POST /api/users.
//
// Missing fields and password policy violations yield 400 with the
// specific message; a taken user_name yields 409. On success it responds
// 201 with the serialized user and a Location header.
func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, validationMessage(err))
		return
	}

	user, err := h.UserService.Register(r.Context(), service.RegisterInput{
		UserName: req.UserName,
		FullName: req.FullName,
		Nickname: req.Nickname,
		Password: req.Password,
	})
	if err != nil {
		if v, ok := service.IsPolicyViolation(err); ok {
			writeError(w, http.StatusBadRequest, v.Message)
			return
		}
		if errors.Is(err, common.ErrDuplicateUser) {
			writeError(w, http.StatusConflict, "Username already taken")
			return
		}
		internalError(w, r, h.Logger, "failed to register user", err)
		return
	}

	w.Header().Set("Location", fmt.Sprintf("/api/users/%d", user.ID))
	writeJSON(w, http.StatusCreated, h.UserService.SerializeUser(user))
}
