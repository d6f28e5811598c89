package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/thingful/thingful/internal/common"
	"github.com/thingful/thingful/internal/middleware"
)

// validate checks request DTOs. Field names in errors are taken from the
// json tag so messages match the wire format.
var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// validationMessage renders the first failed validation as a client-facing message.
func validationMessage(err error) string {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return "invalid request body"
	}
	fe := fieldErrs[0]
	if fe.Tag() == "required" {
		return fmt.Sprintf("Missing '%s' in request body", fe.Field())
	}
	return fmt.Sprintf("Invalid '%s' in request body", fe.Field())
}

// writeJSON writes v with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError writes {"error": msg} with the given status.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// internalError logs err and writes a generic 500 response.
func internalError(w http.ResponseWriter, r *http.Request, log *zap.Logger, msg string, err error) {
	if log != nil {
		log.Error(msg,
			zap.String("request_id", middleware.RequestIDFromContext(r.Context())),
			zap.Error(err),
		)
	}
	writeError(w, http.StatusInternalServerError, common.ErrInternal.Error())
}
