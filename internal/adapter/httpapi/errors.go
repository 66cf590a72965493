package httpapi

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"assesseez/internal/bootstrap/logging"
	domain "assesseez/internal/domain/workflow"
	"assesseez/internal/errs"
)

type errorResponse struct {
	Error    string            `json:"error"`
	Kind     string            `json:"kind,omitempty"`
	Field    string            `json:"field,omitempty"`
	Fields   map[string]string `json:"fields,omitempty"`
	Existing string            `json:"existing_role,omitempty"`
}

// statusFor maps workflow error kinds onto HTTP status codes.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrRequestPersonRequired):
		return http.StatusUnauthorized, "unauthenticated"
	case errors.Is(err, domain.ErrRequestBusinessRequired), errors.Is(err, domain.ErrRequestQualificationRequired):
		return http.StatusBadRequest, "bad_request"
	case errors.Is(err, domain.ErrRoleConflict):
		return http.StatusConflict, "role_conflict"
	case errors.Is(err, domain.ErrNotAssigned):
		return http.StatusForbidden, "not_assigned"
	case errors.Is(err, domain.ErrLocked):
		return http.StatusLocked, "locked"
	case errors.Is(err, domain.ErrValidation):
		return http.StatusUnprocessableEntity, "validation"
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, domain.ErrPrecondition):
		return http.StatusPreconditionFailed, "precondition"
	default:
		return http.StatusInternalServerError, "internal"
	}
}

func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	status, kind := statusFor(err)
	body := errorResponse{Error: err.Error(), Kind: kind}

	var invalid *domain.ValidationError
	if errors.As(err, &invalid) {
		body.Field = invalid.Field
	}
	var conflict *domain.RoleConflictError
	if errors.As(err, &conflict) {
		body.Existing = string(conflict.Existing)
	}
	if status == http.StatusInternalServerError {
		logging.Error(r.Context(), "http request failed",
			slog.String("path", r.URL.Path),
			slog.Any("err", errs.Loggable(err)),
		)
		body.Error = "internal error"
	}
	writeJSON(w, status, body)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

func writeJSON(w http.ResponseWriter, status int, value any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(value)
}
