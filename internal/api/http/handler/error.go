package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/townerr/flashmind/internal/model"
)

type errorResponse struct {
	Error string `json:"error"`
}

// writeError maps domain errors to HTTP status codes. Ownership mismatches
// are reported as not-found by the service layer so existence is not leaked.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	message := "internal server error"

	switch {
	case errors.Is(err, model.ErrNotAuthenticated),
		errors.Is(err, model.ErrInvalidCredentials),
		errors.Is(err, model.ErrTokenRevoked),
		errors.Is(err, model.ErrTokenExpired),
		errors.Is(err, model.ErrTokenMismatch):
		status = http.StatusUnauthorized
		message = "unauthorized"
	case errors.Is(err, model.ErrAnonymousForbidden):
		status = http.StatusForbidden
		message = model.ErrAnonymousForbidden.Error()
	case errors.Is(err, model.ErrNotFound):
		status = http.StatusNotFound
		message = "not found"
	case errors.Is(err, model.ErrEmailTaken):
		status = http.StatusConflict
		message = model.ErrEmailTaken.Error()
	case errors.Is(err, model.ErrPersistenceUnavailable):
		status = http.StatusServiceUnavailable
		message = "service unavailable"
	}

	writeJSON(w, status, errorResponse{Error: message})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func decodeJSON(r *http.Request, dst any) error {
	return json.NewDecoder(r.Body).Decode(dst)
}
