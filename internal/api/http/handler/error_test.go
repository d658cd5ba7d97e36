package handler

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/townerr/flashmind/internal/model"
)

func TestWriteError_StatusMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{name: "not authenticated", err: model.ErrNotAuthenticated, wantStatus: http.StatusUnauthorized},
		{name: "invalid credentials", err: model.ErrInvalidCredentials, wantStatus: http.StatusUnauthorized},
		{name: "revoked token", err: model.ErrTokenRevoked, wantStatus: http.StatusUnauthorized},
		{name: "expired token", err: model.ErrTokenExpired, wantStatus: http.StatusUnauthorized},
		{name: "anonymous forbidden", err: model.ErrAnonymousForbidden, wantStatus: http.StatusForbidden},
		{name: "not found", err: model.ErrNotFound, wantStatus: http.StatusNotFound},
		{name: "email taken", err: model.ErrEmailTaken, wantStatus: http.StatusConflict},
		{name: "persistence unavailable", err: model.ErrPersistenceUnavailable, wantStatus: http.StatusServiceUnavailable},
		{name: "wrapped domain error", err: fmt.Errorf("failed to get session: %w", model.ErrNotFound), wantStatus: http.StatusNotFound},
		{name: "unknown error", err: errors.New("boom"), wantStatus: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			writeError(rec, tt.err)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
			assert.Contains(t, rec.Body.String(), "error")
		})
	}
}

func TestWriteError_UnknownErrorHidesDetails(t *testing.T) {
	rec := httptest.NewRecorder()
	writeError(rec, errors.New("pq: connection refused to 10.0.0.5"))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "10.0.0.5")
}
