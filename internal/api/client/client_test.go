package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/townerr/flashmind/internal/model"
)

func TestClient_SignUp_StoresToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/auth/signup", r.URL.Path)

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "user@example.com", body["email"])

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"user":{"id":"` + uuid.NewString() + `","email":"user@example.com"},"accessToken":"token-123","refreshToken":"refresh-456"}`))
	}))
	defer srv.Close()

	c := New(srv.URL)

	result, err := c.SignUp(context.Background(), "user@example.com", "user", "password")
	require.NoError(t, err)
	assert.Equal(t, "token-123", result.AccessToken)
	assert.Equal(t, "token-123", c.token)
}

func TestClient_SendsBearerToken(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	c := New(srv.URL)
	c.SetToken("abc")

	_, err := c.ListSessions(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Bearer abc", gotAuth)
}

func TestClient_CreateSession(t *testing.T) {
	assigned := uuid.New()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/sessions", r.URL.Path)

		var draft model.StudySession
		require.NoError(t, json.NewDecoder(r.Body).Decode(&draft))
		assert.Equal(t, "Cells", draft.Topic)

		draft.ID = assigned
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		require.NoError(t, json.NewEncoder(w).Encode(draft))
	}))
	defer srv.Close()

	c := New(srv.URL)

	id, err := c.CreateSession(context.Background(), model.StudySession{Topic: "Cells"})
	require.NoError(t, err)
	assert.Equal(t, assigned, id)
}

func TestClient_UpdateSession(t *testing.T) {
	sessionID := uuid.New()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPatch, r.Method)
		assert.Equal(t, "/api/sessions/"+sessionID.String(), r.URL.Path)

		var update model.SessionUpdate
		require.NoError(t, json.NewDecoder(r.Body).Decode(&update))
		require.NotNil(t, update.CompletedCards)
		assert.Equal(t, 2, *update.CompletedCards)
		assert.Nil(t, update.Topic)

		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	c := New(srv.URL)

	completed := 2
	err := c.UpdateSession(context.Background(), sessionID, model.SessionUpdate{CompletedCards: &completed})
	require.NoError(t, err)
}

func TestClient_ListPublicSessions(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/sessions/public", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"id":"` + uuid.NewString() + `","topic":"Cells","creatorName":"alice"}]`))
	}))
	defer srv.Close()

	c := New(srv.URL)

	sessions, err := c.ListPublicSessions(context.Background())
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.Equal(t, "alice", sessions[0].CreatorName)
}

func TestClient_ErrorMapping(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		wantErr error
	}{
		{name: "unauthorized", status: http.StatusUnauthorized, wantErr: model.ErrNotAuthenticated},
		{name: "forbidden", status: http.StatusForbidden, wantErr: model.ErrAnonymousForbidden},
		{name: "not found", status: http.StatusNotFound, wantErr: model.ErrNotFound},
		{name: "conflict", status: http.StatusConflict, wantErr: model.ErrEmailTaken},
		{name: "unavailable", status: http.StatusServiceUnavailable, wantErr: model.ErrPersistenceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
			}))
			defer srv.Close()

			c := New(srv.URL)

			err := c.DeleteSession(context.Background(), uuid.New())
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestClient_TransportErrorIsPersistenceUnavailable(t *testing.T) {
	c := New("http://127.0.0.1:1")

	_, err := c.ListSessions(context.Background())
	assert.ErrorIs(t, err, model.ErrPersistenceUnavailable)
}
