package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	httpctx "github.com/townerr/flashmind/internal/api/http/context"
	"github.com/townerr/flashmind/internal/model"
	"github.com/townerr/flashmind/internal/service"
	"github.com/townerr/flashmind/internal/testutil"
	"github.com/townerr/flashmind/internal/token"
)

// fakeRefreshTokenStore is an in-memory RefreshTokenStore for handler tests.
type fakeRefreshTokenStore struct {
	tokens map[string]model.RefreshToken
}

func newFakeRefreshTokenStore() *fakeRefreshTokenStore {
	return &fakeRefreshTokenStore{tokens: map[string]model.RefreshToken{}}
}

func (f *fakeRefreshTokenStore) Create(_ context.Context, rt model.RefreshToken) error {
	f.tokens[rt.JTI] = rt
	return nil
}

func (f *fakeRefreshTokenStore) GetByJTI(_ context.Context, jti string) (model.RefreshToken, error) {
	rt, ok := f.tokens[jti]
	if !ok {
		return model.RefreshToken{}, model.ErrNotFound
	}
	return rt, nil
}

func (f *fakeRefreshTokenStore) RevokeByJTI(_ context.Context, jti string) error {
	rt, ok := f.tokens[jti]
	if !ok {
		return model.ErrNotFound
	}
	now := rt.IssuedAt
	rt.RevokedAt = &now
	f.tokens[jti] = rt
	return nil
}

func (f *fakeRefreshTokenStore) RevokeAllByUser(_ context.Context, userID uuid.UUID) error {
	for jti, rt := range f.tokens {
		if rt.UserID == userID {
			now := rt.IssuedAt
			rt.RevokedAt = &now
			f.tokens[jti] = rt
		}
	}
	return nil
}

func newAuthHandler(t *testing.T) (*Auth, *fakeUserStore) {
	t.Helper()
	userStore := newFakeUserStore()
	tokenService := service.NewTokenService(token.NewJWT("test-secret"), newFakeRefreshTokenStore(), testutil.MakeNoopLogger())
	authService := service.NewAuth(userStore, tokenService, testutil.MakeNoopLogger())
	return NewAuth(authService, tokenService, httpctx.NewManager(), testutil.MakeNoopLogger()), userStore
}

func postJSON(t *testing.T, body any) *http.Request {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	return httptest.NewRequest(http.MethodPost, "/api/auth", bytes.NewReader(data))
}

func TestAuthHandler_SignUp(t *testing.T) {
	handler, _ := newAuthHandler(t)

	req := postJSON(t, map[string]string{
		"email":    "alice@example.com",
		"username": "alice",
		"password": "password",
	})
	rec := httptest.NewRecorder()

	handler.SignUp(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)

	var resp authResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "alice@example.com", resp.User.Email)
	assert.NotEmpty(t, resp.AccessToken)
	assert.NotEmpty(t, resp.RefreshToken)
}

func TestAuthHandler_SignUp_DuplicateEmail(t *testing.T) {
	handler, _ := newAuthHandler(t)

	body := map[string]string{"email": "alice@example.com", "username": "alice", "password": "password"}

	rec := httptest.NewRecorder()
	handler.SignUp(rec, postJSON(t, body))
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = httptest.NewRecorder()
	handler.SignUp(rec, postJSON(t, body))
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestAuthHandler_LogIn(t *testing.T) {
	handler, _ := newAuthHandler(t)

	rec := httptest.NewRecorder()
	handler.SignUp(rec, postJSON(t, map[string]string{
		"email": "alice@example.com", "username": "alice", "password": "password",
	}))
	require.Equal(t, http.StatusCreated, rec.Code)

	t.Run("valid credentials", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler.LogIn(rec, postJSON(t, map[string]string{
			"email": "alice@example.com", "password": "password",
		}))

		require.Equal(t, http.StatusOK, rec.Code)
		var resp authResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
		assert.NotEmpty(t, resp.AccessToken)
	})

	t.Run("wrong password", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler.LogIn(rec, postJSON(t, map[string]string{
			"email": "alice@example.com", "password": "wrong",
		}))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestAuthHandler_SignInGuest(t *testing.T) {
	handler, userStore := newAuthHandler(t)

	rec := httptest.NewRecorder()
	handler.SignInGuest(rec, httptest.NewRequest(http.MethodPost, "/api/auth/guest", nil))

	require.Equal(t, http.StatusCreated, rec.Code)

	var resp authResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.True(t, resp.User.IsAnonymous)
	assert.NotEmpty(t, resp.AccessToken)
	assert.Len(t, userStore.users, 1)
}

func TestAuthHandler_RefreshRotation(t *testing.T) {
	handler, _ := newAuthHandler(t)

	rec := httptest.NewRecorder()
	handler.SignUp(rec, postJSON(t, map[string]string{
		"email": "alice@example.com", "username": "alice", "password": "password",
	}))
	require.Equal(t, http.StatusCreated, rec.Code)

	var signup authResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&signup))

	rec = httptest.NewRecorder()
	handler.Refresh(rec, postJSON(t, map[string]string{"refreshToken": signup.RefreshToken}))
	require.Equal(t, http.StatusOK, rec.Code)

	var refreshed map[string]string
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&refreshed))
	assert.NotEmpty(t, refreshed["accessToken"])
	assert.NotEqual(t, signup.RefreshToken, refreshed["refreshToken"])

	// the rotated-out refresh token is rejected on reuse
	rec = httptest.NewRecorder()
	handler.Refresh(rec, postJSON(t, map[string]string{"refreshToken": signup.RefreshToken}))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthHandler_LogOut(t *testing.T) {
	handler, _ := newAuthHandler(t)

	rec := httptest.NewRecorder()
	handler.SignUp(rec, postJSON(t, map[string]string{
		"email": "alice@example.com", "username": "alice", "password": "password",
	}))
	require.Equal(t, http.StatusCreated, rec.Code)

	var signup authResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&signup))

	rec = httptest.NewRecorder()
	handler.LogOut(rec, postJSON(t, map[string]string{"refreshToken": signup.RefreshToken}))
	assert.Equal(t, http.StatusNoContent, rec.Code)

	// revoked refresh token can no longer be redeemed
	rec = httptest.NewRecorder()
	handler.Refresh(rec, postJSON(t, map[string]string{"refreshToken": signup.RefreshToken}))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthHandler_Me(t *testing.T) {
	handler, userStore := newAuthHandler(t)
	ctxManager := httpctx.NewManager()

	user := model.User{ID: uuid.New(), Username: "alice", Email: "alice@example.com"}
	userStore.users[user.ID] = user

	req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
	req = req.WithContext(ctxManager.SetUserIDToContext(req.Context(), user.ID))
	rec := httptest.NewRecorder()

	handler.Me(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp userResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "alice", resp.Username)
}

func TestAuthHandler_Me_Unauthenticated(t *testing.T) {
	handler, _ := newAuthHandler(t)

	rec := httptest.NewRecorder()
	handler.Me(rec, httptest.NewRequest(http.MethodGet, "/api/me", nil))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
