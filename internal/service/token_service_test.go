package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/townerr/flashmind/internal/model"
	"github.com/townerr/flashmind/internal/testutil"
)

func TestTokenService_Issue(t *testing.T) {
	userID := uuid.New()
	manager := &MockTokenManager{}
	store := &MockRefreshTokenStore{}

	manager.On("GenerateAccessToken", userID).Return("access", nil)
	manager.On("GenerateRefreshToken", userID).Return("refresh", "jti-1", nil)
	store.On("Create", mock.Anything, mock.MatchedBy(func(rt model.RefreshToken) bool {
		return rt.UserID == userID && rt.JTI == "jti-1" &&
			len(rt.TokenHash) == 32 && rt.RevokedAt == nil
	})).Return(nil)

	svc := NewTokenService(manager, store, testutil.MakeNoopLogger())

	access, refresh, err := svc.Issue(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, "access", access)
	assert.Equal(t, "refresh", refresh)
	store.AssertExpectations(t)
}

func TestTokenService_Refresh_RotatesToken(t *testing.T) {
	userID := uuid.New()
	manager := &MockTokenManager{}
	store := &MockRefreshTokenStore{}

	manager.On("ParseRefreshToken", "old-refresh").Return(userID, "jti-old", nil)
	store.On("GetByJTI", mock.Anything, "jti-old").Return(model.RefreshToken{
		JTI:       "jti-old",
		UserID:    userID,
		TokenHash: hashRefresh("old-refresh"),
		ExpiresAt: time.Now().Add(time.Hour),
	}, nil)
	store.On("RevokeByJTI", mock.Anything, "jti-old").Return(nil)
	manager.On("GenerateAccessToken", userID).Return("new-access", nil)
	manager.On("GenerateRefreshToken", userID).Return("new-refresh", "jti-new", nil)
	store.On("Create", mock.Anything, mock.MatchedBy(func(rt model.RefreshToken) bool {
		return rt.JTI == "jti-new" && rt.RotatedFromJTI != nil && *rt.RotatedFromJTI == "jti-old"
	})).Return(nil)

	svc := NewTokenService(manager, store, testutil.MakeNoopLogger())

	access, refresh, err := svc.Refresh(context.Background(), "old-refresh")
	require.NoError(t, err)
	assert.Equal(t, "new-access", access)
	assert.Equal(t, "new-refresh", refresh)
	store.AssertExpectations(t)
}

func TestTokenService_Refresh_RejectsBadRecords(t *testing.T) {
	userID := uuid.New()
	revokedAt := time.Now().Add(-time.Minute)

	tests := []struct {
		name    string
		record  model.RefreshToken
		wantErr error
	}{
		{
			name: "revoked token",
			record: model.RefreshToken{
				TokenHash: hashRefresh("presented"),
				ExpiresAt: time.Now().Add(time.Hour),
				RevokedAt: &revokedAt,
			},
			wantErr: model.ErrTokenRevoked,
		},
		{
			name: "expired token",
			record: model.RefreshToken{
				TokenHash: hashRefresh("presented"),
				ExpiresAt: time.Now().Add(-time.Hour),
			},
			wantErr: model.ErrTokenExpired,
		},
		{
			name: "hash mismatch",
			record: model.RefreshToken{
				TokenHash: hashRefresh("different-token"),
				ExpiresAt: time.Now().Add(time.Hour),
			},
			wantErr: model.ErrTokenMismatch,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			manager := &MockTokenManager{}
			store := &MockRefreshTokenStore{}

			manager.On("ParseRefreshToken", "presented").Return(userID, "jti-1", nil)
			store.On("GetByJTI", mock.Anything, "jti-1").Return(tt.record, nil)

			svc := NewTokenService(manager, store, testutil.MakeNoopLogger())

			_, _, err := svc.Refresh(context.Background(), "presented")
			assert.ErrorIs(t, err, tt.wantErr)
			store.AssertNotCalled(t, "RevokeByJTI", mock.Anything, mock.Anything)
		})
	}
}

func TestTokenService_GetUserID(t *testing.T) {
	userID := uuid.New()
	manager := &MockTokenManager{}
	manager.On("ParseAccessToken", "access").Return(userID, nil)

	svc := NewTokenService(manager, &MockRefreshTokenStore{}, testutil.MakeNoopLogger())

	got, err := svc.GetUserID(context.Background(), "access")
	require.NoError(t, err)
	assert.Equal(t, userID, got)
}

func TestTokenService_RevokeAllForUser(t *testing.T) {
	userID := uuid.New()
	store := &MockRefreshTokenStore{}
	store.On("RevokeAllByUser", mock.Anything, userID).Return(nil)

	svc := NewTokenService(&MockTokenManager{}, store, testutil.MakeNoopLogger())

	require.NoError(t, svc.RevokeAllForUser(context.Background(), userID))
	store.AssertExpectations(t)
}
