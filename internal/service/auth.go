package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/townerr/flashmind/internal/logger"
	"github.com/townerr/flashmind/internal/model"
)

// Auth handles signups, logins and anonymous guest identities.
type Auth struct {
	userStore    model.UserStore
	tokenService *TokenService
	logger       *logger.Logger
}

func NewAuth(userStore model.UserStore, tokenService *TokenService, logger *logger.Logger) *Auth {
	return &Auth{
		userStore:    userStore,
		tokenService: tokenService,
		logger:       logger,
	}
}

// TokenPair is an issued access/refresh token pair.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// SignUp registers a password identity and issues tokens.
func (a *Auth) SignUp(ctx context.Context, email, username, password string) (model.User, TokenPair, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" || password == "" {
		return model.User{}, TokenPair{}, model.ErrInvalidCredentials
	}

	existing, err := a.userStore.GetByEmail(ctx, email)
	if err != nil && !errors.Is(err, model.ErrNotFound) {
		return model.User{}, TokenPair{}, fmt.Errorf("failed to get user by email: %w", err)
	}
	if existing.ID != uuid.Nil {
		a.logger.Info("Auth service: email already registered", "email", email)
		return model.User{}, TokenPair{}, model.ErrEmailTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return model.User{}, TokenPair{}, fmt.Errorf("failed to hash password: %w", err)
	}

	user, err := a.userStore.Create(ctx, model.User{
		ID:           uuid.New(),
		Username:     username,
		Email:        email,
		PasswordHash: hash,
	})
	if err != nil {
		return model.User{}, TokenPair{}, fmt.Errorf("failed to create user: %w", err)
	}

	pair, err := a.issue(ctx, user.ID)
	if err != nil {
		return model.User{}, TokenPair{}, err
	}

	a.logger.Info("Auth service: user signed up", "user_id", user.ID)
	return user, pair, nil
}

// LogIn verifies a password identity and issues tokens.
func (a *Auth) LogIn(ctx context.Context, email, password string) (model.User, TokenPair, error) {
	email = strings.TrimSpace(strings.ToLower(email))

	user, err := a.userStore.GetByEmail(ctx, email)
	if errors.Is(err, model.ErrNotFound) {
		return model.User{}, TokenPair{}, model.ErrInvalidCredentials
	}
	if err != nil {
		return model.User{}, TokenPair{}, fmt.Errorf("failed to get user by email: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword(user.PasswordHash, []byte(password)); err != nil {
		return model.User{}, TokenPair{}, model.ErrInvalidCredentials
	}

	pair, err := a.issue(ctx, user.ID)
	if err != nil {
		return model.User{}, TokenPair{}, err
	}

	return user, pair, nil
}

// SignInAnonymous creates a guest identity and issues tokens. Guests can
// study but are forbidden from persisting or copying sessions.
func (a *Auth) SignInAnonymous(ctx context.Context) (model.User, TokenPair, error) {
	user, err := a.userStore.Create(ctx, model.User{
		ID:          uuid.New(),
		IsAnonymous: true,
	})
	if err != nil {
		return model.User{}, TokenPair{}, fmt.Errorf("failed to create anonymous user: %w", err)
	}

	pair, err := a.issue(ctx, user.ID)
	if err != nil {
		return model.User{}, TokenPair{}, err
	}

	a.logger.Info("Auth service: anonymous user signed in", "user_id", user.ID)
	return user, pair, nil
}

// GetUser returns the identity mirror for the given user ID.
func (a *Auth) GetUser(ctx context.Context, userID uuid.UUID) (model.User, error) {
	user, err := a.userStore.GetByID(ctx, userID)
	if errors.Is(err, model.ErrNotFound) {
		return model.User{}, model.ErrNotAuthenticated
	}
	if err != nil {
		return model.User{}, fmt.Errorf("failed to get user by id: %w", err)
	}
	return user, nil
}

// LogOut revokes the presented refresh token.
func (a *Auth) LogOut(ctx context.Context, refreshToken string) error {
	return a.tokenService.RevokeByToken(ctx, refreshToken)
}

func (a *Auth) issue(ctx context.Context, userID uuid.UUID) (TokenPair, error) {
	access, refresh, err := a.tokenService.Issue(ctx, userID)
	if err != nil {
		return TokenPair{}, fmt.Errorf("failed to issue tokens: %w", err)
	}
	return TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}
