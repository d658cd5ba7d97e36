package model

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// UserStore defines persistence operations for users.
type UserStore interface {
	GetByEmail(ctx context.Context, email string) (User, error)
	GetByID(ctx context.Context, id uuid.UUID) (User, error)
	Create(ctx context.Context, user User) (User, error)
}

// User represents a stored identity. Anonymous users carry no credentials
// and are forbidden from persisting or copying sessions.
type User struct {
	ID           uuid.UUID
	Username     string
	Email        string
	PasswordHash []byte
	IsAnonymous  bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
	DeletedAt    *time.Time
}

// DisplayName returns the name shown next to public decks: username, then
// email, then "Anonymous".
func (u User) DisplayName() string {
	if u.Username != "" {
		return u.Username
	}
	if u.Email != "" {
		return u.Email
	}
	return "Anonymous"
}
