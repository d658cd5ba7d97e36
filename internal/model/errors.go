package model

import "errors"

var (
	// ErrNotFound is returned when an entity does not exist or is not
	// visible to the caller.
	ErrNotFound = errors.New("not found")
	// ErrNotAuthenticated is returned when no valid identity accompanies
	// a request.
	ErrNotAuthenticated = errors.New("not authenticated")
	// ErrAnonymousForbidden is returned when a guest identity attempts to
	// persist or copy a session.
	ErrAnonymousForbidden = errors.New("guests are not authorized to perform this action")
	// ErrGenerationFailed is returned when the generation collaborator
	// produces empty or malformed output.
	ErrGenerationFailed = errors.New("flashcard generation failed")
	// ErrPersistenceUnavailable is returned when the backend cannot be
	// reached.
	ErrPersistenceUnavailable = errors.New("persistence unavailable")
	// ErrEmailTaken is returned on signup with an already registered email.
	ErrEmailTaken = errors.New("email is already taken")
	// ErrInvalidCredentials is returned on a failed login.
	ErrInvalidCredentials = errors.New("invalid credentials")
)
