package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/google/uuid"

	"github.com/townerr/flashmind/internal/logger"
	"github.com/townerr/flashmind/internal/model"
)

// Session implements the server side of the persistence contract:
// ownership-checked session CRUD, public listing and deck copying.
type Session struct {
	sessionStore model.SessionStore
	userStore    model.UserStore
	storage      model.Storage
	logger       *logger.Logger
}

func NewSession(
	sessionStore model.SessionStore,
	userStore model.UserStore,
	storage model.Storage,
	logger *logger.Logger,
) *Session {
	return &Session{
		sessionStore: sessionStore,
		userStore:    userStore,
		storage:      storage,
		logger:       logger,
	}
}

// CreateSession persists a draft session for the given owner. Anonymous
// identities may study locally but are forbidden from persisting.
func (s *Session) CreateSession(ctx context.Context, userID uuid.UUID, draft model.StudySession) (model.StudySession, error) {
	user, err := s.requireUser(ctx, userID)
	if err != nil {
		return model.StudySession{}, err
	}
	if user.IsAnonymous {
		return model.StudySession{}, model.ErrAnonymousForbidden
	}

	draft.ID = uuid.New()
	draft.OwnerID = userID

	session, err := s.sessionStore.Create(ctx, draft)
	if err != nil {
		return model.StudySession{}, fmt.Errorf("failed to create session: %w", err)
	}

	s.logger.Info("Session service: session created",
		"session_id", session.ID,
		"user_id", userID,
		"topic", session.Topic)
	return session, nil
}

// GetSessions lists the caller's sessions, newest first.
func (s *Session) GetSessions(ctx context.Context, userID uuid.UUID) ([]model.StudySession, error) {
	sessions, err := s.sessionStore.GetByOwnerID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get sessions by owner id: %w", err)
	}
	return sessions, nil
}

// UpdateSession applies a partial update after re-checking ownership.
// A mismatched owner is reported as not-found so existence is not leaked.
func (s *Session) UpdateSession(ctx context.Context, userID uuid.UUID, sessionID uuid.UUID, update model.SessionUpdate) error {
	if _, err := s.getOwned(ctx, userID, sessionID); err != nil {
		return err
	}

	if update.Empty() {
		return nil
	}

	if err := s.sessionStore.Update(ctx, sessionID, update); err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return model.ErrNotFound
		}
		return fmt.Errorf("failed to update session: %w", err)
	}
	return nil
}

// DeleteSession archives a snapshot of the session to object storage and
// soft-deletes it. Archive failure is logged but does not block the delete.
func (s *Session) DeleteSession(ctx context.Context, userID uuid.UUID, sessionID uuid.UUID) error {
	session, err := s.getOwned(ctx, userID, sessionID)
	if err != nil {
		return err
	}

	if err := s.archiveSnapshot(ctx, session); err != nil {
		s.logger.Error("Session service: failed to archive session snapshot",
			"session_id", sessionID,
			"error", err)
	}

	if err := s.sessionStore.SoftDelete(ctx, sessionID); err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return model.ErrNotFound
		}
		return fmt.Errorf("failed to soft delete session: %w", err)
	}

	s.logger.Info("Session service: session deleted",
		"session_id", sessionID,
		"user_id", userID)
	return nil
}

// GetPublicSessions lists publicly shared sessions with creator names.
// No authentication is required.
func (s *Session) GetPublicSessions(ctx context.Context) ([]model.PublicSession, error) {
	sessions, err := s.sessionStore.GetPublic(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get public sessions: %w", err)
	}
	return sessions, nil
}

// CopyPublicSession copies a public deck into the caller's collection.
// The copy is always private with all answers cleared and counters zeroed,
// regardless of the source session's progress.
func (s *Session) CopyPublicSession(ctx context.Context, userID uuid.UUID, sessionID uuid.UUID) (model.StudySession, error) {
	user, err := s.requireUser(ctx, userID)
	if err != nil {
		return model.StudySession{}, err
	}
	if user.IsAnonymous {
		return model.StudySession{}, model.ErrAnonymousForbidden
	}

	original, err := s.sessionStore.GetByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return model.StudySession{}, model.ErrNotFound
		}
		return model.StudySession{}, fmt.Errorf("failed to get session: %w", err)
	}
	if !original.IsPublic {
		return model.StudySession{}, model.ErrNotFound
	}

	cards := original.CloneCards()
	for i := range cards {
		cards[i].AnsweredCorrect = nil
	}

	copied, err := s.sessionStore.Create(ctx, model.StudySession{
		ID:             uuid.New(),
		OwnerID:        userID,
		Topic:          original.Topic,
		TotalCards:     original.TotalCards,
		Cards:          cards,
		CompletedCards: 0,
		CorrectAnswers: 0,
		IsPublic:       false,
	})
	if err != nil {
		return model.StudySession{}, fmt.Errorf("failed to create session copy: %w", err)
	}

	s.logger.Info("Session service: public deck copied",
		"source_session_id", sessionID,
		"session_id", copied.ID,
		"user_id", userID)
	return copied, nil
}

// ExportSession streams a JSON snapshot of an owned session.
func (s *Session) ExportSession(ctx context.Context, userID uuid.UUID, sessionID uuid.UUID) (io.ReadCloser, error) {
	session, err := s.getOwned(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}

	data, err := json.Marshal(session)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal session: %w", err)
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (s *Session) getOwned(ctx context.Context, userID uuid.UUID, sessionID uuid.UUID) (model.StudySession, error) {
	session, err := s.sessionStore.GetByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return model.StudySession{}, model.ErrNotFound
		}
		return model.StudySession{}, fmt.Errorf("failed to get session: %w", err)
	}
	if session.OwnerID != userID {
		return model.StudySession{}, model.ErrNotFound
	}
	return session, nil
}

func (s *Session) requireUser(ctx context.Context, userID uuid.UUID) (model.User, error) {
	user, err := s.userStore.GetByID(ctx, userID)
	if errors.Is(err, model.ErrNotFound) {
		return model.User{}, model.ErrNotAuthenticated
	}
	if err != nil {
		return model.User{}, fmt.Errorf("failed to get user by id: %w", err)
	}
	return user, nil
}

func (s *Session) archiveSnapshot(ctx context.Context, session model.StudySession) error {
	if s.storage == nil {
		return nil
	}

	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to marshal session snapshot: %w", err)
	}

	key := archiveKey(session.OwnerID, session.ID)
	if err := s.storage.Upload(ctx, key, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("failed to upload snapshot: %w", err)
	}
	return nil
}

func archiveKey(ownerID, sessionID uuid.UUID) string {
	return fmt.Sprintf("user-%s/session-%s.json", ownerID, sessionID)
}
