package model

import (
	"context"

	"github.com/google/uuid"
)

// SessionAPI is the remote persistence collaborator the study engine talks
// to. The server is the source of truth on conflict.
type SessionAPI interface {
	CreateSession(ctx context.Context, draft StudySession) (uuid.UUID, error)
	ListSessions(ctx context.Context) ([]StudySession, error)
	UpdateSession(ctx context.Context, id uuid.UUID, update SessionUpdate) error
	DeleteSession(ctx context.Context, id uuid.UUID) error
	ListPublicSessions(ctx context.Context) ([]PublicSession, error)
	CopyPublicSession(ctx context.Context, id uuid.UUID) (uuid.UUID, error)
}

// CardGenerator produces an ordered deck of question/answer cards for a
// topic. Implementations are opaque async collaborators; tests substitute
// deterministic stubs.
type CardGenerator interface {
	Generate(ctx context.Context, topic string, count int) ([]Flashcard, error)
}

// SearchProvider returns ranked result titles used as extra generation
// context. Failures degrade to no-context generation.
type SearchProvider interface {
	Search(ctx context.Context, query string) ([]string, error)
}
