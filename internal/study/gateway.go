package study

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/townerr/flashmind/internal/logger"
	"github.com/townerr/flashmind/internal/model"
)

// Gateway wraps the remote persistence collaborator with optimistic local
// mutation. Updates apply locally first and are persisted through the
// debouncer; deletes apply locally first and roll back on remote failure;
// creates mutate nothing until the server assigns an identifier.
type Gateway struct {
	store     *Store
	api       model.SessionAPI
	debouncer *Debouncer
	logger    *logger.Logger
}

// NewGateway creates a Gateway around the given store and remote API.
func NewGateway(store *Store, api model.SessionAPI, debounceDelay time.Duration, logger *logger.Logger) *Gateway {
	g := &Gateway{
		store:  store,
		api:    api,
		logger: logger,
	}
	g.debouncer = NewDebouncer(debounceDelay, api.UpdateSession, func(err error) {
		// Optimistic update failures are logged, not rolled back; the
		// local copy may drift until the next full resync.
		logger.Error("Gateway: failed to auto-save session", "error", err)
	})
	return g
}

// LoadSessions fetches the caller's sessions and replaces the store list.
func (g *Gateway) LoadSessions(ctx context.Context) error {
	sessions, err := g.api.ListSessions(ctx)
	if err != nil {
		return fmt.Errorf("failed to list sessions: %w", err)
	}
	g.store.ReplaceSessions(sessions)
	return nil
}

// CreateSession persists a draft session. On success the finalized
// session, carrying the server-assigned identifier, is prepended to the
// store. On failure no store mutation happens; there is nothing to roll
// back since none was made speculatively.
func (g *Gateway) CreateSession(ctx context.Context, draft model.StudySession) (model.StudySession, error) {
	id, err := g.api.CreateSession(ctx, draft)
	if err != nil {
		return model.StudySession{}, fmt.Errorf("failed to create session: %w", err)
	}

	draft.ID = id
	draft.CreatedAt = time.Now()
	g.store.PrependSession(draft)
	return draft, nil
}

// UpdateSession applies the partial update to the store immediately and
// schedules a debounced remote write. Remote failures are logged by the
// debouncer, not surfaced here.
func (g *Gateway) UpdateSession(id uuid.UUID, update model.SessionUpdate) {
	g.store.UpdateSession(id, update)
	g.debouncer.Call(id, update)
}

// UpdateSessionDirect applies the update to the store and writes it to
// the server immediately, bypassing the debouncer. Used for edits and
// visibility toggles where coalescing is not wanted.
func (g *Gateway) UpdateSessionDirect(ctx context.Context, id uuid.UUID, update model.SessionUpdate) error {
	g.store.UpdateSession(id, update)
	if err := g.api.UpdateSession(ctx, id, update); err != nil {
		return fmt.Errorf("failed to update session: %w", err)
	}
	return nil
}

// DeleteSession removes the session from the store immediately, clearing
// active state if it was active, then issues the remote delete. On remote
// failure the pre-delete snapshot is restored in full.
func (g *Gateway) DeleteSession(ctx context.Context, id uuid.UUID) error {
	snapshot := g.store.Snapshot()
	g.store.RemoveSession(id)

	if err := g.api.DeleteSession(ctx, id); err != nil {
		g.store.Restore(snapshot)
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// CopySession copies a public deck into the caller's collection and
// resyncs the session list from the server.
func (g *Gateway) CopySession(ctx context.Context, id uuid.UUID) (uuid.UUID, error) {
	copiedID, err := g.api.CopyPublicSession(ctx, id)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to copy session: %w", err)
	}
	if err := g.LoadSessions(ctx); err != nil {
		g.logger.Error("Gateway: failed to resync after copy", "error", err)
	}
	return copiedID, nil
}

// Flush forces any pending debounced write to the server immediately.
func (g *Gateway) Flush(ctx context.Context) error {
	return g.debouncer.Flush(ctx)
}

// Close cancels any pending debounced write without flushing it. This is
// an accepted data-loss window on teardown.
func (g *Gateway) Close() {
	g.debouncer.Cancel()
}
