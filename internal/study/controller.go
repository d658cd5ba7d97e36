package study

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/townerr/flashmind/internal/logger"
	"github.com/townerr/flashmind/internal/model"
)

// State is the controller's lifecycle state.
type State string

const (
	// StateNone means no session is active.
	StateNone State = "none"
	// StateGenerating means card generation for a new session is running.
	StateGenerating State = "generating"
	// StateActive means a session is active and being studied.
	StateActive State = "active"
)

// Direction is a card navigation direction.
type Direction string

const (
	DirectionPrev Direction = "prev"
	DirectionNext Direction = "next"
)

// Controller orchestrates the session lifecycle: generation, answer
// marking, navigation, resume/complete, edits and sharing. Callers must
// not start a second CreateSession while one is in flight; that mutual
// exclusion belongs to the caller, not the controller.
type Controller struct {
	store     *Store
	gateway   *Gateway
	generator model.CardGenerator
	logger    *logger.Logger

	mu         sync.Mutex
	generating bool
}

// NewController creates a Controller over the given store, gateway and
// generation collaborator.
func NewController(store *Store, gateway *Gateway, generator model.CardGenerator, logger *logger.Logger) *Controller {
	return &Controller{
		store:     store,
		gateway:   gateway,
		generator: generator,
		logger:    logger,
	}
}

// State reports the current lifecycle state.
func (c *Controller) State() State {
	c.mu.Lock()
	generating := c.generating
	c.mu.Unlock()
	if generating {
		return StateGenerating
	}
	if _, ok := c.store.CurrentSession(); ok {
		return StateActive
	}
	return StateNone
}

// CreateSession generates cards for the topic, persists the draft and
// activates it at card index 0. Empty or malformed generation output
// yields ErrGenerationFailed and no session. The generating flag is
// cleared on every path.
func (c *Controller) CreateSession(ctx context.Context, topic string, count int) (model.StudySession, error) {
	c.mu.Lock()
	c.generating = true
	c.mu.Unlock()
	defer func() {
		c.mu.Lock()
		c.generating = false
		c.mu.Unlock()
	}()

	cards, err := c.generator.Generate(ctx, topic, count)
	if err != nil {
		return model.StudySession{}, fmt.Errorf("%w: %w", model.ErrGenerationFailed, err)
	}
	if len(cards) == 0 {
		return model.StudySession{}, model.ErrGenerationFailed
	}

	draft := model.StudySession{
		Topic:          topic,
		TotalCards:     len(cards),
		Cards:          cards,
		CompletedCards: 0,
		CorrectAnswers: 0,
	}

	session, err := c.gateway.CreateSession(ctx, draft)
	if err != nil {
		return model.StudySession{}, err
	}

	c.store.SetCurrentSession(&session)
	c.logger.Info("Study controller: session created",
		"session_id", session.ID,
		"topic", topic,
		"total_cards", session.TotalCards)
	return session, nil
}

// MarkCard marks the card at the active index correct or incorrect and
// advances to the next card unless already at the last one. Counter
// deltas depend on the card's prior state:
//
//	unanswered -> correct:    completed +1, correct +1
//	unanswered -> incorrect:  completed +1
//	correct    -> incorrect:  correct -1
//	incorrect  -> correct:    correct +1
//
// Re-marking with the same value changes nothing. The update is
// optimistic with a debounced save.
func (c *Controller) MarkCard(isCorrect bool) {
	session, ok := c.store.CurrentSession()
	if !ok || session.ID == uuid.Nil {
		return
	}

	index := c.store.CardIndex()
	if index < 0 || index >= len(session.Cards) {
		return
	}

	card := session.Cards[index]
	wasAnswered := card.Answered()
	wasCorrect := card.AnsweredCorrect != nil && *card.AnsweredCorrect

	completed := session.CompletedCards
	correct := session.CorrectAnswers
	if !wasAnswered {
		completed++
		if isCorrect {
			correct++
		}
	} else if wasCorrect != isCorrect {
		if isCorrect {
			correct++
		} else {
			correct--
		}
	}

	cards := session.CloneCards()
	marked := isCorrect
	cards[index].AnsweredCorrect = &marked

	c.gateway.UpdateSession(session.ID, model.SessionUpdate{
		Cards:          &cards,
		CompletedCards: &completed,
		CorrectAnswers: &correct,
	})

	if index < len(session.Cards)-1 {
		c.store.SetCardIndex(index + 1)
	}
}

// Navigate moves the active card index one step, clamped into
// [0, totalCards-1]. A no-op without an active session.
func (c *Controller) Navigate(direction Direction) {
	session, ok := c.store.CurrentSession()
	if !ok {
		return
	}

	index := c.store.CardIndex()
	switch direction {
	case DirectionPrev:
		index--
	case DirectionNext:
		index++
	default:
		return
	}

	if index < 0 {
		index = 0
	}
	if last := len(session.Cards) - 1; index > last {
		index = last
	}
	c.store.SetCardIndex(index)
}

// Complete clears the active session without deleting it; the card index
// resets to 0.
func (c *Controller) Complete() {
	c.store.SetCurrentSession(nil)
}

// Resume makes a prior session active again at card index 0.
func (c *Controller) Resume(session model.StudySession) {
	c.store.SetCurrentSession(&session)
}

// Delete removes the session optimistically; the gateway restores the
// pre-delete snapshot if the remote delete fails. Deleting the active
// session clears active state.
func (c *Controller) Delete(ctx context.Context, id uuid.UUID) error {
	return c.gateway.DeleteSession(ctx, id)
}

// Edit applies topic, card-list or visibility changes through a direct,
// non-debounced write. A supplied field wholly replaces its prior value;
// omitted fields are untouched.
func (c *Controller) Edit(ctx context.Context, id uuid.UUID, update model.SessionUpdate) error {
	return c.gateway.UpdateSessionDirect(ctx, id, update)
}

// TogglePublic updates the session's visibility flag directly.
func (c *Controller) TogglePublic(ctx context.Context, id uuid.UUID, isPublic bool) error {
	return c.gateway.UpdateSessionDirect(ctx, id, model.SessionUpdate{IsPublic: &isPublic})
}

// Flush forces a pending debounced save; used before navigation away
// when durability matters.
func (c *Controller) Flush(ctx context.Context) error {
	return c.gateway.Flush(ctx)
}
