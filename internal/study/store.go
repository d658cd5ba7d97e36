// Package study implements the client-side study engine: an authoritative
// in-memory session store, a mutation gateway with optimistic updates, a
// debounced persistence scheduler and the session lifecycle controller.
package study

import (
	"sync"

	"github.com/google/uuid"

	"github.com/townerr/flashmind/internal/model"
)

// Store is the authoritative client-side state container: the session
// list, the active session and the active card index. All mutation goes
// through its methods; callers never reach into the state directly.
type Store struct {
	mu           sync.Mutex
	sessions     []model.StudySession
	current      *model.StudySession
	cardIndex    int
	initComplete bool
}

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{}
}

// Snapshot is a point-in-time copy of the store state, captured before an
// optimistic delete so it can be restored on remote failure.
type Snapshot struct {
	sessions  []model.StudySession
	current   *model.StudySession
	cardIndex int
}

// ReplaceSessions swaps in a whole new session list, used on initial load
// and full resync.
func (s *Store) ReplaceSessions(sessions []model.StudySession) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions = append([]model.StudySession(nil), sessions...)
}

// Sessions returns a copy of the session list.
func (s *Store) Sessions() []model.StudySession {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.StudySession(nil), s.sessions...)
}

// SetCurrentSession sets the active session, or clears it when nil.
// The card index always resets to 0 when the active session changes.
func (s *Store) SetCurrentSession(session *model.StudySession) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if session == nil {
		s.current = nil
	} else {
		copied := *session
		s.current = &copied
	}
	s.cardIndex = 0
}

// CurrentSession returns a copy of the active session, or false if none.
func (s *Store) CurrentSession() (model.StudySession, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return model.StudySession{}, false
	}
	return *s.current, true
}

// SetCardIndex sets the active card index.
func (s *Store) SetCardIndex(index int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cardIndex = index
}

// CardIndex returns the active card index.
func (s *Store) CardIndex() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cardIndex
}

// SetInitComplete records whether the generation engine has finished
// initializing.
func (s *Store) SetInitComplete(complete bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.initComplete = complete
}

// InitComplete reports whether the generation engine is ready.
func (s *Store) InitComplete() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.initComplete
}

// PrependSession inserts a newly created session at the head of the list.
func (s *Store) PrependSession(session model.StudySession) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions = append([]model.StudySession{session}, s.sessions...)
}

// UpdateSession applies a partial update to the session with the given id.
// If the active session is the one referenced, the same update is applied
// to it as well so both copies stay consistent. The card index is not
// touched. Callers are responsible for supplying internally-consistent
// updates; the store does not re-derive counters.
func (s *Store) UpdateSession(id uuid.UUID, update model.SessionUpdate) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.sessions {
		if s.sessions[i].ID == id {
			s.sessions[i] = update.Apply(s.sessions[i])
			break
		}
	}
	if s.current != nil && s.current.ID == id {
		updated := update.Apply(*s.current)
		s.current = &updated
	}
}

// RemoveSession removes the session with the given id. If it was active,
// the active session is cleared and the card index reset to 0.
func (s *Store) RemoveSession(id uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	filtered := s.sessions[:0]
	for _, session := range s.sessions {
		if session.ID != id {
			filtered = append(filtered, session)
		}
	}
	s.sessions = filtered
	if s.current != nil && s.current.ID == id {
		s.current = nil
		s.cardIndex = 0
	}
}

// Snapshot captures the session list, active session and card index.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := Snapshot{
		sessions:  append([]model.StudySession(nil), s.sessions...),
		cardIndex: s.cardIndex,
	}
	if s.current != nil {
		copied := *s.current
		snap.current = &copied
	}
	return snap
}

// Restore puts the store back into a previously captured state.
func (s *Store) Restore(snap Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions = append([]model.StudySession(nil), snap.sessions...)
	s.current = snap.current
	s.cardIndex = snap.cardIndex
}

// Reset returns the store to its empty initial state, e.g. on sign-out.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions = nil
	s.current = nil
	s.cardIndex = 0
	s.initComplete = false
}
