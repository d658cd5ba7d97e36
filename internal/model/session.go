package model

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// SessionStore defines persistence operations for study sessions.
type SessionStore interface {
	Create(ctx context.Context, session StudySession) (StudySession, error)
	GetByID(ctx context.Context, id uuid.UUID) (StudySession, error)
	GetByOwnerID(ctx context.Context, ownerID uuid.UUID) ([]StudySession, error)
	Update(ctx context.Context, id uuid.UUID, update SessionUpdate) error
	SoftDelete(ctx context.Context, id uuid.UUID) error
	GetPublic(ctx context.Context) ([]PublicSession, error)
}

// Flashcard is a single question/answer card. AnsweredCorrect is nil until
// the card is answered; answers can be changed later.
type Flashcard struct {
	ID              string `json:"id"`
	Question        string `json:"question"`
	Answer          string `json:"answer"`
	AnsweredCorrect *bool  `json:"answeredCorrect,omitempty"`
}

// Answered reports whether the card has been marked at all.
func (c Flashcard) Answered() bool {
	return c.AnsweredCorrect != nil
}

// StudySession is one topic's deck of flashcards plus progress counters.
//
// Invariants: CompletedCards equals the number of answered cards,
// CorrectAnswers equals the number of cards answered correctly, and
// 0 <= CorrectAnswers <= CompletedCards <= TotalCards == len(Cards).
type StudySession struct {
	ID             uuid.UUID   `json:"id"`
	OwnerID        uuid.UUID   `json:"ownerId"`
	Topic          string      `json:"topic"`
	TotalCards     int         `json:"totalCards"`
	Cards          []Flashcard `json:"cards"`
	CompletedCards int         `json:"completedCards"`
	CorrectAnswers int         `json:"correctAnswers"`
	IsPublic       bool        `json:"isPublic"`
	CreatedAt      time.Time   `json:"createdAt"`
	UpdatedAt      time.Time   `json:"updatedAt"`
	DeletedAt      *time.Time  `json:"-"`
}

// CloneCards returns a copy of the session's card slice.
func (s StudySession) CloneCards() []Flashcard {
	if s.Cards == nil {
		return nil
	}
	cards := make([]Flashcard, len(s.Cards))
	copy(cards, s.Cards)
	return cards
}

// PublicSession is a publicly shared session with its creator's display
// name attached.
type PublicSession struct {
	StudySession
	CreatorName string `json:"creatorName"`
}

// SessionUpdate is a partial update to a session. Nil fields are left
// untouched; a non-nil field wholly replaces the prior value.
type SessionUpdate struct {
	Topic          *string      `json:"topic,omitempty"`
	Cards          *[]Flashcard `json:"cards,omitempty"`
	CompletedCards *int         `json:"completedCards,omitempty"`
	CorrectAnswers *int         `json:"correctAnswers,omitempty"`
	IsPublic       *bool        `json:"isPublic,omitempty"`
}

// Empty reports whether the update carries no fields.
func (u SessionUpdate) Empty() bool {
	return u.Topic == nil && u.Cards == nil && u.CompletedCards == nil &&
		u.CorrectAnswers == nil && u.IsPublic == nil
}

// Apply patches the update onto a session copy and returns it.
func (u SessionUpdate) Apply(s StudySession) StudySession {
	if u.Topic != nil {
		s.Topic = *u.Topic
	}
	if u.Cards != nil {
		s.Cards = *u.Cards
	}
	if u.CompletedCards != nil {
		s.CompletedCards = *u.CompletedCards
	}
	if u.CorrectAnswers != nil {
		s.CorrectAnswers = *u.CorrectAnswers
	}
	if u.IsPublic != nil {
		s.IsPublic = *u.IsPublic
	}
	return s
}
