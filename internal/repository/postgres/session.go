package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/townerr/flashmind/internal/model"
)

var _ model.SessionStore = (*SessionRepository)(nil)

type SessionRepository struct {
	db *Connection
}

func NewSessionRepository(db *Connection) *SessionRepository {
	return &SessionRepository{
		db: db,
	}
}

func (r *SessionRepository) Create(ctx context.Context, session model.StudySession) (model.StudySession, error) {
	cards, err := json.Marshal(session.Cards)
	if err != nil {
		return model.StudySession{}, fmt.Errorf("failed to marshal cards: %w", err)
	}

	query := `
		INSERT INTO study_sessions (id, owner_id, topic, total_cards, cards, completed_cards, correct_answers, is_public)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, owner_id, topic, total_cards, cards, completed_cards, correct_answers, is_public, created_at, updated_at, deleted_at`

	return r.scanSession(r.db.QueryRow(ctx, query,
		session.ID, session.OwnerID, session.Topic, session.TotalCards,
		cards, session.CompletedCards, session.CorrectAnswers, session.IsPublic,
	))
}

func (r *SessionRepository) GetByID(ctx context.Context, id uuid.UUID) (model.StudySession, error) {
	query := `
		SELECT id, owner_id, topic, total_cards, cards, completed_cards, correct_answers, is_public, created_at, updated_at, deleted_at
		FROM study_sessions
		WHERE id = $1 AND deleted_at IS NULL`

	session, err := r.scanSession(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.StudySession{}, model.ErrNotFound
		}
		return model.StudySession{}, err
	}

	return session, nil
}

func (r *SessionRepository) GetByOwnerID(ctx context.Context, ownerID uuid.UUID) ([]model.StudySession, error) {
	query := `
		SELECT id, owner_id, topic, total_cards, cards, completed_cards, correct_answers, is_public, created_at, updated_at, deleted_at
		FROM study_sessions
		WHERE owner_id = $1 AND deleted_at IS NULL
		ORDER BY created_at DESC`

	rows, err := r.db.Query(ctx, query, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []model.StudySession
	for rows.Next() {
		session, err := r.scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, session)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return sessions, nil
}

// Update applies a partial update. Only the fields set on the update are
// written; updated_at always advances.
func (r *SessionRepository) Update(ctx context.Context, id uuid.UUID, update model.SessionUpdate) error {
	set := []string{"updated_at = NOW()"}
	args := []any{id}

	appendArg := func(column string, value any) {
		args = append(args, value)
		set = append(set, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if update.Topic != nil {
		appendArg("topic", *update.Topic)
	}
	if update.Cards != nil {
		cards, err := json.Marshal(*update.Cards)
		if err != nil {
			return fmt.Errorf("failed to marshal cards: %w", err)
		}
		appendArg("cards", cards)
	}
	if update.CompletedCards != nil {
		appendArg("completed_cards", *update.CompletedCards)
	}
	if update.CorrectAnswers != nil {
		appendArg("correct_answers", *update.CorrectAnswers)
	}
	if update.IsPublic != nil {
		appendArg("is_public", *update.IsPublic)
	}

	query := "UPDATE study_sessions SET "
	for i, clause := range set {
		if i > 0 {
			query += ", "
		}
		query += clause
	}
	query += " WHERE id = $1 AND deleted_at IS NULL"

	cmd, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return model.ErrNotFound
	}
	return nil
}

func (r *SessionRepository) SoftDelete(ctx context.Context, id uuid.UUID) error {
	const query = `UPDATE study_sessions SET deleted_at = NOW(), updated_at = NOW() WHERE id = $1 AND deleted_at IS NULL`
	cmd, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return model.ErrNotFound
	}
	return nil
}

// GetPublic lists publicly shared sessions with the creator's display name
// attached: username, then email, then "Anonymous".
func (r *SessionRepository) GetPublic(ctx context.Context) ([]model.PublicSession, error) {
	query := `
		SELECT s.id, s.owner_id, s.topic, s.total_cards, s.cards, s.completed_cards, s.correct_answers, s.is_public,
		       s.created_at, s.updated_at, s.deleted_at,
		       COALESCE(NULLIF(u.username, ''), NULLIF(u.email, ''), 'Anonymous')
		FROM study_sessions s
		JOIN users u ON u.id = s.owner_id
		WHERE s.is_public AND s.deleted_at IS NULL
		ORDER BY s.created_at DESC`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []model.PublicSession
	for rows.Next() {
		var session model.PublicSession
		var cards []byte
		err := rows.Scan(
			&session.ID, &session.OwnerID, &session.Topic, &session.TotalCards, &cards,
			&session.CompletedCards, &session.CorrectAnswers, &session.IsPublic,
			&session.CreatedAt, &session.UpdatedAt, &session.DeletedAt,
			&session.CreatorName,
		)
		if err != nil {
			return nil, err
		}
		if err := json.Unmarshal(cards, &session.Cards); err != nil {
			return nil, fmt.Errorf("failed to unmarshal cards: %w", err)
		}
		sessions = append(sessions, session)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return sessions, nil
}

func (r *SessionRepository) scanSession(row pgx.Row) (model.StudySession, error) {
	var session model.StudySession
	var cards []byte
	err := row.Scan(
		&session.ID, &session.OwnerID, &session.Topic, &session.TotalCards, &cards,
		&session.CompletedCards, &session.CorrectAnswers, &session.IsPublic,
		&session.CreatedAt, &session.UpdatedAt, &session.DeletedAt,
	)
	if err != nil {
		return model.StudySession{}, err
	}
	if err := json.Unmarshal(cards, &session.Cards); err != nil {
		return model.StudySession{}, fmt.Errorf("failed to unmarshal cards: %w", err)
	}
	return session, nil
}
