// Package repositories provides data access for the engine's own PostgreSQL
// store.
package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/casepulse-ai/casepulse-engine/pkg/database"
	"github.com/casepulse-ai/casepulse-engine/pkg/models"
)

// ChatTurnRepository records every handled message for auditing and support.
type ChatTurnRepository interface {
	Save(ctx context.Context, turn *models.ChatTurn) error
	GetBySession(ctx context.Context, sessionID string, limit int) ([]*models.ChatTurn, error)
}

type chatTurnRepository struct {
	db *database.DB
}

// NewChatTurnRepository creates a ChatTurnRepository backed by the engine
// database. A nil db yields a no-op repository, used when history is
// disabled.
func NewChatTurnRepository(db *database.DB) ChatTurnRepository {
	if db == nil {
		return noopChatTurnRepository{}
	}
	return &chatTurnRepository{db: db}
}

var _ ChatTurnRepository = (*chatTurnRepository)(nil)

func (r *chatTurnRepository) Save(ctx context.Context, turn *models.ChatTurn) error {
	if turn.ID == uuid.Nil {
		turn.ID = uuid.New()
	}
	if turn.CreatedAt.IsZero() {
		turn.CreatedAt = time.Now()
	}

	var errorDetail *string
	if turn.ErrorDetail != "" {
		errorDetail = &turn.ErrorDetail
	}
	var sqlText *string
	if turn.SQLText != "" {
		sqlText = &turn.SQLText
	}

	query := `
		INSERT INTO chat_turns (
			id, session_id, correlation_id, question, lang,
			sql_text, row_count, status, error_detail, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	_, err := r.db.Exec(ctx, query,
		turn.ID, turn.SessionID, turn.CorrelationID, turn.Question, turn.Lang,
		sqlText, turn.RowCount, turn.Status, errorDetail, turn.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save chat turn: %w", err)
	}
	return nil
}

func (r *chatTurnRepository) GetBySession(ctx context.Context, sessionID string, limit int) ([]*models.ChatTurn, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `
		SELECT id, session_id, correlation_id, question, lang,
		       COALESCE(sql_text, ''), row_count, status, COALESCE(error_detail, ''), created_at
		FROM chat_turns
		WHERE session_id = $1
		ORDER BY created_at DESC
		LIMIT $2`

	rows, err := r.db.Query(ctx, query, sessionID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query chat turns: %w", err)
	}
	defer rows.Close()

	var turns []*models.ChatTurn
	for rows.Next() {
		var turn models.ChatTurn
		if err := rows.Scan(
			&turn.ID, &turn.SessionID, &turn.CorrelationID, &turn.Question, &turn.Lang,
			&turn.SQLText, &turn.RowCount, &turn.Status, &turn.ErrorDetail, &turn.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan chat turn: %w", err)
		}
		turns = append(turns, &turn)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read chat turns: %w", err)
	}
	return turns, nil
}

// noopChatTurnRepository swallows writes when no engine database is
// configured.
type noopChatTurnRepository struct{}

func (noopChatTurnRepository) Save(context.Context, *models.ChatTurn) error { return nil }

func (noopChatTurnRepository) GetBySession(context.Context, string, int) ([]*models.ChatTurn, error) {
	return nil, nil
}
