package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/TWRT/taskflow/internal/models"
)

// ConversationRepository keeps the chat history of server-side sessions.
type ConversationRepository struct {
	db *sql.DB
}

func NewConversationRepository(db *sql.DB) *ConversationRepository {
	return &ConversationRepository{db: db}
}

// History returns the turns of a session in the order they were appended.
func (r *ConversationRepository) History(ctx context.Context, ownerID, sessionID string) ([]models.Turn, error) {
	query := `
	SELECT role, content FROM chat_turns
        WHERE owner_id = ? AND session_id = ?
        ORDER BY id
	`
	rows, err := r.db.QueryContext(ctx, query, ownerID, sessionID)
	if err != nil {
		return nil, fmt.Errorf("get history: %w", err)
	}
	defer rows.Close()

	history := []models.Turn{}
	for rows.Next() {
		var turn models.Turn
		if err := rows.Scan(&turn.Role, &turn.Content); err != nil {
			return nil, fmt.Errorf("scan turn: %w", err)
		}
		history = append(history, turn)
	}
	return history, rows.Err()
}

// Append adds turns to the end of a session atomically.
func (r *ConversationRepository) Append(ctx context.Context, ownerID, sessionID string, turns ...models.Turn) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("append turns: %w", err)
	}
	defer tx.Rollback()

	query := `
	INSERT INTO chat_turns (session_id, owner_id, role, content, created_at)
        VALUES (?, ?, ?, ?, ?)
	`
	now := time.Now().UTC().UnixNano()
	for _, turn := range turns {
		if _, err := tx.ExecContext(ctx, query, sessionID, ownerID, turn.Role, turn.Content, now); err != nil {
			return fmt.Errorf("append turn: %w", err)
		}
	}

	return tx.Commit()
}
