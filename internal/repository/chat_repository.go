package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/digkill/futurepro/internal/models"
)

type ChatRepository struct {
	db *sql.DB
}

func NewChatRepository(db *sql.DB) *ChatRepository {
	return &ChatRepository{db: db}
}

func (r *ChatRepository) Create(ctx context.Context, msg *models.ChatMessage) error {
	const query = `
INSERT INTO chat_messages (account_id, persona_id, role, body, media_offer_id, created_at)
VALUES (?, ?, ?, ?, ?, ?)`
	var offerID sql.NullInt64
	if msg.MediaOfferID != nil {
		offerID = sql.NullInt64{Int64: *msg.MediaOfferID, Valid: true}
	}
	now := unixNow()
	res, err := r.db.ExecContext(ctx, query, msg.AccountID, msg.PersonaID, msg.Role, msg.Body, offerID, now)
	if err != nil {
		return fmt.Errorf("insert chat message: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("last insert id: %w", err)
	}
	msg.ID = id
	msg.CreatedAt = fromUnix(now)
	return nil
}

// ListConversation returns the latest messages between an account and a persona, oldest first.
func (r *ChatRepository) ListConversation(ctx context.Context, accountID, personaID int64, limit int) ([]models.ChatMessage, error) {
	const query = `
SELECT id, account_id, persona_id, role, body, media_offer_id, created_at FROM (
    SELECT id, account_id, persona_id, role, body, media_offer_id, created_at
    FROM chat_messages WHERE account_id = ? AND persona_id = ?
    ORDER BY id DESC LIMIT ?
) recent ORDER BY id ASC`
	rows, err := r.db.QueryContext(ctx, query, accountID, personaID, limit)
	if err != nil {
		return nil, fmt.Errorf("list chat messages: %w", err)
	}
	defer rows.Close()

	messages := make([]models.ChatMessage, 0)
	for rows.Next() {
		var m models.ChatMessage
		var role string
		var offerID sql.NullInt64
		var created int64
		if err := rows.Scan(&m.ID, &m.AccountID, &m.PersonaID, &role, &m.Body, &offerID, &created); err != nil {
			return nil, fmt.Errorf("scan chat message: %w", err)
		}
		m.Role = models.MessageRole(role)
		if offerID.Valid {
			id := offerID.Int64
			m.MediaOfferID = &id
		}
		m.CreatedAt = fromUnix(created)
		messages = append(messages, m)
	}
	return messages, rows.Err()
}
