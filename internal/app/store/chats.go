package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"swapyard/internal/app/market"
)

// GetChat fetches a chat together with the product it is about.
func (s *Store) GetChat(ctx context.Context, chatID int64) (market.Chat, error) {
	var c market.Chat
	err := s.pool.QueryRow(ctx, `
		SELECT c.id, c.product_id, p.name, p.status, p.seller_id, c.created_at
		FROM chats c
		JOIN products p ON p.id = c.product_id
		WHERE c.id = $1`, chatID,
	).Scan(&c.ID, &c.ProductID, &c.ProductName, &c.ProductStatus, &c.SellerID, &c.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return market.Chat{}, market.ErrNotFound
	}
	if err != nil {
		return market.Chat{}, fmt.Errorf("get chat: %w", err)
	}
	return c, nil
}

// ChatParticipants returns the participants of a chat.
func (s *Store) ChatParticipants(ctx context.Context, chatID int64) ([]market.UserRef, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT u.id, u.username
		FROM chat_participants cp
		JOIN users u ON u.id = cp.user_id
		WHERE cp.chat_id = $1
		ORDER BY u.id`, chatID)
	if err != nil {
		return nil, fmt.Errorf("chat participants: %w", err)
	}
	defer rows.Close()

	participants := make([]market.UserRef, 0, 2)
	for rows.Next() {
		var u market.UserRef
		if err := rows.Scan(&u.ID, &u.Username); err != nil {
			return nil, fmt.Errorf("scan participant: %w", err)
		}
		participants = append(participants, u)
	}
	return participants, rows.Err()
}

// IsChatParticipant reports whether userID belongs to the chat.
func (s *Store) IsChatParticipant(ctx context.Context, chatID, userID int64) (bool, error) {
	var ok bool
	err := s.pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM chat_participants WHERE chat_id = $1 AND user_id = $2
		)`, chatID, userID,
	).Scan(&ok)
	if err != nil {
		return false, fmt.Errorf("is chat participant: %w", err)
	}
	return ok, nil
}

// ListMessages returns the full transcript of a chat in insertion order.
func (s *Store) ListMessages(ctx context.Context, chatID int64) ([]market.Message, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT m.id, m.chat_id, m.sender_id, u.username, m.content, m.created_at
		FROM messages m
		JOIN users u ON u.id = m.sender_id
		WHERE m.chat_id = $1
		ORDER BY m.id`, chatID)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	defer rows.Close()

	messages := make([]market.Message, 0)
	for rows.Next() {
		var m market.Message
		if err := rows.Scan(&m.ID, &m.ChatID, &m.SenderID, &m.SenderUsername, &m.Content, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		messages = append(messages, m)
	}
	return messages, rows.Err()
}

// InsertMessage persists a message with a server-assigned id and timestamp
// and returns the authoritative record that is broadcast to participants.
func (s *Store) InsertMessage(ctx context.Context, chatID, senderID int64, content string) (market.Message, error) {
	var m market.Message
	err := s.pool.QueryRow(ctx, `
		WITH inserted AS (
			INSERT INTO messages (chat_id, sender_id, content)
			VALUES ($1, $2, $3)
			RETURNING id, chat_id, sender_id, content, created_at
		)
		SELECT i.id, i.chat_id, i.sender_id, u.username, i.content, i.created_at
		FROM inserted i
		JOIN users u ON u.id = i.sender_id`,
		chatID, senderID, content,
	).Scan(&m.ID, &m.ChatID, &m.SenderID, &m.SenderUsername, &m.Content, &m.CreatedAt)
	if err != nil {
		return market.Message{}, fmt.Errorf("insert message: %w", err)
	}
	return m, nil
}
