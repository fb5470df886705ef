// ABOUTME: SQLite storage for chat channel messages
// ABOUTME: Used by the chat app for send_message and read_chat

package store

import (
	"context"
	"fmt"
)

// SaveChatMessage stores a chat message
func (s *SQLiteStore) SaveChatMessage(ctx context.Context, msg *ChatMessage) error {
	query := `
		INSERT INTO chat_messages (id, channel_id, user_name, content, created_at)
		VALUES (?, ?, ?, ?, ?)
	`

	_, err := s.db.ExecContext(ctx, query,
		msg.ID,
		msg.ChannelID,
		msg.UserName,
		msg.Content,
		formatTime(msg.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("inserting chat message: %w", err)
	}

	s.logger.Debug("saved chat message", "id", msg.ID, "channel_id", msg.ChannelID)
	return nil
}

// GetChatMessages returns up to limit messages of a channel, skipping the
// offset newest ones, in chronological order (oldest first).
// If limit is 0 or negative, a default limit of 10 is used.
func (s *SQLiteStore) GetChatMessages(ctx context.Context, channelID string, limit, offset int) ([]*ChatMessage, error) {
	limit = clampLimit(limit, 10)
	if offset < 0 {
		offset = 0
	}

	// Take the newest page, then return it oldest first
	query := `
		SELECT id, channel_id, user_name, content, created_at
		FROM (
			SELECT id, channel_id, user_name, content, created_at, rowid AS seq
			FROM chat_messages
			WHERE channel_id = ?
			ORDER BY created_at DESC, seq DESC
			LIMIT ? OFFSET ?
		)
		ORDER BY created_at ASC, seq ASC
	`

	rows, err := s.db.QueryContext(ctx, query, channelID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("querying chat messages: %w", err)
	}
	defer rows.Close()

	var messages []*ChatMessage
	for rows.Next() {
		var msg ChatMessage
		var createdAtStr string

		if err := rows.Scan(&msg.ID, &msg.ChannelID, &msg.UserName, &msg.Content, &createdAtStr); err != nil {
			return nil, fmt.Errorf("scanning chat message row: %w", err)
		}

		msg.CreatedAt, err = parseTime(createdAtStr)
		if err != nil {
			return nil, fmt.Errorf("parsing chat message created_at: %w", err)
		}

		messages = append(messages, &msg)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating chat message rows: %w", err)
	}

	return messages, nil
}
