// ABOUTME: SQLite storage for agent memories
// ABOUTME: Substring search stands in for similarity search

package store

import (
	"context"
	"fmt"
	"strings"
)

// SaveMemory stores a memory
func (s *SQLiteStore) SaveMemory(ctx context.Context, memory *Memory) error {
	query := `
		INSERT INTO memories (id, agent_id, content, created_at)
		VALUES (?, ?, ?, ?)
	`

	_, err := s.db.ExecContext(ctx, query,
		memory.ID,
		memory.AgentID,
		memory.Content,
		formatTime(memory.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("inserting memory: %w", err)
	}

	s.logger.Debug("saved memory", "id", memory.ID, "agent_id", memory.AgentID)
	return nil
}

// SearchMemories returns an agent's memories containing query
// (case-insensitive), newest first.
// If limit is 0 or negative, a default limit of 5 is used.
func (s *SQLiteStore) SearchMemories(ctx context.Context, agentID, query string, limit int) ([]*Memory, error) {
	pattern := "%" + escapeLike(strings.ToLower(query)) + "%"
	return s.queryMemories(ctx, `
		SELECT id, agent_id, content, created_at
		FROM memories
		WHERE agent_id = ? AND lower(content) LIKE ? ESCAPE '\'
		ORDER BY created_at DESC, rowid DESC
		LIMIT ?
	`, agentID, pattern, clampLimit(limit, 5))
}

// GetRecentMemories returns an agent's newest memories, newest first.
// If limit is 0 or negative, a default limit of 5 is used.
func (s *SQLiteStore) GetRecentMemories(ctx context.Context, agentID string, limit int) ([]*Memory, error) {
	return s.queryMemories(ctx, `
		SELECT id, agent_id, content, created_at
		FROM memories
		WHERE agent_id = ?
		ORDER BY created_at DESC, rowid DESC
		LIMIT ?
	`, agentID, clampLimit(limit, 5))
}

func (s *SQLiteStore) queryMemories(ctx context.Context, query string, args ...any) ([]*Memory, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying memories: %w", err)
	}
	defer rows.Close()

	var memories []*Memory
	for rows.Next() {
		var memory Memory
		var createdAtStr string

		if err := rows.Scan(&memory.ID, &memory.AgentID, &memory.Content, &createdAtStr); err != nil {
			return nil, fmt.Errorf("scanning memory row: %w", err)
		}

		memory.CreatedAt, err = parseTime(createdAtStr)
		if err != nil {
			return nil, fmt.Errorf("parsing memory created_at: %w", err)
		}

		memories = append(memories, &memory)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating memory rows: %w", err)
	}

	return memories, nil
}

// escapeLike escapes LIKE wildcards so query matches literally
func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
