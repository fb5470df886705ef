// ABOUTME: SQLite storage for personas
// ABOUTME: Personas are shared; agents reference them by id

package store

import (
	"context"
	"database/sql"
	"fmt"
)

// SavePersona inserts or replaces a persona
func (s *SQLiteStore) SavePersona(ctx context.Context, persona *Persona) error {
	query := `
		INSERT OR REPLACE INTO personas (id, name, description, created_at)
		VALUES (?, ?, ?, ?)
	`

	_, err := s.db.ExecContext(ctx, query,
		persona.ID,
		persona.Name,
		persona.Description,
		formatTime(persona.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("saving persona: %w", err)
	}

	s.logger.Debug("saved persona", "id", persona.ID, "name", persona.Name)
	return nil
}

// GetPersona retrieves a persona by ID.
// Returns ErrNotFound if no persona exists.
func (s *SQLiteStore) GetPersona(ctx context.Context, id string) (*Persona, error) {
	query := `SELECT id, name, description, created_at FROM personas WHERE id = ?`

	var persona Persona
	var createdAtStr string
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&persona.ID,
		&persona.Name,
		&persona.Description,
		&createdAtStr,
	)

	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying persona: %w", err)
	}

	persona.CreatedAt, err = parseTime(createdAtStr)
	if err != nil {
		return nil, fmt.Errorf("parsing persona created_at: %w", err)
	}

	return &persona, nil
}
