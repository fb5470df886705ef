// ABOUTME: Store interfaces and data types for coven-swarm persistence
// ABOUTME: Defines agent state, chat message, memory and persona records

package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a requested entity does not exist
var ErrNotFound = errors.New("not found")

// ChatMessage is one line of a chat channel
type ChatMessage struct {
	ID        string
	ChannelID string
	UserName  string
	Content   string
	CreatedAt time.Time
}

// Memory is something an agent chose to remember
type Memory struct {
	ID        string
	AgentID   string
	Content   string
	CreatedAt time.Time
}

// Persona is the identity an agent plays
type Persona struct {
	ID          string
	Name        string
	Description string
	CreatedAt   time.Time
}

// AgentStateStore persists serialized agent run state
type AgentStateStore interface {
	SaveAgentState(ctx context.Context, agentID string, state []byte) error
	GetAgentState(ctx context.Context, agentID string) ([]byte, error)
	// ListAgentIDs returns ids ordered by most recent update
	ListAgentIDs(ctx context.Context, limit int) ([]string, error)
	DeleteAgentState(ctx context.Context, agentID string) error
}

// ChatStore persists chat channel history
type ChatStore interface {
	SaveChatMessage(ctx context.Context, msg *ChatMessage) error
	// GetChatMessages returns up to limit messages after skipping offset of
	// the newest, in chronological order
	GetChatMessages(ctx context.Context, channelID string, limit, offset int) ([]*ChatMessage, error)
}

// MemoryStore persists agent memories
type MemoryStore interface {
	SaveMemory(ctx context.Context, memory *Memory) error
	// SearchMemories returns memories containing query, newest first
	SearchMemories(ctx context.Context, agentID, query string, limit int) ([]*Memory, error)
	// GetRecentMemories returns the newest memories, newest first
	GetRecentMemories(ctx context.Context, agentID string, limit int) ([]*Memory, error)
}

// PersonaStore persists personas
type PersonaStore interface {
	SavePersona(ctx context.Context, persona *Persona) error
	GetPersona(ctx context.Context, id string) (*Persona, error)
}

// Store is everything the swarm persists
type Store interface {
	AgentStateStore
	ChatStore
	MemoryStore
	PersonaStore
	Close() error
}

// clampLimit applies the default and maximum page sizes
func clampLimit(limit, def int) int {
	if limit <= 0 {
		return def
	}
	if limit > 1000 {
		return 1000
	}
	return limit
}
