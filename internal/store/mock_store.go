// ABOUTME: Mock Store implementation for testing
// ABOUTME: Allows tests to run without SQLite

package store

import (
	"context"
	"sort"
	"strings"
	"sync"
)

type mockAgentState struct {
	state []byte
	seq   int
}

// MockStore is an in-memory Store implementation for testing.
type MockStore struct {
	mu         sync.RWMutex
	agentState map[string]*mockAgentState // keyed by agentID
	chat       []*ChatMessage             // insertion order
	memories   []*Memory                  // insertion order
	personas   map[string]*Persona        // keyed by persona ID
	seq        int
}

// NewMockStore creates a new MockStore.
func NewMockStore() *MockStore {
	return &MockStore{
		agentState: make(map[string]*mockAgentState),
		personas:   make(map[string]*Persona),
	}
}

// SaveAgentState saves agent state as bytes.
func (m *MockStore) SaveAgentState(ctx context.Context, agentID string, state []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	// Make a copy to avoid external modification
	stateCopy := make([]byte, len(state))
	copy(stateCopy, state)
	m.seq++
	m.agentState[agentID] = &mockAgentState{state: stateCopy, seq: m.seq}

	return nil
}

// GetAgentState retrieves agent state by ID.
func (m *MockStore) GetAgentState(ctx context.Context, agentID string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	entry, ok := m.agentState[agentID]
	if !ok {
		return nil, ErrNotFound
	}

	// Return a copy
	result := make([]byte, len(entry.state))
	copy(result, entry.state)
	return result, nil
}

// ListAgentIDs returns agent ids, most recently saved first.
func (m *MockStore) ListAgentIDs(ctx context.Context, limit int) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ids := make([]string, 0, len(m.agentState))
	for id := range m.agentState {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		return m.agentState[ids[i]].seq > m.agentState[ids[j]].seq
	})

	limit = clampLimit(limit, 100)
	if len(ids) > limit {
		ids = ids[:limit]
	}
	return ids, nil
}

// DeleteAgentState removes an agent's saved state.
func (m *MockStore) DeleteAgentState(ctx context.Context, agentID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.agentState[agentID]; !ok {
		return ErrNotFound
	}
	delete(m.agentState, agentID)
	return nil
}

// SaveChatMessage stores a chat message.
func (m *MockStore) SaveChatMessage(ctx context.Context, msg *ChatMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	msgCopy := *msg
	m.chat = append(m.chat, &msgCopy)
	return nil
}

// GetChatMessages returns a page of a channel's messages, oldest first.
func (m *MockStore) GetChatMessages(ctx context.Context, channelID string, limit, offset int) ([]*ChatMessage, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	limit = clampLimit(limit, 10)
	if offset < 0 {
		offset = 0
	}

	// Walk newest to oldest, then reverse the page
	var page []*ChatMessage
	skipped := 0
	for i := len(m.chat) - 1; i >= 0 && len(page) < limit; i-- {
		msg := m.chat[i]
		if msg.ChannelID != channelID {
			continue
		}
		if skipped < offset {
			skipped++
			continue
		}
		msgCopy := *msg
		page = append(page, &msgCopy)
	}
	for i, j := 0, len(page)-1; i < j; i, j = i+1, j-1 {
		page[i], page[j] = page[j], page[i]
	}
	return page, nil
}

// SaveMemory stores a memory.
func (m *MockStore) SaveMemory(ctx context.Context, memory *Memory) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	memCopy := *memory
	m.memories = append(m.memories, &memCopy)
	return nil
}

// SearchMemories returns memories containing query, newest first.
func (m *MockStore) SearchMemories(ctx context.Context, agentID, query string, limit int) ([]*Memory, error) {
	needle := strings.ToLower(query)
	return m.filterMemories(agentID, clampLimit(limit, 5), func(mem *Memory) bool {
		return strings.Contains(strings.ToLower(mem.Content), needle)
	}), nil
}

// GetRecentMemories returns the newest memories, newest first.
func (m *MockStore) GetRecentMemories(ctx context.Context, agentID string, limit int) ([]*Memory, error) {
	return m.filterMemories(agentID, clampLimit(limit, 5), func(*Memory) bool { return true }), nil
}

func (m *MockStore) filterMemories(agentID string, limit int, keep func(*Memory) bool) []*Memory {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []*Memory
	for i := len(m.memories) - 1; i >= 0 && len(out) < limit; i-- {
		mem := m.memories[i]
		if mem.AgentID != agentID || !keep(mem) {
			continue
		}
		memCopy := *mem
		out = append(out, &memCopy)
	}
	return out
}

// SavePersona inserts or replaces a persona.
func (m *MockStore) SavePersona(ctx context.Context, persona *Persona) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	p := *persona
	m.personas[p.ID] = &p
	return nil
}

// GetPersona retrieves a persona by ID.
func (m *MockStore) GetPersona(ctx context.Context, id string) (*Persona, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	p, ok := m.personas[id]
	if !ok {
		return nil, ErrNotFound
	}
	result := *p
	return &result, nil
}

// Close is a no-op.
func (m *MockStore) Close() error {
	return nil
}
