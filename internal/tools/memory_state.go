// ABOUTME: In-memory AgentState for tests and one-off tool invocations
// ABOUTME: Allows apps to be exercised without a running agent

package tools

import "sync"

// MemoryState is a minimal, concurrency-safe AgentState.
type MemoryState struct {
	mu          sync.RWMutex
	ID          string
	Instruction string
	keys        map[string]string
}

// NewMemoryState creates a MemoryState for the given agent id.
func NewMemoryState(agentID string) *MemoryState {
	return &MemoryState{ID: agentID, keys: make(map[string]string)}
}

func (s *MemoryState) AgentID() string { return s.ID }

func (s *MemoryState) NextInstruction() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.Instruction
}

func (s *MemoryState) AppKey(key string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.keys[key]
}

func (s *MemoryState) SetAppKey(key, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.keys[key] = value
}
