// ABOUTME: Fakes shared by the agent tests: scripted model, recording observer, test apps.
// ABOUTME: Also provides an in-memory Persistence.

package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/2389/coven-swarm/internal/apps"
	"github.com/2389/coven-swarm/internal/inference"
	"github.com/2389/coven-swarm/internal/tools"
)

// scriptedModel returns canned replies and records every request.
type scriptedModel struct {
	mu       sync.Mutex
	replies  []string
	err      error
	requests [][]inference.Message
}

func (m *scriptedModel) Infer(ctx context.Context, messages []inference.Message, schema json.RawMessage) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests = append(m.requests, messages)
	if m.err != nil {
		return "", m.err
	}
	if len(m.replies) == 0 {
		return "", errors.New("no scripted reply")
	}
	reply := m.replies[0]
	m.replies = m.replies[1:]
	return reply, nil
}

func (m *scriptedModel) lastRequest() []inference.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.requests[len(m.requests)-1]
}

// reply builds a valid RunSchema reply.
func reply(t *testing.T, next string, calls ...tools.ToolCall) string {
	t.Helper()
	if calls == nil {
		calls = []tools.ToolCall{}
	}
	data, err := json.Marshal(RunSchema{
		Thoughts:                "thinking",
		ToolCalls:               calls,
		FollowUpThoughts:        "then",
		DetailedNextInstruction: next,
	})
	require.NoError(t, err)
	return string(data)
}

// recordingObserver keeps every event.
type recordingObserver struct {
	mu     sync.Mutex
	events []Event
}

func (r *recordingObserver) Observe(e Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *recordingObserver) types() []EventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]EventType, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.Type)
	}
	return out
}

func (r *recordingObserver) count(t EventType) int {
	n := 0
	for _, got := range r.types() {
		if got == t {
			n++
		}
	}
	return n
}

// testApp is a toolset whose tools are configured per test and count
// their invocations.
type testApp struct {
	calls atomic.Int64
}

func (a *testApp) quick(output string) tools.Handler {
	return func(ctx context.Context, state tools.AgentState, input json.RawMessage) (string, error) {
		a.calls.Add(1)
		return output, nil
	}
}

func (a *testApp) failing(msg string) tools.Handler {
	return func(ctx context.Context, state tools.AgentState, input json.RawMessage) (string, error) {
		a.calls.Add(1)
		return "", errors.New(msg)
	}
}

// blocking waits on release before answering.
func (a *testApp) blocking(release <-chan struct{}, output string) tools.Handler {
	return func(ctx context.Context, state tools.AgentState, input json.RawMessage) (string, error) {
		a.calls.Add(1)
		select {
		case <-release:
			return output, nil
		case <-time.After(5 * time.Second):
			return "", errors.New("never released")
		}
	}
}

// rendezvous answers only once n handlers are running at the same time.
func rendezvous(n int) tools.Handler {
	var mu sync.Mutex
	arrived := 0
	all := make(chan struct{})
	return func(ctx context.Context, state tools.AgentState, input json.RawMessage) (string, error) {
		mu.Lock()
		arrived++
		if arrived == n {
			close(all)
		}
		mu.Unlock()

		select {
		case <-all:
			return "together", nil
		case <-time.After(2 * time.Second):
			return "", fmt.Errorf("only %d of %d ran concurrently", arrived, n)
		}
	}
}

func newTestRegistry(t *testing.T, providers ...tools.Provider) *apps.Registry {
	t.Helper()
	registry := apps.NewRegistry(slog.Default())
	for _, p := range providers {
		require.NoError(t, registry.Register(p))
		require.NoError(t, registry.SetLoaded(p.Identity().ToolsetID, true))
	}
	return registry
}

func newTestEngine(registry Dispatcher, model Inferencer, observer Observer) *Engine {
	return NewEngine(registry, model, EngineConfig{Observer: observer}, slog.Default())
}

// memoryPersistence keeps saved states as JSON in memory.
type memoryPersistence struct {
	mu    sync.Mutex
	saved map[string][]byte
	order []string
	saves int
}

func newMemoryPersistence() *memoryPersistence {
	return &memoryPersistence{saved: make(map[string][]byte)}
}

func (m *memoryPersistence) Save(ctx context.Context, state *RunState) (string, error) {
	data, err := json.Marshal(state)
	if err != nil {
		return "", err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.saved[state.ID]; !ok {
		m.order = append(m.order, state.ID)
	}
	m.saved[state.ID] = data
	m.saves++
	return state.ID, nil
}

func (m *memoryPersistence) Load(ctx context.Context, id string) (*RunState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.saved[id]
	if !ok {
		return nil, fmt.Errorf("agent %s: not found", id)
	}
	state := &RunState{}
	if err := json.Unmarshal(data, state); err != nil {
		return nil, err
	}
	return state, nil
}

func (m *memoryPersistence) ListIDs(ctx context.Context, limit int) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if limit <= 0 || limit > len(m.order) {
		limit = len(m.order)
	}
	return append([]string(nil), m.order[:limit]...), nil
}

func (m *memoryPersistence) saveCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saves
}

func messageContents(messages []inference.Message) []string {
	out := make([]string, 0, len(messages))
	for _, m := range messages {
		out = append(out, m.Content)
	}
	return out
}
