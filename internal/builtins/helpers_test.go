// ABOUTME: Shared helpers for builtin app tests.
// ABOUTME: Real SQLite stores, scripted inference and a one-line invoke wrapper.

package builtins

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/2389/coven-swarm/internal/inference"
	"github.com/2389/coven-swarm/internal/store"
	"github.com/2389/coven-swarm/internal/tools"
)

func openTestStore(t *testing.T) *store.SQLiteStore {
	t.Helper()
	s, err := store.NewSQLiteStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func invoke(t *testing.T, p tools.Provider, state tools.AgentState, name string, args map[string]any) tools.ToolCallResult {
	t.Helper()
	call := tools.ToolCall{ToolsetID: p.Identity().ToolsetID, Name: name, Arguments: args}
	return p.Invoke(context.Background(), state, call)
}

func catalogEntry(t *testing.T, p tools.Provider, name string) tools.CatalogEntry {
	t.Helper()
	for _, e := range p.Catalog() {
		if e.Name == name {
			return e
		}
	}
	t.Fatalf("tool %s not in catalog of %s", name, p.Identity().ToolsetID)
	return tools.CatalogEntry{}
}

// scriptedClient returns canned replies and records what it was asked.
type scriptedClient struct {
	mu       sync.Mutex
	replies  []string
	err      error
	requests [][]inference.Message
	schemas  []json.RawMessage
}

func (c *scriptedClient) Infer(ctx context.Context, messages []inference.Message, schema json.RawMessage) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.requests = append(c.requests, messages)
	c.schemas = append(c.schemas, schema)
	if c.err != nil {
		return "", c.err
	}
	if len(c.replies) == 0 {
		return "", inference.ErrEmptyResponse
	}
	reply := c.replies[0]
	c.replies = c.replies[1:]
	return reply, nil
}

func (c *scriptedClient) calls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.requests)
}
