// ABOUTME: Tests for the Toolset dispatch table and result helpers.
// ABOUTME: Covers ordering, unknown tools, handler errors and panics.

package tools

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func echoHandler(ctx context.Context, state AgentState, input json.RawMessage) (string, error) {
	var in struct {
		Text string `json:"text"`
	}
	if err := DecodeInput(input, &in); err != nil {
		return "", err
	}
	return state.AgentID() + ":" + in.Text, nil
}

func newEchoToolset() *Toolset {
	return NewToolset(Identity{ToolsetID: "echo", DisplayName: "Echo"},
		Tool{Entry: CatalogEntry{Name: "say", Description: "repeat", ExposeToAgent: true}, Handler: echoHandler},
		Tool{Entry: CatalogEntry{Name: "quiet"}, Handler: func(context.Context, AgentState, json.RawMessage) (string, error) {
			return "", nil
		}},
		Tool{Entry: CatalogEntry{Name: "fail"}, Handler: func(context.Context, AgentState, json.RawMessage) (string, error) {
			return "", errors.New("boom")
		}},
		Tool{Entry: CatalogEntry{Name: "panic"}, Handler: func(context.Context, AgentState, json.RawMessage) (string, error) {
			panic("kaboom")
		}},
	)
}

func TestToolsetCatalog(t *testing.T) {
	ts := newEchoToolset()

	catalog := ts.Catalog()
	require.Len(t, catalog, 4)
	assert.Equal(t, "say", catalog[0].Name)
	assert.Equal(t, "panic", catalog[3].Name)
	for _, entry := range catalog {
		assert.Equal(t, "echo", entry.ToolsetID, "entries inherit the toolset id")
	}

	// Mutating the returned slice must not affect the toolset
	catalog[0].Name = "changed"
	assert.Equal(t, "say", ts.Catalog()[0].Name)
}

func TestToolsetInvoke(t *testing.T) {
	ts := newEchoToolset()
	state := NewMemoryState("agent-1")
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		call := ToolCall{ToolsetID: "echo", Name: "say", Arguments: map[string]any{"text": "hi"}}
		res := ts.Invoke(ctx, state, call)
		require.True(t, res.HasResult())
		assert.Equal(t, "agent-1:hi", *res.Result)
		assert.Nil(t, res.Error)
		assert.Equal(t, call.Key(), res.Key())
	})

	t.Run("nil arguments decode as empty object", func(t *testing.T) {
		res := ts.Invoke(ctx, state, ToolCall{ToolsetID: "echo", Name: "say"})
		require.True(t, res.HasResult())
		assert.Equal(t, "agent-1:", *res.Result)
	})

	t.Run("empty output", func(t *testing.T) {
		res := ts.Invoke(ctx, state, ToolCall{ToolsetID: "echo", Name: "quiet"})
		assert.Nil(t, res.Result)
		assert.Nil(t, res.Error)
		assert.Equal(t, "", res.Text())
	})

	t.Run("handler error becomes error result", func(t *testing.T) {
		res := ts.Invoke(ctx, state, ToolCall{ToolsetID: "echo", Name: "fail"})
		require.True(t, res.HasError())
		assert.Equal(t, "boom", *res.Error)
		assert.Nil(t, res.Result)
		assert.Equal(t, "Error: boom", res.Text())
	})

	t.Run("panic is contained", func(t *testing.T) {
		res := ts.Invoke(ctx, state, ToolCall{ToolsetID: "echo", Name: "panic"})
		require.True(t, res.HasError())
		assert.Contains(t, *res.Error, "kaboom")
	})

	t.Run("unknown tool", func(t *testing.T) {
		res := ts.Invoke(ctx, state, ToolCall{ToolsetID: "echo", Name: "missing"})
		require.True(t, res.HasError())
		assert.Contains(t, *res.Error, "unknown tool missing")
	})

	t.Run("malformed input", func(t *testing.T) {
		res := ts.Invoke(ctx, state, ToolCall{ToolsetID: "echo", Name: "say", Arguments: map[string]any{"text": 42}})
		require.True(t, res.HasError())
		assert.Contains(t, *res.Error, "invalid input")
	})
}

func TestToolCallResultJSON(t *testing.T) {
	call := ToolCall{ToolsetID: "chat", Name: "send_message", Arguments: map[string]any{"message": "hi"}}

	data, err := json.Marshal(Failure(call, "nope"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"toolset_id":"chat","tool_call":{"toolset_id":"chat","name":"send_message","arguments":{"message":"hi"}},"error":"nope"}`, string(data))
}

func TestMemoryState(t *testing.T) {
	s := NewMemoryState("a")
	assert.Equal(t, "", s.AppKey("persona_id"))
	s.SetAppKey("persona_id", "p1")
	assert.Equal(t, "p1", s.AppKey("persona_id"))
	assert.Equal(t, "a", s.AgentID())
}
