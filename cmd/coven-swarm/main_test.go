// ABOUTME: Tests for the coven-swarm CLI commands
// ABOUTME: Exercises init, agent listing, state display and the log handler

package main

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2389/coven-swarm/internal/agent"
	"github.com/2389/coven-swarm/internal/config"
	"github.com/2389/coven-swarm/internal/inference"
	"github.com/2389/coven-swarm/internal/store"
)

func TestRootCommands(t *testing.T) {
	cmd := rootCmd()
	var names []string
	for _, c := range cmd.Commands() {
		names = append(names, c.Name())
	}
	assert.Subset(t, names, []string{"run", "agents", "show", "init"})
}

func TestInitCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "coven", "swarm.yaml")

	cmd := rootCmd()
	cmd.SetArgs([]string{"init", "--config", path})
	require.NoError(t, cmd.Execute())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, config.Example, string(data))

	cmd = rootCmd()
	cmd.SetArgs([]string{"init", "--config", path})
	assert.ErrorIs(t, cmd.Execute(), config.ErrConfigExists)
}

func saveAgent(t *testing.T, st store.AgentStateStore, name, instruction string, passes int) *agent.RunState {
	t.Helper()
	state := agent.NewRunState(name, "be helpful", instruction)
	state.Passes = passes
	_, err := agent.NewStorePersistence(st).Save(context.Background(), state)
	require.NoError(t, err)
	return state
}

func TestListAgents(t *testing.T) {
	ctx := context.Background()

	t.Run("empty", func(t *testing.T) {
		var out bytes.Buffer
		require.NoError(t, listAgents(ctx, store.NewMockStore(), 10, &out))
		assert.Equal(t, "No agents stored yet.\n", out.String())
	})

	t.Run("table", func(t *testing.T) {
		st := store.NewMockStore()
		alice := saveAgent(t, st, "alice", "say hi\nthen wait", 3)
		bob := saveAgent(t, st, "bob", "listen", 1)

		var out bytes.Buffer
		require.NoError(t, listAgents(ctx, st, 10, &out))

		lines := strings.Split(strings.TrimSpace(out.String()), "\n")
		require.Len(t, lines, 3)
		assert.True(t, strings.HasPrefix(lines[0], "ID"))
		assert.Contains(t, out.String(), alice.ID)
		assert.Contains(t, out.String(), bob.ID)
		assert.Contains(t, out.String(), "say hi then wait")
	})

	t.Run("limit", func(t *testing.T) {
		st := store.NewMockStore()
		saveAgent(t, st, "alice", "a", 0)
		saveAgent(t, st, "bob", "b", 0)

		var out bytes.Buffer
		require.NoError(t, listAgents(ctx, st, 1, &out))
		assert.Len(t, strings.Split(strings.TrimSpace(out.String()), "\n"), 2)
	})
}

func TestShowAgent(t *testing.T) {
	ctx := context.Background()
	st := store.NewMockStore()
	state := saveAgent(t, st, "alice", "say hi", 2)

	var out bytes.Buffer
	require.NoError(t, showAgent(ctx, st, state.ID, &out))

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(out.Bytes(), &decoded))
	assert.Equal(t, state.ID, decoded["id"])
	assert.Equal(t, "say hi", decoded["next_instruction"])
	assert.Contains(t, out.String(), "\n  \"id\"", "output is indented")

	err := showAgent(ctx, st, "missing", &out)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestOneLine(t *testing.T) {
	assert.Equal(t, "a b c", oneLine("a\nb\tc", 10))
	assert.Equal(t, "abc...", oneLine("abcdef", 3))
}

func TestNewLogger(t *testing.T) {
	t.Run("json", func(t *testing.T) {
		var out bytes.Buffer
		logger := newLogger(config.LoggingConfig{Level: "info", Format: "json"}, &out)
		logger.Debug("hidden")
		logger.With("component", "engine").Info("pass completed", "pass", 3)

		var rec map[string]any
		require.NoError(t, json.Unmarshal(out.Bytes(), &rec))
		assert.Equal(t, "pass completed", rec["msg"])
		assert.Equal(t, "engine", rec["component"])
		assert.EqualValues(t, 3, rec["pass"])
	})

	t.Run("text", func(t *testing.T) {
		var out bytes.Buffer
		logger := newLogger(config.LoggingConfig{Level: "debug"}, &out)
		logger.With("component", "apps").Debug("→ dispatching tool", "tool", "send_message")

		line := out.String()
		assert.Contains(t, line, "DBG")
		assert.Contains(t, line, "→ dispatching tool")
		assert.Contains(t, line, "[apps] ")
		assert.NotContains(t, line, "component=")
		assert.Contains(t, line, "send_message")
	})

	t.Run("level filter", func(t *testing.T) {
		var out bytes.Buffer
		logger := newLogger(config.LoggingConfig{Level: "warn"}, &out)
		assert.False(t, logger.Enabled(context.Background(), slog.LevelInfo))
		assert.True(t, logger.Enabled(context.Background(), slog.LevelError))
	})
}

func TestNewInferenceClients(t *testing.T) {
	tool, engine, err := newInferenceClients(config.InferenceConfig{
		Provider:          "openai",
		Model:             "gpt-test",
		APIKey:            "sk-test",
		MaxAttempts:       3,
		RequestsPerMinute: 30,
	}, nil)
	require.NoError(t, err)

	toolRetry, ok := tool.(*inference.Retrying)
	require.True(t, ok)
	engineRetry, ok := engine.(*inference.Retrying)
	require.True(t, ok)

	assert.Nil(t, toolRetry.Validator)
	assert.NotNil(t, engineRetry.Validator)
	assert.Same(t, toolRetry.Client, engineRetry.Client, "one rate limiter serves both clients")
	_, ok = engineRetry.Client.(*inference.RateLimited)
	assert.True(t, ok)
}
