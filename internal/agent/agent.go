// ABOUTME: Agent couples a run state with its engine and persistence.
// ABOUTME: Step runs one pass and saves; Resume loads a saved agent.

package agent

import (
	"context"
	"fmt"
	"log/slog"
)

// Agent is one autonomous agent.
type Agent struct {
	State       *RunState
	engine      *Engine
	persistence Persistence
	logger      *slog.Logger
}

// New creates an Agent for an existing state.
func New(state *RunState, engine *Engine, persistence Persistence, logger *slog.Logger) *Agent {
	if logger == nil {
		logger = slog.Default()
	}
	return &Agent{
		State:       state,
		engine:      engine,
		persistence: persistence,
		logger:      logger.With("agent_id", state.ID, "agent_name", state.Name),
	}
}

// Resume loads a saved agent. Calls left pending by a previous process
// cannot still be running, so they are dropped.
func Resume(ctx context.Context, id string, engine *Engine, persistence Persistence, logger *slog.Logger) (*Agent, error) {
	state, err := persistence.Load(ctx, id)
	if err != nil {
		return nil, err
	}

	a := New(state, engine, persistence, logger)
	if stale := state.Ledger.Pending(); len(stale) > 0 {
		for _, call := range stale {
			state.Ledger.RemovePending(call.Key())
		}
		a.logger.Warn("dropped calls left pending by a previous run", "count", len(stale))
	}

	a.logger.Info("=== AGENT RESUMED ===", "passes", state.Passes)
	return a, nil
}

// Save persists the current state.
func (a *Agent) Save(ctx context.Context) error {
	if _, err := a.persistence.Save(ctx, a.State); err != nil {
		return err
	}
	return nil
}

// Step runs one pass and saves the state when the pass completes. A failed
// pass is not saved.
func (a *Agent) Step(ctx context.Context) (*PassReport, error) {
	report, err := a.engine.RunPass(ctx, a.State)
	if err != nil {
		return nil, fmt.Errorf("agent %s pass: %w", a.State.ID, err)
	}
	if err := a.Save(ctx); err != nil {
		return report, err
	}

	a.logger.Debug("pass saved",
		"pass", report.Pass,
		"results", len(report.Results),
		"skipped", len(report.Skipped),
		"backgrounded", report.Backgrounded,
		"duration_ms", report.Duration.Milliseconds(),
	)
	return report, nil
}
