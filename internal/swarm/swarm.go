// ABOUTME: Swarm runs several agents over a shared set of apps, one pass at a time.
// ABOUTME: Resumes saved agents by name, bootstraps personas and loads configured apps.

package swarm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/2389/coven-swarm/internal/agent"
	"github.com/2389/coven-swarm/internal/apps"
	"github.com/2389/coven-swarm/internal/builtins"
	"github.com/2389/coven-swarm/internal/config"
	"github.com/2389/coven-swarm/internal/tools"
)

// ErrUnknownApp indicates an agent names an app the swarm was not given.
var ErrUnknownApp = errors.New("unknown app")

// ErrDuplicateApp indicates two shared apps use the same toolset id.
var ErrDuplicateApp = errors.New("duplicate app")

// loadedAppsKey is the app key remembering which apps an agent had loaded.
const loadedAppsKey = "loaded_apps"

// resumeScanLimit bounds how many stored agents are considered for resume.
const resumeScanLimit = 1000

// Options configures a Swarm.
type Options struct {
	Agents    []config.AgentConfig
	Engine    agent.EngineConfig
	Passes    int
	PassDelay time.Duration
}

// Member is one agent of the swarm with its own registry.
type Member struct {
	Agent    *agent.Agent
	Registry *apps.Registry
}

// Swarm owns the agents and drives them round-robin.
type Swarm struct {
	members     []*Member
	apps        map[string]tools.Provider
	inferencer  agent.Inferencer
	persistence agent.Persistence
	opts        Options
	logger      *slog.Logger
}

// New builds every configured agent, resuming the most recently saved agent
// of the same name when one exists, and saves each one.
func New(ctx context.Context, opts Options, shared []tools.Provider, inferencer agent.Inferencer, persistence agent.Persistence, logger *slog.Logger) (*Swarm, error) {
	if logger == nil {
		logger = slog.Default()
	}

	s := &Swarm{
		apps:        make(map[string]tools.Provider, len(shared)),
		inferencer:  inferencer,
		persistence: persistence,
		opts:        opts,
		logger:      logger.With("component", "swarm"),
	}
	for _, p := range shared {
		id := p.Identity().ToolsetID
		if _, exists := s.apps[id]; exists {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateApp, id)
		}
		s.apps[id] = p
	}

	saved, err := s.savedAgents(ctx)
	if err != nil {
		return nil, err
	}

	for _, cfg := range opts.Agents {
		m, err := s.buildMember(ctx, cfg, saved)
		if err != nil {
			return nil, err
		}
		s.members = append(s.members, m)
	}

	s.logger.Info("=== SWARM READY ===",
		"agents", len(s.members),
		"apps", len(s.apps),
		"passes", opts.Passes,
	)
	return s, nil
}

// Members returns the swarm's agents in configuration order.
func (s *Swarm) Members() []*Member {
	return slices.Clone(s.members)
}

// Run steps each agent in turn until the configured number of rounds is
// done or ctx is cancelled. A failed pass is logged and the loop continues.
func (s *Swarm) Run(ctx context.Context) error {
	for round := 1; s.opts.Passes == 0 || round <= s.opts.Passes; round++ {
		for _, m := range s.members {
			if ctx.Err() != nil {
				s.logger.Info("swarm stopped", "round", round)
				return nil
			}
			s.step(ctx, m)
		}

		if s.opts.PassDelay > 0 {
			select {
			case <-ctx.Done():
				s.logger.Info("swarm stopped", "round", round)
				return nil
			case <-time.After(s.opts.PassDelay):
			}
		}
	}

	s.logger.Info("swarm finished", "rounds", s.opts.Passes)
	return nil
}

func (s *Swarm) step(ctx context.Context, m *Member) {
	state := m.Agent.State
	report, err := m.Agent.Step(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		if errors.Is(err, agent.ErrInference) {
			s.logger.Warn("pass failed, continuing", "agent", state.Name, "error", err)
			return
		}
		s.logger.Error("pass failed", "agent", state.Name, "error", err)
		return
	}

	s.logger.Debug("pass completed",
		"agent", state.Name,
		"pass", report.Pass,
		"results", len(report.Results),
	)

	if s.recordLoaded(m) {
		if err := m.Agent.Save(ctx); err != nil {
			s.logger.Error("failed to save loaded apps", "agent", state.Name, "error", err)
		}
	}
}

// savedAgents maps agent names to the id of their most recently saved state.
func (s *Swarm) savedAgents(ctx context.Context) (map[string]string, error) {
	ids, err := s.persistence.ListIDs(ctx, resumeScanLimit)
	if err != nil {
		return nil, err
	}

	byName := make(map[string]string, len(ids))
	for _, id := range ids {
		state, err := s.persistence.Load(ctx, id)
		if err != nil {
			s.logger.Warn("skipping unreadable saved agent", "agent_id", id, "error", err)
			continue
		}
		if _, seen := byName[state.Name]; !seen {
			byName[state.Name] = id
		}
	}
	return byName, nil
}

func (s *Swarm) buildMember(ctx context.Context, cfg config.AgentConfig, saved map[string]string) (*Member, error) {
	registry := apps.NewRegistry(s.logger)
	for _, id := range cfg.Apps {
		p, ok := s.apps[id]
		if !ok {
			return nil, fmt.Errorf("agent %s: %w: %s", cfg.Name, ErrUnknownApp, id)
		}
		if err := registry.Register(p); err != nil {
			return nil, fmt.Errorf("agent %s: registering %s: %w", cfg.Name, id, err)
		}
	}

	engine := agent.NewEngine(registry, s.inferencer, s.opts.Engine, s.logger)
	m := &Member{Registry: registry}

	if id, ok := saved[cfg.Name]; ok {
		a, err := agent.Resume(ctx, id, engine, s.persistence, s.logger)
		if err != nil {
			return nil, fmt.Errorf("resuming agent %s: %w", cfg.Name, err)
		}
		m.Agent = a
	} else {
		state := agent.NewRunState(cfg.Name, cfg.BaseInstructions, cfg.InitialInstruction)
		m.Agent = agent.New(state, engine, s.persistence, s.logger)
		s.bootstrapPersona(ctx, m, cfg.Persona)
		s.logger.Info("=== AGENT CREATED ===", "agent_id", state.ID, "name", state.Name)
	}

	state := m.Agent.State
	state.PreInference = toolCalls(cfg.PreInference)
	state.PostInference = toolCalls(cfg.PostInference)

	for _, id := range cfg.Load {
		if err := registry.SetLoaded(id, true); err != nil {
			return nil, fmt.Errorf("agent %s: loading %s: %w", cfg.Name, id, err)
		}
	}
	for _, id := range splitIDs(state.AppKey(loadedAppsKey)) {
		if !registry.IsKnown(id) {
			s.logger.Warn("previously loaded app is no longer configured", "agent", cfg.Name, "toolset_id", id)
			continue
		}
		_ = registry.SetLoaded(id, true)
	}
	s.recordLoaded(m)

	if err := m.Agent.Save(ctx); err != nil {
		return nil, fmt.Errorf("saving agent %s: %w", cfg.Name, err)
	}
	return m, nil
}

// bootstrapPersona gives a new agent a persona when it has the persona
// app: the configured stored one, or a new one. An empty persona config
// asks the model to invent one.
func (s *Swarm) bootstrapPersona(ctx context.Context, m *Member, persona config.PersonaConfig) {
	if !m.Registry.IsKnown(builtins.PersonaToolsetID) {
		return
	}

	call := tools.ToolCall{ToolsetID: builtins.PersonaToolsetID, Name: "create_persona", Arguments: map[string]any{}}
	switch {
	case persona.ID != "":
		call.Name = "set_persona"
		call.Arguments["persona_id"] = persona.ID
	default:
		if persona.Name != "" {
			call.Arguments["name"] = persona.Name
		}
		if persona.Description != "" {
			call.Arguments["description"] = persona.Description
		}
	}

	result, err := m.Registry.Dispatch(ctx, m.Agent.State, call)
	if err != nil {
		s.logger.Warn("persona bootstrap failed", "agent", m.Agent.State.Name, "error", err)
		return
	}
	if result.HasError() {
		s.logger.Warn("persona bootstrap failed", "agent", m.Agent.State.Name, "error", *result.Error)
	}
}

// recordLoaded stores the agent's loaded apps in its state and reports
// whether they changed.
func (s *Swarm) recordLoaded(m *Member) bool {
	var ids []string
	for _, id := range m.Registry.LoadedIDs() {
		if id != apps.ManagerToolsetID {
			ids = append(ids, id)
		}
	}
	value := strings.Join(ids, ",")
	if m.Agent.State.AppKey(loadedAppsKey) == value {
		return false
	}
	m.Agent.State.SetAppKey(loadedAppsKey, value)
	return true
}

func toolCalls(calls []config.CallConfig) []tools.ToolCall {
	if len(calls) == 0 {
		return nil
	}
	out := make([]tools.ToolCall, len(calls))
	for i, c := range calls {
		out[i] = tools.ToolCall{ToolsetID: c.ToolsetID, Name: c.Name, Arguments: c.Arguments}
	}
	return out
}

func splitIDs(value string) []string {
	if value == "" {
		return nil
	}
	return strings.Split(value, ",")
}
