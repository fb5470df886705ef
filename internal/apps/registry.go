// ABOUTME: Thread-safe registry of apps (tool providers) for a single agent.
// ABOUTME: Tracks known vs loaded apps, builds the visible catalog and routes calls.

package apps

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/2389/coven-swarm/internal/tools"
)

// ErrProviderNotFound indicates no app is registered under the toolset id.
var ErrProviderNotFound = errors.New("provider not found")

// ErrBootstrapProvider indicates an attempt to unload or replace the app manager.
var ErrBootstrapProvider = errors.New("app manager cannot be unloaded or replaced")

// ErrInvalidProvider indicates a provider without a toolset id.
var ErrInvalidProvider = errors.New("provider has no toolset id")

// registration is the stored record of one app.
type registration struct {
	provider tools.Provider
	identity tools.Identity
	catalog  []tools.CatalogEntry
}

// visibleCount returns the number of entries the model may see.
func (r *registration) visibleCount() int {
	n := 0
	for _, entry := range r.catalog {
		if entry.ExposeToAgent {
			n++
		}
	}
	return n
}

// Registry owns the apps known to one agent and which of them are loaded.
// The registry is itself an app (ManagerToolsetID) that is always loaded.
type Registry struct {
	mu     sync.RWMutex
	apps   map[string]*registration
	order  []string // toolset ids in first-registration order
	loaded map[string]bool
	logger *slog.Logger
}

// NewRegistry creates a Registry with the app manager registered and loaded.
func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	r := &Registry{
		apps:   make(map[string]*registration),
		loaded: make(map[string]bool),
		logger: logger.With("component", "apps"),
	}

	manager := newManagerToolset(r)
	r.store(manager)
	r.loaded[ManagerToolsetID] = true

	return r
}

// Register stores a provider and its catalog under its toolset id.
// Registering an id again replaces the previous provider but keeps its
// position in the catalog order.
func (r *Registry) Register(provider tools.Provider) error {
	identity := provider.Identity()
	if identity.ToolsetID == "" {
		return ErrInvalidProvider
	}
	if identity.ToolsetID == ManagerToolsetID {
		return ErrBootstrapProvider
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	reg := r.store(provider)

	r.logger.Info("=== APP REGISTERED ===",
		"toolset_id", identity.ToolsetID,
		"name", identity.DisplayName,
		"tool_count", len(reg.catalog),
		"visible_tools", reg.visibleCount(),
		"total_apps", len(r.apps),
	)
	return nil
}

// store records a provider. Must be called with mu held (or before the
// registry is shared).
func (r *Registry) store(provider tools.Provider) *registration {
	identity := provider.Identity()
	reg := &registration{
		provider: provider,
		identity: identity,
		catalog:  provider.Catalog(),
	}
	if _, exists := r.apps[identity.ToolsetID]; !exists {
		r.order = append(r.order, identity.ToolsetID)
	}
	r.apps[identity.ToolsetID] = reg
	return reg
}

// Unregister removes an app, its catalog and its loaded flag.
// Unknown ids and the app manager are ignored.
func (r *Registry) Unregister(toolsetID string) {
	if toolsetID == ManagerToolsetID {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.apps[toolsetID]; !exists {
		return
	}

	delete(r.apps, toolsetID)
	delete(r.loaded, toolsetID)
	for i, id := range r.order {
		if id == toolsetID {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}

	r.logger.Info("=== APP UNREGISTERED ===",
		"toolset_id", toolsetID,
		"total_apps", len(r.apps),
	)
}

// SetLoaded makes an app's tools visible (true) or invisible (false) to the
// model. Loading an unknown app returns ErrProviderNotFound. Unloading the
// app manager returns ErrBootstrapProvider. Unloading an unknown or already
// unloaded app does nothing.
func (r *Registry) SetLoaded(toolsetID string, loaded bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !loaded {
		if toolsetID == ManagerToolsetID {
			return ErrBootstrapProvider
		}
		if !r.loaded[toolsetID] {
			return nil
		}
		delete(r.loaded, toolsetID)
		r.logger.Info("=== APP UNLOADED ===", "toolset_id", toolsetID)
		return nil
	}

	if _, exists := r.apps[toolsetID]; !exists {
		return fmt.Errorf("%w: %s", ErrProviderNotFound, toolsetID)
	}
	if !r.loaded[toolsetID] {
		r.loaded[toolsetID] = true
		r.logger.Info("=== APP LOADED ===", "toolset_id", toolsetID)
	}
	return nil
}

// IsLoaded reports whether an app's tools are visible to the model.
func (r *Registry) IsLoaded(toolsetID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.loaded[toolsetID]
}

// IsKnown reports whether an app is registered.
func (r *Registry) IsKnown(toolsetID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.apps[toolsetID]
	return ok
}

// Known returns the identities of all registered apps in registration order.
func (r *Registry) Known() []tools.Identity {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]tools.Identity, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.apps[id].identity)
	}
	return out
}

// LoadedIDs returns the toolset ids of loaded apps in registration order.
func (r *Registry) LoadedIDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []string
	for _, id := range r.order {
		if r.loaded[id] {
			out = append(out, id)
		}
	}
	return out
}

// VisibleCatalog returns the exposed entries of loaded apps, in app
// registration order and then catalog declaration order.
func (r *Registry) VisibleCatalog() []tools.CatalogEntry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []tools.CatalogEntry
	for _, id := range r.order {
		if !r.loaded[id] {
			continue
		}
		for _, entry := range r.apps[id].catalog {
			if entry.ExposeToAgent {
				out = append(out, entry)
			}
		}
	}
	return out
}

// ResolveSchema finds the catalog entry matching both name and toolset id
// among all registered apps.
func (r *Registry) ResolveSchema(name, toolsetID string) (tools.CatalogEntry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	reg, ok := r.apps[toolsetID]
	if !ok {
		return tools.CatalogEntry{}, false
	}
	for _, entry := range reg.catalog {
		if entry.Name == name && entry.ToolsetID == toolsetID {
			return entry, true
		}
	}
	return tools.CatalogEntry{}, false
}

// Dispatch routes a call to the app owning its toolset id.
// Returns ErrProviderNotFound when no such app is registered. Tool failures,
// including panics, are reported in the result rather than as an error.
func (r *Registry) Dispatch(ctx context.Context, state tools.AgentState, call tools.ToolCall) (tools.ToolCallResult, error) {
	r.mu.RLock()
	reg, ok := r.apps[call.ToolsetID]
	r.mu.RUnlock()

	if !ok {
		r.logger.Debug("toolset not found in registry",
			"toolset_id", call.ToolsetID,
			"tool_name", call.Name,
		)
		return tools.ToolCallResult{}, fmt.Errorf("%w: %s", ErrProviderNotFound, call.ToolsetID)
	}

	r.logger.Debug("→ dispatching tool",
		"toolset_id", call.ToolsetID,
		"tool_name", call.Name,
	)

	start := time.Now()
	result := invokeSafely(ctx, reg.provider, state, call)

	r.logger.Debug("← tool responded",
		"toolset_id", call.ToolsetID,
		"tool_name", call.Name,
		"duration_ms", time.Since(start).Milliseconds(),
		"is_error", result.HasError(),
	)
	return result, nil
}

// invokeSafely guards the provider boundary for apps that do not.
func invokeSafely(ctx context.Context, provider tools.Provider, state tools.AgentState, call tools.ToolCall) (result tools.ToolCallResult) {
	defer func() {
		if rec := recover(); rec != nil {
			result = tools.Failure(call, fmt.Sprintf("tool panicked: %v", rec))
		}
	}()
	return provider.Invoke(ctx, state, call)
}
