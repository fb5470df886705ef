// ABOUTME: Persistence boundary for agent run state.
// ABOUTME: StorePersistence serializes RunState as JSON into a byte-oriented state store.

package agent

import (
	"context"
	"encoding/json"
	"fmt"
)

// Persistence saves and loads run state.
type Persistence interface {
	Save(ctx context.Context, state *RunState) (string, error)
	Load(ctx context.Context, id string) (*RunState, error)
	ListIDs(ctx context.Context, limit int) ([]string, error)
}

// StateStore is the storage StorePersistence writes through.
type StateStore interface {
	SaveAgentState(ctx context.Context, agentID string, state []byte) error
	GetAgentState(ctx context.Context, agentID string) ([]byte, error)
	ListAgentIDs(ctx context.Context, limit int) ([]string, error)
}

// StorePersistence implements Persistence over a StateStore.
type StorePersistence struct {
	store StateStore
}

// NewStorePersistence creates a StorePersistence.
func NewStorePersistence(store StateStore) *StorePersistence {
	return &StorePersistence{store: store}
}

// Save writes the whole state as one JSON document and returns its id.
func (p *StorePersistence) Save(ctx context.Context, state *RunState) (string, error) {
	data, err := json.Marshal(state)
	if err != nil {
		return "", fmt.Errorf("encoding agent state: %w", err)
	}
	if err := p.store.SaveAgentState(ctx, state.ID, data); err != nil {
		return "", fmt.Errorf("saving agent state: %w", err)
	}
	return state.ID, nil
}

// Load reads a state saved by Save.
func (p *StorePersistence) Load(ctx context.Context, id string) (*RunState, error) {
	data, err := p.store.GetAgentState(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("loading agent state %s: %w", id, err)
	}
	state := &RunState{}
	if err := json.Unmarshal(data, state); err != nil {
		return nil, fmt.Errorf("decoding agent state %s: %w", id, err)
	}
	return state, nil
}

// ListIDs returns stored agent ids, most recently updated first.
func (p *StorePersistence) ListIDs(ctx context.Context, limit int) ([]string, error) {
	ids, err := p.store.ListAgentIDs(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("listing agent ids: %w", err)
	}
	return ids, nil
}
