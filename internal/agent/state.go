// ABOUTME: RunState is the mutable context threaded through every pass of one agent.
// ABOUTME: Serialized as a single JSON document at the persistence boundary.

package agent

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/2389/coven-swarm/internal/ledger"
	"github.com/2389/coven-swarm/internal/tools"
)

// RunState is everything an agent carries from one pass to the next.
// Ledger and the catalog fields are written only by the Engine; app keys
// may be set by apps from background calls and are guarded by mu.
type RunState struct {
	mu sync.RWMutex

	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	Passes      int       `json:"passes"`

	BaseInstructions string `json:"base_instructions"`
	Instruction      string `json:"next_instruction"`

	PreInference  []tools.ToolCall `json:"pre_inference"`
	PostInference []tools.ToolCall `json:"post_inference"`

	Ledger ledger.Ledger `json:"ledger"`

	VisibleCatalog []tools.CatalogEntry `json:"visible_catalog"`
	CatalogSummary string               `json:"catalog_summary"`

	AppKeys map[string]string `json:"app_keys"`
}

// NewRunState creates a state with a fresh id.
func NewRunState(name, baseInstructions, initialInstruction string) *RunState {
	now := time.Now().UTC()
	return &RunState{
		ID:               uuid.New().String(),
		Name:             name,
		Description:      fmt.Sprintf("%s: %s", name, firstLine(baseInstructions)),
		CreatedAt:        now,
		UpdatedAt:        now,
		BaseInstructions: baseInstructions,
		Instruction:      initialInstruction,
		AppKeys:          make(map[string]string),
	}
}

// AgentID implements tools.AgentState.
func (s *RunState) AgentID() string {
	return s.ID
}

// NextInstruction implements tools.AgentState.
func (s *RunState) NextInstruction() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.Instruction
}

func (s *RunState) setNextInstruction(instruction string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Instruction = instruction
}

// AppKey implements tools.AgentState.
func (s *RunState) AppKey(key string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.AppKeys[key]
}

// SetAppKey implements tools.AgentState.
func (s *RunState) SetAppKey(key, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.AppKeys == nil {
		s.AppKeys = make(map[string]string)
	}
	s.AppKeys[key] = value
}

// runStateJSON has the fields of RunState without its methods or mutex.
type runStateJSON struct {
	ID               string               `json:"id"`
	Name             string               `json:"name"`
	Description      string               `json:"description"`
	CreatedAt        time.Time            `json:"created_at"`
	UpdatedAt        time.Time            `json:"updated_at"`
	Passes           int                  `json:"passes"`
	BaseInstructions string               `json:"base_instructions"`
	Instruction      string               `json:"next_instruction"`
	PreInference     []tools.ToolCall     `json:"pre_inference"`
	PostInference    []tools.ToolCall     `json:"post_inference"`
	Ledger           ledger.Ledger        `json:"ledger"`
	VisibleCatalog   []tools.CatalogEntry `json:"visible_catalog"`
	CatalogSummary   string               `json:"catalog_summary"`
	AppKeys          map[string]string    `json:"app_keys"`
}

// MarshalJSON encodes the state while holding its lock.
func (s *RunState) MarshalJSON() ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return json.Marshal(runStateJSON{
		ID:               s.ID,
		Name:             s.Name,
		Description:      s.Description,
		CreatedAt:        s.CreatedAt,
		UpdatedAt:        s.UpdatedAt,
		Passes:           s.Passes,
		BaseInstructions: s.BaseInstructions,
		Instruction:      s.Instruction,
		PreInference:     s.PreInference,
		PostInference:    s.PostInference,
		Ledger:           s.Ledger,
		VisibleCatalog:   s.VisibleCatalog,
		CatalogSummary:   s.CatalogSummary,
		AppKeys:          s.AppKeys,
	})
}

// UnmarshalJSON decodes a state written by MarshalJSON.
func (s *RunState) UnmarshalJSON(data []byte) error {
	var raw runStateJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.ID = raw.ID
	s.Name = raw.Name
	s.Description = raw.Description
	s.CreatedAt = raw.CreatedAt
	s.UpdatedAt = raw.UpdatedAt
	s.Passes = raw.Passes
	s.BaseInstructions = raw.BaseInstructions
	s.Instruction = raw.Instruction
	s.PreInference = raw.PreInference
	s.PostInference = raw.PostInference
	s.Ledger = raw.Ledger
	s.VisibleCatalog = raw.VisibleCatalog
	s.CatalogSummary = raw.CatalogSummary
	s.AppKeys = raw.AppKeys
	if s.AppKeys == nil {
		s.AppKeys = make(map[string]string)
	}
	return nil
}

func firstLine(s string) string {
	for i, r := range s {
		if r == '\n' {
			return s[:i]
		}
	}
	return s
}
