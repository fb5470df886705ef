// ABOUTME: Memory app: agents store, search and extract long-term memories.
// ABOUTME: extract_memories asks the model to pull facts out of the agent's plan.

package builtins

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/2389/coven-swarm/internal/inference"
	"github.com/2389/coven-swarm/internal/store"
	"github.com/2389/coven-swarm/internal/tools"
)

// MemoryToolsetID is the toolset id of the memory app.
const MemoryToolsetID = "memory_manager"

const defaultMemoryLimit = 5

// ErrNoInference is returned by tools that need a model when none is configured.
var ErrNoInference = errors.New("no inference client configured")

var extractionSchema = json.RawMessage(`{
  "type": "object",
  "properties": {
    "thoughts": {"type": "string"},
    "memories": {"type": "array", "items": {"type": "string"}}
  },
  "required": ["thoughts", "memories"]
}`)

const extractionPrompt = `You extract durable facts worth remembering from an agent's notes.
Return only facts that will still matter later: names, preferences, decisions, commitments.
Reply with JSON matching the schema. Return an empty list when nothing is worth keeping.`

type extractionReply struct {
	Thoughts string   `json:"thoughts"`
	Memories []string `json:"memories"`
}

// Memory is the long-term memory app.
type Memory struct {
	*tools.Toolset

	store  store.MemoryStore
	client inference.Client
	now    func() time.Time
	logger *slog.Logger
}

// NewMemory creates the memory app. client may be nil, in which case
// extract_memories reports an error.
func NewMemory(s store.MemoryStore, client inference.Client, logger *slog.Logger) *Memory {
	if logger == nil {
		logger = slog.Default()
	}

	m := &Memory{
		store:  s,
		client: client,
		now:    time.Now,
		logger: logger.With("component", "memory"),
	}

	limitArg := tools.Argument{Name: "limit", Type: "integer", Description: "maximum memories to return, default 5"}

	m.Toolset = tools.NewToolset(tools.Identity{
		ToolsetID:   MemoryToolsetID,
		DisplayName: "Memory",
		Description: "Remember things and recall them later.",
	},
		tools.Tool{
			Entry: tools.CatalogEntry{
				Name:          "remember",
				Description:   "stores a memory for later.",
				Arguments:     []tools.Argument{{Name: "content", Type: "string", Description: "what to remember"}},
				ExposeToAgent: true,
			},
			Handler: m.Remember,
		},
		tools.Tool{
			Entry: tools.CatalogEntry{
				Name:        "recall",
				Description: "searches your memories for text.",
				Arguments: []tools.Argument{
					{Name: "query", Type: "string", Description: "text to look for"},
					limitArg,
				},
				ExposeToAgent: true,
			},
			Handler: m.Recall,
		},
		tools.Tool{
			Entry: tools.CatalogEntry{
				Name:        "get_recent_memories",
				Description: "returns your most recent memories.",
				Arguments:   []tools.Argument{limitArg},
			},
			Handler: m.GetRecentMemories,
		},
		tools.Tool{
			Entry: tools.CatalogEntry{
				Name:          "extract_memories",
				Description:   "extracts memories from your next instruction.",
				IsLongRunning: true,
			},
			Handler: m.ExtractMemories,
		},
	)
	return m
}

type rememberInput struct {
	Content string `json:"content"`
}

func (m *Memory) Remember(ctx context.Context, state tools.AgentState, input json.RawMessage) (string, error) {
	var in rememberInput
	if err := tools.DecodeInput(input, &in); err != nil {
		return "", err
	}
	content := strings.TrimSpace(in.Content)
	if content == "" {
		return "", errors.New("content is required")
	}

	if err := m.save(ctx, state.AgentID(), content); err != nil {
		return "", err
	}
	return fmt.Sprintf("Remembered: %s", content), nil
}

type recallInput struct {
	Query string `json:"query"`
	Limit int    `json:"limit"`
}

func (m *Memory) Recall(ctx context.Context, state tools.AgentState, input json.RawMessage) (string, error) {
	var in recallInput
	if err := tools.DecodeInput(input, &in); err != nil {
		return "", err
	}
	if in.Query == "" {
		return "", errors.New("query is required")
	}
	if in.Limit <= 0 {
		in.Limit = defaultMemoryLimit
	}

	memories, err := m.store.SearchMemories(ctx, state.AgentID(), in.Query, in.Limit)
	if err != nil {
		return "", fmt.Errorf("searching memories: %w", err)
	}
	if len(memories) == 0 {
		return fmt.Sprintf("No memories matching %q", in.Query), nil
	}
	return m.formatMemories(fmt.Sprintf("Memories matching %q", in.Query), memories), nil
}

type recentMemoriesInput struct {
	Limit int `json:"limit"`
}

func (m *Memory) GetRecentMemories(ctx context.Context, state tools.AgentState, input json.RawMessage) (string, error) {
	var in recentMemoriesInput
	if err := tools.DecodeInput(input, &in); err != nil {
		return "", err
	}
	if in.Limit <= 0 {
		in.Limit = defaultMemoryLimit
	}

	memories, err := m.store.GetRecentMemories(ctx, state.AgentID(), in.Limit)
	if err != nil {
		return "", fmt.Errorf("reading memories: %w", err)
	}
	if len(memories) == 0 {
		return "", nil
	}
	return m.formatMemories("Recent Memories", memories), nil
}

func (m *Memory) ExtractMemories(ctx context.Context, state tools.AgentState, input json.RawMessage) (string, error) {
	if m.client == nil {
		return "", ErrNoInference
	}

	instruction := strings.TrimSpace(state.NextInstruction())
	if instruction == "" {
		return "", nil
	}

	reply, err := m.client.Infer(ctx, []inference.Message{
		{Role: inference.RoleSystem, Content: extractionPrompt},
		{Role: inference.RoleUser, Content: instruction},
	}, extractionSchema)
	if err != nil {
		return "", fmt.Errorf("extracting memories: %w", err)
	}

	var parsed extractionReply
	if err := json.Unmarshal([]byte(reply), &parsed); err != nil {
		return "", fmt.Errorf("parsing extraction reply: %w", err)
	}

	saved := 0
	for _, content := range parsed.Memories {
		content = strings.TrimSpace(content)
		if content == "" {
			continue
		}
		if err := m.save(ctx, state.AgentID(), content); err != nil {
			return "", err
		}
		saved++
	}

	m.logger.Debug("memories extracted", "agent_id", state.AgentID(), "count", saved)
	if saved == 0 {
		return "", nil
	}
	return fmt.Sprintf("Extracted %d memories", saved), nil
}

func (m *Memory) save(ctx context.Context, agentID, content string) error {
	memory := &store.Memory{
		ID:        uuid.New().String(),
		AgentID:   agentID,
		Content:   content,
		CreatedAt: m.now(),
	}
	if err := m.store.SaveMemory(ctx, memory); err != nil {
		return fmt.Errorf("saving memory: %w", err)
	}
	return nil
}

func (m *Memory) formatMemories(title string, memories []*store.Memory) string {
	now := m.now()
	var sb strings.Builder
	sb.WriteString(title)
	sb.WriteString(":\n")
	for _, mem := range memories {
		fmt.Fprintf(&sb, "- %s (%s)\n", mem.Content, ago(now, mem.CreatedAt))
	}
	return sb.String()
}
