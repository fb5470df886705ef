// ABOUTME: Provider contract every app implements, plus the Toolset dispatch table.
// ABOUTME: Toolset turns a static list of handlers into a Provider.

package tools

import (
	"context"
	"encoding/json"
	"fmt"
)

// AgentState is the view of the running agent an app may use while
// handling a call.
type AgentState interface {
	AgentID() string
	NextInstruction() string
	AppKey(key string) string
	SetAppKey(key, value string)
}

// Provider is implemented by every app.
// Invoke must never panic; failures are reported through the result.
type Provider interface {
	Identity() Identity
	Catalog() []CatalogEntry
	Invoke(ctx context.Context, state AgentState, call ToolCall) ToolCallResult
}

// Handler executes one tool. It receives the call arguments as JSON and
// returns the text to surface to the model.
// An empty string with a nil error means nothing to surface.
type Handler func(ctx context.Context, state AgentState, input json.RawMessage) (string, error)

// Tool pairs a catalog entry with its handler.
type Tool struct {
	Entry   CatalogEntry
	Handler Handler
}

// Toolset is a Provider backed by a fixed dispatch table.
type Toolset struct {
	identity Identity
	entries  []CatalogEntry
	handlers map[string]Handler
}

// NewToolset builds a toolset. Entries keep their declaration order and
// inherit the identity's toolset id.
func NewToolset(identity Identity, tools ...Tool) *Toolset {
	ts := &Toolset{
		identity: identity,
		entries:  make([]CatalogEntry, 0, len(tools)),
		handlers: make(map[string]Handler, len(tools)),
	}
	for _, tool := range tools {
		entry := tool.Entry
		entry.ToolsetID = identity.ToolsetID
		ts.entries = append(ts.entries, entry)
		ts.handlers[entry.Name] = tool.Handler
	}
	return ts
}

// Identity returns the toolset's registration record.
func (t *Toolset) Identity() Identity {
	return t.identity
}

// Catalog returns a copy of the declared entries.
func (t *Toolset) Catalog() []CatalogEntry {
	out := make([]CatalogEntry, len(t.entries))
	copy(out, t.entries)
	return out
}

// Handler returns the handler registered for name, or nil.
func (t *Toolset) Handler(name string) Handler {
	return t.handlers[name]
}

// Invoke runs the named tool and converts every failure, including a
// handler panic, into an error result.
func (t *Toolset) Invoke(ctx context.Context, state AgentState, call ToolCall) (result ToolCallResult) {
	handler, ok := t.handlers[call.Name]
	if !ok || handler == nil {
		return Failure(call, fmt.Sprintf("unknown tool %s in toolset %s", call.Name, t.identity.ToolsetID))
	}

	defer func() {
		if r := recover(); r != nil {
			result = Failure(call, fmt.Sprintf("tool panicked: %v", r))
		}
	}()

	input, err := marshalArguments(call.Arguments)
	if err != nil {
		return Failure(call, err.Error())
	}

	output, err := handler(ctx, state, input)
	if err != nil {
		return Failure(call, err.Error())
	}
	if output == "" {
		return Empty(call)
	}
	return Success(call, output)
}

func marshalArguments(args map[string]any) (json.RawMessage, error) {
	if len(args) == 0 {
		return json.RawMessage(`{}`), nil
	}
	data, err := json.Marshal(args)
	if err != nil {
		return nil, fmt.Errorf("encoding arguments: %w", err)
	}
	return data, nil
}

// DecodeInput unmarshals handler input into v, tolerating empty input.
func DecodeInput(input json.RawMessage, v any) error {
	if len(input) == 0 {
		return nil
	}
	if err := json.Unmarshal(input, v); err != nil {
		return fmt.Errorf("invalid input: %w", err)
	}
	return nil
}
