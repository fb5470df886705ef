// ABOUTME: Core tool types shared by the registry, the ledger and the pass engine.
// ABOUTME: Defines tool calls, their results and catalog entries.

package tools

import "fmt"

// Key identifies a tool call for deduplication purposes.
type Key struct {
	ToolsetID string
	Name      string
}

func (k Key) String() string {
	return k.ToolsetID + "." + k.Name
}

// ToolCall is a request to run one named tool of one toolset.
type ToolCall struct {
	ToolsetID string         `json:"toolset_id"`
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments"`
}

// Key returns the dedup identity of the call.
func (c ToolCall) Key() Key {
	return Key{ToolsetID: c.ToolsetID, Name: c.Name}
}

func (c ToolCall) String() string {
	return fmt.Sprintf("%s %s(%v)", c.ToolsetID, c.Name, c.Arguments)
}

// ToolCallResult is the outcome of running a ToolCall.
// At most one of Result and Error is set.
type ToolCallResult struct {
	ToolsetID string   `json:"toolset_id"`
	ToolCall  ToolCall `json:"tool_call"`
	Result    *string  `json:"result,omitempty"`
	Error     *string  `json:"error,omitempty"`
}

// Success builds a result carrying output.
func Success(call ToolCall, output string) ToolCallResult {
	return ToolCallResult{ToolsetID: call.ToolsetID, ToolCall: call, Result: &output}
}

// Failure builds a result carrying an error message.
func Failure(call ToolCall, message string) ToolCallResult {
	return ToolCallResult{ToolsetID: call.ToolsetID, ToolCall: call, Error: &message}
}

// Empty builds a result for a call that produced nothing to surface.
func Empty(call ToolCall) ToolCallResult {
	return ToolCallResult{ToolsetID: call.ToolsetID, ToolCall: call}
}

// Key returns the dedup identity of the originating call.
func (r ToolCallResult) Key() Key {
	return r.ToolCall.Key()
}

// HasResult reports whether the result carries non-empty output.
func (r ToolCallResult) HasResult() bool {
	return r.Result != nil && *r.Result != ""
}

// HasError reports whether the call failed.
func (r ToolCallResult) HasError() bool {
	return r.Error != nil
}

// Text returns whatever the result surfaces to the model: output, an
// "Error: ..." line, or "" when there is nothing.
func (r ToolCallResult) Text() string {
	switch {
	case r.HasError():
		return "Error: " + *r.Error
	case r.HasResult():
		return *r.Result
	default:
		return ""
	}
}

// Argument describes one parameter of a tool.
type Argument struct {
	Name        string `json:"name"`
	Type        string `json:"type"`
	Description string `json:"description"`
}

// CatalogEntry describes one tool of a toolset.
type CatalogEntry struct {
	ToolsetID     string     `json:"toolset_id"`
	Name          string     `json:"name"`
	Description   string     `json:"description"`
	Arguments     []Argument `json:"arguments"`
	IsLongRunning bool       `json:"is_long_running"`
	ExposeToAgent bool       `json:"expose_to_agent"`
}

// Key returns the identity of calls targeting this entry.
func (e CatalogEntry) Key() Key {
	return Key{ToolsetID: e.ToolsetID, Name: e.Name}
}

// Identity is the registration record of a provider.
type Identity struct {
	ToolsetID   string `json:"toolset_id"`
	DisplayName string `json:"display_name"`
	Description string `json:"description"`
}
