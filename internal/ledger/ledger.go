// ABOUTME: Pending/standing/completed collections for one agent's tool calls.
// ABOUTME: Pending is deduplicated by (toolset id, tool name).

package ledger

import "github.com/2389/coven-swarm/internal/tools"

// Ledger is the call bookkeeping of one agent. The zero value is ready to use.
type Ledger struct {
	PendingCalls     []tools.ToolCall       `json:"pending"`
	StandingResults  []tools.ToolCallResult `json:"standing"`
	CompletedResults []tools.ToolCallResult `json:"completed"`
}

// AddPending records a call as in flight. It returns false, and changes
// nothing, when a call with the same identity is already pending.
func (l *Ledger) AddPending(call tools.ToolCall) bool {
	if l.IsPending(call.Key()) {
		return false
	}
	l.PendingCalls = append(l.PendingCalls, call)
	return true
}

// IsPending reports whether a call with the identity is in flight.
func (l *Ledger) IsPending(key tools.Key) bool {
	for _, call := range l.PendingCalls {
		if call.Key() == key {
			return true
		}
	}
	return false
}

// RemovePending drops the pending call with the identity, if any.
func (l *Ledger) RemovePending(key tools.Key) {
	l.PendingCalls = removeCalls(l.PendingCalls, key)
}

// AppendStanding adds a one-shot result.
func (l *Ledger) AppendStanding(result tools.ToolCallResult) {
	l.StandingResults = append(l.StandingResults, result)
}

// RemoveStanding drops every standing result with the identity.
func (l *Ledger) RemoveStanding(key tools.Key) {
	l.StandingResults = removeResults(l.StandingResults, key)
}

// ClearStanding empties the standing collection.
func (l *Ledger) ClearStanding() {
	l.StandingResults = nil
}

// AppendCompleted adds a retained result.
func (l *Ledger) AppendCompleted(result tools.ToolCallResult) {
	l.CompletedResults = append(l.CompletedResults, result)
}

// RemoveCompleted drops every completed result with the identity.
func (l *Ledger) RemoveCompleted(key tools.Key) {
	l.CompletedResults = removeResults(l.CompletedResults, key)
}

// ClearCompleted empties the completed collection.
func (l *Ledger) ClearCompleted() {
	l.CompletedResults = nil
}

// Pending returns a copy of the in-flight calls.
func (l *Ledger) Pending() []tools.ToolCall {
	return append([]tools.ToolCall(nil), l.PendingCalls...)
}

// Standing returns a copy of the one-shot results.
func (l *Ledger) Standing() []tools.ToolCallResult {
	return append([]tools.ToolCallResult(nil), l.StandingResults...)
}

// Completed returns a copy of the retained results.
func (l *Ledger) Completed() []tools.ToolCallResult {
	return append([]tools.ToolCallResult(nil), l.CompletedResults...)
}

// Clone returns a deep enough copy for snapshot comparisons: the slices are
// copied, the results they hold are values.
func (l *Ledger) Clone() Ledger {
	return Ledger{
		PendingCalls:     l.Pending(),
		StandingResults:  l.Standing(),
		CompletedResults: l.Completed(),
	}
}

func removeCalls(calls []tools.ToolCall, key tools.Key) []tools.ToolCall {
	out := calls[:0]
	for _, call := range calls {
		if call.Key() != key {
			out = append(out, call)
		}
	}
	return out
}

func removeResults(results []tools.ToolCallResult, key tools.Key) []tools.ToolCallResult {
	out := results[:0]
	for _, result := range results {
		if result.Key() != key {
			out = append(out, result)
		}
	}
	return out
}
