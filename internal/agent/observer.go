// ABOUTME: Typed events the engine reports phase transitions and problems through.
// ABOUTME: SlogObserver logs them; tests record them.

package agent

import (
	"log/slog"

	"github.com/2389/coven-swarm/internal/tools"
)

// EventType names what happened.
type EventType string

// Event types, in the order they occur within a pass.
const (
	EventPassStarted         EventType = "pass_started"
	EventCatalogRefreshed    EventType = "catalog_refreshed"
	EventPreInferenceCall    EventType = "pre_inference_call"
	EventContextAssembled    EventType = "context_assembled"
	EventInferenceCompleted  EventType = "inference_completed"
	EventInferenceFailed     EventType = "inference_failed"
	EventCallDispatched      EventType = "call_dispatched"
	EventCallSkipped         EventType = "call_skipped"
	EventCallBackgrounded    EventType = "call_backgrounded"
	EventDuplicateSuppressed EventType = "duplicate_suppressed"
	EventBackgroundJoined    EventType = "background_joined"
	EventPassCompleted       EventType = "pass_completed"
)

// Origin records which step of a pass issued a call.
type Origin string

// Call origins.
const (
	OriginPreInference  Origin = "pre_inference"
	OriginModel         Origin = "model"
	OriginPostInference Origin = "post_inference"
)

// Event is one observation from a pass.
type Event struct {
	Type    EventType
	AgentID string
	Pass    int
	Origin  Origin
	Call    *tools.ToolCall
	Result  *tools.ToolCallResult
	Count   int
	Err     error
}

// Observer receives events from the engine goroutine.
type Observer interface {
	Observe(Event)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(Event)

// Observe calls f.
func (f ObserverFunc) Observe(e Event) { f(e) }

// SlogObserver writes events to a structured logger.
type SlogObserver struct {
	Logger *slog.Logger
}

// Observe logs the event at a level matching its severity.
func (o SlogObserver) Observe(e Event) {
	logger := o.Logger
	if logger == nil {
		logger = slog.Default()
	}

	attrs := []any{"agent_id", e.AgentID, "pass", e.Pass}
	if e.Origin != "" {
		attrs = append(attrs, "origin", e.Origin)
	}
	if e.Call != nil {
		attrs = append(attrs, "toolset_id", e.Call.ToolsetID, "tool_name", e.Call.Name)
	}
	if e.Result != nil && e.Result.HasError() {
		attrs = append(attrs, "tool_error", *e.Result.Error)
	}
	if e.Count > 0 {
		attrs = append(attrs, "count", e.Count)
	}

	switch e.Type {
	case EventInferenceFailed:
		logger.Error("inference failed", append(attrs, "error", e.Err)...)
	case EventCallSkipped:
		logger.Warn("tool not found, skipping call", attrs...)
	case EventDuplicateSuppressed:
		logger.Info("call already pending, not starting another", attrs...)
	case EventPassStarted:
		logger.Info("=== PASS STARTED ===", attrs...)
	case EventPassCompleted:
		logger.Info("=== PASS COMPLETED ===", attrs...)
	default:
		logger.Debug(string(e.Type), attrs...)
	}
}

// multiObserver fans an event out to several observers.
type multiObserver []Observer

func (m multiObserver) Observe(e Event) {
	for _, o := range m {
		o.Observe(e)
	}
}
