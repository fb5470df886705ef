// ABOUTME: The pass engine: refresh, pre-inference, assembly, inference, dispatch, post-inference, join.
// ABOUTME: Owns every mutation of the agent's call ledger.

package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/2389/coven-swarm/internal/inference"
	"github.com/2389/coven-swarm/internal/tools"
)

// ErrInference indicates the model could not produce a usable decision.
// The pass that returned it made no progress beyond pre-inference.
var ErrInference = errors.New("inference failed")

// Inferencer sends a conversation to the model.
type Inferencer interface {
	Infer(ctx context.Context, messages []inference.Message, schema json.RawMessage) (string, error)
}

// Dispatcher is what the engine needs from the app registry.
type Dispatcher interface {
	VisibleCatalog() []tools.CatalogEntry
	Summary() string
	ResolveSchema(name, toolsetID string) (tools.CatalogEntry, bool)
	Dispatch(ctx context.Context, state tools.AgentState, call tools.ToolCall) (tools.ToolCallResult, error)
}

// EngineConfig tunes an Engine.
type EngineConfig struct {
	// MaxBackground caps concurrently running long-running calls per pass.
	// Zero means no cap.
	MaxBackground int
	Observer      Observer
}

// Engine runs passes for one agent.
type Engine struct {
	registry      Dispatcher
	inferencer    Inferencer
	observer      Observer
	maxBackground int
	logger        *slog.Logger
}

// PassReport summarizes one pass.
type PassReport struct {
	Pass                 int
	Results              []tools.ToolCallResult
	Skipped              []tools.ToolCall
	Backgrounded         int
	SuppressedDuplicates int
	Duration             time.Duration
}

// NewEngine creates an Engine.
func NewEngine(registry Dispatcher, inferencer Inferencer, cfg EngineConfig, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "engine")

	observers := multiObserver{SlogObserver{Logger: logger}}
	if cfg.Observer != nil {
		observers = append(observers, cfg.Observer)
	}

	return &Engine{
		registry:      registry,
		inferencer:    inferencer,
		observer:      observers,
		maxBackground: cfg.MaxBackground,
		logger:        logger,
	}
}

// pass holds what is local to one RunPass invocation.
type pass struct {
	state  *RunState
	report *PassReport
	bg     *backgroundGroup
}

// RunPass executes one pass over state. It returns an error wrapping
// ErrInference when the model reply is unusable; in that case the
// carried-over instruction is untouched and nothing after pre-inference
// has run.
func (e *Engine) RunPass(ctx context.Context, state *RunState) (*PassReport, error) {
	start := time.Now()
	p := &pass{
		state:  state,
		report: &PassReport{Pass: state.Passes + 1},
		bg:     newBackgroundGroup(e.maxBackground),
	}
	e.emit(p, Event{Type: EventPassStarted})

	// Refresh.
	state.VisibleCatalog = append(e.registry.VisibleCatalog(), resultsCatalog...)
	state.CatalogSummary = e.registry.Summary() + "\n" + resultsSummary()
	e.emit(p, Event{Type: EventCatalogRefreshed, Count: len(state.VisibleCatalog)})

	// Pre-inference calls always block and always land in standing.
	for _, call := range state.PreInference {
		result := e.dispatch(ctx, state, call)
		state.Ledger.AppendStanding(result)
		e.emit(p, Event{Type: EventPreInferenceCall, Origin: OriginPreInference, Call: &call, Result: &result})
	}

	// Standing results are shown once.
	messages := BuildMessages(state)
	state.Ledger.ClearStanding()
	e.emit(p, Event{Type: EventContextAssembled, Count: len(messages)})

	run, err := e.infer(ctx, messages)
	if err != nil {
		e.emit(p, Event{Type: EventInferenceFailed, Err: err})
		return nil, err
	}
	state.setNextInstruction(run.DetailedNextInstruction)
	e.emit(p, Event{Type: EventInferenceCompleted, Count: len(run.ToolCalls)})

	for _, call := range run.ToolCalls {
		e.handle(ctx, p, OriginModel, call)
	}
	for _, call := range state.PostInference {
		e.handle(ctx, p, OriginPostInference, call)
	}

	e.join(p)

	state.Passes = p.report.Pass
	state.UpdatedAt = time.Now().UTC()
	p.report.Duration = time.Since(start)
	e.emit(p, Event{Type: EventPassCompleted, Count: len(p.report.Results)})
	return p.report, nil
}

func (e *Engine) infer(ctx context.Context, messages []inference.Message) (*RunSchema, error) {
	reply, err := e.inferencer.Infer(ctx, messages, ResultSchema)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInference, err)
	}
	run, err := ParseReply(reply)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInference, err)
	}
	return run, nil
}

// handle resolves a model-chosen or post-inference call and either runs it
// inline or hands it to the background group. The model may only invoke
// tools exposed to it; configured calls may use hidden ones. Calls to the
// results toolset never reach the registry.
func (e *Engine) handle(ctx context.Context, p *pass, origin Origin, call tools.ToolCall) {
	if call.ToolsetID == ResultsToolsetID {
		result := dismiss(p.state, call)
		p.state.Ledger.AppendStanding(result)
		p.report.Results = append(p.report.Results, result)
		e.emit(p, Event{Type: EventCallDispatched, Origin: origin, Call: &call, Result: &result})
		return
	}

	entry, ok := e.registry.ResolveSchema(call.Name, call.ToolsetID)
	if ok && origin == OriginModel && !entry.ExposeToAgent {
		ok = false
	}
	if !ok {
		p.report.Skipped = append(p.report.Skipped, call)
		e.emit(p, Event{Type: EventCallSkipped, Origin: origin, Call: &call})
		return
	}

	if entry.IsLongRunning {
		e.handoff(ctx, p, origin, call)
		return
	}

	result := e.dispatch(ctx, p.state, call)
	if origin == OriginModel {
		p.state.Ledger.AppendCompleted(result)
	} else {
		p.state.Ledger.AppendStanding(result)
	}
	p.report.Results = append(p.report.Results, result)
	e.emit(p, Event{Type: EventCallDispatched, Origin: origin, Call: &call, Result: &result})
}

// handoff marks call pending and queues it for the join, unless the same
// identity is already pending. Queued work starts only after every
// synchronous call of the pass has run.
func (e *Engine) handoff(ctx context.Context, p *pass, origin Origin, call tools.ToolCall) {
	if !p.state.Ledger.AddPending(call) {
		p.report.SuppressedDuplicates++
		e.emit(p, Event{Type: EventDuplicateSuppressed, Origin: origin, Call: &call})
		return
	}

	// Background calls run to completion even if the pass context ends.
	bgCtx := context.WithoutCancel(ctx)
	state := p.state
	p.bg.queue(origin, call, func() tools.ToolCallResult {
		return e.dispatch(bgCtx, state, call)
	})
	p.report.Backgrounded++
	e.emit(p, Event{Type: EventCallBackgrounded, Origin: origin, Call: &call})
}

// join runs the queued background work, waits for it and merges each
// result into the collection its origin designates.
func (e *Engine) join(p *pass) {
	if p.bg.size() == 0 {
		return
	}

	for _, outcome := range p.bg.wait() {
		p.state.Ledger.RemovePending(outcome.call.Key())
		if outcome.origin == OriginPostInference {
			p.state.Ledger.AppendStanding(outcome.result)
		} else {
			p.state.Ledger.AppendCompleted(outcome.result)
		}
		p.report.Results = append(p.report.Results, outcome.result)
	}
	e.emit(p, Event{Type: EventBackgroundJoined, Count: p.bg.size()})
}

// dispatch runs a call through the registry, turning routing errors into
// error results.
func (e *Engine) dispatch(ctx context.Context, state *RunState, call tools.ToolCall) tools.ToolCallResult {
	result, err := e.registry.Dispatch(ctx, state, call)
	if err != nil {
		return tools.Failure(call, err.Error())
	}
	return result
}

func (e *Engine) emit(p *pass, event Event) {
	event.AgentID = p.state.ID
	event.Pass = p.report.Pass
	e.observer.Observe(event)
}
