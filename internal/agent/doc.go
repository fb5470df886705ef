// Package agent runs the pass loop of an autonomous agent.
//
// # Overview
//
// An agent repeatedly gathers context, asks the model for a structured
// decision (RunSchema) and executes the tool calls that decision names.
// One iteration is a pass, run by Engine.RunPass:
//
//  1. Refresh: recompute the visible catalog from the registry
//  2. Pre-inference: run the configured calls, results go to standing
//  3. Context assembly: build the messages, then clear standing
//  4. Inference: ask the model; a bad reply aborts the pass (ErrInference)
//  5. Model calls: quick ones inline into completed, long-running ones
//     to the background
//  6. Post-inference: quick ones inline into standing, long-running ones
//     to the background
//  7. Join: wait for background work and merge its results
//
// # Ledger
//
// RunState.Ledger holds pending, standing and completed calls. Only the
// engine goroutine mutates it. A long-running call is added to pending
// before it starts; if its (toolset id, name) is already pending the
// handoff is dropped.
//
// # Persistence
//
// Agent.Step runs a pass and saves the state through a Persistence.
// A pass that fails inference is not saved. Resume loads a saved state.
//
// # Observing
//
// The engine reports every phase as an Event. SlogObserver logs them;
// EngineConfig.Observer receives them too.
package agent
