// Package tools defines the contract between the pass engine and the apps
// that give agents their abilities.
//
// # Overview
//
// An app (provider) owns a toolset: a unique toolset id, a display name and
// an ordered catalog of tools. The engine never introspects an app; it reads
// the catalog once and routes calls through Invoke.
//
//	type Provider interface {
//	    Identity() Identity
//	    Catalog() []CatalogEntry
//	    Invoke(ctx context.Context, state AgentState, call ToolCall) ToolCallResult
//	}
//
// # Toolsets
//
// Most apps are built with Toolset, an explicit dispatch table from tool
// name to Handler assembled in the app's constructor:
//
//	ts := tools.NewToolset(tools.Identity{ToolsetID: "chat", DisplayName: "Chat"},
//	    tools.Tool{Entry: tools.CatalogEntry{Name: "send_message", ExposeToAgent: true}, Handler: c.SendMessage},
//	)
//
// Handlers receive the call arguments as JSON and decode them into their own
// input struct. A handler error becomes ToolCallResult.Error; it never
// escapes Invoke.
//
// # Results
//
// A ToolCallResult carries at most one of Result or Error. Both nil means
// the tool ran and had nothing to surface to the model.
package tools
