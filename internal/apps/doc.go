// Package apps provides the per-agent app registry.
//
// # Overview
//
// An app is any tools.Provider. The Registry tracks two things about each
// app: whether it is known (registered) and whether it is loaded. Only the
// exposed tools of loaded apps make up the visible catalog that the model
// is shown each pass; known-but-unloaded apps are listed by name so the
// model can ask for them.
//
// # App Manager
//
// The registry registers itself as the "app_manager" toolset at
// construction. Its tools let the model manage its own apps:
//
//	load_app(toolset_id)    - make an app's tools visible
//	unload_app(toolset_id)  - hide an app's tools again
//	list_apps()             - summary of every app and its load state
//
// The app manager is always loaded and can never be unloaded or replaced.
//
// # Dispatch
//
// Dispatch routes a tool call to the owning app. A call naming an
// unregistered toolset returns ErrProviderNotFound. Tool failures and
// panics come back as error results, never as Go errors.
//
// # Ordering
//
// VisibleCatalog is ordered by first registration of each app, then by the
// app's declaration order. Re-registering an app keeps its position.
package apps
