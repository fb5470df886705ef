// ABOUTME: The registry's own toolset: load, unload and list apps.
// ABOUTME: Always registered and loaded so the model can manage its apps.

package apps

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/2389/coven-swarm/internal/tools"
)

// ManagerToolsetID is the toolset id of the registry's own toolset.
const ManagerToolsetID = "app_manager"

type managerHandlers struct {
	registry *Registry
}

func newManagerToolset(r *Registry) *tools.Toolset {
	m := &managerHandlers{registry: r}
	toolsetArg := []tools.Argument{{
		Name:        "toolset_id",
		Type:        "string",
		Description: "the toolset_id of the app",
	}}

	return tools.NewToolset(tools.Identity{
		ToolsetID:   ManagerToolsetID,
		DisplayName: "App Manager",
		Description: "Manages apps. Tools available are from loaded apps. An app must be loaded to be used.",
	},
		tools.Tool{
			Entry: tools.CatalogEntry{
				Name:          "load_app",
				Description:   "loads an app, this makes their tools available to you to call.",
				Arguments:     toolsetArg,
				ExposeToAgent: true,
			},
			Handler: m.LoadApp,
		},
		tools.Tool{
			Entry: tools.CatalogEntry{
				Name:          "unload_app",
				Description:   "unloads an app. do this to free up memory and resources.",
				Arguments:     toolsetArg,
				ExposeToAgent: true,
			},
			Handler: m.UnloadApp,
		},
		tools.Tool{
			Entry: tools.CatalogEntry{
				Name:          "list_apps",
				Description:   "lists every app you can load, and whether it is loaded.",
				ExposeToAgent: true,
			},
			Handler: m.ListApps,
		},
	)
}

type toolsetInput struct {
	ToolsetID string `json:"toolset_id"`
}

func (m *managerHandlers) LoadApp(ctx context.Context, state tools.AgentState, input json.RawMessage) (string, error) {
	var in toolsetInput
	if err := tools.DecodeInput(input, &in); err != nil {
		return "", err
	}

	if err := m.registry.SetLoaded(in.ToolsetID, true); err != nil {
		if errors.Is(err, ErrProviderNotFound) {
			return "", fmt.Errorf("app %s not found", in.ToolsetID)
		}
		return "", err
	}

	name := in.ToolsetID
	for _, identity := range m.registry.Known() {
		if identity.ToolsetID == in.ToolsetID {
			name = identity.DisplayName
			break
		}
	}
	return fmt.Sprintf("Loaded app %s - %s\n%s", in.ToolsetID, name, m.registry.toolList(in.ToolsetID)), nil
}

func (m *managerHandlers) UnloadApp(ctx context.Context, state tools.AgentState, input json.RawMessage) (string, error) {
	var in toolsetInput
	if err := tools.DecodeInput(input, &in); err != nil {
		return "", err
	}

	if in.ToolsetID == ManagerToolsetID {
		return "", errors.New("cannot unload the app manager")
	}
	if !m.registry.IsLoaded(in.ToolsetID) {
		return "", fmt.Errorf("app %s is not loaded", in.ToolsetID)
	}
	if err := m.registry.SetLoaded(in.ToolsetID, false); err != nil {
		return "", err
	}
	return fmt.Sprintf("Unloaded app %s", in.ToolsetID), nil
}

func (m *managerHandlers) ListApps(ctx context.Context, state tools.AgentState, input json.RawMessage) (string, error) {
	return m.registry.ListKnown(), nil
}
