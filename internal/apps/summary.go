// ABOUTME: Human-readable app and tool listings shown to the model.
// ABOUTME: Sorted by display name and partitioned into loaded/unloaded groups.

package apps

import (
	"fmt"
	"sort"
	"strings"

	"github.com/2389/coven-swarm/internal/tools"
)

// ListKnown summarizes every app with at least one visible tool, loaded
// apps first, each group sorted by display name.
func (r *Registry) ListKnown() string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var loaded, unloaded []*registration
	for _, id := range r.order {
		reg := r.apps[id]
		if reg.visibleCount() == 0 {
			continue
		}
		if r.loaded[id] {
			loaded = append(loaded, reg)
		} else {
			unloaded = append(unloaded, reg)
		}
	}
	sortByName(loaded)
	sortByName(unloaded)

	var b strings.Builder
	b.WriteString("Available apps:\n")
	for _, reg := range loaded {
		writeAppLine(&b, "loaded", reg)
	}
	for _, reg := range unloaded {
		writeAppLine(&b, "unloaded", reg)
	}
	return b.String()
}

// ListLoaded lists the visible tools of every loaded app, sorted by app
// display name. These are the only tools the model may call.
func (r *Registry) ListLoaded() string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var loaded []*registration
	for _, id := range r.order {
		reg := r.apps[id]
		if r.loaded[id] && reg.visibleCount() > 0 {
			loaded = append(loaded, reg)
		}
	}
	sortByName(loaded)

	var b strings.Builder
	b.WriteString("Available Tools:\n")
	b.WriteString("(note: these are the only tools available to you at this time)\n")
	for _, reg := range loaded {
		fmt.Fprintf(&b, "    App (toolset_id=%s):\n", reg.identity.ToolsetID)
		writeToolLines(&b, reg.catalog)
	}
	return b.String()
}

// Summary is the catalog message shown to the model each pass.
func (r *Registry) Summary() string {
	return r.ListKnown() + "\n" + r.ListLoaded()
}

// toolList describes the visible tools of one app.
func (r *Registry) toolList(toolsetID string) string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var b strings.Builder
	b.WriteString("Available Tools:\n")
	if reg, ok := r.apps[toolsetID]; ok {
		writeToolLines(&b, reg.catalog)
	}
	return b.String()
}

func sortByName(regs []*registration) {
	sort.SliceStable(regs, func(i, j int) bool {
		return regs[i].identity.DisplayName < regs[j].identity.DisplayName
	})
}

func writeAppLine(b *strings.Builder, status string, reg *registration) {
	fmt.Fprintf(b, "    [%s] %s - %s - %s - %d tools\n",
		status,
		reg.identity.ToolsetID,
		reg.identity.DisplayName,
		reg.identity.Description,
		reg.visibleCount(),
	)
}

func writeToolLines(b *strings.Builder, catalog []tools.CatalogEntry) {
	for _, entry := range catalog {
		if !entry.ExposeToAgent {
			continue
		}
		fmt.Fprintf(b, "        toolset_id='%s' name='%s' description='%s' arguments=%s\n",
			entry.ToolsetID, entry.Name, entry.Description, formatArguments(entry.Arguments))
	}
}

func formatArguments(args []tools.Argument) string {
	parts := make([]string, 0, len(args))
	for _, arg := range args {
		parts = append(parts, fmt.Sprintf("%s (%s): %s", arg.Name, arg.Type, arg.Description))
	}
	return "[" + strings.Join(parts, "; ") + "]"
}
