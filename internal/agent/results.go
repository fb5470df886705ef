// ABOUTME: Engine-owned tools that let the model dismiss retained completed results.
// ABOUTME: Calls are applied to the ledger on the engine goroutine, never through the registry.

package agent

import (
	"fmt"
	"strings"

	"github.com/2389/coven-swarm/internal/tools"
)

// ResultsToolsetID is the toolset id the engine reserves for its own
// ledger tools. Apps registered under this id are unreachable.
const ResultsToolsetID = "results"

const (
	dismissResultTool = "dismiss_result"
	dismissAllTool    = "dismiss_all_results"
)

var resultsCatalog = []tools.CatalogEntry{
	{
		ToolsetID:   ResultsToolsetID,
		Name:        dismissResultTool,
		Description: "Stop showing the completed results of one tool once you no longer need them",
		Arguments: []tools.Argument{
			{Name: "toolset_id", Type: "string", Description: "toolset id of the tool whose results to dismiss"},
			{Name: "name", Type: "string", Description: "name of the tool whose results to dismiss"},
		},
		ExposeToAgent: true,
	},
	{
		ToolsetID:     ResultsToolsetID,
		Name:          dismissAllTool,
		Description:   "Stop showing every completed tool result",
		ExposeToAgent: true,
	},
}

// resultsSummary lists the ledger tools in the same shape as app tools.
func resultsSummary() string {
	var b strings.Builder
	b.WriteString("Result Tools:\n")
	for _, entry := range resultsCatalog {
		args := make([]string, 0, len(entry.Arguments))
		for _, arg := range entry.Arguments {
			args = append(args, fmt.Sprintf("%s (%s): %s", arg.Name, arg.Type, arg.Description))
		}
		fmt.Fprintf(&b, "        toolset_id='%s' name='%s' description='%s' arguments=[%s]\n",
			entry.ToolsetID, entry.Name, entry.Description, strings.Join(args, "; "))
	}
	return b.String()
}

// dismiss applies a results-toolset call to the ledger. The outcome is
// meant for standing so the confirmation is not itself retained.
func dismiss(state *RunState, call tools.ToolCall) tools.ToolCallResult {
	switch call.Name {
	case dismissAllTool:
		n := len(state.Ledger.CompletedResults)
		state.Ledger.ClearCompleted()
		return tools.Success(call, fmt.Sprintf("Dismissed %d completed results", n))

	case dismissResultTool:
		toolsetID, _ := call.Arguments["toolset_id"].(string)
		name, _ := call.Arguments["name"].(string)
		if toolsetID == "" || name == "" {
			return tools.Failure(call, "toolset_id and name are required")
		}
		key := tools.Key{ToolsetID: toolsetID, Name: name}
		n := 0
		for _, result := range state.Ledger.CompletedResults {
			if result.Key() == key {
				n++
			}
		}
		if n == 0 {
			return tools.Failure(call, "no completed results for "+key.String())
		}
		state.Ledger.RemoveCompleted(key)
		return tools.Success(call, fmt.Sprintf("Dismissed %d completed results of %s", n, key))

	default:
		return tools.Failure(call, "unknown results tool: "+call.Name)
	}
}
