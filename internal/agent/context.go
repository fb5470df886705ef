// ABOUTME: Builds the message sequence sent to the model for one pass.
// ABOUTME: Layout: system, catalog, standing, completed pairs, pending, instruction.

package agent

import (
	"encoding/json"
	"fmt"

	"github.com/2389/coven-swarm/internal/inference"
	"github.com/2389/coven-swarm/internal/tools"
)

// BuildMessages assembles the conversation for the current state. It does
// not modify the state.
func BuildMessages(state *RunState) []inference.Message {
	messages := []inference.Message{
		{Role: inference.RoleSystem, Content: state.BaseInstructions},
		{Role: inference.RoleAssistant, Content: state.CatalogSummary},
	}

	for _, result := range state.Ledger.StandingResults {
		if text := result.Text(); text != "" {
			messages = append(messages, inference.Message{Role: inference.RoleAssistant, Content: text})
		}
	}

	for _, result := range state.Ledger.CompletedResults {
		text := result.Text()
		if text == "" {
			continue
		}
		messages = append(messages,
			inference.Message{Role: inference.RoleAssistant, Content: "Called: " + describeCall(result.ToolCall)},
			inference.Message{Role: inference.RoleTool, Content: "Tool result: " + text},
		)
	}

	for _, call := range state.Ledger.PendingCalls {
		messages = append(messages, inference.Message{
			Role:    inference.RoleAssistant,
			Content: "Pending tool call: " + describeCall(call),
		})
	}

	return append(messages, inference.Message{Role: inference.RoleUser, Content: instructionPrompt(state.Instruction)})
}

func instructionPrompt(instruction string) string {
	prompt := ""
	if instruction != "" {
		prompt = "Instructions you wrote for yourself from your previous pass:\n" + instruction + "\n\n"
	}
	return prompt + "Please respond in the following format:\n" + string(ResultSchema)
}

func describeCall(call tools.ToolCall) string {
	args := "{}"
	if len(call.Arguments) > 0 {
		if data, err := json.Marshal(call.Arguments); err == nil {
			args = string(data)
		}
	}
	return fmt.Sprintf("%s %s(%s)", call.ToolsetID, call.Name, args)
}
