// ABOUTME: The fixed reply schema the model must answer with every pass.
// ABOUTME: ParseReply rejects anything that is not a complete schema object.

package agent

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/2389/coven-swarm/internal/tools"
)

// ErrMalformedReply indicates a reply that does not match RunSchema.
var ErrMalformedReply = errors.New("malformed model reply")

// RunSchema is the structured decision the model returns each pass.
type RunSchema struct {
	Thoughts                string           `json:"thoughts"`
	ToolCalls               []tools.ToolCall `json:"tool_calls"`
	FollowUpThoughts        string           `json:"follow_up_thoughts"`
	DetailedNextInstruction string           `json:"detailed_next_instruction"`
}

// ResultSchema is the JSON schema of RunSchema sent with every request.
var ResultSchema = json.RawMessage(`{
  "title": "AgentRunSchema",
  "type": "object",
  "properties": {
    "thoughts": {"title": "Thoughts", "type": "string"},
    "tool_calls": {
      "title": "Tool Calls",
      "type": "array",
      "items": {
        "type": "object",
        "properties": {
          "toolset_id": {"type": "string"},
          "name": {"type": "string"},
          "arguments": {"type": "object"}
        },
        "required": ["toolset_id", "name", "arguments"]
      }
    },
    "follow_up_thoughts": {"title": "Follow Up Thoughts", "type": "string"},
    "detailed_next_instruction": {"title": "Detailed Next Instruction", "type": "string"}
  },
  "required": ["thoughts", "tool_calls", "follow_up_thoughts", "detailed_next_instruction"]
}`)

var requiredFields = []string{"thoughts", "tool_calls", "follow_up_thoughts", "detailed_next_instruction"}

// ParseReply decodes a model reply. Empty text, invalid JSON or a missing
// field is ErrMalformedReply. Tool calls are not checked here; unknown
// ones are skipped at dispatch.
func ParseReply(reply string) (*RunSchema, error) {
	if strings.TrimSpace(reply) == "" {
		return nil, fmt.Errorf("%w: empty reply", ErrMalformedReply)
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(reply), &fields); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedReply, err)
	}
	for _, name := range requiredFields {
		if _, ok := fields[name]; !ok {
			return nil, fmt.Errorf("%w: missing %s", ErrMalformedReply, name)
		}
	}

	var run RunSchema
	if err := json.Unmarshal([]byte(reply), &run); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedReply, err)
	}
	return &run, nil
}

// ValidateReply is an inference.Validator accepting only parseable replies.
func ValidateReply(reply string) error {
	_, err := ParseReply(reply)
	return err
}
