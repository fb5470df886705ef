// ABOUTME: OpenAI-compatible chat completions backend.
// ABOUTME: Uses JSON-object mode and appends the schema to the final prompt.

package inference

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
)

// OpenAI is a Client backed by an OpenAI-compatible API.
type OpenAI struct {
	Client *openai.Client
	Model  string
}

// NewOpenAI creates a client. An empty baseURL uses the public API.
func NewOpenAI(baseURL, apiKey, model string, timeout time.Duration) *OpenAI {
	config := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = baseURL
	}
	config.HTTPClient = &http.Client{Timeout: timeout}
	return &OpenAI{Client: openai.NewClientWithConfig(config), Model: model}
}

// Infer runs one chat completion. With a schema the reply is forced to be
// a JSON object and the schema is appended to the conversation.
func (o *OpenAI) Infer(ctx context.Context, messages []Message, schema json.RawMessage) (string, error) {
	req := openai.ChatCompletionRequest{
		Model:    o.Model,
		Messages: make([]openai.ChatCompletionMessage, 0, len(messages)+1),
	}
	for _, m := range messages {
		req.Messages = append(req.Messages, openai.ChatCompletionMessage{
			Role:    openAIRole(m.Role),
			Content: m.Content,
		})
	}
	if len(schema) > 0 {
		req.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		}
		req.Messages = append(req.Messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: "Reply with a single JSON object matching this schema:\n" + string(schema),
		})
	}

	resp, err := o.Client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("openai chat completion: %w", err)
	}
	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		return "", ErrEmptyResponse
	}
	return resp.Choices[0].Message.Content, nil
}

// openAIRole maps roles the chat completions API does not accept without a
// tool call id onto ones it does.
func openAIRole(role string) string {
	switch role {
	case RoleSystem:
		return openai.ChatMessageRoleSystem
	case RoleUser:
		return openai.ChatMessageRoleUser
	default:
		return openai.ChatMessageRoleAssistant
	}
}
