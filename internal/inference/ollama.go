// ABOUTME: Ollama chat backend using the official ollama api client.
// ABOUTME: Passes the reply schema as the request format for structured output.

package inference

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	ollama "github.com/ollama/ollama/api"
)

// DefaultOllamaURL is used when no base url is configured.
const DefaultOllamaURL = "http://localhost:11434"

// Ollama is a Client backed by an Ollama server.
type Ollama struct {
	Client        *ollama.Client
	Model         string
	ContextWindow int
}

// NewOllama creates an Ollama client for baseURL (DefaultOllamaURL when empty).
func NewOllama(baseURL, model string, timeout time.Duration) (*Ollama, error) {
	if baseURL == "" {
		baseURL = DefaultOllamaURL
	}
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid ollama url %q: %w", baseURL, err)
	}

	httpClient := &http.Client{Timeout: timeout}
	return &Ollama{Client: ollama.NewClient(u, httpClient), Model: model}, nil
}

// Infer runs one non-streaming chat request.
func (o *Ollama) Infer(ctx context.Context, messages []Message, schema json.RawMessage) (string, error) {
	stream := false
	req := &ollama.ChatRequest{
		Model:    o.Model,
		Messages: make([]ollama.Message, 0, len(messages)),
		Stream:   &stream,
		Format:   schema,
	}
	for _, m := range messages {
		req.Messages = append(req.Messages, ollama.Message{Role: m.Role, Content: m.Content})
	}
	if o.ContextWindow > 0 {
		req.Options = map[string]any{"num_ctx": o.ContextWindow}
	}

	var text strings.Builder
	if err := o.Client.Chat(ctx, req, func(resp ollama.ChatResponse) error {
		text.WriteString(resp.Message.Content)
		return nil
	}); err != nil {
		return "", fmt.Errorf("ollama chat: %w", err)
	}

	if strings.TrimSpace(text.String()) == "" {
		return "", ErrEmptyResponse
	}
	return text.String(), nil
}
