// ABOUTME: Message type and the Client interface shared by all model backends.
// ABOUTME: New builds the configured backend with retry and rate limiting applied.

package inference

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// Message roles.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

// ErrEmptyResponse indicates the model replied with no content.
var ErrEmptyResponse = errors.New("empty response from model")

// ErrUnknownProvider indicates an unsupported backend name.
var ErrUnknownProvider = errors.New("unknown inference provider")

// Message is one entry of the conversation sent to the model.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Client sends a conversation to the model and returns its reply text.
// schema may be nil when no structured reply is required.
type Client interface {
	Infer(ctx context.Context, messages []Message, schema json.RawMessage) (string, error)
}

// Options configures New.
type Options struct {
	Provider          string
	BaseURL           string
	Model             string
	APIKey            string
	Timeout           time.Duration
	ContextWindow     int
	MaxAttempts       int
	RetryDelay        time.Duration
	RequestsPerMinute int
	Validator         Validator
}

// New builds a client for the configured provider, wrapped in retry and
// rate limiting as configured.
func New(opts Options, logger *slog.Logger) (Client, error) {
	if logger == nil {
		logger = slog.Default()
	}

	var client Client
	switch opts.Provider {
	case "", "ollama":
		c, err := NewOllama(opts.BaseURL, opts.Model, opts.Timeout)
		if err != nil {
			return nil, err
		}
		c.ContextWindow = opts.ContextWindow
		client = c
	case "openai":
		client = NewOpenAI(opts.BaseURL, opts.APIKey, opts.Model, opts.Timeout)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownProvider, opts.Provider)
	}

	if opts.RequestsPerMinute > 0 {
		client = NewRateLimited(client, opts.RequestsPerMinute)
	}
	if opts.MaxAttempts > 1 {
		client = &Retrying{
			Client:      client,
			MaxAttempts: opts.MaxAttempts,
			Delay:       opts.RetryDelay,
			Validator:   opts.Validator,
			Logger:      logger,
		}
	}

	logger.Info("inference client configured",
		"provider", opts.Provider,
		"model", opts.Model,
		"max_attempts", opts.MaxAttempts,
		"requests_per_minute", opts.RequestsPerMinute,
	)
	return client, nil
}
