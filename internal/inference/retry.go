// ABOUTME: Bounded retry wrapper for any Client.
// ABOUTME: A reply is retried when the transport fails or the Validator rejects it.

package inference

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"
)

// Validator decides whether a reply is usable. A non-nil error triggers a
// retry.
type Validator func(reply string) error

// Retrying wraps a Client with a bounded retry policy.
type Retrying struct {
	Client      Client
	MaxAttempts int
	Delay       time.Duration
	Validator   Validator
	Logger      *slog.Logger
}

// Infer calls the wrapped client until a reply passes the Validator or
// MaxAttempts is reached. The last error is returned on exhaustion.
func (r *Retrying) Infer(ctx context.Context, messages []Message, schema json.RawMessage) (string, error) {
	attempts := r.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	logger := r.Logger
	if logger == nil {
		logger = slog.Default()
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		reply, err := r.Client.Infer(ctx, messages, schema)
		if err == nil && r.Validator != nil {
			if verr := r.Validator(reply); verr != nil {
				err = fmt.Errorf("invalid reply: %w", verr)
			}
		}
		if err == nil {
			return reply, nil
		}
		lastErr = err

		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		if attempt == attempts {
			break
		}

		logger.Warn("inference attempt failed, retrying",
			"attempt", attempt,
			"max_attempts", attempts,
			"error", err,
		)
		if r.Delay > 0 {
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(r.Delay):
			}
		}
	}
	return "", fmt.Errorf("inference failed after %d attempts: %w", attempts, lastErr)
}

// WithValidator returns a client that retries replies rejected by v on
// top of client's own transport. A Retrying client keeps its policy and
// shares its wrapped client, so rate limiting stays common to both.
func WithValidator(client Client, v Validator) Client {
	if r, ok := client.(*Retrying); ok {
		derived := *r
		derived.Validator = v
		return &derived
	}
	return &Retrying{Client: client, MaxAttempts: 1, Validator: v}
}
