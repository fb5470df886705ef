// ABOUTME: Token-bucket throttling for any Client.
// ABOUTME: Requests wait for a token instead of being rejected.

package inference

import (
	"context"
	"encoding/json"
	"fmt"

	"golang.org/x/time/rate"
)

// RateLimited spaces requests to the wrapped Client.
type RateLimited struct {
	Client  Client
	limiter *rate.Limiter
}

// NewRateLimited allows rpm requests per minute with a burst of one.
// rpm <= 0 disables limiting.
func NewRateLimited(client Client, rpm int) *RateLimited {
	limit := rate.Inf
	if rpm > 0 {
		limit = rate.Limit(float64(rpm) / 60.0)
	}
	return &RateLimited{Client: client, limiter: rate.NewLimiter(limit, 1)}
}

// Infer waits for a token, then forwards the request.
func (r *RateLimited) Infer(ctx context.Context, messages []Message, schema json.RawMessage) (string, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("waiting for rate limiter: %w", err)
	}
	return r.Client.Infer(ctx, messages, schema)
}
