package ai

import (
	"context"
	"errors"
	"time"
)

// ErrProviderUnavailable marks any failure to reach or get a usable answer
// from an external model provider. Call sites recover with deterministic
// fallback content instead of halting the session.
var ErrProviderUnavailable = errors.New("model provider unavailable")

// DefaultCallTimeout bounds a single provider round trip.
const DefaultCallTimeout = 90 * time.Second

// ChatProvider produces a single free-text completion for a prompt.
type ChatProvider interface {
	GenerateContent(ctx context.Context, prompt string) (string, error)
	Model() string
}

// Embedder turns text into a vector suitable for cosine comparison.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// CallContext derives a context with the provider call timeout applied.
// A non-positive timeout falls back to DefaultCallTimeout.
func CallContext(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		timeout = DefaultCallTimeout
	}
	return context.WithTimeout(ctx, timeout)
}

// Unavailable wraps a provider error with ErrProviderUnavailable so callers
// can match the whole class with errors.Is.
func Unavailable(err error) error {
	if err == nil {
		return nil
	}
	return errors.Join(ErrProviderUnavailable, err)
}
