// Package providers holds the LLM completion boundary: a narrow Completer
// contract plus adapters for the supported backends and a fallback chain.
package providers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
)

// ErrProviderUnavailable wraps any backend failure so callers can branch on
// it without knowing which SDK produced the error.
var ErrProviderUnavailable = errors.New("completion provider unavailable")

// Completion defaults shared by all backends.
const (
	defaultTemperature = 0.3
	defaultMaxTokens   = 1500
)

// Completer produces a text answer for a system prompt plus user prompt.
type Completer interface {
	// Complete returns generated text, or an error wrapping
	// ErrProviderUnavailable when the backend cannot serve the request.
	Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error)
	// Name identifies the backend for logs and source attribution.
	Name() string
}

// Chain tries each completer in order, falling through on failure. It only
// reports ErrProviderUnavailable when every backend has failed.
type Chain struct {
	completers []Completer
	log        *slog.Logger
}

func NewChain(log *slog.Logger, completers ...Completer) *Chain {
	if log == nil {
		log = slog.Default()
	}
	return &Chain{completers: completers, log: log}
}

func (c *Chain) Name() string { return "chain" }

// Empty reports whether no backend is configured at all.
func (c *Chain) Empty() bool { return len(c.completers) == 0 }

func (c *Chain) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	if len(c.completers) == 0 {
		return "", fmt.Errorf("%w: no completers configured", ErrProviderUnavailable)
	}

	var lastErr error
	for _, completer := range c.completers {
		text, err := completer.Complete(ctx, systemPrompt, userPrompt)
		if err == nil {
			return text, nil
		}
		lastErr = err
		c.log.Warn("completion failed, trying next provider",
			"provider", completer.Name(), "error", err)
		if ctx.Err() != nil {
			break
		}
	}
	return "", fmt.Errorf("%w: all providers failed: %v", ErrProviderUnavailable, lastErr)
}
