package ai

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"
)

// ErrEmptyReply means the LLM answered with nothing usable.
var ErrEmptyReply = errors.New("llm returned an empty reply")

// Outcome is the tagged result of a best-effort LLM call: either generated
// text, or a signal that the caller must take its deterministic fallback.
type Outcome struct {
	Text     string
	Fallback bool
	Reason   error // why the fallback was triggered; nil for generated text
}

// Generated wraps text produced by the LLM.
func Generated(text string) Outcome {
	return Outcome{Text: text}
}

// UseFallback signals that the caller must use its rule-based path.
func UseFallback(reason error) Outcome {
	return Outcome{Fallback: true, Reason: reason}
}

// Capability is the optional LLM enrichment capability shared by the
// classifier and the summarizer.
type Capability struct {
	provider LLMProvider
	logger   *slog.Logger
}

// NewCapability wraps provider. A nil provider behaves like NopProvider.
func NewCapability(provider LLMProvider, logger *slog.Logger) *Capability {
	if provider == nil {
		provider = NewNopProvider()
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Capability{provider: provider, logger: logger}
}

// Enabled reports whether calls can reach a real LLM. A nil Capability is disabled.
func (c *Capability) Enabled() bool {
	if c == nil {
		return false
	}
	_, nop := c.provider.(*NopProvider)
	return !nop
}

// Try runs one completion bounded by timeout (0 means the caller's context
// only). Every failure, including an empty reply, becomes a fallback outcome.
func (c *Capability) Try(ctx context.Context, comp Completion, timeout time.Duration) Outcome {
	if !c.Enabled() {
		return UseFallback(ErrDisabled)
	}

	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	text, err := c.provider.Complete(ctx, comp)
	if err != nil {
		return UseFallback(err)
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return UseFallback(ErrEmptyReply)
	}
	return Generated(text)
}
