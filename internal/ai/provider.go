package ai

import "context"

// Completion is one prompt plus the sampling parameters to send with it.
type Completion struct {
	Prompt      string
	Temperature float64
	MaxTokens   int
}

// LLMProvider sends a prompt to an LLM and returns the raw text response.
// Used only through Capability; callers never see provider errors.
type LLMProvider interface {
	Complete(ctx context.Context, c Completion) (string, error)
}
