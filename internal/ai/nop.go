package ai

import (
	"context"
	"errors"
)

// ErrDisabled is returned by NopProvider; it always triggers the fallback path.
var ErrDisabled = errors.New("llm disabled: no api key configured")

// NopProvider is used when no credential is configured.
// It makes no network calls.
type NopProvider struct{}

// NewNopProvider returns a NopProvider.
func NewNopProvider() *NopProvider {
	return &NopProvider{}
}

// Complete always fails with ErrDisabled.
func (n *NopProvider) Complete(_ context.Context, _ Completion) (string, error) {
	return "", ErrDisabled
}
