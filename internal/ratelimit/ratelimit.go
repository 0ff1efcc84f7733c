package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/amishk599/acadjobs/internal/model"
)

// Pacer enforces a minimum delay between consecutive calls sharing a key:
// a source host during ingestion, or the LLM during an enrichment pass.
type Pacer struct {
	mu       sync.Mutex
	lastCall map[string]time.Time
	minDelay time.Duration
}

// NewPacer creates a pacer that enforces minDelay between consecutive calls
// for the same key.
func NewPacer(minDelay time.Duration) *Pacer {
	return &Pacer{
		lastCall: make(map[string]time.Time),
		minDelay: minDelay,
	}
}

// Wait blocks until enough time has passed since the last call for key.
// The first call for a key never waits.
func (p *Pacer) Wait(ctx context.Context, key string) error {
	p.mu.Lock()
	last, ok := p.lastCall[key]
	now := time.Now()

	if !ok || now.Sub(last) >= p.minDelay {
		p.lastCall[key] = now
		p.mu.Unlock()
		return nil
	}

	remaining := p.minDelay - now.Sub(last)
	// Reserve the slot so concurrent callers queue behind this one.
	p.lastCall[key] = now.Add(remaining)
	p.mu.Unlock()

	timer := time.NewTimer(remaining)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return fmt.Errorf("pacer wait for %s: %w", key, ctx.Err())
	case <-timer.C:
	}
	return nil
}

// Done restarts the delay for key from now. Callers whose work outlasts
// minDelay use it so the next Wait still leaves a full gap after the work ends.
func (p *Pacer) Done(key string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if now := time.Now(); now.After(p.lastCall[key]) {
		p.lastCall[key] = now
	}
}

// RateLimitedFetcher waits on a shared Pacer before delegating to the wrapped
// SourceFetcher.
type RateLimitedFetcher struct {
	inner model.SourceFetcher
	pacer *Pacer
	key   string // usually the source host
}

// NewRateLimitedFetcher wraps a SourceFetcher. All fetchers that hit the same
// host should share the same pacer and key.
func NewRateLimitedFetcher(inner model.SourceFetcher, pacer *Pacer, key string) *RateLimitedFetcher {
	return &RateLimitedFetcher{
		inner: inner,
		pacer: pacer,
		key:   key,
	}
}

func (f *RateLimitedFetcher) FetchCandidates(ctx context.Context) ([]model.Candidate, error) {
	if err := f.pacer.Wait(ctx, f.key); err != nil {
		return nil, err
	}
	return f.inner.FetchCandidates(ctx)
}
