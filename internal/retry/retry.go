package retry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"time"

	"github.com/amishk599/acadjobs/internal/model"
)

// Policy describes how transient failures are retried.
// MaxRetries is the number of additional attempts after the first failure.
// BaseDelay is the delay before the first retry, doubled on each subsequent retry.
type Policy struct {
	MaxRetries int
	BaseDelay  time.Duration
}

// DefaultPolicy retries twice, starting at 5s.
var DefaultPolicy = Policy{MaxRetries: 2, BaseDelay: 5 * time.Second}

// Do runs op, retrying transient errors with exponential backoff and jitter.
func Do[T any](ctx context.Context, p Policy, logger *slog.Logger, op func(context.Context) (T, error)) (T, error) {
	var zero T

	v, err := op(ctx)
	if err == nil {
		return v, nil
	}
	if !IsRetryable(err) {
		return zero, err
	}

	lastErr := err
	for attempt := 1; attempt <= p.MaxRetries; attempt++ {
		delay := p.backoffDelay(attempt, lastErr)

		logger.Warn("retrying after transient error",
			"attempt", attempt,
			"max_retries", p.MaxRetries,
			"delay", delay,
			"error", lastErr,
		)

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return zero, fmt.Errorf("retry cancelled: %w", ctx.Err())
		case <-timer.C:
		}

		v, err = op(ctx)
		if err == nil {
			return v, nil
		}
		if !IsRetryable(err) {
			return zero, err
		}
		lastErr = err
	}

	return zero, lastErr
}

// backoffDelay computes the delay for a given attempt with ±30% jitter.
// A Retry-After carried by an HTTP 429/503 takes precedence.
func (p Policy) backoffDelay(attempt int, err error) time.Duration {
	var httpErr *model.HTTPError
	if errors.As(err, &httpErr) && httpErr.RetryAfter > 0 {
		return httpErr.RetryAfter
	}

	delay := p.BaseDelay
	for i := 1; i < attempt; i++ {
		delay *= 2
	}

	jitter := float64(delay) * 0.3
	return time.Duration(float64(delay) + (rand.Float64()*2-1)*jitter)
}

// IsRetryable reports whether err is a transient failure worth retrying:
// network errors, 429 and 5xx. Cancellation and other 4xx are final.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var httpErr *model.HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.StatusCode == http.StatusTooManyRequests || httpErr.StatusCode >= 500
	}
	return true
}

// RetryFetcher is a decorator that retries transient failures of the wrapped
// SourceFetcher.
type RetryFetcher struct {
	inner  model.SourceFetcher
	policy Policy
	logger *slog.Logger
}

// NewRetryFetcher wraps a SourceFetcher with retry logic.
func NewRetryFetcher(inner model.SourceFetcher, policy Policy, logger *slog.Logger) *RetryFetcher {
	return &RetryFetcher{
		inner:  inner,
		policy: policy,
		logger: logger,
	}
}

func (f *RetryFetcher) FetchCandidates(ctx context.Context) ([]model.Candidate, error) {
	return Do(ctx, f.policy, f.logger, f.inner.FetchCandidates)
}
