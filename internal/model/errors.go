package model

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrDuplicate is returned when the (organization, url) dedup key is taken.
	ErrDuplicate = errors.New("posting already exists")
	// ErrNotFound is returned when no posting has the requested ID.
	ErrNotFound = errors.New("posting not found")
)

// HTTPError wraps an HTTP status code so retry logic can inspect it.
type HTTPError struct {
	StatusCode int
	RetryAfter time.Duration // from Retry-After header, zero if absent
	Err        error
}

func (e *HTTPError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("HTTP %d: %v", e.StatusCode, e.Err)
	}
	return fmt.Sprintf("HTTP %d", e.StatusCode)
}

func (e *HTTPError) Unwrap() error {
	return e.Err
}
