package enricher

import (
	"errors"
	"fmt"

	"github.com/gofrs/flock"
)

// ErrPassInProgress means another process holds the enrichment lock.
var ErrPassInProgress = errors.New("another enrichment pass is in progress")

// PassLock is an advisory file lock that keeps passes from overlapping
// across processes (the daemon and a manual `acadjobs enrich`).
type PassLock struct {
	fl *flock.Flock
}

func NewPassLock(path string) *PassLock {
	return &PassLock{fl: flock.New(path)}
}

// Acquire takes the lock without blocking. It returns ErrPassInProgress when
// the lock is held elsewhere.
func (l *PassLock) Acquire() error {
	ok, err := l.fl.TryLock()
	if err != nil {
		return fmt.Errorf("locking %s: %w", l.fl.Path(), err)
	}
	if !ok {
		return ErrPassInProgress
	}
	return nil
}

func (l *PassLock) Release() error {
	return l.fl.Unlock()
}
