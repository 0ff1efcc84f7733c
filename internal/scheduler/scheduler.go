package scheduler

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/amishk599/acadjobs/internal/enricher"
	"github.com/amishk599/acadjobs/internal/ingest"
)

// Poller runs one ingestion cycle for a source.
type Poller interface {
	Poll(ctx context.Context) (ingest.PollResult, error)
}

// Source is a scheduled poller. Sources sharing a Group (the host they
// fetch from) are polled one after another; groups run concurrently.
type Source struct {
	Name   string
	Group  string
	Poller Poller
}

// PassRunner runs one bounded enrichment pass.
type PassRunner interface {
	RunPass(ctx context.Context, batchSize int) (enricher.PassResult, error)
}

// Locker guards a pass against overlapping runs in other processes.
type Locker interface {
	Acquire() error
	Release() error
}

// Options configures the two loops.
type Options struct {
	PollInterval   time.Duration
	MinDelay       time.Duration // pause between sources of one group
	EnrichInterval time.Duration
	BatchSize      int
}

// CycleResult aggregates one ingestion cycle over every source.
type CycleResult struct {
	ingest.PollResult
	Sources int
	Failed  int
}

// Scheduler owns the daemon loops: ingestion every PollInterval and
// enrichment every EnrichInterval.
type Scheduler struct {
	sources  []Source
	enricher PassRunner
	lock     Locker
	opts     Options
	logger   *slog.Logger
}

// NewScheduler wires a scheduler. enr and lock may be nil: without an
// enricher only ingestion runs, without a lock passes are not guarded.
func NewScheduler(sources []Source, enr PassRunner, lock Locker, opts Options, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		sources:  sources,
		enricher: enr,
		lock:     lock,
		opts:     opts,
		logger:   logger,
	}
}

// Run starts both loops. Each runs one immediate cycle, then waits its
// interval. It returns nil when ctx is cancelled (graceful shutdown).
func (s *Scheduler) Run(ctx context.Context) error {
	s.logger.Info("starting scheduler",
		"poll_interval", s.opts.PollInterval.String(),
		"enrich_interval", s.opts.EnrichInterval.String(),
		"sources", len(s.sources),
	)

	g, ctx := errgroup.WithContext(ctx)
	if len(s.sources) > 0 {
		g.Go(func() error {
			return s.loop(ctx, s.opts.PollInterval, func(ctx context.Context) { s.RunIngestCycle(ctx) })
		})
	}
	if s.enricher != nil {
		g.Go(func() error {
			return s.loop(ctx, s.opts.EnrichInterval, func(ctx context.Context) { s.RunEnrichPass(ctx) })
		})
	}
	err := g.Wait()
	s.logger.Info("shutting down scheduler")
	return err
}

func (s *Scheduler) loop(ctx context.Context, interval time.Duration, run func(context.Context)) error {
	run(ctx)
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(interval):
			run(ctx)
		}
	}
}

// RunIngestCycle polls every source once. A failing source is logged and
// the rest of its group continues.
func (s *Scheduler) RunIngestCycle(ctx context.Context) CycleResult {
	var (
		mu    sync.Mutex
		total CycleResult
	)

	var g errgroup.Group
	for _, group := range s.groupByHost() {
		g.Go(func() error {
			for i, src := range group {
				if ctx.Err() != nil {
					return nil
				}
				if i > 0 && s.opts.MinDelay > 0 {
					select {
					case <-ctx.Done():
						return nil
					case <-time.After(s.opts.MinDelay):
					}
				}

				res, err := src.Poller.Poll(ctx)

				mu.Lock()
				total.Sources++
				total.Fetched += res.Fetched
				total.Matched += res.Matched
				total.Inserted += res.Inserted
				if err != nil {
					total.Failed++
				}
				mu.Unlock()

				if err != nil {
					s.logger.Error("poll failed", "source", src.Name, "error", err)
					continue
				}
				s.logger.Info("source polled",
					"source", src.Name,
					"fetched", res.Fetched,
					"matched", res.Matched,
					"inserted", res.Inserted,
				)
			}
			return nil
		})
	}
	_ = g.Wait()

	s.logger.Info("ingest cycle complete",
		"sources", total.Sources,
		"failed", total.Failed,
		"inserted", total.Inserted,
	)
	return total
}

// RunEnrichPass runs one pass under the lock. A pass already running in
// another process is skipped and reported as enricher.ErrPassInProgress.
func (s *Scheduler) RunEnrichPass(ctx context.Context) (enricher.PassResult, error) {
	if s.enricher == nil {
		return enricher.PassResult{}, nil
	}
	if s.lock != nil {
		if err := s.lock.Acquire(); err != nil {
			if errors.Is(err, enricher.ErrPassInProgress) {
				s.logger.Info("skipping enrichment pass", "reason", err)
			} else {
				s.logger.Error("acquiring enrichment lock", "error", err)
			}
			return enricher.PassResult{}, err
		}
		defer func() {
			if err := s.lock.Release(); err != nil {
				s.logger.Warn("releasing enrichment lock", "error", err)
			}
		}()
	}

	res, err := s.enricher.RunPass(ctx, s.opts.BatchSize)
	if err != nil && ctx.Err() == nil {
		s.logger.Error("enrichment pass failed", "error", err, "processed", res.Processed)
	}
	return res, err
}

// groupByHost splits sources by Group, keeping configuration order inside
// each group.
func (s *Scheduler) groupByHost() map[string][]Source {
	groups := make(map[string][]Source)
	for _, src := range s.sources {
		groups[src.Group] = append(groups[src.Group], src)
	}
	return groups
}
