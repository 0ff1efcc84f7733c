package ingest

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/amishk599/acadjobs/internal/model"
)

// PollResult counts what one poll of a source did.
type PollResult struct {
	Fetched  int
	Matched  int
	Inserted int
}

// SourcePoller owns the ingestion pipeline for a single source:
// fetch → clean → filter → dedup insert → notify.
type SourcePoller struct {
	Name     string
	fetcher  model.SourceFetcher
	filter   model.CandidateFilter
	dedup    *Deduplicator
	notifier model.Notifier
	logger   *slog.Logger
}

// NewSourcePoller creates a poller wired with all its dependencies.
func NewSourcePoller(
	name string,
	fetcher model.SourceFetcher,
	filter model.CandidateFilter,
	dedup *Deduplicator,
	notifier model.Notifier,
	logger *slog.Logger,
) *SourcePoller {
	return &SourcePoller{
		Name:     name,
		fetcher:  fetcher,
		filter:   filter,
		dedup:    dedup,
		notifier: notifier,
		logger:   logger,
	}
}

// Poll runs one cycle. Postings are committed one by one, so a storage error
// part-way through keeps everything inserted before it.
func (p *SourcePoller) Poll(ctx context.Context) (PollResult, error) {
	var res PollResult

	candidates, err := p.fetcher.FetchCandidates(ctx)
	if err != nil {
		return res, fmt.Errorf("polling %s: %w", p.Name, err)
	}
	res.Fetched = len(candidates)

	var inserted []model.Posting
	for _, c := range candidates {
		c = CleanCandidate(c)
		if c.Title == "" || c.URL == "" || c.Organization == "" {
			p.logger.Debug("skipping incomplete candidate", "source", p.Name, "title", c.Title, "url", c.URL)
			continue
		}
		if !p.filter.Match(c) {
			continue
		}
		res.Matched++

		posting, ok, err := p.dedup.Insert(ctx, c)
		if err != nil {
			p.notifyInserted(inserted)
			res.Inserted = len(inserted)
			return res, fmt.Errorf("polling %s: %w", p.Name, err)
		}
		if ok {
			inserted = append(inserted, posting)
		}
	}
	res.Inserted = len(inserted)

	if len(inserted) > 0 {
		if err := p.notifier.Notify(inserted); err != nil {
			return res, fmt.Errorf("polling %s: notifying: %w", p.Name, err)
		}
	}

	p.logger.Info("polled source",
		"source", p.Name,
		"fetched", res.Fetched,
		"matched", res.Matched,
		"new", res.Inserted,
	)
	return res, nil
}

func (p *SourcePoller) notifyInserted(postings []model.Posting) {
	if len(postings) == 0 {
		return
	}
	if err := p.notifier.Notify(postings); err != nil {
		p.logger.Warn("notification failed", "source", p.Name, "error", err)
	}
}
