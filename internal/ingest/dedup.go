package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/amishk599/acadjobs/internal/model"
)

// Deduplicator inserts candidates as postings at most once per active
// (organization, url) pair.
type Deduplicator struct {
	store  model.PostingStore
	now    func() time.Time
	logger *slog.Logger
}

// NewDeduplicator creates a deduplicator backed by store.
func NewDeduplicator(store model.PostingStore, logger *slog.Logger) *Deduplicator {
	return &Deduplicator{
		store:  store,
		now:    time.Now,
		logger: logger,
	}
}

// IsDuplicate reports whether an active posting with exactly this
// organization and url already exists.
func (d *Deduplicator) IsDuplicate(ctx context.Context, organization, url string) (bool, error) {
	n, err := d.store.Count(ctx, model.Filter{
		ActiveOnly:   true,
		Organization: organization,
		URL:          url,
	})
	if err != nil {
		return false, fmt.Errorf("checking duplicate %s %s: %w", organization, url, err)
	}
	return n > 0, nil
}

// Insert stores c as a new unenriched posting. It returns inserted=false and
// no error when the posting already exists, including when a concurrent
// insert won the race at the storage layer.
func (d *Deduplicator) Insert(ctx context.Context, c model.Candidate) (model.Posting, bool, error) {
	dup, err := d.IsDuplicate(ctx, c.Organization, c.URL)
	if err != nil {
		return model.Posting{}, false, err
	}
	if dup {
		d.logger.Debug("skipping duplicate posting", "organization", c.Organization, "url", c.URL)
		return model.Posting{}, false, nil
	}

	p := model.Posting{
		ID:           uuid.NewString(),
		Title:        c.Title,
		Organization: c.Organization,
		Description:  c.Description,
		URL:          c.URL,
		Location:     c.Location,
		Deadline:     c.Deadline,
		Category:     model.NormalizeCategory(c.Category),
		CreatedAt:    d.now().UTC(),
		Active:       true,
	}

	if err := d.store.Insert(ctx, p); err != nil {
		if errors.Is(err, model.ErrDuplicate) {
			d.logger.Debug("posting inserted concurrently", "organization", c.Organization, "url", c.URL)
			return model.Posting{}, false, nil
		}
		return model.Posting{}, false, fmt.Errorf("inserting posting for %s: %w", c.Organization, err)
	}
	return p, true, nil
}
