package enricher

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/amishk599/acadjobs/internal/model"
)

// PaceKey is the pacer key shared by all LLM-bound enrichment calls.
const PaceKey = "llm"

// DefaultBatchSize is used when RunPass is given a non-positive batch size.
const DefaultBatchSize = 10

// Pacer spaces out consecutive enrichment records. Wait blocks until the
// pacing interval has passed since the last Done for key.
type Pacer interface {
	Wait(ctx context.Context, key string) error
	Done(key string)
}

// PassResult counts the outcome of one enrichment pass. Processed excludes
// failed records.
type PassResult struct {
	Selected  int
	Processed int
	Failed    int
}

// BatchEnricher fills in summaries (and missing categories) for stored
// postings, one bounded batch per pass.
type BatchEnricher struct {
	store      model.PostingStore
	summarizer model.Summarizer
	classifier model.Classifier
	pacer      Pacer
	logger     *slog.Logger
}

// NewBatchEnricher wires an enricher.
func NewBatchEnricher(
	store model.PostingStore,
	summarizer model.Summarizer,
	classifier model.Classifier,
	pacer Pacer,
	logger *slog.Logger,
) *BatchEnricher {
	return &BatchEnricher{
		store:      store,
		summarizer: summarizer,
		classifier: classifier,
		pacer:      pacer,
		logger:     logger,
	}
}

// RunPass enriches up to batchSize active postings that have no summary yet,
// oldest first. Record-level failures are logged and counted; the pass only
// returns an error when storage is unreachable or ctx ends, in which case the
// partial result is returned alongside it.
func (e *BatchEnricher) RunPass(ctx context.Context, batchSize int) (PassResult, error) {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}

	var res PassResult
	start := time.Now()

	pending, err := e.store.Find(ctx, model.Query{
		Filter: model.Filter{ActiveOnly: true, MissingSummary: true},
		Order:  model.OldestFirst,
		Limit:  batchSize,
	})
	if err != nil {
		return res, fmt.Errorf("selecting postings to enrich: %w", err)
	}
	res.Selected = len(pending)

	for _, p := range pending {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		if err := e.pacer.Wait(ctx, PaceKey); err != nil {
			return res, err
		}

		err := e.enrichOne(ctx, p)
		e.pacer.Done(PaceKey)
		if err != nil {
			res.Failed++
			e.logger.Error("enriching posting", "posting_id", p.ID, "title", p.Title, "error", err)

			if pingErr := e.store.Ping(ctx); pingErr != nil {
				return res, fmt.Errorf("storage unreachable during enrichment: %w", pingErr)
			}
			continue
		}
		res.Processed++
		e.logger.Debug("enriched posting", "posting_id", p.ID, "title", p.Title)
	}

	e.logger.Info("enrichment pass finished",
		"selected", res.Selected,
		"processed", res.Processed,
		"failed", res.Failed,
		"duration", time.Since(start).Round(time.Millisecond),
	)
	return res, nil
}

// enrichOne summarizes p, classifies it when its category is still open,
// and writes both in a single update. A panic is turned into an error.
func (e *BatchEnricher) enrichOne(ctx context.Context, p model.Posting) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic enriching posting %s: %v", p.ID, r)
		}
	}()

	summary := e.summarizer.Summarize(ctx, p.Title, p.Description, p.Organization)
	patch := model.Patch{Summary: &summary}

	if p.Category.NeedsClassification() {
		c := e.classifier.Classify(ctx, p.Title, p.Description)
		patch.Category = &c
	}

	if err := e.store.Update(ctx, p.ID, patch); err != nil {
		return fmt.Errorf("updating posting %s: %w", p.ID, err)
	}
	return nil
}
