package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"MediaScan/internal/ports"
)

// Reviewer scores recently stored items that have no quality review yet.
// It runs out of band so scoring failures never affect ingestion.
type Reviewer struct {
	store  ports.ContentStore
	scorer ports.Scorer
	batch  int
	log    *slog.Logger
}

// NewReviewer wires the content store and the scoring backend.
func NewReviewer(store ports.ContentStore, scorer ports.Scorer, batch int, log *slog.Logger) *Reviewer {
	if batch <= 0 {
		batch = 10
	}
	return &Reviewer{
		store:  store,
		scorer: scorer,
		batch:  batch,
		log:    log.With("component", "reviewer"),
	}
}

// Process scores one batch of unreviewed items.
func (r *Reviewer) Process(ctx context.Context) error {
	items, err := r.store.UnreviewedItems(ctx, r.batch)
	if err != nil {
		return fmt.Errorf("load unreviewed: %w", err)
	}
	if len(items) == 0 {
		return nil
	}

	scored := 0
	for _, item := range items {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		review, err := r.scorer.Score(ctx, item)
		if err != nil {
			r.log.Warn("scoring failed", "item", item.ID, "error", err)
			continue
		}
		if err := r.store.SaveReview(ctx, review); err != nil {
			r.log.Error("cannot save review", "item", item.ID, "error", err)
			continue
		}
		scored++
	}

	r.log.Info("review batch done", "items", len(items), "scored", scored)
	return nil
}
