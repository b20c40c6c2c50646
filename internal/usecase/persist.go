package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"MediaScan/internal/domain"
	"MediaScan/internal/ports"
)

// Outcome tells what happened to one item during persistence.
type Outcome int

const (
	OutcomeInserted Outcome = iota
	OutcomeSkipped
	OutcomeError
)

// Persister writes validated items into the content store. Re-ingesting
// an existing URL refreshes its engagement counters instead of failing.
type Persister struct {
	store ports.ContentStore
	log   *slog.Logger
}

// NewPersister wires the content store.
func NewPersister(store ports.ContentStore, log *slog.Logger) *Persister {
	return &Persister{store: store, log: log.With("component", "persist")}
}

// Upsert stores one item and its engagement row.
func (p *Persister) Upsert(ctx context.Context, item domain.ContentItem, mediaID string) (Outcome, error) {
	item = PrepareForStorage(item)

	exists, err := p.store.ExistsByURL(ctx, item.URL)
	if err != nil {
		return OutcomeError, fmt.Errorf("check url %s: %w", item.URL, err)
	}
	if exists {
		if err := p.store.UpsertEngagement(ctx, item.ID, item.Engagement, item.Kind, item.Platform); err != nil {
			p.log.Warn("engagement refresh failed", "item", item.ID, "error", err)
		}
		return OutcomeSkipped, nil
	}

	err = p.store.InsertItem(ctx, item, mediaID)
	switch {
	case err == nil:
	case errors.Is(err, domain.ErrDuplicate):
		// Lost a race with a concurrent writer; treat like the pre-check hit.
		if refreshErr := p.store.UpsertEngagement(ctx, item.ID, item.Engagement, item.Kind, item.Platform); refreshErr != nil {
			p.log.Warn("engagement refresh failed", "item", item.ID, "error", refreshErr)
		}
		return OutcomeSkipped, nil
	default:
		return OutcomeError, err
	}

	if err := p.store.UpsertEngagement(ctx, item.ID, item.Engagement, item.Kind, item.Platform); err != nil {
		return OutcomeError, fmt.Errorf("engagement for %s: %w", item.ID, err)
	}

	return OutcomeInserted, nil
}
