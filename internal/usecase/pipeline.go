package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"MediaScan/internal/domain"
	"MediaScan/internal/ports"
	"MediaScan/internal/watermark"
)

// GroupRunner executes the ingestion workflow for one source group.
type GroupRunner interface {
	Group() string
	Run(ctx context.Context, now time.Time, progress func(stage string)) domain.GroupResult
}

// GroupPipeline runs fetch, classify, clean, validate and persist for
// every source of one group. A failing source is isolated; the rest of
// the group still runs.
type GroupPipeline struct {
	group      string
	adapters   []ports.SourceAdapter
	classifier ports.Classifier
	store      ports.ContentStore
	persister  *Persister
	tracker    *watermark.Tracker
	fetchLimit int
	log        *slog.Logger
}

var _ GroupRunner = (*GroupPipeline)(nil)

// PipelineDeps wires all driven adapters into one group pipeline.
type PipelineDeps struct {
	Group      string
	Adapters   []ports.SourceAdapter
	Classifier ports.Classifier
	Store      ports.ContentStore
	Tracker    *watermark.Tracker
	FetchLimit int
	Logger     *slog.Logger
}

// NewGroupPipeline constructs the ingestion workflow for one group.
func NewGroupPipeline(deps PipelineDeps) *GroupPipeline {
	return &GroupPipeline{
		group:      deps.Group,
		adapters:   deps.Adapters,
		classifier: deps.Classifier,
		store:      deps.Store,
		persister:  NewPersister(deps.Store, deps.Logger),
		tracker:    deps.Tracker,
		fetchLimit: deps.FetchLimit,
		log:        deps.Logger.With("component", "pipeline", "group", deps.Group),
	}
}

// Group names the source group this pipeline serves.
func (p *GroupPipeline) Group() string { return p.group }

// Run executes the full workflow and reports aggregate counters.
func (p *GroupPipeline) Run(ctx context.Context, now time.Time, progress func(stage string)) domain.GroupResult {
	result := domain.GroupResult{
		Group:    p.group,
		BySource: map[string]*domain.SourceStats{},
	}
	if progress == nil {
		progress = func(string) {}
	}

	progress(p.group + ":fetching")
	mediaIDs, err := p.store.MediaIDs(ctx)
	if err != nil {
		result.Err = fmt.Sprintf("load media ids: %v", err)
		return result
	}

	for _, adapter := range p.adapters {
		if ctx.Err() != nil {
			result.Err = ctx.Err().Error()
			return result
		}
		p.runSource(ctx, adapter, mediaIDs, progress, &result)
	}

	return result
}

func (p *GroupPipeline) runSource(ctx context.Context, adapter ports.SourceAdapter, mediaIDs map[string]string, progress func(string), result *domain.GroupResult) {
	name := adapter.Name()
	stats := &domain.SourceStats{}
	result.BySource[name] = stats

	mediaID := resolveMedia(name, mediaIDs)
	since, err := p.tracker.Since(ctx, name, mediaID)
	if err != nil {
		p.log.Error("watermark lookup failed", "source", name, "error", err)
		stats.Errors++
		result.Errors++
		return
	}

	raw, err := adapter.Fetch(ctx, since, p.fetchLimit)
	if err != nil {
		p.log.Error("fetch failed", "source", name, "error", err)
		stats.Errors++
		result.Errors++
		return
	}
	stats.Scraped = len(raw)
	result.Scraped += len(raw)
	p.log.Debug("source fetched", "source", name, "items", len(raw), "since", since.Format("2006-01-02"))

	progress(p.group + ":classifying")
	for i := range raw {
		if raw[i].Category == "" {
			raw[i].Category = p.classifier.Classify(ctx, raw[i].Title, raw[i].Body)
		}
	}

	progress(p.group + ":cleaning")
	cleaned := Clean(raw)
	if report := RejectionReport(cleaned.Dropped); report != "" {
		p.log.Info("items dropped during cleaning", "source", name, "report", report)
	}
	if cleaned.Duplicates > 0 {
		p.log.Debug("in-batch duplicates collapsed", "source", name, "count", cleaned.Duplicates)
	}

	progress(p.group + ":persisting")
	var rejected []Rejection
	newest := time.Time{}
	for _, item := range cleaned.Items {
		itemMediaID, reason := ValidateItem(item, mediaIDs)
		if reason != "" {
			rejected = append(rejected, Rejection{Item: item, Reason: reason})
			continue
		}

		if !watermark.IsFresh(since, item.PublishedAt) {
			continue
		}

		outcome, err := p.persister.Upsert(ctx, item, itemMediaID)
		switch outcome {
		case OutcomeInserted:
			stats.Inserted++
			result.Inserted++
		case OutcomeSkipped:
			stats.Skipped++
			result.Skipped++
		case OutcomeError:
			p.log.Error("persist failed", "source", name, "item", item.ID, "error", err)
			stats.Errors++
			result.Errors++
			continue
		}

		if item.PublishedAt.After(newest) {
			newest = item.PublishedAt
		}
		if item.PublishedAt.After(stats.LastItemAt) {
			stats.LastItemAt = item.PublishedAt
		}
	}

	if report := RejectionReport(rejected); report != "" {
		p.log.Info("items rejected during validation", "source", name, "report", report)
	}

	if err := p.tracker.Advance(name, newest); err != nil {
		p.log.Warn("watermark advance failed", "source", name, "error", err)
	}
}
