package ports

import (
	"context"
	"time"

	"MediaScan/internal/domain"
)

// SourceAdapter pulls raw content for one source since a watermark.
// An empty result is success; adapters return an error only for hard
// transport failure, which the group pipeline isolates to that source.
type SourceAdapter interface {
	Name() string
	Group() string
	Fetch(ctx context.Context, since time.Time, limit int) ([]domain.ContentItem, error)
}

// Classifier assigns a topical category to an item. Implementations never
// return an error; unknown or failed classification yields the sentinel
// category instead.
type Classifier interface {
	Classify(ctx context.Context, title, body string) string
}

// Scorer produces an out-of-band quality review for a persisted item.
type Scorer interface {
	Score(ctx context.Context, item domain.ContentItem) (domain.QualityReview, error)
}

// ContentStore is the shared destination store for validated items.
type ContentStore interface {
	// MediaIDs maps source names (including normalized variants) to
	// destination media identifiers.
	MediaIDs(ctx context.Context) (map[string]string, error)
	ExistsByURL(ctx context.Context, url string) (bool, error)
	InsertItem(ctx context.Context, item domain.ContentItem, mediaID string) error
	UpsertEngagement(ctx context.Context, itemID string, e domain.Engagement, kind domain.Kind, platform domain.Platform) error
	// LastItemDate returns the newest publication timestamp stored for a
	// media, or the zero time when none exists.
	LastItemDate(ctx context.Context, mediaID string) (time.Time, error)
	// PublicationDays counts distinct calendar days with at least one item
	// since the given time, for the anomaly checker.
	PublicationDays(ctx context.Context, mediaID string, since time.Time) (int, error)
	UnreviewedItems(ctx context.Context, limit int) ([]domain.ContentItem, error)
	SaveReview(ctx context.Context, review domain.QualityReview) error
	Close() error
}

// RunStateStore owns the durable run state: singleton running flag,
// bounded notification feed, append-only run history and per-source
// watermarks.
type RunStateStore interface {
	// TryStartRun flips the running flag if no run is active, or if the
	// active flag is older than staleAfter (forced=true in that case).
	TryStartRun(runID string, now time.Time, staleAfter time.Duration) (started bool, forced bool, err error)
	FinishRun(run domain.RunRecord) error
	SetProgress(stage string) error
	State() (domain.RunState, error)
	Push(n domain.Notification) error
	Notifications(limit int) ([]domain.Notification, error)
	MarkRead(id int64) error
	History(offset, limit int) ([]domain.RunRecord, error)
	Watermark(source string) (time.Time, bool, error)
	AdvanceWatermark(source string, ts time.Time) error
}

// Notifier pushes run summaries to an outbound channel.
type Notifier interface {
	Publish(ctx context.Context, message string) error
}

// Scheduler controls when pipelines execute.
type Scheduler interface {
	Start(ctx context.Context, job func(time.Time)) error
	Stop(ctx context.Context) error
}
