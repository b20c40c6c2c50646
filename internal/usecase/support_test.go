package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"MediaScan/internal/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

type fakeAdapter struct {
	name  string
	group string
	items []domain.ContentItem
	err   error
}

func (f *fakeAdapter) Name() string  { return f.name }
func (f *fakeAdapter) Group() string { return f.group }

func (f *fakeAdapter) Fetch(ctx context.Context, since time.Time, limit int) ([]domain.ContentItem, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.items, nil
}

type fakeClassifier struct {
	category string
}

func (f *fakeClassifier) Classify(ctx context.Context, title, body string) string {
	if f.category == "" {
		return "Autres"
	}
	return f.category
}

type fakeContentStore struct {
	mu         sync.Mutex
	mediaIDs   map[string]string
	existing   map[string]bool
	inserted   []domain.ContentItem
	engagement map[string]domain.Engagement
	lastDates  map[string]time.Time
	pubDays    map[string]int
	unreviewed []domain.ContentItem
	reviews    []domain.QualityReview
	insertErr  error
}

func newFakeContentStore() *fakeContentStore {
	return &fakeContentStore{
		mediaIDs:   map[string]string{},
		existing:   map[string]bool{},
		engagement: map[string]domain.Engagement{},
		lastDates:  map[string]time.Time{},
		pubDays:    map[string]int{},
	}
}

func (f *fakeContentStore) MediaIDs(ctx context.Context) (map[string]string, error) {
	return f.mediaIDs, nil
}

func (f *fakeContentStore) ExistsByURL(ctx context.Context, url string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.existing[url], nil
}

func (f *fakeContentStore) InsertItem(ctx context.Context, item domain.ContentItem, mediaID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.insertErr != nil {
		return f.insertErr
	}
	if f.existing[item.URL] {
		return fmt.Errorf("insert item %s: %w", item.ID, domain.ErrDuplicate)
	}
	f.existing[item.URL] = true
	f.inserted = append(f.inserted, item)
	return nil
}

func (f *fakeContentStore) UpsertEngagement(ctx context.Context, itemID string, e domain.Engagement, kind domain.Kind, platform domain.Platform) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.engagement[itemID] = e
	return nil
}

func (f *fakeContentStore) LastItemDate(ctx context.Context, mediaID string) (time.Time, error) {
	return f.lastDates[mediaID], nil
}

func (f *fakeContentStore) PublicationDays(ctx context.Context, mediaID string, since time.Time) (int, error) {
	return f.pubDays[mediaID], nil
}

func (f *fakeContentStore) UnreviewedItems(ctx context.Context, limit int) ([]domain.ContentItem, error) {
	if limit < len(f.unreviewed) {
		return f.unreviewed[:limit], nil
	}
	return f.unreviewed, nil
}

func (f *fakeContentStore) SaveReview(ctx context.Context, review domain.QualityReview) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reviews = append(f.reviews, review)
	return nil
}

func (f *fakeContentStore) Close() error { return nil }

type fakeStateStore struct {
	mu            sync.Mutex
	running       bool
	runID         string
	startedAt     time.Time
	stages        []string
	history       []domain.RunRecord
	notifications []domain.Notification
	watermarks    map[string]time.Time
	nextID        int64
}

func newFakeStateStore() *fakeStateStore {
	return &fakeStateStore{watermarks: map[string]time.Time{}}
}

func (f *fakeStateStore) TryStartRun(runID string, now time.Time, staleAfter time.Duration) (bool, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	forced := false
	if f.running {
		if now.Sub(f.startedAt) < staleAfter {
			return false, false, nil
		}
		forced = true
	}
	f.running = true
	f.runID = runID
	f.startedAt = now
	return true, forced, nil
}

func (f *fakeStateStore) FinishRun(run domain.RunRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.running = false
	f.runID = ""
	f.history = append([]domain.RunRecord{run}, f.history...)
	return nil
}

func (f *fakeStateStore) SetProgress(stage string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stages = append(f.stages, stage)
	return nil
}

func (f *fakeStateStore) State() (domain.RunState, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	st := domain.RunState{Running: f.running, RunID: f.runID, StartedAt: f.startedAt}
	if len(f.history) > 0 {
		last := f.history[0]
		st.LastRun = &last
		st.LastRunAt = last.CompletedAt
	}
	return st, nil
}

func (f *fakeStateStore) Push(n domain.Notification) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	n.ID = f.nextID
	f.notifications = append([]domain.Notification{n}, f.notifications...)
	if len(f.notifications) > 20 {
		f.notifications = f.notifications[:20]
	}
	return nil
}

func (f *fakeStateStore) Notifications(limit int) ([]domain.Notification, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if limit <= 0 || limit > len(f.notifications) {
		limit = len(f.notifications)
	}
	out := make([]domain.Notification, limit)
	copy(out, f.notifications[:limit])
	return out, nil
}

func (f *fakeStateStore) MarkRead(id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.notifications {
		if f.notifications[i].ID == id {
			f.notifications[i].Read = true
			return nil
		}
	}
	return fmt.Errorf("notification %d not found", id)
}

func (f *fakeStateStore) History(offset, limit int) ([]domain.RunRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if offset >= len(f.history) {
		return nil, nil
	}
	end := offset + limit
	if limit <= 0 || end > len(f.history) {
		end = len(f.history)
	}
	out := make([]domain.RunRecord, end-offset)
	copy(out, f.history[offset:end])
	return out, nil
}

func (f *fakeStateStore) Watermark(source string) (time.Time, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ts, ok := f.watermarks[source]
	return ts, ok, nil
}

func (f *fakeStateStore) AdvanceWatermark(source string, ts time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if cur, ok := f.watermarks[source]; ok && !ts.After(cur) {
		return nil
	}
	f.watermarks[source] = ts
	return nil
}

func (f *fakeStateStore) hasNotification(kind domain.NotificationKind, titlePart string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, n := range f.notifications {
		if n.Kind == kind && strings.Contains(n.Title, titlePart) {
			return true
		}
	}
	return false
}
