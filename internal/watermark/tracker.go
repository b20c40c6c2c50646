// Package watermark decides how far back each source must be fetched and
// keeps per-source high-water marks from regressing.
package watermark

import (
	"context"
	"log/slog"
	"time"
)

// Store is the slice of the run-state store the tracker needs.
type Store interface {
	Watermark(source string) (time.Time, bool, error)
	AdvanceWatermark(source string, ts time.Time) error
}

// LastDateSource seeds first-run watermarks from the destination store.
type LastDateSource interface {
	LastItemDate(ctx context.Context, mediaID string) (time.Time, error)
}

// Tracker resolves the fetch-since timestamp for a source. When no
// watermark has been recorded yet it seeds one from the newest stored
// item for that media, and failing that from the default lookback.
type Tracker struct {
	state    Store
	content  LastDateSource
	lookback time.Duration
	log      *slog.Logger
}

// NewTracker builds a Tracker with a lookback expressed in days.
func NewTracker(state Store, content LastDateSource, lookbackDays int, log *slog.Logger) *Tracker {
	if lookbackDays <= 0 {
		lookbackDays = 7
	}
	return &Tracker{
		state:    state,
		content:  content,
		lookback: time.Duration(lookbackDays) * 24 * time.Hour,
		log:      log.With("component", "watermark"),
	}
}

// Since returns the timestamp items must be newer than for the source.
func (t *Tracker) Since(ctx context.Context, source, mediaID string) (time.Time, error) {
	ts, ok, err := t.state.Watermark(source)
	if err != nil {
		return time.Time{}, err
	}
	if ok {
		return ts, nil
	}

	if mediaID != "" {
		last, err := t.content.LastItemDate(ctx, mediaID)
		if err != nil {
			t.log.Warn("cannot seed watermark from store", "source", source, "error", err)
		} else if !last.IsZero() {
			return last, nil
		}
	}

	return time.Now().Add(-t.lookback), nil
}

// Advance records the newest publication timestamp seen in a run. The
// store ignores regressions, so callers may pass any observed value.
func (t *Tracker) Advance(source string, newest time.Time) error {
	if newest.IsZero() {
		return nil
	}
	return t.state.AdvanceWatermark(source, newest)
}

// IsFresh reports whether published falls on or after the watermark's
// calendar day. Day granularity keeps items published earlier the same
// day from being discarded.
func IsFresh(watermark, published time.Time) bool {
	if published.IsZero() {
		return false
	}
	if watermark.IsZero() {
		return true
	}
	wy, wm, wd := watermark.UTC().Date()
	py, pm, pd := published.UTC().Date()
	wDay := time.Date(wy, wm, wd, 0, 0, 0, 0, time.UTC)
	pDay := time.Date(py, pm, pd, 0, 0, 0, 0, time.UTC)
	return !pDay.Before(wDay)
}
