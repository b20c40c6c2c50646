package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"MediaScan/internal/domain"
	"MediaScan/internal/ports"
)

const (
	regularityWindowDays = 90
	minRegularity        = 0.25
	silenceThreshold     = 48 * time.Hour
)

// AnomalyChecker watches publication patterns across the configured
// sources and raises alerts for silent or irregular ones. Alerts repeat
// at most once per calendar day per source.
type AnomalyChecker struct {
	store   ports.ContentStore
	state   ports.RunStateStore
	sources []string
	log     *slog.Logger

	lastAlerted map[string]string
}

// NewAnomalyChecker wires the stores and the source names to watch.
func NewAnomalyChecker(store ports.ContentStore, state ports.RunStateStore, sources []string, log *slog.Logger) *AnomalyChecker {
	return &AnomalyChecker{
		store:       store,
		state:       state,
		sources:     sources,
		log:         log.With("component", "anomaly"),
		lastAlerted: map[string]string{},
	}
}

// Check inspects every watched source once.
func (a *AnomalyChecker) Check(ctx context.Context, now time.Time) error {
	mediaIDs, err := a.store.MediaIDs(ctx)
	if err != nil {
		return fmt.Errorf("load media ids: %w", err)
	}

	raised := 0
	for _, source := range a.sources {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		mediaID := resolveMedia(source, mediaIDs)
		if mediaID == "" {
			a.log.Debug("source has no media mapping", "source", source)
			continue
		}

		if a.checkSilence(ctx, source, mediaID, now) {
			raised++
		}
		if a.checkRegularity(ctx, source, mediaID, now) {
			raised++
		}
	}

	if raised > 0 {
		a.push(domain.NotifyInfo, "Alertes",
			fmt.Sprintf("%d nouvelles alertes détectées.", raised), now)
	}
	return nil
}

func (a *AnomalyChecker) checkSilence(ctx context.Context, source, mediaID string, now time.Time) bool {
	last, err := a.store.LastItemDate(ctx, mediaID)
	if err != nil {
		a.log.Warn("cannot read last item date", "source", source, "error", err)
		return false
	}
	if last.IsZero() || now.Sub(last) < silenceThreshold {
		return false
	}

	return a.alert(source+":silence", now, "Source silencieuse",
		fmt.Sprintf("%s n'a rien publié depuis %s.", source, last.Format("2006-01-02")))
}

func (a *AnomalyChecker) checkRegularity(ctx context.Context, source, mediaID string, now time.Time) bool {
	days, err := a.store.PublicationDays(ctx, mediaID, now.AddDate(0, 0, -regularityWindowDays))
	if err != nil {
		a.log.Warn("cannot compute publication days", "source", source, "error", err)
		return false
	}

	ratio := float64(days) / float64(regularityWindowDays)
	if days == 0 || ratio >= minRegularity {
		return false
	}

	return a.alert(source+":regularity", now, "Publication irrégulière",
		fmt.Sprintf("%s: %d jours de publication sur %d (%.0f%%).", source, days, regularityWindowDays, ratio*100))
}

// alert pushes one alert notification, at most once per key and calendar
// day. It reports whether the alert was actually pushed.
func (a *AnomalyChecker) alert(key string, now time.Time, title, message string) bool {
	day := now.UTC().Format("2006-01-02")
	if a.lastAlerted[key] == day {
		return false
	}
	a.lastAlerted[key] = day

	if !a.push(domain.NotifyAlert, title, message, now) {
		return false
	}
	a.log.Info("anomaly alert raised", "title", title, "message", message)
	return true
}

func (a *AnomalyChecker) push(kind domain.NotificationKind, title, message string, now time.Time) bool {
	err := a.state.Push(domain.Notification{
		Kind:      kind,
		Title:     title,
		Message:   message,
		CreatedAt: now.UTC(),
	})
	if err != nil {
		a.log.Warn("cannot push notification", "title", title, "error", err)
		return false
	}
	return true
}
