package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"MediaScan/internal/domain"
	"MediaScan/internal/ports"
)

// ErrAlreadyRunning is returned when a trigger arrives while a run holds
// the flag and the flag is not stale yet.
var ErrAlreadyRunning = errors.New("a run is already in progress")

// Coordinator serializes pipeline runs through the persisted running
// flag, fans the group pipelines out concurrently and records the
// outcome in history and the notification feed.
type Coordinator struct {
	state     ports.RunStateStore
	groups    []GroupRunner
	notifier  ports.Notifier
	staleLock time.Duration
	log       *slog.Logger
}

// NewCoordinator wires the run state store and the group pipelines.
func NewCoordinator(state ports.RunStateStore, groups []GroupRunner, notifier ports.Notifier, staleLock time.Duration, log *slog.Logger) *Coordinator {
	if staleLock <= 0 {
		staleLock = 30 * time.Minute
	}
	return &Coordinator{
		state:     state,
		groups:    groups,
		notifier:  notifier,
		staleLock: staleLock,
		log:       log.With("component", "coordinator"),
	}
}

// TriggerRun attempts to start a run. It returns ErrAlreadyRunning when
// another run holds the flag; otherwise it blocks until the run ends.
func (c *Coordinator) TriggerRun(ctx context.Context, trigger string) (domain.RunRecord, error) {
	runID := uuid.NewString()
	now := time.Now().UTC()

	started, forced, err := c.state.TryStartRun(runID, now, c.staleLock)
	if err != nil {
		return domain.RunRecord{}, fmt.Errorf("claim run: %w", err)
	}
	if !started {
		c.log.Info("run refused, another is active", "trigger", trigger)
		return domain.RunRecord{}, ErrAlreadyRunning
	}
	if forced {
		c.log.Warn("recovered stale run flag", "run_id", runID, "stale_after", c.staleLock)
		c.pushNotification(domain.NotifyInfo, "Verrou expiré récupéré",
			fmt.Sprintf("Un verrou de plus de %s a été libéré automatiquement.", c.staleLock))
	}

	c.log.Info("run started", "run_id", runID, "trigger", trigger, "groups", len(c.groups))
	c.pushNotification(domain.NotifyInfo, "Collecte démarrée",
		fmt.Sprintf("Run %s déclenché par %s (%d groupes).", runID, trigger, len(c.groups)))
	record := c.execute(ctx, runID, now)

	if err := c.state.FinishRun(record); err != nil {
		c.log.Error("cannot record run", "run_id", runID, "error", err)
		return record, fmt.Errorf("finish run: %w", err)
	}

	c.notifyOutcome(ctx, record)
	return record, nil
}

func (c *Coordinator) execute(ctx context.Context, runID string, startedAt time.Time) domain.RunRecord {
	results := make([]domain.GroupResult, len(c.groups))
	var wg sync.WaitGroup
	for i, runner := range c.groups {
		wg.Add(1)
		go func(i int, runner GroupRunner) {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					c.log.Error("group panicked", "group", runner.Group(), "panic", r)
					results[i] = domain.GroupResult{
						Group: runner.Group(),
						Err:   fmt.Sprintf("panic: %v", r),
					}
				}
			}()
			results[i] = runner.Run(ctx, startedAt, c.progress)
		}(i, runner)
	}
	wg.Wait()

	completed := time.Now().UTC()
	record := domain.RunRecord{
		RunID:           runID,
		StartedAt:       startedAt,
		CompletedAt:     completed,
		DurationSeconds: int(completed.Sub(startedAt).Seconds()),
	}

	failures := 0
	var errMsgs []string
	for _, res := range results {
		record.Scraped += res.Scraped
		record.Inserted += res.Inserted
		record.Skipped += res.Skipped
		record.Errors += res.Errors
		if res.Failed() {
			failures++
			errMsgs = append(errMsgs, fmt.Sprintf("%s: %s", res.Group, res.Err))
			c.pushNotification(domain.NotifyError,
				fmt.Sprintf("Échec du groupe %s", res.Group), res.Err)
		} else {
			c.pushNotification(domain.NotifySuccess,
				fmt.Sprintf("Groupe %s terminé", res.Group),
				fmt.Sprintf("%d collectés, %d insérés, %d ignorés.", res.Scraped, res.Inserted, res.Skipped))
		}
		record.Sources = append(record.Sources, sourceBreakdown(res)...)
	}

	record.Status = domain.RunCompleted
	if len(c.groups) > 0 && failures == len(c.groups) {
		record.Status = domain.RunFailed
	}
	record.ErrorMessage = strings.Join(errMsgs, "; ")

	c.log.Info("run finished",
		"run_id", runID,
		"status", record.Status,
		"scraped", record.Scraped,
		"inserted", record.Inserted,
		"skipped", record.Skipped,
		"errors", record.Errors,
		"duration_s", record.DurationSeconds)

	return record
}

func sourceBreakdown(res domain.GroupResult) []domain.SourceBreakdown {
	names := make([]string, 0, len(res.BySource))
	for name := range res.BySource {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]domain.SourceBreakdown, 0, len(names))
	for _, name := range names {
		stats := res.BySource[name]
		out = append(out, domain.SourceBreakdown{
			Source:     name,
			Scraped:    stats.Scraped,
			Inserted:   stats.Inserted,
			Skipped:    stats.Skipped,
			LastItemAt: stats.LastItemAt,
		})
	}
	return out
}

func (c *Coordinator) progress(stage string) {
	if err := c.state.SetProgress(stage); err != nil {
		c.log.Warn("cannot update progress", "stage", stage, "error", err)
	}
}

func (c *Coordinator) notifyOutcome(ctx context.Context, record domain.RunRecord) {
	if record.Status == domain.RunFailed {
		c.pushNotification(domain.NotifyError, "Échec de la collecte",
			fmt.Sprintf("Run %s en échec: %s", record.RunID, record.ErrorMessage))
	} else {
		c.pushNotification(domain.NotifySuccess, "Collecte terminée",
			fmt.Sprintf("%d insérés, %d ignorés, %d erreurs.", record.Inserted, record.Skipped, record.Errors))
	}

	if c.notifier == nil {
		return
	}
	summary := fmt.Sprintf("*MediaScan* %s\nInsérés: %d\nIgnorés: %d\nErreurs: %d\nDurée: %ds",
		record.Status, record.Inserted, record.Skipped, record.Errors, record.DurationSeconds)
	if err := c.notifier.Publish(ctx, summary); err != nil {
		c.log.Warn("cannot publish summary", "error", err)
	}
}

func (c *Coordinator) pushNotification(kind domain.NotificationKind, title, message string) {
	err := c.state.Push(domain.Notification{
		Kind:      kind,
		Title:     title,
		Message:   message,
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		c.log.Warn("cannot push notification", "title", title, "error", err)
	}
}

// RunState exposes the current coordinator snapshot.
func (c *Coordinator) RunState() (domain.RunState, error) {
	return c.state.State()
}

// Notifications returns the newest feed entries.
func (c *Coordinator) Notifications(limit int) ([]domain.Notification, error) {
	return c.state.Notifications(limit)
}

// MarkNotificationRead flags one notification as read.
func (c *Coordinator) MarkNotificationRead(id int64) error {
	return c.state.MarkRead(id)
}

// RunHistory pages through past runs, newest first.
func (c *Coordinator) RunHistory(offset, limit int) ([]domain.RunRecord, error) {
	return c.state.History(offset, limit)
}
