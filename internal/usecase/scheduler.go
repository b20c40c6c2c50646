package usecase

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"MediaScan/internal/ports"
)

// Scheduler wires the interval drivers with the coordinator and the
// auxiliary anomaly job.
type Scheduler struct {
	runDriver     ports.Scheduler
	anomalyDriver ports.Scheduler
	coordinator   *Coordinator
	anomaly       *AnomalyChecker
	reviewer      *Reviewer
	log           *slog.Logger
}

// NewScheduler returns a helper to start/stop recurring jobs.
func NewScheduler(runDriver, anomalyDriver ports.Scheduler, coordinator *Coordinator, anomaly *AnomalyChecker, reviewer *Reviewer, log *slog.Logger) *Scheduler {
	return &Scheduler{
		runDriver:     runDriver,
		anomalyDriver: anomalyDriver,
		coordinator:   coordinator,
		anomaly:       anomaly,
		reviewer:      reviewer,
		log:           log.With("component", "scheduler"),
	}
}

// Start registers both recurring jobs. An overlapping trigger is normal
// when a run outlasts the interval; it is logged and dropped.
func (s *Scheduler) Start(ctx context.Context) error {
	if s.runDriver != nil && s.coordinator != nil {
		job := func(trigger time.Time) {
			_, err := s.coordinator.TriggerRun(ctx, "scheduler")
			if errors.Is(err, ErrAlreadyRunning) {
				s.log.Debug("interval trigger skipped, run in progress", "at", trigger)
				return
			}
			if err != nil {
				s.log.Error("scheduled run failed", "error", err)
			}
		}
		if err := s.runDriver.Start(ctx, job); err != nil {
			return err
		}
	}

	if s.anomalyDriver != nil && (s.anomaly != nil || s.reviewer != nil) {
		job := func(trigger time.Time) {
			if s.anomaly != nil {
				if err := s.anomaly.Check(ctx, trigger); err != nil {
					s.log.Error("anomaly check failed", "error", err)
				}
			}
			if s.reviewer != nil {
				if err := s.reviewer.Process(ctx); err != nil {
					s.log.Error("review batch failed", "error", err)
				}
			}
		}
		if err := s.anomalyDriver.Start(ctx, job); err != nil {
			return err
		}
	}

	return nil
}

// Stop gracefully tears down both drivers.
func (s *Scheduler) Stop(ctx context.Context) error {
	if s.runDriver != nil {
		if err := s.runDriver.Stop(ctx); err != nil {
			return err
		}
	}
	if s.anomalyDriver != nil {
		return s.anomalyDriver.Stop(ctx)
	}
	return nil
}
