package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"MediaScan/internal/config"
	"MediaScan/internal/infrastructure/llm"
	"MediaScan/internal/infrastructure/ml"
	"MediaScan/internal/infrastructure/parser"
	"MediaScan/internal/infrastructure/rss"
	"MediaScan/internal/infrastructure/scheduler"
	"MediaScan/internal/infrastructure/social"
	"MediaScan/internal/infrastructure/storage"
	"MediaScan/internal/infrastructure/telegram"
	"MediaScan/internal/logging"
	"MediaScan/internal/ports"
	"MediaScan/internal/source"
	"MediaScan/internal/state"
	"MediaScan/internal/usecase"
	"MediaScan/internal/watermark"
)

// Application wires configs to use cases and lifecycle orchestration.
type Application struct {
	cfg         config.Config
	log         *slog.Logger
	stateStore  *state.Store
	content     ports.ContentStore
	coordinator *usecase.Coordinator
	scheduler   *usecase.Scheduler
}

// New connects the stores and builds the full ingestion stack.
func New(ctx context.Context, cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level, cfg.Logging.Format)
	}

	stateStore, err := state.Open(cfg.State.Path)
	if err != nil {
		return nil, fmt.Errorf("open state store: %w", err)
	}

	contentStore, err := storage.Open(ctx, cfg.Database.DSN)
	if err != nil {
		_ = stateStore.Close()
		return nil, fmt.Errorf("open content store: %w", err)
	}

	fetchTimeout := cfg.Pipeline.FetchTimeout
	if fetchTimeout <= 0 {
		fetchTimeout = 2 * time.Minute
	}
	fetchClient := &http.Client{Timeout: fetchTimeout}

	registry := source.NewRegistry()
	registry.Register("site", func(src config.SourceConfig) (ports.SourceAdapter, error) {
		return parser.NewSiteScanner(fetchClient, src)
	})
	registry.Register("rss", func(src config.SourceConfig) (ports.SourceAdapter, error) {
		return rss.NewFeedAdapter(fetchClient, src)
	})
	registry.Register("graph", func(src config.SourceConfig) (ports.SourceAdapter, error) {
		return social.NewGraphAdapter(fetchClient, src)
	})

	groups, err := registry.BuildGroups(cfg.Sources)
	if err != nil {
		_ = stateStore.Close()
		_ = contentStore.Close()
		return nil, fmt.Errorf("build sources: %w", err)
	}

	classifier := ml.NewClient(cfg.Classifier.URL, cfg.Classifier.Timeout, baseLogger)
	tracker := watermark.NewTracker(stateStore, contentStore, cfg.Pipeline.LookbackDays, baseLogger)

	runners := make([]usecase.GroupRunner, 0, len(groups))
	for name, adapters := range groups {
		runners = append(runners, usecase.NewGroupPipeline(usecase.PipelineDeps{
			Group:      name,
			Adapters:   adapters,
			Classifier: classifier,
			Store:      contentStore,
			Tracker:    tracker,
			FetchLimit: cfg.Pipeline.FetchLimit,
			Logger:     baseLogger,
		}))
	}

	var notifier ports.Notifier
	tg := telegram.NewNotifier(cfg.Notifications.Telegram.BotToken, cfg.Notifications.Telegram.ChatID)
	if tg.Enabled() {
		notifier = tg
	}

	coordinator := usecase.NewCoordinator(stateStore, runners, notifier, cfg.Pipeline.StaleLock(), baseLogger)

	sourceNames := make([]string, 0, len(cfg.Sources))
	for _, src := range cfg.Sources {
		sourceNames = append(sourceNames, src.Name)
	}
	anomaly := usecase.NewAnomalyChecker(contentStore, stateStore, sourceNames, baseLogger)

	var reviewer *usecase.Reviewer
	if cfg.Scorer.APIKey != "" {
		reviewer = usecase.NewReviewer(contentStore, llm.NewScorer(cfg.Scorer), cfg.Scorer.Batch, baseLogger)
	}

	runDriver := scheduler.NewIntervalScheduler(cfg.Scheduler.RunInterval, cfg.Scheduler.RunOnStart)
	anomalyDriver := scheduler.NewIntervalScheduler(cfg.Scheduler.AnomalyInterval, false)
	sched := usecase.NewScheduler(runDriver, anomalyDriver, coordinator, anomaly, reviewer, baseLogger)

	return &Application{
		cfg:         cfg,
		log:         baseLogger.With("component", "app"),
		stateStore:  stateStore,
		content:     contentStore,
		coordinator: coordinator,
		scheduler:   sched,
	}, nil
}

// Coordinator exposes the run coordinator for operator surfaces.
func (a *Application) Coordinator() *usecase.Coordinator {
	return a.coordinator
}

// Run starts the recurring jobs and blocks until the context ends.
func (a *Application) Run(ctx context.Context) error {
	if err := a.scheduler.Start(ctx); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}
	a.log.Info("mediascan started",
		"sources", len(a.cfg.Sources),
		"run_interval", a.cfg.Scheduler.RunInterval,
		"anomaly_interval", a.cfg.Scheduler.AnomalyInterval)

	<-ctx.Done()

	stopCtx := context.Background()
	if err := a.scheduler.Stop(stopCtx); err != nil {
		a.log.Warn("scheduler stop failed", "error", err)
	}
	if err := a.content.Close(); err != nil {
		a.log.Warn("content store close failed", "error", err)
	}
	if err := a.stateStore.Close(); err != nil {
		a.log.Warn("state store close failed", "error", err)
	}

	a.log.Info("mediascan stopped")
	return nil
}
