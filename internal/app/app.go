package app

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/lightouch/insights/internal/access"
	"github.com/lightouch/insights/internal/config"
	"github.com/lightouch/insights/internal/domain"
	"github.com/lightouch/insights/internal/infrastructure/feed"
	"github.com/lightouch/insights/internal/infrastructure/llm"
	"github.com/lightouch/insights/internal/infrastructure/remotefile"
	"github.com/lightouch/insights/internal/infrastructure/scheduler"
	"github.com/lightouch/insights/internal/infrastructure/storage"
	"github.com/lightouch/insights/internal/infrastructure/telegram"
	"github.com/lightouch/insights/internal/logging"
	"github.com/lightouch/insights/internal/ports"
	"github.com/lightouch/insights/internal/scanner"
	"github.com/lightouch/insights/internal/usecase"
)

// Application wires configs to use cases and lifecycle orchestration.
type Application struct {
	cfg       config.Config
	logger    *slog.Logger
	pipeline  *usecase.Pipeline
	runner    *usecase.Scheduler
	resolver  *access.Resolver
	workspace *usecase.Workspace
	library   *usecase.Library
	db        *sql.DB
}

// New builds a runnable application instance.
func New(cfg config.Config, baseLogger *slog.Logger) *Application {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level)
	}

	store := remotefile.NewClient(cfg.Store.BaseURL, cfg.Store.Token, nil,
		baseLogger.With("component", "store"))

	registry := scanner.NewRegistry()
	registry.Register(feed.NewRSSScanner(nil))
	registry.Register(feed.NewListingScanner(nil))
	source := feed.NewStrategySource(registry, cfg.Sites, baseLogger.With("component", "source"))

	var completion ports.CompletionClient
	if cfg.Completion.APIKey != "" {
		completion = llm.NewCompletionClient(cfg.Completion)
	}

	var db *sql.DB
	var repository ports.ProcessedRepository
	if cfg.Database.DSN != "" {
		handle, err := sql.Open("postgres", cfg.Database.DSN)
		if err != nil {
			baseLogger.Warn("dedup store unavailable", "error", err)
		} else {
			db = handle
			repository = storage.NewPostgresRepository(db)
		}
	}

	var notifier ports.Notifier
	if tg := cfg.Notifications.Telegram; tg.BotToken != "" && tg.ChatID != "" {
		notifier = telegram.NewNotifier(tg.BotToken, tg.ChatID)
	}

	themes := themesFromConfig(cfg.Pipeline.Themes)
	classifier := usecase.NewClassifier(completion, usecase.ClassifierConfig{
		Themes:       themes,
		DefaultTheme: cfg.Pipeline.DefaultTheme,
		BatchSize:    cfg.Pipeline.BatchSize,
		MaxTokens:    cfg.Pipeline.ClassifyMaxTokens,
	}, baseLogger.With("component", "classifier"))
	synthesizer := usecase.NewSynthesizer(completion, usecase.SynthesizerConfig{
		Themes:        themes,
		CitationLimit: cfg.Pipeline.CitationLimit,
		SubThemeLimit: cfg.Pipeline.SubThemeLimit,
		MaxTokens:     cfg.Pipeline.ArticleMaxTokens,
	}, baseLogger.With("component", "synthesizer"))
	publisher := usecase.NewPublisher(store, baseLogger.With("component", "publisher"))

	pipeline := usecase.NewPipeline(usecase.PipelineDeps{
		Source:        source,
		Classifier:    classifier,
		Synthesizer:   synthesizer,
		Publisher:     publisher,
		Repository:    repository,
		Notifier:      notifier,
		RecencyWindow: cfg.Pipeline.RecencyWindow(),
		Logger:        baseLogger.With("component", "pipeline"),
	})

	driver := scheduler.NewTickerScheduler(cfg.Scheduler.IntervalDuration())

	return &Application{
		cfg:       cfg,
		logger:    baseLogger,
		pipeline:  pipeline,
		runner:    usecase.NewScheduler(driver, pipeline),
		resolver:  access.NewResolver(store, cfg.Access.AdminIDs, cfg.Access.ConsultantIDs, baseLogger.With("component", "access")),
		workspace: usecase.NewWorkspace(store, publisher, baseLogger.With("component", "workspace")),
		library:   usecase.NewLibrary(store, baseLogger.With("component", "library")),
		db:        db,
	}
}

// Run performs a single pipeline execution.
func (a *Application) Run(ctx context.Context) error {
	if a.pipeline == nil {
		return nil
	}

	now := time.Now().In(a.cfg.Scheduler.Location())
	return a.pipeline.Run(ctx, now)
}

// RunScheduled starts recurring pipeline runs and blocks until ctx ends.
func (a *Application) RunScheduled(ctx context.Context) error {
	if err := a.runner.Start(ctx); err != nil {
		return err
	}
	<-ctx.Done()
	return a.runner.Stop(context.Background())
}

// Resolver exposes role resolution for identity-bearing callers.
func (a *Application) Resolver() *access.Resolver { return a.resolver }

// Workspace exposes the operator-facing content operations.
func (a *Application) Workspace() *usecase.Workspace { return a.workspace }

// Library exposes read access to published articles.
func (a *Application) Library() *usecase.Library { return a.library }

// Close releases held resources.
func (a *Application) Close() error {
	if a.db != nil {
		return a.db.Close()
	}
	return nil
}

func themesFromConfig(configured []config.ThemeConfig) []domain.Theme {
	themes := make([]domain.Theme, 0, len(configured))
	for _, t := range configured {
		themes = append(themes, domain.Theme{Name: t.Name, SubThemes: t.SubThemes})
	}
	return themes
}
