package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"NewsPrioritizer/internal/config"
	"NewsPrioritizer/internal/domain"
	"NewsPrioritizer/internal/infrastructure/configprovider"
	"NewsPrioritizer/internal/infrastructure/metrics"
	"NewsPrioritizer/internal/infrastructure/parser"
	"NewsPrioritizer/internal/infrastructure/scheduler"
	"NewsPrioritizer/internal/infrastructure/storage"
	"NewsPrioritizer/internal/logging"
	"NewsPrioritizer/internal/ports"
	"NewsPrioritizer/internal/scanner"
	"NewsPrioritizer/internal/usecase"
)

const shutdownTimeout = 10 * time.Second

// Application wires configs to use cases and lifecycle orchestration.
type Application struct {
	cfg      config.Config
	logger   *slog.Logger
	pipeline *usecase.RankingPipeline
	registry *prometheus.Registry
	db       *sql.DB
	now      func() time.Time
}

// New builds a runnable application instance. A configured DSN switches the
// candidate pool to Postgres, otherwise the configured sites are scraped.
func New(cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level)
	}

	if cfg.Scheduler.CronExpression != "" {
		if err := scheduler.Validate(cfg.Scheduler.CronExpression); err != nil {
			return nil, err
		}
	}

	registry := prometheus.NewRegistry()
	observer := metrics.NewRankingMetrics()
	if err := observer.Register(registry); err != nil {
		return nil, fmt.Errorf("register metrics: %w", err)
	}

	var (
		source    ports.ArticleSource
		snapshots ports.SnapshotRepository
		db        *sql.DB
	)
	if cfg.Database.DSN != "" {
		var err error
		db, err = sql.Open("postgres", cfg.Database.DSN)
		if err != nil {
			return nil, fmt.Errorf("open database: %w", err)
		}
		repo := storage.NewPostgresRepository(db, cfg.Database.PoolSize)
		source, snapshots = repo, repo
	} else {
		scanners := scanner.NewRegistry()
		scanners.Register(parser.NewGovBRScanner(nil, baseLogger.With("component", "scanner.govbr")))
		source = parser.NewStrategySource(scanners, cfg.Sites, baseLogger.With("component", "source"))
	}

	provider := configprovider.NewFileProvider(
		cfg.Prioritization.ConfigPath,
		cfg.Prioritization.RefreshInterval,
		baseLogger.With("component", "prioritization.config"),
	)

	pipeline := usecase.NewRankingPipeline(usecase.RankingDeps{
		Source:           source,
		Config:           provider,
		Snapshots:        snapshots,
		Observer:         observer,
		Logger:           baseLogger.With("component", "pipeline"),
		PoolWindow:       cfg.Prioritization.PoolWindow,
		HomepageLimit:    cfg.Prioritization.HomepageLimit,
		FocusLimit:       cfg.Prioritization.FocusLimit,
		IncludeBreakdown: cfg.Prioritization.IncludeBreakdown,
	})

	return &Application{
		cfg:      cfg,
		logger:   baseLogger,
		pipeline: pipeline,
		registry: registry,
		db:       db,
		now:      time.Now,
	}, nil
}

// MetricsHandler serves the application's Prometheus registry.
func (a *Application) MetricsHandler() http.Handler {
	return promhttp.HandlerFor(a.registry, promhttp.HandlerOpts{})
}

// RunOnce executes a single ranking pass as of now in the scheduler timezone.
func (a *Application) RunOnce(ctx context.Context) (domain.RankingSnapshot, error) {
	return a.pipeline.Run(ctx, a.now().In(a.cfg.Scheduler.Location()))
}

// Run performs a single pass when no cron expression is configured, otherwise
// it schedules passes until ctx is done.
func (a *Application) Run(ctx context.Context) error {
	defer a.close()

	stopMetrics := a.serveMetrics()
	defer stopMetrics()

	if a.cfg.Scheduler.CronExpression == "" {
		_, err := a.RunOnce(ctx)
		return err
	}

	driver := scheduler.NewCronScheduler(
		a.cfg.Scheduler.CronExpression,
		a.cfg.Scheduler.Location(),
		a.logger.With("component", "scheduler"),
	)
	jobs := usecase.NewScheduler(driver, a.pipeline, a.logger.With("component", "scheduler"))
	if err := jobs.Start(ctx); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}

	<-ctx.Done()

	stopCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return jobs.Stop(stopCtx)
}

func (a *Application) serveMetrics() func() {
	if a.cfg.Metrics.Addr == "" {
		return func() {}
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", a.MetricsHandler())
	srv := &http.Server{Addr: a.cfg.Metrics.Addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		a.logger.Info("metrics listening", "addr", a.cfg.Metrics.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Error("metrics server stopped", "error", err)
		}
	}()

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}
}

func (a *Application) close() {
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.logger.Warn("close database", "error", err)
		}
	}
}
