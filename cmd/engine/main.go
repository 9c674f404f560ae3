// Package main is the entry point for the LearnForge metrics engine worker.
//
// The worker owns the background side of the engine:
// - Database migrations on startup
// - Periodic refresh of stale course aggregate snapshots
// - Nightly full rebuild of every course aggregate
// - Engagement event recording from domain events
//
// The engine facade itself carries no network surface. Callers embed it
// in-process; this binary keeps the derived data warm.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/learnforge/learnforge-hub/config"
	"github.com/learnforge/learnforge-hub/internal/application"
	"github.com/learnforge/learnforge-hub/internal/application/command"
	"github.com/learnforge/learnforge-hub/internal/application/eventhandler"
	"github.com/learnforge/learnforge-hub/internal/application/query"
	"github.com/learnforge/learnforge-hub/internal/domain/analytics"
	"github.com/learnforge/learnforge-hub/internal/domain/shared"
	"github.com/learnforge/learnforge-hub/internal/infrastructure/cache"
	"github.com/learnforge/learnforge-hub/internal/infrastructure/messaging"
	"github.com/learnforge/learnforge-hub/internal/infrastructure/persistence/postgres"
	"github.com/learnforge/learnforge-hub/internal/infrastructure/persistence/redis"
	"github.com/learnforge/learnforge-hub/internal/infrastructure/scheduler"
	"github.com/learnforge/learnforge-hub/internal/infrastructure/scheduler/jobs"
	"github.com/learnforge/learnforge-hub/pkg/logger"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "fatal error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	// ─────────────────────────────────────────────────────────────────────────
	// 1. CONFIGURATION
	// ─────────────────────────────────────────────────────────────────────────
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 2. LOGGING
	// ─────────────────────────────────────────────────────────────────────────
	log := setupLogger(cfg)
	appLog := logger.New(logger.Options{
		Level: logger.ParseLevel(cfg.Observability.LogLevel),
	})
	log.Info("starting LearnForge metrics engine",
		"env", string(cfg.App.Environment),
		"version", cfg.App.Version,
		"debug", cfg.App.Debug,
	)

	// ─────────────────────────────────────────────────────────────────────────
	// 3. DATABASE (PostgreSQL)
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("connecting to database...")
	dbConn, err := postgres.NewConnectionFromURL(ctx, cfg.Database.URL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer func() {
		log.Info("closing database connection...")
		dbConn.Close()
	}()

	if err := dbConn.Ping(ctx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}
	log.Info("database connection established")

	// ─────────────────────────────────────────────────────────────────────────
	// 4. MIGRATIONS
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("checking database migrations...")
	migrator := postgres.NewMigrator(dbConn)
	if err := migrator.Migrate(ctx); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	log.Info("database schema is up to date")

	// ─────────────────────────────────────────────────────────────────────────
	// 5. REPOSITORIES
	// ─────────────────────────────────────────────────────────────────────────
	progressRepo := postgres.NewProgressRepository(dbConn)
	submissionRepo := postgres.NewSubmissionRepository(dbConn)
	resultRepo := postgres.NewEvaluationResultRepository(dbConn)
	certRepo := postgres.NewCertificateRepository(dbConn)
	certLogRepo := postgres.NewCertificateLogRepository(dbConn)
	engagementRepo := postgres.NewEngagementRepository(dbConn)
	snapshotRepo := postgres.NewSnapshotRepository(dbConn)

	clock := shared.SystemClock{}

	// ─────────────────────────────────────────────────────────────────────────
	// 6. AGGREGATE CACHE (Redis with in-process fallback)
	// ─────────────────────────────────────────────────────────────────────────
	var aggCache analytics.Cache = cache.NewMemory(clock)

	if !cfg.Redis.Disabled && cfg.Features.IsEnabled(config.FeatureCacheRedis, nil) {
		log.Info("connecting to Redis...")
		redisCfg := redis.DefaultConfig()
		redisCfg.Host = cfg.Redis.Host
		redisCfg.Port = cfg.Redis.Port
		redisCfg.Password = cfg.Redis.Password
		redisCfg.DB = cfg.Redis.DB
		redisCfg.PoolSize = cfg.Redis.PoolSize
		redisCfg.MinIdleConns = cfg.Redis.MinIdleConns
		redisCfg.DialTimeout = cfg.Redis.DialTimeout
		redisCfg.ReadTimeout = cfg.Redis.ReadTimeout
		redisCfg.WriteTimeout = cfg.Redis.WriteTimeout

		redisCache, err := redis.NewCache(redisCfg)
		if err != nil {
			log.Warn("failed to connect to Redis, using in-process cache", "error", err)
		} else {
			defer redisCache.Close()
			aggCache = redisCache
			log.Info("Redis connection established")
		}
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 7. EVENT BUS
	// ─────────────────────────────────────────────────────────────────────────
	bus := messaging.NewInMemoryEventBus(messaging.InMemoryEventBusConfig{
		WorkerPoolSize: cfg.EventBus.WorkerPoolSize,
		Logger:         appLog,
	})
	defer func() {
		log.Info("closing event bus...")
		bus.Close()
	}()

	if cfg.Features.IsEnabled(config.FeatureAnalyticsEngagement, nil) {
		recorder := eventhandler.NewEngagementRecorder(engagementRepo, appLog)
		bus.SubscribeTypes(recorder, recorder.EventTypes()...)
		log.Info("engagement recorder subscribed")
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 8. ENGINE FACADE (commands, queries, cached reads)
	// ─────────────────────────────────────────────────────────────────────────
	aggregator := query.NewAggregator(progressRepo, submissionRepo, certRepo, engagementRepo, clock)
	cachedAnalytics := query.NewCachedAnalytics(
		aggCache,
		snapshotRepo,
		aggregator,
		progressRepo,
		submissionRepo,
		certRepo,
		clock,
		appLog,
		query.CachedAnalyticsConfig{
			CourseTTL:       cfg.Cache.CourseTTL,
			UserTTL:         cfg.Cache.UserTTL,
			CertificatesTTL: cfg.Cache.CertificatesTTL,
			SnapshotMaxAge:  cfg.Cache.SnapshotMaxAge,
		},
	)

	checkEligibility := query.NewCheckEligibilityHandler(progressRepo, submissionRepo, clock)

	eng := application.NewEngine(application.Handlers{
		UpdateProgress:       command.NewUpdateProgressHandler(progressRepo, bus, clock),
		EvaluateAssessment:   command.NewEvaluateAssessmentHandler(submissionRepo, resultRepo, bus, clock, appLog),
		ReviewSubmission:     command.NewReviewSubmissionHandler(submissionRepo, bus, clock),
		GenerateCertificate:  command.NewGenerateCertificateHandler(progressRepo, submissionRepo, certRepo, certLogRepo, bus, clock, appLog),
		RevokeCertificate:    command.NewRevokeCertificateHandler(certRepo, certLogRepo, bus, clock, appLog),
		RecordEngagement:     command.NewRecordEngagementHandler(engagementRepo, clock),
		GetProgress:          query.NewGetProgressHandler(progressRepo),
		CheckEligibility:     checkEligibility,
		BulkCheckEligibility: query.NewBulkCheckEligibilityHandler(checkEligibility),
		UserPerformance:      query.NewUserPerformanceHandler(submissionRepo),
		Analytics:            cachedAnalytics,
	})
	log.Info("engine assembled")

	// ─────────────────────────────────────────────────────────────────────────
	// 9. SCHEDULER
	// ─────────────────────────────────────────────────────────────────────────
	var sched *scheduler.Scheduler
	if cfg.Scheduler.Enabled {
		schedCfg := scheduler.DefaultSchedulerConfig()
		schedCfg.Logger = log
		schedCfg.Timezone = cfg.App.Location
		sched = scheduler.NewScheduler(schedCfg)

		if cfg.Features.IsEnabled(config.FeatureSchedulerRefresh, nil) {
			refreshJob := jobs.NewRefreshAggregatesJob(eng.Analytics(), snapshotRepo, clock, log, jobs.RefreshAggregatesConfig{
				JobName:     "refresh_course_aggregates",
				MaxAge:      cfg.Cache.SnapshotMaxAge,
				Concurrency: cfg.Scheduler.RefreshConcurrency,
				Timeout:     cfg.Scheduler.JobTimeout,
			})
			if err := sched.Register(refreshJob, scheduler.NewIntervalSchedule(cfg.Scheduler.RefreshInterval)); err != nil {
				return fmt.Errorf("failed to register refresh job: %w", err)
			}
		}

		if cfg.Features.IsEnabled(config.FeatureSchedulerFullRebuild, nil) {
			cronSchedule, err := scheduler.ParseCronExpression(cfg.Scheduler.FullRebuildCron)
			if err != nil {
				return fmt.Errorf("invalid full rebuild cron %q: %w", cfg.Scheduler.FullRebuildCron, err)
			}
			// MaxAge 0 rebuilds every course regardless of snapshot age.
			rebuildJob := jobs.NewRefreshAggregatesJob(eng.Analytics(), snapshotRepo, clock, log, jobs.RefreshAggregatesConfig{
				JobName:     "full_rebuild_course_aggregates",
				MaxAge:      0,
				Concurrency: cfg.Scheduler.RefreshConcurrency,
				Timeout:     cfg.Scheduler.JobTimeout,
			})
			if err := sched.Register(rebuildJob, cronSchedule); err != nil {
				return fmt.Errorf("failed to register rebuild job: %w", err)
			}
		}

		if err := sched.Start(ctx); err != nil {
			return fmt.Errorf("failed to start scheduler: %w", err)
		}
	} else {
		log.Info("scheduler disabled")
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 10. GRACEFUL SHUTDOWN
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("LearnForge metrics engine is running")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)

	sig := <-sigCh
	log.Info("received shutdown signal", "signal", sig.String())
	log.Info("starting graceful shutdown...", "timeout", cfg.App.ShutdownTimeout.String())

	if sched != nil {
		if err := sched.Stop(); err != nil {
			log.Warn("scheduler stop failed", "error", err)
		}
	}

	log.Info("shutdown completed successfully")
	return nil
}

// setupLogger configures structured logging for the worker process.
func setupLogger(cfg *config.Config) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}
	if cfg.App.Debug || cfg.Observability.LogLevel == "debug" {
		opts.Level = slog.LevelDebug
	}

	var handler slog.Handler
	if cfg.Observability.LogFormat == "json" || cfg.App.Environment == config.EnvProduction {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	log := slog.New(handler)
	slog.SetDefault(log)

	return log
}
