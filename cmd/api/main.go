// Package main - точка входа REST API движка прогресса.
//
// Архитектура следует принципам Clean Architecture и DDD:
// - Domain: чистая бизнес-логика (стрики, уровни, цели, рекомендации)
// - Application: оркестрация use cases (Commands/Queries)
// - Infrastructure: хранилище событий, кэш производных витрин
// - Interface: HTTP endpoints
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/quizhub/progress-hub/config"
	"github.com/quizhub/progress-hub/internal/application/command"
	"github.com/quizhub/progress-hub/internal/application/query"
	"github.com/quizhub/progress-hub/internal/domain/achievement"
	"github.com/quizhub/progress-hub/internal/domain/answer"
	"github.com/quizhub/progress-hub/internal/infrastructure/persistence/postgres"
	"github.com/quizhub/progress-hub/internal/infrastructure/persistence/redis"
	"github.com/quizhub/progress-hub/internal/infrastructure/persistence/sqlite"
	httpserver "github.com/quizhub/progress-hub/internal/interface/http"
	"github.com/quizhub/progress-hub/pkg/logger"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "fatal error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	// ─────────────────────────────────────────────────────────────────────────
	// 1. ЗАГРУЗКА КОНФИГУРАЦИИ
	// ─────────────────────────────────────────────────────────────────────────
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 2. НАСТРОЙКА ЛОГИРОВАНИЯ
	// ─────────────────────────────────────────────────────────────────────────
	log := setupLogger(cfg)
	log.Info("starting progress-hub API",
		logger.String("env", string(cfg.App.Environment)),
		logger.String("version", cfg.App.Version),
		logger.String("store", cfg.Store.Backend),
	)

	// ─────────────────────────────────────────────────────────────────────────
	// 3. ХРАНИЛИЩЕ СОБЫТИЙ
	// ─────────────────────────────────────────────────────────────────────────
	var (
		events  answer.EventStore
		ledger  achievement.Ledger
		pinger  httpserver.Pinger
		cleanup func()
	)

	switch cfg.Store.Backend {
	case config.StorePostgres:
		log.Info("connecting to database...")
		conn, err := postgres.NewConnectionFromURL(ctx, cfg.Store.URL)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		cleanup = conn.Close

		log.Info("running database migrations...")
		if err := postgres.NewMigrator(conn).Migrate(ctx); err != nil {
			conn.Close()
			return fmt.Errorf("failed to run migrations: %w", err)
		}

		events = postgres.NewEventStore(conn)
		ledger = postgres.NewAchievementRepo(conn)
		pinger = conn

	case config.StoreSQLite:
		log.Info("opening sqlite store...", logger.String("path", cfg.Store.SQLitePath))
		store, err := sqlite.Open(ctx, cfg.Store.SQLitePath)
		if err != nil {
			return fmt.Errorf("failed to open sqlite store: %w", err)
		}
		cleanup = func() { _ = store.Close() }

		events = store
		ledger = store
		pinger = store
	}
	defer cleanup()
	log.Info("event store ready")

	// ─────────────────────────────────────────────────────────────────────────
	// 4. REDIS (опционально - кэш производных витрин)
	// ─────────────────────────────────────────────────────────────────────────
	var derivedCache query.DerivedCache
	var baseline query.BaselineProvider = query.NewDirectBaseline(events)

	if !cfg.Redis.Disabled {
		log.Info("connecting to Redis...")
		redisCache, err := redis.NewCache(redisConfig(cfg))
		if err != nil {
			// Кэш - ускорение, а не источник истины: без Redis витрины
			// пересчитываются на каждый запрос.
			log.Warn("failed to connect to Redis, caching disabled", logger.Err(err))
		} else {
			defer redisCache.Close()
			derivedCache = redis.NewDerivedCache(redisCache)
			baseline = redis.NewBaselineCache(redisCache, events, log)
			log.Info("Redis connection established")
		}
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 5. APPLICATION LAYER (Commands, Queries)
	// ─────────────────────────────────────────────────────────────────────────
	var detector *achievement.Detector
	if cfg.Features.IsEnabled(config.FeatureAchievements, nil) {
		detector = achievement.NewDetector(events, ledger, log)
	} else {
		log.Warn("achievement detection disabled by feature flag")
	}

	deps := httpserver.Dependencies{
		StudentStats:    query.NewGetStudentStatsHandler(events, derivedCache, log),
		Progress:        query.NewGetProgressHandler(events, derivedCache, log),
		Goals:           query.NewGetGoalsHandler(events, log),
		Recommendations: query.NewGetRecommendationsHandler(events, baseline, derivedCache, cfg.Features, log),
		Notifications:   query.NewGetNotificationsHandler(events, ledger, cfg.Features, log),
		Achievements:    query.NewGetAchievementsHandler(ledger, log),
		CohortCompare:   query.NewGetCohortComparisonHandler(cfg.Features),

		RecordAnswer:  command.NewRecordAnswerHandler(events, detector, derivedCache, log),
		ResetProgress: command.NewResetProgressHandler(events, ledger, derivedCache, log),

		Store:  pinger,
		Logger: log,
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 6. HTTP SERVER
	// ─────────────────────────────────────────────────────────────────────────
	server := httpserver.NewServer(httpserver.Config{
		Host:           cfg.HTTP.Host,
		Port:           cfg.HTTP.Port,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		AllowedOrigins: cfg.HTTP.AllowedOrigins,
		AdminTokenHash: cfg.HTTP.AdminTokenHash,
	}, deps)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	// ─────────────────────────────────────────────────────────────────────────
	// 7. ОЖИДАНИЕ СИГНАЛА И GRACEFUL SHUTDOWN
	// ─────────────────────────────────────────────────────────────────────────
	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	log.Info("progress-hub API stopped")
	return nil
}

// setupLogger builds the root logger from observability settings.
func setupLogger(cfg *config.Config) *logger.Logger {
	level := logger.ParseLevel(cfg.Observability.LogLevel)
	if cfg.App.Debug {
		level = logger.LevelDebug
	}

	return logger.New(logger.Options{
		Level:     level,
		AddCaller: cfg.App.Debug,
	})
}

// redisConfig maps application settings onto the redis client config.
func redisConfig(cfg *config.Config) redis.Config {
	return redis.Config{
		Host:         cfg.Redis.Host,
		Port:         cfg.Redis.Port,
		Password:     cfg.Redis.Password,
		DB:           cfg.Redis.DB,
		PoolSize:     cfg.Redis.PoolSize,
		MinIdleConns: cfg.Redis.MinIdleConns,
		DialTimeout:  cfg.Redis.DialTimeout,
		ReadTimeout:  cfg.Redis.ReadTimeout,
		WriteTimeout: cfg.Redis.WriteTimeout,
	}
}
