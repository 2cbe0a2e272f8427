// Package main - точка входа фоновых процессов движка прогресса.
//
// Worker отвечает за периодические задачи:
// - Пересчёт глобального базлайна по предметам для рекомендаций
//
// Тяжёлые агрегаты по всей таблице событий живут здесь, а не на пути
// запроса: API всегда читает готовый снимок из кэша.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/quizhub/progress-hub/config"
	"github.com/quizhub/progress-hub/internal/domain/answer"
	"github.com/quizhub/progress-hub/internal/infrastructure/persistence/postgres"
	"github.com/quizhub/progress-hub/internal/infrastructure/persistence/redis"
	"github.com/quizhub/progress-hub/internal/infrastructure/persistence/sqlite"
	"github.com/quizhub/progress-hub/internal/infrastructure/scheduler"
	"github.com/quizhub/progress-hub/internal/infrastructure/scheduler/jobs"
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

	log := setupLogger(cfg)
	log.Info("starting progress-hub worker",
		logger.String("env", string(cfg.App.Environment)),
		logger.String("store", cfg.Store.Backend),
	)

	if !cfg.Scheduler.Enabled {
		return fmt.Errorf("scheduler is disabled; nothing to run")
	}
	if cfg.Redis.Disabled {
		// Без Redis снимок базлайна некуда класть - API считает его сам.
		return fmt.Errorf("worker requires Redis; set REDIS_DISABLED=false")
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 2. ХРАНИЛИЩЕ СОБЫТИЙ
	// ─────────────────────────────────────────────────────────────────────────
	var events answer.EventStore
	var cleanup func()

	switch cfg.Store.Backend {
	case config.StorePostgres:
		conn, err := postgres.NewConnectionFromURL(ctx, cfg.Store.URL)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		cleanup = conn.Close
		events = postgres.NewEventStore(conn)

	case config.StoreSQLite:
		store, err := sqlite.Open(ctx, cfg.Store.SQLitePath)
		if err != nil {
			return fmt.Errorf("failed to open sqlite store: %w", err)
		}
		cleanup = func() { _ = store.Close() }
		events = store
	}
	defer cleanup()

	// ─────────────────────────────────────────────────────────────────────────
	// 3. REDIS
	// ─────────────────────────────────────────────────────────────────────────
	redisCache, err := redis.NewCache(redis.Config{
		Host:         cfg.Redis.Host,
		Port:         cfg.Redis.Port,
		Password:     cfg.Redis.Password,
		DB:           cfg.Redis.DB,
		PoolSize:     cfg.Redis.PoolSize,
		MinIdleConns: cfg.Redis.MinIdleConns,
		DialTimeout:  cfg.Redis.DialTimeout,
		ReadTimeout:  cfg.Redis.ReadTimeout,
		WriteTimeout: cfg.Redis.WriteTimeout,
	})
	if err != nil {
		return fmt.Errorf("failed to connect to Redis: %w", err)
	}
	defer redisCache.Close()

	baseline := redis.NewBaselineCache(redisCache, events, log)

	// ─────────────────────────────────────────────────────────────────────────
	// 4. РЕГИСТРАЦИЯ И ЗАПУСК ЗАДАЧ
	// ─────────────────────────────────────────────────────────────────────────
	sched := scheduler.New(log)
	sched.Register(
		jobs.NewRefreshBaseline(baseline, log),
		scheduler.Every(cfg.Scheduler.BaselineRefreshInterval),
		cfg.Scheduler.RunOnStart,
	)
	sched.Start(ctx)

	<-ctx.Done()
	log.Info("shutdown signal received")
	sched.Stop()

	log.Info("progress-hub worker stopped")
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
