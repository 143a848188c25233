package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"github.com/MiguelAngelGutierrezMaya/agent-project-sub002/internal/config"
	"github.com/MiguelAngelGutierrezMaya/agent-project-sub002/internal/database"
	"github.com/MiguelAngelGutierrezMaya/agent-project-sub002/internal/lock"
	"github.com/MiguelAngelGutierrezMaya/agent-project-sub002/internal/pipeline"
	"github.com/MiguelAngelGutierrezMaya/agent-project-sub002/internal/provider"
	"github.com/MiguelAngelGutierrezMaya/agent-project-sub002/internal/queue"
	"github.com/MiguelAngelGutierrezMaya/agent-project-sub002/internal/queue/workers"
	"github.com/MiguelAngelGutierrezMaya/agent-project-sub002/internal/store"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid config", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()

	db, err := database.NewPool(ctx, cfg.Database)
	if err != nil {
		slog.Error("database unavailable", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		slog.Error("redis unavailable", "error", err)
		os.Exit(1)
	}
	defer rdb.Close()

	registry := store.NewRegistry(db)
	gateway := store.NewGateway(db)
	providers := provider.NewRegistry(cfg.Providers)

	modeOpts := pipeline.ModeOptions{
		DirectMaxBatchSize: cfg.Pipeline.DirectMaxBatchSize,
		BatchMaxBatchSize:  cfg.Pipeline.BatchMaxBatchSize,
	}
	generator := pipeline.NewGenerator(registry, gateway, providers, modeOpts)
	reconciler := pipeline.NewReconciler(registry, gateway, providers, cfg.Pipeline.ReconcileMaxAge)

	runLock := lock.NewRunLock(rdb, cfg.Pipeline.LockTTL)

	srv := asynq.NewServer(
		asynq.RedisClientOpt{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		},
		asynq.Config{
			// Cycles are serialized by the run lock; concurrency only lets the
			// two task types interleave.
			Concurrency: 2,
			Queues: map[string]int{
				"default": 1,
			},
		},
	)

	mux := queue.NewMux(
		asynq.HandlerFunc(workers.NewCycleWorker("generate", generator, runLock).ProcessTask),
		asynq.HandlerFunc(workers.NewCycleWorker("check_status", reconciler, runLock).ProcessTask),
	)

	scheduler, err := queue.NewScheduler(cfg.Redis, cfg.Pipeline)
	if err != nil {
		slog.Error("failed to build scheduler", "error", err)
		os.Exit(1)
	}

	go func() {
		if err := scheduler.Run(); err != nil {
			slog.Error("scheduler error", "error", err)
			os.Exit(1)
		}
	}()

	slog.Info("starting worker",
		"generate_interval", cfg.Pipeline.GenerateInterval,
		"check_status_interval", cfg.Pipeline.CheckStatusInterval,
	)
	if err := srv.Run(mux); err != nil {
		slog.Error("worker error", "error", err)
		os.Exit(1)
	}
}
