package queue

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/MiguelAngelGutierrezMaya/agent-project-sub002/internal/config"
)

// NewScheduler periodically enqueues the two pipeline cycles. The generate
// and check-status cadences are independent so batch polling does not wait
// on generation.
func NewScheduler(redisCfg config.RedisConfig, pipeCfg config.PipelineConfig) (*asynq.Scheduler, error) {
	scheduler := asynq.NewScheduler(
		asynq.RedisClientOpt{
			Addr:     redisCfg.Addr,
			Password: redisCfg.Password,
			DB:       redisCfg.DB,
		},
		&asynq.SchedulerOpts{Location: time.UTC},
	)

	entries := []struct {
		spec     string
		taskType string
	}{
		{fmt.Sprintf("@every %s", pipeCfg.GenerateInterval), TypeEmbeddingGenerate},
		{fmt.Sprintf("@every %s", pipeCfg.CheckStatusInterval), TypeEmbeddingCheckStatus},
	}

	for _, e := range entries {
		entryID, err := scheduler.Register(e.spec, asynq.NewTask(e.taskType, nil), asynq.MaxRetry(0))
		if err != nil {
			return nil, fmt.Errorf("register %s: %w", e.taskType, err)
		}
		slog.Info("scheduled pipeline cycle", "task", e.taskType, "spec", e.spec, "entry_id", entryID)
	}

	return scheduler, nil
}
