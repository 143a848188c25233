package workers

import (
	"context"
	"log/slog"

	"github.com/hibiken/asynq"
)

// Runner is a pipeline cycle: the generator or the reconciler.
type Runner interface {
	Run(ctx context.Context) error
}

// Locker serializes cycle runs across worker replicas.
type Locker interface {
	Acquire(ctx context.Context, name string) (release func(context.Context) error, ok bool, err error)
}

// CycleWorker runs one pipeline cycle per task under a distributed run lock.
// A held lock means a previous run of the same cycle is still going, so the
// task completes without doing anything; the schedule fires it again soon.
type CycleWorker struct {
	name   string
	runner Runner
	locker Locker
}

func NewCycleWorker(name string, runner Runner, locker Locker) *CycleWorker {
	return &CycleWorker{name: name, runner: runner, locker: locker}
}

func (w *CycleWorker) ProcessTask(ctx context.Context, t *asynq.Task) error {
	release, ok, err := w.locker.Acquire(ctx, w.name)
	if err != nil {
		return err
	}
	if !ok {
		slog.Info("cycle already running, skipping", "cycle", w.name)
		return nil
	}
	defer func() {
		if err := release(context.WithoutCancel(ctx)); err != nil {
			slog.Warn("run lock release failed", "cycle", w.name, "error", err)
		}
	}()

	return w.runner.Run(ctx)
}
