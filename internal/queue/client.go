package queue

import (
	"fmt"
	"time"

	"github.com/hibiken/asynq"

	"github.com/MiguelAngelGutierrezMaya/agent-project-sub002/internal/config"
)

type Client struct {
	client *asynq.Client
}

func NewClient(cfg config.RedisConfig) *Client {
	return &Client{
		client: asynq.NewClient(asynq.RedisClientOpt{
			Addr:     cfg.Addr,
			Password: cfg.Password,
			DB:       cfg.DB,
		}),
	}
}

func (c *Client) Close() error {
	return c.client.Close()
}

// EnqueueGenerate queues an out-of-schedule generate cycle, as triggered
// from the ops API. Cycles carry no payload; the worker discovers its own
// work from the registry.
func (c *Client) EnqueueGenerate() error {
	return c.enqueue(TypeEmbeddingGenerate, asynq.MaxRetry(0), asynq.Timeout(10*time.Minute))
}

// EnqueueCheckStatus queues an out-of-schedule check-status cycle.
func (c *Client) EnqueueCheckStatus() error {
	return c.enqueue(TypeEmbeddingCheckStatus, asynq.MaxRetry(0), asynq.Timeout(10*time.Minute))
}

func (c *Client) enqueue(taskType string, opts ...asynq.Option) error {
	task := asynq.NewTask(taskType, nil)
	if _, err := c.client.Enqueue(task, opts...); err != nil {
		return fmt.Errorf("enqueue %s: %w", taskType, err)
	}
	return nil
}
