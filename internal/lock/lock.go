package lock

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// releaseScript deletes the lock key only when it still holds our token, so a
// lock that expired and was re-acquired elsewhere is never released by us.
var releaseScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0
`)

// RunLock serializes pipeline cycles across worker replicas. Each cycle kind
// gets one Redis key; a held key means another replica is mid-cycle and the
// task should skip.
type RunLock struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRunLock(client *redis.Client, ttl time.Duration) *RunLock {
	return &RunLock{client: client, ttl: ttl}
}

// Acquire takes the named lock. It returns a release func on success and
// false when another holder has it. The TTL bounds how long a crashed holder
// can block the cycle.
func (l *RunLock) Acquire(ctx context.Context, name string) (release func(context.Context) error, ok bool, err error) {
	key := "pipeline:lock:" + name
	token := uuid.NewString()

	ok, err = l.client.SetNX(ctx, key, token, l.ttl).Result()
	if err != nil {
		return nil, false, fmt.Errorf("acquire lock %s: %w", key, err)
	}
	if !ok {
		return nil, false, nil
	}

	release = func(ctx context.Context) error {
		if err := releaseScript.Run(ctx, l.client, []string{key}, token).Err(); err != nil && err != redis.Nil {
			return fmt.Errorf("release lock %s: %w", key, err)
		}
		return nil
	}
	return release, true, nil
}
