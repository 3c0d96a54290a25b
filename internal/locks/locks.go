// Package locks provides short-lived advisory locks that serialize
// conflicting mutations of the same history entry.
package locks

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

var ErrLocked = errors.New("resource is locked")

type Locker interface {
	// Acquire takes every key or none. The returned release func is safe to
	// call more than once.
	Acquire(ctx context.Context, keys ...string) (release func(), err error)
}

func HistoryKey(entryUUID string) string {
	return "lock:history:" + entryUUID
}

// NoopLocker never blocks; concurrent writers fall back to last-writer-wins.
type NoopLocker struct{}

func (NoopLocker) Acquire(context.Context, ...string) (func(), error) {
	return func() {}, nil
}

// releaseScript deletes a key only if it still holds our token, so an expired
// lock re-acquired by someone else is left alone.
var releaseScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0
`)

type RedisLocker struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisLocker(client *redis.Client, ttl time.Duration) *RedisLocker {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &RedisLocker{client: client, ttl: ttl}
}

func (l *RedisLocker) Acquire(ctx context.Context, keys ...string) (func(), error) {
	keys = slices.Clone(keys)
	slices.Sort(keys)
	keys = slices.Compact(keys)

	token := uuid.NewString()
	held := make([]string, 0, len(keys))
	release := func() {
		if len(held) == 0 {
			return
		}
		// the request context may already be cancelled
		rctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		for _, key := range held {
			if err := releaseScript.Run(rctx, l.client, []string{key}, token).Err(); err != nil {
				slog.Warn("failed to release lock", "key", key, "error", err)
			}
		}
		held = held[:0]
	}

	for _, key := range keys {
		ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
		if err != nil {
			release()
			return nil, fmt.Errorf("acquire lock %s: %w", key, err)
		}
		if !ok {
			release()
			return nil, fmt.Errorf("%s: %w", key, ErrLocked)
		}
		held = append(held, key)
	}
	return release, nil
}
