package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrLockNotAcquired is returned when another holder owns the lock.
var ErrLockNotAcquired = errors.New("lock not acquired")

// releaseScript deletes the key only while it still carries the holder's token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
    return redis.call("DEL", KEYS[1])
end
return 0`)

// RedisLocker hands out short-lived mutual-exclusion locks stored in Redis.
type RedisLocker struct {
	client     *redis.Client
	prefix     string
	retryDelay time.Duration
}

// NewRedisLocker builds a locker whose keys live under "lock:".
func NewRedisLocker(r *Redis) *RedisLocker {
	var client *redis.Client
	if r != nil {
		client = r.Client
	}
	return &RedisLocker{client: client, prefix: r.namespace("lock:"), retryDelay: 50 * time.Millisecond}
}

// TryAcquire makes a single attempt to take key for ttl.
func (l *RedisLocker) TryAcquire(ctx context.Context, key string, ttl time.Duration) (func(context.Context) error, error) {
	if l == nil || l.client == nil {
		return nil, errors.New("redis client not configured")
	}
	token := uuid.NewString()
	fullKey := l.prefix + key
	ok, err := l.client.SetNX(ctx, fullKey, token, ttl).Result()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrLockNotAcquired
	}
	release := func(ctx context.Context) error {
		return releaseScript.Run(ctx, l.client, []string{fullKey}, token).Err()
	}
	return release, nil
}

// Acquire retries TryAcquire until it succeeds or ctx ends.
func (l *RedisLocker) Acquire(ctx context.Context, key string, ttl time.Duration) (func(context.Context) error, error) {
	for {
		release, err := l.TryAcquire(ctx, key, ttl)
		if err == nil {
			return release, nil
		}
		if !errors.Is(err, ErrLockNotAcquired) {
			return nil, err
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(l.retryDelay):
		}
	}
}
