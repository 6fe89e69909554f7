package persistence

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisTokenDenyList remembers revoked access token ids until they would have expired anyway.
type RedisTokenDenyList struct {
	client *redis.Client
	prefix string
}

// NewRedisTokenDenyList builds the deny-list.
func NewRedisTokenDenyList(r *Redis) *RedisTokenDenyList {
	var client *redis.Client
	if r != nil {
		client = r.Client
	}
	return &RedisTokenDenyList{client: client, prefix: r.namespace("revoked:")}
}

// Revoke marks tokenID as revoked for ttl.
func (d *RedisTokenDenyList) Revoke(ctx context.Context, tokenID string, ttl time.Duration) error {
	if d == nil || d.client == nil || ttl <= 0 {
		return nil
	}
	return d.client.Set(ctx, d.prefix+tokenID, "1", ttl).Err()
}

// IsRevoked reports whether tokenID was revoked.
func (d *RedisTokenDenyList) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	if d == nil || d.client == nil {
		return false, nil
	}
	n, err := d.client.Exists(ctx, d.prefix+tokenID).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
