package idempotency

import (
	"context"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisDeduper records delivery keys in Redis so duplicates are dropped
// across restarts and replicas.
type RedisDeduper struct {
	client *redis.Client
	log    *slog.Logger
}

// NewRedisDeduper creates a Redis-backed deduper.
func NewRedisDeduper(client *redis.Client, log *slog.Logger) *RedisDeduper {
	if log == nil {
		log = slog.Default()
	}
	return &RedisDeduper{client: client, log: log}
}

var _ Deduper = (*RedisDeduper)(nil)

// Seen records the key with SETNX. An existing key means a duplicate.
func (d *RedisDeduper) Seen(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	stored, err := d.client.SetNX(ctx, "dedupe:"+key, 1, ttl).Result()
	if err != nil {
		d.log.Error("dedupe check failed", slog.String("key", key), slog.Any("error", err))
		return false, err
	}
	return !stored, nil
}
