package cache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Kimkangyeon-17/sports-ptj/internal/metrics"
)

const redisNamespace = "sportsptj:"

// Redis is a Store shared by every API replica. Entries are hashes holding
// the body and its ETag, expired by Redis.
type Redis struct {
	client *redis.Client
	logger *slog.Logger
}

// NewRedis connects to url (redis://...) and verifies the connection.
func NewRedis(ctx context.Context, url string, logger *slog.Logger) (*Redis, error) {
	if logger == nil {
		logger = slog.Default()
	}
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse REDIS_URL: %w", err)
	}
	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return &Redis{client: client, logger: logger}, nil
}

// Get retrieves a cached value. Redis errors count as misses.
func (r *Redis) Get(ctx context.Context, key string) ([]byte, string, bool) {
	vals, err := r.client.HMGet(ctx, redisNamespace+key, "data", "etag").Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			r.logger.Warn("Redis get failed", "key", key, "error", err)
		}
		metrics.CacheMissesTotal.Inc()
		return nil, "", false
	}
	data, okData := vals[0].(string)
	etag, okTag := vals[1].(string)
	if !okData || !okTag {
		metrics.CacheMissesTotal.Inc()
		return nil, "", false
	}
	metrics.CacheHitsTotal.Inc()
	return []byte(data), etag, true
}

// Set stores a value with a TTL and returns its ETag.
func (r *Redis) Set(ctx context.Context, key string, data []byte, ttl time.Duration) string {
	etag := ComputeETag(data)
	k := redisNamespace + key
	_, err := r.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.HSet(ctx, k, "data", data, "etag", etag)
		p.Expire(ctx, k, ttl)
		return nil
	})
	if err != nil {
		r.logger.Warn("Redis set failed", "key", key, "error", err)
	}
	return etag
}

// DeletePrefix removes every key under prefix using SCAN.
func (r *Redis) DeletePrefix(ctx context.Context, prefix string) {
	iter := r.client.Scan(ctx, 0, redisNamespace+prefix+"*", 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		r.logger.Warn("Redis scan failed", "prefix", prefix, "error", err)
		return
	}
	if len(keys) == 0 {
		return
	}
	if err := r.client.Del(ctx, keys...).Err(); err != nil {
		r.logger.Warn("Redis delete failed", "prefix", prefix, "error", err)
	}
}

// Ping checks the connection.
func (r *Redis) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// Stats returns key and connection pool counts.
func (r *Redis) Stats(ctx context.Context) map[string]any {
	ps := r.client.PoolStats()
	stats := map[string]any{
		"backend":     "redis",
		"enabled":     true,
		"total_conns": ps.TotalConns,
		"idle_conns":  ps.IdleConns,
	}
	if n, err := r.client.DBSize(ctx).Result(); err == nil {
		stats["total_keys"] = n
	}
	return stats
}

// Close closes the client.
func (r *Redis) Close() error { return r.client.Close() }
