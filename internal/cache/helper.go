package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"devconnect/internal/middleware"

	"github.com/redis/go-redis/v9"
)

// ErrMiss is returned by GetJSON when the key is absent or no client is configured.
var ErrMiss = errors.New("cache miss")

// GetJSON decodes the value stored at key into dst.
func GetJSON(ctx context.Context, rdb *redis.Client, key string, dst any) error {
	if rdb == nil {
		return ErrMiss
	}
	raw, err := rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return ErrMiss
	}
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, dst)
}

// SetJSON stores v at key for ttl.
func SetJSON(ctx context.Context, rdb *redis.Client, key string, v any, ttl time.Duration) error {
	if rdb == nil {
		return nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return rdb.Set(ctx, key, raw, ttl).Err()
}

// Aside returns the value cached at key, falling back to load and populating
// the cache on a miss. Cache failures are logged and never fail the read.
func Aside[T any](ctx context.Context, rdb *redis.Client, key string, ttl time.Duration, load func(context.Context) (T, error)) (T, error) {
	var cached T
	err := GetJSON(ctx, rdb, key, &cached)
	if err == nil {
		return cached, nil
	}
	if !errors.Is(err, ErrMiss) {
		middleware.Logger.WarnContext(ctx, "cache read failed", slog.String("key", key), slog.String("error", err.Error()))
	}

	value, err := load(ctx)
	if err != nil {
		return value, err
	}
	if err := SetJSON(ctx, rdb, key, value, ttl); err != nil {
		middleware.Logger.WarnContext(ctx, "cache write failed", slog.String("key", key), slog.String("error", err.Error()))
	}
	return value, nil
}

// Invalidate deletes keys. A nil client is a no-op.
func Invalidate(ctx context.Context, rdb *redis.Client, keys ...string) {
	if rdb == nil || len(keys) == 0 {
		return
	}
	if err := rdb.Del(ctx, keys...).Err(); err != nil {
		middleware.Logger.WarnContext(ctx, "cache invalidation failed", slog.Any("keys", keys), slog.String("error", err.Error()))
	}
}
