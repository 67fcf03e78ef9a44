package ratelimit

import (
	"context"
	_ "embed"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

//go:embed fixed_window.lua
var fixedWindowScript string

// redisLimiter is the remote backend. The admission check runs as a single
// Lua script so read-compare-increment is atomic across every process
// sharing the Redis instance. redis.Script falls back to a plain EVAL when
// the script cache was flushed, so a Redis restart self-heals.
type redisLimiter struct {
	client *redis.Client
	script *redis.Script
	prefix string
}

func newRedisLimiter(client *redis.Client, prefix string) *redisLimiter {
	return &redisLimiter{
		client: client,
		script: redis.NewScript(fixedWindowScript),
		prefix: prefix,
	}
}

func (r *redisLimiter) allow(ctx context.Context, identity string, max int, span time.Duration) (bool, error) {
	keys := []string{r.prefix + identity}
	admitted, err := r.script.Run(ctx, r.client, keys, max, span.Milliseconds()).Int()
	if err != nil {
		return false, err
	}
	return admitted == 1, nil
}

func (r *redisLimiter) remaining(ctx context.Context, identity string, max int) (int, error) {
	count, err := r.client.Get(ctx, r.prefix+identity).Int()
	if errors.Is(err, redis.Nil) {
		return max, nil
	}
	if err != nil {
		return 0, err
	}
	if left := max - count; left > 0 {
		return left, nil
	}
	return 0, nil
}

func (r *redisLimiter) ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}
