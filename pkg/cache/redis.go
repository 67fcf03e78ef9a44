package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// delBatchSize bounds how many keys a single DEL carries while clearing a
// namespace, so a large namespace does not turn into one huge command.
const delBatchSize = 256

// redisStore is the remote tier. It is a thin wrapper over the go-redis
// client; all failover decisions live in Store.
type redisStore struct {
	client *redis.Client
}

func (r *redisStore) get(ctx context.Context, key string) ([]byte, bool, error) {
	data, err := r.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return data, true, nil
}

func (r *redisStore) set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	return r.client.Set(ctx, key, data, ttl).Err()
}

func (r *redisStore) clearPattern(ctx context.Context, pattern string) error {
	iter := r.client.Scan(ctx, 0, pattern, 0).Iterator()

	batch := make([]string, 0, delBatchSize)
	for iter.Next(ctx) {
		batch = append(batch, iter.Val())
		if len(batch) == delBatchSize {
			if err := r.client.Del(ctx, batch...).Err(); err != nil {
				return err
			}
			batch = batch[:0]
		}
	}
	if err := iter.Err(); err != nil {
		return err
	}
	if len(batch) > 0 {
		return r.client.Del(ctx, batch...).Err()
	}
	return nil
}

func (r *redisStore) clearAll(ctx context.Context) error {
	return r.client.FlushDB(ctx).Err()
}

func (r *redisStore) ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}
