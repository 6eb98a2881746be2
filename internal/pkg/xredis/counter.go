package xredis

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// CounterStore is an expiring counter keyed by string. Increment must be
// atomic: two concurrent increments of the same key never under-count.
type CounterStore interface {
	// Increment adds one to the counter and refreshes its expiry,
	// returning the new value.
	Increment(ctx context.Context, key string, ttl time.Duration) (int64, error)

	// Current returns the counter value, 0 if the key is absent or expired.
	Current(ctx context.Context, key string) (int64, error)

	// TTL returns the remaining lifetime of the counter, 0 if absent.
	TTL(ctx context.Context, key string) (time.Duration, error)

	// Delete removes the counter.
	Delete(ctx context.Context, key string) error
}

type redisCounterStore struct {
	client redis.UniversalClient
}

// NewCounterStore builds a CounterStore backed by redis. INCR and EXPIRE
// run in one transactional pipeline, so the increment-with-expiry is
// atomic on the store side.
func NewCounterStore(client redis.UniversalClient) CounterStore {
	return &redisCounterStore{client: client}
}

func (s *redisCounterStore) Increment(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	pipe := s.client.TxPipeline()
	incr := pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, ttl)

	if _, err := pipe.Exec(ctx); err != nil {
		return 0, err
	}

	return incr.Val(), nil
}

func (s *redisCounterStore) Current(ctx context.Context, key string) (int64, error) {
	value, err := s.client.Get(ctx, key).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}

	if err != nil {
		return 0, err
	}

	return value, nil
}

func (s *redisCounterStore) TTL(ctx context.Context, key string) (time.Duration, error) {
	ttl, err := s.client.TTL(ctx, key).Result()
	if err != nil {
		return 0, err
	}

	if ttl < 0 {
		return 0, nil
	}

	return ttl, nil
}

func (s *redisCounterStore) Delete(ctx context.Context, key string) error {
	return s.client.Del(ctx, key).Err()
}
