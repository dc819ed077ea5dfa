package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	idempotencyPrefix = "idem:"
	lockPrefix        = "idem-lock:"
	lockTTL           = 60 * time.Second
)

// IdempotencyStore keeps replayable responses keyed by idempotency key
type IdempotencyStore interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Put(ctx context.Context, key string, data []byte) error
	// Lock claims key for one in-flight request; false means another holds it
	Lock(ctx context.Context, key string) (bool, error)
	Unlock(ctx context.Context, key string) error
}

// RedisIdempotencyStore keeps responses in Redis for ttl
type RedisIdempotencyStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisIdempotencyStore(client *redis.Client, ttl time.Duration) *RedisIdempotencyStore {
	return &RedisIdempotencyStore{client: client, ttl: ttl}
}

func (s *RedisIdempotencyStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	data, err := s.client.Get(ctx, idempotencyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return data, true, nil
}

func (s *RedisIdempotencyStore) Put(ctx context.Context, key string, data []byte) error {
	return s.client.Set(ctx, idempotencyPrefix+key, data, s.ttl).Err()
}

func (s *RedisIdempotencyStore) Lock(ctx context.Context, key string) (bool, error) {
	return s.client.SetNX(ctx, lockPrefix+key, 1, lockTTL).Result()
}

func (s *RedisIdempotencyStore) Unlock(ctx context.Context, key string) error {
	return s.client.Del(ctx, lockPrefix+key).Err()
}
