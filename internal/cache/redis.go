package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

var client *redis.Client

// Init connects to Redis. On failure the client stays nil and callers degrade
// gracefully.
func Init(addr, password string) error {
	c := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       0,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := c.Ping(ctx).Err(); err != nil {
		c.Close()
		return err
	}
	client = c
	return nil
}

// GetClient returns the Redis client, or nil when Init failed
func GetClient() *redis.Client {
	return client
}

// Ping reports whether Redis is reachable
func Ping(ctx context.Context) error {
	if client == nil {
		return redis.ErrClosed
	}
	return client.Ping(ctx).Err()
}

func Close() {
	if client != nil {
		client.Close()
		client = nil
	}
}
