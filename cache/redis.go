package cache

import (
	"context"
	"errors"
	"time"

	"github.com/go-redis/redis/v8"
)

// DefaultRedisTTL is the retention applied when an entry is stored with
// a zero ttl and the store was created without a default.
const DefaultRedisTTL = 24 * time.Hour

// Redis is a Store backed by a Redis server, for sharing decoded image
// payloads across processes.
type Redis struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedis creates a Redis store and verifies connectivity.
func NewRedis(ctx context.Context, addr string, defaultTTL time.Duration) (*Redis, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}
	if defaultTTL <= 0 {
		defaultTTL = DefaultRedisTTL
	}
	return &Redis{
		client: client,
		prefix: "asynkf:image:",
		ttl:    defaultTTL,
	}, nil
}

// Get implements Store.
func (r *Redis) Get(ctx context.Context, key string) ([]byte, bool, error) {
	data, err := r.client.Get(ctx, r.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return data, true, nil
}

// Set implements Store.
func (r *Redis) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = r.ttl
	}
	return r.client.Set(ctx, r.prefix+key, data, ttl).Err()
}

// Remove implements Store.
func (r *Redis) Remove(ctx context.Context, key string) error {
	return r.client.Del(ctx, r.prefix+key).Err()
}

// Close releases the underlying client.
func (r *Redis) Close() error {
	return r.client.Close()
}
