package cache

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/buildsuitehq/BuildSuite/internal/pkg/env"
)

// Cache is the read-through cache used by the admission gate. Implementations
// must treat a missing key as ErrCacheMiss, not as an empty value.
type Cache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Invalidate(ctx context.Context, key string) error
}

// ErrCacheMiss is returned by Get when the key is absent or expired.
var ErrCacheMiss = redis.Nil

var client *redis.Client

// SetupCache initializes the connection to the Redis/Dragonfly cache server.
func SetupCache() {
	host := env.GetEnv("CACHE_HOST", "localhost")
	port := env.GetEnv("CACHE_PORT", "6379")

	client = redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", host, port),
		Password: env.GetEnv("CACHE_PASSWORD", ""),
		DB:       0,
	})

	if err := client.Ping(context.Background()).Err(); err != nil {
		log.Printf("Warning: Could not connect to cache: %v", err)
	}
}

// GetClient returns the Redis client instance.
func GetClient() *redis.Client {
	if client == nil {
		SetupCache()
	}
	return client
}

type redisCache struct {
	client *redis.Client
}

// NewRedisCache wraps the shared Redis client in the Cache interface.
func NewRedisCache() Cache {
	return &redisCache{client: GetClient()}
}

func (c *redisCache) Get(ctx context.Context, key string) (string, error) {
	return c.client.Get(ctx, key).Result()
}

func (c *redisCache) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	return c.client.Set(ctx, key, value, ttl).Err()
}

func (c *redisCache) Invalidate(ctx context.Context, key string) error {
	return c.client.Del(ctx, key).Err()
}
