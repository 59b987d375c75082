package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"github.com/vmihailenco/msgpack/v5"
)

const keyPrefix = "matchday:api:"

// Config holds Redis connection settings
type Config struct {
	Addr     string
	Password string
	DB       int
}

// entry is the msgpack envelope stored for each cached payload
type entry struct {
	Body      []byte    `msgpack:"b"`
	FetchedAt time.Time `msgpack:"t"`
}

// RedisCache stores raw API payloads in Redis
type RedisCache struct {
	client *redis.Client
}

// NewRedisCache connects to Redis and verifies the connection
func NewRedisCache(cfg Config) (*RedisCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  time.Second,
		WriteTimeout: time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	log.Info().
		Str("addr", cfg.Addr).
		Int("db", cfg.DB).
		Msg("Successfully connected to redis")

	return &RedisCache{client: client}, nil
}

// Get returns the cached payload for key, if present
func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	raw, err := c.client.Get(ctx, keyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get: %w", err)
	}

	var e entry
	if err := msgpack.Unmarshal(raw, &e); err != nil {
		return nil, false, fmt.Errorf("decode cache entry: %w", err)
	}

	log.Debug().
		Str("key", key).
		Dur("age", time.Since(e.FetchedAt)).
		Msg("Cache hit")

	return e.Body, true, nil
}

// Set stores a payload for ttl
func (c *RedisCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	raw, err := msgpack.Marshal(entry{Body: value, FetchedAt: time.Now().UTC()})
	if err != nil {
		return fmt.Errorf("encode cache entry: %w", err)
	}

	if err := c.client.Set(ctx, keyPrefix+key, raw, ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// Close closes the Redis connection
func (c *RedisCache) Close() error {
	return c.client.Close()
}
