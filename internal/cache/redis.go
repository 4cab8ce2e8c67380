package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

const scanBatch = 100

// RedisCache implements Cache on a Redis server.
type RedisCache struct {
	client     redis.Cmdable
	defaultTTL time.Duration
}

func NewRedisCache(client redis.Cmdable, defaultTTL time.Duration) *RedisCache {
	if defaultTTL <= 0 {
		defaultTTL = DefaultTTL
	}
	return &RedisCache{client: client, defaultTTL: defaultTTL}
}

// NewRedisClient parses a redis:// URL and pings the server. A failed ping
// still returns the client: the cache degrades to misses until Redis is back.
func NewRedisClient(ctx context.Context, url string) (*redis.Client, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_URL: %w", err)
	}
	client := redis.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		return client, fmt.Errorf("could not reach redis: %w", err)
	}
	return client, nil
}

func (c *RedisCache) Get(ctx context.Context, key string) Result {
	value, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return Result{Status: Miss}
	}
	if err != nil {
		log.Printf("cache: get %s failed: %v", key, err)
		return Result{Status: Unavailable}
	}
	return Result{Status: Hit, Value: value}
}

func (c *RedisCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) {
	payload, err := json.Marshal(value)
	if err != nil {
		log.Printf("cache: marshal %s failed: %v", key, err)
		return
	}
	if ttl <= 0 {
		ttl = c.defaultTTL
	}
	if err := c.client.Set(ctx, key, payload, ttl).Err(); err != nil {
		log.Printf("cache: set %s failed: %v", key, err)
	}
}

func (c *RedisCache) Delete(ctx context.Context, keys ...string) {
	if len(keys) == 0 {
		return
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		log.Printf("cache: delete %v failed: %v", keys, err)
	}
}

// DeletePattern removes every key starting with prefix. SCAN keeps the
// server responsive on large keyspaces where KEYS would block it.
func (c *RedisCache) DeletePattern(ctx context.Context, prefix string) {
	var cursor uint64
	for {
		keys, next, err := c.client.Scan(ctx, cursor, prefix+"*", scanBatch).Result()
		if err != nil {
			log.Printf("cache: scan %s* failed: %v", prefix, err)
			return
		}
		c.Delete(ctx, keys...)
		if next == 0 {
			return
		}
		cursor = next
	}
}
