package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/hazyhaar/wardrobe/pkg/scoring"
	"github.com/redis/go-redis/v9"
)

// ErrCacheMiss indicates a cache miss.
var ErrCacheMiss = errors.New("cache miss")

// Cache stores encoded fetch results.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// RedisCache implements Cache on Redis.
type RedisCache struct {
	client *redis.Client
	prefix string
}

// RedisConfig holds the Redis connection settings.
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Prefix   string `mapstructure:"prefix"`
}

// NewRedisCache connects to Redis and checks the connection.
func NewRedisCache(ctx context.Context, cfg RedisConfig) (*RedisCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	prefix := cfg.Prefix
	if prefix == "" {
		prefix = "wardrobe:"
	}
	return &RedisCache{client: client, prefix: prefix}, nil
}

// Get returns ErrCacheMiss for an absent key.
func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, error) {
	val, err := c.client.Get(ctx, c.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("redis get: %w", err)
	}
	return val, nil
}

// Set stores value with ttl.
func (c *RedisCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := c.client.Set(ctx, c.prefix+key, value, ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// Close closes the connection.
func (c *RedisCache) Close() error {
	return c.client.Close()
}

// CachedFetcher serves repeated filter parameters from a Cache. Cache
// failures are logged and fall through to the underlying Fetcher.
type CachedFetcher struct {
	next   Fetcher
	cache  Cache
	ttl    time.Duration
	logger *slog.Logger
}

// NewCachedFetcher wraps next.
func NewCachedFetcher(next Fetcher, cache Cache, ttl time.Duration, logger *slog.Logger) *CachedFetcher {
	return &CachedFetcher{next: next, cache: cache, ttl: ttl, logger: logger}
}

// Fetch implements Fetcher.
func (f *CachedFetcher) Fetch(ctx context.Context, params map[string]string) ([]scoring.Candidate, error) {
	key := CacheKey(params)

	if data, err := f.cache.Get(ctx, key); err == nil {
		var products []scoring.Candidate
		if err := json.Unmarshal(data, &products); err == nil {
			return products, nil
		}
		f.logger.Warn("catalog cache: corrupt entry", "key", key)
	} else if !errors.Is(err, ErrCacheMiss) {
		f.logger.Warn("catalog cache get failed", "error", err)
	}

	products, err := f.next.Fetch(ctx, params)
	if err != nil {
		return nil, err
	}
	data, err := json.Marshal(products)
	if err == nil {
		err = f.cache.Set(ctx, key, data, f.ttl)
	}
	if err != nil {
		f.logger.Warn("catalog cache set failed", "error", err)
	}
	return products, nil
}

// CacheKey hashes params in key order, so equal maps share a key.
func CacheKey(params map[string]string) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	d := xxhash.New()
	for _, k := range keys {
		d.WriteString(k)
		d.WriteString("=")
		d.WriteString(params[k])
		d.WriteString("\x00")
	}
	return fmt.Sprintf("catalog:%016x", d.Sum64())
}
