package fetch

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
)

// CacheTTL bounds how long a fetched price is served without a new network
// call. Matches the provider-side freshness the app needs between refreshes.
const CacheTTL = 5 * time.Minute

// PriceCache is a time-bounded cache keyed by ticker or provider id.
// A cache hit bypasses both the network call and any rate-limit wait.
type PriceCache interface {
	Get(ctx context.Context, key string) (decimal.Decimal, bool)
	Set(ctx context.Context, key string, price decimal.Decimal)
	Clear(ctx context.Context)
}

// RedisCache stores prices under a provider-specific prefix with a native
// TTL. Cache failures degrade to cache misses; they never fail a fetch.
type RedisCache struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

var _ PriceCache = (*RedisCache)(nil)

func NewRedisCache(client *redis.Client, prefix string) *RedisCache {
	return &RedisCache{client: client, prefix: prefix, ttl: CacheTTL}
}

func (c *RedisCache) Get(ctx context.Context, key string) (decimal.Decimal, bool) {
	val, err := c.client.Get(ctx, c.prefix+key).Result()
	if err == redis.Nil {
		return decimal.Zero, false
	}
	if err != nil {
		log.Printf("fetch: cache read failed for %s: %v", key, err)
		return decimal.Zero, false
	}

	price, err := decimal.NewFromString(val)
	if err != nil {
		return decimal.Zero, false
	}
	return price, true
}

func (c *RedisCache) Set(ctx context.Context, key string, price decimal.Decimal) {
	if err := c.client.Set(ctx, c.prefix+key, price.String(), c.ttl).Err(); err != nil {
		log.Printf("fetch: cache write failed for %s: %v", key, err)
	}
}

func (c *RedisCache) Clear(ctx context.Context) {
	iter := c.client.Scan(ctx, 0, c.prefix+"*", 0).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		log.Printf("fetch: cache scan failed: %v", err)
		return
	}
	if len(keys) > 0 {
		if err := c.client.Del(ctx, keys...).Err(); err != nil {
			log.Printf("fetch: cache clear failed: %v", err)
		}
	}
}

// MemoryCache is an in-process TTL cache for tests and Redis-less runs.
type MemoryCache struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[string]memoryEntry
	now     func() time.Time
}

type memoryEntry struct {
	price decimal.Decimal
	at    time.Time
}

var _ PriceCache = (*MemoryCache)(nil)

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{
		ttl:     CacheTTL,
		entries: make(map[string]memoryEntry),
		now:     time.Now,
	}
}

func (c *MemoryCache) Get(ctx context.Context, key string) (decimal.Decimal, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok || c.now().Sub(e.at) >= c.ttl {
		return decimal.Zero, false
	}
	return e.price, true
}

func (c *MemoryCache) Set(ctx context.Context, key string, price decimal.Decimal) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = memoryEntry{price: price, at: c.now()}
}

func (c *MemoryCache) Clear(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]memoryEntry)
}
