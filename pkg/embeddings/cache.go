package embeddings

import (
	"container/list"
	"context"
	"encoding/json"
	"fmt"
	"hash/fnv"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
)

// CachedEmbedding is a cache entry tagged with the provider that produced
// it, so a hit can be attributed to the primary or the fallback path.
type CachedEmbedding struct {
	Vector []float32 `json:"vector"`
	Origin string    `json:"origin"`
}

// CacheStats tracks cache effectiveness.
type CacheStats struct {
	Hits      int64 `json:"hits"`
	Misses    int64 `json:"misses"`
	Evictions int64 `json:"evictions"`
	Size      int   `json:"size"`
}

// Cache is the embedding cache contract. Implementations must be safe for
// concurrent use.
type Cache interface {
	Get(key string) (CachedEmbedding, bool)
	Set(key string, entry CachedEmbedding)
	Stats() CacheStats
}

// CacheKey builds a deterministic key from the input text and the model
// settings that affect the resulting vector.
func CacheKey(text, model string, dimensions int) string {
	h := fnv.New64a()
	h.Write([]byte(text))
	h.Write([]byte{'|'})
	h.Write([]byte(model))
	h.Write([]byte(fmt.Sprintf("|%d", dimensions)))
	return fmt.Sprintf("%016x", h.Sum64())
}

type lruEntry struct {
	key       string
	value     CachedEmbedding
	expiresAt time.Time
}

// LRUCache is a bounded in-memory cache with LRU eviction and TTL expiry.
type LRUCache struct {
	maxEntries int
	ttl        time.Duration
	items      map[string]*list.Element
	order      *list.List
	stats      CacheStats
	mutex      sync.Mutex
}

// NewLRUCache creates a cache holding at most maxEntries embeddings.
// A non-positive maxEntries defaults to 1024. A zero ttl disables expiry.
func NewLRUCache(maxEntries int, ttl time.Duration) *LRUCache {
	if maxEntries <= 0 {
		maxEntries = 1024
	}
	return &LRUCache{
		maxEntries: maxEntries,
		ttl:        ttl,
		items:      make(map[string]*list.Element),
		order:      list.New(),
	}
}

func (c *LRUCache) Get(key string) (CachedEmbedding, bool) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	elem, ok := c.items[key]
	if !ok {
		c.stats.Misses++
		return CachedEmbedding{}, false
	}

	entry := elem.Value.(*lruEntry)
	if c.ttl > 0 && time.Now().After(entry.expiresAt) {
		c.order.Remove(elem)
		delete(c.items, key)
		c.stats.Misses++
		return CachedEmbedding{}, false
	}

	c.order.MoveToFront(elem)
	c.stats.Hits++
	return entry.value, true
}

func (c *LRUCache) Set(key string, value CachedEmbedding) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	expires := time.Time{}
	if c.ttl > 0 {
		expires = time.Now().Add(c.ttl)
	}

	if elem, ok := c.items[key]; ok {
		entry := elem.Value.(*lruEntry)
		entry.value = value
		entry.expiresAt = expires
		c.order.MoveToFront(elem)
		return
	}

	c.items[key] = c.order.PushFront(&lruEntry{key: key, value: value, expiresAt: expires})

	for len(c.items) > c.maxEntries {
		oldest := c.order.Back()
		if oldest == nil {
			break
		}
		c.order.Remove(oldest)
		delete(c.items, oldest.Value.(*lruEntry).key)
		c.stats.Evictions++
	}
}

func (c *LRUCache) Stats() CacheStats {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	stats := c.stats
	stats.Size = len(c.items)
	return stats
}

// RedisCache is an optional second-level cache shared across instances.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
	prefix string
	stats  CacheStats
	mutex  sync.Mutex
}

// NewRedisCache connects a go-redis client as an L2 embedding cache.
func NewRedisCache(addr, password string, db int, ttl time.Duration) *RedisCache {
	return &RedisCache{
		client: redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: password,
			DB:       db,
		}),
		ttl:    ttl,
		prefix: "linksaudi:embedding:",
	}
}

func (c *RedisCache) Get(key string) (CachedEmbedding, bool) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	data, err := c.client.Get(ctx, c.prefix+key).Result()
	if err != nil {
		c.recordMiss()
		return CachedEmbedding{}, false
	}

	var entry CachedEmbedding
	if err := json.Unmarshal([]byte(data), &entry); err != nil {
		c.recordMiss()
		return CachedEmbedding{}, false
	}

	c.mutex.Lock()
	c.stats.Hits++
	c.mutex.Unlock()
	return entry, true
}

func (c *RedisCache) Set(key string, entry CachedEmbedding) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	data, err := json.Marshal(entry)
	if err != nil {
		return
	}
	c.client.Set(ctx, c.prefix+key, data, c.ttl)
}

func (c *RedisCache) Stats() CacheStats {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return c.stats
}

// Ping verifies the Redis connection.
func (c *RedisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Close releases the underlying Redis connection.
func (c *RedisCache) Close() error {
	return c.client.Close()
}

func (c *RedisCache) recordMiss() {
	c.mutex.Lock()
	c.stats.Misses++
	c.mutex.Unlock()
}

// noopCache satisfies Cache when caching is disabled.
type noopCache struct{}

func (noopCache) Get(string) (CachedEmbedding, bool) { return CachedEmbedding{}, false }
func (noopCache) Set(string, CachedEmbedding)        {}
func (noopCache) Stats() CacheStats                  { return CacheStats{} }
