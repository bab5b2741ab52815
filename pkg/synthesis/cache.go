package synthesis

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/redis/go-redis/v9"
)

// AnswerCache stores synthesized answers keyed by normalized query.
// Caching is best effort: backends swallow their own errors.
type AnswerCache interface {
	Get(ctx context.Context, query string) (*Answer, bool)
	Set(ctx context.Context, query string, answer *Answer)
}

func cacheKey(query string) string {
	return "synthesis:" + strings.ToLower(strings.TrimSpace(query))
}

// MemoryCache keeps answers in process.
type MemoryCache struct {
	cache *gocache.Cache
}

func NewMemoryCache() *MemoryCache {
	// Default expiration of 1 hour, purge every 10 minutes
	return &MemoryCache{
		cache: gocache.New(1*time.Hour, 10*time.Minute),
	}
}

func (c *MemoryCache) Get(ctx context.Context, query string) (*Answer, bool) {
	if x, found := c.cache.Get(cacheKey(query)); found {
		return x.(*Answer), true
	}
	return nil, false
}

func (c *MemoryCache) Set(ctx context.Context, query string, answer *Answer) {
	c.cache.Set(cacheKey(query), answer, gocache.DefaultExpiration)
}

// RedisCache shares answers across backend instances.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisCache(client *redis.Client) *RedisCache {
	return &RedisCache{
		client: client,
		ttl:    1 * time.Hour,
	}
}

func (c *RedisCache) Get(ctx context.Context, query string) (*Answer, bool) {
	payload, err := c.client.Get(ctx, cacheKey(query)).Bytes()
	if err != nil {
		return nil, false
	}
	var answer Answer
	if err := json.Unmarshal(payload, &answer); err != nil {
		return nil, false
	}
	return &answer, true
}

func (c *RedisCache) Set(ctx context.Context, query string, answer *Answer) {
	payload, err := json.Marshal(answer)
	if err != nil {
		return
	}
	c.client.Set(ctx, cacheKey(query), payload, c.ttl)
}
