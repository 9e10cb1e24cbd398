package rbac

import (
	"context"
	"time"

	lru "github.com/hashicorp/golang-lru/v2/expirable"
)

// DefaultMemoryCacheSize caps the number of users held by MemoryCache.
const DefaultMemoryCacheSize = 4096

// MemoryCache is an in-process LRU with per-entry TTL. It is only coherent
// for a single instance; run the redis cache when scaling out.
type MemoryCache struct {
	cache *lru.LRU[string, Set]
}

func NewMemoryCache(size int, ttl time.Duration) *MemoryCache {
	if size <= 0 {
		size = DefaultMemoryCacheSize
	}
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &MemoryCache{cache: lru.NewLRU[string, Set](size, nil, ttl)}
}

func (c *MemoryCache) Get(_ context.Context, userID string) (Set, bool, error) {
	set, ok := c.cache.Get(userID)
	return set, ok, nil
}

func (c *MemoryCache) Set(_ context.Context, userID string, set Set) error {
	c.cache.Add(userID, set)
	return nil
}

func (c *MemoryCache) Forget(_ context.Context, userIDs ...string) error {
	for _, id := range userIDs {
		c.cache.Remove(id)
	}
	return nil
}

// Len reports the number of live entries.
func (c *MemoryCache) Len() int { return c.cache.Len() }
