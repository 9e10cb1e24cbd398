package rbac

import (
	"context"
	"fmt"
	"time"
)

// Cache stores effective permission sets keyed by user id. Implementations
// must be safe for concurrent use; last writer wins.
type Cache interface {
	Get(ctx context.Context, userID string) (Set, bool, error)
	Set(ctx context.Context, userID string, set Set) error
	Forget(ctx context.Context, userIDs ...string) error
}

const (
	CacheNone   = "none"
	CacheMemory = "memory"
	CacheRedis  = "redis"
)

// DefaultCacheTTL bounds how stale a cached set can get if an invalidation
// is ever missed.
const DefaultCacheTTL = 10 * time.Minute

// NoCache always misses.
type NoCache struct{}

func (NoCache) Get(context.Context, string) (Set, bool, error) { return nil, false, nil }
func (NoCache) Set(context.Context, string, Set) error         { return nil }
func (NoCache) Forget(context.Context, ...string) error        { return nil }

// fromNames rebuilds a set from names stored by an external cache.
func fromNames(names []string) (Set, error) {
	set := make(Set, len(names))
	for _, n := range names {
		p, err := Parse(n)
		if err != nil {
			return nil, fmt.Errorf("rbac: cached set: %w", err)
		}
		set[p] = struct{}{}
	}
	return set, nil
}
