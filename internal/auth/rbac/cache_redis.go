package rbac

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

const redisKeyPrefix = "till:perms:"

// RedisCache keeps sets as JSON arrays of names so every instance shares
// one view and invalidations reach all of them.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisCache(client *redis.Client, ttl time.Duration) *RedisCache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &RedisCache{client: client, ttl: ttl}
}

func redisKey(userID string) string { return redisKeyPrefix + userID }

func (c *RedisCache) Get(ctx context.Context, userID string) (Set, bool, error) {
	data, err := c.client.Get(ctx, redisKey(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil // Cache miss
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get failed: %w", err)
	}

	var names []string
	if err := json.Unmarshal(data, &names); err != nil {
		// If unmarshal fails, delete corrupt data
		c.client.Del(ctx, redisKey(userID))
		return nil, false, fmt.Errorf("failed to unmarshal permissions: %w", err)
	}

	set, err := fromNames(names)
	if err != nil {
		c.client.Del(ctx, redisKey(userID))
		return nil, false, err
	}
	return set, true, nil
}

func (c *RedisCache) Set(ctx context.Context, userID string, set Set) error {
	data, err := json.Marshal(set.Names())
	if err != nil {
		return fmt.Errorf("failed to marshal permissions: %w", err)
	}
	return c.client.Set(ctx, redisKey(userID), data, c.ttl).Err()
}

func (c *RedisCache) Forget(ctx context.Context, userIDs ...string) error {
	if len(userIDs) == 0 {
		return nil
	}
	keys := make([]string, len(userIDs))
	for i, id := range userIDs {
		keys[i] = redisKey(id)
	}
	return c.client.Del(ctx, keys...).Err()
}
