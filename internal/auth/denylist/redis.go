package denylist

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

const redisKeyPrefix = "till:denylist:"

// Redis keeps one key per revoked jti with a TTL matching the token's
// remaining lifetime, so redis does the purging.
type Redis struct {
	client *redis.Client
	opts   options
}

func NewRedis(client *redis.Client, opts ...Option) *Redis {
	return &Redis{client: client, opts: buildOptions(opts)}
}

// NewRedisClient parses url (redis://...) and checks the server answers.
func NewRedisClient(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis URL: %w", err)
	}

	opts.DialTimeout = 5 * time.Second
	opts.ReadTimeout = 3 * time.Second
	opts.WriteTimeout = 3 * time.Second

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return client, nil
}

func (d *Redis) Revoke(ctx context.Context, jti string, expiresAt time.Time) error {
	if jti == "" {
		return ErrEmptyJTI
	}

	ttl := d.opts.entryTTL(expiresAt)
	if ttl <= 0 {
		return nil // already expired, nothing to deny
	}

	key := redisKeyPrefix + jti
	// Keep whichever expiry is later if the jti is revoked twice.
	if current, err := d.client.TTL(ctx, key).Result(); err == nil && current > ttl {
		return nil
	}
	if err := d.client.Set(ctx, key, "1", ttl).Err(); err != nil {
		return fmt.Errorf("denylist: redis set: %w", err)
	}
	return nil
}

func (d *Redis) IsRevoked(ctx context.Context, jti string) (bool, error) {
	if jti == "" {
		return false, ErrEmptyJTI
	}
	n, err := d.client.Exists(ctx, redisKeyPrefix+jti).Result()
	if err != nil {
		return false, fmt.Errorf("denylist: redis exists: %w", err)
	}
	return n > 0, nil
}

// Ping is used by the readiness probe.
func (d *Redis) Ping(ctx context.Context) error {
	return d.client.Ping(ctx).Err()
}
