package denylist_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/require"

	"github.com/aussiebroadwan/till/internal/auth/denylist"
	"github.com/aussiebroadwan/till/internal/auth/store/drivers/sqlite"
)

type clock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *clock) now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *clock) advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

func newSQLite(t *testing.T, clk *clock) denylist.Denylist {
	t.Helper()
	st, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	require.NoError(t, st.ApplyMigrations())
	return denylist.NewStore(st, denylist.WithClock(clk.now))
}

func newRedis(t *testing.T, clk *clock) (denylist.Denylist, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client, err := denylist.NewRedisClient(context.Background(), "redis://"+mr.Addr())
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return denylist.NewRedis(client, denylist.WithClock(clk.now)), mr
}

// advance moves the driver's notion of time forward. For redis the key TTL
// lives on the server, so miniredis is fast-forwarded too.
type advanceFunc func(time.Duration)

func drivers(t *testing.T) map[string]func(clk *clock) (denylist.Denylist, advanceFunc) {
	return map[string]func(clk *clock) (denylist.Denylist, advanceFunc){
		denylist.DriverSQLite: func(clk *clock) (denylist.Denylist, advanceFunc) {
			return newSQLite(t, clk), clk.advance
		},
		denylist.DriverRedis: func(clk *clock) (denylist.Denylist, advanceFunc) {
			d, mr := newRedis(t, clk)
			return d, func(dur time.Duration) {
				clk.advance(dur)
				mr.FastForward(dur)
			}
		},
	}
}

func TestDenylist(t *testing.T) {
	ctx := context.Background()

	for name, build := range drivers(t) {
		t.Run(name, func(t *testing.T) {
			clk := &clock{t: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
			d, advance := build(clk)
			exp := clk.now().Add(10 * time.Minute)

			revoked, err := d.IsRevoked(ctx, "jti-1")
			require.NoError(t, err)
			require.False(t, revoked)

			require.NoError(t, d.Revoke(ctx, "jti-1", exp))
			require.NoError(t, d.Revoke(ctx, "jti-1", exp), "revoke is idempotent")

			revoked, err = d.IsRevoked(ctx, "jti-1")
			require.NoError(t, err)
			require.True(t, revoked)

			// Still denied during the token's last second.
			advance(10 * time.Minute)
			revoked, err = d.IsRevoked(ctx, "jti-1")
			require.NoError(t, err)
			require.True(t, revoked)

			advance(2 * time.Second)
			revoked, err = d.IsRevoked(ctx, "jti-1")
			require.NoError(t, err)
			require.False(t, revoked)

			require.ErrorIs(t, d.Revoke(ctx, "", exp), denylist.ErrEmptyJTI)
			_, err = d.IsRevoked(ctx, "")
			require.ErrorIs(t, err, denylist.ErrEmptyJTI)
		})
	}
}

func TestRedisTTL(t *testing.T) {
	ctx := context.Background()
	clk := &clock{t: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	d, mr := newRedis(t, clk)

	require.NoError(t, d.Revoke(ctx, "jti-1", clk.now().Add(30*time.Minute)))
	require.Equal(t, 30*time.Minute+time.Second, mr.TTL("till:denylist:jti-1"))

	// A second revoke with an earlier expiry never shortens the entry.
	require.NoError(t, d.Revoke(ctx, "jti-1", clk.now().Add(time.Minute)))
	require.Equal(t, 30*time.Minute+time.Second, mr.TTL("till:denylist:jti-1"))

	// Already expired tokens need no entry.
	require.NoError(t, d.Revoke(ctx, "jti-2", clk.now().Add(-time.Minute)))
	require.False(t, mr.Exists("till:denylist:jti-2"))

	t.Run("unknown expiry uses max ttl", func(t *testing.T) {
		client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
		defer client.Close()
		d := denylist.NewRedis(client, denylist.WithClock(clk.now), denylist.WithMaxTTL(2*time.Hour))
		require.NoError(t, d.Revoke(ctx, "jti-3", time.Time{}))
		require.Equal(t, 2*time.Hour, mr.TTL("till:denylist:jti-3"))
	})
}

func TestConcurrentRevoke(t *testing.T) {
	ctx := context.Background()
	clk := &clock{t: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	d, _ := newRedis(t, clk)
	exp := clk.now().Add(time.Hour)

	var wg sync.WaitGroup
	for range 20 {
		wg.Add(2)
		go func() {
			defer wg.Done()
			if err := d.Revoke(ctx, "shared", exp); err != nil {
				t.Errorf("revoke: %v", err)
			}
		}()
		go func() {
			defer wg.Done()
			if _, err := d.IsRevoked(ctx, "shared"); err != nil {
				t.Errorf("is revoked: %v", err)
			}
		}()
	}
	wg.Wait()

	revoked, err := d.IsRevoked(ctx, "shared")
	require.NoError(t, err)
	require.True(t, revoked)
}
