package rbac_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/require"

	"github.com/aussiebroadwan/till/internal/auth/rbac"
)

// fakeSource maps user -> roles and role -> permission names.
type fakeSource struct {
	mu        sync.Mutex
	userRoles map[string][]string
	rolePerms map[string][]string
	calls     int
	err       error
}

func newFakeSource() *fakeSource {
	return &fakeSource{
		userRoles: map[string][]string{
			"alice": {"cashier"},
			"bob":   {"cashier", "manager"},
		},
		rolePerms: map[string][]string{
			"cashier": {"view_products", "create_transactions"},
			"manager": {"view_products", "edit_products", "view_reports"},
		},
	}
}

func (f *fakeSource) PermissionNamesForUser(_ context.Context, userID string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	var names []string
	for _, role := range f.userRoles[userID] {
		names = append(names, f.rolePerms[role]...)
	}
	return names, nil
}

func (f *fakeSource) ListRoleUserIDs(_ context.Context, roleID string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var ids []string
	for user, roles := range f.userRoles {
		for _, r := range roles {
			if r == roleID {
				ids = append(ids, user)
			}
		}
	}
	return ids, nil
}

func (f *fakeSource) grant(role string, perm string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rolePerms[role] = append(f.rolePerms[role], perm)
}

func (f *fakeSource) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type countingObserver struct {
	mu      sync.Mutex
	results map[string]int
}

func (o *countingObserver) PermissionCacheResult(result string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.results == nil {
		o.results = map[string]int{}
	}
	o.results[result]++
}

func newRedisCache(t *testing.T) (*rbac.RedisCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return rbac.NewRedisCache(client, time.Minute), mr
}

func caches(t *testing.T) map[string]rbac.Cache {
	redisCache, _ := newRedisCache(t)
	return map[string]rbac.Cache{
		rbac.CacheNone:   rbac.NoCache{},
		rbac.CacheMemory: rbac.NewMemoryCache(16, time.Minute),
		rbac.CacheRedis:  redisCache,
	}
}

func TestResolverUnion(t *testing.T) {
	ctx := context.Background()

	for name, cache := range caches(t) {
		t.Run(name, func(t *testing.T) {
			r := rbac.NewResolver(newFakeSource(), cache)

			alice, err := r.AllPermissions(ctx, "alice")
			require.NoError(t, err)
			require.Equal(t, []string{"create_transactions", "view_products"}, alice.Names())

			bob, err := r.AllPermissions(ctx, "bob")
			require.NoError(t, err)
			require.Equal(t, []string{"create_transactions", "edit_products", "view_products", "view_reports"}, bob.Names())

			// Adding a role never removes what the first role granted.
			for p := range alice {
				require.True(t, bob.Has(p))
			}

			ok, err := r.HasPermission(ctx, "alice", rbac.EditProducts)
			require.NoError(t, err)
			require.False(t, ok)

			ok, err = r.HasAnyPermission(ctx, "alice", rbac.EditProducts, rbac.ViewProducts)
			require.NoError(t, err)
			require.True(t, ok)

			ok, err = r.HasAllPermissions(ctx, "alice", rbac.EditProducts, rbac.ViewProducts)
			require.NoError(t, err)
			require.False(t, ok)

			nobody, err := r.AllPermissions(ctx, "nobody")
			require.NoError(t, err)
			require.Empty(t, nobody)
		})
	}
}

func TestResolverCachesAndForgets(t *testing.T) {
	ctx := context.Background()

	for name, cache := range caches(t) {
		if name == rbac.CacheNone {
			continue
		}
		t.Run(name, func(t *testing.T) {
			src := newFakeSource()
			obs := &countingObserver{}
			r := rbac.NewResolver(src, cache, rbac.WithObserver(obs))

			_, err := r.AllPermissions(ctx, "alice")
			require.NoError(t, err)
			_, err = r.AllPermissions(ctx, "alice")
			require.NoError(t, err)
			require.Equal(t, 1, src.callCount())
			require.Equal(t, 1, obs.results["hit"])
			require.Equal(t, 1, obs.results["miss"])

			// A grant is invisible until the role's users are forgotten.
			src.grant("cashier", "edit_products")
			ok, err := r.HasPermission(ctx, "alice", rbac.EditProducts)
			require.NoError(t, err)
			require.False(t, ok)

			require.NoError(t, r.ForgetRole(ctx, "cashier"))
			ok, err = r.HasPermission(ctx, "alice", rbac.EditProducts)
			require.NoError(t, err)
			require.True(t, ok)

			require.NoError(t, r.Forget(ctx, "alice"))
			_, err = r.AllPermissions(ctx, "alice")
			require.NoError(t, err)
			require.Equal(t, 3, src.callCount())
		})
	}
}

func TestResolverIgnoresUnknownNames(t *testing.T) {
	src := newFakeSource()
	src.grant("cashier", "launch_rockets")
	src.grant("cashier", "garbage")

	r := rbac.NewResolver(src, nil)
	set, err := r.AllPermissions(context.Background(), "alice")
	require.NoError(t, err)
	require.Equal(t, []string{"create_transactions", "view_products"}, set.Names())
}

func TestResolverSourceError(t *testing.T) {
	src := newFakeSource()
	boom := errors.New("database is locked")
	src.err = boom

	r := rbac.NewResolver(src, rbac.NewMemoryCache(0, 0))
	_, err := r.HasPermission(context.Background(), "alice", rbac.ViewProducts)
	require.ErrorIs(t, err, boom)
}

func TestRedisCache(t *testing.T) {
	ctx := context.Background()
	cache, mr := newRedisCache(t)

	require.NoError(t, cache.Set(ctx, "alice", rbac.NewSet(rbac.ViewProducts)))
	require.True(t, mr.Exists("till:perms:alice"))
	require.Equal(t, time.Minute, mr.TTL("till:perms:alice"))

	set, ok, err := cache.Get(ctx, "alice")
	require.NoError(t, err)
	require.True(t, ok)
	require.True(t, set.Has(rbac.ViewProducts))

	t.Run("expiry", func(t *testing.T) {
		mr.FastForward(2 * time.Minute)
		_, ok, err := cache.Get(ctx, "alice")
		require.NoError(t, err)
		require.False(t, ok)
	})

	t.Run("corrupt entries are dropped", func(t *testing.T) {
		require.NoError(t, mr.Set("till:perms:bob", "{not json"))
		_, ok, err := cache.Get(ctx, "bob")
		require.Error(t, err)
		require.False(t, ok)
		require.False(t, mr.Exists("till:perms:bob"))
	})

	t.Run("resolver falls back when redis is down", func(t *testing.T) {
		r := rbac.NewResolver(newFakeSource(), cache)
		mr.Close()

		ok, err := r.HasPermission(ctx, "alice", rbac.ViewProducts)
		require.NoError(t, err)
		require.True(t, ok)
	})
}

func TestMemoryCacheConcurrent(t *testing.T) {
	ctx := context.Background()
	r := rbac.NewResolver(newFakeSource(), rbac.NewMemoryCache(8, time.Minute))

	var wg sync.WaitGroup
	for i := range 50 {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if i%10 == 0 {
				_ = r.Forget(ctx, "alice", "bob")
				return
			}
			ok, err := r.HasPermission(ctx, "bob", rbac.EditProducts)
			if err != nil || !ok {
				t.Errorf("HasPermission(bob, edit_products) = %v, %v", ok, err)
			}
		}(i)
	}
	wg.Wait()
}
