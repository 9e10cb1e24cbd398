package rbac

import (
	"context"
	"fmt"

	"github.com/aussiebroadwan/till/internal/auth/store"
	"github.com/aussiebroadwan/till/pkg/slogx"
)

// Source is where effective permissions come from when the cache misses.
type Source interface {
	PermissionNamesForUser(ctx context.Context, userID string) ([]string, error)
	ListRoleUserIDs(ctx context.Context, roleID string) ([]string, error)
}

type storeSource struct {
	st store.Store
}

// NewStoreSource reads permissions straight from the credential store.
func NewStoreSource(st store.Store) Source {
	return storeSource{st: st}
}

func (s storeSource) PermissionNamesForUser(ctx context.Context, userID string) ([]string, error) {
	return s.st.Permissions().PermissionNamesForUser(ctx, userID)
}

func (s storeSource) ListRoleUserIDs(ctx context.Context, roleID string) ([]string, error) {
	return s.st.Roles().ListRoleUserIDs(ctx, roleID)
}

// Observer receives one call per cache lookup with "hit", "miss" or "error".
type Observer interface {
	PermissionCacheResult(result string)
}

type Option func(*Resolver)

func WithObserver(o Observer) Option {
	return func(r *Resolver) { r.obs = o }
}

// WithCatalog sets the catalog names are checked against. Defaults to DefaultCatalog.
func WithCatalog(c *Catalog) Option {
	return func(r *Resolver) { r.catalog = c }
}

// Resolver answers permission questions for a user: the union of the
// permissions granted by every role they hold.
type Resolver struct {
	src     Source
	cache   Cache
	catalog *Catalog
	obs     Observer
}

// NewResolver returns a resolver reading from src. A nil cache means no caching.
func NewResolver(src Source, cache Cache, opts ...Option) *Resolver {
	if cache == nil {
		cache = NoCache{}
	}
	r := &Resolver{src: src, cache: cache, catalog: DefaultCatalog}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Resolver) observe(result string) {
	if r.obs != nil {
		r.obs.PermissionCacheResult(result)
	}
}

// AllPermissions returns the user's effective permission set. A cache
// failure falls back to the source; the cache never changes the answer.
func (r *Resolver) AllPermissions(ctx context.Context, userID string) (Set, error) {
	log := slogx.FromContext(ctx)

	set, ok, err := r.cache.Get(ctx, userID)
	switch {
	case err != nil:
		r.observe("error")
		log.Warn("permission cache get failed", "user_id", userID, "err", err)
	case ok:
		r.observe("hit")
		return set, nil
	default:
		r.observe("miss")
	}

	names, err := r.src.PermissionNamesForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("rbac: load permissions: %w", err)
	}

	set = make(Set, len(names))
	for _, name := range names {
		p, err := r.catalog.Lookup(name)
		if err != nil {
			// Granted in the store but unknown to this build. Ignored so a
			// newer catalog entry cannot widen access here.
			log.Warn("ignoring permission outside catalog", "permission", name, "err", err)
			continue
		}
		set[p] = struct{}{}
	}

	if err := r.cache.Set(ctx, userID, set); err != nil {
		log.Warn("permission cache set failed", "user_id", userID, "err", err)
	}
	return set, nil
}

func (r *Resolver) HasPermission(ctx context.Context, userID string, p Permission) (bool, error) {
	set, err := r.AllPermissions(ctx, userID)
	if err != nil {
		return false, err
	}
	return set.Has(p), nil
}

// HasAnyPermission is OR over perms.
func (r *Resolver) HasAnyPermission(ctx context.Context, userID string, perms ...Permission) (bool, error) {
	set, err := r.AllPermissions(ctx, userID)
	if err != nil {
		return false, err
	}
	return set.HasAny(perms...), nil
}

// HasAllPermissions is AND over perms.
func (r *Resolver) HasAllPermissions(ctx context.Context, userID string, perms ...Permission) (bool, error) {
	set, err := r.AllPermissions(ctx, userID)
	if err != nil {
		return false, err
	}
	return set.HasAll(perms...), nil
}

// Forget drops cached sets, e.g. after a user's roles change.
func (r *Resolver) Forget(ctx context.Context, userIDs ...string) error {
	if len(userIDs) == 0 {
		return nil
	}
	return r.cache.Forget(ctx, userIDs...)
}

// ForgetRole drops the cached set of every user holding roleID. Call it
// after the change is committed; for deletions collect the user ids first
// and use Forget.
func (r *Resolver) ForgetRole(ctx context.Context, roleID string) error {
	userIDs, err := r.src.ListRoleUserIDs(ctx, roleID)
	if err != nil {
		return fmt.Errorf("rbac: list role users: %w", err)
	}
	return r.Forget(ctx, userIDs...)
}
