package service

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/aussiebroadwan/till/internal/auth/denylist"
	"github.com/aussiebroadwan/till/internal/auth/domain"
	"github.com/aussiebroadwan/till/internal/auth/rbac"
	"github.com/aussiebroadwan/till/internal/auth/store/drivers/sqlite"
	"github.com/aussiebroadwan/till/internal/mailer"
	"github.com/aussiebroadwan/till/pkg/cryptox"
	"github.com/aussiebroadwan/till/pkg/jwtx"
)

func TestMain(m *testing.M) {
	dir, err := os.MkdirTemp("", "service-pepper")
	if err != nil {
		panic(err)
	}
	cryptox.SetPepperPath(filepath.Join(dir, "pepper"))

	code := m.Run()
	_ = os.RemoveAll(dir)
	os.Exit(code)
}

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

type outcomes map[string]int

func (o outcomes) LoginAttempt(outcome string) { o[outcome]++ }

// env wires every service over one in-memory store.
type env struct {
	st       *sqlite.Store
	clk      *clock
	codec    *jwtx.Codec
	denylist denylist.Denylist
	cache    *rbac.MemoryCache
	resolver *rbac.Resolver
	mail     *mailer.LogMailer
	logins   outcomes

	auth   *AuthService
	users  *UserService
	roles  *RoleService
	resets *PasswordResetService
	boot   *BootstrapService
}

func newEnv(t *testing.T) *env {
	t.Helper()
	ctx := context.Background()

	st, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	require.NoError(t, st.ApplyMigrations())

	key, err := jwtx.NewHS256Key("", []byte("service-test-secret-0123456789ab"))
	require.NoError(t, err)

	e := &env{
		st:     st,
		clk:    &clock{t: time.Date(2025, 4, 7, 10, 0, 0, 0, time.UTC)},
		cache:  rbac.NewMemoryCache(64, time.Hour),
		mail:   mailer.NewLog(),
		logins: outcomes{},
	}
	e.codec = jwtx.NewCodec(key, jwtx.WithIssuer("till"), jwtx.WithClock(e.clk.now))
	e.denylist = denylist.NewStore(st, denylist.WithClock(e.clk.now))
	e.resolver = rbac.NewResolver(rbac.NewStoreSource(st), e.cache)

	e.auth = &AuthService{
		Store:    st,
		Codec:    e.codec,
		Denylist: e.denylist,
		Resolver: e.resolver,
		TokenTTL: time.Hour,
		Observer: e.logins,
		Now:      e.clk.now,
	}
	e.users = &UserService{Store: st, Resolver: e.resolver}
	e.roles = &RoleService{Store: st, Resolver: e.resolver}
	e.resets = &PasswordResetService{
		Store:    st,
		Mailer:   e.mail,
		Resolver: e.resolver,
		TTL:      30 * time.Minute,
		ResetURL: "https://pos.example.com/reset-password",
		Now:      e.clk.now,
	}
	e.boot = &BootstrapService{Store: st, Resolver: e.resolver}

	require.NoError(t, e.boot.Seed(ctx, domain.SeedData{
		AdminName:     "Owner",
		AdminEmail:    "owner@example.com",
		AdminPassword: "owner-password",
		Roles:         DefaultRoles(),
	}))
	return e
}

func (e *env) createUser(t *testing.T, email, password string, roles ...string) UserDetails {
	t.Helper()
	d, err := e.users.Create(context.Background(), CreateUserInput{
		Name:     "User " + email,
		Email:    email,
		Password: password,
		Roles:    roles,
	})
	require.NoError(t, err)
	return d
}
