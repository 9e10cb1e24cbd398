package app

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/require"

	"github.com/aussiebroadwan/till/internal/auth/denylist"
	"github.com/aussiebroadwan/till/pkg/authsdk"
)

func newTestApp(t *testing.T, mutate func(*Config)) *Application {
	t.Helper()

	dir := t.TempDir()
	cfg := validConfig()
	cfg.JWTKeyID = "test"
	cfg.Issuer = "till"
	cfg.DatabaseFile = filepath.Join(dir, "till.db")
	cfg.PepperFile = filepath.Join(dir, "pepper")
	cfg.PermissionCacheTTL = time.Minute
	cfg.PermissionCacheSize = 16
	cfg.ResetTTL = time.Hour
	cfg.AdminName = "Owner"
	cfg.AdminEmail = "admin@example.com"
	cfg.AdminPassword = "admin-password"
	cfg.LogLevel = "error"
	cfg.ShutdownGracePeriod = time.Second
	cfg.HousekeepingInterval = time.Hour
	if mutate != nil {
		mutate(&cfg)
	}

	app, err := New(cfg)
	require.NoError(t, err)
	t.Cleanup(func() {
		app.housekeepingService.Start()
		require.NoError(t, app.Shutdown())
	})
	return app
}

func (app *Application) serve(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	app.router.ServeHTTP(rec, req)
	return rec
}

func loginAdmin(t *testing.T, app *Application) string {
	t.Helper()

	rec := app.serve(t, http.MethodPost, "/auth/login", "", map[string]string{
		"email":    "admin@example.com",
		"password": "admin-password",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var env authsdk.Envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	var data authsdk.LoginResponse
	require.NoError(t, json.Unmarshal(env.Data, &data))
	require.Contains(t, data.User.Roles, "admin")
	return data.Token.AccessToken
}

func TestNewSeedsAdmin(t *testing.T) {
	app := newTestApp(t, nil)

	token := loginAdmin(t, app)

	rec := app.serve(t, http.MethodGet, "/users", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = app.serve(t, http.MethodPost, "/auth/logout", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = app.serve(t, http.MethodGet, "/auth/me", token, nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	cfg := validConfig()
	cfg.JWTSecret = ""

	_, err := New(cfg)
	require.ErrorIs(t, err, ErrMissingSecret)
}

func TestNewWithRedis(t *testing.T) {
	mr := miniredis.RunT(t)

	app := newTestApp(t, func(c *Config) {
		c.DenylistDriver = denylist.DriverRedis
		c.PermissionCache = CacheRedis
		c.RedisURL = "redis://" + mr.Addr()
	})

	token := loginAdmin(t, app)

	rec := app.serve(t, http.MethodGet, "/readyz", "", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = app.serve(t, http.MethodPost, "/auth/logout", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var revoked int
	for _, key := range mr.Keys() {
		if strings.Contains(key, "denylist") {
			revoked++
		}
	}
	require.Equal(t, 1, revoked)

	rec = app.serve(t, http.MethodGet, "/auth/me", token, nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestMetricsExposed(t *testing.T) {
	app := newTestApp(t, nil)

	rec := app.serve(t, http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "till_build_info")
}
