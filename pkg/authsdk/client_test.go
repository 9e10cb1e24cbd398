package authsdk

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type fakeServer struct {
	*httptest.Server
	refreshes atomic.Int32
	revoked   atomic.Value
}

func newFakeServer(t *testing.T) *fakeServer {
	t.Helper()
	fs := &fakeServer{}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/login", func(w http.ResponseWriter, r *http.Request) {
		var req LoginRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		if req.Password != "secret" {
			ErrInvalidCredentials.WriteError(w)
			return
		}
		Respond(w, http.StatusOK, "Login successful.", LoginResponse{
			Token: TokenResponse{AccessToken: "tok-1", TokenType: "Bearer", ExpiresIn: 3600},
			User:  UserResponse{ID: "U1", Email: req.Email, Status: "active", Permissions: []string{"view_products"}},
		})
	})
	mux.HandleFunc("POST /auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		fs.refreshes.Add(1)
		if r.Header.Get("Authorization") != "Bearer tok-1" {
			ErrRefreshFailed.WriteError(w)
			return
		}
		Respond(w, http.StatusOK, "Token refreshed.", RefreshResponse{
			Token: TokenResponse{AccessToken: "tok-2", TokenType: "Bearer", ExpiresIn: 3600},
		})
	})
	mux.HandleFunc("POST /auth/logout", func(w http.ResponseWriter, r *http.Request) {
		fs.revoked.Store(r.Header.Get("Authorization"))
		Respond(w, http.StatusOK, "Successfully logged out.", nil)
	})
	mux.HandleFunc("GET /auth/me", func(w http.ResponseWriter, r *http.Request) {
		switch r.Header.Get("Authorization") {
		case "Bearer tok-1", "Bearer tok-2":
			Respond(w, http.StatusOK, "OK", UserResponse{ID: "U1", Name: "Alice", Permissions: []string{"edit_products"}})
		default:
			ErrTokenExpired.WriteError(w)
		}
	})
	mux.HandleFunc("POST /auth/forgot-password", func(w http.ResponseWriter, r *http.Request) {
		ValidationError(map[string]string{"email": "email"}).WriteError(w)
	})

	fs.Server = httptest.NewServer(mux)
	t.Cleanup(fs.Close)
	return fs
}

func TestLogin(t *testing.T) {
	srv := newFakeServer(t)
	client := NewSDKClient(srv.URL + "/")

	t.Run("success", func(t *testing.T) {
		login, err := client.Login(context.Background(), "alice@example.com", "secret")
		require.NoError(t, err)
		require.Equal(t, "tok-1", login.Token.AccessToken)
		require.Equal(t, 3600, login.Token.ExpiresIn)
		require.Equal(t, "U1", login.User.ID)
	})

	t.Run("invalid credentials", func(t *testing.T) {
		_, err := client.Login(context.Background(), "alice@example.com", "wrong")
		require.ErrorIs(t, err, ErrInvalidCredentials)

		var apiErr *APIError
		require.True(t, errors.As(err, &apiErr))
		require.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
		require.Equal(t, FieldAuth, apiErr.Field)
		require.NotEmpty(t, apiErr.Message)
	})
}

func TestValidationErrorParsing(t *testing.T) {
	srv := newFakeServer(t)
	client := NewSDKClient(srv.URL)

	err := client.ForgotPassword(context.Background(), "nope")
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	require.Equal(t, KindValidationFailed, apiErr.Kind)
	require.Equal(t, http.StatusUnprocessableEntity, apiErr.StatusCode)
	require.Equal(t, map[string]string{"email": "email"}, apiErr.Fields)
}

func TestSession(t *testing.T) {
	srv := newFakeServer(t)
	client := NewSDKClient(srv.URL)
	ctx := context.Background()

	session, err := client.AuthenticateWithPassword(ctx, "alice@example.com", "secret")
	require.NoError(t, err)
	require.True(t, session.Can("view_products"))
	require.False(t, session.Can("edit_products"))

	start := time.Now()
	session.now = func() time.Time { return start }

	t.Run("uses token while fresh", func(t *testing.T) {
		me, err := session.Me(ctx)
		require.NoError(t, err)
		require.Equal(t, "Alice", me.Name)
		require.Equal(t, int32(0), srv.refreshes.Load())
		require.True(t, session.Can("edit_products"))
	})

	t.Run("refreshes inside buffer", func(t *testing.T) {
		session.now = func() time.Time { return start.Add(time.Hour - 10*time.Second) }
		_, err := session.Me(ctx)
		require.NoError(t, err)
		require.Equal(t, int32(1), srv.refreshes.Load())
		require.Equal(t, "tok-2", session.AccessToken())
	})

	t.Run("expired session requires login", func(t *testing.T) {
		session.now = func() time.Time { return start.Add(3 * time.Hour) }
		_, err := session.Me(ctx)
		require.ErrorIs(t, err, ErrSessionExpired)
	})

	t.Run("logout revokes the current token", func(t *testing.T) {
		s := client.NewSessionFromToken("tok-1", 3600)
		require.NoError(t, s.Logout(ctx))
		require.Equal(t, "Bearer tok-1", srv.revoked.Load())
		require.ErrorIs(t, s.Logout(ctx), ErrSessionExpired)
	})
}

func TestAPIErrorWrite(t *testing.T) {
	rec := httptest.NewRecorder()
	ErrTokenExpired.WriteError(rec)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Equal(t, "no-store", rec.Header().Get("Cache-Control"))

	var env Envelope
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&env))
	require.False(t, env.Success)
	require.Equal(t, map[string]string{"token": KindTokenExpired}, env.Errors)

	require.False(t, errors.Is(ErrTokenExpired, ErrTokenInvalid))
	require.True(t, errors.Is(ErrTokenExpired.WithMessage("stale"), ErrTokenExpired))
}
