package authsdk

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"
)

// refreshBuffer is how long before expiry a session refreshes its token.
// Refresh needs a token that has not expired yet.
const refreshBuffer = 30 * time.Second

// ErrSessionExpired is returned once the access token has expired; the only
// way back is a fresh login.
var ErrSessionExpired = errors.New("authsdk: session expired, log in again")

// Session represents an authenticated session with automatic token refresh.
type Session struct {
	client *SDKClient
	now    func() time.Time

	mu          sync.RWMutex
	accessToken string
	expiresAt   time.Time
	user        UserResponse
}

// newSession creates a new authenticated session from a token response.
func newSession(client *SDKClient, token TokenResponse) *Session {
	s := &Session{client: client, now: time.Now}
	s.setToken(token)
	return s
}

// setToken must be called with mu held for writing (or before the session is shared).
func (s *Session) setToken(token TokenResponse) {
	s.accessToken = token.AccessToken
	s.expiresAt = s.now().Add(time.Duration(token.ExpiresIn) * time.Second)
}

// getValidToken returns the access token, refreshing it when it is inside
// the refresh buffer.
func (s *Session) getValidToken(ctx context.Context) (string, error) {
	s.mu.RLock()
	if s.now().Before(s.expiresAt.Add(-refreshBuffer)) {
		token := s.accessToken
		s.mu.RUnlock()
		return token, nil
	}
	s.mu.RUnlock()

	s.mu.Lock()
	defer s.mu.Unlock()

	// Double-check after acquiring write lock (another goroutine may have refreshed)
	now := s.now()
	if now.Before(s.expiresAt.Add(-refreshBuffer)) {
		return s.accessToken, nil
	}
	if !now.Before(s.expiresAt) {
		return "", ErrSessionExpired
	}

	token, err := s.client.Refresh(ctx, s.accessToken)
	if err != nil {
		return "", fmt.Errorf("failed to refresh token: %w", err)
	}

	s.setToken(*token)
	return s.accessToken, nil
}

// AccessToken returns the current access token without checking expiration.
func (s *Session) AccessToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.accessToken
}

// User returns the snapshot captured at login, or by the last Me call.
func (s *Session) User() UserResponse {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user
}

// Can reports whether the last known snapshot holds permission. The server
// remains authoritative; this only helps clients hide actions up front.
func (s *Session) Can(permission string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, p := range s.user.Permissions {
		if p == permission {
			return true
		}
	}
	return false
}

// Me fetches the authenticated user and updates the cached snapshot.
func (s *Session) Me(ctx context.Context) (*UserResponse, error) {
	resp, err := s.doAuthRequest(ctx, http.MethodGet, "/auth/me", nil)
	if err != nil {
		return nil, err
	}

	var user UserResponse
	if err := decodeJSON(resp, &user, http.StatusOK); err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.user = user
	s.mu.Unlock()

	return &user, nil
}

// Logout revokes the session's token. The session is unusable afterwards.
func (s *Session) Logout(ctx context.Context) error {
	s.mu.Lock()
	token := s.accessToken
	s.accessToken = ""
	s.expiresAt = time.Time{}
	s.mu.Unlock()

	if token == "" {
		return ErrSessionExpired
	}

	return s.client.Logout(ctx, token)
}
