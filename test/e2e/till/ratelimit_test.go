package till_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
)

// TestRateLimitLogin uses the production profile: five attempts per minute
// for one ip and email pair.
func TestRateLimitLogin(t *testing.T) {
	baseURL := setupTillContainerWithDefaultRateLimits(t)
	body := map[string]string{"email": adminEmail, "password": "wrong-password"}

	for i := range 5 {
		status, _ := call(t, baseURL, http.MethodPost, "/auth/login", "", body)
		require.Equal(t, http.StatusUnauthorized, status, "attempt %d", i+1)
	}

	status, _ := call(t, baseURL, http.MethodPost, "/auth/login", "", body)
	require.Equal(t, http.StatusTooManyRequests, status)

	// A different email has its own bucket.
	status, _ = call(t, baseURL, http.MethodPost, "/auth/login", "",
		map[string]string{"email": "someone@till.test", "password": "wrong-password"})
	require.Equal(t, http.StatusUnauthorized, status)
}

func TestRateLimitHealthIsLenient(t *testing.T) {
	baseURL := setupTillContainerWithDefaultRateLimits(t)

	for range 50 {
		status, _ := call(t, baseURL, http.MethodGet, "/livez", "", nil)
		require.Equal(t, http.StatusOK, status)
	}
}
