package till_test

import (
	"net/http"
	"testing"

	"github.com/aussiebroadwan/till/pkg/authsdk"
	"github.com/stretchr/testify/require"
)

// TestCashierPermissions checks a seeded role end to end: a cashier can read
// products but cannot edit them or manage users.
func TestCashierPermissions(t *testing.T) {
	baseURL := setupTillContainer(t)
	client := authsdk.NewSDKClient(baseURL)

	admin := loginAdmin(t, client)
	createUser(t, baseURL, admin.AccessToken(), "cashier@till.test", "cashier")

	cashier, err := client.AuthenticateWithPassword(t.Context(), "cashier@till.test", "cashier@till.test-password")
	require.NoError(t, err)
	require.True(t, cashier.Can("view_products"))
	require.False(t, cashier.Can("edit_products"))

	status, _ := call(t, baseURL, http.MethodGet, "/products", cashier.AccessToken(), nil)
	require.Equal(t, http.StatusOK, status)

	status, env := call(t, baseURL, http.MethodPut, "/products/flat-white", cashier.AccessToken(),
		map[string]any{"price_cents": 100})
	require.Equal(t, http.StatusForbidden, status)
	require.Equal(t, authsdk.KindInsufficientPermissions, env.Errors[authsdk.FieldPermission])

	status, _ = call(t, baseURL, http.MethodGet, "/users", cashier.AccessToken(), nil)
	require.Equal(t, http.StatusForbidden, status)
}

// TestSuspendedUserLosesAccess checks that suspension takes effect on the
// next request, not at token expiry.
func TestSuspendedUserLosesAccess(t *testing.T) {
	baseURL := setupTillContainer(t)
	client := authsdk.NewSDKClient(baseURL)

	admin := loginAdmin(t, client)
	createUser(t, baseURL, admin.AccessToken(), "manager@till.test", "manager")

	manager, err := client.AuthenticateWithPassword(t.Context(), "manager@till.test", "manager@till.test-password")
	require.NoError(t, err)

	status, env := call(t, baseURL, http.MethodGet, "/users?search=manager", admin.AccessToken(), nil)
	require.Equal(t, http.StatusOK, status, env.Message)

	id := manager.User().ID
	status, _ = call(t, baseURL, http.MethodPatch, "/users/"+id+"/status", admin.AccessToken(),
		authsdk.UpdateUserStatusRequest{Status: "suspended"})
	require.Equal(t, http.StatusOK, status)

	status, env = call(t, baseURL, http.MethodGet, "/auth/me", manager.AccessToken(), nil)
	require.Equal(t, http.StatusForbidden, status)
	require.Equal(t, authsdk.KindAccountSuspended, env.Errors[authsdk.FieldUser])
}
