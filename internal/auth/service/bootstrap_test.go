package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/aussiebroadwan/till/internal/auth/domain"
	"github.com/aussiebroadwan/till/internal/auth/rbac"
	"github.com/aussiebroadwan/till/internal/auth/store"
)

func TestSeedIsIdempotent(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)

	res, err := e.auth.Login(ctx, "owner@example.com", "owner-password")
	require.NoError(t, err)
	require.Equal(t, []string{domain.AdminRoleName}, res.User.RoleNames())
	require.ElementsMatch(t, rbac.DefaultCatalog.Names(), res.User.Permissions)

	// An operator trims the manager role; a reseed must not undo it.
	manager, err := e.st.Roles().GetRoleByName(ctx, "manager")
	require.NoError(t, err)
	_, err = e.roles.SyncPermissions(ctx, manager.ID, []string{"view_products"})
	require.NoError(t, err)

	seed := domain.SeedData{AdminEmail: "second@example.com", AdminPassword: "pw", Roles: DefaultRoles()}
	require.NoError(t, e.boot.Seed(ctx, seed))

	users, err := e.users.List(ctx, store.UserFilter{})
	require.NoError(t, err)
	require.Len(t, users, 1, "admin user is only created on an empty database")

	got, err := e.roles.Get(ctx, manager.ID, false)
	require.NoError(t, err)
	require.Equal(t, []string{"view_products"}, got.Permissions)

	roles, err := e.roles.List(ctx, false)
	require.NoError(t, err)
	require.Len(t, roles, 3)
}

func TestSeedRequiresAdminRole(t *testing.T) {
	e := newEnv(t)
	err := e.boot.Seed(context.Background(), domain.SeedData{
		Roles: []domain.RoleDefinition{{Name: "cashier", Permissions: []string{"view_products"}}},
	})
	require.ErrorIs(t, err, ErrSeedAdminRole)
}
