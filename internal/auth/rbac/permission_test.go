package rbac_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/aussiebroadwan/till/internal/auth/rbac"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		want    rbac.Permission
		wantErr bool
	}{
		{name: "view_users", want: rbac.ViewUsers},
		{name: "force_delete_roles", want: rbac.ForceDeleteRoles},
		{name: "assign_permissions_roles", want: rbac.AssignPermissionsRoles},
		{name: "users", wantErr: true},
		{name: "_users", wantErr: true},
		{name: "view_", wantErr: true},
		{name: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := rbac.Parse(tt.name)
			if tt.wantErr {
				require.ErrorIs(t, err, rbac.ErrMalformedPermission)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
			require.Equal(t, tt.name, got.String())
		})
	}
}

func TestCatalogLookup(t *testing.T) {
	p, err := rbac.DefaultCatalog.Lookup("edit_products")
	require.NoError(t, err)
	require.Equal(t, rbac.EditProducts, p)

	_, err = rbac.DefaultCatalog.Lookup("launch_rockets")
	require.ErrorIs(t, err, rbac.ErrUnknownPermission)

	_, err = rbac.DefaultCatalog.Lookup("rockets")
	require.ErrorIs(t, err, rbac.ErrMalformedPermission)

	_, err = rbac.DefaultCatalog.LookupAll("view_users", "nope_nope")
	require.Error(t, err)

	require.Panics(t, func() { rbac.DefaultCatalog.MustLookup("nope_nope") })

	for _, name := range rbac.DefaultCatalog.Names() {
		_, err := rbac.Parse(name)
		require.NoError(t, err, name)
	}

	require.Equal(t,
		[]rbac.Permission{rbac.ViewProducts, rbac.EditProducts},
		rbac.DefaultCatalog.MustParseList("view_products, edit_products,"),
	)
	require.Len(t, rbac.DefaultCatalog.All(), len(rbac.DefaultCatalog.Names()))
}

func TestSet(t *testing.T) {
	s := rbac.NewSet(rbac.ViewProducts, rbac.ViewUsers, rbac.ViewProducts)

	require.Len(t, s, 2)
	require.True(t, s.Has(rbac.ViewProducts))
	require.False(t, s.Has(rbac.EditProducts))
	require.True(t, s.HasAny(rbac.EditProducts, rbac.ViewProducts))
	require.False(t, s.HasAny())
	require.False(t, s.HasAll(rbac.EditProducts, rbac.ViewProducts))
	require.True(t, s.HasAll())
	require.Equal(t, []string{"view_products", "view_users"}, s.Names())
}
