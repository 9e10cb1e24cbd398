package rbac

import (
	"fmt"
	"sort"
	"strings"
)

const (
	ActionView              Action = "view"
	ActionCreate            Action = "create"
	ActionUpdate            Action = "update"
	ActionEdit              Action = "edit"
	ActionDelete            Action = "delete"
	ActionRestore           Action = "restore"
	ActionForceDelete       Action = "force_delete"
	ActionUpdateStatus      Action = "update_status"
	ActionAssignRoles       Action = "assign_roles"
	ActionAssignPermissions Action = "assign_permissions"
)

const (
	ResourceUsers        Resource = "users"
	ResourceRoles        Resource = "roles"
	ResourceProducts     Resource = "products"
	ResourceTransactions Resource = "transactions"
	ResourceOutlets      Resource = "outlets"
	ResourceReports      Resource = "reports"
)

var (
	ViewUsers         = Permission{ActionView, ResourceUsers}
	CreateUsers       = Permission{ActionCreate, ResourceUsers}
	UpdateUsers       = Permission{ActionUpdate, ResourceUsers}
	DeleteUsers       = Permission{ActionDelete, ResourceUsers}
	RestoreUsers      = Permission{ActionRestore, ResourceUsers}
	ForceDeleteUsers  = Permission{ActionForceDelete, ResourceUsers}
	UpdateStatusUsers = Permission{ActionUpdateStatus, ResourceUsers}
	AssignRolesUsers  = Permission{ActionAssignRoles, ResourceUsers}

	ViewRoles              = Permission{ActionView, ResourceRoles}
	CreateRoles            = Permission{ActionCreate, ResourceRoles}
	UpdateRoles            = Permission{ActionUpdate, ResourceRoles}
	DeleteRoles            = Permission{ActionDelete, ResourceRoles}
	RestoreRoles           = Permission{ActionRestore, ResourceRoles}
	ForceDeleteRoles       = Permission{ActionForceDelete, ResourceRoles}
	AssignPermissionsRoles = Permission{ActionAssignPermissions, ResourceRoles}

	ViewProducts   = Permission{ActionView, ResourceProducts}
	CreateProducts = Permission{ActionCreate, ResourceProducts}
	EditProducts   = Permission{ActionEdit, ResourceProducts}
	DeleteProducts = Permission{ActionDelete, ResourceProducts}

	ViewTransactions   = Permission{ActionView, ResourceTransactions}
	CreateTransactions = Permission{ActionCreate, ResourceTransactions}

	ViewOutlets   = Permission{ActionView, ResourceOutlets}
	CreateOutlets = Permission{ActionCreate, ResourceOutlets}
	EditOutlets   = Permission{ActionEdit, ResourceOutlets}
	DeleteOutlets = Permission{ActionDelete, ResourceOutlets}

	ViewReports = Permission{ActionView, ResourceReports}
)

// Catalog is the closed set of permissions the service knows about.
type Catalog struct {
	byName map[string]Permission
}

// DefaultCatalog lists every permission seeded into the store.
var DefaultCatalog = NewCatalog(
	ViewUsers, CreateUsers, UpdateUsers, DeleteUsers, RestoreUsers,
	ForceDeleteUsers, UpdateStatusUsers, AssignRolesUsers,
	ViewRoles, CreateRoles, UpdateRoles, DeleteRoles, RestoreRoles,
	ForceDeleteRoles, AssignPermissionsRoles,
	ViewProducts, CreateProducts, EditProducts, DeleteProducts,
	ViewTransactions, CreateTransactions,
	ViewOutlets, CreateOutlets, EditOutlets, DeleteOutlets,
	ViewReports,
)

func NewCatalog(perms ...Permission) *Catalog {
	c := &Catalog{byName: make(map[string]Permission, len(perms))}
	for _, p := range perms {
		c.byName[p.String()] = p
	}
	return c
}

// Lookup parses name and checks it is in the catalog.
func (c *Catalog) Lookup(name string) (Permission, error) {
	p, ok := c.byName[name]
	if ok {
		return p, nil
	}
	if _, err := Parse(name); err != nil {
		return Permission{}, err
	}
	return Permission{}, fmt.Errorf("%w: %q", ErrUnknownPermission, name)
}

// LookupAll resolves every name, failing on the first unknown one.
func (c *Catalog) LookupAll(names ...string) ([]Permission, error) {
	out := make([]Permission, 0, len(names))
	for _, n := range names {
		p, err := c.Lookup(n)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

// MustLookup is LookupAll for route tables built at startup.
func (c *Catalog) MustLookup(names ...string) []Permission {
	perms, err := c.LookupAll(names...)
	if err != nil {
		panic(err)
	}
	return perms
}

func (c *Catalog) Contains(p Permission) bool {
	_, ok := c.byName[p.String()]
	return ok
}

// Names returns every permission name, sorted.
func (c *Catalog) Names() []string {
	names := make([]string, 0, len(c.byName))
	for n := range c.byName {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// All returns every permission, ordered by name.
func (c *Catalog) All() []Permission {
	names := c.Names()
	out := make([]Permission, len(names))
	for i, n := range names {
		out[i] = c.byName[n]
	}
	return out
}

// MustParseList resolves a comma separated list such as
// "view_products,edit_products".
func (c *Catalog) MustParseList(list string) []Permission {
	var names []string
	for _, n := range strings.Split(list, ",") {
		if n = strings.TrimSpace(n); n != "" {
			names = append(names, n)
		}
	}
	return c.MustLookup(names...)
}
