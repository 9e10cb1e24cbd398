package policy

import (
	"github.com/aussiebroadwan/till/internal/auth/rbac"
)

func targetRole(s Subject) (RoleTarget, bool) {
	switch r := s.Target.(type) {
	case RoleTarget:
		return r, true
	case *RoleTarget:
		if r != nil {
			return *r, true
		}
	}
	return RoleTarget{}, false
}

// RolesTable is the role management policy.
var RolesTable = Table{
	Resource: Roles,
	Rules: []Rule{
		{
			Name: ReasonProtectedRole,
			Eval: func(s Subject) Decision {
				r, ok := targetRole(s)
				if ok && r.Role.IsAdmin() && isAny(s.Action,
					Update, Delete, Restore, ForceDelete,
					AssignPermissions, SyncPermissions, RevokePermissions) {
					return Deny
				}
				return Continue
			},
		},
		{
			Name: ReasonRoleInUse,
			Eval: func(s Subject) Decision {
				r, ok := targetRole(s)
				if ok && r.UsersCount > 0 && isAny(s.Action, Delete, ForceDelete) {
					return Deny
				}
				return Continue
			},
		},
	},
	Permissions: map[Action]rbac.Permission{
		ViewAny:           rbac.ViewRoles,
		View:              rbac.ViewRoles,
		Create:            rbac.CreateRoles,
		Update:            rbac.UpdateRoles,
		Delete:            rbac.DeleteRoles,
		Restore:           rbac.RestoreRoles,
		ForceDelete:       rbac.ForceDeleteRoles,
		AssignPermissions: rbac.AssignPermissionsRoles,
		SyncPermissions:   rbac.AssignPermissionsRoles,
		RevokePermissions: rbac.AssignPermissionsRoles,
	},
}
