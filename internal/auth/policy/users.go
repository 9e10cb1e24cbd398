package policy

import (
	"github.com/aussiebroadwan/till/internal/auth/domain"
	"github.com/aussiebroadwan/till/internal/auth/rbac"
)

func targetUser(s Subject) (domain.User, bool) {
	switch u := s.Target.(type) {
	case domain.User:
		return u, true
	case *domain.User:
		if u != nil {
			return *u, true
		}
	}
	return domain.User{}, false
}

func isSelf(s Subject) bool {
	u, ok := targetUser(s)
	return ok && u.ID != "" && u.ID == s.Actor.ID
}

// UsersTable is the user management policy.
var UsersTable = Table{
	Resource: Users,
	Rules: []Rule{
		{
			// Anyone may see and edit their own profile.
			Name: "self_profile",
			Eval: func(s Subject) Decision {
				if isSelf(s) && isAny(s.Action, View, Update) {
					return Allow
				}
				return Continue
			},
		},
		{
			// Nobody may suspend, delete or re-role themselves.
			Name: ReasonSelfAction,
			Eval: func(s Subject) Decision {
				if isSelf(s) && isAny(s.Action, UpdateStatus, Delete, Restore, ForceDelete, AssignRoles) {
					return Deny
				}
				return Continue
			},
		},
	},
	Permissions: map[Action]rbac.Permission{
		ViewAny:      rbac.ViewUsers,
		View:         rbac.ViewUsers,
		Create:       rbac.CreateUsers,
		Update:       rbac.UpdateUsers,
		Delete:       rbac.DeleteUsers,
		Restore:      rbac.RestoreUsers,
		ForceDelete:  rbac.ForceDeleteUsers,
		UpdateStatus: rbac.UpdateStatusUsers,
		AssignRoles:  rbac.AssignRolesUsers,
	},
}
