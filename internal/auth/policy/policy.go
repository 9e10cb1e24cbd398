// Package policy layers resource specific rules over raw permission checks.
// Each resource has a table of rules evaluated in order; the first rule
// that allows or denies wins, and anything left over falls through to the
// generic "<action>_<resource>" permission.
package policy

import (
	"errors"
	"fmt"

	"github.com/aussiebroadwan/till/internal/auth/domain"
	"github.com/aussiebroadwan/till/internal/auth/rbac"
)

type Decision int

const (
	Continue Decision = iota
	Allow
	Deny
)

func (d Decision) String() string {
	switch d {
	case Allow:
		return "allow"
	case Deny:
		return "deny"
	default:
		return "continue"
	}
}

type Action string

const (
	ViewAny           Action = "viewAny"
	View              Action = "view"
	Create            Action = "create"
	Update            Action = "update"
	Delete            Action = "delete"
	Restore           Action = "restore"
	ForceDelete       Action = "forceDelete"
	UpdateStatus      Action = "updateStatus"
	AssignRoles       Action = "assignRoles"
	AssignPermissions Action = "assignPermissions"
	SyncPermissions   Action = "syncPermissions"
	RevokePermissions Action = "revokePermissions"
)

type Resource string

const (
	Users Resource = "users"
	Roles Resource = "roles"
)

// Deny reasons, also used as metric labels.
const (
	ReasonSelfAction        = "self_action"
	ReasonProtectedRole     = "protected_role"
	ReasonRoleInUse         = "role_in_use"
	ReasonMissingPermission = "missing_permission"
	ReasonUnknownAction     = "unknown_action"
)

var ErrForbidden = errors.New("policy: forbidden")

// DeniedError says which rule refused the request.
type DeniedError struct {
	Resource Resource
	Action   Action
	Reason   string
}

func (e *DeniedError) Error() string {
	return fmt.Sprintf("policy: %s %s denied: %s", e.Action, e.Resource, e.Reason)
}

func (e *DeniedError) Is(target error) bool { return target == ErrForbidden }

// Subject is one authorization question. Target is nil for actions that
// have no instance (viewAny, create); otherwise a domain.User for Users and
// a RoleTarget for Roles.
type Subject struct {
	Actor  domain.User
	Action Action
	Target any
}

// RoleTarget carries the facts role rules need beyond the role itself.
type RoleTarget struct {
	Role       domain.Role
	UsersCount int
}

// Rule inspects a subject without side effects.
type Rule struct {
	Name string // deny reason reported when the rule denies
	Eval func(Subject) Decision
}

// Table is the policy for one resource.
type Table struct {
	Resource    Resource
	Rules       []Rule
	Permissions map[Action]rbac.Permission
}

// Evaluate runs the rules only. It returns Continue when the generic
// permission check must decide, along with the permission to check.
func (t Table) Evaluate(s Subject) (Decision, string, rbac.Permission) {
	for _, rule := range t.Rules {
		switch rule.Eval(s) {
		case Allow:
			return Allow, rule.Name, rbac.Permission{}
		case Deny:
			return Deny, rule.Name, rbac.Permission{}
		}
	}

	perm, ok := t.Permissions[s.Action]
	if !ok {
		return Deny, ReasonUnknownAction, rbac.Permission{}
	}
	return Continue, "", perm
}

func isAny(a Action, set ...Action) bool {
	for _, s := range set {
		if a == s {
			return true
		}
	}
	return false
}
