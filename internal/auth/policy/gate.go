package policy

import (
	"context"
	"fmt"

	"github.com/aussiebroadwan/till/internal/auth/domain"
	"github.com/aussiebroadwan/till/internal/auth/rbac"
	"github.com/aussiebroadwan/till/pkg/slogx"
)

// PermissionChecker is satisfied by *rbac.Resolver.
type PermissionChecker interface {
	HasPermission(ctx context.Context, userID string, p rbac.Permission) (bool, error)
}

// DenialObserver is told the reason for every denial.
type DenialObserver interface {
	AuthzDenied(reason string)
}

// Gate evaluates resource policies for an actor.
type Gate struct {
	checker PermissionChecker
	tables  map[Resource]Table
	obs     DenialObserver
}

type GateOption func(*Gate)

func WithDenialObserver(o DenialObserver) GateOption {
	return func(g *Gate) { g.obs = o }
}

// WithTable registers or replaces the table for its resource.
func WithTable(t Table) GateOption {
	return func(g *Gate) { g.tables[t.Resource] = t }
}

func NewGate(checker PermissionChecker, opts ...GateOption) *Gate {
	g := &Gate{
		checker: checker,
		tables: map[Resource]Table{
			Users: UsersTable,
			Roles: RolesTable,
		},
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Authorize returns nil when actor may perform action on target, a
// *DeniedError (matching ErrForbidden) when not, and any other error when
// permissions could not be resolved.
func (g *Gate) Authorize(ctx context.Context, actor domain.User, resource Resource, action Action, target any) error {
	table, ok := g.tables[resource]
	if !ok {
		return g.deny(ctx, resource, action, ReasonUnknownAction)
	}

	decision, reason, perm := table.Evaluate(Subject{Actor: actor, Action: action, Target: target})
	switch decision {
	case Allow:
		return nil
	case Deny:
		return g.deny(ctx, resource, action, reason)
	}

	has, err := g.checker.HasPermission(ctx, actor.ID, perm)
	if err != nil {
		return fmt.Errorf("policy: resolve permissions: %w", err)
	}
	if !has {
		return g.deny(ctx, resource, action, ReasonMissingPermission)
	}
	return nil
}

// Can is Authorize folded to a boolean; resolution errors count as no.
func (g *Gate) Can(ctx context.Context, actor domain.User, resource Resource, action Action, target any) bool {
	return g.Authorize(ctx, actor, resource, action, target) == nil
}

func (g *Gate) deny(ctx context.Context, resource Resource, action Action, reason string) error {
	if g.obs != nil {
		g.obs.AuthzDenied(reason)
	}
	slogx.FromContext(ctx).Info("policy denied",
		"resource", resource,
		"action", action,
		"reason", reason,
	)
	return &DeniedError{Resource: resource, Action: action, Reason: reason}
}
