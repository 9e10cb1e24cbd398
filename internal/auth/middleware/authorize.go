package middleware

import (
	"context"
	"net/http"

	"github.com/aussiebroadwan/till/internal/auth/domain"
	"github.com/aussiebroadwan/till/internal/auth/policy"
	"github.com/aussiebroadwan/till/internal/auth/rbac"
	"github.com/aussiebroadwan/till/pkg/authsdk"
	"github.com/aussiebroadwan/till/pkg/httpx"
	"github.com/aussiebroadwan/till/pkg/slogx"
)

// PermissionChecker is satisfied by *rbac.Resolver.
type PermissionChecker interface {
	HasAnyPermission(ctx context.Context, userID string, perms ...rbac.Permission) (bool, error)
	HasAllPermissions(ctx context.Context, userID string, perms ...rbac.Permission) (bool, error)
}

// RequirePermission lets the request through when the caller holds at
// least one of perms.
func RequirePermission(checker PermissionChecker, perms []rbac.Permission, opts ...Option) httpx.Middleware {
	return requirePermissions(checker.HasAnyPermission, perms, opts)
}

// RequireAllPermissions lets the request through only when the caller
// holds every one of perms.
func RequireAllPermissions(checker PermissionChecker, perms []rbac.Permission, opts ...Option) httpx.Middleware {
	return requirePermissions(checker.HasAllPermissions, perms, opts)
}

type checkFunc func(ctx context.Context, userID string, perms ...rbac.Permission) (bool, error)

func requirePermissions(check checkFunc, perms []rbac.Permission, opts []Option) httpx.Middleware {
	cfg := buildConfig(opts)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			id, ok := domain.IdentityFromContext(ctx)
			if !ok {
				cfg.reject(w, authsdk.ErrTokenMissing)
				return
			}

			allowed, err := check(ctx, id.User.ID, perms...)
			if err != nil {
				slogx.FromContext(ctx).Error("permission check failed", "err", err)
				authsdk.ErrServerError.WriteError(w)
				return
			}
			if !allowed {
				if cfg.obs != nil {
					cfg.obs.AuthzDenied(policy.ReasonMissingPermission)
				}
				slogx.FromContext(ctx).Info("route permission denied", "required", rbac.NewSet(perms...).Names())
				authsdk.ErrInsufficientPermissions.WriteError(w)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
