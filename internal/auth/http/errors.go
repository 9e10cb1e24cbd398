package http

import (
	"errors"
	"net/http"

	"github.com/aussiebroadwan/till/internal/auth/policy"
	"github.com/aussiebroadwan/till/internal/auth/rbac"
	"github.com/aussiebroadwan/till/internal/auth/service"
	"github.com/aussiebroadwan/till/pkg/authsdk"
	"github.com/aussiebroadwan/till/pkg/slogx"
)

// writeServiceError maps service and policy errors onto API errors.
// Anything unrecognised is logged and reported as a 500.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, policy.ErrForbidden):
		authsdk.ErrInsufficientPermissions.WriteError(w)
	case errors.Is(err, service.ErrUserNotFound):
		authsdk.ErrNotFound.WithMessage("User not found.").WriteError(w)
	case errors.Is(err, service.ErrRoleNotFound):
		authsdk.ErrNotFound.WithMessage("Role not found.").WriteError(w)
	case errors.Is(err, service.ErrNotDeleted):
		authsdk.ErrConflict.WithMessage("The resource is not deleted.").WriteError(w)
	case errors.Is(err, service.ErrEmailTaken):
		authsdk.ValidationError(map[string]string{"email": "The email has already been taken."}).WriteError(w)
	case errors.Is(err, service.ErrRoleNameTaken):
		authsdk.ValidationError(map[string]string{"name": "The name has already been taken."}).WriteError(w)
	case errors.Is(err, service.ErrUnknownRole):
		authsdk.ValidationError(map[string]string{"roles": "The selected roles are invalid."}).WriteError(w)
	case errors.Is(err, rbac.ErrUnknownPermission), errors.Is(err, rbac.ErrMalformedPermission):
		authsdk.ValidationError(map[string]string{"permissions": "The selected permissions are invalid."}).WriteError(w)
	case errors.Is(err, service.ErrInvalidStatus):
		authsdk.ValidationError(map[string]string{"status": "The selected status is invalid."}).WriteError(w)
	default:
		slogx.FromContext(r.Context()).Error("request failed", "err", err)
		authsdk.ErrServerError.WriteError(w)
	}
}
