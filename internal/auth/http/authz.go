package http

import (
	"net/http"

	"github.com/aussiebroadwan/till/internal/auth/domain"
	"github.com/aussiebroadwan/till/internal/auth/policy"
	"github.com/aussiebroadwan/till/pkg/authsdk"
)

// allowed runs the policy gate for the authenticated actor and writes the
// failure response itself. Handlers return when it reports false.
func allowed(w http.ResponseWriter, r *http.Request, gate *policy.Gate, resource policy.Resource, action policy.Action, target any) bool {
	id, ok := domain.IdentityFromContext(r.Context())
	if !ok {
		authsdk.ErrTokenMissing.WriteError(w)
		return false
	}
	if err := gate.Authorize(r.Context(), id.User, resource, action, target); err != nil {
		writeServiceError(w, r, err)
		return false
	}
	return true
}
