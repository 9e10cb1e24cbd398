package http

import (
	"context"
	"net/http"

	"github.com/aussiebroadwan/till/internal/auth/policy"
	"github.com/aussiebroadwan/till/internal/auth/service"
	"github.com/aussiebroadwan/till/pkg/authsdk"
	"github.com/aussiebroadwan/till/pkg/idx"
)

// RolesHandler serves /roles and /permissions.
type RolesHandler struct {
	Roles *service.RoleService
	Gate  *policy.Gate
}

func (h *RolesHandler) load(w http.ResponseWriter, r *http.Request, withDeleted bool) (service.RoleDetails, bool) {
	id := r.PathValue("id")
	if !idx.Valid(id) {
		writeServiceError(w, r, service.ErrRoleNotFound)
		return service.RoleDetails{}, false
	}

	d, err := h.Roles.Get(r.Context(), id, withDeleted)
	if err != nil {
		writeServiceError(w, r, err)
		return service.RoleDetails{}, false
	}
	return d, true
}

// HandleList lists roles.
//
//	@Summary		List roles
//	@Description	Returns every role with its permissions and holder count. trashed=with includes soft deleted roles.
//	@Tags			Roles
//	@Produce		json
//	@Param			trashed	query		string	false	"with"
//	@Success		200		{object}	authsdk.Envelope{data=authsdk.ListRolesResponse}	"Roles"
//	@Failure		401		{object}	authsdk.Envelope	"Unauthenticated"
//	@Failure		403		{object}	authsdk.Envelope	"InsufficientPermissions"
//	@Security		BearerAuth
//	@Router			/roles [get].
func (h *RolesHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	if !allowed(w, r, h.Gate, policy.Roles, policy.ViewAny, nil) {
		return
	}

	roles, err := h.Roles.List(r.Context(), r.URL.Query().Get("trashed") == "with")
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	out := authsdk.ListRolesResponse{Roles: make([]authsdk.RoleResponse, 0, len(roles))}
	for _, d := range roles {
		out.Roles = append(out.Roles, toRoleResponse(d))
	}
	authsdk.Respond(w, http.StatusOK, "Roles retrieved.", out)
}

// HandleShow returns one role.
//
//	@Summary		Show role
//	@Tags			Roles
//	@Produce		json
//	@Param			id	path		string	true	"Role ID"
//	@Success		200	{object}	authsdk.Envelope{data=authsdk.RoleResponse}	"Role"
//	@Failure		403	{object}	authsdk.Envelope	"InsufficientPermissions"
//	@Failure		404	{object}	authsdk.Envelope	"NotFound"
//	@Security		BearerAuth
//	@Router			/roles/{id} [get].
func (h *RolesHandler) HandleShow(w http.ResponseWriter, r *http.Request) {
	d, ok := h.load(w, r, false)
	if !ok || !allowed(w, r, h.Gate, policy.Roles, policy.View, d.Target()) {
		return
	}
	authsdk.Respond(w, http.StatusOK, "Role retrieved.", toRoleResponse(d))
}

// HandleCreate creates a role.
//
//	@Summary		Create role
//	@Description	Creates a role. Permissions must come from the catalog.
//	@Tags			Roles
//	@Accept			json
//	@Produce		json
//	@Param			request	body		authsdk.CreateRoleRequest	true	"Role"
//	@Success		201		{object}	authsdk.Envelope{data=authsdk.RoleResponse}	"Created"
//	@Failure		403		{object}	authsdk.Envelope	"InsufficientPermissions"
//	@Failure		422		{object}	authsdk.Envelope	"ValidationFailed"
//	@Security		BearerAuth
//	@Router			/roles [post].
func (h *RolesHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	if !allowed(w, r, h.Gate, policy.Roles, policy.Create, nil) {
		return
	}

	var req authsdk.CreateRoleRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	d, err := h.Roles.Create(r.Context(), service.CreateRoleInput{
		Name:        req.Name,
		Label:       req.Label,
		Description: req.Description,
		Permissions: req.Permissions,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	authsdk.Respond(w, http.StatusCreated, "Role created.", toRoleResponse(d))
}

// HandleUpdate edits label and description.
//
//	@Summary		Update role
//	@Description	Updates the label and description. The admin role cannot be modified.
//	@Tags			Roles
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string						true	"Role ID"
//	@Param			request	body		authsdk.UpdateRoleRequest	true	"Changes"
//	@Success		200		{object}	authsdk.Envelope{data=authsdk.RoleResponse}	"Updated"
//	@Failure		403		{object}	authsdk.Envelope	"InsufficientPermissions"
//	@Failure		404		{object}	authsdk.Envelope	"NotFound"
//	@Failure		422		{object}	authsdk.Envelope	"ValidationFailed"
//	@Security		BearerAuth
//	@Router			/roles/{id} [put].
func (h *RolesHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	d, ok := h.load(w, r, false)
	if !ok || !allowed(w, r, h.Gate, policy.Roles, policy.Update, d.Target()) {
		return
	}

	var req authsdk.UpdateRoleRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	d, err := h.Roles.Update(r.Context(), d.Role.ID, req.Label, req.Description)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	authsdk.Respond(w, http.StatusOK, "Role updated.", toRoleResponse(d))
}

// HandleDelete soft deletes a role.
//
//	@Summary		Delete role
//	@Description	Soft deletes a role. The admin role and roles still held by users cannot be deleted.
//	@Tags			Roles
//	@Produce		json
//	@Param			id	path		string	true	"Role ID"
//	@Success		200	{object}	authsdk.Envelope	"Deleted"
//	@Failure		403	{object}	authsdk.Envelope	"InsufficientPermissions"
//	@Failure		404	{object}	authsdk.Envelope	"NotFound"
//	@Security		BearerAuth
//	@Router			/roles/{id} [delete].
func (h *RolesHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	d, ok := h.load(w, r, false)
	if !ok || !allowed(w, r, h.Gate, policy.Roles, policy.Delete, d.Target()) {
		return
	}
	if err := h.Roles.Delete(r.Context(), d.Role.ID); err != nil {
		writeServiceError(w, r, err)
		return
	}
	authsdk.Respond(w, http.StatusOK, "Role deleted.", nil)
}

// HandleRestore brings back a soft deleted role.
//
//	@Summary		Restore role
//	@Tags			Roles
//	@Produce		json
//	@Param			id	path		string	true	"Role ID"
//	@Success		200	{object}	authsdk.Envelope{data=authsdk.RoleResponse}	"Restored"
//	@Failure		403	{object}	authsdk.Envelope	"InsufficientPermissions"
//	@Failure		404	{object}	authsdk.Envelope	"NotFound"
//	@Failure		409	{object}	authsdk.Envelope	"Conflict"
//	@Security		BearerAuth
//	@Router			/roles/{id}/restore [post].
func (h *RolesHandler) HandleRestore(w http.ResponseWriter, r *http.Request) {
	d, ok := h.load(w, r, true)
	if !ok || !allowed(w, r, h.Gate, policy.Roles, policy.Restore, d.Target()) {
		return
	}
	d, err := h.Roles.Restore(r.Context(), d.Role.ID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	authsdk.Respond(w, http.StatusOK, "Role restored.", toRoleResponse(d))
}

// HandleForceDelete permanently removes a role.
//
//	@Summary		Force delete role
//	@Tags			Roles
//	@Produce		json
//	@Param			id	path		string	true	"Role ID"
//	@Success		200	{object}	authsdk.Envelope	"Deleted"
//	@Failure		403	{object}	authsdk.Envelope	"InsufficientPermissions"
//	@Failure		404	{object}	authsdk.Envelope	"NotFound"
//	@Security		BearerAuth
//	@Router			/roles/{id}/force [delete].
func (h *RolesHandler) HandleForceDelete(w http.ResponseWriter, r *http.Request) {
	d, ok := h.load(w, r, true)
	if !ok || !allowed(w, r, h.Gate, policy.Roles, policy.ForceDelete, d.Target()) {
		return
	}
	if err := h.Roles.ForceDelete(r.Context(), d.Role.ID); err != nil {
		writeServiceError(w, r, err)
		return
	}
	authsdk.Respond(w, http.StatusOK, "Role permanently deleted.", nil)
}

// HandleAssignPermissions adds permissions to a role.
//
//	@Summary		Assign permissions
//	@Tags			Roles
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string							true	"Role ID"
//	@Param			request	body		authsdk.RolePermissionsRequest	true	"Permission names"
//	@Success		200		{object}	authsdk.Envelope{data=authsdk.RoleResponse}	"Updated"
//	@Failure		403		{object}	authsdk.Envelope	"InsufficientPermissions"
//	@Failure		404		{object}	authsdk.Envelope	"NotFound"
//	@Failure		422		{object}	authsdk.Envelope	"ValidationFailed"
//	@Security		BearerAuth
//	@Router			/roles/{id}/permissions [post].
func (h *RolesHandler) HandleAssignPermissions(w http.ResponseWriter, r *http.Request) {
	var req authsdk.RolePermissionsRequest
	h.changePermissions(w, r, policy.AssignPermissions, &req, func() []string { return req.Permissions },
		h.Roles.AssignPermissions, "Permissions assigned.")
}

// HandleSyncPermissions replaces a role's permissions.
//
//	@Summary		Sync permissions
//	@Tags			Roles
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string							true	"Role ID"
//	@Param			request	body		authsdk.SyncRolePermissionsRequest	true	"Permission names, empty to clear"
//	@Success		200		{object}	authsdk.Envelope{data=authsdk.RoleResponse}	"Updated"
//	@Failure		403		{object}	authsdk.Envelope	"InsufficientPermissions"
//	@Failure		404		{object}	authsdk.Envelope	"NotFound"
//	@Failure		422		{object}	authsdk.Envelope	"ValidationFailed"
//	@Security		BearerAuth
//	@Router			/roles/{id}/permissions [put].
func (h *RolesHandler) HandleSyncPermissions(w http.ResponseWriter, r *http.Request) {
	var req authsdk.SyncRolePermissionsRequest
	h.changePermissions(w, r, policy.SyncPermissions, &req, func() []string { return req.Permissions },
		h.Roles.SyncPermissions, "Permissions synced.")
}

// HandleRevokePermissions removes permissions from a role.
//
//	@Summary		Revoke permissions
//	@Tags			Roles
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string							true	"Role ID"
//	@Param			request	body		authsdk.RolePermissionsRequest	true	"Permission names"
//	@Success		200		{object}	authsdk.Envelope{data=authsdk.RoleResponse}	"Updated"
//	@Failure		403		{object}	authsdk.Envelope	"InsufficientPermissions"
//	@Failure		404		{object}	authsdk.Envelope	"NotFound"
//	@Failure		422		{object}	authsdk.Envelope	"ValidationFailed"
//	@Security		BearerAuth
//	@Router			/roles/{id}/permissions [delete].
func (h *RolesHandler) HandleRevokePermissions(w http.ResponseWriter, r *http.Request) {
	var req authsdk.RolePermissionsRequest
	h.changePermissions(w, r, policy.RevokePermissions, &req, func() []string { return req.Permissions },
		h.Roles.RevokePermissions, "Permissions revoked.")
}

type permissionChange func(ctx context.Context, id string, names []string) (service.RoleDetails, error)

// changePermissions decodes req, then applies the names returned by names.
func (h *RolesHandler) changePermissions(w http.ResponseWriter, r *http.Request, action policy.Action, req any, names func() []string, apply permissionChange, msg string) {
	d, ok := h.load(w, r, false)
	if !ok || !allowed(w, r, h.Gate, policy.Roles, action, d.Target()) {
		return
	}
	if !decodeAndValidate(w, r, req) {
		return
	}

	d, err := apply(r.Context(), d.Role.ID, names())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	authsdk.Respond(w, http.StatusOK, msg, toRoleResponse(d))
}

// HandleListPermissions lists the permission catalog.
//
//	@Summary		List permissions
//	@Tags			Roles
//	@Produce		json
//	@Success		200	{object}	authsdk.Envelope{data=authsdk.ListPermissionsResponse}	"Permissions"
//	@Failure		401	{object}	authsdk.Envelope	"Unauthenticated"
//	@Failure		403	{object}	authsdk.Envelope	"InsufficientPermissions"
//	@Security		BearerAuth
//	@Router			/permissions [get].
func (h *RolesHandler) HandleListPermissions(w http.ResponseWriter, r *http.Request) {
	names, err := h.Roles.ListPermissions(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	authsdk.Respond(w, http.StatusOK, "Permissions retrieved.", authsdk.ListPermissionsResponse{Permissions: names})
}
