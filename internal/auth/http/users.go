package http

import (
	"net/http"

	"github.com/aussiebroadwan/till/internal/auth/domain"
	"github.com/aussiebroadwan/till/internal/auth/policy"
	"github.com/aussiebroadwan/till/internal/auth/service"
	"github.com/aussiebroadwan/till/internal/auth/store"
	"github.com/aussiebroadwan/till/pkg/authsdk"
	"github.com/aussiebroadwan/till/pkg/idx"
)

// UsersHandler serves the /users routes. Every action goes through the
// policy gate with the loaded user as target.
type UsersHandler struct {
	Users *service.UserService
	Gate  *policy.Gate
}

// load fetches the target user or writes a 404.
func (h *UsersHandler) load(w http.ResponseWriter, r *http.Request, withDeleted bool) (service.UserDetails, bool) {
	id := r.PathValue("id")
	if !idx.Valid(id) {
		writeServiceError(w, r, service.ErrUserNotFound)
		return service.UserDetails{}, false
	}

	d, err := h.Users.Get(r.Context(), id, withDeleted)
	if err != nil {
		writeServiceError(w, r, err)
		return service.UserDetails{}, false
	}
	return d, true
}

func userList(ds []service.UserDetails) authsdk.ListUsersResponse {
	out := authsdk.ListUsersResponse{Users: make([]authsdk.UserResponse, 0, len(ds))}
	for _, d := range ds {
		out.Users = append(out.Users, toUserResponse(d))
	}
	return out
}

// HandleList lists users.
//
//	@Summary		List users
//	@Description	Lists users with their roles. Filter by name or email substring, by status, and include or isolate soft deleted users with trashed=with|only.
//	@Tags			Users
//	@Produce		json
//	@Param			search	query		string	false	"Name or email substring"
//	@Param			status	query		string	false	"active or suspended"
//	@Param			trashed	query		string	false	"with or only"
//	@Success		200		{object}	authsdk.Envelope{data=authsdk.ListUsersResponse}	"Users"
//	@Failure		401		{object}	authsdk.Envelope	"Unauthenticated"
//	@Failure		403		{object}	authsdk.Envelope	"InsufficientPermissions"
//	@Security		BearerAuth
//	@Router			/users [get].
func (h *UsersHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	if !allowed(w, r, h.Gate, policy.Users, policy.ViewAny, nil) {
		return
	}

	q := r.URL.Query()
	f := store.UserFilter{
		Search: q.Get("search"),
		Status: domain.UserStatus(q.Get("status")),
	}
	if f.Status != "" && !f.Status.Valid() {
		authsdk.ValidationError(map[string]string{"status": "The selected status is invalid."}).WriteError(w)
		return
	}
	switch q.Get("trashed") {
	case "with":
		f.WithDeleted = true
	case "only":
		f.OnlyDeleted = true
	}

	users, err := h.Users.List(r.Context(), f)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	authsdk.Respond(w, http.StatusOK, "Users retrieved.", userList(users))
}

// HandleShow returns one user.
//
//	@Summary		Show user
//	@Description	Returns a user with roles and permissions. Users may always view themselves.
//	@Tags			Users
//	@Produce		json
//	@Param			id	path		string	true	"User ID"
//	@Success		200	{object}	authsdk.Envelope{data=authsdk.UserResponse}	"User"
//	@Failure		403	{object}	authsdk.Envelope	"InsufficientPermissions"
//	@Failure		404	{object}	authsdk.Envelope	"NotFound"
//	@Security		BearerAuth
//	@Router			/users/{id} [get].
func (h *UsersHandler) HandleShow(w http.ResponseWriter, r *http.Request) {
	d, ok := h.load(w, r, false)
	if !ok || !allowed(w, r, h.Gate, policy.Users, policy.View, d.User) {
		return
	}
	authsdk.Respond(w, http.StatusOK, "User retrieved.", toUserResponse(d))
}

// HandleCreate creates a user.
//
//	@Summary		Create user
//	@Description	Creates a user with an optional status and set of role names. Passing roles also requires assign_roles_users.
//	@Tags			Users
//	@Accept			json
//	@Produce		json
//	@Param			request	body		authsdk.CreateUserRequest	true	"User"
//	@Success		201		{object}	authsdk.Envelope{data=authsdk.UserResponse}	"Created"
//	@Failure		403		{object}	authsdk.Envelope	"InsufficientPermissions"
//	@Failure		422		{object}	authsdk.Envelope	"ValidationFailed"
//	@Security		BearerAuth
//	@Router			/users [post].
func (h *UsersHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	if !allowed(w, r, h.Gate, policy.Users, policy.Create, nil) {
		return
	}

	var req authsdk.CreateUserRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	// Creating with roles is also a role assignment. The new user has no
	// id yet, so the self rule never applies.
	if len(req.Roles) > 0 && !allowed(w, r, h.Gate, policy.Users, policy.AssignRoles, nil) {
		return
	}

	d, err := h.Users.Create(r.Context(), service.CreateUserInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Status:   domain.UserStatus(req.Status),
		Roles:    req.Roles,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	authsdk.Respond(w, http.StatusCreated, "User created.", toUserResponse(d))
}

// HandleUpdate edits name, email or password.
//
//	@Summary		Update user
//	@Description	Updates profile fields. Omitted fields are left unchanged. Users may always update themselves.
//	@Tags			Users
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string						true	"User ID"
//	@Param			request	body		authsdk.UpdateUserRequest	true	"Changes"
//	@Success		200		{object}	authsdk.Envelope{data=authsdk.UserResponse}	"Updated"
//	@Failure		403		{object}	authsdk.Envelope	"InsufficientPermissions"
//	@Failure		404		{object}	authsdk.Envelope	"NotFound"
//	@Failure		422		{object}	authsdk.Envelope	"ValidationFailed"
//	@Security		BearerAuth
//	@Router			/users/{id} [put].
func (h *UsersHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	d, ok := h.load(w, r, false)
	if !ok || !allowed(w, r, h.Gate, policy.Users, policy.Update, d.User) {
		return
	}

	var req authsdk.UpdateUserRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	d, err := h.Users.Update(r.Context(), d.User.ID, service.UpdateUserInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	authsdk.Respond(w, http.StatusOK, "User updated.", toUserResponse(d))
}

// HandleUpdateStatus activates or suspends a user.
//
//	@Summary		Update user status
//	@Description	Sets the account status. Users cannot change their own status.
//	@Tags			Users
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string							true	"User ID"
//	@Param			request	body		authsdk.UpdateUserStatusRequest	true	"Status"
//	@Success		200		{object}	authsdk.Envelope{data=authsdk.UserResponse}	"Updated"
//	@Failure		403		{object}	authsdk.Envelope	"InsufficientPermissions"
//	@Failure		404		{object}	authsdk.Envelope	"NotFound"
//	@Failure		422		{object}	authsdk.Envelope	"ValidationFailed"
//	@Security		BearerAuth
//	@Router			/users/{id}/status [patch].
func (h *UsersHandler) HandleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	d, ok := h.load(w, r, false)
	if !ok || !allowed(w, r, h.Gate, policy.Users, policy.UpdateStatus, d.User) {
		return
	}

	var req authsdk.UpdateUserStatusRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	d, err := h.Users.UpdateStatus(r.Context(), d.User.ID, domain.UserStatus(req.Status))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	authsdk.Respond(w, http.StatusOK, "User status updated.", toUserResponse(d))
}

// HandleAssignRoles replaces a user's roles.
//
//	@Summary		Assign roles
//	@Description	Replaces the user's roles with the named set. Users cannot change their own roles.
//	@Tags			Users
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string						true	"User ID"
//	@Param			request	body		authsdk.AssignRolesRequest	true	"Role names"
//	@Success		200		{object}	authsdk.Envelope{data=authsdk.UserResponse}	"Updated"
//	@Failure		403		{object}	authsdk.Envelope	"InsufficientPermissions"
//	@Failure		404		{object}	authsdk.Envelope	"NotFound"
//	@Failure		422		{object}	authsdk.Envelope	"ValidationFailed"
//	@Security		BearerAuth
//	@Router			/users/{id}/roles [put].
func (h *UsersHandler) HandleAssignRoles(w http.ResponseWriter, r *http.Request) {
	d, ok := h.load(w, r, false)
	if !ok || !allowed(w, r, h.Gate, policy.Users, policy.AssignRoles, d.User) {
		return
	}

	var req authsdk.AssignRolesRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	d, err := h.Users.AssignRoles(r.Context(), d.User.ID, req.Roles)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	authsdk.Respond(w, http.StatusOK, "Roles assigned.", toUserResponse(d))
}

// HandleDelete soft deletes a user.
//
//	@Summary		Delete user
//	@Description	Soft deletes the user. Users cannot delete themselves.
//	@Tags			Users
//	@Produce		json
//	@Param			id	path		string	true	"User ID"
//	@Success		200	{object}	authsdk.Envelope	"Deleted"
//	@Failure		403	{object}	authsdk.Envelope	"InsufficientPermissions"
//	@Failure		404	{object}	authsdk.Envelope	"NotFound"
//	@Security		BearerAuth
//	@Router			/users/{id} [delete].
func (h *UsersHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	d, ok := h.load(w, r, false)
	if !ok || !allowed(w, r, h.Gate, policy.Users, policy.Delete, d.User) {
		return
	}
	if err := h.Users.Delete(r.Context(), d.User.ID); err != nil {
		writeServiceError(w, r, err)
		return
	}
	authsdk.Respond(w, http.StatusOK, "User deleted.", nil)
}

// HandleRestore brings back a soft deleted user.
//
//	@Summary		Restore user
//	@Tags			Users
//	@Produce		json
//	@Param			id	path		string	true	"User ID"
//	@Success		200	{object}	authsdk.Envelope{data=authsdk.UserResponse}	"Restored"
//	@Failure		403	{object}	authsdk.Envelope	"InsufficientPermissions"
//	@Failure		404	{object}	authsdk.Envelope	"NotFound"
//	@Security		BearerAuth
//	@Router			/users/{id}/restore [post].
func (h *UsersHandler) HandleRestore(w http.ResponseWriter, r *http.Request) {
	d, ok := h.load(w, r, true)
	if !ok || !allowed(w, r, h.Gate, policy.Users, policy.Restore, d.User) {
		return
	}
	d, err := h.Users.Restore(r.Context(), d.User.ID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	authsdk.Respond(w, http.StatusOK, "User restored.", toUserResponse(d))
}

// HandleForceDelete permanently removes a user.
//
//	@Summary		Force delete user
//	@Description	Removes the user and their role assignments permanently, whether or not they were soft deleted first.
//	@Tags			Users
//	@Produce		json
//	@Param			id	path		string	true	"User ID"
//	@Success		200	{object}	authsdk.Envelope	"Deleted"
//	@Failure		403	{object}	authsdk.Envelope	"InsufficientPermissions"
//	@Failure		404	{object}	authsdk.Envelope	"NotFound"
//	@Security		BearerAuth
//	@Router			/users/{id}/force [delete].
func (h *UsersHandler) HandleForceDelete(w http.ResponseWriter, r *http.Request) {
	d, ok := h.load(w, r, true)
	if !ok || !allowed(w, r, h.Gate, policy.Users, policy.ForceDelete, d.User) {
		return
	}
	if err := h.Users.ForceDelete(r.Context(), d.User.ID); err != nil {
		writeServiceError(w, r, err)
		return
	}
	authsdk.Respond(w, http.StatusOK, "User permanently deleted.", nil)
}
