package authsdk

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/aussiebroadwan/till/pkg/httpx"
)

// ============================================================================
// Envelope
// ============================================================================

// Envelope is the shape of every response body.
type Envelope struct {
	Success bool              `json:"success"`
	Message string            `json:"message"`
	Data    json.RawMessage   `json:"data,omitempty"`
	Errors  map[string]string `json:"errors,omitempty"`
}

// response is the server side counterpart of Envelope with an untyped payload.
type response struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// Respond writes a success envelope around data.
func Respond(w http.ResponseWriter, status int, message string, data any) {
	httpx.WriteJSON(w, status, response{Success: true, Message: message, Data: data})
}

// ============================================================================
// Auth Types
// ============================================================================

// LoginRequest is the body of POST /auth/login.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required"`
}

// TokenResponse describes an issued access token.
type TokenResponse struct {
	// AccessToken is the signed JWT to send as "Authorization: Bearer <token>"
	AccessToken string `json:"access_token"`

	// TokenType is always "Bearer"
	TokenType string `json:"token_type"`

	// ExpiresIn is the lifetime in seconds
	ExpiresIn int `json:"expires_in"`
}

// LoginResponse is the data of a successful login.
type LoginResponse struct {
	Token TokenResponse `json:"token"`
	User  UserResponse  `json:"user"`
}

// RefreshResponse is the data of a successful refresh.
type RefreshResponse struct {
	Token TokenResponse `json:"token"`
}

// ForgotPasswordRequest is the body of POST /auth/forgot-password.
type ForgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// ResetPasswordRequest is the body of POST /auth/reset-password.
type ResetPasswordRequest struct {
	Email                string `json:"email" validate:"required,email"`
	Password             string `json:"password" validate:"required,min=8,max=128"`
	PasswordConfirmation string `json:"password_confirmation" validate:"required,eqfield=Password"`
	Token                string `json:"token" validate:"required"`
}

// ============================================================================
// User Types
// ============================================================================

// UserResponse is a snapshot of a user with the roles and effective
// permissions held when the response was built.
type UserResponse struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Email       string     `json:"email"`
	Status      string     `json:"status"`
	LastLoginAt *time.Time `json:"last_login_at,omitempty"`
	Roles       []string   `json:"roles"`
	Permissions []string   `json:"permissions"`
	CreatedAt   time.Time  `json:"created_at"`
	DeletedAt   *time.Time `json:"deleted_at,omitempty"`
}

// CreateUserRequest is the body of POST /users.
type CreateUserRequest struct {
	Name     string   `json:"name" validate:"required,max=255"`
	Email    string   `json:"email" validate:"required,email,max=255"`
	Password string   `json:"password" validate:"required,min=8,max=128"`
	Status   string   `json:"status" validate:"omitempty,oneof=active suspended"`
	Roles    []string `json:"roles" validate:"omitempty,dive,required"`
}

// UpdateUserRequest is the body of PUT /users/{id}. Empty fields are left alone.
type UpdateUserRequest struct {
	Name     string `json:"name" validate:"omitempty,max=255"`
	Email    string `json:"email" validate:"omitempty,email,max=255"`
	Password string `json:"password" validate:"omitempty,min=8,max=128"`
}

// UpdateUserStatusRequest is the body of PATCH /users/{id}/status.
type UpdateUserStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=active suspended"`
}

// AssignRolesRequest is the body of PUT /users/{id}/roles. Roles are
// referenced by name and replace the current set.
type AssignRolesRequest struct {
	Roles []string `json:"roles" validate:"required,dive,required"`
}

// ListUsersResponse wraps the user list.
type ListUsersResponse struct {
	Users []UserResponse `json:"users"`
}

// ============================================================================
// Role Types
// ============================================================================

// RoleResponse describes a role and its permissions.
type RoleResponse struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Label       string     `json:"label"`
	Description string     `json:"description"`
	Permissions []string   `json:"permissions"`
	UsersCount  int        `json:"users_count"`
	CreatedAt   time.Time  `json:"created_at"`
	DeletedAt   *time.Time `json:"deleted_at,omitempty"`
}

// CreateRoleRequest is the body of POST /roles.
type CreateRoleRequest struct {
	Name        string   `json:"name" validate:"required,max=64,rolename"`
	Label       string   `json:"label" validate:"required,max=255"`
	Description string   `json:"description" validate:"max=1000"`
	Permissions []string `json:"permissions" validate:"omitempty,dive,required"`
}

// UpdateRoleRequest is the body of PUT /roles/{id}.
type UpdateRoleRequest struct {
	Label       string `json:"label" validate:"omitempty,max=255"`
	Description string `json:"description" validate:"max=1000"`
}

// RolePermissionsRequest is the body of the assign and revoke permission routes.
type RolePermissionsRequest struct {
	Permissions []string `json:"permissions" validate:"required,min=1,dive,required"`
}

// SyncRolePermissionsRequest replaces a role's permissions. The list must
// be present but may be empty, which clears them.
type SyncRolePermissionsRequest struct {
	Permissions []string `json:"permissions" validate:"required,dive,required"`
}

// ListRolesResponse wraps the role list.
type ListRolesResponse struct {
	Roles []RoleResponse `json:"roles"`
}

// ListPermissionsResponse lists the permission catalog.
type ListPermissionsResponse struct {
	Permissions []string `json:"permissions"`
}

// ============================================================================
// Health Types
// ============================================================================

// HealthResponse represents the response structure for health check endpoints.
// Used by both /livez and /readyz endpoints (readyz includes additional Checks field).
type HealthResponse struct {
	// Status indicates the overall health status (e.g., "ok")
	Status string `json:"status"`

	// Uptime is the service uptime duration as a string (e.g., "1h23m45s")
	Uptime string `json:"uptime,omitempty"`

	// Version is the service version string
	Version string `json:"version,omitempty"`

	// Checks contains readiness check results (only for /readyz)
	Checks *HealthChecks `json:"checks,omitempty"`
}

// HealthChecks holds one status per dependency checked by /readyz.
type HealthChecks struct {
	Database string `json:"database"`
	Signer   string `json:"signer"`
	Denylist string `json:"denylist"`
}
