package store

import (
	"context"
	"errors"
	"time"

	"github.com/aussiebroadwan/till/internal/auth/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
)

// Store is the root data access interface. Concrete drivers implement it and
// expose sub-repositories so a transaction scoped Store can be handed to
// multi-step operations without leaking the outer connection.
type Store interface {
	Users() Users
	Roles() Roles
	Permissions() Permissions
	RevokedTokens() RevokedTokens
	PasswordResets() PasswordResets

	ApplyMigrations() error

	// Tx starts a read/write transaction and returns a Tx-scoped Store.
	// The caller MUST call Commit() or Rollback() on the returned Tx.
	Tx(ctx context.Context) (Tx, error)

	// WithTx executes fn within a transaction. If fn returns an error the
	// transaction is rolled back, otherwise it is committed.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	// Close releases any underlying resources.
	Close() error

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error
}

// Tx is a transactional store. It embeds the same repos but adds Commit/Rollback.
type Tx interface {
	Store
	Commit() error
	Rollback() error
}

// UserFilter narrows ListUsers.
type UserFilter struct {
	Search      string // substring of name or email
	Status      domain.UserStatus
	WithDeleted bool
	OnlyDeleted bool
}

type Users interface {
	// GetUserByID returns a non-deleted user.
	GetUserByID(ctx context.Context, id string) (domain.User, error)

	// GetUserByIDWithDeleted also returns soft deleted users (restore, force delete).
	GetUserByIDWithDeleted(ctx context.Context, id string) (domain.User, error)

	// GetUserByEmail is used during login. The email is normalised first.
	GetUserByEmail(ctx context.Context, email string) (domain.User, error)

	ListUsers(ctx context.Context, f UserFilter) ([]domain.User, error)

	// CreateUser inserts a new user (id is provided by the app via ULID).
	// A duplicate email, deleted or not, is ErrAlreadyExists.
	CreateUser(ctx context.Context, u domain.User) error

	// UpdateUser writes name and email and bumps updated_at.
	UpdateUser(ctx context.Context, u domain.User) error

	UpdateUserStatus(ctx context.Context, userID string, status domain.UserStatus) error

	// UpdatePasswordHash sets the password hash and bumps updated_at.
	UpdatePasswordHash(ctx context.Context, userID string, newHash string) error

	// TouchLastLogin stamps last_login_at.
	TouchLastLogin(ctx context.Context, userID string, at time.Time) error

	DeleteUser(ctx context.Context, userID string) error
	RestoreUser(ctx context.Context, userID string) error

	// ForceDeleteUser removes the row and its role assignments.
	ForceDeleteUser(ctx context.Context, userID string) error

	// SetUserRoles replaces the user's role set.
	SetUserRoles(ctx context.Context, userID string, roleIDs []string) error

	// ListUserRoles returns the non-deleted roles assigned to the user.
	ListUserRoles(ctx context.Context, userID string) ([]domain.Role, error)

	// IsEmpty returns true if there are no users.
	IsEmpty(ctx context.Context) (bool, error)
}

type Roles interface {
	GetRoleByID(ctx context.Context, id string) (domain.Role, error)
	GetRoleByIDWithDeleted(ctx context.Context, id string) (domain.Role, error)
	GetRoleByName(ctx context.Context, name string) (domain.Role, error)
	ListRoles(ctx context.Context, withDeleted bool) ([]domain.Role, error)

	// CreateRole inserts a new role. A duplicate name is ErrAlreadyExists.
	CreateRole(ctx context.Context, r domain.Role) error

	// UpdateRole writes label and description.
	UpdateRole(ctx context.Context, r domain.Role) error

	DeleteRole(ctx context.Context, roleID string) error
	RestoreRole(ctx context.Context, roleID string) error

	// ForceDeleteRole removes the row and its assignments.
	ForceDeleteRole(ctx context.Context, roleID string) error

	// CountRoleUsers counts users holding the role, soft-deleted ones
	// included, since a restore brings their assignment back.
	CountRoleUsers(ctx context.Context, roleID string) (int, error)

	// ListRoleUserIDs returns every user holding the role, deleted or not.
	ListRoleUserIDs(ctx context.Context, roleID string) ([]string, error)

	// SetRolePermissions replaces the role's permission set.
	SetRolePermissions(ctx context.Context, roleID string, permissionIDs []string) error

	// AttachRolePermissions adds permissions, ignoring ones already held.
	AttachRolePermissions(ctx context.Context, roleID string, permissionIDs []string) error

	DetachRolePermissions(ctx context.Context, roleID string, permissionIDs []string) error

	ListRolePermissions(ctx context.Context, roleID string) ([]domain.Permission, error)
}

type Permissions interface {
	ListPermissions(ctx context.Context) ([]domain.Permission, error)

	// GetPermissionsByName resolves names; an unknown name is ErrNotFound.
	GetPermissionsByName(ctx context.Context, names []string) ([]domain.Permission, error)

	// EnsurePermissions inserts any missing names from the catalog.
	EnsurePermissions(ctx context.Context, names []string) error

	// ListRoleIDsForPermission lists the roles granting a permission.
	ListRoleIDsForPermission(ctx context.Context, permissionID string) ([]string, error)

	// PermissionNamesForUser is the union of permission names over every
	// non-deleted role of the user.
	PermissionNamesForUser(ctx context.Context, userID string) ([]string, error)
}

type RevokedTokens interface {
	// Revoke records jti until expiresAt. Revoking twice is not an error.
	Revoke(ctx context.Context, jti string, expiresAt time.Time) error

	// IsRevoked reports whether jti is on the list and not yet expired at now.
	IsRevoked(ctx context.Context, jti string, now time.Time) (bool, error)

	// DeleteExpired purges entries whose token would have expired anyway.
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

type PasswordResets interface {
	// CreatePasswordReset replaces any existing reset for the email.
	CreatePasswordReset(ctx context.Context, r domain.PasswordReset) error
	GetPasswordReset(ctx context.Context, email string) (domain.PasswordReset, error)
	DeletePasswordReset(ctx context.Context, email string) error
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}
