package domain

import "time"

// AdminRoleName is the one role nobody may modify.
const AdminRoleName = "admin"

type Role struct {
	ID          string
	Name        string // machine key, unique
	Label       string
	Description string
	CreatedAt   time.Time
	UpdatedAt   time.Time
	DeletedAt   *time.Time
}

// IsAdmin reports whether r is the protected admin role.
func (r Role) IsAdmin() bool {
	return r.Name == AdminRoleName
}

// IsDeleted reports whether the role has been soft deleted.
func (r Role) IsDeleted() bool {
	return r.DeletedAt != nil
}

// Permission is reference data granted to roles. Name follows the
// action_resource convention, e.g. view_users.
type Permission struct {
	ID        string
	Name      string
	CreatedAt time.Time
}
