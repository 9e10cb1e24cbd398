package domain

import (
	"strings"
	"time"
)

// UserStatus gates whether a user may authenticate.
type UserStatus string

const (
	StatusActive    UserStatus = "active"
	StatusSuspended UserStatus = "suspended"
)

// Valid reports whether s is a known status.
func (s UserStatus) Valid() bool {
	return s == StatusActive || s == StatusSuspended
}

type User struct {
	ID           string
	Name         string
	Email        string // lower-cased, unique across every status
	PasswordHash string // argon2id PHC or legacy bcrypt
	Status       UserStatus
	LastLoginAt  *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
	DeletedAt    *time.Time // soft delete
}

// IsActive is true only for a non-deleted user with status active.
func (u User) IsActive() bool {
	return u.Status == StatusActive && u.DeletedAt == nil
}

// IsDeleted reports whether the user has been soft deleted.
func (u User) IsDeleted() bool {
	return u.DeletedAt != nil
}

// NormalizeEmail is applied on every write and lookup.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
