package domain

import "time"

// PasswordReset is a pending reset for one email. Only the fingerprint of
// the mailed token is stored.
type PasswordReset struct {
	Email     string
	TokenHash string
	ExpiresAt time.Time
	CreatedAt time.Time
}

// Expired reports whether the reset can no longer be used at now.
func (p PasswordReset) Expired(now time.Time) bool {
	return !now.Before(p.ExpiresAt)
}
