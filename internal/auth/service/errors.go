package service

import "errors"

var (
	ErrInvalidCredentials  = errors.New("invalid_credentials")
	ErrAccountSuspended    = errors.New("account_suspended")
	ErrTokenCreationFailed = errors.New("token_creation_failed")
	ErrRefreshFailed       = errors.New("refresh_failed")
	ErrLogoutFailed        = errors.New("logout_failed")

	ErrInvalidResetToken = errors.New("invalid_reset_token")
	ErrMailUndeliverable = errors.New("mail_undeliverable")

	ErrUserNotFound  = errors.New("user_not_found")
	ErrRoleNotFound  = errors.New("role_not_found")
	ErrEmailTaken    = errors.New("email_taken")
	ErrRoleNameTaken = errors.New("role_name_taken")
	ErrUnknownRole   = errors.New("unknown_role")
	ErrInvalidStatus = errors.New("invalid_status")
	ErrNotDeleted    = errors.New("not_deleted")
	ErrSeedAdminRole = errors.New("seed must define the admin role")
)
