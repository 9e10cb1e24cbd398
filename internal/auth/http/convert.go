package http

import (
	"github.com/aussiebroadwan/till/internal/auth/service"
	"github.com/aussiebroadwan/till/pkg/authsdk"
	"github.com/aussiebroadwan/till/pkg/jwtx"
)

func toTokenResponse(t jwtx.Token) authsdk.TokenResponse {
	return authsdk.TokenResponse{
		AccessToken: t.Raw,
		TokenType:   "Bearer",
		ExpiresIn:   t.ExpiresIn(),
	}
}

func toUserResponse(d service.UserDetails) authsdk.UserResponse {
	perms := d.Permissions
	if perms == nil {
		perms = []string{}
	}
	return authsdk.UserResponse{
		ID:          d.User.ID,
		Name:        d.User.Name,
		Email:       d.User.Email,
		Status:      string(d.User.Status),
		LastLoginAt: d.User.LastLoginAt,
		Roles:       d.RoleNames(),
		Permissions: perms,
		CreatedAt:   d.User.CreatedAt,
		DeletedAt:   d.User.DeletedAt,
	}
}

func toRoleResponse(d service.RoleDetails) authsdk.RoleResponse {
	perms := d.Permissions
	if perms == nil {
		perms = []string{}
	}
	return authsdk.RoleResponse{
		ID:          d.Role.ID,
		Name:        d.Role.Name,
		Label:       d.Role.Label,
		Description: d.Role.Description,
		Permissions: perms,
		UsersCount:  d.UsersCount,
		CreatedAt:   d.Role.CreatedAt,
		DeletedAt:   d.Role.DeletedAt,
	}
}
