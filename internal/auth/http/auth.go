package http

import (
	"errors"
	"net/http"

	"github.com/aussiebroadwan/till/internal/auth/domain"
	"github.com/aussiebroadwan/till/internal/auth/service"
	"github.com/aussiebroadwan/till/pkg/authsdk"
	"github.com/aussiebroadwan/till/pkg/slogx"
)

// AuthHandler serves the /auth routes.
type AuthHandler struct {
	Auth   *service.AuthService
	Resets *service.PasswordResetService
}

// HandleLogin exchanges credentials for an access token.
//
//	@Summary		Log in
//	@Description	Verifies email and password and issues a signed access token together with the user's roles and permissions.
//	@Description	Unknown emails and wrong passwords are indistinguishable. Suspended accounts are rejected before the password is checked.
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		authsdk.LoginRequest	true	"Credentials"
//	@Success		200		{object}	authsdk.Envelope{data=authsdk.LoginResponse}	"Token and user"
//	@Failure		401		{object}	authsdk.Envelope	"InvalidCredentials"
//	@Failure		403		{object}	authsdk.Envelope	"AccountSuspended"
//	@Failure		422		{object}	authsdk.Envelope	"ValidationFailed"
//	@Failure		429		{object}	authsdk.Envelope	"RateLimited"
//	@Failure		500		{object}	authsdk.Envelope	"TokenCreationFailed"
//	@Router			/auth/login [post].
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req authsdk.LoginRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	res, err := h.Auth.Login(ctx, req.Email, req.Password)
	switch {
	case err == nil:
	case errors.Is(err, service.ErrInvalidCredentials):
		authsdk.ErrInvalidCredentials.WriteError(w)
		return
	case errors.Is(err, service.ErrAccountSuspended):
		authsdk.ErrAccountSuspended.WriteError(w)
		return
	case errors.Is(err, service.ErrTokenCreationFailed):
		log.Error("login token creation failed", "err", err)
		authsdk.ErrTokenCreationFailed.WriteError(w)
		return
	default:
		writeServiceError(w, r, err)
		return
	}

	authsdk.Respond(w, http.StatusOK, "Login successful.", authsdk.LoginResponse{
		Token: toTokenResponse(res.Token),
		User:  toUserResponse(res.User),
	})
}

// HandleRefresh swaps the presented token for a new one.
//
//	@Summary		Refresh token
//	@Description	Issues a new access token for the authenticated user and revokes the presented one.
//	@Tags			Auth
//	@Produce		json
//	@Success		200	{object}	authsdk.Envelope{data=authsdk.RefreshResponse}	"New token"
//	@Failure		401	{object}	authsdk.Envelope	"TokenMissing, TokenInvalid, TokenExpired or RefreshFailed"
//	@Security		BearerAuth
//	@Router			/auth/refresh [post].
func (h *AuthHandler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, _ := domain.IdentityFromContext(ctx)

	token, err := h.Auth.Refresh(ctx, id.Token)
	if err != nil {
		slogx.FromContext(ctx).Warn("refresh failed", "err", err)
		authsdk.ErrRefreshFailed.WriteError(w)
		return
	}

	authsdk.Respond(w, http.StatusOK, "Token refreshed.", authsdk.RefreshResponse{
		Token: toTokenResponse(token),
	})
}

// HandleLogout revokes the presented token.
//
//	@Summary		Log out
//	@Description	Adds the presented token to the denylist so it is rejected for the rest of its lifetime.
//	@Tags			Auth
//	@Produce		json
//	@Success		200	{object}	authsdk.Envelope	"Logged out"
//	@Failure		400	{object}	authsdk.Envelope	"LogoutFailed"
//	@Failure		401	{object}	authsdk.Envelope	"TokenMissing, TokenInvalid or TokenExpired"
//	@Security		BearerAuth
//	@Router			/auth/logout [post].
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, _ := domain.IdentityFromContext(ctx)

	if err := h.Auth.Logout(ctx, id.Token); err != nil {
		slogx.FromContext(ctx).Error("logout failed", "err", err)
		authsdk.ErrLogoutFailed.WriteError(w)
		return
	}

	authsdk.Respond(w, http.StatusOK, "Successfully logged out.", nil)
}

// HandleMe returns the authenticated user.
//
//	@Summary		Current user
//	@Description	Returns the authenticated user with their roles and effective permissions.
//	@Tags			Auth
//	@Produce		json
//	@Success		200	{object}	authsdk.Envelope{data=authsdk.UserResponse}	"User"
//	@Failure		401	{object}	authsdk.Envelope	"TokenMissing, TokenInvalid or TokenExpired"
//	@Failure		403	{object}	authsdk.Envelope	"AccountSuspended"
//	@Security		BearerAuth
//	@Router			/auth/me [get].
func (h *AuthHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, _ := domain.IdentityFromContext(ctx)

	details, err := h.Auth.Me(ctx, id.User)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	authsdk.Respond(w, http.StatusOK, "User retrieved.", toUserResponse(details))
}

// HandleForgotPassword mails a reset link.
//
//	@Summary		Request a password reset
//	@Description	Sends a password reset link when the email belongs to an account. The response is the same whether or not it does.
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		authsdk.ForgotPasswordRequest	true	"Email"
//	@Success		200		{object}	authsdk.Envelope	"Link sent"
//	@Failure		422		{object}	authsdk.Envelope	"ValidationFailed"
//	@Failure		429		{object}	authsdk.Envelope	"RateLimited"
//	@Failure		500		{object}	authsdk.Envelope	"MailUndeliverable"
//	@Router			/auth/forgot-password [post].
func (h *AuthHandler) HandleForgotPassword(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req authsdk.ForgotPasswordRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	if err := h.Resets.ForgotPassword(ctx, req.Email); err != nil {
		if errors.Is(err, service.ErrMailUndeliverable) {
			slogx.FromContext(ctx).Error("reset link not delivered", "err", err)
			authsdk.ErrMailUndeliverable.WriteError(w)
			return
		}
		writeServiceError(w, r, err)
		return
	}

	authsdk.Respond(w, http.StatusOK, "If that email is registered, a reset link has been sent.", nil)
}

// HandleResetPassword sets a new password using a mailed token.
//
//	@Summary		Reset password
//	@Description	Replaces the password when the reset token matches and has not expired. The token is single use.
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		authsdk.ResetPasswordRequest	true	"Reset"
//	@Success		200		{object}	authsdk.Envelope	"Password reset"
//	@Failure		400		{object}	authsdk.Envelope	"InvalidResetToken"
//	@Failure		422		{object}	authsdk.Envelope	"ValidationFailed"
//	@Failure		429		{object}	authsdk.Envelope	"RateLimited"
//	@Router			/auth/reset-password [post].
func (h *AuthHandler) HandleResetPassword(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req authsdk.ResetPasswordRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	if err := h.Resets.ResetPassword(ctx, req.Email, req.Password, req.Token); err != nil {
		if errors.Is(err, service.ErrInvalidResetToken) {
			authsdk.ErrInvalidResetToken.WriteError(w)
			return
		}
		writeServiceError(w, r, err)
		return
	}

	authsdk.Respond(w, http.StatusOK, "Your password has been reset.", nil)
}
