package authsdk

import (
	"context"
	"net/http"
)

// Login exchanges email and password for an access token and user snapshot.
func (c *SDKClient) Login(ctx context.Context, email, password string) (*LoginResponse, error) {
	resp, err := c.doRequest(ctx, http.MethodPost, "/auth/login", "", LoginRequest{
		Email:    email,
		Password: password,
	})
	if err != nil {
		return nil, err
	}

	var login LoginResponse
	if err := decodeJSON(resp, &login, http.StatusOK); err != nil {
		return nil, err
	}

	return &login, nil
}

// Refresh trades a still valid access token for a new one. The old token is
// revoked by the server.
func (c *SDKClient) Refresh(ctx context.Context, accessToken string) (*TokenResponse, error) {
	resp, err := c.doRequest(ctx, http.MethodPost, "/auth/refresh", accessToken, nil)
	if err != nil {
		return nil, err
	}

	var refreshed RefreshResponse
	if err := decodeJSON(resp, &refreshed, http.StatusOK); err != nil {
		return nil, err
	}

	return &refreshed.Token, nil
}

// Logout revokes accessToken.
func (c *SDKClient) Logout(ctx context.Context, accessToken string) error {
	resp, err := c.doRequest(ctx, http.MethodPost, "/auth/logout", accessToken, nil)
	if err != nil {
		return err
	}

	return decodeJSON(resp, nil, http.StatusOK)
}

// ForgotPassword asks the server to mail a reset link. It succeeds for
// unknown addresses too.
func (c *SDKClient) ForgotPassword(ctx context.Context, email string) error {
	resp, err := c.doRequest(ctx, http.MethodPost, "/auth/forgot-password", "", ForgotPasswordRequest{Email: email})
	if err != nil {
		return err
	}

	return decodeJSON(resp, nil, http.StatusOK)
}

// ResetPassword sets a new password using a token from the reset email.
func (c *SDKClient) ResetPassword(ctx context.Context, req ResetPasswordRequest) error {
	resp, err := c.doRequest(ctx, http.MethodPost, "/auth/reset-password", "", req)
	if err != nil {
		return err
	}

	return decodeJSON(resp, nil, http.StatusOK)
}
