/*
Package authsdk is the client side of the till authentication API and the
home of the wire types shared with the server.

# Overview

Every response is an envelope:

	{"success": true, "message": "...", "data": {...}}
	{"success": false, "message": "...", "errors": {"token": "TokenExpired"}}

Failed calls come back as *APIError. Its Kind identifies the failure and can
be matched with errors.Is against the predefined values:

	_, err := session.Me(ctx)
	if errors.Is(err, authsdk.ErrTokenExpired) {
		// log in again
	}

# SDKClient vs Session

SDKClient covers the unauthenticated routes:

	client := authsdk.NewSDKClient("https://pos.example.com/api")
	health, err := client.GetReadiness(ctx)
	err = client.ForgotPassword(ctx, "cashier@example.com")

A Session wraps an access token and refreshes it shortly before expiry:

	session, err := client.AuthenticateWithPassword(ctx, email, password)
	if err != nil {
		return err
	}
	defer session.Logout(ctx)

	if session.Can("edit_products") {
		// show the edit button
	}

	me, err := session.Me(ctx)

Refresh requires a token that has not yet expired. Once a session's token has
expired every call fails with ErrSessionExpired and the user has to log in
again.

# Server side

The server writes responses with Respond and failures with
(*APIError).WriteError so both ends agree on the envelope.
*/
package authsdk
