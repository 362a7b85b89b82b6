/*
Package authsdk is a small client for the SSOP identity provider and the home
of the wire types its HTTP surface shares with callers.

# Overview

SDKClient talks to the public endpoints of a running provider:

	client := authsdk.NewSDKClient("https://sso.example.com")

	// Provider metadata and signing keys
	doc, err := client.GetDiscovery(ctx)
	jwks, err := client.GetJWKS(ctx)

	// Exchange an authorization code obtained through the browser flow
	tokens, err := client.ExchangeCode(ctx, clientID, clientSecret, code, redirectURI)

	// Rotate the refresh token
	tokens, err = client.RefreshGrant(ctx, clientID, clientSecret, tokens.RefreshToken)

	// Read the claims the access token releases
	info, err := client.GetUserInfo(ctx, tokens.AccessToken)

	// Revoke the grant behind a refresh token
	err = client.RevokeToken(ctx, clientID, clientSecret, tokens.RefreshToken)

The browser part of the authorization code flow (login, second factor and
consent pages) is not covered; use a browser or golang.org/x/oauth2 for it.

# Errors

Failed calls return *OAuth2Error carrying the RFC 6749 error code, so callers
can branch on it:

	var oauthErr *authsdk.OAuth2Error
	if errors.As(err, &oauthErr) && oauthErr.Code == authsdk.ErrorCodeInvalidGrant {
		// start a new authorization
	}

The provider's handlers use the same OAuth2Error values to write responses.
*/
package authsdk
