package http_test

import (
	"net/http"
	"net/url"
	"testing"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"github.com/aussiebroadwan/ssop/pkg/authsdk"
)

type idClaims struct {
	Email             string   `json:"email"`
	PreferredUsername string   `json:"preferred_username"`
	Roles             []string `json:"roles"`
	AMR               []string `json:"amr"`
}

// TestRelyingPartyFlow drives the server the way a third-party OIDC client
// library would: discovery, authorization code, ID token verification,
// userinfo, refresh and revocation.
func TestRelyingPartyFlow(t *testing.T) {
	s := newTestServer(t)
	ctx := oidc.ClientContext(t.Context(), s.Client())

	op, err := oidc.NewProvider(ctx, s.issuer)
	require.NoError(t, err)

	conf := oauth2.Config{
		ClientID:     rpClientID,
		ClientSecret: rpClientSecret,
		Endpoint:     op.Endpoint(),
		RedirectURL:  rpRedirect,
		Scopes:       []string{oidc.ScopeOpenID, "profile", "email", "roles"},
	}

	code := authorizeInBrowser(t, s, conf.AuthCodeURL("rp-state", oidc.Nonce("rp-nonce")), "rp-state")

	token, err := conf.Exchange(ctx, code)
	require.NoError(t, err)
	require.Equal(t, "Bearer", token.TokenType)
	require.NotEmpty(t, token.RefreshToken)
	require.WithinDuration(t, time.Now().Add(time.Hour), token.Expiry, time.Minute)

	rawID, ok := token.Extra("id_token").(string)
	require.True(t, ok)

	verifier := op.Verifier(&oidc.Config{
		ClientID:             rpClientID,
		SupportedSigningAlgs: []string{oidc.EdDSA},
	})
	idToken, err := verifier.Verify(ctx, rawID)
	require.NoError(t, err)
	require.Equal(t, "alice", idToken.Subject)
	require.Equal(t, "rp-nonce", idToken.Nonce)

	var claims idClaims
	require.NoError(t, idToken.Claims(&claims))
	require.Equal(t, "alice@example.com", claims.Email)
	require.Equal(t, "alice", claims.PreferredUsername)
	require.Equal(t, []string{"admin", "user"}, claims.Roles)
	require.Equal(t, []string{"pwd"}, claims.AMR)

	info, err := op.UserInfo(ctx, oauth2.StaticTokenSource(token))
	require.NoError(t, err)
	require.Equal(t, "alice", info.Subject)
	require.Equal(t, "alice@example.com", info.Email)

	// An expired token makes the token source rotate the refresh token.
	stale := *token
	stale.Expiry = time.Now().Add(-time.Minute)
	refreshed, err := conf.TokenSource(ctx, &stale).Token()
	require.NoError(t, err)
	require.NotEqual(t, token.AccessToken, refreshed.AccessToken)
	require.NotEqual(t, token.RefreshToken, refreshed.RefreshToken)

	_, err = conf.TokenSource(ctx, &stale).Token()
	require.Error(t, err, "a rotated refresh token must not be reusable")

	sdk := authsdk.NewSDKClient(s.URL)
	require.NoError(t, sdk.RevokeToken(ctx, rpClientID, rpClientSecret, refreshed.AccessToken))

	_, err = sdk.GetUserInfo(ctx, refreshed.AccessToken)
	require.Error(t, err)

	// The refresh token survives access token revocation.
	again, err := sdk.RefreshGrant(ctx, rpClientID, rpClientSecret, refreshed.RefreshToken)
	require.NoError(t, err)
	require.NotEmpty(t, again.AccessToken)

	scrape := scrapeMetrics(t, s)
	require.Contains(t, scrape, `ssop_tokens_issued_total{kind="authorization_code"} 1`)
	require.Contains(t, scrape, `ssop_tokens_issued_total{kind="refresh_token"} 3`)
	require.Contains(t, scrape, `ssop_consent_decisions_total{decision="accepted"} 1`)
}

// TestRelyingPartyPromptNone checks that an existing session lets a client
// obtain a code without any page being shown.
func TestRelyingPartyPromptNone(t *testing.T) {
	s := newTestServer(t)
	browser := s.browser(t)

	authURL := func(prompt string) string {
		q := url.Values{
			"client_id":     {rpClientID},
			"redirect_uri":  {rpRedirect},
			"response_type": {"code"},
			"scope":         {"openid"},
			"state":         {"silent"},
		}
		if prompt != "" {
			q.Set("prompt", prompt)
		}
		return s.URL + "/auth?" + q.Encode()
	}

	resp, _ := get(t, browser, authURL("none"))
	require.Equal(t, http.StatusFound, resp.StatusCode)
	loc, err := resp.Location()
	require.NoError(t, err)
	require.Equal(t, "login_required", loc.Query().Get("error"))

	// Log in once, then prompt=none succeeds.
	resp, _ = get(t, browser, authURL(""))
	path := interactionPath(t, resp)
	resp, _ = postForm(t, browser, s.URL+path+"/login", url.Values{"username": {"alice"}, "password": {"wonderland"}})
	consent := interactionPath(t, resp)
	resp, _ = postForm(t, browser, s.URL+consent+"/consent", url.Values{"consent": {"accept"}})
	require.Equal(t, http.StatusFound, resp.StatusCode)

	resp, _ = get(t, browser, authURL("none"))
	require.Equal(t, http.StatusFound, resp.StatusCode)
	loc, err = resp.Location()
	require.NoError(t, err)
	require.Equal(t, rpHost, loc.Host)
	require.NotEmpty(t, loc.Query().Get("code"))
	require.Equal(t, "silent", loc.Query().Get("state"))
}

// authorizeInBrowser logs alice in through a fresh browser, accepts
// consent and returns the code delivered to the relying party.
func authorizeInBrowser(t *testing.T, s *testServer, authURL, state string) string {
	t.Helper()
	browser := s.browser(t)

	resp, body := get(t, browser, authURL)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Contains(t, body, "Sign In - SSOP")
	path := interactionPath(t, resp)

	resp, body = postForm(t, browser, s.URL+path+"/login", url.Values{
		"username": {"alice"},
		"password": {"wonderland"},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Contains(t, body, "Authorize Application - SSOP")
	consent := interactionPath(t, resp)

	resp, _ = postForm(t, browser, s.URL+consent+"/consent", url.Values{"consent": {"accept"}})
	require.Equal(t, http.StatusFound, resp.StatusCode)

	loc, err := resp.Location()
	require.NoError(t, err)
	require.Equal(t, rpHost, loc.Host)
	require.Equal(t, state, loc.Query().Get("state"))

	code := loc.Query().Get("code")
	require.NotEmpty(t, code)
	return code
}
