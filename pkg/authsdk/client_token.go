package authsdk

import (
	"context"
	"net/http"
	"net/url"
)

// ExchangeCode redeems an authorization code with client_secret_post
// authentication.
func (c *SDKClient) ExchangeCode(
	ctx context.Context,
	clientID, clientSecret, code, redirectURI string,
) (*TokenResponse, error) {
	data := url.Values{
		"grant_type":    {"authorization_code"},
		"code":          {code},
		"redirect_uri":  {redirectURI},
		"client_id":     {clientID},
		"client_secret": {clientSecret},
	}

	return c.requestToken(ctx, data)
}

// RefreshGrant exchanges a refresh token for a new token set. The old
// refresh token stops working.
func (c *SDKClient) RefreshGrant(
	ctx context.Context,
	clientID, clientSecret, refreshToken string,
) (*TokenResponse, error) {
	data := url.Values{
		"grant_type":    {"refresh_token"},
		"refresh_token": {refreshToken},
		"client_id":     {clientID},
		"client_secret": {clientSecret},
	}

	return c.requestToken(ctx, data)
}

// RevokeToken revokes an access or refresh token. Revoking a refresh token
// revokes everything issued under the same grant.
func (c *SDKClient) RevokeToken(ctx context.Context, clientID, clientSecret, token string) error {
	data := url.Values{
		"token":         {token},
		"client_id":     {clientID},
		"client_secret": {clientSecret},
	}

	resp, err := c.postForm(ctx, "/token/revocation", data)
	if err != nil {
		return err
	}
	return checkStatusOK(resp)
}

func (c *SDKClient) requestToken(ctx context.Context, data url.Values) (*TokenResponse, error) {
	resp, err := c.postForm(ctx, "/token", data)
	if err != nil {
		return nil, err
	}

	var tokenResp TokenResponse
	if err := decodeJSON(resp, &tokenResp, http.StatusOK); err != nil {
		return nil, err
	}

	return &tokenResp, nil
}
