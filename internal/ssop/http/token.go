package http

import (
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/aussiebroadwan/ssop/internal/ssop/provider"
	"github.com/aussiebroadwan/ssop/pkg/authsdk"
	"github.com/aussiebroadwan/ssop/pkg/httpx"
	"github.com/aussiebroadwan/ssop/pkg/slogx"
)

// TokenHandler serves POST /token.
// Accepts application/x-www-form-urlencoded per RFC 6749.
type TokenHandler struct {
	Provider *provider.Provider
}

// ServeHTTP godoc
//
//	@Summary		Token Endpoint
//	@Description	Redeems an authorization code or rotates a refresh token. Clients authenticate with client_secret_basic or client_secret_post.
//	@Tags			OIDC
//	@Accept			application/x-www-form-urlencoded
//	@Produce		json
//	@Param			grant_type		formData	string					true	"Grant type"	Enums(authorization_code, refresh_token)
//	@Param			code			formData	string					false	"Authorization code (authorization_code grant)"
//	@Param			redirect_uri	formData	string					false	"Redirect URI used in the authorization request"
//	@Param			refresh_token	formData	string					false	"Refresh token (refresh_token grant)"
//	@Param			scope			formData	string					false	"Subset of the granted scopes"
//	@Param			client_id		formData	string					false	"Client identifier (client_secret_post)"
//	@Param			client_secret	formData	string					false	"Client secret (client_secret_post)"
//	@Success		200				{object}	authsdk.TokenResponse	"access_token, refresh_token, id_token, token_type, expires_in, scope"
//	@Failure		400				{object}	authsdk.ErrorResponse	"error, error_description"
//	@Failure		401				{object}	authsdk.ErrorResponse	"error, error_description"
//	@Failure		500				{object}	authsdk.ErrorResponse	"error, error_description"
//	@Header			200				{string}	Cache-Control			"no-store"
//	@Header			200				{string}	Pragma					"no-cache"
//	@Router			/token [post].
func (h *TokenHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !parseTokenForm(w, r) {
		return
	}

	clientID, clientSecret, ok := clientCredentials(r)
	if !ok {
		authsdk.ErrInvalidClient.WriteError(w)
		return
	}

	tokens, err := h.Provider.Exchange(r.Context(), provider.TokenRequest{
		GrantType:    r.PostForm.Get("grant_type"),
		ClientID:     clientID,
		ClientSecret: clientSecret,
		Code:         strings.TrimSpace(r.PostForm.Get("code")),
		RedirectURI:  strings.TrimSpace(r.PostForm.Get("redirect_uri")),
		RefreshToken: r.PostForm.Get("refresh_token"),
		Scope:        strings.TrimSpace(r.PostForm.Get("scope")),
	})
	if err != nil {
		writeProviderError(w, r, "token exchange", err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, authsdk.TokenResponse{
		AccessToken:  tokens.AccessToken,
		RefreshToken: tokens.RefreshToken,
		IDToken:      tokens.IDToken,
		TokenType:    "Bearer",
		ExpiresIn:    int(tokens.ExpiresIn.Seconds()),
		Scope:        tokens.Scope,
	})
}

// parseTokenForm enforces the form content type and parses the body. It
// writes the error response and returns false on failure.
func parseTokenForm(w http.ResponseWriter, r *http.Request) bool {
	if ct := r.Header.Get("Content-Type"); ct != "" &&
		!strings.HasPrefix(ct, "application/x-www-form-urlencoded") {
		authsdk.ErrInvalidContentType.WriteError(w)
		return false
	}
	if err := r.ParseForm(); err != nil {
		authsdk.ErrInvalidFormBody.WriteError(w)
		return false
	}
	return true
}

// clientCredentials reads client_secret_basic, falling back to
// client_secret_post. Basic credentials are form-encoded per RFC 6749
// section 2.3.1.
func clientCredentials(r *http.Request) (string, string, bool) {
	if rawID, rawSecret, ok := r.BasicAuth(); ok {
		id, err := url.QueryUnescape(rawID)
		if err != nil {
			return "", "", false
		}
		secret, err := url.QueryUnescape(rawSecret)
		if err != nil {
			return "", "", false
		}
		if formID := r.PostForm.Get("client_id"); formID != "" && formID != id {
			return "", "", false
		}
		return id, secret, true
	}

	id := strings.TrimSpace(r.PostForm.Get("client_id"))
	if id == "" {
		return "", "", false
	}
	return id, r.PostForm.Get("client_secret"), true
}

// writeProviderError maps engine errors onto RFC 6749 error bodies.
func writeProviderError(w http.ResponseWriter, r *http.Request, op string, err error) {
	switch {
	case errors.Is(err, provider.ErrInvalidClient):
		authsdk.ErrInvalidClient.WriteError(w)
	case errors.Is(err, provider.ErrInvalidGrant):
		authsdk.ErrInvalidGrant.WriteError(w)
	case errors.Is(err, provider.ErrInvalidScope):
		authsdk.ErrInvalidScope.WriteError(w)
	case errors.Is(err, provider.ErrUnsupportedGrantType):
		authsdk.ErrUnsupportedGrantType.WriteError(w)
	case errors.Is(err, provider.ErrInvalidRequest):
		authsdk.NewOAuth2Error(http.StatusBadRequest, authsdk.ErrorCodeInvalidRequest, err.Error()).WriteError(w)
	default:
		slogx.FromContext(r.Context()).Error(op+" failed", "err", err)
		authsdk.ErrServerError.WriteError(w)
	}
}
