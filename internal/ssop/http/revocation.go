package http

import (
	"net/http"

	"github.com/aussiebroadwan/ssop/internal/ssop/provider"
	"github.com/aussiebroadwan/ssop/pkg/authsdk"
	"github.com/aussiebroadwan/ssop/pkg/httpx"
)

// RevocationHandler serves POST /token/revocation (RFC 7009).
type RevocationHandler struct {
	Provider *provider.Provider
}

// ServeHTTP godoc
//
//	@Summary		Token Revocation
//	@Description	Revokes an access token, or a refresh token together with its whole grant. Unknown tokens are accepted silently.
//	@Tags			OIDC
//	@Accept			application/x-www-form-urlencoded
//	@Param			token			formData	string	true	"Token to revoke"
//	@Param			token_type_hint	formData	string	false	"access_token or refresh_token (ignored)"
//	@Param			client_id		formData	string	false	"Client identifier (client_secret_post)"
//	@Param			client_secret	formData	string	false	"Client secret (client_secret_post)"
//	@Success		200
//	@Failure		400	{object}	authsdk.ErrorResponse
//	@Failure		401	{object}	authsdk.ErrorResponse
//	@Router			/token/revocation [post].
func (h *RevocationHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !parseTokenForm(w, r) {
		return
	}

	clientID, clientSecret, ok := clientCredentials(r)
	if !ok {
		authsdk.ErrInvalidClient.WriteError(w)
		return
	}

	if err := h.Provider.Revoke(r.Context(), clientID, clientSecret, r.PostForm.Get("token")); err != nil {
		writeProviderError(w, r, "revocation", err)
		return
	}

	httpx.NoCache(w)
	w.WriteHeader(http.StatusOK)
}
