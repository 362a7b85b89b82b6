package http

import (
	"errors"
	"net/http"

	"github.com/aussiebroadwan/ssop/internal/ssop/provider"
	"github.com/aussiebroadwan/ssop/pkg/authsdk"
	"github.com/aussiebroadwan/ssop/pkg/httpx"
	"github.com/aussiebroadwan/ssop/pkg/slogx"
)

// UserInfoHandler serves GET and POST /me.
type UserInfoHandler struct {
	Provider *provider.Provider
}

// ServeHTTP godoc
//
//	@Summary		UserInfo Endpoint
//	@Description	Returns the claims released by the access token's scopes.
//	@Tags			OIDC
//	@Produce		json
//	@Security		BearerAuth
//	@Success		200	{object}	authsdk.UserInfoResponse
//	@Failure		401	{object}	authsdk.ErrorResponse	"invalid_token"
//	@Router			/me [get].
func (h *UserInfoHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	token, ok := httpx.BearerToken(r)
	if !ok {
		httpx.WriteBearerError(w, "missing access token")
		return
	}

	claims, err := h.Provider.UserInfo(r.Context(), token)
	if err != nil {
		if errors.Is(err, provider.ErrInvalidToken) {
			httpx.WriteBearerError(w, "access token is invalid or expired")
			return
		}
		slogx.FromContext(r.Context()).Error("userinfo failed", "err", err)
		authsdk.ErrServerError.WriteError(w)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, claims)
}
