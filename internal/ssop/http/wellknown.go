package http

import (
	"net/http"

	"github.com/aussiebroadwan/ssop/internal/ssop/provider"
	"github.com/aussiebroadwan/ssop/pkg/authsdk"
	"github.com/aussiebroadwan/ssop/pkg/httpx"
)

// JWKSHandler exposes the JSON Web Key Set for ID token verification.
//
//	@Summary		Get JWKS
//	@Description	Returns the JSON Web Key Set used to verify ID tokens.
//	@Tags			well-known
//	@Produce		json
//	@Success		200	{object}	authsdk.JWKSResponse	"The JSON Web Key Set"
//	@Router			/jwks [get].
func JWKSHandler(p *provider.Provider) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		httpx.WriteJSON(w, http.StatusOK, authsdk.JWKSResponse(p.JWKS()))
	}
}

// DiscoveryHandler serves the OpenID Provider metadata.
//
//	@Summary		OpenID Provider Configuration
//	@Tags			well-known
//	@Produce		json
//	@Success		200	{object}	authsdk.DiscoveryDocument
//	@Router			/.well-known/openid-configuration [get].
func DiscoveryHandler(p *provider.Provider) http.HandlerFunc {
	doc := p.Discovery()
	return func(w http.ResponseWriter, r *http.Request) {
		httpx.WriteJSON(w, http.StatusOK, doc)
	}
}
