package authsdk

import (
	"github.com/aussiebroadwan/ssop/pkg/jwtx"
)

// ErrorResponse is the RFC 6749 error body.
type ErrorResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

// TokenResponse is the token endpoint response.
type TokenResponse struct {
	// AccessToken is an opaque bearer token for the userinfo endpoint
	AccessToken string `json:"access_token"`

	// RefreshToken is an opaque token that rotates on every use
	RefreshToken string `json:"refresh_token,omitempty"`

	// IDToken is an EdDSA-signed JWT, present when the openid scope was granted
	IDToken string `json:"id_token,omitempty"`

	// TokenType is always "Bearer"
	TokenType string `json:"token_type"`

	// ExpiresIn is the lifetime in seconds of the access token
	ExpiresIn int `json:"expires_in"`

	// Scope is the space-delimited list of granted scopes
	Scope string `json:"scope,omitempty"`
}

// UserInfoResponse is the userinfo endpoint response. Fields are empty when
// their scope was not granted.
type UserInfoResponse struct {
	Sub               string   `json:"sub"`
	PreferredUsername string   `json:"preferred_username"`
	Name              string   `json:"name,omitempty"`
	Picture           string   `json:"picture,omitempty"`
	Email             string   `json:"email,omitempty"`
	EmailVerified     bool     `json:"email_verified,omitempty"`
	Roles             []string `json:"roles,omitempty"`
}

// DiscoveryDocument is the OpenID Provider metadata served at
// /.well-known/openid-configuration.
type DiscoveryDocument struct {
	Issuer                            string   `json:"issuer"`
	AuthorizationEndpoint             string   `json:"authorization_endpoint"`
	TokenEndpoint                     string   `json:"token_endpoint"`
	UserinfoEndpoint                  string   `json:"userinfo_endpoint"`
	JWKSURI                           string   `json:"jwks_uri"`
	RevocationEndpoint                string   `json:"revocation_endpoint"`
	EndSessionEndpoint                string   `json:"end_session_endpoint"`
	ResponseTypesSupported            []string `json:"response_types_supported"`
	ResponseModesSupported            []string `json:"response_modes_supported"`
	GrantTypesSupported               []string `json:"grant_types_supported"`
	SubjectTypesSupported             []string `json:"subject_types_supported"`
	IDTokenSigningAlgValuesSupported  []string `json:"id_token_signing_alg_values_supported"`
	TokenEndpointAuthMethodsSupported []string `json:"token_endpoint_auth_methods_supported"`
	ScopesSupported                   []string `json:"scopes_supported"`
	ClaimsSupported                   []string `json:"claims_supported"`
}

// HealthResponse is returned by /livez and /readyz.
type HealthResponse struct {
	// Status is "ok" or "unavailable"
	Status string `json:"status"`

	// Uptime is the service uptime duration as a string (e.g., "1h23m45s")
	Uptime string `json:"uptime,omitempty"`

	// Version is the service version string
	Version string `json:"version,omitempty"`

	// Checks is only set on /readyz
	Checks *HealthChecks `json:"checks,omitempty"`
}

// HealthChecks reports the status of the provider's dependencies.
type HealthChecks struct {
	// Store is the artifact store status
	Store string `json:"store"`

	// Signer is the ID token signing key status
	Signer string `json:"signer"`
}

// JWKSResponse is the provider's JSON Web Key Set.
type JWKSResponse jwtx.JWKS
