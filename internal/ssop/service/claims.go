package service

import (
	"slices"

	"github.com/aussiebroadwan/ssop/internal/ssop/domain"
)

// OIDC scopes the provider understands. Anything else in a request is
// ignored.
const (
	ScopeOpenID  = "openid"
	ScopeProfile = "profile"
	ScopeEmail   = "email"
	ScopeRoles   = "roles"
)

// SupportedScopes is the scope allow-list in presentation order.
var SupportedScopes = []string{ScopeOpenID, ScopeProfile, ScopeEmail, ScopeRoles}

// StandardClaims lists every claim a grant may release.
var StandardClaims = []string{"sub", "name", "preferred_username", "email", "email_verified", "picture", "roles"}

// ClaimSet is the projection of a user onto a set of scopes. Fields whose
// scope was not requested are left empty. Roles is nil unless the roles
// scope was requested, and an empty non-nil slice is kept on the wire.
type ClaimSet struct {
	Sub               string   `json:"sub"`
	PreferredUsername string   `json:"preferred_username"`
	Name              string   `json:"name,omitempty"`
	Picture           string   `json:"picture,omitempty"`
	Email             string   `json:"email,omitempty"`
	EmailVerified     bool     `json:"email_verified,omitempty"`
	Roles             []string `json:"roles,omitzero"`
}

// ProjectClaims releases the claims of user that scopes cover.
// preferred_username is always present.
func ProjectClaims(user domain.User, scopes []string) ClaimSet {
	c := ClaimSet{
		Sub:               user.Username,
		PreferredUsername: user.Username,
	}

	if slices.Contains(scopes, ScopeEmail) {
		c.Email = user.Email
		c.EmailVerified = true
	}

	if slices.Contains(scopes, ScopeProfile) {
		c.Name = user.Username
		c.Picture = user.ProfilePhotoURL
	}

	if slices.Contains(scopes, ScopeRoles) {
		c.Roles = make([]string, len(user.Roles))
		copy(c.Roles, user.Roles)
	}

	return c
}

// FilterScopes keeps the requested scopes that are in the allow-list, in
// request order and without duplicates. An empty request yields openid.
func FilterScopes(requested []string) []string {
	if len(requested) == 0 {
		return []string{ScopeOpenID}
	}

	out := make([]string, 0, len(requested))
	for _, s := range requested {
		if slices.Contains(SupportedScopes, s) && !slices.Contains(out, s) {
			out = append(out, s)
		}
	}
	return out
}
