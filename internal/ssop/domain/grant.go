package domain

import "slices"

// Grant records what an account allowed a client to access. Every code and
// token derived from it carries its JTI as grantId.
type Grant struct {
	JTI       string   `json:"jti"`
	AccountID string   `json:"accountId"`
	ClientID  string   `json:"clientId"`
	Scopes    []string `json:"scopes"`
	Claims    []string `json:"claims,omitempty"`
	GrantID   string   `json:"grantId"`
	Exp       int64    `json:"exp,omitempty"`
}

// AddScope adds scope if it is not already present.
func (g *Grant) AddScope(scope string) {
	if scope == "" || slices.Contains(g.Scopes, scope) {
		return
	}
	g.Scopes = append(g.Scopes, scope)
}

// AddClaims adds each claim not already present.
func (g *Grant) AddClaims(claims ...string) {
	for _, c := range claims {
		if c != "" && !slices.Contains(g.Claims, c) {
			g.Claims = append(g.Claims, c)
		}
	}
}

// Covers reports whether every requested scope is granted.
func (g Grant) Covers(scopes []string) bool {
	for _, s := range scopes {
		if !slices.Contains(g.Scopes, s) {
			return false
		}
	}
	return true
}
