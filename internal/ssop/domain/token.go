package domain

// AuthorizationCode is a one-time code issued at the end of an
// authorization request. It is stored under the fingerprint of the code.
type AuthorizationCode struct {
	AccountID   string   `json:"accountId"`
	ClientID    string   `json:"clientId"`
	GrantID     string   `json:"grantId"`
	Scope       string   `json:"scope"`
	RedirectURI string   `json:"redirectUri"`
	Nonce       string   `json:"nonce,omitempty"`
	SessionID   string   `json:"sessionUid,omitempty"`
	AuthTime    int64    `json:"authTime,omitempty"`
	AMR         []string `json:"amr,omitempty"`
	Consumed    bool     `json:"consumed,omitempty"`
	Exp         int64    `json:"exp,omitempty"`
}

// AccessToken is an opaque bearer token, stored under its fingerprint.
type AccessToken struct {
	AccountID string `json:"accountId"`
	ClientID  string `json:"clientId"`
	GrantID   string `json:"grantId"`
	Scope     string `json:"scope"`
	Exp       int64  `json:"exp,omitempty"`
}

// RefreshToken is an opaque rotating refresh token, stored under its
// fingerprint.
type RefreshToken struct {
	AccountID string   `json:"accountId"`
	ClientID  string   `json:"clientId"`
	GrantID   string   `json:"grantId"`
	Scope     string   `json:"scope"`
	SessionID string   `json:"sessionUid,omitempty"`
	AuthTime  int64    `json:"authTime,omitempty"`
	AMR       []string `json:"amr,omitempty"`
	Exp       int64    `json:"exp,omitempty"`
}
