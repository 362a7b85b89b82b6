package domain

// Session is a browser login session. Its JTI is the value of the session
// cookie.
type Session struct {
	JTI       string            `json:"jti"`
	AccountID string            `json:"accountId"`
	LoginTs   int64             `json:"loginTs"`
	AMR       []string          `json:"amr,omitempty"`
	Grants    map[string]string `json:"grants,omitempty"`
	Exp       int64             `json:"exp,omitempty"`
}

// GrantIDFor returns the grant recorded for clientID, or "".
func (s Session) GrantIDFor(clientID string) string {
	return s.Grants[clientID]
}

// SetGrantID records grantID as the grant for clientID.
func (s *Session) SetGrantID(clientID, grantID string) {
	if s.Grants == nil {
		s.Grants = make(map[string]string)
	}
	s.Grants[clientID] = grantID
}

// Authenticated reports whether an account has logged in on this session.
func (s Session) Authenticated() bool {
	return s.AccountID != ""
}
