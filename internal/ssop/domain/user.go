package domain

import "slices"

// User is an account from the users registry. It is loaded once at startup
// and never modified afterwards.
type User struct {
	Username        string   `json:"username" yaml:"username" toml:"username"`
	PasswordHash    string   `json:"password_hash" yaml:"password_hash" toml:"password_hash"`
	Email           string   `json:"email" yaml:"email" toml:"email"`
	Roles           []string `json:"roles" yaml:"roles" toml:"roles"`
	ProfilePhotoURL string   `json:"profile_photo_url,omitempty" yaml:"profile_photo_url,omitempty" toml:"profile_photo_url,omitempty"`
	TOTPSecret      string   `json:"totp_secret,omitempty" yaml:"totp_secret,omitempty" toml:"totp_secret,omitempty"`
	TOTPEnabled     bool     `json:"totp_enabled,omitempty" yaml:"totp_enabled,omitempty" toml:"totp_enabled,omitempty"`
}

// HasSecondFactor reports whether login requires a TOTP code.
func (u User) HasSecondFactor() bool {
	return u.TOTPEnabled && u.TOTPSecret != ""
}

// HasRole reports whether the user carries role.
func (u User) HasRole(role string) bool {
	return slices.Contains(u.Roles, role)
}
