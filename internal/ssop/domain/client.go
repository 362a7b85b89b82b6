package domain

import "slices"

// InternalClientID is the first-party client used by the provider's own
// dashboard. It is granted every requested scope without a consent prompt.
const InternalClientID = "internal-client"

// Client is a relying party from the clients registry.
type Client struct {
	ClientID     string   `json:"client_id" yaml:"client_id" toml:"client_id"`
	ClientSecret string   `json:"client_secret" yaml:"client_secret" toml:"client_secret"`
	RedirectURIs []string `json:"redirect_uris" yaml:"redirect_uris" toml:"redirect_uris"`
	Scopes       []string `json:"scopes,omitempty" yaml:"scopes,omitempty" toml:"scopes,omitempty"`
}

// HasRedirectURI reports whether uri is registered for the client. The
// comparison is exact.
func (c Client) HasRedirectURI(uri string) bool {
	return slices.Contains(c.RedirectURIs, uri)
}

// IsInternal reports whether c is the first-party client.
func (c Client) IsInternal() bool {
	return c.ClientID == InternalClientID
}
