package provider

import "errors"

// Protocol errors. The HTTP layer maps them onto RFC 6749 error bodies;
// ErrUnknownClient and ErrInvalidRedirectURI cannot be redirected back to the
// client and are shown as an error page instead.
var (
	ErrUnknownClient        = errors.New("unknown client")
	ErrInvalidRedirectURI   = errors.New("redirect_uri is not registered for this client")
	ErrInvalidRequest       = errors.New("invalid request")
	ErrInvalidClient        = errors.New("client authentication failed")
	ErrInvalidGrant         = errors.New("grant is invalid, expired or revoked")
	ErrInvalidScope         = errors.New("requested scope exceeds the grant")
	ErrUnsupportedGrantType = errors.New("unsupported grant type")
	ErrInvalidToken         = errors.New("access token is invalid, expired or revoked")
	ErrSessionNotFound      = errors.New("session not found")
)
