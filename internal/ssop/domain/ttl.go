package domain

import "time"

// Artifact lifetimes applied by the provider when it writes to the store.
const (
	SessionTTL           = 24 * time.Hour
	GrantTTL             = 24 * time.Hour
	AuthorizationCodeTTL = 10 * time.Minute
	AccessTokenTTL       = time.Hour
	RefreshTokenTTL      = 7 * 24 * time.Hour
	IDTokenTTL           = time.Hour
	InteractionTTL       = time.Hour
)
