package jwtx

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewEd25519JWK(t *testing.T) {
	pub, _, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)

	jwk := NewEd25519JWK("kid-1", "sig", "EdDSA", pub)

	raw, err := json.Marshal(JWKS{Keys: []JWK{jwk}})
	require.NoError(t, err)
	require.JSONEq(t, `{"keys":[{"kty":"OKP","use":"sig","alg":"EdDSA","kid":"kid-1","crv":"Ed25519","x":"`+jwk.X+`"}]}`, string(raw))

	key, err := parseJWKToKey(jwk)
	require.NoError(t, err)
	require.Equal(t, pub, key)
}

func TestParseJWKToKey_Rejects(t *testing.T) {
	tests := []struct {
		name string
		jwk  JWK
	}{
		{"rsa key type", JWK{Kty: "RSA"}},
		{"wrong curve", JWK{Kty: "OKP", Crv: "X25519", X: "AAAA"}},
		{"bad base64", JWK{Kty: "OKP", Crv: "Ed25519", X: "!!!"}},
		{"short key", JWK{Kty: "OKP", Crv: "Ed25519", X: "AAAA"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseJWKToKey(tt.jwk)
			require.Error(t, err)
		})
	}
}

func TestKeySet_Readiness(t *testing.T) {
	ks := NewKeySet()
	require.False(t, ks.IsReady())

	pub, _, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)
	require.NoError(t, ks.AddJWK(NewEd25519JWK("k", "sig", "EdDSA", pub)))
	require.True(t, ks.IsReady())

	_, err = ks.Get("missing")
	require.ErrorIs(t, err, ErrNoKey)
}
