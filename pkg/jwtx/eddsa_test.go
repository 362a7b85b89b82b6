package jwtx_test

import (
	"testing"
	"time"

	"github.com/aussiebroadwan/ssop/pkg/cryptox"
	"github.com/aussiebroadwan/ssop/pkg/jwtx"
	"github.com/stretchr/testify/require"
)

const exampleIssuer = "http://localhost:3000"

func newTestSigner(t *testing.T, kid string) jwtx.Signer {
	t.Helper()
	pemKey, err := cryptox.GenerateEd25519Key()
	require.NoError(t, err)
	signer, err := jwtx.NewSignerEdDSA(kid, pemKey)
	require.NoError(t, err)
	return signer
}

func TestEdDSASignAndVerify(t *testing.T) {
	signer := newTestSigner(t, "test-key-eddsa")
	require.NoError(t, signer.Validate())
	require.Equal(t, "EdDSA", signer.Alg())
	require.Equal(t, "test-key-eddsa", signer.KID())

	verified := true
	claims := jwtx.NewIDClaims(exampleIssuer, "alice", "internal-client", 5*time.Minute, time.Now().UTC())
	claims.Nonce = "n-0S6_WzA2Mj"
	claims.AMR = []string{"pwd", "otp"}
	claims.Email = "alice@example.com"
	claims.EmailVerified = &verified
	claims.Roles = []string{"admin"}

	token, err := signer.Sign(claims)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	keyset := jwtx.NewKeySet()
	require.NoError(t, keyset.AddSigner(signer))

	jwks := keyset.PublicJWKS()
	require.Len(t, jwks.Keys, 1)
	require.Equal(t, "OKP", jwks.Keys[0].Kty)
	require.Equal(t, "Ed25519", jwks.Keys[0].Crv)
	require.NotEmpty(t, jwks.Keys[0].X)

	verifier := jwtx.NewVerifierEdDSA(keyset, exampleIssuer, []string{"internal-client"})
	parsed, err := verifier.Verify(token)
	require.NoError(t, err)

	require.Equal(t, claims.Subject, parsed.Subject)
	require.Equal(t, claims.Nonce, parsed.Nonce)
	require.ElementsMatch(t, claims.AMR, parsed.AMR)
	require.Equal(t, claims.Email, parsed.Email)
	require.NotNil(t, parsed.EmailVerified)
	require.True(t, *parsed.EmailVerified)
	require.Equal(t, claims.Roles, parsed.Roles)
	require.Equal(t, claims.ID, parsed.ID)
}

func TestEdDSAVerifyFailsForWrongIssuer(t *testing.T) {
	signer := newTestSigner(t, "k1")
	token, err := signer.Sign(jwtx.NewIDClaims(exampleIssuer, "alice", "c1", time.Minute, time.Now()))
	require.NoError(t, err)

	keyset := jwtx.NewKeySet()
	require.NoError(t, keyset.AddSigner(signer))

	_, err = jwtx.NewVerifierEdDSA(keyset, "wrong-issuer", nil).Verify(token)
	require.ErrorIs(t, err, jwtx.ErrIssuer)
}

func TestEdDSAVerifyFailsForUnknownKey(t *testing.T) {
	signer1 := newTestSigner(t, "key1")
	signer2 := newTestSigner(t, "key2")

	token, err := signer1.Sign(jwtx.NewIDClaims(exampleIssuer, "alice", "c1", time.Minute, time.Now()))
	require.NoError(t, err)

	keyset := jwtx.NewKeySet()
	require.NoError(t, keyset.AddSigner(signer2))

	_, err = jwtx.NewVerifierEdDSA(keyset, exampleIssuer, nil).Verify(token)
	require.ErrorIs(t, err, jwtx.ErrNoKey)
}

func TestEdDSAExpiredTokenAcceptedAsHint(t *testing.T) {
	signer := newTestSigner(t, "k1")
	issued := time.Now().Add(-2 * time.Hour)
	token, err := signer.Sign(jwtx.NewIDClaims(exampleIssuer, "alice", "c1", time.Hour, issued))
	require.NoError(t, err)

	keyset := jwtx.NewKeySet()
	require.NoError(t, keyset.AddSigner(signer))
	verifier := jwtx.NewVerifierEdDSA(keyset, exampleIssuer, nil)

	_, err = verifier.Verify(token)
	require.ErrorIs(t, err, jwtx.ErrExpired)

	claims, err := verifier.VerifyHint(token)
	require.NoError(t, err)
	require.Equal(t, "alice", claims.Subject)
}

func TestEdDSAValidateFailsForInvalidKey(t *testing.T) {
	_, err := jwtx.NewSignerEdDSA("test", []byte("not-a-pem-key"))
	require.Error(t, err)
	require.Contains(t, err.Error(), "invalid PEM")
}

func TestEdDSACommonVerifierAdapter(t *testing.T) {
	signer := newTestSigner(t, "test-key")
	token, err := signer.Sign(jwtx.NewIDClaims(exampleIssuer, "bob", "c1", time.Minute, time.Now()))
	require.NoError(t, err)

	keyset := jwtx.NewKeySet()
	require.NoError(t, keyset.AddSigner(signer))

	var v jwtx.Verifier = jwtx.NewCommonEdDSA(keyset, exampleIssuer, []string{"c1"})
	claims, err := v.Verify(token)
	require.NoError(t, err)
	require.Equal(t, "bob", claims.Subject)
}
