package service

import (
	"context"
	"testing"
	"time"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/aussiebroadwan/ssop/internal/ssop/domain"
	"github.com/aussiebroadwan/ssop/pkg/cryptox"
)

const (
	testPassword   = "Password1"
	testTOTPSecret = "JBSWY3DPEHPK3PXP"
)

var testNow = time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)

type userMap map[string]domain.User

func (m userMap) User(username string) (domain.User, bool) {
	u, ok := m[username]
	return u, ok
}

func testUsers(t *testing.T) userMap {
	t.Helper()

	bcryptHash, err := cryptox.HashPasswordBcrypt(testPassword, bcrypt.MinCost)
	require.NoError(t, err)
	argonHash, err := cryptox.HashPassword(testPassword)
	require.NoError(t, err)

	return userMap{
		"alice": {
			Username:     "alice",
			PasswordHash: bcryptHash,
			Email:        "alice@example.com",
			Roles:        []string{"admin"},
		},
		"bob": {
			Username:     "bob",
			PasswordHash: argonHash,
			Email:        "bob@example.com",
			Roles:        []string{"user"},
			TOTPSecret:   testTOTPSecret,
			TOTPEnabled:  true,
		},
		"carol": {
			Username:     "carol",
			PasswordHash: bcryptHash,
			Email:        "carol@example.com",
			TOTPSecret:   testTOTPSecret,
			TOTPEnabled:  false,
		},
	}
}

func newTestCredentials(t *testing.T) *CredentialService {
	t.Helper()
	svc := NewCredentialService(testUsers(t))
	svc.Now = func() time.Time { return testNow }
	return svc
}

func codeAt(t *testing.T, at time.Time) string {
	t.Helper()
	code, err := totp.GenerateCodeCustom(testTOTPSecret, at, totp.ValidateOpts{
		Period:    30,
		Digits:    otp.DigitsSix,
		Algorithm: otp.AlgorithmSHA1,
	})
	require.NoError(t, err)
	return code
}

func wrongCode(correct string) string {
	if correct == "000000" {
		return "111111"
	}
	return "000000"
}

func TestAuthenticate_PasswordOnly(t *testing.T) {
	t.Parallel()
	svc := newTestCredentials(t)
	ctx := context.Background()

	res := svc.Authenticate(ctx, "alice", testPassword, "")
	require.Equal(t, OutcomeAccepted, res.Outcome)
	require.Equal(t, "alice", res.User.Username)

	res = svc.Authenticate(ctx, "alice", "wrong", "")
	require.Equal(t, OutcomeRejected, res.Outcome)
	require.Empty(t, res.User.Username)
}

func TestAuthenticate_UnknownUserLooksLikeWrongPassword(t *testing.T) {
	t.Parallel()
	svc := newTestCredentials(t)

	unknown := svc.Authenticate(context.Background(), "mallory", testPassword, "")
	wrong := svc.Authenticate(context.Background(), "alice", "nope", "")
	require.Equal(t, wrong, unknown)
}

func TestAuthenticate_SecondFactor(t *testing.T) {
	t.Parallel()
	svc := newTestCredentials(t)
	ctx := context.Background()
	valid := codeAt(t, testNow)

	tests := []struct {
		name     string
		password string
		code     string
		want     Outcome
	}{
		{"no code asks for one", testPassword, "", OutcomeSecondFactorRequired},
		{"blank code asks for one", testPassword, "   ", OutcomeSecondFactorRequired},
		{"wrong code", testPassword, wrongCode(valid), OutcomeRejected},
		{"valid code", testPassword, valid, OutcomeAccepted},
		{"valid code with spaces", testPassword, valid[:3] + " " + valid[3:], OutcomeAccepted},
		{"wrong password beats valid code", "wrong", valid, OutcomeRejected},
		{"wrong password without code", "wrong", "", OutcomeRejected},
		{"code of wrong length", testPassword, "12345", OutcomeRejected},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := svc.Authenticate(ctx, "bob", tt.password, tt.code)
			require.Equal(t, tt.want, res.Outcome)
			if tt.want != OutcomeRejected {
				require.Equal(t, "bob", res.User.Username)
			}
		})
	}
}

func TestAuthenticate_DisabledSecondFactorIgnoresCode(t *testing.T) {
	t.Parallel()
	svc := newTestCredentials(t)

	res := svc.Authenticate(context.Background(), "carol", testPassword, "999999")
	require.Equal(t, OutcomeAccepted, res.Outcome)
}

func TestAuthenticate_IsDeterministicForAClock(t *testing.T) {
	t.Parallel()
	svc := newTestCredentials(t)
	code := codeAt(t, testNow)

	first := svc.Authenticate(context.Background(), "bob", testPassword, code)
	for range 3 {
		require.Equal(t, first, svc.Authenticate(context.Background(), "bob", testPassword, code))
	}
}

func TestAuthenticate_Observe(t *testing.T) {
	t.Parallel()
	svc := newTestCredentials(t)

	var seen []Outcome
	svc.Observe = func(o Outcome) { seen = append(seen, o) }

	svc.Authenticate(context.Background(), "alice", testPassword, "")
	svc.Authenticate(context.Background(), "bob", testPassword, "")
	svc.Authenticate(context.Background(), "alice", "wrong", "")

	require.Equal(t, []Outcome{OutcomeAccepted, OutcomeSecondFactorRequired, OutcomeRejected}, seen)
}

func TestVerifySecondFactor_Skew(t *testing.T) {
	t.Parallel()
	svc := newTestCredentials(t)
	users := testUsers(t)

	require.True(t, svc.VerifySecondFactor(users["bob"], codeAt(t, testNow)))
	require.True(t, svc.VerifySecondFactor(users["bob"], codeAt(t, testNow.Add(-30*time.Second))))
	require.True(t, svc.VerifySecondFactor(users["bob"], codeAt(t, testNow.Add(30*time.Second))))

	old := codeAt(t, testNow.Add(-5*time.Minute))
	if old != codeAt(t, testNow) {
		require.False(t, svc.VerifySecondFactor(users["bob"], old))
	}

	strict := newTestCredentials(t)
	strict.Skew = 0
	prev := codeAt(t, testNow.Add(-30*time.Second))
	if prev != codeAt(t, testNow) {
		require.False(t, strict.VerifySecondFactor(users["bob"], prev))
	}
}

func TestVerifySecondFactor_NoSecondFactor(t *testing.T) {
	t.Parallel()
	svc := newTestCredentials(t)
	users := testUsers(t)

	require.False(t, svc.VerifySecondFactor(users["alice"], codeAt(t, testNow)))
	require.False(t, svc.VerifySecondFactor(users["carol"], codeAt(t, testNow)))
	require.False(t, svc.VerifySecondFactor(users["bob"], ""))
}

func TestFindAccountByID(t *testing.T) {
	t.Parallel()
	svc := newTestCredentials(t)

	u, ok := svc.FindAccountByID(context.Background(), "alice")
	require.True(t, ok)
	require.Equal(t, "alice@example.com", u.Email)

	_, ok = svc.FindAccountByID(context.Background(), "")
	require.False(t, ok)
	_, ok = svc.FindAccountByID(context.Background(), "mallory")
	require.False(t, ok)
}
