package service

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"

	"github.com/aussiebroadwan/ssop/internal/ssop/domain"
	"github.com/aussiebroadwan/ssop/pkg/cryptox"
	"github.com/aussiebroadwan/ssop/pkg/slogx"
)

const (
	totpPeriod      = 30
	DefaultTOTPSkew = 1
)

// Outcome is the result class of a credential check.
type Outcome int

const (
	OutcomeRejected Outcome = iota
	OutcomeAccepted
	OutcomeSecondFactorRequired
)

func (o Outcome) String() string {
	switch o {
	case OutcomeAccepted:
		return "accepted"
	case OutcomeSecondFactorRequired:
		return "second_factor_required"
	default:
		return "rejected"
	}
}

// AuthResult is returned by Authenticate. User is set unless the outcome is
// OutcomeRejected.
type AuthResult struct {
	Outcome Outcome
	User    domain.User
}

// UserDirectory resolves accounts by username.
type UserDirectory interface {
	User(username string) (domain.User, bool)
}

// CredentialService verifies passwords and TOTP codes against the user
// registry.
type CredentialService struct {
	Users UserDirectory

	// Skew is the number of 30 second steps accepted either side of now.
	Skew uint

	// Now is the clock used for TOTP validation. Defaults to time.Now.
	Now func() time.Time

	// Observe, when set, is told the outcome of every Authenticate call.
	Observe func(Outcome)
}

// NewCredentialService returns a CredentialService with the default skew.
func NewCredentialService(users UserDirectory) *CredentialService {
	return &CredentialService{
		Users: users,
		Skew:  DefaultTOTPSkew,
		Now:   time.Now,
	}
}

// Authenticate checks username and password and, when the account has a
// second factor, the TOTP code. A wrong password is rejected whatever the
// code. An empty code on a second factor account asks for the code instead
// of rejecting.
func (s *CredentialService) Authenticate(ctx context.Context, username, password, totpCode string) AuthResult {
	res := s.authenticate(ctx, username, password, totpCode)
	if s.Observe != nil {
		s.Observe(res.Outcome)
	}
	return res
}

func (s *CredentialService) authenticate(ctx context.Context, username, password, totpCode string) AuthResult {
	log := slogx.FromContext(ctx)

	user, ok := s.Users.User(username)
	if !ok {
		_ = cryptox.VerifyDummy(password)
		log.Info("authentication rejected", "reason", "unknown_user")
		return AuthResult{Outcome: OutcomeRejected}
	}

	if err := cryptox.VerifyPassword(password, user.PasswordHash); err != nil {
		if !errors.Is(err, cryptox.ErrPasswordMismatch) {
			log.Error("password verification failed", "username", username, "error", err)
		} else {
			log.Info("authentication rejected", "username", username, "reason", "password")
		}
		return AuthResult{Outcome: OutcomeRejected}
	}

	if !user.HasSecondFactor() {
		return AuthResult{Outcome: OutcomeAccepted, User: user}
	}

	if normalizeCode(totpCode) == "" {
		return AuthResult{Outcome: OutcomeSecondFactorRequired, User: user}
	}

	if !s.VerifySecondFactor(user, totpCode) {
		log.Info("authentication rejected", "username", username, "reason", "totp")
		return AuthResult{Outcome: OutcomeRejected}
	}

	return AuthResult{Outcome: OutcomeAccepted, User: user}
}

// VerifySecondFactor validates code against the user's TOTP secret.
// Whitespace in the code is ignored. Users without a second factor never
// verify.
func (s *CredentialService) VerifySecondFactor(user domain.User, code string) bool {
	if !user.HasSecondFactor() {
		return false
	}

	code = normalizeCode(code)
	if code == "" {
		return false
	}

	now := time.Now
	if s.Now != nil {
		now = s.Now
	}

	ok, err := totp.ValidateCustom(code, user.TOTPSecret, now().UTC(), totp.ValidateOpts{
		Period:    totpPeriod,
		Skew:      s.Skew,
		Digits:    otp.DigitsSix,
		Algorithm: otp.AlgorithmSHA1,
	})
	return err == nil && ok
}

// FindAccountByID resolves an account id. Account ids are usernames.
func (s *CredentialService) FindAccountByID(_ context.Context, id string) (domain.User, bool) {
	if id == "" {
		return domain.User{}, false
	}
	return s.Users.User(id)
}

func normalizeCode(code string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, code)
}
