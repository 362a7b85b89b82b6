package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aussiebroadwan/ssop/internal/ssop/domain"
	"github.com/aussiebroadwan/ssop/pkg/idx"
	"github.com/aussiebroadwan/ssop/pkg/slogx"
)

var (
	ErrInteractionNotFound = errors.New("interaction not found")
	ErrUnsupportedPrompt   = errors.New("unsupported prompt")
	ErrPromptMismatch      = errors.New("interaction is not waiting for this step")
	ErrConsentDenied       = errors.New("access denied")
)

// ConsentAccept is the only consent decision that approves a request.
const ConsentAccept = "accept"

// State is where an interaction stands after a controller call.
type State int

const (
	StateAwaitingLogin State = iota
	StateAwaitingSecondFactor
	StateAwaitingConsent
	StateFinishedLogin
	StateFinishedConsent
	StateDenied
)

func (s State) String() string {
	switch s {
	case StateAwaitingLogin:
		return "awaiting_login"
	case StateAwaitingSecondFactor:
		return "awaiting_second_factor"
	case StateAwaitingConsent:
		return "awaiting_consent"
	case StateFinishedLogin:
		return "finished_login"
	case StateFinishedConsent:
		return "finished_consent"
	case StateDenied:
		return "denied"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Finished reports whether the step was handed back to the engine.
func (s State) Finished() bool {
	return s == StateFinishedLogin || s == StateFinishedConsent
}

// InteractionEngine is the protocol engine side of an interaction. It owns
// interactions, sessions and grants; the controller only reads and advances
// them through this interface.
type InteractionEngine interface {
	// InteractionDetails returns the live interaction for uid, or
	// ErrInteractionNotFound.
	InteractionDetails(ctx context.Context, uid string) (domain.Interaction, error)

	// FinishLogin records a finished login and returns where the browser
	// goes next.
	FinishLogin(ctx context.Context, uid string, result domain.LoginResult) (string, error)

	// FinishConsent records a finished consent and returns where the
	// browser goes next.
	FinishConsent(ctx context.Context, uid, grantID string) (string, error)

	// SaveGrant persists grant and returns its id.
	SaveGrant(ctx context.Context, grant domain.Grant) (string, error)
}

// Authenticator is the credential check the controller drives.
type Authenticator interface {
	Authenticate(ctx context.Context, username, password, totpCode string) AuthResult
}

// LoginForm is a submitted login step.
type LoginForm struct {
	Username string
	Password string
	TOTPCode string
}

// View is what the browser should see after a controller call. For the
// second factor step Username and Password carry the first step's values so
// they can be resubmitted; the code itself is never echoed.
type View struct {
	State State
	UID   string
	Error bool

	Username string
	Password string

	// Consent page details.
	ClientID string
	Scopes   []string

	// RedirectTo is set once a step has finished.
	RedirectTo string
}

// Action is the form target for the current step.
func (v View) Action() string {
	switch v.State {
	case StateAwaitingConsent:
		return "/interaction/" + v.UID + "/consent"
	default:
		return "/interaction/" + v.UID + "/login"
	}
}

// BackURL restarts the interaction from its first page.
func (v View) BackURL() string {
	return "/interaction/" + v.UID
}

// InteractionController drives a browser through login and consent.
type InteractionController struct {
	Engine      InteractionEngine
	Credentials Authenticator

	// OnConsent, when set, is told every consent decision.
	OnConsent func(accepted bool)
}

// Show renders the step the engine is waiting for.
func (c *InteractionController) Show(ctx context.Context, uid string, loginError bool) (View, error) {
	in, err := c.Engine.InteractionDetails(ctx, uid)
	if err != nil {
		return View{}, err
	}

	slogx.FromContext(ctx).Debug("interaction details",
		"uid", in.UID,
		"prompt", in.Prompt,
		"reasons", in.Reasons,
		"client_id", in.Params.ClientID,
	)

	switch in.Prompt {
	case domain.PromptLogin:
		return View{State: StateAwaitingLogin, UID: uid, Error: loginError}, nil
	case domain.PromptConsent:
		return View{
			State:    StateAwaitingConsent,
			UID:      uid,
			ClientID: in.Params.ClientID,
			Scopes:   requestedScopes(in.Params.Scope),
		}, nil
	default:
		return View{}, fmt.Errorf("%w: %q", ErrUnsupportedPrompt, in.Prompt)
	}
}

// SubmitLogin advances the login step. Failed attempts leave no trace and may
// be retried without limit.
func (c *InteractionController) SubmitLogin(ctx context.Context, uid string, form LoginForm) (View, error) {
	in, err := c.Engine.InteractionDetails(ctx, uid)
	if err != nil {
		return View{}, err
	}
	if in.Prompt != domain.PromptLogin {
		return View{}, fmt.Errorf("%w: prompt is %q", ErrPromptMismatch, in.Prompt)
	}

	log := slogx.FromContext(ctx)
	hasCode := strings.TrimSpace(form.TOTPCode) != ""

	res := c.Credentials.Authenticate(ctx, form.Username, form.Password, form.TOTPCode)
	switch res.Outcome {
	case OutcomeAccepted:
		amr := []string{"pwd"}
		if res.User.HasSecondFactor() {
			amr = append(amr, "otp", "mfa")
		}

		to, err := c.Engine.FinishLogin(ctx, uid, domain.LoginResult{
			AccountID: res.User.Username,
			AMR:       amr,
		})
		if err != nil {
			return View{}, fmt.Errorf("finish login: %w", err)
		}

		log.Info("login finished", "uid", uid, "username", res.User.Username)
		return View{State: StateFinishedLogin, UID: uid, RedirectTo: to}, nil

	case OutcomeSecondFactorRequired:
		return View{
			State:    StateAwaitingSecondFactor,
			UID:      uid,
			Username: form.Username,
			Password: form.Password,
		}, nil

	default:
		if hasCode {
			return View{
				State:    StateAwaitingSecondFactor,
				UID:      uid,
				Error:    true,
				Username: form.Username,
				Password: form.Password,
			}, nil
		}
		return View{State: StateAwaitingLogin, UID: uid, Error: true}, nil
	}
}

// SubmitConsent advances the consent step. Accepting persists a grant for
// the allowed subset of the requested scopes. Any other decision returns
// ErrConsentDenied and leaves the interaction unfinished.
func (c *InteractionController) SubmitConsent(ctx context.Context, uid, decision string) (View, error) {
	if decision != ConsentAccept {
		c.observeConsent(false)
		slogx.FromContext(ctx).Info("consent denied", "uid", uid)
		return View{State: StateDenied, UID: uid}, ErrConsentDenied
	}

	in, err := c.Engine.InteractionDetails(ctx, uid)
	if err != nil {
		return View{}, err
	}
	if in.Prompt != domain.PromptConsent {
		return View{}, fmt.Errorf("%w: prompt is %q", ErrPromptMismatch, in.Prompt)
	}

	grant := NewGrant(in.AccountID, in.Params.ClientID)
	for _, s := range FilterScopes(requestedScopes(in.Params.Scope)) {
		grant.AddScope(s)
	}

	grantID, err := c.Engine.SaveGrant(ctx, grant)
	if err != nil {
		return View{}, fmt.Errorf("save grant: %w", err)
	}

	to, err := c.Engine.FinishConsent(ctx, uid, grantID)
	if err != nil {
		return View{}, fmt.Errorf("finish consent: %w", err)
	}

	c.observeConsent(true)
	slogx.FromContext(ctx).Info("consent finished",
		"uid", uid,
		"client_id", in.Params.ClientID,
		"scopes", grant.Scopes,
	)
	return View{State: StateFinishedConsent, UID: uid, RedirectTo: to}, nil
}

func (c *InteractionController) observeConsent(accepted bool) {
	if c.OnConsent != nil {
		c.OnConsent(accepted)
	}
}

// NewGrant returns an empty grant for accountID and clientID with a fresh
// JTI.
func NewGrant(accountID, clientID string) domain.Grant {
	jti := idx.New().String()
	return domain.Grant{
		JTI:       jti,
		GrantID:   jti,
		AccountID: accountID,
		ClientID:  clientID,
	}
}

// DefaultGrant is the auto-approved grant for the first-party client: every
// requested scope plus openid, and every standard claim.
func DefaultGrant(accountID, clientID, scope string) domain.Grant {
	g := NewGrant(accountID, clientID)
	for _, s := range strings.Fields(scope) {
		if s != ScopeOpenID {
			g.AddScope(s)
		}
	}
	g.AddScope(ScopeOpenID)
	g.AddClaims(StandardClaims...)
	return g
}

// requestedScopes splits a scope parameter. A missing parameter means
// openid.
func requestedScopes(scope string) []string {
	fields := strings.Fields(scope)
	if len(fields) == 0 {
		return []string{ScopeOpenID}
	}
	return fields
}
