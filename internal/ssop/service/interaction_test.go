package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/aussiebroadwan/ssop/internal/ssop/domain"
)

type fakeEngine struct {
	interactions map[string]domain.Interaction
	grants       []domain.Grant
	logins       map[string]domain.LoginResult
	consents     map[string]string
	saveErr      error
}

func newFakeEngine(in ...domain.Interaction) *fakeEngine {
	e := &fakeEngine{
		interactions: make(map[string]domain.Interaction),
		logins:       make(map[string]domain.LoginResult),
		consents:     make(map[string]string),
	}
	for _, i := range in {
		e.interactions[i.UID] = i
	}
	return e
}

func (e *fakeEngine) InteractionDetails(_ context.Context, uid string) (domain.Interaction, error) {
	in, ok := e.interactions[uid]
	if !ok {
		return domain.Interaction{}, ErrInteractionNotFound
	}
	return in, nil
}

func (e *fakeEngine) FinishLogin(_ context.Context, uid string, result domain.LoginResult) (string, error) {
	e.logins[uid] = result
	return "/auth/" + uid, nil
}

func (e *fakeEngine) FinishConsent(_ context.Context, uid, grantID string) (string, error) {
	e.consents[uid] = grantID
	return "/auth/" + uid, nil
}

func (e *fakeEngine) SaveGrant(_ context.Context, grant domain.Grant) (string, error) {
	if e.saveErr != nil {
		return "", e.saveErr
	}
	e.grants = append(e.grants, grant)
	return grant.JTI, nil
}

func loginInteraction(uid string) domain.Interaction {
	return domain.Interaction{
		JTI:    uid,
		UID:    uid,
		Prompt: domain.PromptLogin,
		Params: domain.AuthorizationParams{ClientID: "app", Scope: "openid"},
	}
}

func consentInteraction(uid, scope string) domain.Interaction {
	return domain.Interaction{
		JTI:       uid,
		UID:       uid,
		Prompt:    domain.PromptConsent,
		AccountID: "alice",
		Params:    domain.AuthorizationParams{ClientID: "app", Scope: scope},
	}
}

func newTestController(t *testing.T, engine *fakeEngine) *InteractionController {
	t.Helper()
	return &InteractionController{
		Engine:      engine,
		Credentials: newTestCredentials(t),
	}
}

func TestShow(t *testing.T) {
	t.Parallel()

	engine := newFakeEngine(
		loginInteraction("login-1"),
		consentInteraction("consent-1", "openid email"),
		domain.Interaction{UID: "weird-1", Prompt: "select_account"},
	)
	c := newTestController(t, engine)
	ctx := context.Background()

	t.Run("login", func(t *testing.T) {
		v, err := c.Show(ctx, "login-1", true)
		require.NoError(t, err)
		require.Equal(t, StateAwaitingLogin, v.State)
		require.True(t, v.Error)
		require.Equal(t, "/interaction/login-1/login", v.Action())
	})

	t.Run("consent", func(t *testing.T) {
		v, err := c.Show(ctx, "consent-1", false)
		require.NoError(t, err)
		require.Equal(t, StateAwaitingConsent, v.State)
		require.Equal(t, "app", v.ClientID)
		require.Equal(t, []string{"openid", "email"}, v.Scopes)
		require.Equal(t, "/interaction/consent-1/consent", v.Action())
	})

	t.Run("unsupported prompt", func(t *testing.T) {
		_, err := c.Show(ctx, "weird-1", false)
		require.ErrorIs(t, err, ErrUnsupportedPrompt)
	})

	t.Run("unknown uid", func(t *testing.T) {
		_, err := c.Show(ctx, "missing", false)
		require.ErrorIs(t, err, ErrInteractionNotFound)
	})
}

func TestSubmitLogin(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	valid := codeAt(t, testNow)

	tests := []struct {
		name      string
		form      LoginForm
		wantState State
		wantError bool
		keepCreds bool
		wantAMR   []string
	}{
		{
			name:      "password only account",
			form:      LoginForm{Username: "alice", Password: testPassword},
			wantState: StateFinishedLogin,
			wantAMR:   []string{"pwd"},
		},
		{
			name:      "wrong password",
			form:      LoginForm{Username: "alice", Password: "nope"},
			wantState: StateAwaitingLogin,
			wantError: true,
		},
		{
			name:      "unknown user",
			form:      LoginForm{Username: "mallory", Password: testPassword},
			wantState: StateAwaitingLogin,
			wantError: true,
		},
		{
			name:      "second factor requested",
			form:      LoginForm{Username: "bob", Password: testPassword},
			wantState: StateAwaitingSecondFactor,
			keepCreds: true,
		},
		{
			name:      "wrong second factor",
			form:      LoginForm{Username: "bob", Password: testPassword, TOTPCode: wrongCode(valid)},
			wantState: StateAwaitingSecondFactor,
			wantError: true,
			keepCreds: true,
		},
		{
			name:      "wrong password with a code stays on second factor page",
			form:      LoginForm{Username: "bob", Password: "nope", TOTPCode: valid},
			wantState: StateAwaitingSecondFactor,
			wantError: true,
			keepCreds: true,
		},
		{
			name:      "valid second factor",
			form:      LoginForm{Username: "bob", Password: testPassword, TOTPCode: valid},
			wantState: StateFinishedLogin,
			wantAMR:   []string{"pwd", "otp", "mfa"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine := newFakeEngine(loginInteraction("uid-1"))
			c := newTestController(t, engine)

			v, err := c.SubmitLogin(ctx, "uid-1", tt.form)
			require.NoError(t, err)
			require.Equal(t, tt.wantState, v.State)
			require.Equal(t, tt.wantError, v.Error)

			if tt.keepCreds {
				require.Equal(t, tt.form.Username, v.Username)
				require.Equal(t, tt.form.Password, v.Password)
			} else {
				require.Empty(t, v.Password)
			}

			if tt.wantState == StateFinishedLogin {
				require.Equal(t, "/auth/uid-1", v.RedirectTo)
				require.Equal(t, tt.form.Username, engine.logins["uid-1"].AccountID)
				require.Equal(t, tt.wantAMR, engine.logins["uid-1"].AMR)
			} else {
				require.Empty(t, engine.logins)
			}
		})
	}
}

func TestSubmitLogin_Faults(t *testing.T) {
	t.Parallel()
	engine := newFakeEngine(consentInteraction("consent-1", "openid"))
	c := newTestController(t, engine)
	ctx := context.Background()

	_, err := c.SubmitLogin(ctx, "missing", LoginForm{Username: "alice", Password: testPassword})
	require.ErrorIs(t, err, ErrInteractionNotFound)

	_, err = c.SubmitLogin(ctx, "consent-1", LoginForm{Username: "alice", Password: testPassword})
	require.ErrorIs(t, err, ErrPromptMismatch)
	require.Empty(t, engine.logins)
}

func TestSubmitConsent(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	tests := []struct {
		name       string
		scope      string
		wantScopes []string
	}{
		{"drops unknown scopes", "openid profile madeupscope", []string{"openid", "profile"}},
		{"missing scope means openid", "", []string{"openid"}},
		{"all supported scopes", "openid profile email roles", []string{"openid", "profile", "email", "roles"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine := newFakeEngine(consentInteraction("uid-1", tt.scope))
			var decisions []bool
			c := newTestController(t, engine)
			c.OnConsent = func(ok bool) { decisions = append(decisions, ok) }

			v, err := c.SubmitConsent(ctx, "uid-1", ConsentAccept)
			require.NoError(t, err)
			require.Equal(t, StateFinishedConsent, v.State)
			require.Equal(t, "/auth/uid-1", v.RedirectTo)

			require.Len(t, engine.grants, 1)
			g := engine.grants[0]
			require.Equal(t, tt.wantScopes, g.Scopes)
			require.Equal(t, "alice", g.AccountID)
			require.Equal(t, "app", g.ClientID)
			require.Equal(t, g.JTI, engine.consents["uid-1"])
			require.Equal(t, []bool{true}, decisions)
		})
	}
}

func TestSubmitConsent_Denied(t *testing.T) {
	t.Parallel()

	for _, decision := range []string{"deny", "", "ACCEPT"} {
		engine := newFakeEngine(consentInteraction("uid-1", "openid"))
		c := newTestController(t, engine)

		v, err := c.SubmitConsent(context.Background(), "uid-1", decision)
		require.ErrorIs(t, err, ErrConsentDenied)
		require.Equal(t, StateDenied, v.State)
		require.Empty(t, engine.grants)
		require.Empty(t, engine.consents)
	}
}

func TestSubmitConsent_Faults(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	engine := newFakeEngine(loginInteraction("login-1"), consentInteraction("consent-1", "openid"))
	c := newTestController(t, engine)

	_, err := c.SubmitConsent(ctx, "missing", ConsentAccept)
	require.ErrorIs(t, err, ErrInteractionNotFound)

	_, err = c.SubmitConsent(ctx, "login-1", ConsentAccept)
	require.ErrorIs(t, err, ErrPromptMismatch)

	boom := errors.New("boom")
	engine.saveErr = boom
	_, err = c.SubmitConsent(ctx, "consent-1", ConsentAccept)
	require.ErrorIs(t, err, boom)
	require.Empty(t, engine.consents)
}

func TestDefaultGrant(t *testing.T) {
	t.Parallel()

	g := DefaultGrant("alice", domain.InternalClientID, "profile email openid roles")
	require.Equal(t, []string{"profile", "email", "roles", "openid"}, g.Scopes)
	require.Equal(t, StandardClaims, g.Claims)
	require.NotEmpty(t, g.JTI)
	require.Equal(t, g.JTI, g.GrantID)

	g = DefaultGrant("alice", domain.InternalClientID, "")
	require.Equal(t, []string{"openid"}, g.Scopes)
}
