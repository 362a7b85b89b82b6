package provider

import (
	"context"
	"fmt"
	"net/url"
	"slices"
	"strings"

	"github.com/aussiebroadwan/ssop/internal/ssop/domain"
	"github.com/aussiebroadwan/ssop/internal/ssop/service"
	"github.com/aussiebroadwan/ssop/pkg/cryptox"
	"github.com/aussiebroadwan/ssop/pkg/idx"
	"github.com/aussiebroadwan/ssop/pkg/slogx"
)

// AuthorizationRequest carries the authorization endpoint parameters.
type AuthorizationRequest struct {
	ClientID     string
	RedirectURI  string
	ResponseType string
	Scope        string
	State        string
	Nonce        string

	// Prompt is the OpenID Connect prompt parameter. "login" forces a new
	// login and "none" fails instead of showing any page.
	Prompt string
}

// Result tells the HTTP layer where to send the browser and which cookies it
// should hold afterwards. SessionID is empty when the session cookie does not
// change.
type Result struct {
	RedirectTo string
	SessionID  string

	// Interaction and Binding are set when RedirectTo opens a new
	// interaction. The browser must present Binding on every step of it.
	Interaction string
	Binding     string
}

// Authorize starts or continues an authorization request. Errors are only
// returned for requests that cannot be redirected back to the client;
// protocol errors are encoded in the redirect.
func (p *Provider) Authorize(ctx context.Context, req AuthorizationRequest, sessionID string) (Result, error) {
	client, ok := p.clients[req.ClientID]
	if !ok {
		return Result{}, fmt.Errorf("%w: %q", ErrUnknownClient, req.ClientID)
	}
	if req.RedirectURI == "" || !client.HasRedirectURI(req.RedirectURI) {
		return Result{}, ErrInvalidRedirectURI
	}

	params := domain.AuthorizationParams{
		ClientID:     req.ClientID,
		RedirectURI:  req.RedirectURI,
		ResponseType: req.ResponseType,
		Scope:        req.Scope,
		State:        req.State,
		Nonce:        req.Nonce,
	}

	if req.ResponseType != "code" {
		return Result{RedirectTo: errorRedirect(params, "unsupported_response_type", "only response_type=code is supported")}, nil
	}

	sess, err := p.loadSession(ctx, sessionID)
	if err != nil {
		return Result{}, err
	}

	if req.Prompt == "login" {
		sess = nil
	}

	return p.decide(ctx, client, params, sess, req.Prompt == "none")
}

// decide either issues a code or starts the interaction the request still
// needs.
func (p *Provider) decide(ctx context.Context, client domain.Client, params domain.AuthorizationParams, sess *domain.Session, noPrompt bool) (Result, error) {
	if sess == nil || !sess.Authenticated() {
		if noPrompt {
			return Result{RedirectTo: errorRedirect(params, "login_required", "end-user is not logged in")}, nil
		}
		return p.startInteraction(ctx, params, sess, domain.PromptLogin, "no_session")
	}

	requested := service.FilterScopes(strings.Fields(params.Scope))

	grant, err := p.grantFor(ctx, sess, client.ClientID)
	if err != nil {
		return Result{}, err
	}

	if grant == nil || !grant.Covers(requested) {
		if !client.IsInternal() {
			if noPrompt {
				return Result{RedirectTo: errorRedirect(params, "consent_required", "end-user consent is required")}, nil
			}
			return p.startInteraction(ctx, params, sess, domain.PromptConsent, "op_scopes_missing")
		}

		g := service.DefaultGrant(sess.AccountID, client.ClientID, params.Scope)
		if _, err := p.SaveGrant(ctx, g); err != nil {
			return Result{}, err
		}
		sess.SetGrantID(client.ClientID, g.JTI)
		if err := p.saveSession(ctx, sess); err != nil {
			return Result{}, err
		}
		grant = &g
	}

	scope := intersect(requested, grant.Scopes)
	to, err := p.issueCode(ctx, params, sess, grant.JTI, scope)
	if err != nil {
		return Result{}, err
	}
	return Result{RedirectTo: to}, nil
}

// grantFor loads the session's grant for clientID. A grant that expired,
// was revoked or belongs to another account counts as missing.
func (p *Provider) grantFor(ctx context.Context, sess *domain.Session, clientID string) (*domain.Grant, error) {
	id := sess.GrantIDFor(clientID)
	if id == "" {
		return nil, nil
	}

	var g domain.Grant
	if err := p.grants.Load(ctx, id, &g); err != nil {
		if notFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("load grant: %w", err)
	}
	if g.AccountID != sess.AccountID || g.ClientID != clientID {
		return nil, nil
	}
	return &g, nil
}

func (p *Provider) startInteraction(ctx context.Context, params domain.AuthorizationParams, sess *domain.Session, prompt domain.Prompt, reason string) (Result, error) {
	binding, err := cryptox.GenerateToken(cryptox.TokenSize128)
	if err != nil {
		return Result{}, err
	}

	uid := idx.New().String()
	in := domain.Interaction{
		JTI:      uid,
		UID:      uid,
		Prompt:   prompt,
		Reasons:  []string{reason},
		Params:   params,
		ReturnTo: "/auth/" + uid,
		Binding:  cryptox.FingerprintToken(binding),
	}
	if sess != nil {
		in.SessionID = sess.JTI
		in.AccountID = sess.AccountID
		in.GrantID = sess.GrantIDFor(params.ClientID)
	}

	if err := p.interactions.Save(ctx, uid, in, domain.InteractionTTL); err != nil {
		return Result{}, fmt.Errorf("save interaction: %w", err)
	}

	slogx.FromContext(ctx).Debug("interaction started",
		"uid", uid,
		"prompt", prompt,
		"client_id", params.ClientID,
	)
	return Result{
		RedirectTo:  "/interaction/" + uid,
		Interaction: uid,
		Binding:     binding,
	}, nil
}

func (p *Provider) issueCode(ctx context.Context, params domain.AuthorizationParams, sess *domain.Session, grantID string, scope []string) (string, error) {
	code, err := cryptox.GenerateToken(cryptox.TokenSize256)
	if err != nil {
		return "", err
	}

	ac := domain.AuthorizationCode{
		AccountID:   sess.AccountID,
		ClientID:    params.ClientID,
		GrantID:     grantID,
		Scope:       strings.Join(scope, " "),
		RedirectURI: params.RedirectURI,
		Nonce:       params.Nonce,
		SessionID:   sess.JTI,
		AuthTime:    sess.LoginTs,
		AMR:         sess.AMR,
	}
	if err := p.codes.Save(ctx, cryptox.FingerprintToken(code), ac, domain.AuthorizationCodeTTL); err != nil {
		return "", fmt.Errorf("save authorization code: %w", err)
	}
	p.issued(KindAuthorizationCode)

	return withQuery(params.RedirectURI, url.Values{
		"code":  {code},
		"state": {params.State},
	}), nil
}

// Resume continues an authorization request after an interaction step
// finished. binding is the value the browser was handed when the interaction
// started and sessionID is the session cookie it presents now. An unfinished
// interaction sends the browser back to its page.
func (p *Provider) Resume(ctx context.Context, uid, binding, sessionID string) (Result, error) {
	in, err := p.BoundInteraction(ctx, uid, binding)
	if err != nil {
		return Result{}, err
	}
	if !in.Finished() {
		return Result{RedirectTo: "/interaction/" + uid}, nil
	}

	client, found := p.clients[in.Params.ClientID]
	if !found {
		return Result{}, fmt.Errorf("%w: %q", ErrUnknownClient, in.Params.ClientID)
	}

	sess, err := p.loadSession(ctx, sessionID)
	if err != nil {
		return Result{}, err
	}
	if sess != nil && in.SessionID != "" && sess.JTI != in.SessionID {
		// The browser changed sessions after the interaction started.
		sess = nil
	}
	if in.Result.Login == nil && sess == nil {
		return Result{}, ErrSessionNotFound
	}

	ok, err := p.interactions.Consume(ctx, in.JTI)
	if err != nil {
		return Result{}, fmt.Errorf("consume interaction: %w", err)
	}
	if !ok {
		return Result{}, service.ErrInteractionNotFound
	}

	switch {
	case in.Result.Login != nil:
		login := in.Result.Login
		if sess == nil || sess.AccountID != login.AccountID {
			sess = &domain.Session{JTI: idx.New().String()}
		}
		sess.AccountID = login.AccountID
		sess.LoginTs = p.now().Unix()
		sess.AMR = login.AMR

	case in.Result.Consent != nil:
		sess.SetGrantID(client.ClientID, in.Result.Consent.GrantID)
	}

	if err := p.saveSession(ctx, sess); err != nil {
		return Result{}, err
	}

	res, err := p.decide(ctx, client, in.Params, sess, false)
	if err != nil {
		return Result{}, err
	}
	res.SessionID = sess.JTI
	return res, nil
}

func (p *Provider) loadSession(ctx context.Context, sessionID string) (*domain.Session, error) {
	if sessionID == "" {
		return nil, nil
	}
	var s domain.Session
	if err := p.sessions.Load(ctx, sessionID, &s); err != nil {
		if notFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("load session: %w", err)
	}
	return &s, nil
}

func (p *Provider) saveSession(ctx context.Context, s *domain.Session) error {
	if err := p.sessions.Save(ctx, s.JTI, s, domain.SessionTTL); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

func errorRedirect(params domain.AuthorizationParams, code, desc string) string {
	return withQuery(params.RedirectURI, url.Values{
		"error":             {code},
		"error_description": {desc},
		"state":             {params.State},
	})
}

// withQuery adds the non-empty values to uri's query string.
func withQuery(uri string, values url.Values) string {
	u, err := url.Parse(uri)
	if err != nil {
		return uri
	}
	q := u.Query()
	for k, vs := range values {
		if len(vs) > 0 && vs[0] != "" {
			q.Set(k, vs[0])
		}
	}
	u.RawQuery = q.Encode()
	return u.String()
}

func intersect(requested, granted []string) []string {
	out := make([]string, 0, len(requested))
	for _, s := range requested {
		if slices.Contains(granted, s) {
			out = append(out, s)
		}
	}
	return out
}
