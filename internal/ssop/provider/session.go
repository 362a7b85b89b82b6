package provider

import (
	"context"
	"fmt"
	"net/url"

	"github.com/aussiebroadwan/ssop/internal/ssop/domain"
)

// CurrentUser returns the account logged in on sessionID.
func (p *Provider) CurrentUser(ctx context.Context, sessionID string) (domain.User, bool, error) {
	sess, err := p.loadSession(ctx, sessionID)
	if err != nil {
		return domain.User{}, false, err
	}
	if sess == nil || !sess.Authenticated() {
		return domain.User{}, false, nil
	}

	user, ok := p.accounts.FindAccountByID(ctx, sess.AccountID)
	return user, ok, nil
}

// Logout destroys sessionID. Grants and tokens already issued stay valid.
func (p *Provider) Logout(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil
	}
	if err := p.sessions.Destroy(ctx, sessionID); err != nil {
		return fmt.Errorf("destroy session: %w", err)
	}
	return nil
}

// EndSessionRequest carries the RP-initiated logout parameters.
type EndSessionRequest struct {
	IDTokenHint           string
	PostLogoutRedirectURI string
	State                 string
}

// EndSession logs the browser out and returns where to send it. The post
// logout redirect is honoured only when an ID token hint issued by this
// provider names a client that registered the URI; otherwise the browser
// goes to the home page.
func (p *Provider) EndSession(ctx context.Context, sessionID string, req EndSessionRequest) (string, error) {
	if err := p.Logout(ctx, sessionID); err != nil {
		return "", err
	}

	if req.PostLogoutRedirectURI == "" {
		return "/", nil
	}
	if req.IDTokenHint == "" {
		return "", fmt.Errorf("%w: post_logout_redirect_uri requires id_token_hint", ErrInvalidRequest)
	}

	claims, err := p.hints.VerifyHint(req.IDTokenHint)
	if err != nil {
		return "", fmt.Errorf("%w: id_token_hint: %w", ErrInvalidRequest, err)
	}
	if len(claims.Audience) == 0 {
		return "", fmt.Errorf("%w: id_token_hint has no audience", ErrInvalidRequest)
	}

	client, ok := p.clients[claims.Audience[0]]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownClient, claims.Audience[0])
	}
	if !client.HasRedirectURI(req.PostLogoutRedirectURI) {
		return "", ErrInvalidRedirectURI
	}

	return withQuery(req.PostLogoutRedirectURI, url.Values{"state": {req.State}}), nil
}
