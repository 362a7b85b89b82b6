package provider

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/aussiebroadwan/ssop/internal/ssop/domain"
	"github.com/aussiebroadwan/ssop/internal/ssop/service"
	"github.com/aussiebroadwan/ssop/pkg/cryptox"
	"github.com/aussiebroadwan/ssop/pkg/jwtx"
	"github.com/aussiebroadwan/ssop/pkg/slogx"
)

// TokenRequest carries the token endpoint parameters after client
// credentials have been extracted from either the Authorization header or
// the form body.
type TokenRequest struct {
	GrantType    string
	ClientID     string
	ClientSecret string
	Code         string
	RedirectURI  string
	RefreshToken string
	Scope        string
}

// Tokens is a successful token response.
type Tokens struct {
	AccessToken  string
	RefreshToken string
	IDToken      string
	ExpiresIn    time.Duration
	Scope        string
}

// issuance is everything needed to mint a token set.
type issuance struct {
	client    domain.Client
	accountID string
	grantID   string
	scope     string
	nonce     string
	sessionID string
	authTime  int64
	amr       []string
}

// Exchange implements the authorization_code and refresh_token grants.
// Codes are single use and refresh tokens rotate on every use.
func (p *Provider) Exchange(ctx context.Context, req TokenRequest) (Tokens, error) {
	client, err := p.authenticateClient(req.ClientID, req.ClientSecret)
	if err != nil {
		return Tokens{}, err
	}

	switch req.GrantType {
	case "authorization_code":
		return p.exchangeCode(ctx, client, req)
	case "refresh_token":
		return p.exchangeRefresh(ctx, client, req)
	default:
		return Tokens{}, fmt.Errorf("%w: %q", ErrUnsupportedGrantType, req.GrantType)
	}
}

func (p *Provider) exchangeCode(ctx context.Context, client domain.Client, req TokenRequest) (Tokens, error) {
	if req.Code == "" || req.RedirectURI == "" {
		return Tokens{}, fmt.Errorf("%w: code and redirect_uri are required", ErrInvalidRequest)
	}

	id := cryptox.FingerprintToken(req.Code)

	var ac domain.AuthorizationCode
	if err := p.codes.Load(ctx, id, &ac); err != nil {
		if notFound(err) {
			return Tokens{}, ErrInvalidGrant
		}
		return Tokens{}, fmt.Errorf("load authorization code: %w", err)
	}

	if ac.ClientID != client.ClientID || ac.RedirectURI != req.RedirectURI {
		return Tokens{}, ErrInvalidGrant
	}
	if ac.Consumed {
		return Tokens{}, p.codeReplayed(ctx, client, ac)
	}

	ok, err := p.codes.Consume(ctx, id)
	if err != nil {
		return Tokens{}, fmt.Errorf("consume authorization code: %w", err)
	}
	if !ok {
		return Tokens{}, p.codeReplayed(ctx, client, ac)
	}

	// The consumed marker lives until the code would have expired.
	ac.Consumed = true
	if err := p.codes.Save(ctx, id, ac, 0); err != nil {
		return Tokens{}, fmt.Errorf("mark authorization code consumed: %w", err)
	}

	if err := p.requireGrant(ctx, ac.GrantID); err != nil {
		return Tokens{}, err
	}

	return p.issueTokens(ctx, issuance{
		client:    client,
		accountID: ac.AccountID,
		grantID:   ac.GrantID,
		scope:     ac.Scope,
		nonce:     ac.Nonce,
		sessionID: ac.SessionID,
		authTime:  ac.AuthTime,
		amr:       ac.AMR,
	})
}

// codeReplayed revokes everything issued from the grant of a code that was
// presented twice.
func (p *Provider) codeReplayed(ctx context.Context, client domain.Client, ac domain.AuthorizationCode) error {
	slogx.FromContext(ctx).Warn("authorization code replayed",
		"client_id", client.ClientID,
		"grant_id", ac.GrantID,
	)
	if _, err := p.RevokeGrant(ctx, ac.GrantID); err != nil {
		return fmt.Errorf("revoke replayed grant: %w", err)
	}
	return ErrInvalidGrant
}

func (p *Provider) exchangeRefresh(ctx context.Context, client domain.Client, req TokenRequest) (Tokens, error) {
	if req.RefreshToken == "" {
		return Tokens{}, fmt.Errorf("%w: refresh_token is required", ErrInvalidRequest)
	}

	id := cryptox.FingerprintToken(req.RefreshToken)

	var rt domain.RefreshToken
	if err := p.refreshTokens.Load(ctx, id, &rt); err != nil {
		if notFound(err) {
			return Tokens{}, ErrInvalidGrant
		}
		return Tokens{}, fmt.Errorf("load refresh token: %w", err)
	}
	if rt.ClientID != client.ClientID {
		return Tokens{}, ErrInvalidGrant
	}

	scope := rt.Scope
	if requested := strings.Fields(req.Scope); len(requested) > 0 {
		granted := strings.Fields(rt.Scope)
		for _, s := range requested {
			if !slices.Contains(granted, s) {
				return Tokens{}, ErrInvalidScope
			}
		}
		scope = strings.Join(requested, " ")
	}

	ok, err := p.refreshTokens.Consume(ctx, id)
	if err != nil {
		return Tokens{}, fmt.Errorf("consume refresh token: %w", err)
	}
	if !ok {
		return Tokens{}, ErrInvalidGrant
	}

	if err := p.requireGrant(ctx, rt.GrantID); err != nil {
		return Tokens{}, err
	}

	return p.issueTokens(ctx, issuance{
		client:    client,
		accountID: rt.AccountID,
		grantID:   rt.GrantID,
		scope:     scope,
		sessionID: rt.SessionID,
		authTime:  rt.AuthTime,
		amr:       rt.AMR,
	})
}

func (p *Provider) requireGrant(ctx context.Context, grantID string) error {
	var g domain.Grant
	if err := p.grants.Load(ctx, grantID, &g); err != nil {
		if notFound(err) {
			return ErrInvalidGrant
		}
		return fmt.Errorf("load grant: %w", err)
	}
	return nil
}

func (p *Provider) issueTokens(ctx context.Context, in issuance) (Tokens, error) {
	user, ok := p.accounts.FindAccountByID(ctx, in.accountID)
	if !ok {
		return Tokens{}, ErrInvalidGrant
	}

	access, err := cryptox.GenerateToken(cryptox.TokenSize256)
	if err != nil {
		return Tokens{}, err
	}
	refresh, err := cryptox.GenerateToken(cryptox.TokenSize256)
	if err != nil {
		return Tokens{}, err
	}

	at := domain.AccessToken{
		AccountID: in.accountID,
		ClientID:  in.client.ClientID,
		GrantID:   in.grantID,
		Scope:     in.scope,
	}
	if err := p.accessTokens.Save(ctx, cryptox.FingerprintToken(access), at, domain.AccessTokenTTL); err != nil {
		return Tokens{}, fmt.Errorf("save access token: %w", err)
	}
	p.issued(KindAccessToken)

	rt := domain.RefreshToken{
		AccountID: in.accountID,
		ClientID:  in.client.ClientID,
		GrantID:   in.grantID,
		Scope:     in.scope,
		SessionID: in.sessionID,
		AuthTime:  in.authTime,
		AMR:       in.amr,
	}
	if err := p.refreshTokens.Save(ctx, cryptox.FingerprintToken(refresh), rt, domain.RefreshTokenTTL); err != nil {
		return Tokens{}, fmt.Errorf("save refresh token: %w", err)
	}
	p.issued(KindRefreshToken)

	out := Tokens{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresIn:    domain.AccessTokenTTL,
		Scope:        in.scope,
	}

	scopes := strings.Fields(in.scope)
	if slices.Contains(scopes, service.ScopeOpenID) {
		idToken, err := p.signIDToken(user, scopes, in)
		if err != nil {
			return Tokens{}, err
		}
		out.IDToken = idToken
		p.issued(KindIDToken)
	}

	return out, nil
}

func (p *Provider) signIDToken(user domain.User, scopes []string, in issuance) (string, error) {
	claims := jwtx.NewIDClaims(p.issuer, user.Username, in.client.ClientID, domain.IDTokenTTL, p.now())
	claims.Nonce = in.nonce
	claims.AuthTime = in.authTime
	claims.SID = in.sessionID
	claims.AMR = in.amr

	set := service.ProjectClaims(user, scopes)
	claims.PreferredUsername = set.PreferredUsername
	claims.Name = set.Name
	claims.Picture = set.Picture
	claims.Email = set.Email
	if set.EmailVerified {
		verified := true
		claims.EmailVerified = &verified
	}
	claims.Roles = set.Roles

	token, err := p.signer.Sign(claims)
	if err != nil {
		return "", fmt.Errorf("sign id token: %w", err)
	}
	return token, nil
}
