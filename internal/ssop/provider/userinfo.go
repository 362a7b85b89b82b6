package provider

import (
	"context"
	"fmt"
	"strings"

	"github.com/aussiebroadwan/ssop/internal/ssop/domain"
	"github.com/aussiebroadwan/ssop/internal/ssop/service"
	"github.com/aussiebroadwan/ssop/internal/ssop/store"
	"github.com/aussiebroadwan/ssop/pkg/cryptox"
	"github.com/aussiebroadwan/ssop/pkg/slogx"
)

// UserInfo returns the claims an access token's scope releases.
func (p *Provider) UserInfo(ctx context.Context, accessToken string) (service.ClaimSet, error) {
	if accessToken == "" {
		return service.ClaimSet{}, ErrInvalidToken
	}

	var at domain.AccessToken
	if err := p.accessTokens.Load(ctx, cryptox.FingerprintToken(accessToken), &at); err != nil {
		if notFound(err) {
			return service.ClaimSet{}, ErrInvalidToken
		}
		return service.ClaimSet{}, fmt.Errorf("load access token: %w", err)
	}

	if err := p.requireGrant(ctx, at.GrantID); err != nil {
		return service.ClaimSet{}, ErrInvalidToken
	}

	user, ok := p.accounts.FindAccountByID(ctx, at.AccountID)
	if !ok {
		return service.ClaimSet{}, ErrInvalidToken
	}
	return service.ProjectClaims(user, strings.Fields(at.Scope)), nil
}

// Revoke implements token revocation for a client. Revoking an access token
// removes only that token; revoking a refresh token removes the whole grant
// with every code and token derived from it. Unknown tokens and tokens of
// other clients are ignored.
func (p *Provider) Revoke(ctx context.Context, clientID, clientSecret, token string) error {
	client, err := p.authenticateClient(clientID, clientSecret)
	if err != nil {
		return err
	}
	if token == "" {
		return fmt.Errorf("%w: token is required", ErrInvalidRequest)
	}

	id := cryptox.FingerprintToken(token)

	var at domain.AccessToken
	switch err := p.accessTokens.Load(ctx, id, &at); {
	case err == nil:
		if at.ClientID == client.ClientID {
			return p.accessTokens.Destroy(ctx, id)
		}
		return nil
	case !notFound(err):
		return fmt.Errorf("load access token: %w", err)
	}

	var rt domain.RefreshToken
	switch err := p.refreshTokens.Load(ctx, id, &rt); {
	case err == nil:
		if rt.ClientID == client.ClientID {
			_, err := p.RevokeGrant(ctx, rt.GrantID)
			return err
		}
		return nil
	case !notFound(err):
		return fmt.Errorf("load refresh token: %w", err)
	}

	return nil
}

// RevokeGrant deletes a grant and every code and token carrying its id.
func (p *Provider) RevokeGrant(ctx context.Context, grantID string) (int, error) {
	var total int
	for _, b := range []store.Bucket{p.codes, p.accessTokens, p.refreshTokens, p.grants} {
		n, err := b.RevokeByGrantID(ctx, grantID)
		if err != nil {
			return total, fmt.Errorf("revoke %s: %w", b.Namespace(), err)
		}
		total += n
	}

	slogx.FromContext(ctx).Info("grant revoked", "grant_id", grantID, "removed", total)
	return total, nil
}
