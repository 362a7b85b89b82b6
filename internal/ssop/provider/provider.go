// Package provider is the authorization-code engine behind the interaction
// controller. It owns sessions, interactions, grants, codes and tokens and
// keeps all of them in the artifact store.
package provider

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/aussiebroadwan/ssop/internal/ssop/domain"
	"github.com/aussiebroadwan/ssop/internal/ssop/service"
	"github.com/aussiebroadwan/ssop/internal/ssop/store"
	"github.com/aussiebroadwan/ssop/pkg/authsdk"
	"github.com/aussiebroadwan/ssop/pkg/cryptox"
	"github.com/aussiebroadwan/ssop/pkg/jwtx"
)

// Kinds reported to the issue observer.
const (
	KindAuthorizationCode = "authorization_code"
	KindAccessToken       = "access_token"
	KindRefreshToken      = "refresh_token"
	KindIDToken           = "id_token"
)

// AccountFinder resolves account ids to users.
type AccountFinder interface {
	FindAccountByID(ctx context.Context, id string) (domain.User, bool)
}

// Config holds the engine settings.
type Config struct {
	// Issuer is the external base URL without a trailing slash.
	Issuer string

	// InternalClientSecret authenticates the first-party client.
	InternalClientSecret string
}

// Provider implements service.InteractionEngine and the OAuth 2.0 and
// OpenID Connect endpoints around it.
type Provider struct {
	issuer   string
	clients  map[string]domain.Client
	accounts AccountFinder
	signer   jwtx.Signer
	keys     *jwtx.KeySet
	hints    *jwtx.EdDSAVerifier
	now      func() time.Time
	onIssue  func(kind string)

	sessions      store.Bucket
	grants        store.Bucket
	interactions  store.Bucket
	codes         store.Bucket
	accessTokens  store.Bucket
	refreshTokens store.Bucket
	st            store.Store
}

var _ service.InteractionEngine = (*Provider)(nil)

// Option configures a Provider.
type Option func(*Provider)

// WithClock overrides the time source used for session timestamps and ID
// tokens.
func WithClock(now func() time.Time) Option {
	return func(p *Provider) { p.now = now }
}

// WithIssueObserver is told the kind of every code or token issued.
func WithIssueObserver(fn func(kind string)) Option {
	return func(p *Provider) { p.onIssue = fn }
}

// New builds a Provider. clients are the registered relying parties; the
// first-party client is added from cfg.
func New(cfg Config, st store.Store, clients []domain.Client, accounts AccountFinder, signer jwtx.Signer, opts ...Option) (*Provider, error) {
	issuer := strings.TrimSuffix(cfg.Issuer, "/")
	if issuer == "" {
		return nil, errors.New("provider: issuer is required")
	}
	if cfg.InternalClientSecret == "" {
		return nil, errors.New("provider: internal client secret is required")
	}
	if signer == nil {
		return nil, errors.New("provider: signer is required")
	}

	keys := jwtx.NewKeySet()
	if err := keys.AddSigner(signer); err != nil {
		return nil, fmt.Errorf("provider: add signing key: %w", err)
	}

	p := &Provider{
		issuer:        issuer,
		clients:       make(map[string]domain.Client, len(clients)+1),
		accounts:      accounts,
		signer:        signer,
		keys:          keys,
		hints:         jwtx.NewVerifierEdDSA(keys, issuer, nil),
		now:           time.Now,
		st:            st,
		sessions:      store.NewBucket(st, store.NamespaceSession),
		grants:        store.NewBucket(st, store.NamespaceGrant),
		interactions:  store.NewBucket(st, store.NamespaceInteraction),
		codes:         store.NewBucket(st, store.NamespaceAuthorizationCode),
		accessTokens:  store.NewBucket(st, store.NamespaceAccessToken),
		refreshTokens: store.NewBucket(st, store.NamespaceRefreshToken),
	}
	for _, opt := range opts {
		opt(p)
	}

	for _, c := range clients {
		p.clients[c.ClientID] = c
	}
	p.clients[domain.InternalClientID] = domain.Client{
		ClientID:     domain.InternalClientID,
		ClientSecret: cfg.InternalClientSecret,
		RedirectURIs: p.InternalRedirectURIs(),
	}

	return p, nil
}

// Issuer returns the issuer identifier.
func (p *Provider) Issuer() string { return p.issuer }

// InternalRedirectURIs are the redirect URIs of the first-party client.
func (p *Provider) InternalRedirectURIs() []string {
	return []string{p.issuer + "/", p.issuer + "/dashboard"}
}

// Client returns a registered client, including the first-party one.
func (p *Provider) Client(clientID string) (domain.Client, bool) {
	c, ok := p.clients[clientID]
	return c, ok
}

// ClientIDs returns every client id in sorted order.
func (p *Provider) ClientIDs() []string {
	return slices.Sorted(maps.Keys(p.clients))
}

// JWKS returns the public signing keys.
func (p *Provider) JWKS() jwtx.JWKS {
	return p.keys.PublicJWKS()
}

// Discovery returns the OpenID Provider metadata document.
func (p *Provider) Discovery() authsdk.DiscoveryDocument {
	return authsdk.DiscoveryDocument{
		Issuer:                            p.issuer,
		AuthorizationEndpoint:             p.issuer + "/auth",
		TokenEndpoint:                     p.issuer + "/token",
		UserinfoEndpoint:                  p.issuer + "/me",
		JWKSURI:                           p.issuer + "/jwks",
		RevocationEndpoint:                p.issuer + "/token/revocation",
		EndSessionEndpoint:                p.issuer + "/session/end",
		ResponseTypesSupported:            []string{"code"},
		ResponseModesSupported:            []string{"query"},
		GrantTypesSupported:               []string{"authorization_code", "refresh_token"},
		SubjectTypesSupported:             []string{"public"},
		IDTokenSigningAlgValuesSupported:  []string{p.signer.Alg()},
		TokenEndpointAuthMethodsSupported: []string{"client_secret_basic", "client_secret_post"},
		ScopesSupported:                   slices.Clone(service.SupportedScopes),
		ClaimsSupported:                   slices.Clone(service.StandardClaims),
	}
}

// Reset clears every artifact. It runs once at startup.
func (p *Provider) Reset(ctx context.Context) error {
	return p.st.Reset(ctx)
}

func (p *Provider) issued(kind string) {
	if p.onIssue != nil {
		p.onIssue(kind)
	}
}

func (p *Provider) authenticateClient(clientID, clientSecret string) (domain.Client, error) {
	c, ok := p.clients[clientID]
	if !ok || clientSecret == "" || !cryptox.EqualSecret(c.ClientSecret, clientSecret) {
		return domain.Client{}, ErrInvalidClient
	}
	return c, nil
}

func notFound(err error) bool {
	return errors.Is(err, store.ErrNotFound)
}
