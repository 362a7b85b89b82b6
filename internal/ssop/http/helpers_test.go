package http_test

import (
	"context"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/aussiebroadwan/ssop/internal/ssop/domain"
	ssophttp "github.com/aussiebroadwan/ssop/internal/ssop/http"
	"github.com/aussiebroadwan/ssop/internal/ssop/metrics"
	"github.com/aussiebroadwan/ssop/internal/ssop/provider"
	"github.com/aussiebroadwan/ssop/internal/ssop/registry"
	"github.com/aussiebroadwan/ssop/internal/ssop/service"
	"github.com/aussiebroadwan/ssop/internal/ssop/store/drivers/memory"
	"github.com/aussiebroadwan/ssop/pkg/cryptox"
	"github.com/aussiebroadwan/ssop/pkg/jwtx"
	"github.com/aussiebroadwan/ssop/pkg/slogx"
)

const (
	rpHost         = "rp.example"
	rpRedirect     = "http://" + rpHost + "/cb"
	rpClientID     = "app"
	rpClientSecret = "app-secret"
	internalSecret = "internal-secret"

	totpSecret = "JBSWY3DPEHPK3PXP"
)

type testServer struct {
	*httptest.Server
	issuer  string
	metrics *metrics.Metrics
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	alice, err := bcrypt.GenerateFromPassword([]byte("wonderland"), bcrypt.MinCost)
	require.NoError(t, err)
	bob, err := cryptox.HashPassword("builder123")
	require.NoError(t, err)

	reg, err := registry.New(
		[]domain.User{
			{
				Username:     "alice",
				PasswordHash: string(alice),
				Email:        "alice@example.com",
				Roles:        []string{"admin", "user"},
			},
			{
				Username:     "bob",
				PasswordHash: bob,
				Email:        "bob@example.com",
				Roles:        []string{"user"},
				TOTPSecret:   totpSecret,
				TOTPEnabled:  true,
			},
		},
		[]domain.Client{{ClientID: rpClientID, ClientSecret: rpClientSecret, RedirectURIs: []string{rpRedirect}}},
	)
	require.NoError(t, err)

	key, err := cryptox.GenerateEd25519Key()
	require.NoError(t, err)
	signer, err := jwtx.NewSignerEdDSA("test-key", key)
	require.NoError(t, err)

	srv := httptest.NewUnstartedServer(nil)
	issuer := "http://" + srv.Listener.Addr().String()

	m := metrics.New(false)
	st := memory.New()
	creds := service.NewCredentialService(reg)
	creds.Observe = func(o service.Outcome) { m.Authentication(o.String()) }

	p, err := provider.New(
		provider.Config{Issuer: issuer, InternalClientSecret: internalSecret},
		st, reg.Clients(), creds, signer,
		provider.WithIssueObserver(m.TokenIssued),
	)
	require.NoError(t, err)

	ctrl := &service.InteractionController{Engine: p, Credentials: creds, OnConsent: m.Consent}

	router, err := ssophttp.NewRouter(p, ctrl, st, "test", false, slogx.Discard())
	require.NoError(t, err)
	router.Metrics = m
	router.ApplyRoutes()

	srv.Config.Handler = router
	srv.Start()
	t.Cleanup(srv.Close)

	return &testServer{Server: srv, issuer: issuer, metrics: m}
}

// browser follows redirects and keeps cookies, but stops at the relying
// party's callback.
func (s *testServer) browser(t *testing.T) *http.Client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &http.Client{
		Jar: jar,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if req.URL.Host == rpHost {
				return http.ErrUseLastResponse
			}
			return nil
		},
	}
}

// noFollow returns a client that reports every redirect instead of
// following it.
func noFollow() *http.Client {
	return &http.Client{
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

func get(t *testing.T, c *http.Client, rawURL string) (*http.Response, string) {
	t.Helper()
	req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, rawURL, nil)
	require.NoError(t, err)
	return do(t, c, req)
}

func postForm(t *testing.T, c *http.Client, rawURL string, form url.Values) (*http.Response, string) {
	t.Helper()
	req, err := http.NewRequestWithContext(context.Background(), http.MethodPost, rawURL, strings.NewReader(form.Encode()))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return do(t, c, req)
}

func do(t *testing.T, c *http.Client, req *http.Request) (*http.Response, string) {
	t.Helper()
	resp, err := c.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, string(body)
}

// interactionPath returns the /interaction/{uid} path the browser landed on.
func interactionPath(t *testing.T, resp *http.Response) string {
	t.Helper()
	path := resp.Request.URL.Path
	require.True(t, strings.HasPrefix(path, "/interaction/"), "landed on %s", resp.Request.URL)
	return path
}
