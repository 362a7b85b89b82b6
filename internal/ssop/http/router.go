// Package http is the browser and OAuth 2.0 surface of the provider.
package http

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/aussiebroadwan/ssop/internal/ssop/metrics"
	"github.com/aussiebroadwan/ssop/internal/ssop/provider"
	"github.com/aussiebroadwan/ssop/internal/ssop/service"
	"github.com/aussiebroadwan/ssop/internal/ssop/store"
	"github.com/aussiebroadwan/ssop/pkg/httpx"
	"github.com/aussiebroadwan/ssop/pkg/slogx"

	_ "github.com/aussiebroadwan/ssop/api/ssop" // Swagger docs
	httpSwagger "github.com/swaggo/http-swagger"
)

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	buildVersion string
	startTime    time.Time
	logger       *slog.Logger
	clientIP     httpx.KeyExtractor
	cookie       sessionCookie
	binding      interactionCookie
	pages        *Pages

	store      store.Store
	Provider   *provider.Provider
	Controller *service.InteractionController

	// Metrics is optional; /metrics is only served when it is set.
	Metrics *metrics.Metrics
}

// NewRouter builds a Router. trustProxy makes rate limits key on
// X-Forwarded-For instead of the peer address.
func NewRouter(
	p *provider.Provider,
	ctrl *service.InteractionController,
	st store.Store,
	buildVersion string,
	trustProxy bool,
	logger *slog.Logger,
) (*Router, error) {
	pages, err := NewPages()
	if err != nil {
		return nil, fmt.Errorf("load templates: %w", err)
	}

	secure := strings.HasPrefix(p.Issuer(), "https://")
	r := &Router{
		Mux:          http.NewServeMux(),
		buildVersion: buildVersion,
		startTime:    time.Now(),
		logger:       logger,
		clientIP:     httpx.IPKeyExtractor,
		cookie:       sessionCookie{secure: secure},
		binding:      interactionCookie{secure: secure},
		pages:        pages,
		store:        st,
		Provider:     p,
		Controller:   ctrl,
	}
	if trustProxy {
		r.clientIP = httpx.ProxiedIPKeyExtractor
	}

	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
		httpx.SecurityHeaders,
	}

	return r, nil
}

func (r *Router) ApplyRoutes() {
	r.registerInteraction()
	r.registerOIDC()
	r.registerHome()
	r.registerSystem()

	r.Mux.Handle("/swagger/", httpSwagger.Handler())
}

// ServeHTTP implements http.Handler for Router and applies the global middleware chain.
//
//	@title			SSOP API
//	@version		0.1.0
//	@description	Super Simple OIDC Provider. Authorization code flow with username, password and optional TOTP login.
//	@description
//	@description				ID tokens are signed using EdDSA (Ed25519) and can be verified using the JWKS endpoint.
//
//	@contact.name				AussieBroadWAN Team
//	@contact.url				https://github.com/aussiebroadwan/ssop
//
//	@license.name				MIT
//	@license.url				https://opensource.org/licenses/MIT
//
//	@host						localhost:3000
//	@BasePath					/
//
//	@schemes					http https
//
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Opaque access token. Format: "Bearer {token}".
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

func (r *Router) registerInteraction() {
	h := &InteractionHandler{Controller: r.Controller, Provider: r.Provider, Pages: r.pages, binding: r.binding}

	// Login attempts are not rate limited; see DESIGN.md.
	r.Mux.HandleFunc("GET /interaction/{uid}", h.HandleShow)
	r.Mux.HandleFunc("POST /interaction/{uid}/login", h.HandleLogin)
	r.Mux.HandleFunc("POST /interaction/{uid}/consent", h.HandleConsent)
}

func (r *Router) registerOIDC() {
	authz := &AuthorizeHandler{Provider: r.Provider, Pages: r.pages, cookie: r.cookie, binding: r.binding}
	r.Mux.HandleFunc("GET /auth", authz.HandleAuthorize)
	r.Mux.HandleFunc("GET /auth/{uid}", authz.HandleResume)

	// POST /token - moderate limit keyed by IP and client
	r.Mux.Handle("POST /token",
		httpx.Chain(&TokenHandler{Provider: r.Provider},
			httpx.RateLimitByIPAndFormField(httpx.ModerateLimit, r.clientIP, "client_id"),
		),
	)

	r.Mux.Handle("POST /token/revocation",
		httpx.Chain(&RevocationHandler{Provider: r.Provider},
			httpx.RateLimitByIPAndFormField(httpx.ModerateLimit, r.clientIP, "client_id"),
		),
	)

	userinfo := httpx.Chain(&UserInfoHandler{Provider: r.Provider},
		httpx.RateLimitByIP(httpx.LenientLimit, r.clientIP),
	)
	r.Mux.Handle("GET /me", userinfo)
	r.Mux.Handle("POST /me", userinfo)

	// Public documents - high limit
	r.Mux.Handle("GET /jwks",
		httpx.Chain(JWKSHandler(r.Provider),
			httpx.RateLimitByIP(httpx.PublicLimit, r.clientIP),
		),
	)
	r.Mux.Handle("GET /.well-known/openid-configuration",
		httpx.Chain(DiscoveryHandler(r.Provider),
			httpx.RateLimitByIP(httpx.PublicLimit, r.clientIP),
		),
	)
}

func (r *Router) registerHome() {
	h := &HomeHandler{Provider: r.Provider, Pages: r.pages, cookie: r.cookie}

	r.Mux.HandleFunc("GET /{$}", h.HandleHome)
	r.Mux.HandleFunc("GET /dashboard", func(w http.ResponseWriter, req *http.Request) {
		http.Redirect(w, req, "/", http.StatusFound)
	})
	r.Mux.HandleFunc("POST /logout", h.HandleLogout)
	r.Mux.HandleFunc("GET /session/end", h.HandleEndSession)
	r.Mux.HandleFunc("GET /error", h.HandleError)
}

func (r *Router) registerSystem() {
	r.Mux.Handle("GET /livez",
		httpx.Chain(LivezHandler(r.startTime, r.buildVersion),
			httpx.RateLimitByIP(httpx.LenientLimit, r.clientIP),
		),
	)
	r.Mux.Handle("GET /readyz",
		httpx.Chain(ReadyzHandler(r.startTime, r.buildVersion, r.store, r.Provider),
			httpx.RateLimitByIP(httpx.LenientLimit, r.clientIP),
		),
	)

	if r.Metrics != nil {
		r.Mux.Handle("GET /metrics", r.Metrics.Handler())
	}
}
