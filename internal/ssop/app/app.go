package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpapi "github.com/aussiebroadwan/ssop/internal/ssop/http"
	"github.com/aussiebroadwan/ssop/internal/ssop/metrics"
	"github.com/aussiebroadwan/ssop/internal/ssop/provider"
	"github.com/aussiebroadwan/ssop/internal/ssop/registry"
	"github.com/aussiebroadwan/ssop/internal/ssop/service"
	"github.com/aussiebroadwan/ssop/internal/ssop/store"
	"github.com/aussiebroadwan/ssop/internal/ssop/store/drivers/memory"
	"github.com/aussiebroadwan/ssop/internal/ssop/store/drivers/sqlite"
	"github.com/aussiebroadwan/ssop/pkg/cryptox"
	"github.com/aussiebroadwan/ssop/pkg/slogx"
)

// BuildVersion is overridden at build time via -ldflags "-X".
var BuildVersion = "v0.1.0"

// Application wires the registry, artifact store, provider and HTTP server.
type Application struct {
	cfg    Config
	logger *slog.Logger

	registry *registry.Registry
	store    store.Store
	metrics  *metrics.Metrics

	credentials  *service.CredentialService
	provider     *provider.Provider
	controller   *service.InteractionController
	housekeeping *service.HousekeepingService

	server *http.Server
	router *httpapi.Router
}

// New loads the registries and builds every dependency. The artifact store
// is reset before New returns.
func New(cfg Config) (*Application, error) {
	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "ssop",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
		metrics: metrics.New(true),
	}

	if err := InitPepper(cfg, app.logger); err != nil {
		return nil, fmt.Errorf("failed to load pepper: %w", err)
	}

	reg, err := registry.Load(cfg.UsersFile, cfg.ClientsFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load registry: %w", err)
	}
	app.registry = reg

	if err := app.initStore(); err != nil {
		return nil, err
	}

	if err := app.initServices(); err != nil {
		_ = app.store.Close()
		return nil, err
	}

	if err := app.initHTTP(); err != nil {
		_ = app.store.Close()
		return nil, err
	}

	return app, nil
}

// Handler returns the fully wired HTTP handler.
func (app *Application) Handler() http.Handler {
	return app.router
}

// Run starts the application and blocks until shutdown is requested
func (app *Application) Run() error {
	app.housekeeping.Start()

	app.logger.Info("ssop starting",
		"port", app.cfg.Port,
		"issuer", app.provider.Issuer(),
		"version", BuildVersion,
		"users", app.registry.UserCount(),
		"clients", app.registry.ClientCount(),
		"store", app.cfg.StoreDriver,
	)

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- app.server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		app.housekeeping.Stop()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
	case sig := <-shutdown:
		app.logger.Info("shutdown signal received", "signal", sig)

		if err := app.Shutdown(); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
	}

	return nil
}

// Shutdown gracefully shuts down the application
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down ssop...")

	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
		}
	}

	app.housekeeping.Stop()

	if err := app.store.Close(); err != nil {
		app.logger.Error("error closing artifact store", "error", err)
		return err
	}

	app.logger.Info("ssop stopped")
	return nil
}

// initStore opens the configured driver and clears it. Artifacts never
// outlive the process.
func (app *Application) initStore() error {
	switch app.cfg.StoreDriver {
	case "", "memory":
		app.store = memory.New()
	case "sqlite":
		st, err := sqlite.New(sqlite.DefaultDSN)
		if err != nil {
			return fmt.Errorf("failed to initialize sqlite store: %w", err)
		}
		app.store = st
	default:
		return fmt.Errorf("unknown store driver %q", app.cfg.StoreDriver)
	}

	if err := app.store.Reset(context.Background()); err != nil {
		_ = app.store.Close()
		return fmt.Errorf("failed to reset artifact store: %w", err)
	}

	app.logger.Info("artifact store ready", "driver", app.cfg.StoreDriver)
	return nil
}

func (app *Application) initServices() error {
	signer, err := InitSigningKey(app.cfg, app.logger)
	if err != nil {
		return fmt.Errorf("failed to initialize signing key: %w", err)
	}

	secret := app.cfg.InternalClientSecret
	if secret == "" {
		if secret, err = cryptox.GenerateToken(cryptox.TokenSize256); err != nil {
			return err
		}
		app.logger.Debug("generated internal client secret")
	}

	app.credentials = service.NewCredentialService(app.registry)
	app.credentials.Skew = app.cfg.TOTPSkew
	app.credentials.Observe = func(o service.Outcome) {
		app.metrics.Authentication(o.String())
	}

	app.provider, err = provider.New(
		provider.Config{Issuer: app.cfg.Issuer, InternalClientSecret: secret},
		app.store,
		app.registry.Clients(),
		app.credentials,
		signer,
		provider.WithIssueObserver(app.metrics.TokenIssued),
	)
	if err != nil {
		return fmt.Errorf("failed to initialize provider: %w", err)
	}

	app.controller = &service.InteractionController{
		Engine:      app.provider,
		Credentials: app.credentials,
		OnConsent:   app.metrics.Consent,
	}

	app.housekeeping = service.NewHousekeepingService(app.store, app.logger, app.cfg.HousekeepingInterval)
	app.housekeeping.OnSweep = app.metrics.Swept

	return nil
}

func (app *Application) initHTTP() error {
	router, err := httpapi.NewRouter(
		app.provider,
		app.controller,
		app.store,
		BuildVersion,
		app.cfg.TrustProxy,
		app.logger,
	)
	if err != nil {
		return fmt.Errorf("failed to initialize router: %w", err)
	}

	router.Metrics = app.metrics
	router.ApplyRoutes()
	app.router = router

	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}
	return nil
}
