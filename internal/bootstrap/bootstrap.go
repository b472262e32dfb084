package bootstrap

import (
	"context"
	"log"
	"net/http"

	"github.com/go-sallagate/sallagate/internal/cache"
	"github.com/go-sallagate/sallagate/internal/config"
	"github.com/go-sallagate/sallagate/internal/metrics"
	"github.com/go-sallagate/sallagate/internal/middleware"
	"github.com/go-sallagate/sallagate/internal/salla"
	"github.com/go-sallagate/sallagate/internal/services"
	"github.com/go-sallagate/sallagate/internal/store"

	"github.com/appleboy/graceful"
	"github.com/gin-gonic/gin"
)

// Application holds all initialized components
type Application struct {
	Config *config.Config

	// Core infrastructure
	DB              *store.Store
	MetricsRecorder metrics.Recorder
	DataCache       *cache.MemoryCache[*salla.Dataset]
	RateLimiters    *middleware.RateLimiterSet

	// Services
	TokenService *services.TokenService
	Dispatcher   *services.Dispatcher
	SallaClient  *salla.Client

	// HTTP
	HandlerSet handlerSet
	Router     *gin.Engine
	Server     *http.Server
}

// Run initializes and starts the application
func Run(ctx context.Context, cfg *config.Config) error {
	app := &Application{Config: cfg}

	// Phase 1: Validate configuration
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}
	logSecurityPosture(cfg)

	// Phase 2: Initialize infrastructure
	if err := app.initializeInfrastructure(ctx); err != nil {
		return err
	}

	// Phase 3: Initialize business layer
	app.initializeBusinessLayer()

	// Phase 4: Initialize HTTP layer
	if err := app.initializeHTTPLayer(); err != nil {
		return err
	}

	// Phase 5: Start server with graceful shutdown
	app.startWithGracefulShutdown()

	return nil
}

// initializeInfrastructure sets up the database, metrics, cache, and rate
// limit stores
func (app *Application) initializeInfrastructure(ctx context.Context) error {
	var err error

	app.DB, err = initializeDatabase(ctx, app.Config)
	if err != nil {
		return err
	}

	app.MetricsRecorder = metrics.Init(app.Config.MetricsEnabled)
	app.DataCache = cache.NewMemoryCache[*salla.Dataset]()

	app.RateLimiters, err = initializeRateLimiters(app.Config)
	if err != nil {
		return err
	}

	return nil
}

// initializeBusinessLayer sets up services and the upstream API client
func (app *Application) initializeBusinessLayer() {
	app.TokenService = services.NewTokenService(app.DB, app.MetricsRecorder)
	app.Dispatcher = services.NewDispatcher(app.TokenService, app.Config, app.MetricsRecorder)
	app.SallaClient = salla.NewClient(
		app.Config.SallaAPIBaseURL,
		app.Config.SallaAPITimeout,
		app.Config.SallaAPIRetries,
		app.Config.SallaAPIPerPage,
		app.MetricsRecorder,
	)
}

// initializeHTTPLayer sets up handlers, router, and server
func (app *Application) initializeHTTPLayer() error {
	app.HandlerSet = initializeHandlers(
		app.Config,
		app.TokenService,
		app.Dispatcher,
		app.SallaClient,
		app.DataCache,
		app.MetricsRecorder,
	)

	app.Router = setupRouter(
		app.Config,
		app.DB,
		app.HandlerSet,
		app.MetricsRecorder,
		app.RateLimiters,
	)

	app.Server = createHTTPServer(app.Config, app.Router)
	return nil
}

// startWithGracefulShutdown starts the server and handles graceful shutdown
func (app *Application) startWithGracefulShutdown() {
	m := graceful.NewManager()

	addServerRunningJob(m, app.Server)
	addServerShutdownJob(m, app.Server)
	addRateLimiterShutdownJob(m, app.RateLimiters)
	addGaugeRefreshJob(m, app.Config, app.TokenService)
	addCachePurgeJob(m, app.Config, app.DataCache)

	<-m.Done()
}

// logSecurityPosture makes the effective webhook verification mode visible
// at startup, so a placeholder secret in production is hard to miss.
func logSecurityPosture(cfg *config.Config) {
	switch {
	case cfg.SignatureRequired():
		log.Printf("Webhook signature verification: enabled")
	case cfg.IsProduction:
		log.Printf("WARNING: webhook signature verification is DISABLED in production; set SALLA_WEBHOOK_SECRET")
	default:
		log.Printf("Webhook signature verification: disabled (development mode)")
	}

	if cfg.CallerSecret == "" {
		log.Printf("Raw token endpoint: closed (CALLER_SECRET not set)")
	}
}
