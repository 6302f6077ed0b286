package bootstrap

import (
	"context"
	"log"
	"net/http"

	"github.com/go-socialgate/socialgate/internal/cache"
	"github.com/go-socialgate/socialgate/internal/config"
	"github.com/go-socialgate/socialgate/internal/connect"
	"github.com/go-socialgate/socialgate/internal/metrics"
	"github.com/go-socialgate/socialgate/internal/store"

	"github.com/gin-gonic/gin"
)

// Application holds all initialized components
type Application struct {
	Config *config.Config

	// Core infrastructure
	DB         *store.Store
	Recorder   metrics.Recorder
	StateCache cache.Cache[string]

	// Connection layer
	Registry    *connect.Registry
	Connections *store.ConnectionsRepository

	// HTTP
	HandlerSet handlerSet
	Router     *gin.Engine
	Server     *http.Server
}

// Run initializes and starts the application
func Run(cfg *config.Config) error {
	app := &Application{Config: cfg}

	// Phase 1: Validate configuration
	if err := cfg.Validate(); err != nil {
		return err
	}

	// Phase 2: Initialize infrastructure
	if err := app.initializeInfrastructure(); err != nil {
		return err
	}

	// Phase 3: Initialize connection layer
	if err := app.initializeConnectionLayer(); err != nil {
		return err
	}

	// Phase 4: Initialize HTTP layer
	if err := app.initializeHTTPLayer(); err != nil {
		return err
	}

	// Phase 5: Start server with graceful shutdown
	app.startWithGracefulShutdown()

	return nil
}

// initializeInfrastructure sets up database, metrics, and the handshake
// state cache
func (app *Application) initializeInfrastructure() error {
	var err error

	app.DB, err = initializeDatabase(app.Config)
	if err != nil {
		return err
	}

	app.Recorder = initializeMetrics(app.Config)

	app.StateCache, err = initializeStateCache(context.Background(), app.Config)
	if err != nil {
		return err
	}

	return nil
}

// initializeConnectionLayer sets up the provider registry and the
// connection repository
func (app *Application) initializeConnectionLayer() error {
	var err error

	app.Registry, err = buildRegistry(app.Config)
	if err != nil {
		return err
	}

	encryptor, err := initializeEncryptor(app.Config)
	if err != nil {
		return err
	}

	var signUp connect.ConnectionSignUp
	if app.Config.SignUpOnFirstSignIn {
		signUp = store.AutoConnectionSignUp(app.DB)
		log.Println("[Bootstrap] Implicit sign-up on first sign-in enabled")
	}

	app.Connections = store.NewConnectionsRepository(app.DB, app.Registry, encryptor, signUp)
	return nil
}

// initializeHTTPLayer sets up handlers, router, and server
func (app *Application) initializeHTTPLayer() error {
	app.HandlerSet = buildHandlers(app)

	rateLimit, err := setupRateLimiting(app.Config)
	if err != nil {
		return err
	}

	app.Router = setupRouter(app.Config, app.DB, app.StateCache, app.HandlerSet, app.Recorder, rateLimit)
	app.Server = createHTTPServer(app.Config, app.Router)
	return nil
}
