package bootstrap

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/go-socialgate/socialgate/internal/cache"
	"github.com/go-socialgate/socialgate/internal/config"

	"github.com/appleboy/graceful"
)

// createHTTPServer creates the HTTP server instance
func createHTTPServer(cfg *config.Config, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              cfg.ServerAddr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
}

// startWithGracefulShutdown runs the server until a shutdown signal arrives
func (app *Application) startWithGracefulShutdown() {
	m := graceful.NewManager()

	addServerRunningJob(m, app.Server)
	addServerShutdownJob(m, app.Server)
	addStateCacheShutdownJob(m, app.StateCache)

	<-m.Done()
}

// addServerRunningJob adds the HTTP server running job
func addServerRunningJob(m *graceful.Manager, srv *http.Server) {
	m.AddRunningJob(func(ctx context.Context) error {
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Fatalf("Failed to start server: %v", err)
			}
		}()
		<-ctx.Done()
		return nil
	})
}

// addServerShutdownJob adds HTTP server shutdown handler
func addServerShutdownJob(m *graceful.Manager, srv *http.Server) {
	m.AddShutdownJob(func() error {
		log.Println("Shutting down server...")
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			log.Printf("Server forced to shutdown: %v", err)
			return err
		}

		log.Println("Server exited")
		return nil
	})
}

// addStateCacheShutdownJob closes the handshake state cache connection
func addStateCacheShutdownJob(m *graceful.Manager, stateCache cache.Cache[string]) {
	m.AddShutdownJob(func() error {
		log.Println("Closing state cache...")
		if err := stateCache.Close(); err != nil {
			log.Printf("Error closing state cache: %v", err)
			return err
		}
		return nil
	})
}
