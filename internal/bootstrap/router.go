package bootstrap

import (
	"log"
	"net/http"

	"github.com/go-socialgate/socialgate/internal/cache"
	"github.com/go-socialgate/socialgate/internal/config"
	"github.com/go-socialgate/socialgate/internal/metrics"
	"github.com/go-socialgate/socialgate/internal/middleware"
	"github.com/go-socialgate/socialgate/internal/store"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// setupRouter configures the Gin router with all routes and middleware
func setupRouter(
	cfg *config.Config,
	db *store.Store,
	stateCache cache.Cache[string],
	h handlerSet,
	recorder metrics.Recorder,
	rateLimit gin.HandlerFunc,
) *gin.Engine {
	r := gin.New()

	r.Use(metrics.HTTPMetricsMiddleware(recorder))
	r.Use(gin.Logger(), gin.Recovery())

	setupSessionMiddleware(r, cfg)

	r.GET("/health", createHealthCheckHandler(db, stateCache))
	setupMetricsEndpoint(r, cfg)

	// Sign-in is the unauthenticated surface. Only the start leg is rate
	// limited: it is the one that triggers outbound provider calls.
	r.GET("/signin/:provider", rateLimit, h.signIn.Start)
	r.GET("/signin/:provider/callback", h.signIn.Callback)
	r.POST("/logout", h.signIn.Logout)

	// Connection management requires a signed-in user
	authed := r.Group("/", middleware.RequireUser())
	authed.GET("/connect", h.connect.StatusAll)
	authed.GET("/connect/:provider", h.connect.Status)
	authed.POST("/connect/:provider", rateLimit, h.connect.Start)
	authed.GET("/connect/:provider/callback", h.connect.Callback)
	authed.POST("/connect/:provider/refresh", h.connect.Refresh)
	authed.DELETE("/connect/:provider", h.connect.Disconnect)
	authed.DELETE("/connect/:provider/:providerUserId", h.connect.DisconnectOne)

	log.Printf("[Bootstrap] Server starting on %s (base URL: %s)", cfg.ServerAddr, cfg.BaseURL)

	return r
}

// setupSessionMiddleware configures session handling middleware
func setupSessionMiddleware(r *gin.Engine, cfg *config.Config) {
	sessionStore := cookie.NewStore([]byte(cfg.SessionSecret))
	sessionStore.Options(sessions.Options{
		Path:     "/",
		MaxAge:   86400 * 7,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	r.Use(sessions.Sessions("socialgate_session", sessionStore))
}

// setupMetricsEndpoint configures the Prometheus metrics endpoint
func setupMetricsEndpoint(r *gin.Engine, cfg *config.Config) {
	switch {
	case !cfg.MetricsEnabled:
		log.Println("[Bootstrap] Prometheus metrics endpoint disabled")
	case cfg.MetricsToken != "":
		log.Println("[Bootstrap] Prometheus metrics enabled at /metrics with Bearer token authentication")
		r.GET("/metrics", middleware.MetricsAuth(cfg.MetricsToken), gin.WrapH(promhttp.Handler()))
	default:
		log.Println("[Bootstrap] Prometheus metrics enabled at /metrics (no authentication)")
		r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	}
}

// createHealthCheckHandler reports database and state cache health
func createHealthCheckHandler(db *store.Store, stateCache cache.Cache[string]) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := db.Health(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status": "unhealthy",
				"error":  "database unavailable",
			})
			return
		}
		if err := stateCache.Health(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status": "unhealthy",
				"error":  "state cache unavailable",
			})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}
