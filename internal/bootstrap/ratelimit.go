package bootstrap

import (
	"log"

	"github.com/go-socialgate/socialgate/internal/config"
	"github.com/go-socialgate/socialgate/internal/middleware"

	"github.com/gin-gonic/gin"
)

// setupRateLimiting builds the rate limit middleware for handshake starts.
// Returns a no-op middleware when rate limiting is disabled.
func setupRateLimiting(cfg *config.Config) (gin.HandlerFunc, error) {
	if !cfg.RateLimitEnabled {
		return func(c *gin.Context) { c.Next() }, nil
	}

	log.Printf("[Bootstrap] Rate limiting enabled (store: %s, %d req/min)",
		cfg.RateLimitStore, cfg.RateLimitPerMinute)

	return middleware.NewRateLimiter(middleware.RateLimitConfig{
		RequestsPerMinute: cfg.RateLimitPerMinute,
		StoreType:         middleware.RateLimitStoreType(cfg.RateLimitStore),
		RedisAddr:         cfg.RedisAddr,
		RedisPassword:     cfg.RedisPassword,
		RedisDB:           cfg.RedisDB,
	})
}
