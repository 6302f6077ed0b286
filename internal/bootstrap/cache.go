package bootstrap

import (
	"context"
	"fmt"
	"log"

	"github.com/go-socialgate/socialgate/internal/cache"
	"github.com/go-socialgate/socialgate/internal/config"
	"github.com/go-socialgate/socialgate/internal/metrics"
)

// initializeMetrics initializes Prometheus metrics
func initializeMetrics(cfg *config.Config) metrics.Recorder {
	recorder := metrics.Init(cfg.MetricsEnabled)
	if cfg.MetricsEnabled {
		log.Println("[Bootstrap] Prometheus metrics initialized")
	} else {
		log.Println("[Bootstrap] Metrics disabled (using noop implementation)")
	}
	return recorder
}

// initializeStateCache initializes the handshake state cache based on
// configuration. The redis backend lets callbacks land on any instance.
func initializeStateCache(ctx context.Context, cfg *config.Config) (cache.Cache[string], error) {
	switch cfg.CacheBackend {
	case "redis":
		stateCache, err := cache.NewRueidisCache[string](
			ctx,
			cfg.RedisAddr,
			cfg.RedisPassword,
			cfg.RedisDB,
			"socialgate:handshake:",
		)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize redis state cache: %w", err)
		}
		log.Printf("[Bootstrap] Handshake state cache: redis (addr=%s, db=%d, ttl=%s)",
			cfg.RedisAddr, cfg.RedisDB, cfg.CacheTTL)
		return stateCache, nil

	default: // memory
		log.Printf("[Bootstrap] Handshake state cache: memory (single instance only, ttl=%s)", cfg.CacheTTL)
		return cache.NewMemoryCache[string](), nil
	}
}
