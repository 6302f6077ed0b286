package middleware

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/ulule/limiter/v3"
	mgin "github.com/ulule/limiter/v3/drivers/middleware/gin"
	"github.com/ulule/limiter/v3/drivers/store/memory"
	limiterRedis "github.com/ulule/limiter/v3/drivers/store/redis"
)

// RateLimitStoreType defines the type of rate limit store
type RateLimitStoreType string

const (
	// RateLimitStoreMemory uses in-memory storage (single instance only)
	RateLimitStoreMemory RateLimitStoreType = "memory"
	// RateLimitStoreRedis uses Redis storage (distributed, multi-pod support)
	RateLimitStoreRedis RateLimitStoreType = "redis"
)

// RateLimitConfig holds the configuration for rate limiting with store support
type RateLimitConfig struct {
	RequestsPerMinute int
	CleanupInterval   time.Duration // only for memory store

	StoreType RateLimitStoreType // "memory" or "redis"

	// Redis settings (only used when StoreType = "redis")
	RedisAddr     string
	RedisPassword string
	RedisDB       int
}

// NewRateLimiter creates a per-client-IP rate limiter for the handshake
// routes. Handshake starts hit provider endpoints, so they are the cheapest
// thing for an abuser to amplify.
func NewRateLimiter(config RateLimitConfig) (gin.HandlerFunc, error) {
	rate := limiter.Rate{
		Period: 1 * time.Minute,
		Limit:  int64(config.RequestsPerMinute),
	}

	var store limiter.Store
	var err error

	switch config.StoreType {
	case RateLimitStoreRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     config.RedisAddr,
			Password: config.RedisPassword,
			DB:       config.RedisDB,
		})

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := client.Ping(ctx).Err(); err != nil {
			return nil, fmt.Errorf("failed to connect to Redis at %s: %w", config.RedisAddr, err)
		}

		store, err = limiterRedis.NewStoreWithOptions(client, limiter.StoreOptions{
			Prefix:          "ratelimit",
			CleanUpInterval: config.CleanupInterval,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create Redis store: %w", err)
		}

	case RateLimitStoreMemory:
		fallthrough
	default:
		store = memory.NewStore()
	}

	instance := limiter.New(store, rate)

	middleware := mgin.NewMiddleware(instance, mgin.WithLimitReachedHandler(func(c *gin.Context) {
		c.JSON(http.StatusTooManyRequests, gin.H{
			"error":             "rate_limit_exceeded",
			"error_description": "Too many requests. Please try again later.",
		})
		c.Abort()
	}))

	return middleware, nil
}
