package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Server settings
	ServerAddr string
	BaseURL    string

	// Session settings
	SessionSecret string

	// Database
	DatabaseDriver string // "sqlite" or "postgres"
	DatabaseDSN    string

	// Token encryption at rest. Empty password disables encryption.
	EncryptPassword string
	EncryptSalt     string

	// Implicit sign-up on first provider sign-in
	SignUpOnFirstSignIn bool

	// Handshake state cache: "memory" or "redis"
	CacheBackend  string
	CacheTTL      time.Duration
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// Rate limiting for handshake routes
	RateLimitEnabled   bool
	RateLimitPerMinute int
	RateLimitStore     string // "memory" or "redis"

	// Metrics
	MetricsEnabled bool
	MetricsToken   string

	// Provider HTTP client
	ProviderTimeout            time.Duration
	ProviderInsecureSkipVerify bool

	// GitHub
	GitHubEnabled      bool
	GitHubClientID     string
	GitHubClientSecret string
	GitHubScopes       []string

	// Facebook
	FacebookEnabled      bool
	FacebookClientID     string
	FacebookClientSecret string
	FacebookScopes       []string

	// Twitter
	TwitterEnabled        bool
	TwitterConsumerKey    string
	TwitterConsumerSecret string
}

func Load() *Config {
	// Load .env file if exists (ignore error if not found)
	_ = godotenv.Load()

	driver := getEnv("DATABASE_DRIVER", "sqlite")
	var dsn string
	if driver == "sqlite" {
		dsn = getEnv("DATABASE_DSN", "socialgate.db")
	} else {
		dsn = getEnv("DATABASE_DSN", "")
	}

	return &Config{
		ServerAddr:    getEnv("SERVER_ADDR", ":8080"),
		BaseURL:       getEnv("BASE_URL", "http://localhost:8080"),
		SessionSecret: getEnv("SESSION_SECRET", "session-secret-change-in-production"),

		DatabaseDriver: driver,
		DatabaseDSN:    dsn,

		EncryptPassword: getEnv("ENCRYPT_PASSWORD", ""),
		EncryptSalt:     getEnv("ENCRYPT_SALT", ""),

		SignUpOnFirstSignIn: getEnvBool("SIGN_UP_ON_FIRST_SIGN_IN", true),

		CacheBackend:  getEnv("CACHE_BACKEND", "memory"),
		CacheTTL:      getEnvDuration("CACHE_TTL", 10*time.Minute),
		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),

		RateLimitEnabled:   getEnvBool("RATE_LIMIT_ENABLED", true),
		RateLimitPerMinute: getEnvInt("RATE_LIMIT_PER_MINUTE", 30),
		RateLimitStore:     getEnv("RATE_LIMIT_STORE", "memory"),

		MetricsEnabled: getEnvBool("METRICS_ENABLED", false),
		MetricsToken:   getEnv("METRICS_TOKEN", ""),

		ProviderTimeout:            getEnvDuration("PROVIDER_TIMEOUT", 15*time.Second),
		ProviderInsecureSkipVerify: getEnvBool("PROVIDER_INSECURE_SKIP_VERIFY", false),

		GitHubEnabled:      getEnvBool("GITHUB_ENABLED", false),
		GitHubClientID:     getEnv("GITHUB_CLIENT_ID", ""),
		GitHubClientSecret: getEnv("GITHUB_CLIENT_SECRET", ""),
		GitHubScopes:       getEnvSlice("GITHUB_SCOPES", []string{"read:user"}),

		FacebookEnabled:      getEnvBool("FACEBOOK_ENABLED", false),
		FacebookClientID:     getEnv("FACEBOOK_CLIENT_ID", ""),
		FacebookClientSecret: getEnv("FACEBOOK_CLIENT_SECRET", ""),
		FacebookScopes:       getEnvSlice("FACEBOOK_SCOPES", []string{"public_profile"}),

		TwitterEnabled:        getEnvBool("TWITTER_ENABLED", false),
		TwitterConsumerKey:    getEnv("TWITTER_CONSUMER_KEY", ""),
		TwitterConsumerSecret: getEnv("TWITTER_CONSUMER_SECRET", ""),
	}
}

// Validate rejects configurations that cannot start.
func (c *Config) Validate() error {
	if c.DatabaseDSN == "" {
		return errors.New("DATABASE_DSN is required")
	}
	if (c.EncryptPassword == "") != (c.EncryptSalt == "") {
		return errors.New("ENCRYPT_PASSWORD and ENCRYPT_SALT must be set together")
	}
	if c.GitHubEnabled && (c.GitHubClientID == "" || c.GitHubClientSecret == "") {
		return errors.New("GITHUB_CLIENT_ID and GITHUB_CLIENT_SECRET are required when GitHub is enabled")
	}
	if c.FacebookEnabled && (c.FacebookClientID == "" || c.FacebookClientSecret == "") {
		return errors.New("FACEBOOK_CLIENT_ID and FACEBOOK_CLIENT_SECRET are required when Facebook is enabled")
	}
	if c.TwitterEnabled && (c.TwitterConsumerKey == "" || c.TwitterConsumerSecret == "") {
		return errors.New("TWITTER_CONSUMER_KEY and TWITTER_CONSUMER_SECRET are required when Twitter is enabled")
	}
	return nil
}

// RedirectURL builds the callback URL registered with a provider.
func (c *Config) RedirectURL(providerID string) string {
	return strings.TrimSuffix(c.BaseURL, "/") + "/connect/" + providerID + "/callback"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return value == "true" || value == "1"
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		var i int
		if _, err := fmt.Sscanf(value, "%d", &i); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getEnvSlice(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		var parts []string
		for _, part := range strings.Split(value, ",") {
			if trimmed := strings.TrimSpace(part); trimmed != "" {
				parts = append(parts, trimmed)
			}
		}
		if len(parts) > 0 {
			return parts
		}
	}
	return defaultValue
}
