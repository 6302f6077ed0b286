package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, ":8080", cfg.ServerAddr)
	assert.Equal(t, "sqlite", cfg.DatabaseDriver)
	assert.Equal(t, "socialgate.db", cfg.DatabaseDSN)
	assert.Equal(t, "memory", cfg.CacheBackend)
	assert.Equal(t, 10*time.Minute, cfg.CacheTTL)
	assert.True(t, cfg.SignUpOnFirstSignIn)
	assert.False(t, cfg.MetricsEnabled)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("SERVER_ADDR", ":9090")
	t.Setenv("DATABASE_DRIVER", "postgres")
	t.Setenv("DATABASE_DSN", "host=db user=app dbname=social")
	t.Setenv("GITHUB_ENABLED", "true")
	t.Setenv("GITHUB_CLIENT_ID", "id")
	t.Setenv("GITHUB_CLIENT_SECRET", "secret")
	t.Setenv("GITHUB_SCOPES", "read:user, user:email")
	t.Setenv("PROVIDER_TIMEOUT", "30s")
	t.Setenv("RATE_LIMIT_PER_MINUTE", "5")

	cfg := Load()

	assert.Equal(t, ":9090", cfg.ServerAddr)
	assert.Equal(t, "postgres", cfg.DatabaseDriver)
	assert.True(t, cfg.GitHubEnabled)
	assert.Equal(t, []string{"read:user", "user:email"}, cfg.GitHubScopes)
	assert.Equal(t, 30*time.Second, cfg.ProviderTimeout)
	assert.Equal(t, 5, cfg.RateLimitPerMinute)
	require.NoError(t, cfg.Validate())
}

func TestValidateEncryptionPairing(t *testing.T) {
	cfg := Load()
	cfg.EncryptPassword = "password"

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ENCRYPT_SALT")

	cfg.EncryptSalt = "salt"
	assert.NoError(t, cfg.Validate())
}

func TestValidateProviderCredentials(t *testing.T) {
	cfg := Load()
	cfg.TwitterEnabled = true

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "TWITTER_CONSUMER_KEY")
}

func TestValidateMissingDSN(t *testing.T) {
	t.Setenv("DATABASE_DRIVER", "postgres")

	cfg := Load()
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DATABASE_DSN")
}

func TestRedirectURL(t *testing.T) {
	cfg := &Config{BaseURL: "https://app.example.com/"}
	assert.Equal(t, "https://app.example.com/connect/github/callback", cfg.RedirectURL("github"))
}
