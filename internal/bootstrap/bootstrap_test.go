package bootstrap

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-socialgate/socialgate/internal/config"
	"github.com/go-socialgate/socialgate/internal/crypto"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		ServerAddr:      ":0",
		BaseURL:         "http://localhost:8080",
		SessionSecret:   "test-secret",
		DatabaseDriver:  "sqlite",
		DatabaseDSN:     filepath.Join(t.TempDir(), "bootstrap.db"),
		CacheBackend:    "memory",
		CacheTTL:        10 * time.Minute,
		ProviderTimeout: 5 * time.Second,
	}
}

func TestInitializeMetrics(t *testing.T) {
	for _, enabled := range []bool{true, false} {
		m := initializeMetrics(&config.Config{MetricsEnabled: enabled})
		require.NotNil(t, m)
	}
}

func TestInitializeStateCacheMemory(t *testing.T) {
	stateCache, err := initializeStateCache(context.Background(), &config.Config{CacheBackend: "memory"})
	require.NoError(t, err)
	require.NotNil(t, stateCache)
	defer stateCache.Close()

	require.NoError(t, stateCache.Set(context.Background(), "k", "v", time.Minute))
	got, err := stateCache.Get(context.Background(), "k")
	require.NoError(t, err)
	assert.Equal(t, "v", got)
}

func TestInitializeEncryptor(t *testing.T) {
	enc, err := initializeEncryptor(&config.Config{})
	require.NoError(t, err)
	assert.IsType(t, crypto.NoOpEncryptor{}, enc)

	enc, err = initializeEncryptor(&config.Config{
		EncryptPassword: "password",
		EncryptSalt:     "deadbeef",
	})
	require.NoError(t, err)
	assert.IsType(t, &crypto.AESEncryptor{}, enc)
}

func TestBuildRegistry(t *testing.T) {
	cfg := testConfig(t)
	cfg.GitHubEnabled = true
	cfg.GitHubClientID = "id"
	cfg.GitHubClientSecret = "secret"
	cfg.TwitterEnabled = true
	cfg.TwitterConsumerKey = "key"
	cfg.TwitterConsumerSecret = "secret"

	registry, err := buildRegistry(cfg)
	require.NoError(t, err)
	assert.Equal(t, []string{"github", "twitter"}, registry.ProviderIDs())
}

func TestBuildRegistryEmpty(t *testing.T) {
	registry, err := buildRegistry(testConfig(t))
	require.NoError(t, err)
	assert.Empty(t, registry.ProviderIDs())
}

func TestSetupRateLimitingDisabled(t *testing.T) {
	mw, err := setupRateLimiting(&config.Config{RateLimitEnabled: false})
	require.NoError(t, err)
	require.NotNil(t, mw)
}

func TestSetupRouterHealthAndAuth(t *testing.T) {
	gin.SetMode(gin.TestMode)

	cfg := testConfig(t)
	app := &Application{Config: cfg}

	require.NoError(t, app.initializeInfrastructure())
	require.NoError(t, app.initializeConnectionLayer())
	require.NoError(t, app.initializeHTTPLayer())

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	app.Router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"ok"`)

	// Connection routes require a session
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/connect", nil)
	app.Router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// Unknown provider on the public surface
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/signin/myspace", nil)
	app.Router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCreateHTTPServer(t *testing.T) {
	cfg := testConfig(t)
	srv := createHTTPServer(cfg, gin.New())
	assert.Equal(t, cfg.ServerAddr, srv.Addr)
	assert.Equal(t, 30*time.Second, srv.ReadTimeout)
}
