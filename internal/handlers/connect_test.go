package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gin-contrib/sessions/cookie"

	"github.com/go-socialgate/socialgate/internal/cache"
	"github.com/go-socialgate/socialgate/internal/connect"
	"github.com/go-socialgate/socialgate/internal/crypto"
	"github.com/go-socialgate/socialgate/internal/metrics"
	"github.com/go-socialgate/socialgate/internal/middleware"
	"github.com/go-socialgate/socialgate/internal/store"
)

type testAPI struct {
	accessToken string
	secret      string
}

// fakeOAuth2Ops simulates a provider's OAuth2 endpoints.
type fakeOAuth2Ops struct {
	refreshCalls int
}

func (f *fakeOAuth2Ops) BuildAuthorizeURL(state string, params url.Values) string {
	return "https://provider.example.com/oauth/authorize?state=" + url.QueryEscape(state)
}

func (f *fakeOAuth2Ops) ExchangeForAccess(
	ctx context.Context,
	code, redirectURI string,
) (connect.AccessGrant, error) {
	if code != "good-code" {
		return connect.AccessGrant{}, fmt.Errorf("%w: code exchange returned status 400",
			connect.ErrProviderAuthorization)
	}
	return connect.AccessGrant{
		AccessToken:  "access-1",
		RefreshToken: "refresh-1",
		ExpireTime:   time.Now().Add(time.Hour).UnixMilli(),
	}, nil
}

func (f *fakeOAuth2Ops) RefreshAccess(
	ctx context.Context,
	refreshToken string,
) (connect.AccessGrant, error) {
	f.refreshCalls++
	return connect.AccessGrant{
		AccessToken: "access-2",
		ExpireTime:  time.Now().Add(time.Hour).UnixMilli(),
	}, nil
}

// fakeOAuth1Ops simulates a provider's OAuth1 endpoints.
type fakeOAuth1Ops struct{}

func (fakeOAuth1Ops) FetchRequestToken(
	ctx context.Context,
	callbackURL string,
) (connect.OAuthToken, error) {
	return connect.OAuthToken{Value: "req-token", Secret: "req-secret"}, nil
}

func (fakeOAuth1Ops) BuildAuthorizeURL(requestToken string, params url.Values) string {
	return "https://provider.example.com/oauth/authorize?oauth_token=" + requestToken
}

func (fakeOAuth1Ops) ExchangeForAccessToken(
	ctx context.Context,
	requestToken connect.OAuthToken,
	verifier string,
) (connect.OAuthToken, error) {
	if requestToken.Secret != "req-secret" || verifier != "ok" {
		return connect.OAuthToken{}, fmt.Errorf("%w: access token exchange returned status 401",
			connect.ErrProviderAuthorization)
	}
	return connect.OAuthToken{Value: "access-token", Secret: "access-secret"}, nil
}

type testEnv struct {
	router     *gin.Engine
	repo       *store.ConnectionsRepository
	store      *store.Store
	registry   *connect.Registry
	oauth2Ops  *fakeOAuth2Ops
	profileIDs map[string]string // provider -> provider user id returned by profile fetch
}

func newTestEnv(t *testing.T, signUp bool) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	env := &testEnv{
		oauth2Ops:  &fakeOAuth2Ops{},
		profileIDs: map[string]string{"github": "gh-1", "twitter": "tw-1"},
	}

	env.registry = connect.NewRegistry()
	githubFactory := connect.NewOAuth2ConnectionFactory("github", env.oauth2Ops,
		func(accessToken string) *testAPI { return &testAPI{accessToken: accessToken} },
		func(ctx context.Context, api *testAPI) (connect.UserProfile, error) {
			id := env.profileIDs["github"]
			return connect.UserProfile{
				ProviderUserID: id,
				DisplayName:    "@" + id,
				ProfileURL:     "https://github.com/" + id,
			}, nil
		})
	twitterFactory := connect.NewOAuth1ConnectionFactory("twitter", fakeOAuth1Ops{},
		func(token connect.OAuthToken) *testAPI {
			return &testAPI{accessToken: token.Value, secret: token.Secret}
		},
		func(ctx context.Context, api *testAPI) (connect.UserProfile, error) {
			id := env.profileIDs["twitter"]
			return connect.UserProfile{ProviderUserID: id, DisplayName: "@" + id}, nil
		})
	require.NoError(t, env.registry.Add(githubFactory))
	require.NoError(t, env.registry.Add(twitterFactory))

	s, err := store.New("sqlite", ":memory:")
	require.NoError(t, err)
	env.store = s

	var policy connect.ConnectionSignUp
	if signUp {
		policy = store.AutoConnectionSignUp(s)
	}
	env.repo = store.NewConnectionsRepository(s, env.registry, crypto.NoOpEncryptor{}, policy)

	stateCache := cache.NewMemoryCache[string]()
	recorder := metrics.NewNoopMetrics()
	connectHandler := NewConnectHandler(env.registry, env.repo, stateCache,
		10*time.Minute, "http://localhost:8080", recorder)
	signInHandler := NewSignInHandler(env.registry, env.repo, stateCache,
		10*time.Minute, "http://localhost:8080", recorder)

	router := gin.New()
	router.Use(sessions.Sessions("test_session", cookie.NewStore([]byte("test-secret"))))

	router.GET("/test/login/:id", func(c *gin.Context) {
		session := sessions.Default(c)
		session.Set(middleware.SessionUserID, c.Param("id"))
		require.NoError(t, session.Save())
		c.Status(http.StatusOK)
	})

	authed := router.Group("/", middleware.RequireUser())
	authed.GET("/connect", connectHandler.StatusAll)
	authed.GET("/connect/:provider", connectHandler.Status)
	authed.POST("/connect/:provider", connectHandler.Start)
	authed.GET("/connect/:provider/callback", connectHandler.Callback)
	authed.POST("/connect/:provider/refresh", connectHandler.Refresh)
	authed.DELETE("/connect/:provider", connectHandler.Disconnect)
	authed.DELETE("/connect/:provider/:providerUserId", connectHandler.DisconnectOne)

	router.GET("/signin/:provider", signInHandler.Start)
	router.GET("/signin/:provider/callback", signInHandler.Callback)
	router.POST("/logout", signInHandler.Logout)

	env.router = router
	return env
}

// login establishes a session and returns the cookies to replay.
func (e *testEnv) login(t *testing.T, userID string) []*http.Cookie {
	t.Helper()
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/test/login/"+userID, nil))
	require.Equal(t, http.StatusOK, w.Code)
	return w.Result().Cookies()
}

func (e *testEnv) do(method, target string, cookies []*http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

// startConnect runs the start leg and extracts the generated state (OAuth2)
// or request token (OAuth1) from the redirect. The returned cookies carry
// the handshake nonce the callback must present.
func (e *testEnv) startConnect(
	t *testing.T,
	provider string,
	cookies []*http.Cookie,
) (url.Values, []*http.Cookie) {
	t.Helper()
	w := e.do(http.MethodPost, "/connect/"+provider, cookies)
	require.Equal(t, http.StatusFound, w.Code)
	location, err := url.Parse(w.Header().Get("Location"))
	require.NoError(t, err)
	return location.Query(), mergeCookies(cookies, w.Result().Cookies())
}

// mergeCookies overlays fresh Set-Cookie values onto an existing cookie set,
// the way a browser would.
func mergeCookies(base, updates []*http.Cookie) []*http.Cookie {
	replaced := make(map[string]bool, len(updates))
	for _, c := range updates {
		replaced[c.Name] = true
	}
	merged := make([]*http.Cookie, 0, len(base)+len(updates))
	for _, c := range base {
		if !replaced[c.Name] {
			merged = append(merged, c)
		}
	}
	return append(merged, updates...)
}

func TestStatusAllEmptyUser(t *testing.T) {
	env := newTestEnv(t, false)
	cookies := env.login(t, "user-1")

	w := env.do(http.MethodGet, "/connect", cookies)
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Connections map[string][]connectionView `json:"connections"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Contains(t, body.Connections, "github")
	assert.Contains(t, body.Connections, "twitter")
	assert.Empty(t, body.Connections["github"])
}

func TestConnectRequiresSession(t *testing.T) {
	env := newTestEnv(t, false)

	w := env.do(http.MethodGet, "/connect", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestConnectUnknownProvider(t *testing.T) {
	env := newTestEnv(t, false)
	cookies := env.login(t, "user-1")

	w := env.do(http.MethodPost, "/connect/myspace", cookies)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "unknown_provider")
}

func TestOAuth2ConnectRoundTrip(t *testing.T) {
	env := newTestEnv(t, false)
	cookies := env.login(t, "user-1")

	query, cookies := env.startConnect(t, "github", cookies)
	state := query.Get("state")
	require.NotEmpty(t, state)

	w := env.do(http.MethodGet,
		"/connect/github/callback?code=good-code&state="+url.QueryEscape(state), cookies)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Contains(t, w.Body.String(), `"provider_user_id":"gh-1"`)

	conns, err := env.repo.CreateConnectionRepository("user-1").
		FindConnections(context.Background(), "github")
	require.NoError(t, err)
	require.Len(t, conns, 1)
	assert.Equal(t, "access-1", conns[0].CreateData().AccessToken)
}

func TestOAuth2ReconnectUpdatesTokens(t *testing.T) {
	env := newTestEnv(t, false)
	cookies := env.login(t, "user-1")

	query, cookies := env.startConnect(t, "github", cookies)
	state := query.Get("state")
	w := env.do(http.MethodGet,
		"/connect/github/callback?code=good-code&state="+url.QueryEscape(state), cookies)
	require.Equal(t, http.StatusCreated, w.Code)

	// Second run of the same handshake lands on the same provider account
	// and updates in place.
	query, cookies = env.startConnect(t, "github", cookies)
	state = query.Get("state")
	w = env.do(http.MethodGet,
		"/connect/github/callback?code=good-code&state="+url.QueryEscape(state), cookies)
	assert.Equal(t, http.StatusOK, w.Code)

	conns, err := env.repo.CreateConnectionRepository("user-1").
		FindConnections(context.Background(), "github")
	require.NoError(t, err)
	assert.Len(t, conns, 1)
}

func TestOAuth2CallbackFromAnotherSession(t *testing.T) {
	env := newTestEnv(t, false)
	first := env.login(t, "user-1")
	other := env.login(t, "user-2")

	query, _ := env.startConnect(t, "github", first)
	state := query.Get("state")

	// The state was minted under user-1's session; replaying it from
	// user-2's session must not attach the connection there.
	w := env.do(http.MethodGet,
		"/connect/github/callback?code=good-code&state="+url.QueryEscape(state), other)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "handshake_expired")

	conns, err := env.repo.CreateConnectionRepository("user-2").
		FindConnections(context.Background(), "github")
	require.NoError(t, err)
	assert.Empty(t, conns)
}

func TestOAuth1CallbackFromAnotherSession(t *testing.T) {
	env := newTestEnv(t, false)
	first := env.login(t, "user-1")
	other := env.login(t, "user-2")

	query, _ := env.startConnect(t, "twitter", first)
	token := query.Get("oauth_token")

	w := env.do(http.MethodGet,
		"/connect/twitter/callback?oauth_token="+token+"&oauth_verifier=ok", other)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "handshake_expired")

	conns, err := env.repo.CreateConnectionRepository("user-2").
		FindConnections(context.Background(), "twitter")
	require.NoError(t, err)
	assert.Empty(t, conns)
}

func TestOAuth2CallbackStaleState(t *testing.T) {
	env := newTestEnv(t, false)
	cookies := env.login(t, "user-1")

	w := env.do(http.MethodGet,
		"/connect/github/callback?code=good-code&state=never-issued", cookies)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "handshake_expired")
}

func TestOAuth2CallbackDenied(t *testing.T) {
	env := newTestEnv(t, false)
	cookies := env.login(t, "user-1")

	w := env.do(http.MethodGet, "/connect/github/callback?error=access_denied", cookies)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), "access_denied")
}

func TestOAuth2CallbackRejectedCode(t *testing.T) {
	env := newTestEnv(t, false)
	cookies := env.login(t, "user-1")

	query, cookies := env.startConnect(t, "github", cookies)
	state := query.Get("state")
	w := env.do(http.MethodGet,
		"/connect/github/callback?code=bad-code&state="+url.QueryEscape(state), cookies)
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Contains(t, w.Body.String(), "provider_rejected")
}

func TestOAuth1ConnectRoundTrip(t *testing.T) {
	env := newTestEnv(t, false)
	cookies := env.login(t, "user-1")

	query, cookies := env.startConnect(t, "twitter", cookies)
	requestToken := query.Get("oauth_token")
	require.Equal(t, "req-token", requestToken)

	w := env.do(http.MethodGet,
		"/connect/twitter/callback?oauth_token="+requestToken+"&oauth_verifier=ok", cookies)
	require.Equal(t, http.StatusCreated, w.Code)

	conns, err := env.repo.CreateConnectionRepository("user-1").
		FindConnections(context.Background(), "twitter")
	require.NoError(t, err)
	require.Len(t, conns, 1)
	data := conns[0].CreateData()
	assert.Equal(t, "access-token", data.AccessToken)
	assert.Equal(t, "access-secret", data.Secret)
}

func TestOAuth1CallbackWithoutStart(t *testing.T) {
	env := newTestEnv(t, false)
	cookies := env.login(t, "user-1")

	w := env.do(http.MethodGet,
		"/connect/twitter/callback?oauth_token=unknown&oauth_verifier=ok", cookies)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "handshake_expired")
}

func TestRefreshPersistsRotatedToken(t *testing.T) {
	env := newTestEnv(t, false)
	cookies := env.login(t, "user-1")

	query, cookies := env.startConnect(t, "github", cookies)
	state := query.Get("state")
	w := env.do(http.MethodGet,
		"/connect/github/callback?code=good-code&state="+url.QueryEscape(state), cookies)
	require.Equal(t, http.StatusCreated, w.Code)

	w = env.do(http.MethodPost, "/connect/github/refresh", cookies)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, env.oauth2Ops.refreshCalls)

	conns, err := env.repo.CreateConnectionRepository("user-1").
		FindConnections(context.Background(), "github")
	require.NoError(t, err)
	require.Len(t, conns, 1)
	data := conns[0].CreateData()
	assert.Equal(t, "access-2", data.AccessToken)
	// The provider omitted a new refresh token, so the old one is retained.
	assert.Equal(t, "refresh-1", data.RefreshToken)
}

func TestRefreshUnsupportedForOAuth1(t *testing.T) {
	env := newTestEnv(t, false)
	cookies := env.login(t, "user-1")

	query, cookies := env.startConnect(t, "twitter", cookies)
	token := query.Get("oauth_token")
	w := env.do(http.MethodGet,
		"/connect/twitter/callback?oauth_token="+token+"&oauth_verifier=ok", cookies)
	require.Equal(t, http.StatusCreated, w.Code)

	w = env.do(http.MethodPost, "/connect/twitter/refresh", cookies)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "unsupported_operation")
}

func TestRefreshWithoutConnection(t *testing.T) {
	env := newTestEnv(t, false)
	cookies := env.login(t, "user-1")

	w := env.do(http.MethodPost, "/connect/github/refresh", cookies)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "not_connected")
}

func TestDisconnect(t *testing.T) {
	env := newTestEnv(t, false)
	cookies := env.login(t, "user-1")

	query, cookies := env.startConnect(t, "github", cookies)
	state := query.Get("state")
	w := env.do(http.MethodGet,
		"/connect/github/callback?code=good-code&state="+url.QueryEscape(state), cookies)
	require.Equal(t, http.StatusCreated, w.Code)

	w = env.do(http.MethodDelete, "/connect/github", cookies)
	assert.Equal(t, http.StatusNoContent, w.Code)

	// Idempotent: a second delete still succeeds.
	w = env.do(http.MethodDelete, "/connect/github", cookies)
	assert.Equal(t, http.StatusNoContent, w.Code)

	conns, err := env.repo.CreateConnectionRepository("user-1").
		FindConnections(context.Background(), "github")
	require.NoError(t, err)
	assert.Empty(t, conns)
}

func TestDisconnectOne(t *testing.T) {
	env := newTestEnv(t, false)
	cookies := env.login(t, "user-1")

	query, cookies := env.startConnect(t, "github", cookies)
	state := query.Get("state")
	w := env.do(http.MethodGet,
		"/connect/github/callback?code=good-code&state="+url.QueryEscape(state), cookies)
	require.Equal(t, http.StatusCreated, w.Code)

	w = env.do(http.MethodDelete, "/connect/github/gh-1", cookies)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = env.do(http.MethodGet, "/connect/github", cookies)
	require.Equal(t, http.StatusOK, w.Code)
	var body struct {
		Connections []connectionView `json:"connections"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Empty(t, body.Connections)
}
