package oauth1

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-socialgate/socialgate/internal/connect"
)

func newTestService(t *testing.T) (*Service, *httptest.Server) {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/oauth/request_token", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/x-www-form-urlencoded")
		_, _ = w.Write([]byte("oauth_token=req-token&oauth_token_secret=req-secret&oauth_callback_confirmed=true"))
	})
	mux.HandleFunc("/oauth/access_token", func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		if r.FormValue("oauth_verifier") != "verifier-123" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/x-www-form-urlencoded")
		_, _ = w.Write([]byte("oauth_token=access-token&oauth_token_secret=access-secret"))
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	svc := NewService(Config{
		ConsumerKey:     "consumer-key",
		ConsumerSecret:  "consumer-secret",
		RequestTokenURL: srv.URL + "/oauth/request_token",
		AuthorizeURL:    srv.URL + "/oauth/authorize",
		AccessTokenURL:  srv.URL + "/oauth/access_token",
	}, srv.Client())
	return svc, srv
}

func TestFetchRequestToken(t *testing.T) {
	svc, _ := newTestService(t)

	token, err := svc.FetchRequestToken(context.Background(), "https://app.example.com/callback")
	require.NoError(t, err)
	assert.Equal(t, "req-token", token.Value)
	assert.Equal(t, "req-secret", token.Secret)
}

func TestBuildAuthorizeURL(t *testing.T) {
	svc, srv := newTestService(t)

	raw := svc.BuildAuthorizeURL("req-token", url.Values{"perms": {"read"}})
	parsed, err := url.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, srv.URL+"/oauth/authorize", parsed.Scheme+"://"+parsed.Host+parsed.Path)
	assert.Equal(t, "req-token", parsed.Query().Get("oauth_token"))
	assert.Equal(t, "read", parsed.Query().Get("perms"))
}

func TestExchangeForAccessToken(t *testing.T) {
	svc, _ := newTestService(t)

	token, err := svc.ExchangeForAccessToken(context.Background(),
		connect.OAuthToken{Value: "req-token", Secret: "req-secret"}, "verifier-123")
	require.NoError(t, err)
	assert.Equal(t, "access-token", token.Value)
	assert.Equal(t, "access-secret", token.Secret)
}

func TestExchangeRejectedByProvider(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.ExchangeForAccessToken(context.Background(),
		connect.OAuthToken{Value: "req-token", Secret: "req-secret"}, "wrong-verifier")
	require.Error(t, err)
	assert.ErrorIs(t, err, connect.ErrProviderAuthorization)
}
