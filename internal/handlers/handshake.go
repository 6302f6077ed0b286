package handlers

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"

	"github.com/go-socialgate/socialgate/internal/cache"
	"github.com/go-socialgate/socialgate/internal/connect"
)

const (
	oauth1SecretPrefix = "oauth1:"
	oauth2StatePrefix  = "state:"

	// sessionHandshakeNonce binds a pending handshake to the session that
	// started it. Stashed state is worthless at any other session's callback.
	sessionHandshakeNonce = "handshake_nonce"
)

// handshake drives the redirect-and-callback dance against a provider
// factory, keeping the server-side state (OAuth1 request-token secrets,
// OAuth2 CSRF state) in a TTL cache shared across instances. Each cache
// entry carries a nonce that must match the one held by the caller's cookie
// session at the callback.
type handshake struct {
	stateCache cache.Cache[string]
	stateTTL   time.Duration
}

var errHandshakeExpired = errors.New("handshake state expired or unknown")

// start begins the dance and returns the provider URL to redirect the user
// to. callbackURL is where the provider sends the user afterwards.
func (h *handshake) start(c *gin.Context, factory connect.ConnectionFactory, callbackURL string) (string, error) {
	ctx := c.Request.Context()

	nonce, err := randomState(16)
	if err != nil {
		return "", err
	}

	switch f := factory.(type) {
	case connect.OAuth1Factory:
		requestToken, err := f.FetchRequestToken(ctx, callbackURL)
		if err != nil {
			return "", err
		}
		key := oauth1SecretPrefix + requestToken.Value
		if err := h.stateCache.Set(ctx, key, nonce+"|"+requestToken.Secret, h.stateTTL); err != nil {
			return "", fmt.Errorf("failed to stash request token secret: %w", err)
		}
		if err := saveHandshakeNonce(c, nonce); err != nil {
			return "", err
		}
		return f.BuildAuthorizeURL(requestToken.Value, nil), nil

	case connect.OAuth2Factory:
		state, err := randomState(32)
		if err != nil {
			return "", err
		}
		key := oauth2StatePrefix + state
		if err := h.stateCache.Set(ctx, key, nonce+"|"+factory.ProviderID(), h.stateTTL); err != nil {
			return "", fmt.Errorf("failed to stash state: %w", err)
		}
		if err := saveHandshakeNonce(c, nonce); err != nil {
			return "", err
		}
		// redirect_uri distinguishes the connect and sign-in callbacks
		return f.BuildAuthorizeURL(state, url.Values{"redirect_uri": {callbackURL}}), nil

	default:
		return "", fmt.Errorf("%w: factory %q supports no known protocol",
			connect.ErrUnknownProvider, factory.ProviderID())
	}
}

func saveHandshakeNonce(c *gin.Context, nonce string) error {
	session := sessions.Default(c)
	session.Set(sessionHandshakeNonce, nonce)
	if err := session.Save(); err != nil {
		return fmt.Errorf("failed to persist handshake nonce: %w", err)
	}
	return nil
}

// takeHandshakeNonce pops the nonce from the caller's session. A nonce is
// good for one callback.
func takeHandshakeNonce(c *gin.Context) string {
	session := sessions.Default(c)
	nonce, _ := session.Get(sessionHandshakeNonce).(string)
	session.Delete(sessionHandshakeNonce)
	_ = session.Save()
	return nonce
}

// complete finishes the dance from callback query parameters and returns the
// established connection. callbackURL must be the URL the dance started with.
func (h *handshake) complete(c *gin.Context, factory connect.ConnectionFactory, callbackURL string) (connect.Connection, error) {
	ctx := c.Request.Context()
	switch f := factory.(type) {
	case connect.OAuth1Factory:
		requestToken := c.Query("oauth_token")
		verifier := c.Query("oauth_verifier")
		if requestToken == "" || verifier == "" {
			return nil, fmt.Errorf("%w: missing oauth_token or oauth_verifier",
				connect.ErrInvalidArgument)
		}

		key := oauth1SecretPrefix + requestToken
		stored, err := h.stateCache.Get(ctx, key)
		if err != nil {
			if errors.Is(err, cache.ErrCacheMiss) {
				return nil, errHandshakeExpired
			}
			return nil, fmt.Errorf("failed to load request token secret: %w", err)
		}
		_ = h.stateCache.Delete(ctx, key)
		nonce, secret, ok := strings.Cut(stored, "|")
		if !ok || nonce == "" || nonce != takeHandshakeNonce(c) {
			return nil, errHandshakeExpired
		}

		accessToken, err := f.ExchangeForAccessToken(ctx,
			connect.OAuthToken{Value: requestToken, Secret: secret}, verifier)
		if err != nil {
			return nil, err
		}
		return f.CreateConnectionFromToken(ctx, accessToken)

	case connect.OAuth2Factory:
		state := c.Query("state")
		code := c.Query("code")
		if state == "" || code == "" {
			return nil, fmt.Errorf("%w: missing code or state", connect.ErrInvalidArgument)
		}

		key := oauth2StatePrefix + state
		stored, err := h.stateCache.Get(ctx, key)
		if err != nil {
			if errors.Is(err, cache.ErrCacheMiss) {
				return nil, errHandshakeExpired
			}
			return nil, fmt.Errorf("failed to load state: %w", err)
		}
		_ = h.stateCache.Delete(ctx, key)
		nonce, providerID, ok := strings.Cut(stored, "|")
		if !ok || nonce == "" || providerID != factory.ProviderID() || nonce != takeHandshakeNonce(c) {
			return nil, errHandshakeExpired
		}

		grant, err := f.ExchangeForAccess(ctx, code, callbackURL)
		if err != nil {
			return nil, err
		}
		return f.CreateConnectionFromGrant(ctx, grant)

	default:
		return nil, fmt.Errorf("%w: factory %q supports no known protocol",
			connect.ErrUnknownProvider, factory.ProviderID())
	}
}

// denied reports whether the provider redirected back with a user denial
// instead of a grant.
func denied(c *gin.Context) bool {
	// OAuth2 sends error=access_denied; OAuth1 providers send denied=<token>
	return c.Query("error") == "access_denied" || c.Query("denied") != ""
}

func writeDenied(c *gin.Context) {
	c.JSON(http.StatusForbidden, gin.H{
		"error":             "access_denied",
		"error_description": "the user declined authorization at the provider",
	})
}

func writeHandshakeExpired(c *gin.Context) {
	c.JSON(http.StatusBadRequest, gin.H{
		"error":             "handshake_expired",
		"error_description": "the handshake expired or was not started here; please retry",
	})
}

// randomState generates a URL-safe random string for OAuth2 CSRF protection
func randomState(length int) (string, error) {
	buf := make([]byte, length)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate state: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf)[:length], nil
}
