package connect

import (
	"context"
	"fmt"
	"net/url"
	"sync"
	"time"
)

// OAuth2Operations are the provider-side operations of the OAuth2
// authorization-code flow, including token refresh. redirectURI names the
// callback the authorization was started with; providers verify it matches
// at the code exchange.
type OAuth2Operations interface {
	BuildAuthorizeURL(state string, params url.Values) string
	ExchangeForAccess(ctx context.Context, authorizationCode, redirectURI string) (AccessGrant, error)
	RefreshAccess(ctx context.Context, refreshToken string) (AccessGrant, error)
}

// OAuth2Factory is the protocol-variant view of a connection factory for
// OAuth2 providers.
type OAuth2Factory interface {
	ConnectionFactory
	BuildAuthorizeURL(state string, params url.Values) string
	ExchangeForAccess(ctx context.Context, authorizationCode, redirectURI string) (AccessGrant, error)
	CreateConnectionFromGrant(ctx context.Context, grant AccessGrant) (Connection, error)
}

// OAuth2ConnectionFactory builds connections for one OAuth2 provider exposing
// an API client of type A.
type OAuth2ConnectionFactory[A any] struct {
	providerID   string
	ops          OAuth2Operations
	buildAPI     func(accessToken string) A
	fetchProfile func(ctx context.Context, api A) (UserProfile, error)
}

var _ OAuth2Factory = (*OAuth2ConnectionFactory[struct{}])(nil)

// NewOAuth2ConnectionFactory wires an OAuth2 provider into the connection
// lifecycle.
func NewOAuth2ConnectionFactory[A any](
	providerID string,
	ops OAuth2Operations,
	buildAPI func(accessToken string) A,
	fetchProfile func(ctx context.Context, api A) (UserProfile, error),
) *OAuth2ConnectionFactory[A] {
	return &OAuth2ConnectionFactory[A]{
		providerID:   providerID,
		ops:          ops,
		buildAPI:     buildAPI,
		fetchProfile: fetchProfile,
	}
}

// ProviderID returns the stable provider identifier, e.g. "facebook".
func (f *OAuth2ConnectionFactory[A]) ProviderID() string {
	return f.providerID
}

// BuildAuthorizeURL returns the provider's authorization URL carrying the
// given CSRF state.
func (f *OAuth2ConnectionFactory[A]) BuildAuthorizeURL(state string, params url.Values) string {
	return f.ops.BuildAuthorizeURL(state, params)
}

// ExchangeForAccess trades an authorization code for an access grant.
func (f *OAuth2ConnectionFactory[A]) ExchangeForAccess(
	ctx context.Context,
	authorizationCode, redirectURI string,
) (AccessGrant, error) {
	return f.ops.ExchangeForAccess(ctx, authorizationCode, redirectURI)
}

// CreateConnectionFromGrant builds a fresh connection after a completed
// handshake. It performs one profile fetch against the provider to capture
// the account identity and display metadata.
func (f *OAuth2ConnectionFactory[A]) CreateConnectionFromGrant(
	ctx context.Context,
	grant AccessGrant,
) (Connection, error) {
	api := f.buildAPI(grant.AccessToken)
	profile, err := f.fetchProfile(ctx, api)
	if err != nil {
		return nil, fmt.Errorf("fetch %s profile: %w", f.providerID, err)
	}
	return &oauth2Connection[A]{
		key:          ConnectionKey{ProviderID: f.providerID, ProviderUserID: profile.ProviderUserID},
		displayName:  profile.DisplayName,
		profileURL:   profile.ProfileURL,
		imageURL:     profile.ImageURL,
		accessToken:  grant.AccessToken,
		refreshToken: grant.RefreshToken,
		expireTime:   grant.ExpireTime,
		api:          api,
		ops:          f.ops,
		buildAPI:     f.buildAPI,
	}, nil
}

// CreateConnection rehydrates a connection from persisted data. No network
// call is made.
func (f *OAuth2ConnectionFactory[A]) CreateConnection(data ConnectionData) (Connection, error) {
	if data.ProviderID != f.providerID {
		return nil, fmt.Errorf("%w: data for %q given to the %q factory",
			ErrUnknownProvider, data.ProviderID, f.providerID)
	}
	return &oauth2Connection[A]{
		key:          data.Key(),
		displayName:  data.DisplayName,
		profileURL:   data.ProfileURL,
		imageURL:     data.ImageURL,
		accessToken:  data.AccessToken,
		refreshToken: data.RefreshToken,
		expireTime:   data.ExpireTime,
		api:          f.buildAPI(data.AccessToken),
		ops:          f.ops,
		buildAPI:     f.buildAPI,
	}, nil
}

// oauth2Connection guards its token state with a mutex so a refresh updates
// the access/refresh pair atomically with respect to CreateData and API.
type oauth2Connection[A any] struct {
	key         ConnectionKey
	displayName string
	profileURL  string
	imageURL    string

	mu           sync.Mutex
	accessToken  string
	refreshToken string
	expireTime   int64
	api          A

	ops      OAuth2Operations
	buildAPI func(accessToken string) A
}

func (c *oauth2Connection[A]) Key() ConnectionKey { return c.key }

func (c *oauth2Connection[A]) DisplayName() string { return c.displayName }

func (c *oauth2Connection[A]) ProfileURL() string { return c.profileURL }

func (c *oauth2Connection[A]) ImageURL() string { return c.imageURL }

func (c *oauth2Connection[A]) HasExpired() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.expireTime != 0 && time.Now().UnixMilli() >= c.expireTime
}

// Refresh exchanges the stored refresh token for a new access/refresh pair.
// When the provider omits a refresh token from the response, the previous one
// is retained.
func (c *oauth2Connection[A]) Refresh(ctx context.Context) error {
	c.mu.Lock()
	refreshToken := c.refreshToken
	c.mu.Unlock()

	if refreshToken == "" {
		return ErrRefreshNotSupported
	}

	grant, err := c.ops.RefreshAccess(ctx, refreshToken)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.accessToken = grant.AccessToken
	if grant.RefreshToken != "" {
		c.refreshToken = grant.RefreshToken
	}
	c.expireTime = grant.ExpireTime
	c.api = c.buildAPI(grant.AccessToken)
	return nil
}

func (c *oauth2Connection[A]) CreateData() ConnectionData {
	c.mu.Lock()
	defer c.mu.Unlock()
	return ConnectionData{
		ProviderID:     c.key.ProviderID,
		ProviderUserID: c.key.ProviderUserID,
		DisplayName:    c.displayName,
		ProfileURL:     c.profileURL,
		ImageURL:       c.imageURL,
		AccessToken:    c.accessToken,
		RefreshToken:   c.refreshToken,
		ExpireTime:     c.expireTime,
	}
}

func (c *oauth2Connection[A]) API() any {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.api
}
