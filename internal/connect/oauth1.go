package connect

import (
	"context"
	"fmt"
	"net/url"
)

// OAuth1Operations are the provider-side operations of the OAuth1 dance.
// Implementations perform synchronous HTTP calls against the provider's
// request-token, authorize and access-token endpoints.
type OAuth1Operations interface {
	FetchRequestToken(ctx context.Context, callbackURL string) (OAuthToken, error)
	BuildAuthorizeURL(requestToken string, params url.Values) string
	ExchangeForAccessToken(ctx context.Context, requestToken OAuthToken, verifier string) (OAuthToken, error)
}

// OAuth1Factory is the protocol-variant view of a connection factory for
// OAuth1 providers. Callers driving a handshake type-assert a registered
// ConnectionFactory against this interface (or OAuth2Factory).
type OAuth1Factory interface {
	ConnectionFactory
	FetchRequestToken(ctx context.Context, callbackURL string) (OAuthToken, error)
	BuildAuthorizeURL(requestToken string, params url.Values) string
	ExchangeForAccessToken(ctx context.Context, requestToken OAuthToken, verifier string) (OAuthToken, error)
	CreateConnectionFromToken(ctx context.Context, token OAuthToken) (Connection, error)
}

// OAuth1ConnectionFactory builds connections for one OAuth1 provider exposing
// an API client of type A. The API builder and profile fetcher are supplied
// by the provider module; the factory itself stays protocol-generic.
type OAuth1ConnectionFactory[A any] struct {
	providerID   string
	ops          OAuth1Operations
	buildAPI     func(token OAuthToken) A
	fetchProfile func(ctx context.Context, api A) (UserProfile, error)
}

var _ OAuth1Factory = (*OAuth1ConnectionFactory[struct{}])(nil)

// NewOAuth1ConnectionFactory wires an OAuth1 provider into the connection
// lifecycle.
func NewOAuth1ConnectionFactory[A any](
	providerID string,
	ops OAuth1Operations,
	buildAPI func(token OAuthToken) A,
	fetchProfile func(ctx context.Context, api A) (UserProfile, error),
) *OAuth1ConnectionFactory[A] {
	return &OAuth1ConnectionFactory[A]{
		providerID:   providerID,
		ops:          ops,
		buildAPI:     buildAPI,
		fetchProfile: fetchProfile,
	}
}

// ProviderID returns the stable provider identifier, e.g. "twitter".
func (f *OAuth1ConnectionFactory[A]) ProviderID() string {
	return f.providerID
}

// FetchRequestToken obtains temporary credentials from the provider.
func (f *OAuth1ConnectionFactory[A]) FetchRequestToken(
	ctx context.Context,
	callbackURL string,
) (OAuthToken, error) {
	return f.ops.FetchRequestToken(ctx, callbackURL)
}

// BuildAuthorizeURL returns the URL the resource owner is redirected to.
func (f *OAuth1ConnectionFactory[A]) BuildAuthorizeURL(
	requestToken string,
	params url.Values,
) string {
	return f.ops.BuildAuthorizeURL(requestToken, params)
}

// ExchangeForAccessToken trades the authorized request token and verifier for
// an access token.
func (f *OAuth1ConnectionFactory[A]) ExchangeForAccessToken(
	ctx context.Context,
	requestToken OAuthToken,
	verifier string,
) (OAuthToken, error) {
	return f.ops.ExchangeForAccessToken(ctx, requestToken, verifier)
}

// CreateConnectionFromToken builds a fresh connection after a completed
// handshake. It performs one profile fetch against the provider to capture
// the account identity and display metadata.
func (f *OAuth1ConnectionFactory[A]) CreateConnectionFromToken(
	ctx context.Context,
	token OAuthToken,
) (Connection, error) {
	api := f.buildAPI(token)
	profile, err := f.fetchProfile(ctx, api)
	if err != nil {
		return nil, fmt.Errorf("fetch %s profile: %w", f.providerID, err)
	}
	return &oauth1Connection[A]{
		key:         ConnectionKey{ProviderID: f.providerID, ProviderUserID: profile.ProviderUserID},
		displayName: profile.DisplayName,
		profileURL:  profile.ProfileURL,
		imageURL:    profile.ImageURL,
		token:       token,
		api:         api,
	}, nil
}

// CreateConnection rehydrates a connection from persisted data. No network
// call is made.
func (f *OAuth1ConnectionFactory[A]) CreateConnection(data ConnectionData) (Connection, error) {
	if data.ProviderID != f.providerID {
		return nil, fmt.Errorf("%w: data for %q given to the %q factory",
			ErrUnknownProvider, data.ProviderID, f.providerID)
	}
	token := OAuthToken{Value: data.AccessToken, Secret: data.Secret}
	return &oauth1Connection[A]{
		key:         data.Key(),
		displayName: data.DisplayName,
		profileURL:  data.ProfileURL,
		imageURL:    data.ImageURL,
		token:       token,
		api:         f.buildAPI(token),
	}, nil
}

// oauth1Connection is immutable: OAuth1 tokens neither expire nor rotate.
type oauth1Connection[A any] struct {
	key         ConnectionKey
	displayName string
	profileURL  string
	imageURL    string
	token       OAuthToken
	api         A
}

func (c *oauth1Connection[A]) Key() ConnectionKey { return c.key }

func (c *oauth1Connection[A]) DisplayName() string { return c.displayName }

func (c *oauth1Connection[A]) ProfileURL() string { return c.profileURL }

func (c *oauth1Connection[A]) ImageURL() string { return c.imageURL }

func (c *oauth1Connection[A]) HasExpired() bool { return false }

func (c *oauth1Connection[A]) Refresh(ctx context.Context) error {
	return ErrRefreshNotSupported
}

func (c *oauth1Connection[A]) CreateData() ConnectionData {
	return ConnectionData{
		ProviderID:     c.key.ProviderID,
		ProviderUserID: c.key.ProviderUserID,
		DisplayName:    c.displayName,
		ProfileURL:     c.profileURL,
		ImageURL:       c.imageURL,
		AccessToken:    c.token.Value,
		Secret:         c.token.Secret,
	}
}

func (c *oauth1Connection[A]) API() any { return c.api }
