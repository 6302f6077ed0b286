// Package oauth1 implements the provider-side OAuth1 operations over
// github.com/gomodule/oauth1.
package oauth1

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/gomodule/oauth1/oauth"

	"github.com/go-socialgate/socialgate/internal/connect"
)

// Config names the provider endpoints and consumer credentials for one
// OAuth1 service.
type Config struct {
	ConsumerKey     string
	ConsumerSecret  string
	RequestTokenURL string
	AuthorizeURL    string
	AccessTokenURL  string
}

// Service implements connect.OAuth1Operations for one provider.
type Service struct {
	client     *oauth.Client
	httpClient *http.Client
}

var _ connect.OAuth1Operations = (*Service)(nil)

// NewService builds the operations for the given provider endpoints. A nil
// httpClient falls back to http.DefaultClient.
func NewService(cfg Config, httpClient *http.Client) *Service {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Service{
		client: &oauth.Client{
			Credentials: oauth.Credentials{
				Token:  cfg.ConsumerKey,
				Secret: cfg.ConsumerSecret,
			},
			TemporaryCredentialRequestURI: cfg.RequestTokenURL,
			ResourceOwnerAuthorizationURI: cfg.AuthorizeURL,
			TokenRequestURI:               cfg.AccessTokenURL,
		},
		httpClient: httpClient,
	}
}

// FetchRequestToken obtains temporary credentials, registering the callback
// URL the provider will redirect to.
func (s *Service) FetchRequestToken(
	ctx context.Context,
	callbackURL string,
) (connect.OAuthToken, error) {
	ctx = context.WithValue(ctx, oauth.HTTPClient, s.httpClient)
	creds, err := s.client.RequestTemporaryCredentialsContext(ctx, callbackURL, nil)
	if err != nil {
		return connect.OAuthToken{}, translate("request token", err)
	}
	return connect.OAuthToken{Value: creds.Token, Secret: creds.Secret}, nil
}

// BuildAuthorizeURL returns the resource-owner authorization URL for the
// request token.
func (s *Service) BuildAuthorizeURL(requestToken string, params url.Values) string {
	return s.client.AuthorizationURL(&oauth.Credentials{Token: requestToken}, params)
}

// ExchangeForAccessToken trades the authorized request token and verifier for
// access credentials.
func (s *Service) ExchangeForAccessToken(
	ctx context.Context,
	requestToken connect.OAuthToken,
	verifier string,
) (connect.OAuthToken, error) {
	creds := &oauth.Credentials{Token: requestToken.Value, Secret: requestToken.Secret}
	ctx = context.WithValue(ctx, oauth.HTTPClient, s.httpClient)
	accessCreds, _, err := s.client.RequestTokenContext(ctx, creds, verifier)
	if err != nil {
		return connect.OAuthToken{}, translate("access token exchange", err)
	}
	return connect.OAuthToken{Value: accessCreds.Token, Secret: accessCreds.Secret}, nil
}

// translate maps a provider rejection (non-2xx token endpoint response) onto
// the authorization-failure condition; transport errors pass through wrapped.
func translate(op string, err error) error {
	var rejected oauth.RequestCredentialsError
	if errors.As(err, &rejected) {
		return fmt.Errorf("%w: %s returned status %d",
			connect.ErrProviderAuthorization, op, rejected.StatusCode)
	}
	return fmt.Errorf("%s: %w", op, err)
}
