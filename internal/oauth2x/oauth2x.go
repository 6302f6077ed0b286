// Package oauth2x implements the provider-side OAuth2 operations over
// golang.org/x/oauth2.
package oauth2x

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"golang.org/x/oauth2"

	"github.com/go-socialgate/socialgate/internal/connect"
)

// Service implements connect.OAuth2Operations for one provider.
type Service struct {
	config     *oauth2.Config
	httpClient *http.Client
}

var _ connect.OAuth2Operations = (*Service)(nil)

// NewService wraps the given authorization-code configuration. A nil
// httpClient falls back to http.DefaultClient for token endpoint calls.
func NewService(config *oauth2.Config, httpClient *http.Client) *Service {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Service{config: config, httpClient: httpClient}
}

// BuildAuthorizeURL returns the provider authorization URL carrying the state
// value plus any extra parameters.
func (s *Service) BuildAuthorizeURL(state string, params url.Values) string {
	opts := make([]oauth2.AuthCodeOption, 0, len(params))
	for key, values := range params {
		if len(values) == 0 {
			continue
		}
		opts = append(opts, oauth2.SetAuthURLParam(key, values[0]))
	}
	return s.config.AuthCodeURL(state, opts...)
}

// ExchangeForAccess trades the authorization code for an access grant.
// redirectURI, when set, overrides the configured redirect so connect and
// sign-in callbacks can share one provider registration.
func (s *Service) ExchangeForAccess(ctx context.Context, code, redirectURI string) (connect.AccessGrant, error) {
	var opts []oauth2.AuthCodeOption
	if redirectURI != "" {
		opts = append(opts, oauth2.SetAuthURLParam("redirect_uri", redirectURI))
	}
	token, err := s.config.Exchange(s.clientContext(ctx), code, opts...)
	if err != nil {
		return connect.AccessGrant{}, translate("code exchange", err)
	}
	return grantFromToken(token), nil
}

// RefreshAccess obtains a fresh access token using the refresh token.
func (s *Service) RefreshAccess(ctx context.Context, refreshToken string) (connect.AccessGrant, error) {
	src := s.config.TokenSource(s.clientContext(ctx), &oauth2.Token{RefreshToken: refreshToken})
	token, err := src.Token()
	if err != nil {
		return connect.AccessGrant{}, translate("token refresh", err)
	}
	return grantFromToken(token), nil
}

func (s *Service) clientContext(ctx context.Context) context.Context {
	return context.WithValue(ctx, oauth2.HTTPClient, s.httpClient)
}

func grantFromToken(token *oauth2.Token) connect.AccessGrant {
	grant := connect.AccessGrant{
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
	}
	if !token.Expiry.IsZero() {
		grant.ExpireTime = token.Expiry.UnixMilli()
	}
	switch scope := token.Extra("scope").(type) {
	case string:
		grant.Scope = scope
	case []interface{}:
		parts := make([]string, 0, len(scope))
		for _, part := range scope {
			if s, ok := part.(string); ok {
				parts = append(parts, s)
			}
		}
		grant.Scope = strings.Join(parts, " ")
	}
	return grant
}

// translate maps a provider token-endpoint rejection onto the
// authorization-failure condition; transport errors pass through wrapped.
func translate(op string, err error) error {
	var rejected *oauth2.RetrieveError
	if errors.As(err, &rejected) {
		return fmt.Errorf("%w: %s returned status %d",
			connect.ErrProviderAuthorization, op, rejected.Response.StatusCode)
	}
	return fmt.Errorf("%s: %w", op, err)
}
