// Package github wires GitHub as an OAuth2 connection provider.
package github

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"golang.org/x/oauth2"
	oauth2github "golang.org/x/oauth2/github"

	"github.com/go-socialgate/socialgate/internal/connect"
	"github.com/go-socialgate/socialgate/internal/oauth2x"
)

const (
	ProviderID = "github"

	defaultAPIBase = "https://api.github.com"
)

// Client is a minimal GitHub API client bound to one access token.
type Client struct {
	httpClient  *http.Client
	accessToken string

	// APIBase is overridable for tests
	APIBase string
}

// NewClient binds a client to an access token. A nil httpClient falls back to
// http.DefaultClient.
func NewClient(httpClient *http.Client, accessToken string) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		httpClient:  httpClient,
		accessToken: accessToken,
		APIBase:     defaultAPIBase,
	}
}

type User struct {
	ID        int64  `json:"id"`
	Login     string `json:"login"`
	Name      string `json:"name"`
	HTMLURL   string `json:"html_url"`
	AvatarURL string `json:"avatar_url"`
}

// GetUser fetches the authenticated user's profile.
func (c *Client) GetUser(ctx context.Context) (*User, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", c.APIBase+"/user", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.accessToken)
	req.Header.Set("Accept", "application/vnd.github+json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to get user info: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("GitHub API error: %s - %s", resp.Status, string(body))
	}

	var user User
	if err := json.NewDecoder(resp.Body).Decode(&user); err != nil {
		return nil, fmt.Errorf("failed to decode user info: %w", err)
	}
	return &user, nil
}

// Config contains the GitHub application credentials.
type Config struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
	Scopes       []string
}

// NewConnectionFactory registers GitHub's OAuth2 endpoints and profile fetch.
func NewConnectionFactory(cfg Config, httpClient *http.Client) *connect.OAuth2ConnectionFactory[*Client] {
	ops := oauth2x.NewService(&oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		RedirectURL:  cfg.RedirectURL,
		Scopes:       cfg.Scopes,
		Endpoint:     oauth2github.Endpoint,
	}, httpClient)

	return connect.NewOAuth2ConnectionFactory(ProviderID, ops,
		func(accessToken string) *Client {
			return NewClient(httpClient, accessToken)
		},
		func(ctx context.Context, api *Client) (connect.UserProfile, error) {
			user, err := api.GetUser(ctx)
			if err != nil {
				return connect.UserProfile{}, err
			}
			displayName := user.Name
			if displayName == "" {
				displayName = user.Login
			}
			return connect.UserProfile{
				ProviderUserID: fmt.Sprintf("%d", user.ID),
				DisplayName:    displayName,
				ProfileURL:     user.HTMLURL,
				ImageURL:       user.AvatarURL,
			}, nil
		})
}
