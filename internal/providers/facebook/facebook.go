// Package facebook wires Facebook as an OAuth2 connection provider.
package facebook

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"golang.org/x/oauth2"
	oauth2facebook "golang.org/x/oauth2/facebook"

	"github.com/go-socialgate/socialgate/internal/connect"
	"github.com/go-socialgate/socialgate/internal/oauth2x"
)

const (
	ProviderID = "facebook"

	defaultAPIBase = "https://graph.facebook.com"
)

// Client is a minimal Graph API client bound to one access token.
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

// User is the subset of /me fields the connection lifecycle needs.
type User struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Link    string `json:"link"`
	Picture struct {
		Data struct {
			URL string `json:"url"`
		} `json:"data"`
	} `json:"picture"`
}

// GetUser fetches the authenticated user's profile via /me.
func (c *Client) GetUser(ctx context.Context) (*User, error) {
	query := url.Values{
		"fields":       {"id,name,link,picture"},
		"access_token": {c.accessToken},
	}
	req, err := http.NewRequestWithContext(ctx, "GET", c.APIBase+"/me?"+query.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to get user info: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("Facebook API error: %s - %s", resp.Status, string(body))
	}

	var user User
	if err := json.NewDecoder(resp.Body).Decode(&user); err != nil {
		return nil, fmt.Errorf("failed to decode user info: %w", err)
	}
	return &user, nil
}

// Config contains the Facebook application credentials.
type Config struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
	Scopes       []string
}

// NewConnectionFactory registers Facebook's OAuth2 endpoints and profile fetch.
func NewConnectionFactory(cfg Config, httpClient *http.Client) *connect.OAuth2ConnectionFactory[*Client] {
	ops := oauth2x.NewService(&oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		RedirectURL:  cfg.RedirectURL,
		Scopes:       cfg.Scopes,
		Endpoint:     oauth2facebook.Endpoint,
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
			profileURL := user.Link
			if profileURL == "" {
				profileURL = "https://www.facebook.com/" + user.ID
			}
			return connect.UserProfile{
				ProviderUserID: user.ID,
				DisplayName:    user.Name,
				ProfileURL:     profileURL,
				ImageURL:       user.Picture.Data.URL,
			}, nil
		})
}
