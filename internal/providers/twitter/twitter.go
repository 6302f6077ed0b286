// Package twitter wires Twitter as an OAuth1 connection provider.
package twitter

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/gomodule/oauth1/oauth"

	"github.com/go-socialgate/socialgate/internal/connect"
	"github.com/go-socialgate/socialgate/internal/oauth1"
)

const (
	ProviderID = "twitter"

	defaultAPIBase = "https://api.twitter.com"

	requestTokenURL = "https://api.twitter.com/oauth/request_token"
	authorizeURL    = "https://api.twitter.com/oauth/authorize"
	accessTokenURL  = "https://api.twitter.com/oauth/access_token"
)

// Client is a minimal Twitter REST client signing requests with the user's
// access token.
type Client struct {
	signer     *oauth.Client
	token      oauth.Credentials
	httpClient *http.Client

	// APIBase is overridable for tests
	APIBase string
}

// NewClient binds a signed client to one access token pair.
func NewClient(
	consumerKey, consumerSecret string,
	token connect.OAuthToken,
	httpClient *http.Client,
) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		signer: &oauth.Client{
			Credentials: oauth.Credentials{Token: consumerKey, Secret: consumerSecret},
		},
		token:      oauth.Credentials{Token: token.Value, Secret: token.Secret},
		httpClient: httpClient,
		APIBase:    defaultAPIBase,
	}
}

// User is the subset of verify_credentials fields the connection lifecycle
// needs.
type User struct {
	IDStr           string `json:"id_str"`
	Name            string `json:"name"`
	ScreenName      string `json:"screen_name"`
	ProfileImageURL string `json:"profile_image_url_https"`
}

// VerifyCredentials fetches the authenticated account.
func (c *Client) VerifyCredentials(ctx context.Context) (*User, error) {
	ctx = context.WithValue(ctx, oauth.HTTPClient, c.httpClient)
	resp, err := c.signer.GetContext(ctx, &c.token,
		c.APIBase+"/1.1/account/verify_credentials.json", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to get user info: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("Twitter API error: %s - %s", resp.Status, string(body))
	}

	var user User
	if err := json.NewDecoder(resp.Body).Decode(&user); err != nil {
		return nil, fmt.Errorf("failed to decode user info: %w", err)
	}
	return &user, nil
}

// Config contains the Twitter application credentials.
type Config struct {
	ConsumerKey    string
	ConsumerSecret string
}

// NewConnectionFactory registers Twitter's OAuth1 endpoints and profile fetch.
func NewConnectionFactory(cfg Config, httpClient *http.Client) *connect.OAuth1ConnectionFactory[*Client] {
	ops := oauth1.NewService(oauth1.Config{
		ConsumerKey:     cfg.ConsumerKey,
		ConsumerSecret:  cfg.ConsumerSecret,
		RequestTokenURL: requestTokenURL,
		AuthorizeURL:    authorizeURL,
		AccessTokenURL:  accessTokenURL,
	}, httpClient)

	return connect.NewOAuth1ConnectionFactory(ProviderID, ops,
		func(token connect.OAuthToken) *Client {
			return NewClient(cfg.ConsumerKey, cfg.ConsumerSecret, token, httpClient)
		},
		func(ctx context.Context, api *Client) (connect.UserProfile, error) {
			user, err := api.VerifyCredentials(ctx)
			if err != nil {
				return connect.UserProfile{}, err
			}
			return connect.UserProfile{
				ProviderUserID: user.IDStr,
				DisplayName:    user.Name,
				ProfileURL:     "https://twitter.com/" + user.ScreenName,
				ImageURL:       user.ProfileImageURL,
			}, nil
		})
}
