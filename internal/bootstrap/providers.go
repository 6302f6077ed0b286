package bootstrap

import (
	"fmt"
	"log"
	"strings"

	"github.com/go-socialgate/socialgate/internal/client"
	"github.com/go-socialgate/socialgate/internal/config"
	"github.com/go-socialgate/socialgate/internal/connect"
	"github.com/go-socialgate/socialgate/internal/providers/facebook"
	"github.com/go-socialgate/socialgate/internal/providers/github"
	"github.com/go-socialgate/socialgate/internal/providers/twitter"
)

// buildRegistry registers a connection factory for every enabled provider.
// All factories share one outbound HTTP client.
func buildRegistry(cfg *config.Config) (*connect.Registry, error) {
	httpClient, err := client.NewProviderClient(cfg.ProviderTimeout, cfg.ProviderInsecureSkipVerify)
	if err != nil {
		return nil, fmt.Errorf("failed to create provider HTTP client: %w", err)
	}

	registry := connect.NewRegistry()

	if cfg.GitHubEnabled {
		if err := registry.Add(github.NewConnectionFactory(github.Config{
			ClientID:     cfg.GitHubClientID,
			ClientSecret: cfg.GitHubClientSecret,
			RedirectURL:  cfg.RedirectURL(github.ProviderID),
			Scopes:       cfg.GitHubScopes,
		}, httpClient)); err != nil {
			return nil, err
		}
	}

	if cfg.FacebookEnabled {
		if err := registry.Add(facebook.NewConnectionFactory(facebook.Config{
			ClientID:     cfg.FacebookClientID,
			ClientSecret: cfg.FacebookClientSecret,
			RedirectURL:  cfg.RedirectURL(facebook.ProviderID),
			Scopes:       cfg.FacebookScopes,
		}, httpClient)); err != nil {
			return nil, err
		}
	}

	if cfg.TwitterEnabled {
		if err := registry.Add(twitter.NewConnectionFactory(twitter.Config{
			ConsumerKey:    cfg.TwitterConsumerKey,
			ConsumerSecret: cfg.TwitterConsumerSecret,
		}, httpClient)); err != nil {
			return nil, err
		}
	}

	providerIDs := registry.ProviderIDs()
	if len(providerIDs) == 0 {
		log.Println("[Bootstrap] Warning: no providers enabled, connect and sign-in routes will return 404")
	} else {
		log.Printf("[Bootstrap] Providers enabled: %s", strings.Join(providerIDs, ", "))
	}

	return registry, nil
}
