package client

import (
	"fmt"
	"net/http"
	"time"

	httpclient "github.com/appleboy/go-httpclient"
)

// NewProviderClient builds the HTTP client used for provider token endpoints
// and profile APIs. Handshake calls are never retried: a failed exchange
// surfaces immediately and the user restarts the flow.
func NewProviderClient(timeout time.Duration, insecureSkipVerify bool) (*http.Client, error) {
	c, err := httpclient.NewAuthClient(
		"none",
		"",
		httpclient.WithTimeout(timeout),
		httpclient.WithInsecureSkipVerify(insecureSkipVerify),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create provider client: %w", err)
	}
	return c, nil
}
