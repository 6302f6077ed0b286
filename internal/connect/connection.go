package connect

import (
	"context"
	"fmt"
)

// Connection is one authenticated link between a local user and a provider
// account. Instances are transient views built either from a completed OAuth
// handshake or from persisted ConnectionData; they are never cached across
// requests.
type Connection interface {
	// Key identifies the provider account this connection is bound to.
	Key() ConnectionKey

	// Display metadata captured when the connection was established.
	DisplayName() string
	ProfileURL() string
	ImageURL() string

	// HasExpired reports whether the access token's expire time has passed.
	// Connections without a known expire time never report expired.
	HasExpired() bool

	// Refresh exchanges the stored refresh token for a new access/refresh
	// pair and updates in-memory state. The caller persists the rotated
	// tokens via ConnectionRepository.UpdateConnection. OAuth1 connections
	// and OAuth2 connections without a refresh token return
	// ErrRefreshNotSupported.
	Refresh(ctx context.Context) error

	// CreateData serializes the current state, including any rotated tokens,
	// for persistence.
	CreateData() ConnectionData

	// API returns the provider client bound to the currently held token.
	// It never fails; an expired token surfaces as provider errors on the
	// client's own calls. Use the package-level API helper for typed access.
	API() any
}

// API returns the connection's provider client as type A.
func API[A any](c Connection) (A, error) {
	if api, ok := c.API().(A); ok {
		return api, nil
	}
	var zero A
	return zero, fmt.Errorf("%w: connection %s/%s does not expose the requested API type",
		ErrUnknownProvider, c.Key().ProviderID, c.Key().ProviderUserID)
}
