package connect

import "context"

// ConnectionRepository is the per-user view over persisted connections.
// Implementations read and write a relational store synchronously; every
// call observes writes committed by earlier calls on the same instance.
type ConnectionRepository interface {
	// FindAllConnections returns the user's connections grouped by provider
	// id and ordered by rank. Every provider id known to the registry is
	// present, with an empty slice when the user has no connections to it.
	FindAllConnections(ctx context.Context) (map[string][]Connection, error)

	// FindConnections returns the user's connections to one provider in
	// rank order.
	FindConnections(ctx context.Context, providerID string) ([]Connection, error)

	// FindConnectionsToUsers returns, per provider, a slice aligned
	// positionally with the input provider-user-id slice; positions without
	// a matching connection hold nil. An empty input map is an
	// ErrInvalidArgument.
	FindConnectionsToUsers(
		ctx context.Context,
		providerUserIDs map[string][]string,
	) (map[string][]Connection, error)

	// GetConnection returns the connection with the given key, or
	// ErrNoSuchConnection.
	GetConnection(ctx context.Context, key ConnectionKey) (Connection, error)

	// GetPrimaryConnection returns the lowest-rank connection to the
	// provider, or ErrNotConnected when the user has none.
	GetPrimaryConnection(ctx context.Context, providerID string) (Connection, error)

	// FindPrimaryConnection is the non-erroring variant of
	// GetPrimaryConnection: it returns nil, nil when the user has no
	// connection to the provider.
	FindPrimaryConnection(ctx context.Context, providerID string) (Connection, error)

	// AddConnection persists a new connection at rank max+1 for this
	// user and provider. Inserting an already-connected provider account
	// returns ErrDuplicateConnection.
	AddConnection(ctx context.Context, conn Connection) error

	// UpdateConnection overwrites the stored display metadata and token
	// fields for the connection's key. Last write wins.
	UpdateConnection(ctx context.Context, conn Connection) error

	// RemoveConnections deletes all of the user's connections to the
	// provider. Deleting nothing is not an error.
	RemoveConnections(ctx context.Context, providerID string) error

	// RemoveConnection deletes one connection. Idempotent.
	RemoveConnection(ctx context.Context, key ConnectionKey) error
}

// UsersConnectionRepository spans all local users.
type UsersConnectionRepository interface {
	// FindUserIDsWithConnection returns the local user ids bound to the
	// connection's provider account. With zero matches and a configured
	// sign-up policy, the policy mints a new local user, the connection is
	// persisted under it, and the new id is returned alone. Without a
	// policy, an empty slice is returned and nothing is written.
	FindUserIDsWithConnection(ctx context.Context, conn Connection) ([]string, error)

	// FindUserIDsConnectedTo returns the set of local user ids connected to
	// any of the given provider accounts.
	FindUserIDsConnectedTo(
		ctx context.Context,
		providerID string,
		providerUserIDs []string,
	) (map[string]struct{}, error)

	// CreateConnectionRepository binds the per-user view.
	CreateConnectionRepository(localUserID string) ConnectionRepository
}

// ConnectionSignUp is the policy hook invoked when a provider sign-in finds
// no local user for the connection. It returns the new local user id, or ""
// to decline (routing the caller to an explicit sign-up flow).
type ConnectionSignUp func(ctx context.Context, conn Connection) (string, error)
