package connect

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// ConnectionFactory is the protocol-agnostic view of a registered provider:
// it names the provider and rehydrates connections from persisted data.
// Handshake-driving callers assert the OAuth1Factory or OAuth2Factory
// variant.
type ConnectionFactory interface {
	ProviderID() string
	CreateConnection(data ConnectionData) (Connection, error)
}

// Registry maps provider ids to their connection factories. Factories are
// registered explicitly at startup; there is no runtime discovery.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]ConnectionFactory
}

// NewRegistry returns an empty factory registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]ConnectionFactory)}
}

// Add registers a factory. Registering two factories for the same provider id
// is a configuration error.
func (r *Registry) Add(f ConnectionFactory) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	id := f.ProviderID()
	if _, exists := r.factories[id]; exists {
		return fmt.Errorf("%w: factory for %q already registered", ErrInvalidArgument, id)
	}
	r.factories[id] = f
	return nil
}

// ByProviderID returns the factory registered for the given provider id.
func (r *Registry) ByProviderID(providerID string) (ConnectionFactory, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	f, ok := r.factories[providerID]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownProvider, providerID)
	}
	return f, nil
}

// ProviderIDs returns all registered provider ids in sorted order. The
// repository uses this to produce a complete provider list even for users
// with no connections.
func (r *Registry) ProviderIDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.factories))
	for id := range r.factories {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// FactoryFor returns the factory whose connections expose an API client of
// type A. Resolution is by compile-time type, not reflection over stored
// class names.
func FactoryFor[A any](r *Registry) (ConnectionFactory, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, f := range r.factories {
		switch f.(type) {
		case *OAuth1ConnectionFactory[A], *OAuth2ConnectionFactory[A]:
			return f, nil
		}
	}
	var zero A
	return nil, fmt.Errorf("%w: no factory registered for API type %T", ErrUnknownProvider, zero)
}

// PrimaryConnection resolves the user's primary connection for the provider
// whose factory builds API type A.
func PrimaryConnection[A any](
	ctx context.Context,
	repo ConnectionRepository,
	r *Registry,
) (Connection, error) {
	f, err := FactoryFor[A](r)
	if err != nil {
		return nil, err
	}
	return repo.GetPrimaryConnection(ctx, f.ProviderID())
}

// PrimaryAPI resolves the user's primary connection for API type A and
// returns its bound client.
func PrimaryAPI[A any](ctx context.Context, repo ConnectionRepository, r *Registry) (A, error) {
	conn, err := PrimaryConnection[A](ctx, repo, r)
	if err != nil {
		var zero A
		return zero, err
	}
	return API[A](conn)
}
