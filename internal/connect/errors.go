package connect

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownProvider is returned when no connection factory is registered
	// for the requested provider id or API type.
	ErrUnknownProvider = errors.New("unknown provider")

	// ErrNoSuchConnection is returned when a lookup by connection key finds
	// nothing.
	ErrNoSuchConnection = errors.New("no such connection")

	// ErrNotConnected is returned when a primary-connection lookup finds zero
	// connections for the provider.
	ErrNotConnected = errors.New("not connected")

	// ErrDuplicateConnection is returned when an insert violates the
	// (user, provider, provider user) uniqueness constraint.
	ErrDuplicateConnection = errors.New("duplicate connection")

	// ErrUnsupportedOperation marks programming-contract violations such as
	// refreshing an OAuth1 connection. Distinct from data-driven conditions.
	ErrUnsupportedOperation = errors.New("unsupported operation")

	// ErrProviderAuthorization is returned when the remote provider rejects a
	// handshake or refresh. Never retried: a rejected credential cannot
	// succeed on retry.
	ErrProviderAuthorization = errors.New("provider authorization failed")

	// ErrInvalidArgument is returned for malformed caller input, e.g. an
	// empty provider-user-id map passed to a batch lookup.
	ErrInvalidArgument = errors.New("invalid argument")
)

// ErrRefreshNotSupported is returned by Refresh on OAuth1 connections and on
// OAuth2 connections created without a refresh token.
var ErrRefreshNotSupported = fmt.Errorf("%w: connection cannot be refreshed", ErrUnsupportedOperation)
