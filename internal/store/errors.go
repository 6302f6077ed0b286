package store

import "errors"

var (
	// ErrUsernameConflict is returned when a username already exists
	ErrUsernameConflict = errors.New("username already exists")

	// ErrUserNotFound is returned when no user matches the lookup
	ErrUserNotFound = errors.New("user not found")
)
