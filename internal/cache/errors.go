package cache

import "errors"

// Sentinel errors shared by every backend. Callers match with errors.Is; a
// miss is the only one expected in normal operation.
var (
	ErrCacheMiss        = errors.New("cache: key not found")
	ErrCacheUnavailable = errors.New("cache: backend unavailable")
	ErrInvalidValue     = errors.New("cache: invalid value")
)
