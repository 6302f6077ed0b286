package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/rueidis"
)

var _ Cache[struct{}] = (*RueidisCache[struct{}])(nil)

// RueidisCache keeps handshake state in Redis so a provider callback can
// land on any instance behind the load balancer, not just the one that
// issued the redirect. Values are stored JSON-encoded under keyPrefix.
type RueidisCache[T any] struct {
	client    rueidis.Client
	keyPrefix string
}

// NewRueidisCache connects to Redis and verifies the connection before
// returning. Client-side caching stays off: handshake entries are written
// once and read once, so there is nothing worth keeping client-side.
func NewRueidisCache[T any](
	ctx context.Context,
	addr, password string,
	db int,
	keyPrefix string,
) (*RueidisCache[T], error) {
	client, err := rueidis.NewClient(rueidis.ClientOption{
		InitAddress:  []string{addr},
		Password:     password,
		SelectDB:     db,
		DisableCache: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create redis client: %w", err)
	}

	if err := client.Do(ctx, client.B().Ping().Build()).Error(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to ping Redis: %w", err)
	}

	return &RueidisCache[T]{client: client, keyPrefix: keyPrefix}, nil
}

func (r *RueidisCache[T]) key(k string) string {
	return r.keyPrefix + k
}

// Get reads and decodes one entry. A missing or expired key surfaces as
// ErrCacheMiss.
func (r *RueidisCache[T]) Get(ctx context.Context, key string) (T, error) {
	var zero T

	resp := r.client.Do(ctx, r.client.B().Get().Key(r.key(key)).Build())
	if err := resp.Error(); err != nil {
		if rueidis.IsRedisNil(err) {
			return zero, ErrCacheMiss
		}
		return zero, fmt.Errorf("%w: %v", ErrCacheUnavailable, err)
	}

	raw, err := resp.ToString()
	if err != nil {
		return zero, fmt.Errorf("%w: %v", ErrInvalidValue, err)
	}

	var value T
	if err := json.Unmarshal([]byte(raw), &value); err != nil {
		return zero, fmt.Errorf("%w: %v", ErrInvalidValue, err)
	}
	return value, nil
}

// Set writes one entry with the given TTL. Redis drops it on expiry, so
// abandoned handshakes need no cleanup pass.
func (r *RueidisCache[T]) Set(ctx context.Context, key string, value T, ttl time.Duration) error {
	encoded, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidValue, err)
	}

	cmd := r.client.B().Set().Key(r.key(key)).Value(string(encoded)).Ex(ttl).Build()
	if err := r.client.Do(ctx, cmd).Error(); err != nil {
		return fmt.Errorf("%w: %v", ErrCacheUnavailable, err)
	}
	return nil
}

func (r *RueidisCache[T]) Delete(ctx context.Context, key string) error {
	cmd := r.client.B().Del().Key(r.key(key)).Build()
	if err := r.client.Do(ctx, cmd).Error(); err != nil {
		return fmt.Errorf("%w: %v", ErrCacheUnavailable, err)
	}
	return nil
}

func (r *RueidisCache[T]) Close() error {
	r.client.Close()
	return nil
}

// Health pings Redis.
func (r *RueidisCache[T]) Health(ctx context.Context) error {
	if err := r.client.Do(ctx, r.client.B().Ping().Build()).Error(); err != nil {
		return fmt.Errorf("%w: %v", ErrCacheUnavailable, err)
	}
	return nil
}
