package providers

import (
	"context"
	"errors"
	"time"
)

// ErrCacheMiss is returned by Get when the key is absent or expired
var ErrCacheMiss = errors.New("cache miss")

// CacheProvider defines the interface for the snapshot cache
type CacheProvider interface {
	// Get retrieves a value, or ErrCacheMiss
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores a value with a time to live; ttl <= 0 means no expiry
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes a value
	Delete(ctx context.Context, key string) error
}
