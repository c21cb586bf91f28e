// Package provider defines the byte store behind the optional second tier.
//
// Implementations MUST be byte-for-byte transparent: Get must return exactly the
// bytes previously passed to Set for a key. Internal transforms (compression etc.)
// must be fully reversed.
//
// The keyspace "entry:<ns>:" is owned by fetchcache. Foreign writes under it fail
// frame validation and are deleted on read.
package provider

import (
	"context"
	"time"
)

// Provider is a minimal byte store with TTLs. Must be safe for concurrent use.
type Provider interface {
	// Get returns (value, true, nil) on hit; (nil, false, nil) on miss.
	// If an IO/remote error happens, return (nil, false, err).
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores value with the given TTL (ttl <= 0 => no expiry). May ignore cost.
	// Returns ok=false when the store rejected the write under pressure.
	Set(ctx context.Context, key string, value []byte, cost int64, ttl time.Duration) (ok bool, err error)

	// Del removes a key. Deleting a missing key is not an error.
	Del(ctx context.Context, key string) error

	// Close releases resources.
	Close(ctx context.Context) error
}
