// Package genstore keeps a generation counter per tier storage key.
// A tier frame is only served while its stamped generation equals the current one,
// so bumping a key's generation fences every copy of it, including copies in
// other replicas sharing the same provider.
package genstore

import (
	"context"
	"time"
)

// GenStore abstracts where generations live.
// Use Local (default) for one process, or Redis when replicas share a tier provider.
type GenStore interface {
	// Snapshot returns the current generation; missing => 0.
	Snapshot(ctx context.Context, storageKey string) (uint64, error)
	// Bump atomically increments and returns the new generation.
	Bump(ctx context.Context, storageKey string) (uint64, error)
	// Cleanup prunes generations not bumped within retention (no-op for Redis).
	Cleanup(retention time.Duration)
	// Close releases resources (no-op ok).
	Close(context.Context) error
}
