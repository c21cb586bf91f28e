package fetchcache

import (
	"context"
	"time"

	c "github.com/unkn0wn-root/fetchcache/codec"
	gen "github.com/unkn0wn-root/fetchcache/genstore"
	pr "github.com/unkn0wn-root/fetchcache/provider"
)

type SetCostFunc func(key string, raw []byte, found bool) int64

// Fetcher is the remote collaborator. Return ErrNotFound (or an error wrapping it)
// when the node answered but the entity does not exist.
type Fetcher[K comparable, V any] interface {
	Fetch(ctx context.Context, endpoint string, key K) (V, error)
}

// FetcherFunc adapts a function to Fetcher.
type FetcherFunc[K comparable, V any] func(ctx context.Context, endpoint string, key K) (V, error)

func (f FetcherFunc[K, V]) Fetch(ctx context.Context, endpoint string, key K) (V, error) {
	return f(ctx, endpoint, key)
}

// Cache is the coordinated fetch cache for one entity type, scoped to one cluster binding.
// All methods except Close panic with *UsageError once the cache is closed.
type Cache[K comparable, V any] interface {
	// Surface
	Get(key K) (Entry[K, V], bool)
	GetMany(keys []K) []Entry[K, V] // same order and length as keys; unknown keys are Idle
	Snapshot() *State[K, V]
	Subscribe(keys []K, fn func(Change[K])) (cancel func())

	// Coordinator
	Fetch(ctx context.Context, key K, force bool) bool
	FetchMany(ctx context.Context, keys []K, force bool) int

	// Cluster binding
	Cluster() Cluster
	SetCluster(cl Cluster)

	// Second tier (no-op without a Provider)
	Invalidate(ctx context.Context, key K) error

	Namespace() string
	Close(context.Context) error
}

// Options tune the behavior of the fetch cache.
// Namespace, Fetcher and Cluster are required; others have sensible defaults.
type Options[K comparable, V any] struct {
	// Required
	Namespace string // e.g. "block", "account", "tx"
	Fetcher   Fetcher[K, V]
	Cluster   Cluster // initial binding; URL must be set

	KeyString   func(K) string // logs, reports, tier keys; nil => fmt.Sprint
	Logger      Logger         // if nil, NopLogger is used
	Hooks       Hooks          // if nil, NopHooks is used
	Reporter    Reporter       // if nil, failures are not reported
	MaxInFlight int64          // concurrent fetcher calls; 0 => unlimited
	BatchLimit  int            // FetchMany fan-out; 0 => 8

	// Second tier; disabled when Provider is nil.
	Provider        pr.Provider
	Codec           c.Codec[V]    // required with Provider
	GenStore        gen.GenStore  // nil => LocalGenStore (in-process)
	TTL             time.Duration // found entries; 0 => 10m
	NotFoundTTL     time.Duration // not-found entries; 0 => 1m
	CleanupInterval time.Duration // local gen store sweep; 0 => 1h
	GenRetention    time.Duration // 0 => 30d
	ComputeSetCost  SetCostFunc   // default 1
}

func New[K comparable, V any](opts Options[K, V]) (Cache[K, V], error) {
	return newCache[K, V](opts)
}
