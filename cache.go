package fetchcache

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	gen "github.com/unkn0wn-root/fetchcache/genstore"
	"github.com/unkn0wn-root/fetchcache/internal/util"
)

type cache[K comparable, V any] struct {
	ns        string
	fetcher   Fetcher[K, V]
	keyString func(K) string
	log       Logger
	hooks     Hooks
	reporter  Reporter
	sem       *semaphore.Weighted // nil => unlimited
	batch     int
	tier      *tier[V] // nil => memory only

	// mu serializes dispatches and rebinding; readers only load state.
	mu      sync.Mutex
	cluster Cluster
	state   atomic.Pointer[State[K, V]]
	subs    *registry[K]

	closed    atomic.Bool
	closeOnce sync.Once
	closeErr  error
}

func newCache[K comparable, V any](opts Options[K, V]) (*cache[K, V], error) {
	if opts.Fetcher == nil {
		return nil, fmt.Errorf("fetchcache: fetcher is required")
	}
	if opts.Namespace == "" {
		return nil, fmt.Errorf("fetchcache: namespace is required")
	}
	if opts.Cluster.URL == "" {
		return nil, fmt.Errorf("fetchcache: cluster URL is required")
	}
	if opts.Provider != nil && opts.Codec == nil {
		return nil, fmt.Errorf("fetchcache: codec is required when a provider is set")
	}
	if opts.MaxInFlight < 0 || opts.BatchLimit < 0 {
		return nil, fmt.Errorf("fetchcache: negative concurrency limit")
	}

	c := &cache[K, V]{
		ns:      opts.Namespace,
		fetcher: opts.Fetcher,
		cluster: opts.Cluster,
		subs:    newRegistry[K](),
	}

	// defaults
	c.log = coalesce[Logger](opts.Logger, NopLogger{})
	c.hooks = coalesce[Hooks](opts.Hooks, NopHooks{})
	c.reporter = coalesce[Reporter](opts.Reporter, NopReporter{})
	c.batch = coalesce(opts.BatchLimit, defaultBatchLimit)
	if opts.KeyString != nil {
		c.keyString = opts.KeyString
	} else {
		c.keyString = defaultKeyString[K]
	}
	if opts.MaxInFlight > 0 {
		c.sem = semaphore.NewWeighted(opts.MaxInFlight)
	}

	if opts.Provider != nil {
		t := &tier[V]{
			provider:    opts.Provider,
			codec:       opts.Codec,
			ttl:         coalesce(opts.TTL, defaultTTL),
			notFoundTTL: coalesce(opts.NotFoundTTL, defaultNotFoundTTL),
			log:         c.log,
			hooks:       c.hooks,
		}
		if opts.ComputeSetCost != nil {
			t.cost = opts.ComputeSetCost
		} else {
			t.cost = func(string, []byte, bool) int64 { return 1 }
		}
		if opts.GenStore != nil {
			t.gen = opts.GenStore
		} else {
			// in-process generations with periodic cleanup
			t.gen = gen.NewLocalGenStore(
				coalesce(opts.CleanupInterval, defaultSweep),
				coalesce(opts.GenRetention, defaultGenRetention),
			)
		}
		c.tier = t
	}

	c.state.Store(NewState[K, V](opts.Cluster.URL))
	return c, nil
}

func (c *cache[K, V]) mustOpen(op string) {
	if c.closed.Load() {
		panic(&UsageError{Op: op, Namespace: c.ns})
	}
}

func (c *cache[K, V]) Namespace() string { return c.ns }

func (c *cache[K, V]) Get(key K) (Entry[K, V], bool) {
	c.mustOpen("Get")
	return c.state.Load().Entry(key)
}

func (c *cache[K, V]) GetMany(keys []K) []Entry[K, V] {
	c.mustOpen("GetMany")
	st := c.state.Load() // one snapshot for the whole batch
	out := make([]Entry[K, V], len(keys))
	for i, k := range keys {
		out[i], _ = st.Entry(k)
	}
	return out
}

func (c *cache[K, V]) Snapshot() *State[K, V] {
	c.mustOpen("Snapshot")
	return c.state.Load()
}

func (c *cache[K, V]) Subscribe(keys []K, fn func(Change[K])) func() {
	c.mustOpen("Subscribe")
	if fn == nil {
		panic(&UsageError{Op: "Subscribe(nil listener)", Namespace: c.ns})
	}
	return c.subs.add(keys, fn)
}

func (c *cache[K, V]) Cluster() Cluster {
	c.mustOpen("Cluster")
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cluster
}

// SetCluster rebinds and clears under the dispatch lock, so no snapshot ever
// pairs the new binding with old entries.
func (c *cache[K, V]) SetCluster(cl Cluster) {
	c.mustOpen("SetCluster")
	c.mu.Lock()
	if cl == c.cluster {
		c.mu.Unlock()
		return
	}
	prev := c.cluster
	c.cluster = cl
	ch, changed := c.applyLocked(ClearAction[K, V](cl.URL))
	c.mu.Unlock()

	c.hooks.Cleared(c.ns, cl.URL)
	c.log.Debug("cluster changed; store cleared", Fields{"ns": c.ns, "from": prev.String(), "to": cl.String()})
	if changed {
		c.subs.notify(ch)
	}
}

// applyLocked publishes Reduce(current, a). Caller holds mu.
func (c *cache[K, V]) applyLocked(a Action[K, V]) (Change[K], bool) {
	cur := c.state.Load()
	next := Reduce(cur, a)
	if next == cur {
		return Change[K]{}, false
	}
	c.state.Store(next)
	if a.Kind == ActionClear {
		return Change[K]{Cleared: true, Endpoint: a.Endpoint}, true
	}
	return Change[K]{Keys: []K{a.Key}, Endpoint: a.Endpoint}, true
}

func (c *cache[K, V]) dispatch(a Action[K, V]) {
	c.mu.Lock()
	if c.closed.Load() {
		c.mu.Unlock()
		return
	}
	stale := a.Kind == ActionUpdate && a.Endpoint != c.state.Load().Endpoint()
	ch, changed := c.applyLocked(a)
	c.mu.Unlock()

	if stale {
		ks := c.keyString(a.Key)
		c.hooks.StaleDropped(c.ns, ks, a.Endpoint)
		c.log.Debug("update dropped (stale endpoint)", Fields{"ns": c.ns, "key": ks, "endpoint": a.Endpoint})
		return
	}
	if changed {
		c.subs.notify(ch)
	}
}

// Fetch loads key from the bound cluster and blocks until the result is dispatched.
// It reports whether a fetch was started; false means one was already in flight.
// Failures are recorded as FetchFailed, never returned.
func (c *cache[K, V]) Fetch(ctx context.Context, key K, force bool) bool {
	c.mustOpen("Fetch")
	return c.fetch(ctx, key, force)
}

// FetchMany fetches keys concurrently (at most BatchLimit at a time) and waits for all of them.
// It returns the number of fetches started.
func (c *cache[K, V]) FetchMany(ctx context.Context, keys []K, force bool) int {
	c.mustOpen("FetchMany")
	var started atomic.Int64
	var g errgroup.Group
	g.SetLimit(c.batch)
	for _, k := range keys {
		g.Go(func() error {
			if c.fetch(ctx, k, force) {
				started.Add(1)
			}
			return nil
		})
	}
	_ = g.Wait()
	return int(started.Load())
}

func (c *cache[K, V]) fetch(ctx context.Context, key K, force bool) bool {
	cl, ok := c.begin(key, force)
	if !ok {
		return false
	}
	c.run(ctx, key, cl, force)
	return true
}

// begin checks for an in-flight fetch and marks key Fetching in one critical section.
func (c *cache[K, V]) begin(key K, force bool) (Cluster, bool) {
	var zero V
	c.mu.Lock()
	cl := c.cluster
	if c.closed.Load() {
		c.mu.Unlock()
		return cl, false
	}
	if e, ok := c.state.Load().Entry(key); ok && e.Status == Fetching && !force {
		c.mu.Unlock()
		ks := c.keyString(key)
		c.hooks.FetchDeduped(c.ns, ks)
		c.log.Debug("fetch skipped (in flight)", Fields{"ns": c.ns, "key": ks})
		return cl, false
	}
	ch, changed := c.applyLocked(UpdateAction(key, Fetching, zero, false, nil, cl.URL))
	c.mu.Unlock()

	if changed {
		c.subs.notify(ch)
	}
	return cl, true
}

// run performs the fetch for the binding captured by begin. Everything it
// dispatches is stamped with cl.URL, so a rebind in between fences the result.
func (c *cache[K, V]) run(ctx context.Context, key K, cl Cluster, force bool) {
	var zero V
	start := time.Now()
	ks := c.keyString(key)

	if c.sem != nil {
		if err := c.sem.Acquire(ctx, 1); err != nil {
			c.fail(key, ks, cl, err, start)
			return
		}
		defer c.sem.Release(1)
	}

	var (
		sk     string
		obs    uint64
		fenced bool // a tier write may follow
	)
	if c.tier != nil {
		sk = util.StorageKey(c.ns, cl.URL, ks)
		if !force {
			if v, found, hit := c.tier.load(ctx, sk); hit {
				c.hooks.TierHit(c.ns)
				c.complete(key, cl, v, found, start)
				return
			}
		}
		obs, fenced = c.tier.snapshot(ctx, sk)
	}

	v, err := c.fetcher.Fetch(ctx, cl.URL, key)
	switch {
	case err == nil:
		c.complete(key, cl, v, true, start)
		if fenced {
			c.tier.store(ctx, sk, obs, v, true)
		}
	case errors.Is(err, ErrNotFound):
		c.complete(key, cl, zero, false, start)
		if fenced {
			c.tier.store(ctx, sk, obs, zero, false)
		}
	default:
		c.fail(key, ks, cl, err, start)
	}
}

func (c *cache[K, V]) complete(key K, cl Cluster, v V, found bool, start time.Time) {
	c.dispatch(UpdateAction(key, Fetched, v, found, nil, cl.URL))
	c.hooks.FetchCompleted(c.ns, Fetched, found, time.Since(start))
}

func (c *cache[K, V]) fail(key K, ks string, cl Cluster, err error, start time.Time) {
	var zero V
	c.dispatch(UpdateAction(key, FetchFailed, zero, false, err, cl.URL))
	c.hooks.FetchCompleted(c.ns, FetchFailed, false, time.Since(start))
	c.log.Warn("fetch failed", Fields{"ns": c.ns, "key": ks, "endpoint": cl.URL, "err": err})

	if cl.Kind.SuppressesReports() || errors.Is(err, context.Canceled) {
		return
	}
	c.reporter.ReportError(
		&FetchError{Namespace: c.ns, Key: ks, Endpoint: cl.URL, Err: err},
		ReportContext{Namespace: c.ns, Key: ks, Endpoint: cl.URL, Cluster: cl.Kind},
	)
}

func (c *cache[K, V]) Invalidate(ctx context.Context, key K) error {
	c.mustOpen("Invalidate")
	if c.tier == nil {
		return nil
	}
	ks := c.keyString(key)
	cl := c.Cluster()
	return c.tier.invalidate(ctx, ks, util.StorageKey(c.ns, cl.URL, ks))
}

// Close stops notifications, drops late dispatches and releases the tier.
// It is safe to call more than once.
func (c *cache[K, V]) Close(ctx context.Context) error {
	c.closeOnce.Do(func() {
		c.mu.Lock()
		c.closed.Store(true)
		c.mu.Unlock()
		c.subs.reset()
		if c.tier != nil {
			c.closeErr = c.tier.close(ctx)
		}
	})
	return c.closeErr
}
