package fetchcache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

type testBlock struct {
	Blockhash string `json:"blockhash"`
}

// gatedFetcher blocks every call until release is closed.
type gatedFetcher struct {
	calls   atomic.Int64
	entered chan uint64
	release chan struct{}
	result  func(endpoint string, key uint64) (testBlock, error)
}

func newGatedFetcher() *gatedFetcher {
	return &gatedFetcher{
		entered: make(chan uint64, 16),
		release: make(chan struct{}),
		result: func(_ string, key uint64) (testBlock, error) {
			return testBlock{Blockhash: "abc"}, nil
		},
	}
}

func (f *gatedFetcher) Fetch(ctx context.Context, endpoint string, key uint64) (testBlock, error) {
	f.calls.Add(1)
	f.entered <- key
	select {
	case <-f.release:
	case <-ctx.Done():
		return testBlock{}, ctx.Err()
	}
	return f.result(endpoint, key)
}

type recordingReporter struct {
	mu   sync.Mutex
	errs []error
	rcs  []ReportContext
}

func (r *recordingReporter) ReportError(err error, rc ReportContext) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.errs = append(r.errs, err)
	r.rcs = append(r.rcs, rc)
}

func (r *recordingReporter) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.errs)
}

type countingHooks struct {
	NopHooks
	deduped   atomic.Int64
	stale     atomic.Int64
	cleared   atomic.Int64
	tierHits  atomic.Int64
	selfHeals atomic.Int64
	outages   atomic.Int64
}

func (h *countingHooks) FetchDeduped(string, string)           { h.deduped.Add(1) }
func (h *countingHooks) StaleDropped(string, string, string)   { h.stale.Add(1) }
func (h *countingHooks) Cleared(string, string)                { h.cleared.Add(1) }
func (h *countingHooks) TierHit(string)                        { h.tierHits.Add(1) }
func (h *countingHooks) TierSelfHeal(string, string)           { h.selfHeals.Add(1) }
func (h *countingHooks) InvalidateOutage(string, error, error) { h.outages.Add(1) }

func staticFetcher(fn func(endpoint string, key uint64) (testBlock, error)) (Fetcher[uint64, testBlock], *atomic.Int64) {
	var calls atomic.Int64
	return FetcherFunc[uint64, testBlock](func(_ context.Context, endpoint string, key uint64) (testBlock, error) {
		calls.Add(1)
		return fn(endpoint, key)
	}), &calls
}

func newTestCache(t *testing.T, f Fetcher[uint64, testBlock], mut func(*Options[uint64, testBlock])) *cache[uint64, testBlock] {
	t.Helper()
	opts := Options[uint64, testBlock]{
		Namespace: "block",
		Fetcher:   f,
		Cluster:   NewCluster(MainnetBeta),
	}
	if mut != nil {
		mut(&opts)
	}
	c, err := newCache(opts)
	if err != nil {
		t.Fatalf("newCache: %v", err)
	}
	t.Cleanup(func() { _ = c.Close(context.Background()) })
	return c
}

func waitEntered(t *testing.T, f *gatedFetcher) uint64 {
	t.Helper()
	select {
	case k := <-f.entered:
		return k
	case <-time.After(2 * time.Second):
		t.Fatal("fetcher was not called")
		return 0
	}
}

var errRPC = errors.New("rpc: 503 service unavailable")
