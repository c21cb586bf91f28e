// Package asynchook moves Hooks and Reporter calls off the fetch path.
//
//	raw := sloghooks.New(slog.Default(), sloghooks.Options{SelfHealEvery: 10})
//	hooks := asynchook.New(raw, 1, 1000) // 1 worker; queue 1000 events
//	defer hooks.Close()
//
//	blocks, _ := fetchcache.New[uint64, Block](fetchcache.Options[uint64, Block]{
//	    Namespace: "block",
//	    Fetcher:   src,
//	    Cluster:   cl,
//	    Hooks:     hooks,
//	    Reporter:  asynchook.NewReporter(sentry, 1, 256),
//	})
//
// Events are dropped, never queued unboundedly, when a worker falls behind.
package asynchook

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/unkn0wn-root/fetchcache"
)

type queue struct {
	q       chan func()
	wg      sync.WaitGroup
	once    sync.Once
	mu      sync.RWMutex
	closed  bool
	dropped atomic.Uint64
}

func newQueue(workers, qlen int) *queue {
	if workers <= 0 {
		workers = 1
	}
	if qlen <= 0 {
		qlen = 1024
	}
	q := &queue{q: make(chan func(), qlen)}
	q.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer q.wg.Done()
			for f := range q.q {
				f()
			}
		}()
	}
	return q
}

// try enqueues f or drops it. Calls after close are dropped too.
func (q *queue) try(f func()) {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		q.dropped.Add(1)
		return
	}
	select {
	case q.q <- f:
	default:
		q.dropped.Add(1)
	}
}

// close drains queued events and stops the workers.
func (q *queue) close() {
	q.once.Do(func() {
		q.mu.Lock()
		q.closed = true
		close(q.q)
		q.mu.Unlock()
		q.wg.Wait()
	})
}

type Hooks struct {
	inner fetchcache.Hooks
	*queue
}

var _ fetchcache.Hooks = (*Hooks)(nil)

func New(inner fetchcache.Hooks, workers, qlen int) *Hooks {
	return &Hooks{inner: inner, queue: newQueue(workers, qlen)}
}

func (h *Hooks) Close() { h.close() }

// Dropped reports how many events were discarded because the queue was full.
func (h *Hooks) Dropped() uint64 { return h.dropped.Load() }

func (h *Hooks) FetchDeduped(ns, k string) { h.try(func() { h.inner.FetchDeduped(ns, k) }) }
func (h *Hooks) Cleared(ns, ep string)     { h.try(func() { h.inner.Cleared(ns, ep) }) }
func (h *Hooks) TierHit(ns string)         { h.try(func() { h.inner.TierHit(ns) }) }
func (h *Hooks) TierSelfHeal(k, r string)  { h.try(func() { h.inner.TierSelfHeal(k, r) }) }
func (h *Hooks) FetchCompleted(ns string, st fetchcache.Status, found bool, d time.Duration) {
	h.try(func() { h.inner.FetchCompleted(ns, st, found, d) })
}
func (h *Hooks) StaleDropped(ns, k, ep string) {
	h.try(func() { h.inner.StaleDropped(ns, k, ep) })
}
func (h *Hooks) TierError(k, op string, err error) {
	h.try(func() { h.inner.TierError(k, op, err) })
}
func (h *Hooks) InvalidateOutage(k string, be, de error) {
	h.try(func() { h.inner.InvalidateOutage(k, be, de) })
}

// Reporter forwards ReportError to inner on a worker goroutine. Error trackers
// usually do network IO per report.
type Reporter struct {
	inner fetchcache.Reporter
	*queue
}

var _ fetchcache.Reporter = (*Reporter)(nil)

func NewReporter(inner fetchcache.Reporter, workers, qlen int) *Reporter {
	return &Reporter{inner: inner, queue: newQueue(workers, qlen)}
}

func (r *Reporter) Close() { r.close() }

func (r *Reporter) Dropped() uint64 { return r.dropped.Load() }

func (r *Reporter) ReportError(err error, rc fetchcache.ReportContext) {
	r.try(func() { r.inner.ReportError(err, rc) })
}
