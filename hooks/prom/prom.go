// Package promhooks exports fetchcache events as Prometheus metrics.
package promhooks

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/unkn0wn-root/fetchcache"
)

// Hooks is safe to share between caches; series are labelled by namespace.
type Hooks struct {
	deduped    *prometheus.CounterVec
	fetches    *prometheus.CounterVec
	latency    *prometheus.HistogramVec
	stale      *prometheus.CounterVec
	clears     *prometheus.CounterVec
	tierHits   *prometheus.CounterVec
	selfHeals  *prometheus.CounterVec
	tierErrors *prometheus.CounterVec
	outages    prometheus.Counter
	reported   *prometheus.CounterVec
	collectors []prometheus.Collector
}

var (
	_ fetchcache.Hooks    = (*Hooks)(nil)
	_ fetchcache.Reporter = (*Hooks)(nil)
)

// New builds the collectors under prefix (e.g. "explorer") and registers them on reg.
// A nil reg skips registration.
func New(reg prometheus.Registerer, prefix string) (*Hooks, error) {
	h := &Hooks{
		deduped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: prefix, Subsystem: "fetchcache", Name: "fetch_deduped_total",
			Help: "Fetches skipped because one for the same key was in flight.",
		}, []string{"ns"}),
		fetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: prefix, Subsystem: "fetchcache", Name: "fetches_total",
			Help: "Completed fetches by outcome.",
		}, []string{"ns", "outcome"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: prefix, Subsystem: "fetchcache", Name: "fetch_duration_seconds",
			Help:    "Time from fetch start to Fetched/FetchFailed.",
			Buckets: prometheus.ExponentialBuckets(0.005, 2, 12),
		}, []string{"ns"}),
		stale: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: prefix, Subsystem: "fetchcache", Name: "stale_dropped_total",
			Help: "Updates dropped because their endpoint no longer matched.",
		}, []string{"ns"}),
		clears: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: prefix, Subsystem: "fetchcache", Name: "clears_total",
			Help: "Store clears caused by cluster switches.",
		}, []string{"ns"}),
		tierHits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: prefix, Subsystem: "fetchcache", Name: "tier_hits_total",
			Help: "Fetches served from the second tier.",
		}, []string{"ns"}),
		selfHeals: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: prefix, Subsystem: "fetchcache", Name: "tier_self_heals_total",
			Help: "Tier entries deleted on read.",
		}, []string{"reason"}),
		tierErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: prefix, Subsystem: "fetchcache", Name: "tier_errors_total",
			Help: "Failed tier operations.",
		}, []string{"op"}),
		outages: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: prefix, Subsystem: "fetchcache", Name: "invalidate_outages_total",
			Help: "Invalidations where both gen bump and delete failed.",
		}),
		reported: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: prefix, Subsystem: "fetchcache", Name: "reported_errors_total",
			Help: "Fetch failures forwarded to error reporting.",
		}, []string{"ns", "cluster"}),
	}
	h.collectors = []prometheus.Collector{
		h.deduped, h.fetches, h.latency, h.stale, h.clears,
		h.tierHits, h.selfHeals, h.tierErrors, h.outages, h.reported,
	}
	if reg != nil {
		for _, c := range h.collectors {
			if err := reg.Register(c); err != nil {
				return nil, err
			}
		}
	}
	return h, nil
}

// Unregister removes every collector from reg.
func (h *Hooks) Unregister(reg prometheus.Registerer) {
	for _, c := range h.collectors {
		reg.Unregister(c)
	}
}

func outcome(status fetchcache.Status, found bool) string {
	switch {
	case status == fetchcache.FetchFailed:
		return "failed"
	case !found:
		return "not_found"
	}
	return "found"
}

func (h *Hooks) FetchDeduped(ns, _ string) { h.deduped.WithLabelValues(ns).Inc() }

func (h *Hooks) FetchCompleted(ns string, status fetchcache.Status, found bool, elapsed time.Duration) {
	h.fetches.WithLabelValues(ns, outcome(status, found)).Inc()
	h.latency.WithLabelValues(ns).Observe(elapsed.Seconds())
}

func (h *Hooks) StaleDropped(ns, _, _ string)          { h.stale.WithLabelValues(ns).Inc() }
func (h *Hooks) Cleared(ns, _ string)                  { h.clears.WithLabelValues(ns).Inc() }
func (h *Hooks) TierHit(ns string)                     { h.tierHits.WithLabelValues(ns).Inc() }
func (h *Hooks) TierSelfHeal(_, reason string)         { h.selfHeals.WithLabelValues(reason).Inc() }
func (h *Hooks) TierError(_, op string, _ error)       { h.tierErrors.WithLabelValues(op).Inc() }
func (h *Hooks) InvalidateOutage(string, error, error) { h.outages.Inc() }

func (h *Hooks) ReportError(_ error, rc fetchcache.ReportContext) {
	h.reported.WithLabelValues(rc.Namespace, rc.Cluster.String()).Inc()
}
