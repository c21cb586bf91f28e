// Package sloghooks logs fetchcache events and reported errors with log/slog.
package sloghooks

import (
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/unkn0wn-root/fetchcache"
)

type Options struct {
	// Sampling to avoid floods; 0/1 = log all.
	DedupEvery    uint64
	SelfHealEvery uint64
	// Optional key redactor for tier storage keys. Defaults to SHA-256 prefix.
	Redact func(string) string
}

type Hooks struct {
	l    *slog.Logger
	opts Options

	dedupCtr    atomic.Uint64
	selfHealCtr atomic.Uint64
}

var (
	_ fetchcache.Hooks    = (*Hooks)(nil)
	_ fetchcache.Reporter = (*Hooks)(nil)
)

func New(l *slog.Logger, opts Options) *Hooks {
	return &Hooks{l: l, opts: opts}
}

func (h *Hooks) redact(k string) string {
	if h.opts.Redact != nil {
		return h.opts.Redact(k)
	}
	sum := sha256.Sum256([]byte(k))
	return hex.EncodeToString(sum[:8])
}

func sample(n uint64, ctr *atomic.Uint64) bool {
	if n == 0 || n == 1 {
		return true
	}
	return ctr.Add(1)%n == 0
}

func (h *Hooks) FetchDeduped(ns, key string) {
	if h.l == nil || !sample(h.opts.DedupEvery, &h.dedupCtr) {
		return
	}
	h.l.Debug("fetchcache.fetch_deduped", "ns", ns, "key", key)
}

func (h *Hooks) FetchCompleted(ns string, status fetchcache.Status, found bool, elapsed time.Duration) {
	if h.l == nil {
		return
	}
	h.l.Debug("fetchcache.fetch_completed",
		"ns", ns,
		"status", status.String(),
		"found", found,
		"elapsed", elapsed)
}

func (h *Hooks) StaleDropped(ns, key, endpoint string) {
	if h.l == nil {
		return
	}
	h.l.Info("fetchcache.stale_dropped",
		"ns", ns,
		"key", key,
		"endpoint", endpoint)
}

func (h *Hooks) Cleared(ns, endpoint string) {
	if h.l == nil {
		return
	}
	h.l.Info("fetchcache.cleared", "ns", ns, "endpoint", endpoint)
}

func (h *Hooks) TierHit(string) {}

func (h *Hooks) TierSelfHeal(storageKey, reason string) {
	if h.l == nil || !sample(h.opts.SelfHealEvery, &h.selfHealCtr) {
		return
	}
	h.l.Debug("fetchcache.tier_self_heal",
		"key", h.redact(storageKey),
		"reason", reason)
}

func (h *Hooks) TierError(storageKey, op string, err error) {
	if h.l == nil {
		return
	}
	h.l.Warn("fetchcache.tier_error",
		"key", h.redact(storageKey),
		"op", op,
		"err", err)
}

func (h *Hooks) InvalidateOutage(storageKey string, bumpErr, delErr error) {
	if h.l == nil {
		return
	}
	h.l.Error("fetchcache.invalidate_outage",
		"key", h.redact(storageKey),
		"bump_err", bumpErr,
		"del_err", delErr)
}

// ReportError lets Hooks double as the cache's Reporter when no error tracker is wired.
func (h *Hooks) ReportError(err error, rc fetchcache.ReportContext) {
	if h.l == nil {
		return
	}
	h.l.Error("fetchcache.fetch_error",
		"ns", rc.Namespace,
		"key", rc.Key,
		"endpoint", rc.Endpoint,
		"cluster", rc.Cluster.String(),
		"err", err)
}
