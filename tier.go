package fetchcache

import (
	"context"
	"time"

	c "github.com/unkn0wn-root/fetchcache/codec"
	gen "github.com/unkn0wn-root/fetchcache/genstore"
	"github.com/unkn0wn-root/fetchcache/internal/wire"
	pr "github.com/unkn0wn-root/fetchcache/provider"
)

// tier is the optional byte-store behind the in-memory state.
// Entries are framed with a per-key generation; a write only lands if the
// generation observed before the fetcher call is still current.
type tier[V any] struct {
	provider    pr.Provider
	codec       c.Codec[V]
	gen         gen.GenStore
	ttl         time.Duration
	notFoundTTL time.Duration
	cost        SetCostFunc
	log         Logger
	hooks       Hooks
}

// load returns (value, found, hit). hit=false means the fetcher must be called.
func (t *tier[V]) load(ctx context.Context, sk string) (V, bool, bool) {
	var zero V
	raw, ok, err := t.provider.Get(ctx, sk)
	if err != nil {
		t.hooks.TierError(sk, "get", err)
		return zero, false, false
	}
	if !ok {
		return zero, false, false
	}
	e, err := wire.Decode(raw)
	if err != nil {
		t.heal(ctx, sk, "corrupt")
		return zero, false, false
	}
	cur, ok := t.snapshot(ctx, sk)
	if !ok {
		return zero, false, false
	}
	if e.Gen != cur {
		t.heal(ctx, sk, "gen_mismatch")
		return zero, false, false
	}
	if !e.Found {
		return zero, false, true
	}
	v, err := t.codec.Decode(e.Payload)
	if err != nil {
		t.heal(ctx, sk, "value_decode")
		return zero, false, false
	}
	return v, true, true
}

func (t *tier[V]) heal(ctx context.Context, sk, reason string) {
	_ = t.provider.Del(ctx, sk)
	t.hooks.TierSelfHeal(sk, reason)
	t.log.Debug("tier entry dropped", Fields{"key": sk, "reason": reason})
}

// snapshot returns the current generation; ok=false on gen store errors.
func (t *tier[V]) snapshot(ctx context.Context, sk string) (uint64, bool) {
	g, err := t.gen.Snapshot(ctx, sk)
	if err != nil {
		t.hooks.TierError(sk, "snapshot", err)
		t.log.Warn("gen snapshot error", Fields{"key": sk, "err": err})
		return 0, false
	}
	return g, true
}

// store writes a fetched result iff the generation has not moved since obs.
func (t *tier[V]) store(ctx context.Context, sk string, obs uint64, v V, found bool) {
	cur, ok := t.snapshot(ctx, sk)
	if !ok {
		return
	}
	if cur != obs {
		// invalidated while the fetch was in flight; skip stale write
		t.log.Debug("tier write skipped (gen mismatch)", Fields{"key": sk, "obs": obs, "cur": cur})
		return
	}
	var payload []byte
	if found {
		var err error
		if payload, err = t.codec.Encode(v); err != nil {
			t.hooks.TierError(sk, "set", err)
			t.log.Warn("tier encode failed", Fields{"key": sk, "err": err})
			return
		}
	}
	b, err := wire.Encode(wire.Entry{Gen: obs, Found: found, Payload: payload})
	if err != nil {
		t.hooks.TierError(sk, "set", err)
		return
	}
	ttl := t.ttl
	if !found {
		ttl = t.notFoundTTL
	}
	stored, err := t.provider.Set(ctx, sk, b, t.cost(sk, b, found), ttl)
	if err != nil {
		t.hooks.TierError(sk, "set", err)
		t.log.Warn("tier set failed", Fields{"key": sk, "err": err})
		return
	}
	if !stored {
		t.log.Debug("tier set rejected by provider (pressure)", Fields{"key": sk})
	}
}

// invalidate bumps the generation and deletes the entry.
// Only a double failure is returned; either step alone is enough to stop serving the old value
// (a bumped gen fences the frame, a deleted frame cannot be read).
func (t *tier[V]) invalidate(ctx context.Context, key, sk string) error {
	newGen, bumpErr := t.gen.Bump(ctx, sk)
	if bumpErr != nil {
		t.hooks.TierError(sk, "bump", bumpErr)
	}
	delErr := t.provider.Del(ctx, sk)
	if delErr != nil {
		t.hooks.TierError(sk, "del", delErr)
	}
	if bumpErr != nil && delErr != nil {
		t.hooks.InvalidateOutage(key, bumpErr, delErr)
		return &InvalidateError{Key: key, BumpErr: bumpErr, DelErr: delErr}
	}
	t.log.Debug("invalidated key (bumped gen + cleared tier)", Fields{"key": key, "newGen": newGen})
	return nil
}

func (t *tier[V]) close(ctx context.Context) error {
	// gen store first (best effort)
	_ = t.gen.Close(ctx)
	return t.provider.Close(ctx)
}
