package genstore

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis shares per-key generations across explorer replicas and survives restarts.
// With a TTL, a generation key that is not bumped for ttl expires; readers then
// observe gen=0 and tier frames stamped with a higher gen self-heal.
type Redis struct {
	rdb redis.UniversalClient
	ns  string        // prefix for gen keys; use the same value on every replica
	ttl time.Duration // 0 disables expiry
}

var _ GenStore = (*Redis)(nil)

// NewRedisGenStore creates a Redis-backed generation store. ttl <= 0 keeps keys forever.
func NewRedisGenStore(client redis.UniversalClient, namespace string, ttl time.Duration) *Redis {
	return &Redis{rdb: client, ns: namespace, ttl: ttl}
}

func (s *Redis) key(k string) string { return "gen:" + s.ns + ":" + k }

// Snapshot returns the current generation. Missing keys read as 0.
func (s *Redis) Snapshot(ctx context.Context, storageKey string) (uint64, error) {
	res, err := s.rdb.Get(ctx, s.key(storageKey)).Result()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	u, err := strconv.ParseUint(res, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("redis gen parse %s: %w", storageKey, err)
	}
	return u, nil
}

// Bump increments the generation; with a TTL, INCR and EXPIRE share one pipeline round-trip.
func (s *Redis) Bump(ctx context.Context, storageKey string) (uint64, error) {
	k := s.key(storageKey)
	if s.ttl <= 0 {
		return s.rdb.Incr(ctx, k).Uint64()
	}

	var incr *redis.IntCmd
	_, err := s.rdb.Pipelined(ctx, func(p redis.Pipeliner) error {
		incr = p.Incr(ctx, k)
		p.Expire(ctx, k, s.ttl)
		return nil
	})
	if err != nil {
		return 0, err
	}
	return incr.Uint64()
}

// Cleanup is not applicable; Redis expires keys itself when a TTL is set.
func (s *Redis) Cleanup(time.Duration) {}

// Close leaves the client open; it is usually shared with the tier provider.
func (s *Redis) Close(context.Context) error { return nil }
