package fetchcache

import (
	"fmt"
	"time"
)

const (
	defaultTTL          = 10 * time.Minute
	defaultNotFoundTTL  = time.Minute
	defaultGenRetention = 30 * 24 * time.Hour
	defaultSweep        = time.Hour
	defaultBatchLimit   = 8
)

// coalesce returns def when v is the zero value of T - otherwise v.
func coalesce[T comparable](v, def T) T {
	var zero T
	if v == zero {
		return def
	}
	return v
}

func defaultKeyString[K comparable](k K) string { return fmt.Sprint(k) }
