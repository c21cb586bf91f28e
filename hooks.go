package fetchcache

import "time"

// Hooks lightweight callbacks for high-signal events.
// Implementations MUST be cheap and non-blocking.
// The cache calls them on hot paths.
type Hooks interface {
	// A fetch was skipped because one for the same key is already in flight.
	FetchDeduped(namespace, key string)

	// A fetch finished. status ∈ {Fetched, FetchFailed}; found=false with Fetched means not found.
	FetchCompleted(namespace string, status Status, found bool, elapsed time.Duration)

	// An update stamped with an endpoint the store is no longer bound to was dropped.
	StaleDropped(namespace, key, endpoint string)

	// The store was cleared and rebound.
	Cleared(namespace, endpoint string)

	// A fetch was served from the second tier without calling the fetcher.
	TierHit(namespace string)

	// A tier entry was deleted on read.
	// reason ∈ {"corrupt", "gen_mismatch", "value_decode"}
	TierSelfHeal(storageKey, reason string)

	// A tier operation failed. op ∈ {"get", "set", "snapshot", "bump", "del"}
	TierError(storageKey, op string, err error)

	// Both gen bump and delete failed during Invalidate (likely backend outage).
	InvalidateOutage(key string, bumpErr, delErr error)
}

// NopHooks is the default no-op
type NopHooks struct{}

func (NopHooks) FetchDeduped(string, string)                        {}
func (NopHooks) FetchCompleted(string, Status, bool, time.Duration) {}
func (NopHooks) StaleDropped(string, string, string)                {}
func (NopHooks) Cleared(string, string)                             {}
func (NopHooks) TierHit(string)                                     {}
func (NopHooks) TierSelfHeal(string, string)                        {}
func (NopHooks) TierError(string, string, error)                    {}
func (NopHooks) InvalidateOutage(string, error, error)              {}

// ReportContext tags a reported error.
type ReportContext struct {
	Namespace string
	Key       string
	Endpoint  string
	Cluster   Kind
}

// Reporter is the error-reporting sink. ReportError must not block.
type Reporter interface {
	ReportError(err error, rc ReportContext)
}

type NopReporter struct{}

func (NopReporter) ReportError(error, ReportContext) {}

// ReporterFunc adapts a function to Reporter.
type ReporterFunc func(err error, rc ReportContext)

func (f ReporterFunc) ReportError(err error, rc ReportContext) { f(err, rc) }
