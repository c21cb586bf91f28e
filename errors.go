package fetchcache

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned by a Fetcher when the node answered but the entity does not exist.
// It is recorded as Fetched with Found=false, never as FetchFailed.
var ErrNotFound = errors.New("fetchcache: not found")

// FetchError is what the Reporter receives for a failed fetch.
type FetchError struct {
	Namespace string
	Key       string
	Endpoint  string
	Err       error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s %q from %s: %v", e.Namespace, e.Key, e.Endpoint, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// UsageError signals a wiring defect, e.g. reading a cache after Close.
// It is raised with panic, never returned.
type UsageError struct {
	Op        string
	Namespace string
}

func (e *UsageError) Error() string {
	return fmt.Sprintf("fetchcache: %s called on closed %q cache", e.Op, e.Namespace)
}

type InvalidateError struct {
	Key     string
	BumpErr error
	DelErr  error
}

func (e *InvalidateError) Error() string {
	switch {
	case e.BumpErr != nil && e.DelErr != nil:
		return fmt.Sprintf("invalidate %q failed: gen bump and delete failed: bump=%v; delete=%v",
			e.Key, e.BumpErr, e.DelErr)
	case e.BumpErr != nil:
		return fmt.Sprintf("invalidate %q: gen bump failed: %v", e.Key, e.BumpErr)
	case e.DelErr != nil:
		return fmt.Sprintf("invalidate %q: delete failed: %v", e.Key, e.DelErr)
	default:
		return fmt.Sprintf("invalidate %q: unknown error", e.Key)
	}
}

func (e *InvalidateError) Unwrap() []error {
	errs := make([]error, 0, 2)
	if e.BumpErr != nil {
		errs = append(errs, e.BumpErr)
	}
	if e.DelErr != nil {
		errs = append(errs, e.DelErr)
	}
	return errs
}
