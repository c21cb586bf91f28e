package fetchcache

import "fmt"

// Status is the fetch lifecycle of a single entry.
type Status uint8

const (
	Idle Status = iota // never fetched
	Fetching
	Fetched
	FetchFailed
)

func (s Status) String() string {
	switch s {
	case Idle:
		return "idle"
	case Fetching:
		return "fetching"
	case Fetched:
		return "fetched"
	case FetchFailed:
		return "fetch_failed"
	default:
		return fmt.Sprintf("status(%d)", uint8(s))
	}
}

// Entry is one key's cached fetch result.
// Value and Found are meaningful only when Status == Fetched; Err only when Status == FetchFailed.
type Entry[K comparable, V any] struct {
	Key      K
	Status   Status
	Value    V
	Found    bool // false with Status == Fetched means the entity does not exist
	Err      error
	Endpoint string
}

// Data returns the value and whether one is present.
func (e Entry[K, V]) Data() (V, bool) {
	if e.Status != Fetched || !e.Found {
		var zero V
		return zero, false
	}
	return e.Value, true
}

// NotFound reports a completed fetch that found nothing.
func (e Entry[K, V]) NotFound() bool { return e.Status == Fetched && !e.Found }

// State is an immutable snapshot of all entries for one endpoint.
// Never mutate a published State; Reduce returns a new one.
type State[K comparable, V any] struct {
	endpoint string
	entries  map[K]Entry[K, V]
}

func NewState[K comparable, V any](endpoint string) *State[K, V] {
	return &State[K, V]{endpoint: endpoint, entries: map[K]Entry[K, V]{}}
}

func (s *State[K, V]) Endpoint() string { return s.endpoint }
func (s *State[K, V]) Len() int         { return len(s.entries) }

// Entry returns the entry for k. ok=false means never fetched; the returned entry is then Idle.
func (s *State[K, V]) Entry(k K) (Entry[K, V], bool) {
	e, ok := s.entries[k]
	if !ok {
		return Entry[K, V]{Key: k, Endpoint: s.endpoint}, false
	}
	return e, true
}

// Keys returns the known keys in no particular order.
func (s *State[K, V]) Keys() []K {
	out := make([]K, 0, len(s.entries))
	for k := range s.entries {
		out = append(out, k)
	}
	return out
}

type ActionKind uint8

const (
	ActionClear ActionKind = iota + 1
	ActionUpdate
)

// Action is the tagged variant consumed by Reduce. Build it with ClearAction or UpdateAction.
type Action[K comparable, V any] struct {
	Kind     ActionKind
	Endpoint string

	// Update only
	Key    K
	Status Status
	Value  V
	Found  bool
	Err    error
}

func ClearAction[K comparable, V any](endpoint string) Action[K, V] {
	return Action[K, V]{Kind: ActionClear, Endpoint: endpoint}
}

func UpdateAction[K comparable, V any](key K, status Status, value V, found bool, err error, endpoint string) Action[K, V] {
	return Action[K, V]{
		Kind:     ActionUpdate,
		Endpoint: endpoint,
		Key:      key,
		Status:   status,
		Value:    value,
		Found:    found,
		Err:      err,
	}
}

// Reduce computes the next snapshot. It has no side effects.
//
// Clear(e) yields an empty state stamped e; an already empty state stamped e is returned as is.
// Update on a foreign endpoint returns s unchanged (same pointer).
// Update otherwise replaces entries[key] wholesale.
func Reduce[K comparable, V any](s *State[K, V], a Action[K, V]) *State[K, V] {
	switch a.Kind {
	case ActionClear:
		if s != nil && s.endpoint == a.Endpoint && len(s.entries) == 0 {
			return s
		}
		return NewState[K, V](a.Endpoint)
	case ActionUpdate:
		if s == nil || s.endpoint != a.Endpoint {
			return s
		}
		e := Entry[K, V]{
			Key:      a.Key,
			Status:   a.Status,
			Endpoint: a.Endpoint,
		}
		switch a.Status {
		case Fetched:
			e.Value, e.Found = a.Value, a.Found
		case FetchFailed:
			e.Err = a.Err
		}
		next := make(map[K]Entry[K, V], len(s.entries)+1)
		for k, v := range s.entries {
			next[k] = v
		}
		next[a.Key] = e
		return &State[K, V]{endpoint: s.endpoint, entries: next}
	default:
		panic(fmt.Sprintf("fetchcache: unknown action kind %d", a.Kind))
	}
}
