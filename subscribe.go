package fetchcache

import "sync"

// Change describes one applied dispatch.
type Change[K comparable] struct {
	Keys     []K // updated keys; nil when Cleared
	Cleared  bool
	Endpoint string
}

type subscription[K comparable] struct {
	id   uint64
	keys []K // nil => every key
	fn   func(Change[K])
}

// registry indexes listeners by key so an Update only reaches listeners of that key.
type registry[K comparable] struct {
	mu     sync.RWMutex
	nextID uint64
	byKey  map[K]map[uint64]*subscription[K]
	all    map[uint64]*subscription[K]
}

func newRegistry[K comparable]() *registry[K] {
	return &registry[K]{
		byKey: make(map[K]map[uint64]*subscription[K]),
		all:   make(map[uint64]*subscription[K]),
	}
}

func (r *registry[K]) add(keys []K, fn func(Change[K])) func() {
	r.mu.Lock()
	r.nextID++
	s := &subscription[K]{id: r.nextID, fn: fn}
	if keys == nil {
		r.all[s.id] = s
	} else {
		s.keys = append(make([]K, 0, len(keys)), keys...)
		for _, k := range s.keys {
			m, ok := r.byKey[k]
			if !ok {
				m = make(map[uint64]*subscription[K])
				r.byKey[k] = m
			}
			m[s.id] = s
		}
	}
	r.mu.Unlock()

	var once sync.Once
	return func() { once.Do(func() { r.remove(s) }) }
}

func (r *registry[K]) remove(s *subscription[K]) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s.keys == nil {
		delete(r.all, s.id)
		return
	}
	for _, k := range s.keys {
		if m, ok := r.byKey[k]; ok {
			delete(m, s.id)
			if len(m) == 0 {
				delete(r.byKey, k)
			}
		}
	}
}

// listenersFor returns the deduplicated listeners of key plus the wildcard ones.
func (r *registry[K]) listenersFor(key K) []*subscription[K] {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*subscription[K], 0, len(r.byKey[key])+len(r.all))
	for _, s := range r.byKey[key] {
		out = append(out, s)
	}
	for _, s := range r.all {
		out = append(out, s)
	}
	return out
}

func (r *registry[K]) everyone() []*subscription[K] {
	r.mu.RLock()
	defer r.mu.RUnlock()
	seen := make(map[uint64]struct{}, len(r.all))
	out := make([]*subscription[K], 0, len(r.all))
	for _, s := range r.all {
		seen[s.id] = struct{}{}
		out = append(out, s)
	}
	for _, m := range r.byKey {
		for id, s := range m {
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			out = append(out, s)
		}
	}
	return out
}

func (r *registry[K]) reset() {
	r.mu.Lock()
	r.byKey = make(map[K]map[uint64]*subscription[K])
	r.all = make(map[uint64]*subscription[K])
	r.mu.Unlock()
}

func (r *registry[K]) notify(ch Change[K]) {
	var subs []*subscription[K]
	if ch.Cleared {
		subs = r.everyone()
	} else if len(ch.Keys) == 1 {
		subs = r.listenersFor(ch.Keys[0])
	}
	for _, s := range subs {
		s.fn(ch)
	}
}
