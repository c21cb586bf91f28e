package genstore

import (
	"context"
	"sync"
	"time"
)

type localGen struct {
	gen      uint64
	bumpedAt time.Time
}

// Local keeps generations in-process.
// A background sweep forgets keys not bumped within the retention window;
// a forgotten key reads as 0, which only invalidates frames stamped with a higher gen.
type Local struct {
	mu   sync.RWMutex
	gens map[string]localGen

	stop      chan struct{}
	done      sync.WaitGroup
	closeOnce sync.Once
}

var _ GenStore = (*Local)(nil)

// NewLocalGenStore starts a sweep every cleanupInterval when both arguments are positive.
func NewLocalGenStore(cleanupInterval, retention time.Duration) *Local {
	s := &Local{gens: make(map[string]localGen)}
	if cleanupInterval <= 0 || retention <= 0 {
		return s
	}
	s.stop = make(chan struct{})
	s.done.Add(1)
	go s.sweep(cleanupInterval, retention)
	return s
}

func (s *Local) sweep(every, retention time.Duration) {
	defer s.done.Done()
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-t.C:
			s.Cleanup(retention)
		case <-s.stop:
			return
		}
	}
}

func (s *Local) Snapshot(_ context.Context, k string) (uint64, error) {
	s.mu.RLock()
	g := s.gens[k].gen // zero value (0) if missing
	s.mu.RUnlock()
	return g, nil
}

func (s *Local) Bump(_ context.Context, k string) (uint64, error) {
	now := time.Now()
	s.mu.Lock()
	e := s.gens[k]
	e.gen++
	e.bumpedAt = now
	s.gens[k] = e
	s.mu.Unlock()
	return e.gen, nil
}

// Len returns the number of tracked keys.
func (s *Local) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.gens)
}

func (s *Local) Cleanup(retention time.Duration) {
	if retention <= 0 {
		return
	}
	cutoff := time.Now().Add(-retention)

	s.mu.Lock()
	for k, e := range s.gens {
		if e.bumpedAt.Before(cutoff) {
			delete(s.gens, k)
		}
	}
	s.mu.Unlock()
}

func (s *Local) Close(_ context.Context) error {
	s.closeOnce.Do(func() {
		if s.stop != nil {
			close(s.stop)
			s.done.Wait()
		}
	})
	return nil
}
