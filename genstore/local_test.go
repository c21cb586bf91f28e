package genstore

import (
	"context"
	"sync"
	"testing"
	"time"
)

func TestLocalSnapshotMissingIsZero(t *testing.T) {
	ctx := context.Background()
	s := NewLocalGenStore(0, 0)
	t.Cleanup(func() { _ = s.Close(ctx) })

	g, err := s.Snapshot(ctx, "entry:block:abc:1")
	if err != nil {
		t.Fatal(err)
	}
	if g != 0 {
		t.Fatalf("missing key: got gen %d, want 0", g)
	}
}

func TestLocalBumpIsMonotonicAndConcurrent(t *testing.T) {
	ctx := context.Background()
	s := NewLocalGenStore(0, 0)
	t.Cleanup(func() { _ = s.Close(ctx) })

	const workers, per = 8, 50
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < per; j++ {
				if _, err := s.Bump(ctx, "k"); err != nil {
					t.Error(err)
					return
				}
			}
		}()
	}
	wg.Wait()

	g, _ := s.Snapshot(ctx, "k")
	if g != workers*per {
		t.Fatalf("gen=%d want %d", g, workers*per)
	}
	if s.Len() != 1 {
		t.Fatalf("Len=%d want 1", s.Len())
	}
}

func TestLocalCleanupPrunesOld(t *testing.T) {
	ctx := context.Background()
	s := NewLocalGenStore(0, time.Second) // retention=1s, no sweeper
	t.Cleanup(func() { _ = s.Close(ctx) })

	if _, err := s.Bump(ctx, "old"); err != nil {
		t.Fatal(err)
	}
	time.Sleep(1200 * time.Millisecond)
	if _, err := s.Bump(ctx, "fresh"); err != nil {
		t.Fatal(err)
	}
	s.Cleanup(time.Second)

	if g, _ := s.Snapshot(ctx, "old"); g != 0 {
		t.Fatalf("expected pruned -> 0, got %d", g)
	}
	if g, _ := s.Snapshot(ctx, "fresh"); g != 1 {
		t.Fatalf("fresh key should survive cleanup, got %d", g)
	}
}

func TestLocalCloseIsIdempotent(t *testing.T) {
	s := NewLocalGenStore(10*time.Millisecond, time.Minute)
	if err := s.Close(context.Background()); err != nil {
		t.Fatal(err)
	}
	if err := s.Close(context.Background()); err != nil {
		t.Fatal(err)
	}
}
