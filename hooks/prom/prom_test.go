package promhooks

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/unkn0wn-root/fetchcache"
)

func TestCounters(t *testing.T) {
	reg := prometheus.NewPedanticRegistry()
	h, err := New(reg, "explorer")
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	h.FetchCompleted("block", fetchcache.Fetched, true, 20*time.Millisecond)
	h.FetchCompleted("block", fetchcache.Fetched, false, time.Millisecond)
	h.FetchCompleted("block", fetchcache.FetchFailed, false, time.Second)
	h.FetchDeduped("block", "42")
	h.Cleared("block", "https://api.testnet.solana.com")
	h.TierError("k", "get", errors.New("x"))
	h.ReportError(errors.New("x"), fetchcache.ReportContext{Namespace: "block", Cluster: fetchcache.Testnet})

	if v := testutil.ToFloat64(h.fetches.WithLabelValues("block", "found")); v != 1 {
		t.Fatalf("found=%v", v)
	}
	if v := testutil.ToFloat64(h.fetches.WithLabelValues("block", "not_found")); v != 1 {
		t.Fatalf("not_found=%v", v)
	}
	if v := testutil.ToFloat64(h.fetches.WithLabelValues("block", "failed")); v != 1 {
		t.Fatalf("failed=%v", v)
	}
	if v := testutil.ToFloat64(h.deduped.WithLabelValues("block")); v != 1 {
		t.Fatalf("deduped=%v", v)
	}
	if v := testutil.ToFloat64(h.reported.WithLabelValues("block", "testnet")); v != 1 {
		t.Fatalf("reported=%v", v)
	}
	if n := testutil.CollectAndCount(h.latency); n != 1 {
		t.Fatalf("latency series=%d", n)
	}
	problems, err := testutil.GatherAndLint(reg)
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	if len(problems) > 0 {
		t.Fatalf("lint: %v", problems)
	}
}

func TestDoubleRegisterFails(t *testing.T) {
	reg := prometheus.NewRegistry()
	h, err := New(reg, "x")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := New(reg, "x"); err == nil {
		t.Fatal("expected duplicate registration error")
	}
	h.Unregister(reg)
	if _, err := New(reg, "x"); err != nil {
		t.Fatalf("after unregister: %v", err)
	}
}
