package slog

import (
	"bytes"
	stdslog "log/slog"
	"strings"
	"testing"

	"github.com/unkn0wn-root/fetchcache"
)

func TestSlogAdapter(t *testing.T) {
	var buf bytes.Buffer
	h := stdslog.NewTextHandler(&buf, &stdslog.HandlerOptions{Level: stdslog.LevelInfo})
	l := Logger{L: stdslog.New(h)}

	l.Debug("hidden", fetchcache.Fields{"k": 1})
	if buf.Len() != 0 {
		t.Fatalf("debug should be filtered, got %q", buf.String())
	}

	l.Warn("stale dropped", fetchcache.Fields{"endpoint": "https://a", "key": "7"})
	out := buf.String()
	if !strings.Contains(out, "level=WARN") || !strings.Contains(out, `msg="stale dropped"`) {
		t.Fatalf("output=%q", out)
	}
	if strings.Index(out, "endpoint=") > strings.Index(out, "key=") {
		t.Fatalf("fields not sorted: %q", out)
	}
}
