// Package zap adapts a *zap.Logger to fetchcache.Logger.
package zap

import (
	"sort"

	"github.com/unkn0wn-root/fetchcache"
	"go.uber.org/zap"
)

type Logger struct{ L *zap.Logger }

var _ fetchcache.Logger = Logger{}

// New names the logger after the cache so every line carries a "logger" key.
func New(l *zap.Logger, name string) Logger {
	if name != "" {
		l = l.Named(name)
	}
	return Logger{L: l}
}

func (z Logger) Debug(msg string, f fetchcache.Fields) { z.L.Debug(msg, zf(f)...) }
func (z Logger) Info(msg string, f fetchcache.Fields)  { z.L.Info(msg, zf(f)...) }
func (z Logger) Warn(msg string, f fetchcache.Fields)  { z.L.Warn(msg, zf(f)...) }
func (z Logger) Error(msg string, f fetchcache.Fields) { z.L.Error(msg, zf(f)...) }

// zf emits fields in key order so log lines diff cleanly.
func zf(f fetchcache.Fields) []zap.Field {
	if len(f) == 0 {
		return nil
	}
	keys := make([]string, 0, len(f))
	for k := range f {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]zap.Field, 0, len(f))
	for _, k := range keys {
		if err, ok := f[k].(error); ok {
			out = append(out, zap.NamedError(k, err))
			continue
		}
		out = append(out, zap.Any(k, f[k]))
	}
	return out
}
