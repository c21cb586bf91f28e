// Package logrus adapts a *logrus.Entry to fetchcache.Logger.
package logrus

import (
	"github.com/sirupsen/logrus"
	"github.com/unkn0wn-root/fetchcache"
)

type Logger struct{ E *logrus.Entry }

var _ fetchcache.Logger = Logger{}

// New tags every line with the cache namespace.
func New(l *logrus.Logger, namespace string) Logger {
	return Logger{E: l.WithField("ns", namespace)}
}

func (l Logger) Debug(msg string, f fetchcache.Fields) { l.with(f).Debug(msg) }
func (l Logger) Info(msg string, f fetchcache.Fields)  { l.with(f).Info(msg) }
func (l Logger) Warn(msg string, f fetchcache.Fields)  { l.with(f).Warn(msg) }
func (l Logger) Error(msg string, f fetchcache.Fields) { l.with(f).Error(msg) }

func (l Logger) with(f fetchcache.Fields) *logrus.Entry {
	if len(f) == 0 {
		return l.E
	}
	// "err" goes through WithError so formatters render it under logrus.ErrorKey.
	if err, ok := f["err"].(error); ok {
		rest := make(logrus.Fields, len(f)-1)
		for k, v := range f {
			if k != "err" {
				rest[k] = v
			}
		}
		return l.E.WithError(err).WithFields(rest)
	}
	return l.E.WithFields(logrus.Fields(f))
}
