// Package logrus adapts a *logrus.Entry to entitycache.Logger.
package logrus

import (
	"github.com/sirupsen/logrus"

	"github.com/unkn0wn-root/entitycache"
)

var _ entitycache.Logger = Logger{}

// Logger forwards to E. An "err" field is moved to logrus.ErrorKey.
type Logger struct{ E *logrus.Entry }

// New wraps l with a fixed component field.
func New(l *logrus.Logger) Logger {
	return Logger{E: logrus.NewEntry(l).WithField("component", "entitycache")}
}

func (l Logger) Debug(msg string, f entitycache.Fields) { l.with(f).Debug(msg) }
func (l Logger) Info(msg string, f entitycache.Fields)  { l.with(f).Info(msg) }
func (l Logger) Warn(msg string, f entitycache.Fields)  { l.with(f).Warn(msg) }
func (l Logger) Error(msg string, f entitycache.Fields) { l.with(f).Error(msg) }

func (l Logger) with(f entitycache.Fields) *logrus.Entry {
	if len(f) == 0 {
		return l.E
	}
	lf := make(logrus.Fields, len(f))
	for k, v := range f {
		if k == "err" {
			k = logrus.ErrorKey
		}
		lf[k] = v
	}
	return l.E.WithFields(lf)
}
