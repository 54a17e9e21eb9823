// Package zap adapts a *zap.Logger to entitycache.Logger.
package zap

import (
	"sort"

	"go.uber.org/zap"

	"github.com/unkn0wn-root/entitycache"
)

var _ entitycache.Logger = Logger{}

// Logger forwards to L. An "err" field holding an error is logged as zap.Error.
type Logger struct{ L *zap.Logger }

// New returns an adapter; a nil logger logs nothing.
func New(l *zap.Logger) Logger {
	if l == nil {
		l = zap.NewNop()
	}
	return Logger{L: l.WithOptions(zap.AddCallerSkip(1))}
}

func (z Logger) Debug(msg string, f entitycache.Fields) { z.L.Debug(msg, fields(f)...) }
func (z Logger) Info(msg string, f entitycache.Fields)  { z.L.Info(msg, fields(f)...) }
func (z Logger) Warn(msg string, f entitycache.Fields)  { z.L.Warn(msg, fields(f)...) }
func (z Logger) Error(msg string, f entitycache.Fields) { z.L.Error(msg, fields(f)...) }

func fields(f entitycache.Fields) []zap.Field {
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
		if err, ok := f[k].(error); ok && k == "err" {
			out = append(out, zap.Error(err))
			continue
		}
		out = append(out, zap.Any(k, f[k]))
	}
	return out
}
