// Package zerolog adapts a zerolog.Logger to entitycache.Logger.
package zerolog

import (
	"github.com/rs/zerolog"

	"github.com/unkn0wn-root/entitycache"
)

var _ entitycache.Logger = Logger{}

type Logger struct{ L zerolog.Logger }

func New(l zerolog.Logger) Logger {
	return Logger{L: l.With().Str("component", "entitycache").Logger()}
}

func (z Logger) Debug(msg string, f entitycache.Fields) { emit(z.L.Debug(), msg, f) }
func (z Logger) Info(msg string, f entitycache.Fields)  { emit(z.L.Info(), msg, f) }
func (z Logger) Warn(msg string, f entitycache.Fields)  { emit(z.L.Warn(), msg, f) }
func (z Logger) Error(msg string, f entitycache.Fields) { emit(z.L.Error(), msg, f) }

// emit tolerates a nil event, which zerolog returns for disabled levels.
func emit(ev *zerolog.Event, msg string, f entitycache.Fields) {
	if ev == nil {
		return
	}
	for k, v := range f {
		if err, ok := v.(error); ok && k == "err" {
			ev = ev.Err(err)
			continue
		}
		ev = ev.Interface(k, v)
	}
	ev.Msg(msg)
}
