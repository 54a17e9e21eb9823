package zap_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/unkn0wn-root/entitycache"
	entityzap "github.com/unkn0wn-root/entitycache/log/zap"
)

func TestLevelsAndFields(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	l := entityzap.New(zap.New(core))

	l.Debug("entity broadcast", entitycache.Fields{"identity": "person#1", "observers": 3})
	l.Info("bucket created", nil)
	l.Warn("corrupt archive deleted", entitycache.Fields{"err": errors.New("bad magic")})
	l.Error("attached save failed", entitycache.Fields{"key": "bucket:ns:recent"})

	entries := logs.All()
	require.Len(t, entries, 4)
	assert.Equal(t, zapcore.DebugLevel, entries[0].Level)
	ctx := entries[0].ContextMap()
	assert.Equal(t, "person#1", ctx["identity"])
	assert.EqualValues(t, 3, ctx["observers"])
	assert.Equal(t, zapcore.InfoLevel, entries[1].Level)
	assert.Empty(t, entries[1].Context)
	assert.Equal(t, zapcore.WarnLevel, entries[2].Level)
	assert.Equal(t, "bad magic", entries[2].ContextMap()["error"], "err is logged as zap.Error")
	assert.Equal(t, zapcore.ErrorLevel, entries[3].Level)
}

func TestNilLoggerIsNop(t *testing.T) {
	l := entityzap.New(nil)
	assert.NotPanics(t, func() { l.Info("x", entitycache.Fields{"a": 1}) })
}

func TestRespectsCoreLevel(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	l := entityzap.New(zap.New(core))
	l.Debug("dropped", nil)
	l.Info("dropped", nil)
	l.Warn("kept", nil)
	assert.Equal(t, 1, logs.Len())
}
