package slog_test

import (
	"bytes"
	"encoding/json"
	stdslog "log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unkn0wn-root/entitycache"
	entityslog "github.com/unkn0wn-root/entitycache/log/slog"
)

func TestJSONOutput(t *testing.T) {
	var buf bytes.Buffer
	l := entityslog.New(stdslog.New(stdslog.NewJSONHandler(&buf, &stdslog.HandlerOptions{Level: stdslog.LevelDebug})))

	l.Debug("entity broadcast", entitycache.Fields{"observers": 2, "identity": "person#1"})
	l.Warn("restore skipped unknown kind", entitycache.Fields{"kind": "vehicle"})

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)

	var rec map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &rec))
	assert.Equal(t, "DEBUG", rec["level"])
	assert.Equal(t, "entity broadcast", rec["msg"])
	assert.Equal(t, "person#1", rec["identity"])
	assert.EqualValues(t, 2, rec["observers"])

	require.NoError(t, json.Unmarshal([]byte(lines[1]), &rec))
	assert.Equal(t, "WARN", rec["level"])
	assert.Equal(t, "vehicle", rec["kind"])
}

func TestDisabledLevelWritesNothing(t *testing.T) {
	var buf bytes.Buffer
	l := entityslog.New(stdslog.New(stdslog.NewTextHandler(&buf, &stdslog.HandlerOptions{Level: stdslog.LevelError})))
	l.Info("bucket created", entitycache.Fields{"bucket": "recent"})
	assert.Zero(t, buf.Len())
	l.Error("boom", nil)
	assert.Contains(t, buf.String(), "msg=boom")
}
