package zerolog_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unkn0wn-root/entitycache"
	entityzerolog "github.com/unkn0wn-root/entitycache/log/zerolog"
)

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var rec map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &rec))
		out = append(out, rec)
	}
	return out
}

func TestWritesStructuredRecords(t *testing.T) {
	var buf bytes.Buffer
	l := entityzerolog.New(zerolog.New(&buf).Level(zerolog.DebugLevel))

	l.Debug("evicted", entitycache.Fields{"bucket": "recent"})
	l.Error("attached save failed", entitycache.Fields{"err": errors.New("rejected")})

	recs := decodeLines(t, &buf)
	require.Len(t, recs, 2)
	assert.Equal(t, "debug", recs[0]["level"])
	assert.Equal(t, "evicted", recs[0]["message"])
	assert.Equal(t, "recent", recs[0]["bucket"])
	assert.Equal(t, "entitycache", recs[0]["component"])
	assert.Equal(t, "error", recs[1]["level"])
	assert.Equal(t, "rejected", recs[1][zerolog.ErrorFieldName])
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	l := entityzerolog.New(zerolog.New(&buf).Level(zerolog.WarnLevel))
	l.Debug("no", nil)
	l.Info("no", nil)
	l.Warn("yes", nil)
	recs := decodeLines(t, &buf)
	require.Len(t, recs, 1)
	assert.Equal(t, "yes", recs[0]["message"])
}
