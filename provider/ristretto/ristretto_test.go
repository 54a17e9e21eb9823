package ristretto_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unkn0wn-root/entitycache/provider/ristretto"
)

func TestNewRejectsInvalidConfig(t *testing.T) {
	_, err := ristretto.New(ristretto.Config{})
	require.Error(t, err)
}

func TestProviderSyncWrites(t *testing.T) {
	ctx := context.Background()
	p, err := ristretto.New(ristretto.Config{NumCounters: 1000, MaxCost: 1 << 20, BufferItems: 64, Metrics: true, SyncWrites: true})
	require.NoError(t, err)
	t.Cleanup(func() { _ = p.Close(ctx) })

	ok, err := p.Set(ctx, "bucket:test:recent", []byte("frame"), 5, 0)
	require.NoError(t, err)
	require.True(t, ok)

	got, ok, err := p.Get(ctx, "bucket:test:recent")
	require.NoError(t, err)
	require.True(t, ok, "synchronous writes are visible immediately")
	assert.Equal(t, []byte("frame"), got)
	assert.NotNil(t, p.Metrics())

	require.NoError(t, p.Del(ctx, "bucket:test:recent"))
	_, ok, _ = p.Get(ctx, "bucket:test:recent")
	assert.False(t, ok)
}
