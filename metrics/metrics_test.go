package metrics_test

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unkn0wn-root/entitycache"
	"github.com/unkn0wn-root/entitycache/metrics"
)

type person struct{ ID string }

func (p *person) EntityID() string { return p.ID }

func TestCountsBucketActivity(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	registry := entitycache.NewRegistry(entitycache.RegistryOptions{Hooks: m})
	b, err := entitycache.NewBucket(entitycache.BucketOptions{Registry: registry, Name: "recent", Limit: 2})
	require.NoError(t, err)
	defer b.Close()

	b.Add(&person{ID: "1"})
	b.Add(&person{ID: "2"})
	b.Add(&person{ID: "3"}) // evicts 1
	b.Add(&person{ID: "3"}) // duplicate
	registry.AddEntity(&person{ID: "2"})

	assert.Equal(t, 1.0, testutil.ToFloat64(m.Evictions.WithLabelValues("recent")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Duplicates.WithLabelValues("recent")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Refreshes.WithLabelValues("recent")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Broadcasts))
	assert.Equal(t, 1, testutil.CollectAndCount(m.BroadcastFanout))
}

func TestLeakedCounterAndRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	m.SnapshotLeaked(entitycache.Identity{ID: "x"})
	assert.Equal(t, 1.0, testutil.ToFloat64(m.LeakedSnapshots))

	n, err := testutil.GatherAndCount(reg, "entitycache_leaked_snapshots_total", "entitycache_broadcasts_total")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	assert.Panics(t, func() { metrics.New(reg) }, "double registration on one registry")
}
