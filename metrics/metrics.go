// Package metrics exports entitycache hook events as Prometheus metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/unkn0wn-root/entitycache"
)

// Metrics implements entitycache.Hooks. Bucket names become label values, so keep
// them low-cardinality (avoid the generated "bucket-<uuid>" default in production).
type Metrics struct {
	Broadcasts      prometheus.Counter
	BroadcastFanout prometheus.Histogram
	Evictions       *prometheus.CounterVec
	Refreshes       *prometheus.CounterVec
	Duplicates      *prometheus.CounterVec
	LeakedSnapshots prometheus.Counter
}

var _ entitycache.Hooks = (*Metrics)(nil)

// New registers all metrics with reg; nil means prometheus.DefaultRegisterer.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)
	return &Metrics{
		Broadcasts: f.NewCounter(prometheus.CounterOpts{
			Name: "entitycache_broadcasts_total",
			Help: "Total number of entities published through a registry",
		}),
		BroadcastFanout: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "entitycache_broadcast_fanout",
			Help:    "Live snapshots notified per registry broadcast",
			Buckets: []float64{0, 1, 2, 5, 10, 25, 50, 100, 250},
		}),
		Evictions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "entitycache_evictions_total",
			Help: "Members dropped to honor a bucket limit",
		}, []string{"bucket"}),
		Refreshes: f.NewCounterVec(prometheus.CounterOpts{
			Name: "entitycache_refreshes_total",
			Help: "Bucket members replaced by a registry broadcast",
		}, []string{"bucket"}),
		Duplicates: f.NewCounterVec(prometheus.CounterOpts{
			Name: "entitycache_duplicates_total",
			Help: "Adds ignored because the identity was already present",
		}, []string{"bucket"}),
		LeakedSnapshots: f.NewCounter(prometheus.CounterOpts{
			Name: "entitycache_leaked_snapshots_total",
			Help: "Snapshots garbage collected without Close",
		}),
	}
}

func (m *Metrics) EntityBroadcast(_ entitycache.Identity, observers int) {
	m.Broadcasts.Inc()
	m.BroadcastFanout.Observe(float64(observers))
}

func (m *Metrics) SnapshotRefreshed(bucket string, _ entitycache.Identity) {
	m.Refreshes.WithLabelValues(bucket).Inc()
}

func (m *Metrics) Evicted(bucket string, _ entitycache.Identity) {
	m.Evictions.WithLabelValues(bucket).Inc()
}

func (m *Metrics) DuplicateRejected(bucket string, _ entitycache.Identity) {
	m.Duplicates.WithLabelValues(bucket).Inc()
}

func (m *Metrics) SnapshotLeaked(entitycache.Identity) { m.LeakedSnapshots.Inc() }
