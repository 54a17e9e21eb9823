package asynchook_test

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unkn0wn-root/entitycache"
	asynchook "github.com/unkn0wn-root/entitycache/hooks/async"
)

type counting struct {
	entitycache.NopHooks
	mu      sync.Mutex
	evicted []string
	block   chan struct{}
}

func (c *counting) Evicted(bucket string, id entitycache.Identity) {
	if c.block != nil {
		<-c.block
	}
	c.mu.Lock()
	c.evicted = append(c.evicted, bucket+"/"+id.ID)
	c.mu.Unlock()
}

func TestDeliversBeforeClose(t *testing.T) {
	inner := &counting{}
	h := asynchook.New(inner, 2, 16)
	for i := 0; i < 10; i++ {
		h.Evicted("recent", entitycache.Identity{ID: "x"})
	}
	h.Close()

	inner.mu.Lock()
	defer inner.mu.Unlock()
	assert.Len(t, inner.evicted, 10)
	assert.Zero(t, h.Dropped())
}

func TestDropsWhenFullAndAfterClose(t *testing.T) {
	inner := &counting{block: make(chan struct{})}
	h := asynchook.New(inner, 1, 1)

	// first event parks the worker, second fills the queue, the rest drop
	h.Evicted("b", entitycache.Identity{ID: "1"})
	require.Eventually(t, func() bool {
		h.Evicted("b", entitycache.Identity{ID: "2"})
		return h.Dropped() > 0
	}, timeout, tick)

	close(inner.block)
	h.Close()
	before := h.Dropped()

	assert.NotPanics(t, func() { h.SnapshotLeaked(entitycache.Identity{ID: "late"}) })
	assert.Equal(t, before+1, h.Dropped())
	assert.NotPanics(t, h.Close, "Close is idempotent")
}

func TestForwardsEveryHook(t *testing.T) {
	rec := &recorder{}
	h := asynchook.New(rec, 1, 16)
	id := entitycache.Identity{ID: "1"}
	h.EntityBroadcast(id, 3)
	h.SnapshotRefreshed("b", id)
	h.Evicted("b", id)
	h.DuplicateRejected("b", id)
	h.SnapshotLeaked(id)
	h.Close()
	assert.ElementsMatch(t, []string{"broadcast", "refreshed", "evicted", "duplicate", "leaked"}, rec.calls())
}

type recorder struct {
	mu sync.Mutex
	c  []string
}

func (r *recorder) add(s string) { r.mu.Lock(); r.c = append(r.c, s); r.mu.Unlock() }
func (r *recorder) calls() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.c...)
}

func (r *recorder) EntityBroadcast(entitycache.Identity, int)       { r.add("broadcast") }
func (r *recorder) SnapshotRefreshed(string, entitycache.Identity) { r.add("refreshed") }
func (r *recorder) Evicted(string, entitycache.Identity)           { r.add("evicted") }
func (r *recorder) DuplicateRejected(string, entitycache.Identity) { r.add("duplicate") }
func (r *recorder) SnapshotLeaked(entitycache.Identity)            { r.add("leaked") }

const (
	timeout = 2 * time.Second
	tick    = time.Millisecond
)
