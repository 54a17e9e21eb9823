// usage:
//
//	raw := sloghooks.New(slog.Default(), sloghooks.Options{
//	    RefreshEvery:   10, // log ~every 10th passive refresh
//	    BroadcastEvery: 100,
//	})
//
//	hooks := asynchook.New(raw, 1, 1000) // 1 worker; queue 1000 events
//	defer hooks.Close()
//
//	reg := entitycache.NewRegistry(entitycache.RegistryOptions{Hooks: hooks})
package asynchook

import (
	"sync"
	"sync/atomic"

	"github.com/unkn0wn-root/entitycache"
)

// Hooks moves hook calls off the mutating goroutine onto a worker pool.
// When the queue is full, or after Close, events are dropped and counted.
type Hooks struct {
	inner entitycache.Hooks
	q     chan func()
	wg    sync.WaitGroup

	mu      sync.RWMutex // guards closed against concurrent sends
	closed  bool
	dropped atomic.Uint64
}

var _ entitycache.Hooks = (*Hooks)(nil)

func New(inner entitycache.Hooks, workers, qlen int) *Hooks {
	if inner == nil {
		inner = entitycache.NopHooks{}
	}
	if workers <= 0 {
		workers = 1
	}
	if qlen <= 0 {
		qlen = 1024
	}

	h := &Hooks{inner: inner, q: make(chan func(), qlen)}
	h.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer h.wg.Done()
			for f := range h.q {
				f()
			}
		}()
	}
	return h
}

// Close stops accepting events and waits for queued ones to run.
func (h *Hooks) Close() {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	h.closed = true
	close(h.q)
	h.mu.Unlock()
	h.wg.Wait()
}

// Dropped returns how many events were discarded.
func (h *Hooks) Dropped() uint64 { return h.dropped.Load() }

func (h *Hooks) try(f func()) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.closed {
		h.dropped.Add(1)
		return
	}
	select {
	case h.q <- f:
	default:
		h.dropped.Add(1)
	}
}

func (h *Hooks) EntityBroadcast(id entitycache.Identity, n int) {
	h.try(func() { h.inner.EntityBroadcast(id, n) })
}
func (h *Hooks) SnapshotRefreshed(b string, id entitycache.Identity) {
	h.try(func() { h.inner.SnapshotRefreshed(b, id) })
}
func (h *Hooks) Evicted(b string, id entitycache.Identity) {
	h.try(func() { h.inner.Evicted(b, id) })
}
func (h *Hooks) DuplicateRejected(b string, id entitycache.Identity) {
	h.try(func() { h.inner.DuplicateRejected(b, id) })
}
func (h *Hooks) SnapshotLeaked(id entitycache.Identity) {
	h.try(func() { h.inner.SnapshotLeaked(id) })
}
