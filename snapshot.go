package entitycache

import (
	"runtime"
	"sync"
	"weak"
)

// SnapshotDelegate is told when a snapshot swapped its entity for a newer instance.
type SnapshotDelegate interface {
	EntitySnapshotDidChange(s *Snapshot)
}

// Snapshot holds one entity instance and keeps it current by observing a Registry.
// It registers itself on construction and must be released with Close, which
// deregisters it exactly once. A snapshot that is garbage collected without
// Close is deregistered by a runtime cleanup and reported via Hooks.SnapshotLeaked.
type Snapshot struct {
	id       Identity
	registry weak.Pointer[Registry]

	mu       sync.RWMutex
	entity   Entity
	delegate SnapshotDelegate

	closeOnce sync.Once
	closed    bool // guarded by mu
	tracked   bool
	cleanup   runtime.Cleanup
}

// leakHandle is everything the runtime cleanup needs; it must not reference the snapshot strongly.
type leakHandle struct {
	registry weak.Pointer[Registry]
	self     weak.Pointer[Snapshot]
	id       Identity
}

// NewSnapshot wraps e and registers the snapshot with r.
func NewSnapshot(e Entity, r *Registry) *Snapshot {
	s := &Snapshot{
		id:       IdentityOf(e),
		registry: weak.Make(r),
		entity:   e,
	}
	if r == nil {
		return s
	}
	r.Register(s)
	s.tracked = true
	s.cleanup = runtime.AddCleanup(s, reclaim, leakHandle{registry: s.registry, self: weak.Make(s), id: s.id})
	return s
}

func reclaim(h leakHandle) {
	r := h.registry.Value()
	if r == nil {
		return
	}
	if r.unwatch(h.self) {
		r.log.Warn("snapshot collected without Close", Fields{"registry": r.name, "identity": h.id.String()})
		r.hooks.SnapshotLeaked(h.id)
	}
}

// Entity returns the currently held instance.
func (s *Snapshot) Entity() Entity {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.entity
}

func (s *Snapshot) Identity() Identity { return s.id }

// SetDelegate sets (or clears with nil) the single delegate.
func (s *Snapshot) SetDelegate(d SnapshotDelegate) {
	s.mu.Lock()
	s.delegate = d
	s.mu.Unlock()
}

// HandleEntityChanged is the registry callback. The held instance is replaced
// only by a different instance with the same identity; the delegate is told after
// the swap. The same instance and foreign identities are ignored.
func (s *Snapshot) HandleEntityChanged(updated Entity) {
	if updated == nil || IdentityOf(updated) != s.id {
		return
	}
	s.mu.Lock()
	if s.closed || sameInstance(s.entity, updated) {
		s.mu.Unlock()
		return
	}
	s.entity = updated
	d := s.delegate
	s.mu.Unlock()

	if d != nil {
		d.EntitySnapshotDidChange(s)
	}
}

// Close deregisters the snapshot from its registry (if that registry is still
// alive) and drops the delegate. Safe to call more than once.
func (s *Snapshot) Close() {
	s.closeOnce.Do(func() {
		s.mu.Lock()
		s.closed = true
		s.delegate = nil
		s.mu.Unlock()

		if s.tracked {
			s.cleanup.Stop()
		}
		if r := s.registry.Value(); r != nil {
			r.Deregister(s)
		}
	})
}

func (s *Snapshot) Closed() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.closed
}
