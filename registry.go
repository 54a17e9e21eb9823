package entitycache

import (
	"container/list"
	"sync"
	"weak"
)

// Registry is the in-process source of truth: the latest instance per identity
// plus the set of live snapshot observers. Every AddEntity is fanned out to all
// observers synchronously.
//
// Observer handles are weak: a Registry never keeps a Snapshot alive.
// Two registries never interact; build one per scope (or one per process at the
// composition root).
type Registry struct {
	name  string
	log   Logger
	hooks Hooks

	mu      sync.RWMutex
	order   *list.List                 // of Entity, oldest first
	index   map[Identity]*list.Element // identity -> element in order
	revs    map[Identity]uint64        // survives replacement so revisions keep growing
	watched map[weak.Pointer[Snapshot]]struct{}
}

func newRegistry(opts RegistryOptions) *Registry {
	return &Registry{
		name:    coalesce(opts.Name, defaultRegistryName),
		log:     coalesce[Logger](opts.Logger, NopLogger{}),
		hooks:   coalesce[Hooks](opts.Hooks, NopHooks{}),
		order:   list.New(),
		index:   make(map[Identity]*list.Element),
		revs:    make(map[Identity]uint64),
		watched: make(map[weak.Pointer[Snapshot]]struct{}),
	}
}

func (r *Registry) Name() string { return r.name }

// Register adds s to the observer set. Idempotent; returns false if s was already registered.
func (r *Registry) Register(s *Snapshot) bool {
	if s == nil {
		return false
	}
	return r.watch(weak.Make(s))
}

// Deregister removes s from the observer set. Returns false if s was not registered.
func (r *Registry) Deregister(s *Snapshot) bool {
	if s == nil {
		return false
	}
	return r.unwatch(weak.Make(s))
}

func (r *Registry) watch(h weak.Pointer[Snapshot]) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.watched[h]; ok {
		return false
	}
	r.watched[h] = struct{}{}
	return true
}

func (r *Registry) unwatch(h weak.Pointer[Snapshot]) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.watched[h]; !ok {
		return false
	}
	delete(r.watched, h)
	return true
}

// AddEntity stores e as the canonical instance of its identity (replacing and
// moving to the back any previous one), then calls HandleEntityChanged on every
// live observer. Observers filter relevance themselves.
// Nil entities are ignored.
func (r *Registry) AddEntity(e Entity) {
	if e == nil {
		return
	}
	id := IdentityOf(e)

	r.mu.Lock()
	if el, ok := r.index[id]; ok {
		r.order.Remove(el)
	}
	r.revs[id]++
	rev := r.revs[id]
	r.index[id] = r.order.PushBack(e)

	observers := make([]*Snapshot, 0, len(r.watched))
	for h := range r.watched {
		if s := h.Value(); s != nil {
			observers = append(observers, s)
		} else {
			delete(r.watched, h) // collected; the cleanup may not have run yet
		}
	}
	r.mu.Unlock()

	r.log.Debug("entity broadcast", Fields{"registry": r.name, "identity": id.String(), "rev": rev, "observers": len(observers)})
	for _, s := range observers {
		s.HandleEntityChanged(e)
	}
	r.hooks.EntityBroadcast(id, len(observers))
}

// Fetch returns the canonical instance for existing's identity, but only when it
// is a different instance than existing. Pure lookup.
func (r *Registry) Fetch(existing Entity) (Entity, bool) {
	if existing == nil {
		return nil, false
	}
	stored, ok := r.Lookup(IdentityOf(existing))
	if !ok || sameInstance(stored, existing) {
		return nil, false
	}
	return stored, true
}

// Lookup returns the canonical instance stored for id.
func (r *Registry) Lookup(id Identity) (Entity, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	el, ok := r.index[id]
	if !ok {
		return nil, false
	}
	return el.Value.(Entity), true
}

// Revision returns how many times id has been published through AddEntity (0 = never).
func (r *Registry) Revision(id Identity) uint64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.revs[id]
}

// Entities returns the canonical entities, least recently published first.
func (r *Registry) Entities() []Entity {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Entity, 0, r.order.Len())
	for el := r.order.Front(); el != nil; el = el.Next() {
		out = append(out, el.Value.(Entity))
	}
	return out
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.order.Len()
}

// ObserverCount returns the number of registered snapshots that are still alive.
func (r *Registry) ObserverCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	n := 0
	for h := range r.watched {
		if h.Value() != nil {
			n++
		}
	}
	return n
}
