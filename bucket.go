package entitycache

import (
	"container/list"
	"sync"
)

// Bucket is an ordered working set of snapshots, unique by identity, optionally
// bounded by a limit. Beyond the limit the oldest inserted entries are evicted
// (strict FIFO; reads never reorder). Every mutation emits at most one Event to
// the bucket's subscribers.
//
// A Bucket owns its snapshots: Remove, RemoveAll, eviction and Close release them,
// which deregisters them from the registry. Members stay current through registry
// broadcasts without any action from the owner (passive refresh).
//
// Subscriber callbacks run synchronously on the mutating goroutine after the
// bucket lock is released, so they may call back into the bucket.
type Bucket struct {
	name     string
	limit    int
	registry *Registry
	log      Logger
	hooks    Hooks

	mu     sync.Mutex
	order  *list.List                 // of *Snapshot, oldest first
	index  map[Identity]*list.Element // identity -> element in order
	closed bool

	subMu  sync.RWMutex
	subs   []subscriber
	nextID uint64
}

var _ SnapshotDelegate = (*Bucket)(nil)

func newBucket(opts BucketOptions) *Bucket {
	b := &Bucket{
		name:     opts.Name,
		limit:    opts.Limit,
		registry: opts.Registry,
		log:      coalesce[Logger](opts.Logger, opts.Registry.log),
		hooks:    coalesce[Hooks](opts.Hooks, opts.Registry.hooks),
		order:    list.New(),
		index:    make(map[Identity]*list.Element),
	}
	if b.name == "" {
		b.name = defaultBucketName()
	}
	b.log.Info("bucket created", Fields{"bucket": b.name, "limit": b.limit, "registry": b.registry.name})
	return b
}

func (b *Bucket) Name() string { return b.name }

// Registry returns the registry the bucket's snapshots observe.
func (b *Bucket) Registry() *Registry { return b.registry }

// Limit returns the capacity; 0 means unbounded.
func (b *Bucket) Limit() int { return b.limit }

// Add inserts e unless an entity with the same identity is already present, in
// which case nothing changes and no event is emitted (Duplicate).
func (b *Bucket) Add(e Entity) Status {
	if e == nil {
		return Invalid
	}
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return Invalid
	}
	if !b.insertLocked(e) {
		b.mu.Unlock()
		b.duplicate(e)
		return Duplicate
	}
	evicted := b.trimLocked()
	b.mu.Unlock()

	b.emit(Event{Added: []Entity{e}, Removed: b.release(evicted, true)})
	return Inserted
}

// AddAll inserts every entity not already present, in input order, then evicts
// once. A single event combines everything inserted and evicted; no event is
// emitted when nothing changed. The returned statuses align with es.
func (b *Bucket) AddAll(es []Entity) []Status {
	statuses := make([]Status, len(es))
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		for i := range statuses {
			statuses[i] = Invalid
		}
		return statuses
	}
	added, dups := b.insertAllLocked(es, statuses)
	evicted := b.trimLocked()
	b.mu.Unlock()

	for _, e := range dups {
		b.duplicate(e)
	}
	removed := b.release(evicted, true)
	if len(added) > 0 || len(removed) > 0 {
		b.emit(Event{Added: added, Removed: removed})
	}
	return statuses
}

// Remove drops the member with e's identity and emits {Removed: [held]} where
// held is the instance the bucket was holding. After a passive refresh that is
// the newer instance subscribers last saw in an event, not necessarily e; eviction
// and RemoveAll report held instances the same way. NotFound otherwise, without event.
func (b *Bucket) Remove(e Entity) Status {
	if e == nil {
		return Invalid
	}
	b.mu.Lock()
	el, ok := b.index[IdentityOf(e)]
	if !ok || b.closed {
		b.mu.Unlock()
		return NotFound
	}
	s := b.unlinkLocked(el)
	b.mu.Unlock()

	b.emit(Event{Removed: b.release([]*Snapshot{s}, false)})
	return Removed
}

// RemoveAll empties the bucket and emits {Removed: previous contents}. The event
// is emitted even when the bucket was already empty.
func (b *Bucket) RemoveAll() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	all := b.drainLocked()
	b.mu.Unlock()

	b.emit(Event{Removed: b.release(all, false)})
}

// Reset replaces the whole content with es in one step: the previous members and
// anything evicted go to Removed, the inserted entities to Added.
func (b *Bucket) Reset(es []Entity) []Status {
	statuses := make([]Status, len(es))
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		for i := range statuses {
			statuses[i] = Invalid
		}
		return statuses
	}
	previous := b.drainLocked()
	added, dups := b.insertAllLocked(es, statuses)
	evicted := b.trimLocked()
	b.mu.Unlock()

	for _, e := range dups {
		b.duplicate(e)
	}
	removed := b.release(previous, false)
	removed = append(removed, b.release(evicted, true)...)
	b.emit(Event{Added: added, Removed: removed})
	return statuses
}

// Contains reports identity-based membership.
func (b *Bucket) Contains(e Entity) bool {
	if e == nil {
		return false
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.index[IdentityOf(e)]
	return ok
}

// Entities returns the current instances, oldest inserted first.
func (b *Bucket) Entities() []Entity {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]Entity, 0, b.order.Len())
	for el := b.order.Front(); el != nil; el = el.Next() {
		out = append(out, el.Value.(*Snapshot).Entity())
	}
	return out
}

// EntitiesOf returns the members whose concrete type is K, in bucket order.
func EntitiesOf[K Entity](b *Bucket) []K {
	var out []K
	for _, e := range b.Entities() {
		if k, ok := e.(K); ok {
			out = append(out, k)
		}
	}
	return out
}

// Recent returns up to n members, newest first. n <= 0 returns all of them.
func (b *Bucket) Recent(n int) []Entity {
	b.mu.Lock()
	defer b.mu.Unlock()
	if n <= 0 || n > b.order.Len() {
		n = b.order.Len()
	}
	out := make([]Entity, 0, n)
	for el := b.order.Back(); el != nil && len(out) < n; el = el.Prev() {
		out = append(out, el.Value.(*Snapshot).Entity())
	}
	return out
}

func (b *Bucket) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.order.Len()
}

// Subscribe registers fn for every future event of this bucket. The returned
// func cancels the subscription; it is safe to call more than once.
func (b *Bucket) Subscribe(fn func(Event)) (cancel func()) {
	if fn == nil {
		return func() {}
	}
	b.subMu.Lock()
	b.nextID++
	id := b.nextID
	b.subs = append(b.subs, subscriber{id: id, fn: fn})
	b.subMu.Unlock()

	return func() {
		b.subMu.Lock()
		defer b.subMu.Unlock()
		for i, s := range b.subs {
			if s.id == id {
				b.subs = append(b.subs[:i:i], b.subs[i+1:]...)
				return
			}
		}
	}
}

// Close releases every snapshot (deregistering them) and drops all subscribers.
// No event is emitted. Later mutations are ignored.
func (b *Bucket) Close() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.closed = true
	all := b.drainLocked()
	b.mu.Unlock()

	b.release(all, false)
	b.subMu.Lock()
	b.subs = nil
	b.subMu.Unlock()
	b.log.Debug("bucket closed", Fields{"bucket": b.name, "released": len(all)})
}

// EntitySnapshotDidChange implements SnapshotDelegate: a member was refreshed by
// a registry broadcast. Size and order are unchanged; {Added: [updated]} is emitted.
func (b *Bucket) EntitySnapshotDidChange(s *Snapshot) {
	b.mu.Lock()
	el, ok := b.index[s.Identity()]
	member := ok && !b.closed && el.Value.(*Snapshot) == s
	b.mu.Unlock()
	if !member {
		return
	}
	b.hooks.SnapshotRefreshed(b.name, s.Identity())
	b.emit(Event{Added: []Entity{s.Entity()}})
}

// insertLocked appends a snapshot for e unless its identity is present.
func (b *Bucket) insertLocked(e Entity) bool {
	id := IdentityOf(e)
	if _, ok := b.index[id]; ok {
		return false
	}
	s := NewSnapshot(e, b.registry)
	s.SetDelegate(b)
	b.index[id] = b.order.PushBack(s)
	return true
}

func (b *Bucket) insertAllLocked(es []Entity, statuses []Status) (added, dups []Entity) {
	for i, e := range es {
		switch {
		case e == nil:
			statuses[i] = Invalid
		case b.insertLocked(e):
			statuses[i] = Inserted
			added = append(added, e)
		default:
			statuses[i] = Duplicate
			dups = append(dups, e)
		}
	}
	return added, dups
}

// trimLocked unlinks the oldest members until the limit holds.
func (b *Bucket) trimLocked() []*Snapshot {
	if b.limit <= 0 {
		return nil
	}
	var evicted []*Snapshot
	for b.order.Len() > b.limit {
		evicted = append(evicted, b.unlinkLocked(b.order.Front()))
	}
	return evicted
}

func (b *Bucket) unlinkLocked(el *list.Element) *Snapshot {
	s := b.order.Remove(el).(*Snapshot)
	delete(b.index, s.Identity())
	return s
}

func (b *Bucket) drainLocked() []*Snapshot {
	all := make([]*Snapshot, 0, b.order.Len())
	for el := b.order.Front(); el != nil; el = el.Next() {
		all = append(all, el.Value.(*Snapshot))
	}
	b.order.Init()
	clear(b.index)
	return all
}

// release closes unlinked snapshots and returns the entities they held.
func (b *Bucket) release(snaps []*Snapshot, evicted bool) []Entity {
	if len(snaps) == 0 {
		return nil
	}
	out := make([]Entity, 0, len(snaps))
	for _, s := range snaps {
		out = append(out, s.Entity())
		s.Close()
		if evicted {
			b.log.Debug("evicted", Fields{"bucket": b.name, "identity": s.Identity().String(), "limit": b.limit})
			b.hooks.Evicted(b.name, s.Identity())
		}
	}
	return out
}

func (b *Bucket) duplicate(e Entity) {
	id := IdentityOf(e)
	b.log.Debug("add ignored, identity already present", Fields{"bucket": b.name, "identity": id.String()})
	b.hooks.DuplicateRejected(b.name, id)
}

func (b *Bucket) emit(ev Event) {
	b.subMu.RLock()
	subs := make([]subscriber, len(b.subs))
	copy(subs, b.subs)
	b.subMu.RUnlock()

	for _, s := range subs {
		s.fn(ev)
	}
}
