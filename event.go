package entitycache

// Event is the change notification a Bucket emits. One bucket call produces at
// most one Event. Passive refreshes arrive as an Added entry for an identity the
// bucket already held.
type Event struct {
	Added   []Entity
	Removed []Entity
}

// Empty reports whether the event carries no entities (RemoveAll on an empty bucket).
func (e Event) Empty() bool { return len(e.Added) == 0 && len(e.Removed) == 0 }

type subscriber struct {
	id uint64
	fn func(Event)
}
