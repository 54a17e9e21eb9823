package entitycache

// Hooks lightweight callbacks for high-signal events.
// Implementations MUST be cheap and non-blocking.
// They are called synchronously on the mutating goroutine, never under a lock.
type Hooks interface {
	// Registry.AddEntity fanned an update out to `observers` live snapshots.
	EntityBroadcast(id Identity, observers int)

	// A bucket member was replaced by a registry broadcast (passive refresh).
	SnapshotRefreshed(bucket string, id Identity)

	// A bucket member was dropped to honor the bucket limit.
	Evicted(bucket string, id Identity)

	// Add was called for an identity the bucket already holds.
	DuplicateRejected(bucket string, id Identity)

	// A snapshot was garbage collected without Close; its registration was reclaimed.
	SnapshotLeaked(id Identity)
}

// NopHooks is the default no-op
type NopHooks struct{}

func (NopHooks) EntityBroadcast(Identity, int)       {}
func (NopHooks) SnapshotRefreshed(string, Identity) {}
func (NopHooks) Evicted(string, Identity)           {}
func (NopHooks) DuplicateRejected(string, Identity) {}
func (NopHooks) SnapshotLeaked(Identity)            {}
