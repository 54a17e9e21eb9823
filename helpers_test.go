package entitycache

import (
	"sync"
	"testing"
)

type person struct {
	ID   string
	Name string
}

func (p *person) EntityID() string { return p.ID }

type vehicle struct {
	ID    string
	Plate string
}

func (v *vehicle) EntityID() string   { return v.ID }
func (v *vehicle) EntityKind() string { return "vehicle" }

// eventLog records bucket events.
type eventLog struct {
	mu     sync.Mutex
	events []Event
}

func (l *eventLog) record(ev Event) {
	l.mu.Lock()
	l.events = append(l.events, ev)
	l.mu.Unlock()
}

func (l *eventLog) all() []Event {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]Event(nil), l.events...)
}

func (l *eventLog) reset() {
	l.mu.Lock()
	l.events = nil
	l.mu.Unlock()
}

type recordingHooks struct {
	NopHooks
	mu         sync.Mutex
	broadcasts int
	refreshed  []Identity
	evicted    []Identity
	duplicates []Identity
	leaked     []Identity
}

func (h *recordingHooks) EntityBroadcast(Identity, int) {
	h.mu.Lock()
	h.broadcasts++
	h.mu.Unlock()
}

func (h *recordingHooks) SnapshotRefreshed(_ string, id Identity) {
	h.mu.Lock()
	h.refreshed = append(h.refreshed, id)
	h.mu.Unlock()
}

func (h *recordingHooks) Evicted(_ string, id Identity) {
	h.mu.Lock()
	h.evicted = append(h.evicted, id)
	h.mu.Unlock()
}

func (h *recordingHooks) DuplicateRejected(_ string, id Identity) {
	h.mu.Lock()
	h.duplicates = append(h.duplicates, id)
	h.mu.Unlock()
}

func (h *recordingHooks) SnapshotLeaked(id Identity) {
	h.mu.Lock()
	h.leaked = append(h.leaked, id)
	h.mu.Unlock()
}

func (h *recordingHooks) leakedCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.leaked)
}

func newTestBucket(t *testing.T, r *Registry, limit int) (*Bucket, *eventLog) {
	t.Helper()
	b, err := NewBucket(BucketOptions{Registry: r, Name: t.Name(), Limit: limit})
	if err != nil {
		t.Fatalf("NewBucket: %v", err)
	}
	t.Cleanup(b.Close)
	log := &eventLog{}
	b.Subscribe(log.record)
	return b, log
}

// sameEntities compares by instance, in order.
func sameEntities(got, want []Entity) bool {
	if len(got) != len(want) {
		return false
	}
	for i := range got {
		if !sameInstance(got[i], want[i]) {
			return false
		}
	}
	return true
}

func ids(es []Entity) []string {
	out := make([]string, len(es))
	for i, e := range es {
		out[i] = e.EntityID()
	}
	return out
}
