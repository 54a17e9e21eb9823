package entitycache

import (
	"runtime"
	"testing"
	"time"
)

type countingDelegate struct{ calls []*Snapshot }

func (d *countingDelegate) EntitySnapshotDidChange(s *Snapshot) { d.calls = append(d.calls, s) }

// ==============================
// Entity table
// ==============================

func TestRegistryAddEntityReplacesByIdentity(t *testing.T) {
	r := NewRegistry(RegistryOptions{})
	p1 := &person{ID: "1", Name: "Ada"}
	p2 := &person{ID: "2", Name: "Bob"}
	p1b := &person{ID: "1", Name: "Ada L."}

	r.AddEntity(p1)
	r.AddEntity(p2)
	r.AddEntity(p1b)

	if r.Len() != 2 {
		t.Fatalf("Len=%d want 2", r.Len())
	}
	// replaced identity moves to the back
	if got := r.Entities(); !sameEntities(got, []Entity{p2, p1b}) {
		t.Fatalf("Entities=%v want [2 1']", ids(got))
	}
	got, ok := r.Lookup(IdentityOf(p1))
	if !ok || !sameInstance(got, p1b) {
		t.Fatalf("Lookup should return the latest instance, got %v ok=%v", got, ok)
	}
	if rev := r.Revision(IdentityOf(p1)); rev != 2 {
		t.Fatalf("Revision=%d want 2", rev)
	}
	if rev := r.Revision(IdentityOf(&person{ID: "nope"})); rev != 0 {
		t.Fatalf("unknown identity revision=%d want 0", rev)
	}
}

func TestRegistryFetch(t *testing.T) {
	r := NewRegistry(RegistryOptions{})
	stored := &person{ID: "1", Name: "stored"}
	r.AddEntity(stored)

	if _, ok := r.Fetch(stored); ok {
		t.Fatalf("Fetch with the stored instance itself must report not found")
	}
	other := &person{ID: "1", Name: "stale copy"}
	got, ok := r.Fetch(other)
	if !ok || !sameInstance(got, stored) {
		t.Fatalf("Fetch should return the stored instance, got %v ok=%v", got, ok)
	}
	if _, ok := r.Fetch(&person{ID: "2"}); ok {
		t.Fatalf("Fetch for unknown identity must report not found")
	}
	if _, ok := r.Fetch(nil); ok {
		t.Fatalf("Fetch(nil) must report not found")
	}
	if r.Len() != 1 {
		t.Fatalf("Fetch must not mutate; Len=%d", r.Len())
	}
}

func TestRegistryNilEntityIgnored(t *testing.T) {
	hooks := &recordingHooks{}
	r := NewRegistry(RegistryOptions{Hooks: hooks})
	r.AddEntity(nil)
	if r.Len() != 0 || hooks.broadcasts != 0 {
		t.Fatalf("nil entity must be ignored; len=%d broadcasts=%d", r.Len(), hooks.broadcasts)
	}
}

// ==============================
// Observers
// ==============================

func TestRegistryRegisterIsIdempotent(t *testing.T) {
	r := NewRegistry(RegistryOptions{})
	s := NewSnapshot(&person{ID: "1"}, r)
	defer s.Close()

	if r.ObserverCount() != 1 {
		t.Fatalf("snapshot must self-register, count=%d", r.ObserverCount())
	}
	if r.Register(s) {
		t.Fatalf("second Register must report already present")
	}
	if r.ObserverCount() != 1 {
		t.Fatalf("Register must be idempotent, count=%d", r.ObserverCount())
	}
	if !r.Deregister(s) {
		t.Fatalf("Deregister of a registered snapshot must report true")
	}
	if r.Deregister(s) {
		t.Fatalf("Deregister of an absent snapshot must be a no-op")
	}
	if r.Register(nil) || r.Deregister(nil) {
		t.Fatalf("nil snapshots are ignored")
	}
}

func TestRegistryBroadcastReachesEveryObserver(t *testing.T) {
	hooks := &recordingHooks{}
	r := NewRegistry(RegistryOptions{Hooks: hooks})

	p1 := &person{ID: "1", Name: "old"}
	p2 := &person{ID: "2"}
	d1, d2 := &countingDelegate{}, &countingDelegate{}
	s1 := NewSnapshot(p1, r)
	s2 := NewSnapshot(p2, r)
	defer s1.Close()
	defer s2.Close()
	s1.SetDelegate(d1)
	s2.SetDelegate(d2)

	p1b := &person{ID: "1", Name: "new"}
	r.AddEntity(p1b)

	if !sameInstance(s1.Entity(), p1b) {
		t.Fatalf("matching snapshot must hold the new instance")
	}
	if !sameInstance(s2.Entity(), p2) {
		t.Fatalf("unrelated snapshot must be unchanged")
	}
	if len(d1.calls) != 1 || d1.calls[0] != s1 {
		t.Fatalf("delegate of matching snapshot must be told once, got %d", len(d1.calls))
	}
	if len(d2.calls) != 0 {
		t.Fatalf("delegate of unrelated snapshot must not be told")
	}
	if hooks.broadcasts != 1 {
		t.Fatalf("broadcast hook calls=%d want 1", hooks.broadcasts)
	}
}

func TestRegistriesAreIsolated(t *testing.T) {
	ra := NewRegistry(RegistryOptions{Name: "a"})
	rb := NewRegistry(RegistryOptions{Name: "b"})
	pa := &person{ID: "1", Name: "a"}
	pb := &person{ID: "1", Name: "b"}
	sa := NewSnapshot(pa, ra)
	sb := NewSnapshot(pb, rb)
	defer sa.Close()
	defer sb.Close()

	ra.AddEntity(&person{ID: "1", Name: "a2"})

	if !sameInstance(sb.Entity(), pb) {
		t.Fatalf("snapshot on registry b must not see registry a broadcasts")
	}
	if rb.Len() != 0 {
		t.Fatalf("registry b must stay empty")
	}
}

func TestLeakedSnapshotIsReclaimed(t *testing.T) {
	hooks := &recordingHooks{}
	r := NewRegistry(RegistryOptions{Hooks: hooks})

	func() {
		_ = NewSnapshot(&person{ID: "leak"}, r)
	}()

	deadline := time.Now().Add(5 * time.Second)
	for r.ObserverCount() != 0 || hooks.leakedCount() != 1 {
		if time.Now().After(deadline) {
			t.Fatalf("leaked snapshot not reclaimed: observers=%d leaked=%d", r.ObserverCount(), hooks.leakedCount())
		}
		runtime.GC()
		time.Sleep(10 * time.Millisecond)
	}
	// broadcasting after reclamation must not touch the dead handle
	r.AddEntity(&person{ID: "leak"})
}
