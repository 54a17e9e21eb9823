// Package entitycache keeps in-process working sets of domain entities in sync
// with the latest authoritative copy of each entity.
//
// Components:
//   - Registry: the latest instance per identity plus a weak set of observers.
//     AddEntity stores and broadcasts synchronously to every live observer.
//   - Snapshot: holds one entity instance and swaps it for a newer instance of
//     the same identity when the registry broadcasts one.
//   - Bucket: an ordered set of snapshots, unique by identity, optionally bounded
//     (strict FIFO eviction). Every mutation emits one Event{Added, Removed} to
//     subscribers. NewCache builds the unbounded variant.
//
// Identity is (concrete dynamic type, EntityID()). Two instances with the same
// identity are the same logical record; which instance a bucket holds is what
// the registry keeps current.
//
// Typical flow:
//
//	reg := entitycache.NewRegistry(entitycache.RegistryOptions{})
//	recent, _ := entitycache.NewBucket(entitycache.BucketOptions{Registry: reg, Name: "recent", Limit: 6})
//	defer recent.Close()
//
//	recent.Add(person)             // snapshot registered with reg
//	reg.AddEntity(updatedPerson)   // recent now holds updatedPerson; subscribers get {Added: [updatedPerson]}
//
// Persistence of working sets lives in the archive package; the per-user
// composition of a shared cache and a recently-viewed bucket lives in session.
package entitycache
