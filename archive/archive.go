// Package archive persists a bucket's working set to a provider and restores it
// later, keeping member order. It is an optional subscriber on top of the
// in-memory buckets; nothing in the root package depends on it.
package archive

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/unkn0wn-root/entitycache"
	"github.com/unkn0wn-root/entitycache/internal/util"
	"github.com/unkn0wn-root/entitycache/internal/wire"
	"github.com/unkn0wn-root/entitycache/provider"
)

const defaultSaveTimeout = 2 * time.Second

// ErrCorrupt is reported through logs when a stored frame fails validation.
var ErrCorrupt = wire.ErrCorrupt

// Options configure an Archive.
// Provider and Kinds are required; others have sensible defaults.
type Options struct {
	// Required
	Provider provider.Provider
	Kinds    *Kinds

	// Optional
	Namespace   string             // key prefix: "bucket:<ns>:<bucket name>"
	TTL         time.Duration      // 0 => no expiry where the provider supports it
	SaveTimeout time.Duration      // bound for saves triggered by Attach; 0 => 2s
	Logger      entitycache.Logger // nil => NopLogger

	// AsyncSaves moves saves triggered by Attach onto one background goroutine
	// per attached bucket. Bursts of events coalesce into a single save of the
	// latest content. Use it with remote providers: otherwise every passive
	// refresh blocks Registry.AddEntity for the duration of a provider write.
	AsyncSaves bool
}

type Archive struct {
	ns          string
	provider    provider.Provider
	kinds       *Kinds
	ttl         time.Duration
	saveTimeout time.Duration
	log         entitycache.Logger
	async       bool

	mu        sync.Mutex
	restoring map[*entitycache.Bucket]*restore
}

// restore tracks the Restore calls in flight on one bucket. Each Reset emits
// exactly one event; any event beyond that came from a concurrent mutation.
type restore struct {
	active int
	resets int
	events int
}

func New(opts Options) (*Archive, error) {
	if opts.Provider == nil {
		return nil, ErrNilProvider
	}
	if opts.Kinds == nil {
		return nil, ErrNilKinds
	}
	a := &Archive{
		ns:          opts.Namespace,
		provider:    opts.Provider,
		kinds:       opts.Kinds,
		ttl:         opts.TTL,
		saveTimeout: opts.SaveTimeout,
		log:         opts.Logger,
		async:       opts.AsyncSaves,
		restoring:   make(map[*entitycache.Bucket]*restore),
	}
	if a.saveTimeout <= 0 {
		a.saveTimeout = defaultSaveTimeout
	}
	if a.log == nil {
		a.log = entitycache.NopLogger{}
	}
	return a, nil
}

// Key returns the provider key b is archived under.
func (a *Archive) Key(b *entitycache.Bucket) string { return util.ArchiveKey(a.ns, b.Name()) }

// Save writes b's current members, oldest first. Members of unregistered kinds
// or that fail to encode are left out and logged.
func (a *Archive) Save(ctx context.Context, b *entitycache.Bucket) error {
	key := a.Key(b)
	reg := b.Registry()
	members := b.Entities()

	items := make([]wire.Item, 0, len(members))
	for _, e := range members {
		k, ok := a.kinds.forEntity(e)
		if !ok {
			a.log.Warn("save skipped unregistered kind", entitycache.Fields{"key": key, "kind": entitycache.KindName(e)})
			continue
		}
		payload, err := k.encode(e)
		if err != nil {
			a.log.Warn("save skipped entity (encode)", entitycache.Fields{"key": key, "kind": k.name, "err": err})
			continue
		}
		id := entitycache.IdentityOf(e)
		items = append(items, wire.Item{Kind: k.name, ID: id.ID, Rev: reg.Revision(id), Payload: payload})
	}

	frame, err := wire.Encode(items)
	if err != nil {
		return &ArchiveError{Op: "save", Key: key, Err: err}
	}
	ok, err := a.provider.Set(ctx, key, frame, int64(len(frame)), a.ttl)
	if err != nil {
		return &ArchiveError{Op: "save", Key: key, Err: err}
	}
	if !ok {
		return &ArchiveError{Op: "save", Key: key, Err: ErrRejected}
	}
	a.log.Debug("bucket saved", entitycache.Fields{"key": key, "items": len(items), "bytes": len(frame)})
	return nil
}

// Restore replaces b's content with the archived members in their archived order
// and returns how many were inserted (a bounded bucket may evict some of them right
// away, oldest first). A missing archive restores nothing and is
// not an error; a corrupt one is deleted and treated as missing.
//
// When the bucket's registry holds a newer revision of an archived identity, the
// registry's canonical instance is used instead of the archived one.
// The single event Reset emits does not trigger an attached save.
func (a *Archive) Restore(ctx context.Context, b *entitycache.Bucket) (int, error) {
	key := a.Key(b)
	raw, ok, err := a.provider.Get(ctx, key)
	if err != nil {
		return 0, &ArchiveError{Op: "restore", Key: key, Err: err}
	}
	if !ok {
		return 0, nil
	}
	items, err := wire.Decode(raw)
	if err != nil {
		a.log.Warn("corrupt archive deleted", entitycache.Fields{"key": key, "err": err})
		_ = a.provider.Del(ctx, key) // self-heal
		return 0, nil
	}

	reg := b.Registry()
	entities := make([]entitycache.Entity, 0, len(items))
	for _, it := range items {
		k, ok := a.kinds.forName(it.Kind)
		if !ok {
			a.log.Warn("restore skipped unknown kind", entitycache.Fields{"key": key, "kind": it.Kind})
			continue
		}
		e, err := k.decode(it.Payload)
		if err != nil {
			a.log.Warn("restore skipped entity (decode)", entitycache.Fields{"key": key, "kind": it.Kind, "err": err})
			continue
		}
		id := entitycache.IdentityOf(e)
		if id.ID != it.ID {
			a.log.Warn("restore skipped entity (id mismatch)", entitycache.Fields{"key": key, "kind": it.Kind})
			continue
		}
		if reg.Revision(id) > it.Rev {
			if canonical, ok := reg.Lookup(id); ok {
				e = canonical
			}
		}
		entities = append(entities, e)
	}

	a.begin(b)
	statuses := b.Reset(entities)
	if a.end(b) {
		// mutations made while restoring were not saved; save the settled content
		a.autosave(b)
	}

	n := 0
	for _, s := range statuses {
		if s == entitycache.Inserted {
			n++
		}
	}
	a.log.Debug("bucket restored", entitycache.Fields{"key": key, "items": len(items), "restored": n})
	return n, nil
}

// Clear deletes b's archive.
func (a *Archive) Clear(ctx context.Context, b *entitycache.Bucket) error {
	key := a.Key(b)
	if err := a.provider.Del(ctx, key); err != nil {
		return &ArchiveError{Op: "clear", Key: key, Err: err}
	}
	return nil
}

// Attach saves b after every event it emits, except the one caused by Restore.
// Events from other goroutines that land while a Restore is in flight are not
// saved one by one; a single save runs once the restore settles.
//
// By default saves run on the mutating goroutine, bounded by SaveTimeout. That
// includes passive refreshes, so Registry.AddEntity waits for the provider write
// of every attached bucket; set Options.AsyncSaves to avoid that. Failures are
// logged. The returned func detaches; with AsyncSaves it also waits for a save
// in progress.
func (a *Archive) Attach(b *entitycache.Bucket) (detach func()) {
	if !a.async {
		return b.Subscribe(func(entitycache.Event) {
			if a.suppressed(b) {
				return
			}
			a.autosave(b)
		})
	}

	kick := make(chan struct{}, 1)
	done := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-done:
				return
			case <-kick:
				a.autosave(b)
			}
		}
	}()

	cancel := b.Subscribe(func(entitycache.Event) {
		if a.suppressed(b) {
			return
		}
		select {
		case kick <- struct{}{}:
		default: // a save is already pending and will see this change
		}
	})
	var once sync.Once
	return func() {
		once.Do(func() {
			cancel()
			close(done)
			wg.Wait()
		})
	}
}

func (a *Archive) autosave(b *entitycache.Bucket) {
	ctx, cancel := context.WithTimeout(context.Background(), a.saveTimeout)
	defer cancel()
	if err := a.Save(ctx, b); err != nil {
		lvl := a.log.Error
		if errors.Is(err, ErrRejected) {
			lvl = a.log.Warn
		}
		lvl("attached save failed", entitycache.Fields{"key": a.Key(b), "err": err})
	}
}

// Close closes the underlying provider.
func (a *Archive) Close(ctx context.Context) error { return a.provider.Close(ctx) }

func (a *Archive) begin(b *entitycache.Bucket) {
	a.mu.Lock()
	r := a.restoring[b]
	if r == nil {
		r = &restore{}
		a.restoring[b] = r
	}
	r.active++
	a.mu.Unlock()
}

// end closes one Restore on b and reports whether events other than the
// restores' own resets were suppressed in the meantime.
func (a *Archive) end(b *entitycache.Bucket) (missed bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	r := a.restoring[b]
	r.active--
	r.resets++
	if r.active > 0 {
		return false
	}
	delete(a.restoring, b)
	return r.events > r.resets
}

// suppressed reports whether b is being restored, counting the event if so.
func (a *Archive) suppressed(b *entitycache.Bucket) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	r := a.restoring[b]
	if r == nil {
		return false
	}
	r.events++
	return true
}
