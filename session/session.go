// Package session is the per-user composition root: one registry, a shared
// unbounded cache and a bounded recently-viewed bucket, optionally persisted
// through an archive.
package session

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/unkn0wn-root/entitycache"
	"github.com/unkn0wn-root/entitycache/archive"
)

const DefaultRecentLimit = 6

var ErrClosed = errors.New("session: closed")

// Options configure a Session.
// Only Registry is required.
type Options struct {
	// Required
	Registry *entitycache.Registry

	// Optional
	ID          string             // "" => random uuid; prefixes bucket names and archive keys
	Archive     *archive.Archive   // nil => in-memory only
	RecentLimit int                // <= 0 => DefaultRecentLimit
	Logger      entitycache.Logger // nil => the registry's logger
	Hooks       entitycache.Hooks  // nil => the registry's hooks
}

type Session struct {
	id      string
	archive *archive.Archive
	log     entitycache.Logger

	cache  *entitycache.Bucket
	recent *entitycache.Bucket

	mu     sync.Mutex
	detach func()
	closed bool
}

func New(opts Options) (*Session, error) {
	if opts.Registry == nil {
		return nil, entitycache.ErrNilRegistry
	}
	if opts.ID == "" {
		opts.ID = uuid.NewString()
	}
	if opts.RecentLimit <= 0 {
		opts.RecentLimit = DefaultRecentLimit
	}

	cache, err := entitycache.NewCache(entitycache.BucketOptions{
		Registry: opts.Registry,
		Name:     opts.ID + ":cache",
		Logger:   opts.Logger,
		Hooks:    opts.Hooks,
	})
	if err != nil {
		return nil, err
	}
	recent, err := entitycache.NewBucket(entitycache.BucketOptions{
		Registry: opts.Registry,
		Name:     opts.ID + ":recently-viewed",
		Limit:    opts.RecentLimit,
		Logger:   opts.Logger,
		Hooks:    opts.Hooks,
	})
	if err != nil {
		cache.Close()
		return nil, err
	}

	s := &Session{
		id:      opts.ID,
		archive: opts.Archive,
		log:     opts.Logger,
		cache:   cache,
		recent:  recent,
		detach:  func() {},
	}
	if s.log == nil {
		s.log = entitycache.NopLogger{}
	}
	if s.archive != nil {
		s.detach = s.archive.Attach(recent)
	}
	s.log.Info("session started", entitycache.Fields{"session": s.id, "recent_limit": opts.RecentLimit, "archived": s.archive != nil})
	return s, nil
}

func (s *Session) ID() string { return s.id }

// Cache is the session's unbounded working set.
func (s *Session) Cache() *entitycache.Bucket { return s.cache }

// RecentlyViewed holds the last RecentLimit viewed entities, oldest first.
func (s *Session) RecentlyViewed() *entitycache.Bucket { return s.recent }

// Viewed records that e was looked at: it becomes the newest recently viewed
// entry. An entry already present is removed and added again, so it moves to the
// back and picks up the instance passed in.
func (s *Session) Viewed(e entitycache.Entity) entitycache.Status {
	if e == nil {
		return entitycache.Invalid
	}
	s.recent.Remove(e)
	return s.recent.Add(e)
}

// Save archives both buckets concurrently. Without an archive it is a no-op.
func (s *Session) Save(ctx context.Context) error {
	if s.archive == nil {
		return nil
	}
	g, ctx := errgroup.WithContext(ctx)
	for _, b := range s.buckets() {
		g.Go(func() error { return s.archive.Save(ctx, b) })
	}
	return g.Wait()
}

// Restore replaces both buckets with their archived content, concurrently.
// It returns the number of entities restored across both.
func (s *Session) Restore(ctx context.Context) (int, error) {
	if s.archive == nil {
		return 0, nil
	}
	if s.isClosed() {
		return 0, ErrClosed
	}
	buckets := s.buckets()
	counts := make([]int, len(buckets))
	g, ctx := errgroup.WithContext(ctx)
	for i, b := range buckets {
		g.Go(func() error {
			n, err := s.archive.Restore(ctx, b)
			counts[i] = n
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return 0, err
	}
	total := 0
	for _, n := range counts {
		total += n
	}
	s.log.Info("session restored", entitycache.Fields{"session": s.id, "cache": counts[0], "recent": counts[1]})
	return total, nil
}

// End empties both buckets and deletes their archives. The session stays usable.
func (s *Session) End(ctx context.Context) error {
	s.cache.RemoveAll()
	s.recent.RemoveAll()
	if s.archive == nil {
		return nil
	}
	var errs []error
	for _, b := range s.buckets() {
		if err := s.archive.Clear(ctx, b); err != nil {
			errs = append(errs, err)
		}
	}
	s.log.Info("session ended", entitycache.Fields{"session": s.id})
	return errors.Join(errs...)
}

// Close detaches the archive and releases every snapshot. The archive itself is
// not closed; it may be shared between sessions.
func (s *Session) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	detach := s.detach
	s.mu.Unlock()

	detach()
	s.recent.Close()
	s.cache.Close()
}

func (s *Session) buckets() []*entitycache.Bucket {
	return []*entitycache.Bucket{s.cache, s.recent}
}

func (s *Session) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}
