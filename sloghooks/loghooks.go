package sloghooks

import (
	"log/slog"
	"sync/atomic"

	"github.com/unkn0wn-root/entitycache"
	"github.com/unkn0wn-root/entitycache/internal/util"
)

type Options struct {
	// Sampling to avoid floods; 0/1 = log all.
	BroadcastEvery uint64
	RefreshEvery   uint64
	DuplicateEvery uint64
	// Optional id redactor. Defaults to a SHA-256 prefix; entity ids are often user data.
	Redact func(string) string
}

type Hooks struct {
	l    *slog.Logger
	opts Options

	broadcastCtr atomic.Uint64
	refreshCtr   atomic.Uint64
	duplicateCtr atomic.Uint64
}

var _ entitycache.Hooks = (*Hooks)(nil)

func New(l *slog.Logger, opts Options) *Hooks {
	return &Hooks{l: l, opts: opts}
}

func (h *Hooks) identity(id entitycache.Identity) string {
	redact := h.opts.Redact
	if redact == nil {
		redact = util.Digest
	}
	return entitycache.KindNameOf(id.Kind) + "#" + redact(id.ID)
}

func sample(n uint64, ctr *atomic.Uint64) bool {
	if n == 0 || n == 1 {
		return true
	}
	return ctr.Add(1)%n == 0
}

func (h *Hooks) EntityBroadcast(id entitycache.Identity, observers int) {
	if h.l == nil || !sample(h.opts.BroadcastEvery, &h.broadcastCtr) {
		return
	}
	h.l.Debug("entitycache.entity_broadcast",
		"identity", h.identity(id),
		"observers", observers)
}

func (h *Hooks) SnapshotRefreshed(bucket string, id entitycache.Identity) {
	if h.l == nil || !sample(h.opts.RefreshEvery, &h.refreshCtr) {
		return
	}
	h.l.Debug("entitycache.snapshot_refreshed",
		"bucket", bucket,
		"identity", h.identity(id))
}

func (h *Hooks) Evicted(bucket string, id entitycache.Identity) {
	if h.l == nil {
		return
	}
	h.l.Info("entitycache.evicted",
		"bucket", bucket,
		"identity", h.identity(id))
}

func (h *Hooks) DuplicateRejected(bucket string, id entitycache.Identity) {
	if h.l == nil || !sample(h.opts.DuplicateEvery, &h.duplicateCtr) {
		return
	}
	h.l.Debug("entitycache.duplicate_rejected",
		"bucket", bucket,
		"identity", h.identity(id))
}

func (h *Hooks) SnapshotLeaked(id entitycache.Identity) {
	if h.l == nil {
		return
	}
	h.l.Warn("entitycache.snapshot_leaked",
		"identity", h.identity(id),
		"detail", "snapshot collected without Close; registration reclaimed")
}
