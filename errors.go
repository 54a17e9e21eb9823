package entitycache

import (
	"errors"
)

var (
	// ErrNilRegistry is returned when a bucket is built without a registry.
	ErrNilRegistry = errors.New("entitycache: registry is required")
	// ErrNegativeLimit is returned for a bucket limit below zero.
	ErrNegativeLimit = errors.New("entitycache: limit must be >= 0")

	// ErrDuplicate reports an Add for an identity the bucket already holds.
	ErrDuplicate = errors.New("entitycache: entity already present")
	// ErrNotFound reports a Remove for an identity the bucket does not hold.
	ErrNotFound = errors.New("entitycache: entity not found")
	// ErrNilEntity reports a nil entity passed to Add or Remove.
	ErrNilEntity = errors.New("entitycache: nil entity")
)

// Status is the outcome of a single bucket mutation. Callers that ignore it get
// the silent no-op behavior; callers that care can inspect it or call Err.
type Status uint8

const (
	Inserted Status = iota + 1
	Duplicate
	Removed
	NotFound
	Invalid
)

func (s Status) String() string {
	switch s {
	case Inserted:
		return "inserted"
	case Duplicate:
		return "duplicate"
	case Removed:
		return "removed"
	case NotFound:
		return "not_found"
	case Invalid:
		return "invalid"
	default:
		return "unknown"
	}
}

// OK reports whether the call changed the bucket.
func (s Status) OK() bool { return s == Inserted || s == Removed }

// Err maps a non-OK status to its sentinel error.
func (s Status) Err() error {
	switch s {
	case Duplicate:
		return ErrDuplicate
	case NotFound:
		return ErrNotFound
	case Invalid:
		return ErrNilEntity
	default:
		return nil
	}
}
