package entitycache

import (
	"fmt"

	"github.com/google/uuid"
)

// RegistryOptions tune a Registry. All fields are optional.
type RegistryOptions struct {
	Name   string // used in logs only; "" => "default"
	Logger Logger // if nil, NopLogger is used
	Hooks  Hooks  // if nil, NopHooks is used
}

// BucketOptions configure a Bucket.
// Only Registry is required; others have sensible defaults.
type BucketOptions struct {
	// Required
	Registry *Registry

	Name   string // "" => "bucket-<uuid>"; also the archive key
	Limit  int    // 0 => unbounded; otherwise FIFO eviction beyond Limit
	Logger Logger // nil => the registry's logger
	Hooks  Hooks  // nil => the registry's hooks
}

// NewRegistry builds an independent registry. Construct one at the composition
// root and inject it; there is no package-level default.
func NewRegistry(opts RegistryOptions) *Registry {
	return newRegistry(opts)
}

// NewBucket builds a working-set bucket bound to opts.Registry.
func NewBucket(opts BucketOptions) (*Bucket, error) {
	if opts.Registry == nil {
		return nil, ErrNilRegistry
	}
	if opts.Limit < 0 {
		return nil, fmt.Errorf("%w (got %d)", ErrNegativeLimit, opts.Limit)
	}
	return newBucket(opts), nil
}

// NewCache builds the unbounded, shared variant of a bucket. It is the same type;
// any Limit in opts is ignored.
func NewCache(opts BucketOptions) (*Bucket, error) {
	opts.Limit = 0
	return NewBucket(opts)
}

func defaultBucketName() string { return "bucket-" + uuid.NewString() }
