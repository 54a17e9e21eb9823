package archive

import (
	"errors"
	"fmt"
	"reflect"
	"sync"

	"github.com/unkn0wn-root/entitycache"
	"github.com/unkn0wn-root/entitycache/codec"
)

var (
	ErrKindRegistered = errors.New("archive: kind already registered")
	ErrInterfaceKind  = errors.New("archive: kind must be a concrete type")
)

type kind struct {
	name   string
	encode func(entitycache.Entity) ([]byte, error)
	decode func([]byte) (entitycache.Entity, error)
}

// Kinds is the type table of an archive: which concrete entity types can be
// written, and how to read them back. Entities of unregistered types are skipped
// on Save; archived items of unknown kind are skipped on Restore.
// The zero value is ready to use; safe for concurrent use.
type Kinds struct {
	mu     sync.RWMutex
	byName map[string]*kind
	byType map[reflect.Type]*kind
}

// Register adds E to k, labelled entitycache.KindNameOf(E).
func Register[E entitycache.Entity](k *Kinds, c codec.Codec[E]) error {
	t := reflect.TypeFor[E]()
	if t.Kind() == reflect.Interface {
		return fmt.Errorf("%w: %s", ErrInterfaceKind, t)
	}
	if c == nil {
		return fmt.Errorf("archive: nil codec for %s", t)
	}
	entry := &kind{
		name: entitycache.KindNameOf(t),
		encode: func(e entitycache.Entity) ([]byte, error) {
			v, ok := e.(E)
			if !ok {
				return nil, fmt.Errorf("archive: %T is not %s", e, t)
			}
			return c.Encode(v)
		},
		decode: func(b []byte) (entitycache.Entity, error) {
			v, err := c.Decode(b)
			if err != nil {
				return nil, err
			}
			if rv := reflect.ValueOf(v); rv.Kind() == reflect.Pointer && rv.IsNil() {
				return nil, fmt.Errorf("archive: %s decoded to nil", t)
			}
			return v, nil
		},
	}

	k.mu.Lock()
	defer k.mu.Unlock()
	if k.byName == nil {
		k.byName = make(map[string]*kind)
		k.byType = make(map[reflect.Type]*kind)
	}
	if _, dup := k.byName[entry.name]; dup {
		return fmt.Errorf("%w: %s", ErrKindRegistered, entry.name)
	}
	k.byName[entry.name] = entry
	k.byType[t] = entry
	return nil
}

// MustRegister is Register that panics; for package-level setup.
func MustRegister[E entitycache.Entity](k *Kinds, c codec.Codec[E]) {
	if err := Register(k, c); err != nil {
		panic(err)
	}
}

// Names returns the registered kind labels in no particular order.
func (k *Kinds) Names() []string {
	k.mu.RLock()
	defer k.mu.RUnlock()
	out := make([]string, 0, len(k.byName))
	for n := range k.byName {
		out = append(out, n)
	}
	return out
}

func (k *Kinds) forEntity(e entitycache.Entity) (*kind, bool) {
	k.mu.RLock()
	defer k.mu.RUnlock()
	entry, ok := k.byType[reflect.TypeOf(e)]
	return entry, ok
}

func (k *Kinds) forName(name string) (*kind, bool) {
	k.mu.RLock()
	defer k.mu.RUnlock()
	entry, ok := k.byName[name]
	return entry, ok
}
