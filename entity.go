package entitycache

import (
	"reflect"
)

// Entity is any record with a logical id. Its kind is its concrete dynamic type.
// Entities are never mutated by this package; only whole instances are replaced.
// Pointer types are the natural choice: instance identity is then pointer identity.
type Entity interface {
	EntityID() string
}

// Namer lets an entity pick its own kind label (used for logs and archives).
// It does not change identity, which is always keyed on the dynamic type.
type Namer interface {
	EntityKind() string
}

// Identity is the logical identity of an entity: (kind, id).
type Identity struct {
	Kind reflect.Type
	ID   string
}

// IdentityOf returns the logical identity of e. A nil entity yields the zero Identity.
func IdentityOf(e Entity) Identity {
	if e == nil {
		return Identity{}
	}
	return Identity{Kind: reflect.TypeOf(e), ID: e.EntityID()}
}

// SameIdentity reports whether a and b are the same logical record,
// regardless of whether they are the same instance.
func SameIdentity(a, b Entity) bool {
	if a == nil || b == nil {
		return false
	}
	return reflect.TypeOf(a) == reflect.TypeOf(b) && a.EntityID() == b.EntityID()
}

func (i Identity) IsZero() bool { return i.Kind == nil && i.ID == "" }

func (i Identity) String() string {
	return KindNameOf(i.Kind) + "#" + i.ID
}

// KindName returns the kind label of e.
func KindName(e Entity) string {
	if e == nil {
		return ""
	}
	if n, ok := e.(Namer); ok {
		if k := n.EntityKind(); k != "" {
			return k
		}
	}
	return KindNameOf(reflect.TypeOf(e))
}

// KindNameOf derives "pkg.Type" from t, unwrapping pointers. A Namer on the type
// wins; it is called on a zero value, so it must not depend on fields.
func KindNameOf(t reflect.Type) string {
	if t == nil {
		return ""
	}
	if t.Implements(namerType) {
		var v reflect.Value
		if t.Kind() == reflect.Pointer {
			v = reflect.New(t.Elem())
		} else {
			v = reflect.Zero(t)
		}
		if k := v.Interface().(Namer).EntityKind(); k != "" {
			return k
		}
	}
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t.String()
}

var namerType = reflect.TypeOf((*Namer)(nil)).Elem()

// sameInstance reports reference identity. Pointer entities compare by address;
// other comparable types by value; non-comparable types are never the same instance.
// A comparable struct may still hold a slice or map in an interface field, so
// value comparison never lets the runtime panic escape.
func sameInstance(a, b Entity) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	t := reflect.TypeOf(a)
	if t != reflect.TypeOf(b) || !t.Comparable() {
		return false
	}
	if t.Kind() == reflect.Pointer {
		return a == b
	}
	return equalValues(a, b)
}

func equalValues(a, b Entity) (eq bool) {
	defer func() {
		if recover() != nil {
			eq = false
		}
	}()
	return a == b
}
