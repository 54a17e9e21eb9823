// Package demo holds the sample entity types the entitydemo binary works with.
package demo

import (
	"fmt"
	"time"

	"github.com/unkn0wn-root/entitycache"
	"github.com/unkn0wn-root/entitycache/archive"
	"github.com/unkn0wn-root/entitycache/codec"
)

type Person struct {
	ID        string    `json:"id" cbor:"id"`
	GivenName string    `json:"given_name" cbor:"given_name"`
	Surname   string    `json:"surname" cbor:"surname"`
	Alerts    int       `json:"alerts" cbor:"alerts"`
	UpdatedAt time.Time `json:"updated_at" cbor:"updated_at"`
}

func (p *Person) EntityID() string   { return p.ID }
func (p *Person) EntityKind() string { return "person" }

func (p *Person) String() string { return p.GivenName + " " + p.Surname }

type Vehicle struct {
	ID           string    `json:"id" cbor:"id"`
	Registration string    `json:"registration" cbor:"registration"`
	Make         string    `json:"make" cbor:"make"`
	Model        string    `json:"model" cbor:"model"`
	UpdatedAt    time.Time `json:"updated_at" cbor:"updated_at"`
}

func (v *Vehicle) EntityID() string   { return v.ID }
func (v *Vehicle) EntityKind() string { return "vehicle" }

func (v *Vehicle) String() string { return v.Registration + " (" + v.Make + " " + v.Model + ")" }

var (
	_ entitycache.Entity = (*Person)(nil)
	_ entitycache.Namer  = (*Person)(nil)
	_ entitycache.Entity = (*Vehicle)(nil)
	_ entitycache.Namer  = (*Vehicle)(nil)
)

// Kinds returns an archive type table for Person and Vehicle using the named codec.
func Kinds(codecName string) (*archive.Kinds, error) {
	k := &archive.Kinds{}
	switch codecName {
	case "json":
		if err := archive.Register[*Person](k, codec.JSON[*Person]{}); err != nil {
			return nil, err
		}
		return k, archive.Register[*Vehicle](k, codec.JSON[*Vehicle]{})
	case "cbor":
		if err := archive.Register[*Person](k, codec.MustCBOR[*Person](true)); err != nil {
			return nil, err
		}
		return k, archive.Register[*Vehicle](k, codec.MustCBOR[*Vehicle](true))
	case "msgpack":
		if err := archive.Register[*Person](k, codec.Msgpack[*Person]{UseJSONTags: true}); err != nil {
			return nil, err
		}
		return k, archive.Register[*Vehicle](k, codec.Msgpack[*Vehicle]{UseJSONTags: true})
	default:
		return nil, fmt.Errorf("demo: unknown codec %q", codecName)
	}
}

// Seed returns a fixed mix of people and vehicles, as a search would return them.
func Seed(now time.Time) []entitycache.Entity {
	return []entitycache.Entity{
		&Person{ID: "p-1", GivenName: "Ada", Surname: "Lovelace", UpdatedAt: now},
		&Vehicle{ID: "v-1", Registration: "ABC123", Make: "Holden", Model: "Commodore", UpdatedAt: now},
		&Person{ID: "p-2", GivenName: "Grace", Surname: "Hopper", Alerts: 1, UpdatedAt: now},
		&Vehicle{ID: "v-2", Registration: "XYZ789", Make: "Ford", Model: "Falcon", UpdatedAt: now},
		&Person{ID: "p-3", GivenName: "Alan", Surname: "Turing", UpdatedAt: now},
	}
}
