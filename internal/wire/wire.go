package wire

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
)

const (
	version byte = 1
	hdrLen       = 4 + 1 + 4
)

var (
	ErrCorrupt = errors.New("entitycache: corrupt archive frame")
	magic4     = [...]byte{'E', 'N', 'T', 'B'}
)

// Item is one archived bucket member.
type Item struct {
	Kind    string // kind label, the key into the archive's type table
	ID      string
	Rev     uint64 // registry revision when archived
	Payload []byte
}

// Frame (all integers big endian):
//
//	magic(4) | ver(1) | n(u32)
//	kindLen(u16) | kind | idLen(u16) | id | rev(u64) | vlen(u32) | payload   * n
//
// Items keep bucket order, oldest first.
func Encode(items []Item) ([]byte, error) {
	total := hdrLen
	for i, it := range items {
		if l := len(it.Kind); l == 0 || l > 0xFFFF {
			return nil, fmt.Errorf("wire: item %d: invalid kind length %d", i, l)
		}
		if len(it.ID) > 0xFFFF {
			return nil, fmt.Errorf("wire: item %d: id too long (%d)", i, len(it.ID))
		}
		total += 2 + len(it.Kind) + 2 + len(it.ID) + 8 + 4 + len(it.Payload)
	}

	var buf bytes.Buffer
	buf.Grow(total)
	buf.Write(magic4[:])
	buf.WriteByte(version)

	var u8 [8]byte
	var u4 [4]byte
	var u2 [2]byte

	binary.BigEndian.PutUint32(u4[:], uint32(len(items)))
	buf.Write(u4[:])

	for _, it := range items {
		binary.BigEndian.PutUint16(u2[:], uint16(len(it.Kind)))
		buf.Write(u2[:])
		buf.WriteString(it.Kind)

		binary.BigEndian.PutUint16(u2[:], uint16(len(it.ID)))
		buf.Write(u2[:])
		buf.WriteString(it.ID)

		binary.BigEndian.PutUint64(u8[:], it.Rev)
		buf.Write(u8[:])

		binary.BigEndian.PutUint32(u4[:], uint32(len(it.Payload)))
		buf.Write(u4[:])
		buf.Write(it.Payload)
	}
	return buf.Bytes(), nil
}

// Decode parses a frame. Payloads alias b.
func Decode(b []byte) ([]Item, error) {
	if len(b) < hdrLen || !bytes.Equal(b[:4], magic4[:]) || b[4] != version {
		return nil, ErrCorrupt
	}
	off := 5
	n := int(binary.BigEndian.Uint32(b[off : off+4]))
	off += 4
	// every item needs at least 2+1+2+8+4 bytes; reject absurd counts before allocating
	if n > (len(b)-off)/17 {
		return nil, ErrCorrupt
	}

	r := reader{b: b, off: off}
	items := make([]Item, 0, n)
	for i := 0; i < n; i++ {
		kind, ok := r.str()
		if !ok || len(kind) == 0 {
			return nil, ErrCorrupt
		}
		id, ok := r.str()
		if !ok {
			return nil, ErrCorrupt
		}
		rev, ok := r.u64()
		if !ok {
			return nil, ErrCorrupt
		}
		payload, ok := r.blob()
		if !ok {
			return nil, ErrCorrupt
		}
		items = append(items, Item{Kind: kind, ID: id, Rev: rev, Payload: payload})
	}
	if r.off != len(b) {
		return nil, ErrCorrupt // trailing bytes
	}
	return items, nil
}

type reader struct {
	b   []byte
	off int
}

func (r *reader) str() (string, bool) {
	if r.off+2 > len(r.b) {
		return "", false
	}
	l := int(binary.BigEndian.Uint16(r.b[r.off:]))
	r.off += 2
	if l > len(r.b)-r.off {
		return "", false
	}
	s := string(r.b[r.off : r.off+l])
	r.off += l
	return s, true
}

func (r *reader) u64() (uint64, bool) {
	if r.off+8 > len(r.b) {
		return 0, false
	}
	v := binary.BigEndian.Uint64(r.b[r.off:])
	r.off += 8
	return v, true
}

func (r *reader) blob() ([]byte, bool) {
	if r.off+4 > len(r.b) {
		return nil, false
	}
	l := int(binary.BigEndian.Uint32(r.b[r.off:]))
	r.off += 4
	if l < 0 || l > len(r.b)-r.off { // overflow-safe bound check
		return nil, false
	}
	p := r.b[r.off : r.off+l]
	r.off += l
	return p, true
}
