package wire

import (
	"bytes"
	"encoding/binary"
	"math"
	"strings"
	"testing"
)

func mustEncode(t *testing.T, items []Item) []byte {
	t.Helper()
	b, err := Encode(items)
	if err != nil {
		t.Fatalf("Encode error: %v", err)
	}
	return b
}

func TestRoundTripKeepsOrder(t *testing.T) {
	in := []Item{
		{Kind: "demo.Person", ID: "1", Rev: 0, Payload: nil},
		{Kind: "demo.Vehicle", ID: "", Rev: 3, Payload: []byte("abc")},
		{Kind: "demo.Person", ID: "2", Rev: math.MaxUint64, Payload: []byte{0, 1, 2}},
	}
	out, err := Decode(mustEncode(t, in))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(out) != len(in) {
		t.Fatalf("len mismatch: got %d want %d", len(out), len(in))
	}
	for i := range in {
		if out[i].Kind != in[i].Kind || out[i].ID != in[i].ID || out[i].Rev != in[i].Rev {
			t.Fatalf("item %d mismatch: got %+v want %+v", i, out[i], in[i])
		}
		if !bytes.Equal(out[i].Payload, in[i].Payload) {
			t.Fatalf("item %d payload: got %x want %x", i, out[i].Payload, in[i].Payload)
		}
	}
}

func TestEmptyFrame(t *testing.T) {
	out, err := Decode(mustEncode(t, nil))
	if err != nil || len(out) != 0 {
		t.Fatalf("empty frame: items=%v err=%v", out, err)
	}
}

func TestEncodeRejectsBadLengths(t *testing.T) {
	if _, err := Encode([]Item{{Kind: "", ID: "1"}}); err == nil {
		t.Fatalf("expected error on empty kind")
	}
	if _, err := Encode([]Item{{Kind: "k", ID: strings.Repeat("x", 0x10000)}}); err == nil {
		t.Fatalf("expected error on oversized id")
	}
}

func TestDecodeRejectsTrailingBytes(t *testing.T) {
	enc := mustEncode(t, []Item{{Kind: "k", ID: "1", Payload: []byte("x")}})
	enc = append(enc, 0xDE, 0xAD)
	if _, err := Decode(enc); err == nil {
		t.Fatalf("expected error on trailing bytes")
	}
}

func TestDecodeCorruptHeaders(t *testing.T) {
	enc := mustEncode(t, []Item{{Kind: "k", ID: "1", Payload: []byte("abc")}})

	badMagic := append([]byte(nil), enc...)
	badMagic[0] = 'X'
	if _, err := Decode(badMagic); err != ErrCorrupt {
		t.Fatalf("bad magic: err=%v", err)
	}

	badVer := append([]byte(nil), enc...)
	badVer[4] = version + 1
	if _, err := Decode(badVer); err != ErrCorrupt {
		t.Fatalf("bad version: err=%v", err)
	}

	if _, err := Decode(enc[:3]); err != ErrCorrupt {
		t.Fatalf("short header: err=%v", err)
	}
}

func TestDecodeRejectsAbsurdCount(t *testing.T) {
	enc := mustEncode(t, []Item{{Kind: "k", ID: "1"}})
	binary.BigEndian.PutUint32(enc[5:9], math.MaxUint32)
	if _, err := Decode(enc); err != ErrCorrupt {
		t.Fatalf("absurd count: err=%v", err)
	}
}

func TestDecodeTruncatedAnywhere(t *testing.T) {
	enc := mustEncode(t, []Item{
		{Kind: "demo.Person", ID: "1", Rev: 9, Payload: []byte("payload")},
		{Kind: "demo.Person", ID: "2", Rev: 1, Payload: []byte("p")},
	})
	for cut := hdrLen; cut < len(enc); cut++ {
		if _, err := Decode(enc[:cut]); err == nil {
			t.Fatalf("truncation at %d/%d decoded without error", cut, len(enc))
		}
	}
}

func TestDecodeOversizedPayloadLength(t *testing.T) {
	enc := mustEncode(t, []Item{{Kind: "k", ID: "1", Payload: []byte("abc")}})
	// payload length field sits right before the 3 payload bytes
	off := len(enc) - 3 - 4
	binary.BigEndian.PutUint32(enc[off:off+4], 1<<30)
	if _, err := Decode(enc); err != ErrCorrupt {
		t.Fatalf("oversized vlen: err=%v", err)
	}
}
