package codec

import "google.golang.org/protobuf/proto"

// Protobuf serializes generated message types. Entities that are protobuf
// messages (with an EntityID method added in a separate file) archive with it.
type Protobuf[T proto.Message] struct {
	new  func() T // e.g. func() *pb.Person { return &pb.Person{} }
	opts proto.MarshalOptions
}

var _ Codec[proto.Message] = Protobuf[proto.Message]{}

// NewProtobuf returns a codec that allocates decode targets with ctor.
// deterministic=true orders map entries so equal messages encode identically.
func NewProtobuf[T proto.Message](ctor func() T, deterministic bool) Protobuf[T] {
	return Protobuf[T]{new: ctor, opts: proto.MarshalOptions{Deterministic: deterministic}}
}

func (c Protobuf[T]) Encode(v T) ([]byte, error) { return c.opts.Marshal(v) }

func (c Protobuf[T]) Decode(b []byte) (T, error) {
	m := c.new()
	err := proto.Unmarshal(b, m)
	return m, err
}
