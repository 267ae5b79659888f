// Package wire provides the raw byte-frame codec shared by the hostgrpc
// client and server.
//
// Both sides of a hostgrpc call exchange opaque payloads: the host supplies
// request bytes and receives response bytes, with message encoding delegated
// to a ProtoCodec. The Codec here makes the gRPC runtime carry those bytes
// untouched by recognizing *Frame values and passing their payload through
// without protobuf marshaling.
package wire

import (
	"fmt"

	"google.golang.org/grpc/encoding"
	"google.golang.org/protobuf/proto"
)

// Frame is the message container moved through the gRPC runtime. Payload
// holds one serialized protobuf message.
type Frame struct {
	Payload []byte
}

// Codec is a passthrough encoding.Codec. A *Frame is sent and received as
// raw bytes; any other value falls back to standard proto encoding so the
// codec stays usable on streams that also carry typed messages.
type Codec struct{}

var _ encoding.Codec = Codec{}

// Name reports "proto" so the negotiated content subtype stays
// application/grpc+proto on the wire.
func (Codec) Name() string { return "proto" }

func (Codec) Marshal(v any) ([]byte, error) {
	if f, ok := v.(*Frame); ok {
		return f.Payload, nil
	}
	msg, ok := v.(proto.Message)
	if !ok {
		return nil, fmt.Errorf("wire: cannot marshal %T", v)
	}
	return proto.Marshal(msg)
}

func (Codec) Unmarshal(data []byte, v any) error {
	if f, ok := v.(*Frame); ok {
		if len(data) == 0 {
			f.Payload = nil
			return nil
		}
		// Copy: data may reference a buffer the runtime reuses.
		f.Payload = append(f.Payload[:0], data...)
		return nil
	}
	msg, ok := v.(proto.Message)
	if !ok {
		return fmt.Errorf("wire: cannot unmarshal into %T", v)
	}
	return proto.Unmarshal(data, msg)
}
