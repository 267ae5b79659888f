// Package codec translates between protobuf message values and the byte
// payloads carried by hostgrpc calls.
//
// ProtoCodec is the seam between the call cores and the protobuf runtime:
// client stubs encode requests and decode responses through it, and server
// handler wrappers do the reverse. Protobuf is the default implementation,
// backed by google.golang.org/protobuf and dynamicpb.
package codec

import (
	"encoding/json"
	"fmt"

	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/types/dynamicpb"
)

// ProtoCodec serializes messages of a known descriptor to bytes and back.
//
// Encode fails when the message's descriptor is not the one the caller
// expects. Decode returns a value of exactly the given descriptor; empty
// input produces a default instance.
type ProtoCodec interface {
	Encode(desc protoreflect.MessageDescriptor, msg proto.Message) ([]byte, error)
	Decode(desc protoreflect.MessageDescriptor, data []byte) (proto.Message, error)
}

// DescriptorMismatchError is returned by Encode when a message's descriptor
// differs from the expected one. Descriptors are compared by identity, not
// by name.
type DescriptorMismatchError struct {
	Want protoreflect.FullName
	Got  protoreflect.FullName
}

func (e *DescriptorMismatchError) Error() string {
	return fmt.Sprintf("message descriptor mismatch: want %s, got %s", e.Want, e.Got)
}

// Protobuf is the default ProtoCodec, using the standard protobuf binary
// encoding and dynamic messages.
type Protobuf struct{}

var _ ProtoCodec = Protobuf{}

func (Protobuf) Encode(desc protoreflect.MessageDescriptor, msg proto.Message) ([]byte, error) {
	if msg == nil {
		return nil, fmt.Errorf("codec: nil message")
	}
	if got := msg.ProtoReflect().Descriptor(); got != desc {
		return nil, &DescriptorMismatchError{Want: desc.FullName(), Got: got.FullName()}
	}
	return proto.Marshal(msg)
}

func (Protobuf) Decode(desc protoreflect.MessageDescriptor, data []byte) (proto.Message, error) {
	msg := dynamicpb.NewMessage(desc)
	if len(data) == 0 {
		return msg, nil
	}
	if err := proto.Unmarshal(data, msg); err != nil {
		return nil, fmt.Errorf("codec: decode %s: %w", desc.FullName(), err)
	}
	return msg, nil
}

// BuildMessage constructs a message of the given descriptor from named
// fields. Fields are matched by JSON name, so both "user_id" and "userId"
// spellings work. A nil field map yields an empty message.
func BuildMessage(desc protoreflect.MessageDescriptor, fields map[string]any) (proto.Message, error) {
	msg := dynamicpb.NewMessage(desc)
	if len(fields) == 0 {
		return msg, nil
	}

	data, err := json.Marshal(fields)
	if err != nil {
		return nil, fmt.Errorf("codec: marshal fields: %w", err)
	}
	if err := protojson.Unmarshal(data, msg); err != nil {
		return nil, fmt.Errorf("codec: build %s: %w", desc.FullName(), err)
	}
	return msg, nil
}
