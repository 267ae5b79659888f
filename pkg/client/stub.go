package client

import (
	"context"
	"fmt"

	"google.golang.org/protobuf/proto"

	"github.com/hostgrpc/hostgrpc/pkg/codec"
	"github.com/hostgrpc/hostgrpc/pkg/schema"
)

// Stub invokes one parsed method over a shared channel.
type Stub struct {
	method  *schema.Method
	channel *Channel
	codec   codec.ProtoCodec
}

// NewStubs builds a stub per method in the table, keyed by simple method
// name. All stubs share the channel; the channel must outlive them.
func NewStubs(table *schema.MethodTable, channel *Channel, pc codec.ProtoCodec) (map[string]*Stub, error) {
	if table == nil {
		return nil, fmt.Errorf("client: nil method table")
	}
	if channel == nil {
		return nil, fmt.Errorf("client: nil channel")
	}
	if pc == nil {
		pc = codec.Protobuf{}
	}

	stubs := make(map[string]*Stub, table.Len())
	for _, m := range table.Methods() {
		stubs[m.SimpleName] = &Stub{method: m, channel: channel, codec: pc}
	}
	return stubs, nil
}

// Method returns the parsed method behind the stub.
func (s *Stub) Method() *schema.Method {
	return s.method
}

// Build constructs a request message from named fields.
func (s *Stub) Build(fields map[string]any) (proto.Message, error) {
	return codec.BuildMessage(s.method.Input, fields)
}

// Call invokes the method with the given request message and optional flat
// metadata pairs. The request's descriptor must be identical to the
// method's request descriptor; a mismatch fails before any network I/O.
//
// An OK response with no payload decodes to a default instance of the
// response type.
func (s *Stub) Call(ctx context.Context, msg proto.Message, md ...string) (proto.Message, error) {
	if msg == nil {
		return nil, &WrongRequestTypeError{
			Method: s.method.SimpleName,
			Want:   s.method.Input.FullName(),
		}
	}
	if got := msg.ProtoReflect().Descriptor(); got != s.method.Input {
		return nil, &WrongRequestTypeError{
			Method: s.method.SimpleName,
			Want:   s.method.Input.FullName(),
			Got:    got.FullName(),
		}
	}

	request, err := s.codec.Encode(s.method.Input, msg)
	if err != nil {
		return nil, err
	}

	response, err := s.channel.Invoke(ctx, s.method.FullPath, request, md)
	if err != nil {
		return nil, err
	}

	return s.codec.Decode(s.method.Output, response)
}
