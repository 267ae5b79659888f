package server

import (
	"context"
	"sort"

	"google.golang.org/protobuf/proto"

	"github.com/hostgrpc/hostgrpc/pkg/codec"
	"github.com/hostgrpc/hostgrpc/pkg/schema"
)

// Handler maps request bytes to response bytes for one method. The context
// carries the call's deadline, cancellation, and incoming metadata.
type Handler func(ctx context.Context, request []byte) ([]byte, error)

// DispatchTable maps wire-level method paths to handlers. It must be fully
// populated before the server starts; mutation during Run is not allowed.
type DispatchTable struct {
	handlers map[string]Handler
	methods  map[string]*schema.Method
}

// NewDispatchTable creates an empty dispatch table.
func NewDispatchTable() *DispatchTable {
	return &DispatchTable{
		handlers: make(map[string]Handler),
		methods:  make(map[string]*schema.Method),
	}
}

// Register binds a handler to a parsed method. Streaming methods are
// rejected; dispatch is unary-only.
func (t *DispatchTable) Register(m *schema.Method, h Handler) error {
	if m == nil {
		return ErrNilMethod
	}
	if h == nil {
		return ErrNilHandler
	}
	if !m.IsUnary() {
		return ErrStreamingMethod
	}
	if _, exists := t.handlers[m.FullPath]; exists {
		return ErrDuplicateMethod
	}
	t.handlers[m.FullPath] = h
	t.methods[m.FullPath] = m
	return nil
}

// Handler resolves a handler by full method path.
func (t *DispatchTable) Handler(fullPath string) (Handler, bool) {
	h, ok := t.handlers[fullPath]
	return h, ok
}

// Methods returns the registered methods sorted by full path.
func (t *DispatchTable) Methods() []*schema.Method {
	out := make([]*schema.Method, 0, len(t.methods))
	for _, m := range t.methods {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].FullPath < out[j].FullPath })
	return out
}

// Len returns the number of registered methods.
func (t *DispatchTable) Len() int {
	return len(t.handlers)
}

// Wrap adapts a message-level function into a byte-level Handler,
// encapsulating the codec calls. A nil response message produces an empty
// payload, which clients decode as a default response instance.
func Wrap(m *schema.Method, pc codec.ProtoCodec, fn func(ctx context.Context, req proto.Message) (proto.Message, error)) Handler {
	if pc == nil {
		pc = codec.Protobuf{}
	}
	return func(ctx context.Context, request []byte) ([]byte, error) {
		req, err := pc.Decode(m.Input, request)
		if err != nil {
			return nil, err
		}
		resp, err := fn(ctx, req)
		if err != nil {
			return nil, err
		}
		if resp == nil {
			return nil, nil
		}
		return pc.Encode(m.Output, resp)
	}
}
