package client

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/hostgrpc/hostgrpc/pkg/codec"
	"github.com/hostgrpc/hostgrpc/pkg/schema"
)

func greeterTable(t *testing.T) *schema.MethodTable {
	t.Helper()
	wd, err := os.Getwd()
	require.NoError(t, err)

	path := filepath.Join(wd, "..", "..", "tests", "fixtures", "greeter.proto")
	table, err := schema.ParseFile(path)
	require.NoError(t, err)
	return table
}

func TestInvokeUnbalancedMetadata(t *testing.T) {
	ch := NewChannel("localhost:1")
	defer ch.Close()

	// Detected before any dialing or I/O.
	_, err := ch.Invoke(context.Background(), "/x/Y", nil, []string{"key-without-value"})
	assert.ErrorIs(t, err, ErrUnbalancedMetadata)
}

func TestInvokeOnClosedChannel(t *testing.T) {
	ch := NewChannel("localhost:1")
	require.NoError(t, ch.Close())

	_, err := ch.Invoke(context.Background(), "/x/Y", nil, nil)
	assert.ErrorIs(t, err, ErrChannelClosed)
}

func TestInvokeUnreachableTarget(t *testing.T) {
	// Port 1 is essentially never listening; the call fails below the
	// application layer.
	ch := NewChannel("127.0.0.1:1")
	defer ch.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := ch.Invoke(ctx, "/helloworld.Greeter/SayHello", nil, nil)
	var te *TransportError
	assert.ErrorAs(t, err, &te)
}

func TestChannelAccessors(t *testing.T) {
	ch := NewChannel("example.com:50051")
	defer ch.Close()

	assert.Equal(t, "example.com:50051", ch.Target())

	// Close is idempotent.
	require.NoError(t, ch.Close())
	require.NoError(t, ch.Close())
}

func TestNewStubsValidation(t *testing.T) {
	table := greeterTable(t)
	ch := NewChannel("localhost:1")
	defer ch.Close()

	_, err := NewStubs(nil, ch, codec.Protobuf{})
	assert.Error(t, err)

	_, err = NewStubs(table, nil, codec.Protobuf{})
	assert.Error(t, err)

	stubs, err := NewStubs(table, ch, nil)
	require.NoError(t, err)
	require.Len(t, stubs, 1)
	require.NotNil(t, stubs["SayHello"])
	assert.Equal(t, "/helloworld.Greeter/SayHello", stubs["SayHello"].Method().FullPath)
}

func TestStubBuild(t *testing.T) {
	table := greeterTable(t)
	ch := NewChannel("localhost:1")
	defer ch.Close()

	stubs, err := NewStubs(table, ch, codec.Protobuf{})
	require.NoError(t, err)

	msg, err := stubs["SayHello"].Build(map[string]any{"name": "World"})
	require.NoError(t, err)

	m := table.Get("SayHello")
	assert.Same(t, m.Input, msg.ProtoReflect().Descriptor())
	assert.Equal(t, "World", msg.ProtoReflect().Get(m.Input.Fields().ByName("name")).String())
}

func TestStubCallWrongRequestType(t *testing.T) {
	table := greeterTable(t)

	// The target is unreachable on purpose: the type check must fail
	// before any network I/O is attempted.
	ch := NewChannel("localhost:1")
	defer ch.Close()

	stubs, err := NewStubs(table, ch, codec.Protobuf{})
	require.NoError(t, err)

	_, err = stubs["SayHello"].Call(context.Background(), wrapperspb.String("nope"))
	var wt *WrongRequestTypeError
	require.ErrorAs(t, err, &wt)
	assert.Equal(t, "SayHello", wt.Method)
	assert.Equal(t, "helloworld.HelloRequest", string(wt.Want))
	assert.Equal(t, "google.protobuf.StringValue", string(wt.Got))
}

func TestStubCallNilMessage(t *testing.T) {
	table := greeterTable(t)
	ch := NewChannel("localhost:1")
	defer ch.Close()

	stubs, err := NewStubs(table, ch, codec.Protobuf{})
	require.NoError(t, err)

	_, err = stubs["SayHello"].Call(context.Background(), nil)
	var wt *WrongRequestTypeError
	assert.ErrorAs(t, err, &wt)
}

func TestErrorStrings(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{&DeadlineError{Method: "/a/B"}, "client: call /a/B timed out and was cancelled"},
		{&WrongRequestTypeError{Method: "Go", Want: "a.In", Got: "a.Out"}, "client: Go expects request type a.In, got a.Out"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.err.Error())
	}
}
