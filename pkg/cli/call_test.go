package cli

import (
	"bytes"
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/types/dynamicpb"
	"google.golang.org/protobuf/types/known/durationpb"

	"github.com/hostgrpc/hostgrpc/pkg/client"
	"github.com/hostgrpc/hostgrpc/pkg/codec"
	"github.com/hostgrpc/hostgrpc/pkg/schema"
	"github.com/hostgrpc/hostgrpc/pkg/server"
)

// newTestCmd returns a command with captured stdout and stderr.
func newTestCmd() (*cobra.Command, *bytes.Buffer, *bytes.Buffer) {
	cmd := &cobra.Command{}
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	return cmd, &out, &errOut
}

// setCallFlags fills the package-level flag state runCall reads.
func setCallFlags(target string, protos []string, data string, md []string) {
	callTarget = target
	callProtos = protos
	callImports = nil
	callData = data
	callMetadata = md
	callTimeout = 5 * time.Second
}

// startCallServer runs a real server on an ephemeral port for the duration
// of the test.
func startCallServer(t *testing.T, dispatch *server.DispatchTable) int {
	t.Helper()

	bound := make(chan int, 1)
	srv, err := server.New(dispatch, &server.Config{
		Hooks: server.HookFuncs{Bind: func(port int) { bound <- port }},
	})
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() { done <- srv.Run(context.Background()) }()

	var port int
	select {
	case port = <-bound:
	case <-time.After(5 * time.Second):
		t.Fatal("server did not bind")
	}
	t.Cleanup(func() {
		srv.Stop()
		select {
		case <-done:
		case <-time.After(10 * time.Second):
			t.Error("server did not stop")
		}
	})
	return port
}

func greeterDispatch(t *testing.T) *server.DispatchTable {
	t.Helper()

	table, err := schema.ParseFile(fixturePath(t, "greeter.proto"))
	require.NoError(t, err)
	m := table.Get("SayHello")
	require.NotNil(t, m)

	dispatch := server.NewDispatchTable()
	require.NoError(t, dispatch.Register(m, server.Wrap(m, codec.Protobuf{},
		func(_ context.Context, req proto.Message) (proto.Message, error) {
			name := req.ProtoReflect().Get(m.Input.Fields().ByName("name")).String()
			reply := dynamicpb.NewMessage(m.Output)
			reply.Set(m.Output.Fields().ByName("message"), protoreflect.ValueOfString("Hello, "+name))
			return reply, nil
		})))
	return dispatch
}

func TestRunCallSuccess(t *testing.T) {
	port := startCallServer(t, greeterDispatch(t))

	cmd, out, _ := newTestCmd()
	setCallFlags("127.0.0.1:"+strconv.Itoa(port),
		[]string{fixturePath(t, "greeter.proto")}, `{"name": "World"}`, nil)

	require.NoError(t, runCall(cmd, []string{"SayHello"}))
	assert.Contains(t, out.String(), `"message"`)
	assert.Contains(t, out.String(), "Hello, World")
}

func TestRunCallWithMetadata(t *testing.T) {
	table, err := schema.ParseFile(fixturePath(t, "greeter.proto"))
	require.NoError(t, err)
	m := table.Get("SayHello")

	dispatch := server.NewDispatchTable()
	require.NoError(t, dispatch.Register(m, server.Wrap(m, codec.Protobuf{},
		func(ctx context.Context, _ proto.Message) (proto.Message, error) {
			trace := ""
			if md, ok := metadata.FromIncomingContext(ctx); ok {
				if vals := md.Get("x-trace"); len(vals) > 0 {
					trace = vals[0]
				}
			}
			reply := dynamicpb.NewMessage(m.Output)
			reply.Set(m.Output.Fields().ByName("message"), protoreflect.ValueOfString("trace="+trace))
			return reply, nil
		})))

	port := startCallServer(t, dispatch)

	cmd, out, _ := newTestCmd()
	setCallFlags("127.0.0.1:"+strconv.Itoa(port),
		[]string{fixturePath(t, "greeter.proto")}, `{}`, []string{"x-trace=abc"})

	require.NoError(t, runCall(cmd, []string{"SayHello"}))
	assert.Contains(t, out.String(), "trace=abc")
}

func TestRunCallServerStatus(t *testing.T) {
	// No handler registered: the server answers UNIMPLEMENTED and the
	// status is rendered to stderr.
	port := startCallServer(t, server.NewDispatchTable())

	cmd, _, errOut := newTestCmd()
	setCallFlags("127.0.0.1:"+strconv.Itoa(port),
		[]string{fixturePath(t, "greeter.proto")}, `{"name": "x"}`, nil)

	err := runCall(cmd, []string{"SayHello"})
	var se *client.StatusError
	require.ErrorAs(t, err, &se)
	assert.Contains(t, errOut.String(), "status: Unimplemented")
	assert.Contains(t, errOut.String(), "Method not implemented or not found")
}

func TestRunCallValidation(t *testing.T) {
	tests := []struct {
		name   string
		protos []string
		method string
		data   string
		md     []string
	}{
		{"no protos", nil, "SayHello", `{}`, nil},
		{"unknown method", []string{"greeter.proto"}, "SayBye", `{}`, nil},
		{"bad data", []string{"greeter.proto"}, "SayHello", `not json`, nil},
		{"bad metadata", []string{"greeter.proto"}, "SayHello", `{}`, []string{"novalue"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			protos := tt.protos
			for i, p := range protos {
				protos[i] = fixturePath(t, p)
			}

			cmd, _, _ := newTestCmd()
			// The target is unreachable on purpose: every case must fail
			// before any call is attempted.
			setCallFlags("127.0.0.1:1", protos, tt.data, tt.md)
			assert.Error(t, runCall(cmd, []string{tt.method}))
		})
	}
}

func TestPrintStatusErrorDetails(t *testing.T) {
	st, err := status.New(codes.InvalidArgument, "bad request").WithDetails(
		&errdetails.ErrorInfo{Reason: "QUOTA", Domain: "hostgrpc.test"},
		&errdetails.BadRequest{FieldViolations: []*errdetails.BadRequest_FieldViolation{
			{Field: "name", Description: "must not be empty"},
		}},
		&errdetails.RetryInfo{RetryDelay: durationpb.New(2 * time.Second)},
		&errdetails.LocalizedMessage{Locale: "en-US", Message: "try again"},
		&errdetails.DebugInfo{Detail: "stack elided"},
	)
	require.NoError(t, err)

	cmd, _, errOut := newTestCmd()
	printStatusError(cmd, &client.StatusError{
		Code:    codes.InvalidArgument,
		Details: "bad request",
		Proto:   st.Proto(),
	})

	got := errOut.String()
	assert.Contains(t, got, "status: InvalidArgument")
	assert.Contains(t, got, "details: bad request")
	assert.Contains(t, got, "error info: reason=QUOTA domain=hostgrpc.test")
	assert.Contains(t, got, "field violation: name: must not be empty")
	assert.Contains(t, got, "retry after: 2s")
	assert.Contains(t, got, "message (en-US): try again")
	// Unrecognized detail types fall through to the generic line.
	assert.Contains(t, got, "detail:")
}

func TestPrintStatusErrorNilProto(t *testing.T) {
	cmd, _, errOut := newTestCmd()
	printStatusError(cmd, &client.StatusError{Code: codes.Internal, Details: "boom"})

	assert.Contains(t, errOut.String(), "status: Internal")
	assert.Contains(t, errOut.String(), "details: boom")
}
