// Package client invokes unary gRPC methods from parsed service
// definitions.
//
// A Channel wraps a target address and the underlying connection, shared by
// every stub built from it. Stubs pair a parsed method with the channel and
// a ProtoCodec:
//
//	table, _ := schema.ParseFile("api/greeter.proto")
//	ch := client.NewChannel("localhost:50051")
//	defer ch.Close()
//
//	stubs, _ := client.NewStubs(table, ch, codec.Protobuf{})
//	req, _ := stubs["SayHello"].Build(map[string]any{"name": "World"})
//	resp, err := stubs["SayHello"].Call(ctx, req)
//
// Calls are bounded by a 15-second deadline unless the context carries its
// own. Failures are reported as typed errors: StatusError for a non-OK
// server status, DeadlineError for a timed-out call (cancelled with
// CANCELLED), TransportError for connectivity failures, and
// WrongRequestTypeError when a stub is invoked with a message of the wrong
// descriptor (detected before any network I/O).
package client
