// Package server runs unary gRPC calls against host-supplied byte-level
// handlers.
//
// A Server owns a single event loop. Incoming calls are delivered to the
// loop through the server's call queue and processed one at a time: the
// request payload is read, the handler registered for the wire-level method
// path is invoked, and the response and status are written back. Handler
// failures map to INTERNAL, unknown methods to UNIMPLEMENTED, and a missing
// request payload to INVALID_ARGUMENT; the failing call never affects the
// next one.
//
//	table := server.NewDispatchTable()
//	table.Register(method, server.Wrap(method, codec.Protobuf{}, handle))
//
//	srv, _ := server.New(table, &server.Config{
//	    Address: "localhost:0",
//	    Hooks:   hooks,
//	})
//	err := srv.Run(ctx)
//
// The loop checks for a cooperative interrupt (Stop or context
// cancellation) once per iteration and honors an optional wall-clock
// duration. Lifecycle hooks fire in a fixed order: server create, queue
// create, bind (with the bound port), server start, run, shutdown, stopped,
// and unconditionally exit.
package server
