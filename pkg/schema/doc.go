// Package schema parses Protocol Buffer service definitions into method
// tables used by the hostgrpc client and server.
//
// Parsing happens in two passes. A compile pass hands the .proto file(s) to
// the protocompile toolchain so every message type becomes resolvable by
// fully-qualified name. A parse pass then walks the service declarations in
// the source text and builds one Method per rpc, carrying the wire
// method path, request/response message descriptors, and streaming flags.
//
//	table, err := schema.ParseFile("api/greeter.proto")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	m := table.Get("SayHello")
//	fmt.Println(m.FullPath) // "/helloworld.Greeter/SayHello"
//
// Method tables are immutable after construction. Simple method names are
// unique across all services in the parsed set; a collision is a ParseError.
package schema
