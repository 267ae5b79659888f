package schema

import (
	"errors"
	"fmt"
)

// Sentinel errors.
var (
	// ErrNoProtoFiles is returned when ParseFiles is called with an empty slice.
	ErrNoProtoFiles = errors.New("no proto files provided")
)

// FileNotFoundError is returned when a .proto path is not readable.
type FileNotFoundError struct {
	Path string
	Err  error
}

func (e *FileNotFoundError) Error() string {
	return fmt.Sprintf("proto file not found: %s", e.Path)
}

func (e *FileNotFoundError) Unwrap() error { return e.Err }

// CompileError is returned when the protobuf toolchain rejects a file.
type CompileError struct {
	Err error
}

func (e *CompileError) Error() string {
	return fmt.Sprintf("proto compilation failed: %v", e.Err)
}

func (e *CompileError) Unwrap() error { return e.Err }

// ParseError is returned on malformed service or rpc syntax. RPC names the
// declaration being parsed when the failure happened inside one.
type ParseError struct {
	Reason string
	RPC    string
}

func (e *ParseError) Error() string {
	if e.RPC != "" {
		return fmt.Sprintf("parse error in rpc %q: %s", e.RPC, e.Reason)
	}
	return fmt.Sprintf("parse error: %s", e.Reason)
}

// DescriptorMissingError is returned when a referenced message type cannot
// be resolved after compilation.
type DescriptorMissingError struct {
	FullName string
}

func (e *DescriptorMissingError) Error() string {
	return fmt.Sprintf("message descriptor not found: %s", e.FullName)
}
