package server

import (
	"errors"
	"fmt"
)

// Server errors.
var (
	// ErrNilDispatchTable is returned when a server is created without a
	// dispatch table.
	ErrNilDispatchTable = errors.New("server: dispatch table cannot be nil")

	// ErrServerAlreadyRunning is returned when Run is called on a running
	// server.
	ErrServerAlreadyRunning = errors.New("server: already running")

	// ErrNilMethod is returned when registering a handler without a method.
	ErrNilMethod = errors.New("server: method cannot be nil")

	// ErrNilHandler is returned when registering a nil handler.
	ErrNilHandler = errors.New("server: handler cannot be nil")

	// ErrStreamingMethod is returned when registering a handler for a
	// streaming method. Dispatch is unary-only.
	ErrStreamingMethod = errors.New("server: streaming methods cannot be dispatched")

	// ErrDuplicateMethod is returned when a method path is registered twice.
	ErrDuplicateMethod = errors.New("server: method already registered")
)

// BindError is returned when the listen address could not be bound.
type BindError struct {
	Address string
	Err     error
}

func (e *BindError) Error() string {
	return fmt.Sprintf("server: failed to bind %s: %v", e.Address, e.Err)
}

func (e *BindError) Unwrap() error { return e.Err }
