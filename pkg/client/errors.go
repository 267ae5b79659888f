package client

import (
	"errors"
	"fmt"

	spb "google.golang.org/genproto/googleapis/rpc/status"
	"google.golang.org/grpc/codes"
	"google.golang.org/protobuf/reflect/protoreflect"
)

// Configuration errors.
var (
	// ErrUnbalancedMetadata is returned when a metadata list has an odd
	// number of elements. Metadata is a flat ordered key/value sequence.
	ErrUnbalancedMetadata = errors.New("client: metadata list must have an even number of elements")

	// ErrChannelClosed is returned when a call is attempted on a closed
	// channel.
	ErrChannelClosed = errors.New("client: channel is closed")
)

// BatchStartError is returned when the call could not be started at all:
// the channel could not be created or the runtime rejected the operation.
type BatchStartError struct {
	Err error
}

func (e *BatchStartError) Error() string {
	return fmt.Sprintf("client: failed to start call: %v", e.Err)
}

func (e *BatchStartError) Unwrap() error { return e.Err }

// DeadlineError is returned when the per-call deadline elapsed before the
// call completed. The call is cancelled with CANCELLED semantics.
type DeadlineError struct {
	Method string
}

func (e *DeadlineError) Error() string {
	return fmt.Sprintf("client: call %s timed out and was cancelled", e.Method)
}

// StatusError carries a non-OK status returned by the server. Proto holds
// the full status message including any detail payloads; it may be nil.
type StatusError struct {
	Code    codes.Code
	Details string
	Proto   *spb.Status
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("client: server returned %s: %s", e.Code, e.Details)
}

// TransportError is returned when the call failed below the application
// layer: connection refused, peer reset, channel breakage.
type TransportError struct {
	Code    codes.Code
	Details string
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("client: transport failure (%s): %s", e.Code, e.Details)
}

// WrongRequestTypeError is returned by Stub.Call when the request message's
// descriptor is not the method's request descriptor. No I/O is performed.
type WrongRequestTypeError struct {
	Method string
	Want   protoreflect.FullName
	Got    protoreflect.FullName
}

func (e *WrongRequestTypeError) Error() string {
	return fmt.Sprintf("client: %s expects request type %s, got %s", e.Method, e.Want, e.Got)
}
