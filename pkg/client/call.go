package client

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/hostgrpc/hostgrpc/internal/wire"
)

// DefaultCallTimeout bounds a call whose context carries no deadline.
const DefaultCallTimeout = 15 * time.Second

// Invoke executes one unary call against the channel.
//
// fullPath is the wire-level method path ("/pkg.Service/Method"). request
// holds the already-encoded message. md is a flat ordered key/value list;
// an odd length is a configuration error detected before any I/O.
//
// The returned bytes may be empty: the server sent OK with no message.
func (c *Channel) Invoke(ctx context.Context, fullPath string, request []byte, md []string) ([]byte, error) {
	if len(md)%2 != 0 {
		return nil, ErrUnbalancedMetadata
	}

	conn, err := c.clientConn()
	if err != nil {
		return nil, err
	}

	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, DefaultCallTimeout)
		defer cancel()
	}
	if len(md) > 0 {
		ctx = metadata.AppendToOutgoingContext(ctx, md...)
	}

	callID := uuid.NewString()
	c.log.Debug("call started", "id", callID, "method", fullPath, "bytes", len(request))

	// One invocation carries the whole unary exchange: initial metadata and
	// the message out, close-send, then initial metadata, message, and
	// status back.
	req := &wire.Frame{Payload: request}
	var resp wire.Frame
	err = conn.Invoke(ctx, fullPath, req, &resp, grpc.ForceCodec(wire.Codec{}))
	if err != nil {
		mapped := mapCallError(ctx, fullPath, err)
		c.log.Debug("call failed", "id", callID, "method", fullPath, "error", mapped)
		return nil, mapped
	}

	c.log.Debug("call complete", "id", callID, "method", fullPath, "bytes", len(resp.Payload))
	return resp.Payload, nil
}

// mapCallError translates a runtime error into the package's typed errors.
func mapCallError(ctx context.Context, fullPath string, err error) error {
	// A deadline expiry is reported as the call's own timeout regardless of
	// which status the runtime attached; the runtime cancels the call with
	// CANCELLED toward the peer.
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return &DeadlineError{Method: fullPath}
	}

	st, ok := status.FromError(err)
	if !ok {
		return &TransportError{Code: codes.Unknown, Details: err.Error()}
	}

	switch st.Code() {
	case codes.Unavailable:
		// Connectivity-class failure: the exchange never completed.
		return &TransportError{Code: st.Code(), Details: st.Message()}
	case codes.Canceled:
		if ctx.Err() != nil {
			return &TransportError{Code: st.Code(), Details: st.Message()}
		}
		return &StatusError{Code: st.Code(), Details: st.Message(), Proto: st.Proto()}
	default:
		return &StatusError{Code: st.Code(), Details: st.Message(), Proto: st.Proto()}
	}
}
