package client

import (
	"log/slog"
	"sync"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/hostgrpc/hostgrpc/pkg/logging"
)

// Channel is a handle to a connection target, shared by every stub built
// from it. The underlying connection is dialed lazily on first use and
// reused until Close.
type Channel struct {
	target string

	mu     sync.Mutex
	conn   *grpc.ClientConn
	closed bool
	log    *slog.Logger
}

// NewChannel creates a channel for the given "host:port" target using
// insecure transport credentials.
func NewChannel(target string) *Channel {
	return &Channel{
		target: target,
		log:    logging.Nop(),
	}
}

// SetLogger sets the operational logger for the channel.
func (c *Channel) SetLogger(log *slog.Logger) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if log != nil {
		c.log = log
	} else {
		c.log = logging.Nop()
	}
}

// Target returns the connection target string.
func (c *Channel) Target() string {
	return c.target
}

// Close releases the underlying connection. The channel is unusable
// afterwards.
func (c *Channel) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.closed = true
	if c.conn == nil {
		return nil
	}
	conn := c.conn
	c.conn = nil
	return conn.Close()
}

// clientConn returns the shared connection, dialing it on first use.
func (c *Channel) clientConn() (*grpc.ClientConn, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil, ErrChannelClosed
	}
	if c.conn != nil {
		return c.conn, nil
	}

	conn, err := grpc.NewClient(c.target,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		return nil, &BatchStartError{Err: err}
	}

	c.log.Debug("channel created", "target", c.target)
	c.conn = conn
	return conn, nil
}
