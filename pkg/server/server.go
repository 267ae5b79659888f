package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/google/uuid"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/hostgrpc/hostgrpc/internal/wire"
	"github.com/hostgrpc/hostgrpc/pkg/logging"
)

const (
	// queuePollInterval bounds each wait on the call queue so the loop can
	// re-check the cooperative interrupt and the wall-clock duration.
	queuePollInterval = time.Second

	// shutdownTimeout bounds the graceful stop before in-flight calls are
	// cancelled.
	shutdownTimeout = 5 * time.Second
)

// Config holds server configuration.
type Config struct {
	// Address is the "host:port" bind address. Port 0 requests an
	// ephemeral port, surfaced through the bind hook. Defaults to
	// "127.0.0.1:0".
	Address string

	// Duration bounds the server's wall-clock lifetime. Zero means run
	// until interrupted.
	Duration time.Duration

	// Hooks receives lifecycle callbacks. Nil means no hooks.
	Hooks Hooks
}

// Server accepts unary calls and dispatches them to registered handlers,
// one call at a time, on a single event-loop goroutine.
type Server struct {
	table    *DispatchTable
	addr     string
	duration time.Duration
	hooks    Hooks

	calls    chan *callEvent
	loopDone chan struct{}
	stopCh   chan struct{}
	stopOnce sync.Once

	mu      sync.Mutex
	running bool
	stopped bool
	port    int
	log     *slog.Logger
}

// callEvent carries one accepted call into the event loop. The acceptor
// blocks on done until the loop has written the response and status.
type callEvent struct {
	stream grpc.ServerStream
	method string
	done   chan error
}

// New creates a server for the given dispatch table. The table must be
// fully populated; it is frozen once Run starts.
func New(table *DispatchTable, cfg *Config) (*Server, error) {
	if table == nil {
		return nil, ErrNilDispatchTable
	}
	if cfg == nil {
		cfg = &Config{}
	}

	addr := cfg.Address
	if addr == "" {
		addr = "127.0.0.1:0"
	}
	hooks := cfg.Hooks
	if hooks == nil {
		hooks = NopHooks{}
	}

	return &Server{
		table:    table,
		addr:     addr,
		duration: cfg.Duration,
		hooks:    hooks,
		stopCh:   make(chan struct{}),
		log:      logging.Nop(),
	}, nil
}

// SetLogger sets the operational logger for the server.
func (s *Server) SetLogger(log *slog.Logger) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if log != nil {
		s.log = log
	} else {
		s.log = logging.Nop()
	}
}

// Stop requests a cooperative shutdown. The event loop observes the
// request on its next iteration. Safe to call from any goroutine, more
// than once.
func (s *Server) Stop() {
	s.stopOnce.Do(func() { close(s.stopCh) })
}

// Port returns the bound TCP port, or 0 before bind.
func (s *Server) Port() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.port
}

// Run binds the address and processes calls until the context is
// cancelled, Stop is called, or the configured duration elapses. A server
// runs once; after Run returns it stays stopped, and further Run calls
// return ErrServerAlreadyRunning.
func (s *Server) Run(ctx context.Context) error {
	s.mu.Lock()
	if s.running || s.stopped {
		s.mu.Unlock()
		return ErrServerAlreadyRunning
	}
	s.running = true
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.running = false
		s.stopped = true
		s.mu.Unlock()
	}()

	// The exit hook fires no matter how Run leaves, error paths included.
	defer s.fireHook("exit", s.hooks.OnExit)

	grpcServer := grpc.NewServer(
		grpc.ForceServerCodec(wire.Codec{}),
		grpc.UnknownServiceHandler(s.accept),
	)
	s.fireHook("server_create", s.hooks.OnServerCreate)

	s.calls = make(chan *callEvent)
	s.loopDone = make(chan struct{})
	s.fireHook("queue_create", s.hooks.OnQueueCreate)

	lis, err := net.Listen("tcp", s.addr)
	if err != nil {
		close(s.loopDone)
		grpcServer.Stop()
		return &BindError{Address: s.addr, Err: err}
	}
	port := lis.Addr().(*net.TCPAddr).Port
	s.mu.Lock()
	s.port = port
	s.mu.Unlock()

	// Bind runs before Serve starts, so no accept can complete until the
	// hook has returned.
	s.fireHook("bind", func() { s.hooks.OnBind(port) })
	s.log.Info("listening", "address", lis.Addr().String())

	serveErr := make(chan error, 1)
	go func() { serveErr <- grpcServer.Serve(lis) }()
	s.fireHook("server_start", s.hooks.OnServerStart)

	s.fireHook("run", s.hooks.OnRun)
	runErr := s.loop(ctx, serveErr)

	s.fireHook("shutdown", s.hooks.OnShutdown)
	close(s.loopDone)
	s.stopServer(grpcServer)
	s.fireHook("stopped", s.hooks.OnStopped)
	s.log.Info("server stopped")
	return runErr
}

// loop is the event loop. Each iteration checks the cooperative interrupt
// and the wall-clock duration, then waits on the call queue for at most
// queuePollInterval; a queue timeout is benign and re-enters the loop.
func (s *Server) loop(ctx context.Context, serveErr <-chan error) error {
	var expired <-chan time.Time
	if s.duration > 0 {
		timer := time.NewTimer(s.duration)
		defer timer.Stop()
		expired = timer.C
	}

	poll := time.NewTicker(queuePollInterval)
	defer poll.Stop()

	for {
		select {
		case <-s.stopCh:
			s.log.Info("interrupt received, shutting down")
			return nil
		case <-ctx.Done():
			s.log.Info("context cancelled, shutting down")
			return nil
		case <-expired:
			s.log.Info("server duration reached, shutting down")
			return nil
		case err := <-serveErr:
			if err != nil && !errors.Is(err, grpc.ErrServerStopped) {
				s.log.Error("accept loop failed", "error", err)
				return err
			}
			return nil
		case ev := <-s.calls:
			s.handleCall(ev)
		case <-poll.C:
			// Queue timeout; re-check interrupt and duration.
		}
	}
}

// accept runs on the runtime's handler goroutine. It hands the call to the
// event loop and blocks until the loop has finished with it, keeping one
// call in flight at a time.
func (s *Server) accept(_ any, stream grpc.ServerStream) error {
	method, ok := grpc.MethodFromServerStream(stream)
	if !ok {
		return status.Error(codes.Internal, "no method in stream")
	}

	ev := &callEvent{stream: stream, method: method, done: make(chan error, 1)}
	select {
	case s.calls <- ev:
	case <-s.loopDone:
		return status.Error(codes.Unavailable, "server is shutting down")
	case <-stream.Context().Done():
		return status.FromContextError(stream.Context().Err()).Err()
	}
	return <-ev.done
}

// handleCall drives one call through its states: read the request payload,
// dispatch, then send the response and status. Read failures still produce
// a status so the client never hangs, and per-call state is torn down
// before the next call is accepted.
func (s *Server) handleCall(ev *callEvent) {
	callID := uuid.NewString()
	ctx := ev.stream.Context()
	s.log.Debug("call accepted", "id", callID, "method", ev.method)

	code := codes.OK
	details := ""
	var response []byte

	var req wire.Frame
	readErr := ev.stream.RecvMsg(&req)
	switch {
	case errors.Is(readErr, io.EOF):
		code = codes.InvalidArgument
		details = "client did not send a message payload"
	case readErr != nil && ctx.Err() != nil:
		code = codes.Canceled
		details = "failed to receive client message or client cancelled"
	case readErr != nil:
		code = codes.Internal
		details = fmt.Sprintf("failed to receive client message: %v", readErr)
	default:
		handler, ok := s.table.Handler(ev.method)
		if !ok {
			code = codes.Unimplemented
			details = "Method not implemented or not found: " + ev.method
		} else if resp, err := invokeHandler(ctx, handler, req.Payload); err != nil {
			code = codes.Internal
			details = err.Error()
		} else {
			response = resp
		}
	}

	if code == codes.OK {
		if err := ev.stream.SendMsg(&wire.Frame{Payload: response}); err != nil {
			code = codes.Canceled
			details = fmt.Sprintf("failed to send response: %v", err)
		}
	}

	var result error
	if code != codes.OK {
		result = status.Error(code, details)
	}
	ev.done <- result

	// The runtime reports client cancellation through the stream context;
	// this is the recv-close observation for the call.
	cancelled := ctx.Err() != nil
	s.log.Info("call complete",
		"id", callID,
		"method", ev.method,
		"code", code.String(),
		"cancelled", cancelled,
	)
}

// invokeHandler runs a handler, converting a panic into an error so one
// misbehaving handler cannot take down the loop.
func invokeHandler(ctx context.Context, h Handler, request []byte) (response []byte, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panic: %v", r)
		}
	}()
	return h(ctx, request)
}

// stopServer stops the runtime, gracefully when possible, cancelling
// in-flight calls if the graceful stop does not finish in time.
func (s *Server) stopServer(gs *grpc.Server) {
	done := make(chan struct{})
	go func() {
		gs.GracefulStop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(shutdownTimeout):
		s.log.Warn("graceful stop timed out, cancelling in-flight calls")
		gs.Stop()
		<-done
	}
}

// fireHook invokes a lifecycle hook, catching panics so a host hook cannot
// abort the loop.
func (s *Server) fireHook(name string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Warn("hook panicked", "hook", name, "panic", r)
		}
	}()
	fn()
}
