package server

// Hooks receives lifecycle callbacks from a running server. Implementations
// are invoked from the server goroutine in a fixed order:
//
//	OnServerCreate < OnQueueCreate < OnBind < OnServerStart < OnRun
//	    < OnShutdown < OnStopped < OnExit
//
// OnBind carries the bound TCP port and runs strictly before any call can
// be accepted, so a host that needs the ephemeral port (for example to
// write it to a file another process polls) can rely on it. OnExit fires
// unconditionally, error paths included.
//
// A hook that panics is logged at warn level and does not abort the loop.
// Embed NopHooks to implement a subset.
type Hooks interface {
	OnServerCreate()
	OnQueueCreate()
	OnBind(port int)
	OnServerStart()
	OnRun()
	OnShutdown()
	OnStopped()
	OnExit()
}

// NopHooks is a Hooks implementation whose callbacks all do nothing.
type NopHooks struct{}

var _ Hooks = NopHooks{}

func (NopHooks) OnServerCreate() {}
func (NopHooks) OnQueueCreate()  {}
func (NopHooks) OnBind(int)      {}
func (NopHooks) OnServerStart()  {}
func (NopHooks) OnRun()          {}
func (NopHooks) OnShutdown()     {}
func (NopHooks) OnStopped()      {}
func (NopHooks) OnExit()         {}

// HookFuncs adapts individual functions to the Hooks interface. Nil fields
// are no-ops, so hosts can subscribe to just the boundaries they care
// about.
type HookFuncs struct {
	ServerCreate func()
	QueueCreate  func()
	Bind         func(port int)
	ServerStart  func()
	Run          func()
	Shutdown     func()
	Stopped      func()
	Exit         func()
}

var _ Hooks = HookFuncs{}

func (h HookFuncs) OnServerCreate() {
	if h.ServerCreate != nil {
		h.ServerCreate()
	}
}

func (h HookFuncs) OnQueueCreate() {
	if h.QueueCreate != nil {
		h.QueueCreate()
	}
}

func (h HookFuncs) OnBind(port int) {
	if h.Bind != nil {
		h.Bind(port)
	}
}

func (h HookFuncs) OnServerStart() {
	if h.ServerStart != nil {
		h.ServerStart()
	}
}

func (h HookFuncs) OnRun() {
	if h.Run != nil {
		h.Run()
	}
}

func (h HookFuncs) OnShutdown() {
	if h.Shutdown != nil {
		h.Shutdown()
	}
}

func (h HookFuncs) OnStopped() {
	if h.Stopped != nil {
		h.Stopped()
	}
}

func (h HookFuncs) OnExit() {
	if h.Exit != nil {
		h.Exit()
	}
}
