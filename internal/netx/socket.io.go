package netx

import (
	"net/http"
	"sync"

	"github.com/zishang520/socket.io/servers/engine/v3"
	"github.com/zishang520/socket.io/servers/socket/v3"
	"github.com/zishang520/socket.io/v3/pkg/types"
)

// Socket represents a wrapper around the Socket.IO server
type Socket struct {
	sock       *socket.Server
	mu         sync.RWMutex
	Namespaces map[string]*Namespace
}

// Initialize configures and creates the Socket.IO server
func (self *Socket) Initialize() {
	opts := socket.DefaultServerOptions()
	opts.SetPath("/socket.io")
	opts.SetTransports(types.NewSet(
		engine.Polling,   // HTTP long-polling transport
		engine.WebSocket, // WebSocket transport for real-time communication
	))
	opts.SetMaxHttpBufferSize(1e6)
	self.sock = socket.NewServer(nil, opts)
	self.Namespaces = make(map[string]*Namespace)
}

// AddNamespace returns the namespace with the given name, creating it on first use
func (self *Socket) AddNamespace(name string) *Namespace {
	self.mu.Lock()
	defer self.mu.Unlock()

	if ns, ok := self.Namespaces[name]; ok {
		return ns
	}
	ns := &Namespace{namespace: self.sock.Of(name, nil)}
	ns.Initialize()
	self.Namespaces[name] = ns
	return ns
}

// GetNamespace returns the desired namespace
func (self *Socket) GetNamespace(name string) (*Namespace, bool) {
	self.mu.RLock()
	defer self.mu.RUnlock()
	ns, ok := self.Namespaces[name]
	return ns, ok
}

// Handler returns an HTTP handler for the Socket.IO server
func (self *Socket) Handler() http.Handler {
	return self.sock.ServeHandler(nil)
}

// Namespace represents a Socket.IO namespace with custom event handling
type Namespace struct {
	namespace  socket.Namespace
	events     map[string]func(client *socket.Socket, data ...any)
	registered bool
}

// Initialize sets up the namespace with default event handlers
func (self *Namespace) Initialize() {
	self.events = map[string]func(*socket.Socket, ...any){
		"disconnect": func(client *socket.Socket, reason ...any) {},
	}
}

// AddEvent registers a custom event handler for the namespace.
// Must be called before RegisterEvents.
func (self *Namespace) AddEvent(event string, f func(*socket.Socket, ...any)) {
	self.events[event] = f
}

// RegisterEvents activates all the event handlers for new client connections.
// Calling it again is a no-op.
func (self *Namespace) RegisterEvents() {
	if self.registered {
		return
	}
	self.registered = true
	self.namespace.On("connection", func(clients ...any) {
		client := clients[0].(*socket.Socket)
		for event, f := range self.events {
			client.On(event, func(data ...any) { f(client, data...) })
		}
	})
}

// AddMiddleware adds a middleware to the namespace
func (self *Namespace) AddMiddleware(f func(client *socket.Socket, next func(*socket.ExtendedError))) {
	self.namespace.Use(f)
}

// Emit broadcasts an event to every client of the namespace
func (self *Namespace) Emit(event string, args ...any) error {
	return self.namespace.Emit(event, args...)
}
