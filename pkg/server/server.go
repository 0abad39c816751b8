// Package server binds the listening socket and dispatches connections to
// registered resources.
//
// A Server owns one TCP listener and one resource registry. Each accepted
// connection is handled on its own goroutine: the request line is parsed, the
// registry resolves a resource (404/405 on a miss), an optional delay is
// applied, the response is written raw, and streaming resources then keep the
// connection open as a broadcast relay.
//
// Shutdown uses an in-band sentinel: the literal bytes "CLOSE" sent as the
// very first bytes of a new connection to the listening port stop the accept
// loop. The sentinel is peeked without consuming, so ordinary requests are
// unaffected.
package server

import (
	"fmt"
	"log/slog"
	"net"
	"sync"

	"github.com/httpstub/httpstub/pkg/logging"
	"github.com/httpstub/httpstub/pkg/requestlog"
	"github.com/httpstub/httpstub/pkg/resource"
)

// closeSentinel is the control-plane byte sequence recognized on a fresh
// connection to request server shutdown.
const closeSentinel = "CLOSE"

// requestChannelBuffer bounds the metadata listener channel. Delivery is
// non-blocking: a listener that stops draining loses records rather than
// wedging connection handlers.
const requestChannelBuffer = 128

// Option configures a Server at construction time.
type Option func(*Server)

// WithLogger attaches an operational logger. The default discards everything.
func WithLogger(log *slog.Logger) Option {
	return func(s *Server) {
		if log != nil {
			s.log = log
		}
	}
}

// WithHistory records every received request's metadata into the given store,
// independent of the live Requests channel.
func WithHistory(store *requestlog.MemoryStore) Option {
	return func(s *Server) { s.history = store }
}

// Server is a programmable stub HTTP server bound to a local TCP port.
type Server struct {
	listener net.Listener
	port     int
	registry *resource.Registry
	log      *slog.Logger
	done     chan struct{}

	mu       sync.Mutex
	requests chan requestlog.Entry
	history  *requestlog.MemoryStore
	closed   bool
}

// New binds to an ephemeral local port and starts accepting connections.
func New(opts ...Option) (*Server, error) {
	return NewWithPort(0, opts...)
}

// NewWithPort binds to the given local port (0 picks a free one) and starts
// accepting connections. A bind failure is returned synchronously.
func NewWithPort(port int, opts ...Option) (*Server, error) {
	l, err := net.Listen("tcp", fmt.Sprintf("localhost:%d", port))
	if err != nil {
		return nil, fmt.Errorf("bind localhost:%d: %w", port, err)
	}
	s := &Server{
		listener: l,
		registry: resource.NewRegistry(),
		log:      logging.Nop(),
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	if addr, ok := l.Addr().(*net.TCPAddr); ok {
		s.port = addr.Port
	}
	s.log.Info("listening", "port", s.port)
	go s.acceptLoop()
	return s, nil
}

// Port returns the bound port number.
func (s *Server) Port() int { return s.port }

// Addr returns the base URL of the server, e.g. "http://localhost:41234".
func (s *Server) Addr() string {
	return fmt.Sprintf("http://localhost:%d", s.port)
}

// CreateResource compiles the URI pattern and registers a new resource.
// A new resource answers "200 Ok" to GET with an empty body until configured
// otherwise. The returned handle is shared: configuration changes are seen by
// in-flight connections.
func (s *Server) CreateResource(uri string) (*resource.Resource, error) {
	return s.registry.Create(uri)
}

// MustCreateResource is CreateResource, panicking on a malformed pattern.
func (s *Server) MustCreateResource(uri string) *resource.Resource {
	return s.registry.MustCreate(uri)
}

// Requests attaches the metadata listener and returns its channel. Each
// received request pushes one Entry after its response has been written. At
// most one listener is active; calling Requests again replaces the previous
// channel. Without a listener (and without a history store) header parsing is
// skipped entirely.
func (s *Server) Requests() <-chan requestlog.Entry {
	ch := make(chan requestlog.Entry, requestChannelBuffer)
	s.mu.Lock()
	s.requests = ch
	s.mu.Unlock()
	return ch
}

// Close stops the accept loop via the CLOSE sentinel and waits for the
// listener to shut down. Streamed connections already relaying are not
// affected; close those through their resource. Idempotent.
func (s *Server) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.mu.Unlock()

	conn, err := net.Dial("tcp", fmt.Sprintf("localhost:%d", s.port))
	if err == nil {
		_, _ = conn.Write([]byte(closeSentinel))
		_ = conn.Close()
	} else {
		// Accept loop is unreachable; force it out through the listener.
		_ = s.listener.Close()
	}
	<-s.done
}

func (s *Server) metadataSinks() (chan requestlog.Entry, *requestlog.MemoryStore) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.requests, s.history
}
