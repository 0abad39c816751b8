// Package resource implements the configurable stub resources the server
// answers with, and the registry that routes inbound requests to them.
//
// A Resource is created through a Registry, configured through a fluent API,
// and shared by reference: every goroutine holding the same *Resource sees
// configuration changes immediately, which is what lets tests reconfigure an
// endpoint while connections are in flight. All fields are independently
// guarded, so configuration may race with live traffic without torn reads.
package resource

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/httpstub/httpstub/pkg/pattern"
	"github.com/httpstub/httpstub/pkg/protocol"
)

// ErrBodyConflict is the panic value carrier for configuring both a literal
// body and a body function on the same resource. The fluent API cannot return
// an error, and the conflict is a programming mistake in the calling test,
// so it is surfaced as a panic rather than deferred to request time.
var ErrBodyConflict = errors.New("body and body function are mutually exclusive")

// Params carries the path and query parameters extracted from a live request,
// as passed to a BodyFunc.
type Params struct {
	Path  map[string]string
	Query map[string]string
}

// BodyFunc generates a response body from the extracted request parameters.
// Its return value is used verbatim, with no placeholder substitution.
type BodyFunc func(Params) string

// Resource is a single (URI pattern, method) → response rule with mutable
// runtime state. The zero value is not usable; create resources through a
// Registry.
type Resource struct {
	pattern *pattern.Pattern

	mu          sync.RWMutex
	status      protocol.Status
	customLine  string
	headers     map[string]string
	body        string
	bodySet     bool
	bodyFn      BodyFunc
	method      protocol.Method
	delay       time.Duration
	stream      bool
	constraints map[string]string

	requests  atomic.Int64
	broadcast broadcaster
}

func newResource(uri string) (*Resource, error) {
	p, err := pattern.Compile(uri)
	if err != nil {
		return nil, err
	}
	return &Resource{
		pattern:     p,
		status:      protocol.StatusOK,
		method:      protocol.MethodGet,
		headers:     map[string]string{},
		constraints: p.QueryConstraints(),
	}, nil
}

// URI returns the pattern declaration the resource was created with.
func (r *Resource) URI() string { return r.pattern.String() }

// Status sets a named status. It clears any custom status previously set, so
// a named status always wins if set after a custom one.
func (r *Resource) Status(s protocol.Status) *Resource {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.status = s
	r.customLine = ""
	return r
}

// CustomStatus sets an arbitrary "<code> <reason>" status line. It takes
// precedence over the named status until Status is called again.
func (r *Resource) CustomStatus(code int, reason string) *Resource {
	r.mu.Lock()
	defer r.mu.Unlock()
	if reason == "" {
		reason = protocol.Status(code).Reason()
	}
	r.customLine = fmt.Sprintf("%d %s", code, reason)
	return r
}

// Header sets a response header. Last write wins; emission order is
// unspecified.
func (r *Resource) Header(name, value string) *Resource {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.headers[name] = value
	return r
}

// Body sets the literal response body. Occurrences of {path.<name>} and
// {query.<name>} are substituted with the matching request values at render
// time; unmatched placeholders are left as-is.
//
// Panics with ErrBodyConflict if a body function is already configured.
func (r *Resource) Body(body string) *Resource {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.bodyFn != nil {
		panic(ErrBodyConflict)
	}
	r.body = body
	r.bodySet = true
	return r
}

// BodyFn sets a generator function invoked with the extracted request
// parameters; its return value is used verbatim as the body.
//
// Panics with ErrBodyConflict if a literal body is already configured.
func (r *Resource) BodyFn(fn BodyFunc) *Resource {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.bodySet {
		panic(ErrBodyConflict)
	}
	r.bodyFn = fn
	return r
}

// Method sets the method this resource answers. Register multiple resources
// on the same URI to serve multiple methods.
func (r *Resource) Method(m protocol.Method) *Resource {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.method = m
	return r
}

// Delay makes the server wait the given duration before writing any response
// bytes, and before any streaming subscription begins.
func (r *Resource) Delay(d time.Duration) *Resource {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.delay = d
	return r
}

// Query adds a query constraint on top of those declared in the URI pattern.
// Value "*" accepts any non-empty value.
func (r *Resource) Query(name, value string) *Resource {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.constraints[name] = value
	return r
}

// Stream marks the resource as streaming: connections stay open after the
// initial response and relay everything passed to Send/SendLine until
// CloseOpenConnections is called or the client disconnects.
func (r *Resource) Stream() *Resource {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stream = true
	return r
}

// IsStream reports whether the resource is in streaming mode.
func (r *Resource) IsStream() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.stream
}

// ResponseDelay returns the configured response delay, zero if none.
func (r *Resource) ResponseDelay() time.Duration {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.delay
}

// RequestCount returns how many requests were routed to this resource.
// Requests answered 404 or 405 are never counted.
func (r *Resource) RequestCount() int {
	return int(r.requests.Load())
}

func (r *Resource) markRequest() {
	r.requests.Add(1)
}

// MatchesTarget reports whether a request target (path plus optional query
// string) satisfies the path pattern and every query constraint, ignoring the
// method.
func (r *Resource) MatchesTarget(target string) bool {
	path, rawQuery := pattern.SplitTarget(target)
	if !r.pattern.Matches(path) {
		return false
	}
	r.mu.RLock()
	constraints := make(map[string]string, len(r.constraints))
	for k, v := range r.constraints {
		constraints[k] = v
	}
	r.mu.RUnlock()
	return pattern.SatisfiesConstraints(constraints, pattern.ParseQuery(rawQuery))
}

// MatchesMethod reports whether the resource answers the given method.
func (r *Resource) MatchesMethod(m protocol.Method) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.method == m
}

// Render builds the raw response bytes for a request target.
func (r *Resource) Render(target string) string {
	path, rawQuery := pattern.SplitTarget(target)
	params := Params{
		Path:  r.pattern.PathParams(path),
		Query: pattern.ParseQuery(rawQuery),
	}

	r.mu.RLock()
	statusLine := r.customLine
	if statusLine == "" {
		statusLine = r.status.Line()
	}
	headers := make(map[string]string, len(r.headers))
	for k, v := range r.headers {
		headers[k] = v
	}
	body := r.body
	fn := r.bodyFn
	r.mu.RUnlock()

	if fn != nil {
		body = fn(params)
	} else {
		body = substitute(body, params)
	}
	return protocol.FormatResponse(statusLine, headers, body)
}

// Send pushes data to every open streamed connection of this resource.
func (r *Resource) Send(data string) *Resource {
	r.broadcast.send(data)
	return r
}

// SendLine pushes data followed by a newline to every open streamed
// connection.
func (r *Resource) SendLine(data string) *Resource {
	return r.Send(data + "\n")
}

// CloseOpenConnections terminates every streamed connection currently
// subscribed to this resource.
func (r *Resource) CloseOpenConnections() {
	r.broadcast.closeAll()
}

// OpenConnectionsCount returns the number of currently open streamed
// connections.
func (r *Resource) OpenConnectionsCount() int {
	return r.broadcast.count()
}

// Subscribe registers a new streamed connection and returns its id and
// delivery channel. The channel is closed when the subscription ends.
func (r *Resource) Subscribe() (string, <-chan string) {
	return r.broadcast.subscribe()
}

// Unsubscribe removes a streamed connection. Safe to call for an id already
// pruned or closed.
func (r *Resource) Unsubscribe(id string) {
	r.broadcast.unsubscribe(id)
}

func substitute(body string, params Params) string {
	for name, value := range params.Path {
		body = strings.ReplaceAll(body, "{path."+name+"}", value)
	}
	for name, value := range params.Query {
		body = strings.ReplaceAll(body, "{query."+name+"}", value)
	}
	return body
}
