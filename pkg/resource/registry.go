package resource

import (
	"fmt"
	"sync"

	"github.com/httpstub/httpstub/pkg/protocol"
)

// Registry is the ordered collection of resources registered on one server.
// Resolution is deterministic for a given resource set: when several
// resources match both path and method, the first registered wins.
type Registry struct {
	mu        sync.RWMutex
	resources []*Resource
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Create compiles the URI pattern and registers a new resource answering
// "200 Ok" to GET with an empty body. Malformed patterns fail here, not at
// request time.
func (g *Registry) Create(uri string) (*Resource, error) {
	r, err := newResource(uri)
	if err != nil {
		return nil, err
	}
	g.mu.Lock()
	g.resources = append(g.resources, r)
	g.mu.Unlock()
	return r, nil
}

// MustCreate is Create, panicking on a malformed pattern. Convenient in
// tests, where a bad pattern is a bug in the test itself.
func (g *Registry) MustCreate(uri string) *Resource {
	r, err := g.Create(uri)
	if err != nil {
		panic(fmt.Sprintf("httpstub: %v", err))
	}
	return r
}

// Len returns the number of registered resources.
func (g *Registry) Len() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.resources)
}

// Resolve routes an inbound (method, target) to a resource. On success the
// resource's request counter is incremented and miss is zero. When nothing
// matches the path and query, miss is 404; when the path matches but no
// registered resource answers the method, miss is 405.
func (g *Registry) Resolve(method protocol.Method, target string) (res *Resource, miss protocol.Status) {
	g.mu.RLock()
	snapshot := make([]*Resource, len(g.resources))
	copy(snapshot, g.resources)
	g.mu.RUnlock()

	pathMatched := false
	for _, r := range snapshot {
		if !r.MatchesTarget(target) {
			continue
		}
		pathMatched = true
		if r.MatchesMethod(method) {
			r.markRequest()
			return r, 0
		}
	}
	if pathMatched {
		return nil, protocol.StatusMethodNotAllowed
	}
	return nil, protocol.StatusNotFound
}
