package resource

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/httpstub/httpstub/pkg/pattern"
	"github.com/httpstub/httpstub/pkg/protocol"
)

func TestRegistryCreate(t *testing.T) {
	reg := NewRegistry()

	r, err := reg.Create("/user/{id}")
	require.NoError(t, err)
	require.NotNil(t, r)
	assert.Equal(t, 1, reg.Len())

	_, err = reg.Create("/bad/[0-9")
	assert.ErrorIs(t, err, pattern.ErrBadPattern)
	assert.Equal(t, 1, reg.Len())

	assert.Panics(t, func() { reg.MustCreate("/bad/[0-9") })
}

func TestResolveNotFound(t *testing.T) {
	reg := NewRegistry()
	reg.MustCreate("/known")

	res, miss := reg.Resolve(protocol.MethodGet, "/unknown")
	assert.Nil(t, res)
	assert.Equal(t, protocol.StatusNotFound, miss)
}

func TestResolveMethodNotAllowed(t *testing.T) {
	reg := NewRegistry()
	reg.MustCreate("/thing").Method(protocol.MethodPost)

	res, miss := reg.Resolve(protocol.MethodGet, "/thing")
	assert.Nil(t, res)
	assert.Equal(t, protocol.StatusMethodNotAllowed, miss)
}

func TestResolveMultipleMethodsOnSameURI(t *testing.T) {
	reg := NewRegistry()
	getRes := reg.MustCreate("/thing")
	postRes := reg.MustCreate("/thing").Method(protocol.MethodPost)

	res, miss := reg.Resolve(protocol.MethodGet, "/thing")
	require.Zero(t, miss)
	assert.Same(t, getRes, res)

	res, miss = reg.Resolve(protocol.MethodPost, "/thing")
	require.Zero(t, miss)
	assert.Same(t, postRes, res)
}

func TestResolveFirstRegisteredWins(t *testing.T) {
	reg := NewRegistry()
	first := reg.MustCreate("/dup")
	reg.MustCreate("/dup")

	res, miss := reg.Resolve(protocol.MethodGet, "/dup")
	require.Zero(t, miss)
	assert.Same(t, first, res)
}

func TestResolveQueryConstraints(t *testing.T) {
	reg := NewRegistry()
	reg.MustCreate("/things?filter=*")

	res, miss := reg.Resolve(protocol.MethodGet, "/things?filter=anything")
	assert.NotNil(t, res)
	assert.Zero(t, miss)

	res, miss = reg.Resolve(protocol.MethodGet, "/things")
	assert.Nil(t, res)
	assert.Equal(t, protocol.StatusNotFound, miss)
}

func TestRequestCountOnlyIncrementsWhenRouted(t *testing.T) {
	reg := NewRegistry()
	r := reg.MustCreate("/counted").Method(protocol.MethodPost)

	reg.Resolve(protocol.MethodPost, "/counted")
	reg.Resolve(protocol.MethodPost, "/counted")
	assert.Equal(t, 2, r.RequestCount())

	// Misses never touch any counter.
	reg.Resolve(protocol.MethodGet, "/counted")
	reg.Resolve(protocol.MethodPost, "/elsewhere")
	assert.Equal(t, 2, r.RequestCount())
}
