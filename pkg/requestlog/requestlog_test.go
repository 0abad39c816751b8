package requestlog

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEntry(t *testing.T) {
	e := NewEntry("GET", "/endpoint", map[string]string{"Content-Type": "text"})

	assert.NotEmpty(t, e.ID)
	assert.Equal(t, "GET", e.Method)
	assert.Equal(t, "/endpoint", e.URL)
	assert.Equal(t, "text", e.Headers["Content-Type"])
	assert.False(t, e.ReceivedAt.IsZero())
}

func TestMemoryStoreEvictsOldest(t *testing.T) {
	s := NewMemoryStore(3)

	for i := 0; i < 5; i++ {
		s.Log(NewEntry("GET", fmt.Sprintf("/r/%d", i), nil))
	}

	require.Equal(t, 3, s.Len())
	entries := s.Entries()
	assert.Equal(t, "/r/2", entries[0].URL)
	assert.Equal(t, "/r/4", entries[2].URL)
}

func TestMemoryStoreUnbounded(t *testing.T) {
	s := NewMemoryStore(0)
	for i := 0; i < 10; i++ {
		s.Log(NewEntry("GET", "/x", nil))
	}
	assert.Equal(t, 10, s.Len())
}

func TestMemoryStoreClear(t *testing.T) {
	s := NewMemoryStore(10)
	s.Log(NewEntry("GET", "/x", nil))
	s.Clear()
	assert.Zero(t, s.Len())
	assert.Empty(t, s.Entries())
}

func TestMemoryStoreEntriesIsACopy(t *testing.T) {
	s := NewMemoryStore(10)
	s.Log(NewEntry("GET", "/x", nil))

	entries := s.Entries()
	entries[0].URL = "/mutated"

	assert.Equal(t, "/x", s.Entries()[0].URL)
}
