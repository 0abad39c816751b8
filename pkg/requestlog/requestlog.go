// Package requestlog holds the captured request metadata the server reports
// out-of-band, plus a bounded in-memory history store for after-the-fact
// inspection.
//
// This is a leaf package with no internal dependencies, so it can be imported
// anywhere without cycles.
package requestlog

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Entry is a snapshot of one received request: the target URL, the method and
// the request headers. Later occurrences of a header name overwrite earlier
// ones.
type Entry struct {
	ID         string
	URL        string
	Method     string
	Headers    map[string]string
	ReceivedAt time.Time
}

// NewEntry builds an Entry with a fresh id and timestamp.
func NewEntry(method, url string, headers map[string]string) Entry {
	return Entry{
		ID:         uuid.NewString(),
		URL:        url,
		Method:     method,
		Headers:    headers,
		ReceivedAt: time.Now(),
	}
}

// MemoryStore keeps the most recent entries up to a fixed capacity. Safe for
// concurrent use.
type MemoryStore struct {
	mu       sync.RWMutex
	capacity int
	entries  []Entry
}

// NewMemoryStore creates a store holding at most capacity entries; the oldest
// are evicted first. A capacity <= 0 means unbounded.
func NewMemoryStore(capacity int) *MemoryStore {
	return &MemoryStore{capacity: capacity}
}

// Log records an entry, evicting the oldest when over capacity.
func (s *MemoryStore) Log(e Entry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, e)
	if s.capacity > 0 && len(s.entries) > s.capacity {
		s.entries = s.entries[len(s.entries)-s.capacity:]
	}
}

// Entries returns a copy of the recorded entries, oldest first.
func (s *MemoryStore) Entries() []Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Entry, len(s.entries))
	copy(out, s.entries)
	return out
}

// Len returns the number of recorded entries.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Clear drops all recorded entries.
func (s *MemoryStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = nil
}
