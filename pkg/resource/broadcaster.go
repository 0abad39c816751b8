package resource

import (
	"sync"

	"github.com/google/uuid"
)

// subscriberBuffer is the per-subscriber delivery queue depth. A subscriber
// whose queue is full is considered dead and pruned, never blocked on.
const subscriberBuffer = 64

// broadcaster fans data out from one resource to its open streamed
// connections. The zero value is ready to use.
type broadcaster struct {
	mu   sync.Mutex
	subs map[string]chan string
}

// subscribe registers a delivery channel and returns it immediately.
func (b *broadcaster) subscribe() (string, <-chan string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.subs == nil {
		b.subs = make(map[string]chan string)
	}
	id := uuid.NewString()
	ch := make(chan string, subscriberBuffer)
	b.subs[id] = ch
	return id, ch
}

// unsubscribe removes and closes a subscriber. No-op for unknown ids, so the
// relaying goroutine can call it unconditionally on exit without racing
// closeAll.
func (b *broadcaster) unsubscribe(id string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if ch, ok := b.subs[id]; ok {
		delete(b.subs, id)
		close(ch)
	}
}

// send delivers data to every live subscriber in registration-independent
// order, preserving per-subscriber ordering. Subscribers that cannot accept
// the delivery are pruned before send returns.
func (b *broadcaster) send(data string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for id, ch := range b.subs {
		select {
		case ch <- data:
		default:
			delete(b.subs, id)
			close(ch)
		}
	}
}

// closeAll terminates and removes every subscriber.
func (b *broadcaster) closeAll() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for id, ch := range b.subs {
		delete(b.subs, id)
		close(ch)
	}
}

// count returns the live subscriber count.
func (b *broadcaster) count() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}
