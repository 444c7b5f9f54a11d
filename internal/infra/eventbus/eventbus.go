// Package eventbus is an in-memory publish/subscribe bus for corpus lifecycle events.
// The corpus store publishes after each write; corpus.WatchEvents subscribes
// and logs them.
//
// Design:
//   - Buffered channel per subscriber.
//   - Publish never blocks: an event is dropped for a subscriber whose buffer is full, and counted.
//   - Subscribe returns the channel and a cancel func that removes and closes it.
//   - Close closes every subscriber channel so consumer loops end.
package eventbus

import (
	"slices"
	"sync"
	"sync/atomic"
)

// Event is a single published message.
type Event struct {
	Topic   string
	Payload any
}

// Publisher is the producer side, used by services that emit events.
type Publisher interface {
	Publish(topic string, payload any)
}

const defaultBufferSize = 100

// Bus is the in-memory implementation of Publisher.
type Bus struct {
	mu          sync.RWMutex
	subscribers map[string][]chan Event
	bufferSize  int
	closed      bool
	dropped     atomic.Uint64
}

// New returns a Bus with the default per-subscriber buffer.
func New() *Bus {
	return NewWithBuffer(defaultBufferSize)
}

// NewWithBuffer returns a Bus whose subscriber channels hold size events.
func NewWithBuffer(size int) *Bus {
	if size < 1 {
		size = 1
	}
	return &Bus{
		subscribers: make(map[string][]chan Event),
		bufferSize:  size,
	}
}

// Subscribe registers a subscriber for topic. The returned cancel func is
// idempotent. Subscribing to a closed bus yields an already closed channel.
func (b *Bus) Subscribe(topic string) (<-chan Event, func()) {
	ch := make(chan Event, b.bufferSize)

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		close(ch)
		return ch, func() {}
	}
	b.subscribers[topic] = append(b.subscribers[topic], ch)

	var once sync.Once
	cancel := func() {
		once.Do(func() { b.remove(topic, ch) })
	}
	return ch, cancel
}

func (b *Bus) remove(topic string, ch chan Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	subs := b.subscribers[topic]
	i := slices.Index(subs, ch)
	if i < 0 {
		return // already closed by Close
	}
	b.subscribers[topic] = slices.Delete(subs, i, i+1)
	close(ch)
}

// Publish sends an Event to every subscriber of topic without blocking.
func (b *Bus) Publish(topic string, payload any) {
	evt := Event{Topic: topic, Payload: payload}

	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return
	}
	for _, ch := range b.subscribers[topic] {
		select {
		case ch <- evt:
		default:
			b.dropped.Add(1)
		}
	}
}

// Dropped returns how many deliveries were skipped because a buffer was full.
func (b *Bus) Dropped() uint64 {
	return b.dropped.Load()
}

// Close closes every subscriber channel. Later publishes are ignored.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for topic, subs := range b.subscribers {
		for _, ch := range subs {
			close(ch)
		}
		delete(b.subscribers, topic)
	}
}
