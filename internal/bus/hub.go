package bus

import (
	"sort"
	"sync"
)

// Subscription is one view's inbox on a Hub
type Subscription[T any] struct {
	ID      string
	channel *Channel[T]
	cancel  func()
}

// Receive returns the inbox. It is closed when the subscription ends.
func (s *Subscription[T]) Receive() <-chan T {
	return s.channel.Receive()
}

// Close removes the subscription from its hub
func (s *Subscription[T]) Close() {
	if s.cancel != nil {
		s.cancel()
	}
}

// Hub broadcasts messages to every subscribed view
type Hub[T any] struct {
	mu       sync.RWMutex
	subs     map[string]*Subscription[T]
	capacity int
}

// NewHub creates a hub whose subscriptions buffer capacity messages each
func NewHub[T any](capacity int) *Hub[T] {
	return &Hub[T]{
		subs:     make(map[string]*Subscription[T]),
		capacity: capacity,
	}
}

// Subscribe registers a view. Subscribing an id again replaces and closes
// the previous subscription.
func (h *Hub[T]) Subscribe(id string) *Subscription[T] {
	sub := &Subscription[T]{ID: id, channel: NewChannel[T](h.capacity)}
	sub.cancel = func() { h.remove(id, sub) }

	h.mu.Lock()
	prev := h.subs[id]
	h.subs[id] = sub
	h.mu.Unlock()

	if prev != nil {
		prev.channel.Close()
	}
	return sub
}

func (h *Hub[T]) remove(id string, sub *Subscription[T]) {
	h.mu.Lock()
	if h.subs[id] == sub {
		delete(h.subs, id)
	}
	h.mu.Unlock()

	sub.channel.Close()
}

// Broadcast offers msg to every subscription and returns how many accepted it
func (h *Hub[T]) Broadcast(msg T) int {
	h.mu.RLock()
	subs := make([]*Subscription[T], 0, len(h.subs))
	for _, sub := range h.subs {
		subs = append(subs, sub)
	}
	h.mu.RUnlock()

	delivered := 0
	for _, sub := range subs {
		if sub.channel.Send(msg) {
			delivered++
		}
	}
	return delivered
}

// IDs lists subscribed view ids in sorted order
func (h *Hub[T]) IDs() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()

	ids := make([]string, 0, len(h.subs))
	for id := range h.subs {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Close ends every subscription
func (h *Hub[T]) Close() {
	h.mu.Lock()
	subs := h.subs
	h.subs = make(map[string]*Subscription[T])
	h.mu.Unlock()

	for _, sub := range subs {
		sub.channel.Close()
	}
}
