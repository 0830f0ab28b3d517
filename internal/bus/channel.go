// Package bus carries events from views to the orchestrator and commands
// back to views. Delivery is at most once: a send never blocks, and a full
// or closed channel drops the message.
package bus

import (
	"sync"
	"sync/atomic"
)

const defaultCapacity = 64

// Channel is a buffered, non-blocking, many-producer queue
type Channel[T any] struct {
	mu      sync.RWMutex
	ch      chan T
	closed  bool
	dropped atomic.Int64
}

// NewChannel creates a channel holding up to capacity pending messages
func NewChannel[T any](capacity int) *Channel[T] {
	if capacity <= 0 {
		capacity = defaultCapacity
	}
	return &Channel[T]{ch: make(chan T, capacity)}
}

// Send enqueues msg and reports whether it was accepted
func (c *Channel[T]) Send(msg T) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.closed {
		c.dropped.Add(1)
		return false
	}
	select {
	case c.ch <- msg:
		return true
	default:
		c.dropped.Add(1)
		return false
	}
}

// Receive returns the receive side. It is closed by Close.
func (c *Channel[T]) Receive() <-chan T {
	return c.ch
}

// Close stops accepting messages. Pending messages remain readable.
func (c *Channel[T]) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}
	c.closed = true
	close(c.ch)
}

// Dropped returns how many messages were discarded
func (c *Channel[T]) Dropped() int64 {
	return c.dropped.Load()
}
