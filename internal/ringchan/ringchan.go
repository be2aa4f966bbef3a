// Package ringchan provides a bounded channel with overwrite-oldest
// semantics. The notification dispatch path must never block on a slow
// consumer, so a full buffer discards the oldest element instead of
// applying backpressure.
package ringchan

// Ring wraps a buffered channel. Senders always succeed; receivers use
// C() like a normal Go channel.
type Ring[T any] struct {
	ch chan T
}

// New creates a Ring with the given capacity.
func New[T any](capacity int) *Ring[T] {
	if capacity <= 0 {
		panic("ringchan: capacity must be > 0")
	}
	return &Ring[T]{ch: make(chan T, capacity)}
}

// C returns the underlying receive-only channel. Consumers can range
// over it until it is closed.
func (r *Ring[T]) C() <-chan T {
	return r.ch
}

// Send inserts an item, discarding the oldest buffered element when the
// buffer is full. It never blocks indefinitely. Returns true when an
// element was dropped to make room.
func (r *Ring[T]) Send(v T) bool {
	select {
	case r.ch <- v:
		return false
	default:
	}

	dropped := false
	select {
	case <-r.ch:
		dropped = true
	default:
	}
	r.ch <- v
	return dropped
}

// Len returns the number of buffered elements.
func (r *Ring[T]) Len() int {
	return len(r.ch)
}

// Cap returns the buffer capacity.
func (r *Ring[T]) Cap() int {
	return cap(r.ch)
}

// Close closes the channel. Send after Close panics.
func (r *Ring[T]) Close() {
	close(r.ch)
}
