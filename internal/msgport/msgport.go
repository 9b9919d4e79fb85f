// Package msgport implements a fixed-capacity, bounded message port with
// blocking and timed pop, used to decouple caller-thread API calls from the
// realtime audio worker goroutine.
package msgport

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"
)

// PopResult classifies the outcome of a timed pop.
type PopResult int

const (
	// Got indicates a message was popped successfully.
	Got PopResult = iota
	// TimedOut indicates the deadline elapsed with no message available.
	TimedOut
	// Closed indicates the port was closed while waiting.
	Closed
)

// Port is a FIFO bounded queue of fixed-type messages shared between one
// producer goroutine and one consumer goroutine. The zero value is not
// usable; construct with New.
//
// Ordering is FIFO per port. Fairness across multiple producers or
// consumers sharing the same port is not guaranteed or required — Faun
// uses exactly one producer and one consumer per direction.
type Port[T any] struct {
	mu   sync.Mutex
	ring []T
	tail int // index of the oldest message
	used int

	readable *semaphore.Weighted // one unit per message present
	writable *semaphore.Weighted // one unit per free slot

	closed bool
}

// New creates a Port with the given capacity. Capacity must be positive.
func New[T any](capacity int) *Port[T] {
	if capacity < 1 {
		capacity = 1
	}
	p := &Port[T]{
		ring:     make([]T, capacity),
		readable: semaphore.NewWeighted(int64(capacity)),
		writable: semaphore.NewWeighted(int64(capacity)),
	}
	// readable starts at its max (capacity) available units; drain it to
	// zero so Pop blocks until Push releases one. writable starts at its
	// max too, which already means "capacity free slots" — left alone.
	_ = p.readable.Acquire(context.Background(), int64(capacity))
	return p
}

// Push enqueues msg, blocking until a slot is free. It always succeeds once
// a slot becomes available; there is no overflow error by design.
func (p *Port[T]) Push(msg T) {
	_ = p.writable.Acquire(context.Background(), 1)
	p.mu.Lock()
	idx := (p.tail + p.used) % len(p.ring)
	p.ring[idx] = msg
	p.used++
	p.mu.Unlock()
	p.readable.Release(1)
}

// Pop blocks until a message is available and returns it.
func (p *Port[T]) Pop() T {
	_ = p.readable.Acquire(context.Background(), 1)
	return p.popLocked()
}

// PopTimed blocks until a message is available or the deadline elapses,
// whichever comes first.
func (p *Port[T]) PopTimed(deadline time.Time) (T, PopResult) {
	ctx, cancel := context.WithDeadline(context.Background(), deadline)
	defer cancel()

	if err := p.readable.Acquire(ctx, 1); err != nil {
		var zero T
		p.mu.Lock()
		closed := p.closed
		p.mu.Unlock()
		if closed {
			return zero, Closed
		}
		return zero, TimedOut
	}
	return p.popLocked(), Got
}

func (p *Port[T]) popLocked() T {
	p.mu.Lock()
	msg := p.ring[p.tail]
	var zero T
	p.ring[p.tail] = zero
	p.tail = (p.tail + 1) % len(p.ring)
	p.used--
	p.mu.Unlock()
	p.writable.Release(1)
	return msg
}

// Used reports the approximate number of queued messages. It reads the
// count under the port's mutex, but the count may change as soon as Used
// returns, so it is intended only for heuristics (e.g. "should I decode
// more now"), not for exact accounting.
func (p *Port[T]) Used() int {
	p.mu.Lock()
	n := p.used
	p.mu.Unlock()
	return n
}

// Close marks the port closed; a goroutine blocked in PopTimed keeps
// waiting until its deadline and then sees Closed if no message arrived.
// Close does not wake goroutines blocked in Pop (callers must not mix Pop
// with Close).
func (p *Port[T]) Close() {
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()
}
