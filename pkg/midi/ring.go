package midi

import "sync/atomic"

// Ring is a bounded single-producer single-consumer event queue. The
// producer (audio/sequencer thread) pushes, the render loop drains; when
// the ring is full events are dropped rather than blocking the producer.
// Exactly one goroutine may push and exactly one may pop.
type Ring struct {
	buf  []Event
	mask uint64
	head atomic.Uint64 // next slot to write
	tail atomic.Uint64 // next slot to read
}

// NewRing creates a ring holding at least capacity events, rounded up to
// a power of two with a floor of 64.
func NewRing(capacity int) *Ring {
	size := 64
	for size < capacity {
		size <<= 1
	}
	return &Ring{
		buf:  make([]Event, size),
		mask: uint64(size - 1),
	}
}

// Push enqueues ev and reports whether it fit. A false return means the
// consumer is behind and the event was dropped.
func (r *Ring) Push(ev Event) bool {
	head := r.head.Load()
	if head-r.tail.Load() == uint64(len(r.buf)) {
		return false
	}
	r.buf[head&r.mask] = ev
	r.head.Store(head + 1)
	return true
}

// Pop dequeues the oldest event.
func (r *Ring) Pop() (Event, bool) {
	tail := r.tail.Load()
	if tail == r.head.Load() {
		return Event{}, false
	}
	ev := r.buf[tail&r.mask]
	r.tail.Store(tail + 1)
	return ev, true
}

// Len reports how many events are queued. It is advisory: either side
// may move while the caller looks at the result.
func (r *Ring) Len() int {
	return int(r.head.Load() - r.tail.Load())
}
