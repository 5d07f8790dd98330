package objectstore

import (
	"sync"

	"github.com/google/uuid"

	"github.com/edenfs-io/edenfs/pkg/backingstore"
	"github.com/edenfs-io/edenfs/pkg/model"
)

// TraceEventKind identifies where a fetch request is in its lifecycle.
type TraceEventKind int

const (
	TraceQueued TraceEventKind = iota
	TraceStart
	TraceFinish
)

func (k TraceEventKind) String() string {
	switch k {
	case TraceQueued:
		return "queued"
	case TraceStart:
		return "start"
	case TraceFinish:
		return "finish"
	default:
		return "unknown"
	}
}

// TraceEvent is one enqueue/start/finish transition published onto the
// trace bus.
type TraceEvent struct {
	RequestID string
	ID        model.ObjectId
	Kind      TraceEventKind
	Origin    backingstore.Origin
}

// traceBusCapacity bounds each subscriber's channel: once it is full, a
// newly published event is dropped for that subscriber, per §4.H's
// "bounded, lossy" trace bus.
const traceBusCapacity = 100_000

// TraceBus is a bounded, lossy fan-out of trace events. A full subscriber
// channel drops the new event rather than blocking the publisher.
type TraceBus struct {
	mu          sync.RWMutex
	subscribers map[uint64]chan TraceEvent
	nextID      uint64
}

// NewTraceBus constructs an empty TraceBus.
func NewTraceBus() *TraceBus {
	return &TraceBus{subscribers: make(map[uint64]chan TraceEvent)}
}

// Subscribe registers a new subscriber and returns its channel plus a
// cancel function. The channel is buffered to traceBusCapacity; a
// subscriber that falls behind silently misses events rather than
// blocking publication.
func (b *TraceBus) Subscribe() (<-chan TraceEvent, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()
	id := b.nextID
	b.nextID++
	ch := make(chan TraceEvent, traceBusCapacity)
	b.subscribers[id] = ch
	return ch, func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if existing, ok := b.subscribers[id]; ok {
			delete(b.subscribers, id)
			close(existing)
		}
	}
}

// Publish fans event out to every subscriber, dropping it for any
// subscriber whose channel is currently full.
func (b *TraceBus) Publish(event TraceEvent) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, ch := range b.subscribers {
		select {
		case ch <- event:
		default:
		}
	}
}

// NewRequestID generates a unique identifier for trace events. A worker's
// start and finish events for one fetch share one ID; the queued event
// published by the Get call that enqueued the request carries a different
// ID, so queued events are not correlated with start/finish by RequestID.
func NewRequestID() string {
	return uuid.NewString()
}

// RingBuffer archives the most recent N trace events seen by a subscriber,
// for debugging. Grounded on the trace-bus "subscriber archives into a ring
// buffer" contract from §4.H.
type RingBuffer struct {
	mu     sync.Mutex
	events []TraceEvent
	cap    int
	next   int
	full   bool
}

// NewRingBuffer constructs a ring buffer holding up to capacity events.
func NewRingBuffer(capacity int) *RingBuffer {
	if capacity <= 0 {
		capacity = 1
	}
	return &RingBuffer{events: make([]TraceEvent, capacity), cap: capacity}
}

// Record appends one event, overwriting the oldest once the buffer fills.
func (r *RingBuffer) Record(event TraceEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events[r.next] = event
	r.next = (r.next + 1) % r.cap
	if r.next == 0 {
		r.full = true
	}
}

// Snapshot returns the buffer's current contents, oldest first.
func (r *RingBuffer) Snapshot() []TraceEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.full {
		out := make([]TraceEvent, r.next)
		copy(out, r.events[:r.next])
		return out
	}
	out := make([]TraceEvent, r.cap)
	copy(out, r.events[r.next:])
	copy(out[r.cap-r.next:], r.events[:r.next])
	return out
}

// Archive drains bus's subscription into the ring buffer until stop is
// called; intended to be run in its own goroutine.
func (r *RingBuffer) Archive(bus *TraceBus) (stop func()) {
	ch, cancel := bus.Subscribe()
	done := make(chan struct{})
	go func() {
		defer close(done)
		for event := range ch {
			r.Record(event)
		}
	}()
	return func() {
		cancel()
		<-done
	}
}
