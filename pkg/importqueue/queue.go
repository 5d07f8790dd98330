package importqueue

import (
	"container/heap"
	"sync"

	"github.com/edenfs-io/edenfs/pkg/model"
)

// Queue is the priority-scheduled, per-kind-bucketed, deduplicating request
// queue that sits in front of the backing-store worker pool.
type Queue struct {
	mu      sync.Mutex
	cond    *sync.Cond
	buckets [numRequestKinds]*bucket
	dedup   map[model.ObjectId]*sharedRequest
	stopped bool
}

// New constructs an empty, running Queue.
func New() *Queue {
	q := &Queue{dedup: make(map[model.ObjectId]*sharedRequest)}
	for i := range q.buckets {
		q.buckets[i] = &bucket{}
	}
	q.cond = sync.NewCond(&q.mu)
	return q
}

// Enqueue submits a fetch for id at the given priority and kind, returning
// a Future the caller can Wait on. If an in-flight request for id already
// exists (regardless of which caller created it), the caller's Future is
// attached to that request instead of starting a second fetch, and the
// request's priority is raised to the higher of the two. The dedup table
// is keyed purely by ObjectId, matching the backing store's guarantee that
// IDs are globally unique content addresses independent of facet.
//
// T must match the type every other concurrent Enqueue call for the same id
// uses; in practice this holds because a given RequestKind always resolves
// to one Go type (blob requests to *model.Blob, tree requests to
// *model.Tree, and so on).
func Enqueue[T any](q *Queue, kind RequestKind, id model.ObjectId, priority ImportPriority) *Future[T] {
	future, complete := newFuture[T]()
	resolve := func(value any, err error) {
		if err != nil {
			var zero T
			complete(zero, err)
			return
		}
		v, _ := value.(T)
		complete(v, nil)
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	if q.stopped {
		// Process-shutdown path: the caller's future is deliberately never
		// completed here, mirroring the source's "enqueue after stop is
		// silently discarded."  Callers must Wait with a context they will
		// cancel during shutdown.
		return future
	}

	if existing, ok := q.dedup[id]; ok {
		existing.addResolver(resolve, priority.Value())
		heap.Fix(q.buckets[existing.kind], existing.heapIndex)
		return future
	}

	req := &sharedRequest{id: id, kind: kind, priority: priority.Value(), resolvers: []resolver{resolve}}
	q.dedup[id] = req
	heap.Push(q.buckets[kind], req)
	q.cond.Signal()
	return future
}

// DequeuedRequest identifies one request a worker popped off the queue. The
// worker fetches it from the backing store and reports the outcome via
// MarkFinished.
type DequeuedRequest struct {
	ID   model.ObjectId
	Kind RequestKind
}

func (q *Queue) allBucketsEmptyLocked() bool {
	for _, b := range q.buckets {
		if b.Len() > 0 {
			return false
		}
	}
	return true
}

func (q *Queue) pickBucketLocked() RequestKind {
	best := RequestKind(0)
	bestPriority := minPriorityValue
	for i, b := range q.buckets {
		if p := b.frontPriority(); p > bestPriority {
			bestPriority = p
			best = RequestKind(i)
		}
	}
	return best
}

// Dequeue blocks until stop is requested or at least one bucket is
// non-empty, then drains up to batchSize(kind) requests — all guaranteed
// to be the same kind — from whichever bucket currently holds the
// highest-priority front element. Returns an empty slice with stopped=true
// once Stop has been called.
func (q *Queue) Dequeue(batchSize func(RequestKind) int) (requests []DequeuedRequest, kind RequestKind, stopped bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for !q.stopped && q.allBucketsEmptyLocked() {
		q.cond.Wait()
	}
	if q.stopped {
		return nil, 0, true
	}

	kind = q.pickBucketLocked()
	b := q.buckets[kind]
	limit := batchSize(kind)
	if limit <= 0 {
		limit = 1
	}
	for b.Len() > 0 && len(requests) < limit {
		req := heap.Pop(b).(*sharedRequest)
		requests = append(requests, DequeuedRequest{ID: req.id, Kind: req.kind})
	}
	return requests, kind, false
}

// Stop marks the queue as shutting down and wakes every blocked Dequeue
// call. Requests already resident continue to be resolvable via
// MarkFinished; new Enqueue calls are silently discarded.
func (q *Queue) Stop() {
	q.mu.Lock()
	q.stopped = true
	q.mu.Unlock()
	q.cond.Broadcast()
}

// MarkFinished resolves every Future attached to id (the original requester
// and anyone who was deduplicated onto it) with value or err, and removes
// id from the dedup table. A no-op if id is not present, e.g. the request
// was dropped during shutdown.
func MarkFinished[T any](q *Queue, id model.ObjectId, value T, err error) {
	q.mu.Lock()
	req, ok := q.dedup[id]
	if ok {
		delete(q.dedup, id)
	}
	q.mu.Unlock()

	if !ok {
		return
	}
	if err != nil {
		req.resolveAll(nil, err)
		return
	}
	req.resolveAll(value, nil)
}

// DropAll removes and fails, with err, every request across every bucket.
// Used at process shutdown after Stop to unblock anyone still waiting.
func (q *Queue) DropAll(err error) {
	q.mu.Lock()
	all := make([]*sharedRequest, 0, len(q.dedup))
	for _, req := range q.dedup {
		all = append(all, req)
	}
	q.dedup = make(map[model.ObjectId]*sharedRequest)
	for i := range q.buckets {
		q.buckets[i] = &bucket{}
	}
	q.mu.Unlock()

	for _, req := range all {
		req.resolveAll(nil, err)
	}
}
