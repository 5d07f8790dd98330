package cache

import (
	"sync"

	"github.com/edenfs-io/edenfs/pkg/idgen"
	"github.com/edenfs-io/edenfs/pkg/model"
)

// Interest describes how strongly a caller wants a cached value to survive
// past the current lookup.
type Interest uint8

const (
	// UnlikelyNeededAgain does not pin the entry; the caller gets the value
	// for this call only.
	UnlikelyNeededAgain Interest = iota
	// WantHandle pins the entry and returns a Handle the caller must Close
	// when done.
	WantHandle
	// LikelyNeededAgain pins the entry without handing back a Handle. The
	// entry is never evicted by reference count alone in this mode, and
	// budget-driven eviction skips pinned entries; only clearing the cache
	// removes it. This trades a small leak risk for avoiding an
	// allocation when the caller has no natural place to store a handle.
	LikelyNeededAgain
)

// Handle is a scoped token returned by a WantHandle lookup or insert. While
// open, it keeps its entry pinned in the cache regardless of LRU pressure.
// Closing it is idempotent and safe to call from any goroutine; closing more
// than once, or after the entry has already been evicted and possibly
// replaced by an unrelated entry under the same key, is a no-op.
//
// The source distinguishes "the entry I pinned" from "a newer entry with the
// same key" using a generation counter compared under the cache's lock; Go
// has no portable weak reference prior to the go1.24 weak package (the
// teacher repo targets go1.21), so that's reproduced here with an explicit
// Close method in place of a destructor, and the fallback "still in memory"
// path returns the value captured at handle-creation time directly rather
// than through a true weak pointer.
type Handle[V Value] struct {
	mu         sync.Mutex
	cache      *HandleCache[V]
	key        model.ObjectId
	generation uint64
	value      V
	closed     bool
}

// Object returns the pinned value. It remains valid even after Close, since
// the handle holds its own strong reference.
func (h *Handle[V]) Object() V {
	return h.value
}

// Close releases the handle's pin. If this was the last outstanding
// reference to the entry, the entry is evicted immediately, independent of
// its position in the LRU queue.
func (h *Handle[V]) Close() {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	h.closed = true
	h.mu.Unlock()
	h.cache.dropInterestHandle(h.key, h.generation)
}

// HandleCache is the interest-handle flavor of the object cache: lookups and
// inserts may request a Handle that keeps an entry resident until closed,
// used where a consumer (e.g. an open file handle backed by a blob) must
// guarantee the object it is reading stays in memory across the operation.
type HandleCache[V Value] struct {
	shards []*shard[V]
	ids    idGenerator
}

// NewHandleCache constructs an interest-handle cache with the given
// whole-cache byte budget, minimum resident entry count, and shard count. A
// non-positive shardCount selects a default of 8. A nil ids generator uses
// the package-level default generator.
func NewHandleCache[V Value](maxBytes, minEntries uint64, shardCount int, ids idGenerator) *HandleCache[V] {
	shardCount = shardCountOrDefault(shardCount)
	if ids == nil {
		ids = idgen.New()
	}
	perBytes := perShardBudget(maxBytes, shardCount)
	perMin := perShardMinEntries(minEntries, shardCount)

	shards := make([]*shard[V], shardCount)
	for i := range shards {
		shards[i] = newShard[V](perBytes, perMin)
	}
	return &HandleCache[V]{shards: shards, ids: ids}
}

func (c *HandleCache[V]) shardFor(key model.ObjectId) *shard[V] {
	return c.shards[shardFor(key, len(c.shards))]
}

// Get looks up key with the given interest, returning the value, a Handle
// (non-nil only for WantHandle), and whether the key was present.
func (c *HandleCache[V]) Get(key model.ObjectId, interest Interest) (V, *Handle[V], bool) {
	s := c.shardFor(key)
	s.mu.Lock()
	defer s.mu.Unlock()

	it, ok := s.getLocked(key)
	if !ok {
		var zero V
		return zero, nil, false
	}

	var handle *Handle[V]
	switch interest {
	case WantHandle:
		it.referenceCount++
		handle = &Handle[V]{cache: c, key: key, generation: it.generation, value: it.object}
	case LikelyNeededAgain:
		it.referenceCount++
	case UnlikelyNeededAgain:
		// No pin; caller gets the value for this call only.
	}
	return it.object, handle, true
}

// Insert adds object under its own key if absent, or promotes the existing
// entry if present, with the given interest. Returns the value's Handle
// (non-nil only for WantHandle). If the key was already present, the
// returned handle (if any) is scoped to the resident entry's existing
// generation, not a newly-allocated one.
func (c *HandleCache[V]) Insert(object V, interest Interest) *Handle[V] {
	key := object.Key()
	generation := c.ids.Next()

	s := c.shardFor(key)
	s.mu.Lock()
	defer s.mu.Unlock()

	it, inserted := s.insertLocked(object)
	if inserted {
		it.generation = generation
	} else {
		generation = it.generation
	}

	switch interest {
	case WantHandle:
		it.referenceCount++
		return &Handle[V]{cache: c, key: key, generation: generation, value: it.object}
	case LikelyNeededAgain:
		it.referenceCount++
	case UnlikelyNeededAgain:
	}
	return nil
}

// dropInterestHandle releases one reference held by a Handle for
// (key, generation). If the generation no longer matches the resident
// entry's current generation, the entry was evicted and possibly replaced
// since the handle was created, so the call is a no-op. Reaching a zero
// reference count evicts the entry immediately, out of LRU order.
func (c *HandleCache[V]) dropInterestHandle(key model.ObjectId, generation uint64) {
	s := c.shardFor(key)
	s.mu.Lock()
	defer s.mu.Unlock()

	it, ok := s.items[key]
	if !ok {
		return
	}
	if generation != it.generation {
		return
	}
	if it.referenceCount == 0 {
		return
	}
	it.referenceCount--
	if it.referenceCount == 0 {
		s.dropCount++
		s.evictElementLocked(it.element)
	}
}

// Contains reports whether key is currently resident, without affecting LRU
// order, hit/miss counters, or reference counts.
func (c *HandleCache[V]) Contains(key model.ObjectId) bool {
	s := c.shardFor(key)
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.items[key]
	return ok
}

// Clear empties every shard unconditionally, discarding all entries
// regardless of outstanding reference counts. Handles into a cleared cache
// become no-ops on Close (their generation will no longer match).
func (c *HandleCache[V]) Clear() {
	for _, s := range c.shards {
		s.mu.Lock()
		s.items = make(map[model.ObjectId]*item[V])
		s.eviction.Init()
		s.totalSize = 0
		s.mu.Unlock()
	}
}

// Stats aggregates counters across all shards.
func (c *HandleCache[V]) Stats() Stats {
	var total Stats
	for _, s := range c.shards {
		s.aggregateInto(&total)
	}
	return total
}
