// Package cache implements the sharded, size-bounded LRU used to hold
// recently-fetched trees, blobs, and blob aux data in memory in front of the
// on-disk and backing-store tiers. It comes in two flavors: Cache, a plain
// get/insert cache, and HandleCache, whose Get/Insert calls hand back a
// Handle that pins an entry against eviction until closed.
//
// Both flavors share the same sharded eviction core; only the interest
// bookkeeping on top differs. Routing a key to a shard and evicting within a
// shard never blocks on any other shard's mutex.
package cache

import (
	"container/list"
	"hash/fnv"
	"sync"

	"github.com/edenfs-io/edenfs/pkg/idgen"
	"github.com/edenfs-io/edenfs/pkg/model"
)

// Value is the contract a type must satisfy to be cached: a content-addressed
// key and an approximate in-memory size used for budget accounting.
type Value interface {
	Key() model.ObjectId
	SizeBytes() uint64
}

// Stats is a point-in-time snapshot of a cache's (or, for HandleCache, one
// shard-aggregated view of a) counters.
type Stats struct {
	ObjectCount    uint64
	TotalSizeBytes uint64
	HitCount       uint64
	MissCount      uint64
	EvictionCount  uint64
	DropCount      uint64
}

// item is the per-entry bookkeeping record held in a shard. object is stored
// as the generic value directly: Go's garbage collector has no equivalent of
// a raw, non-owning pointer, so unlike the source's ObjectCache, eviction
// here really does drop the last strong reference rather than merely
// unlinking a node the caller might still independently hold one of.
type item[V Value] struct {
	object         V
	element        *list.Element
	referenceCount uint64
	generation     uint64
}

// shard is one independently-locked partition of a cache. Splitting the key
// space across shards means two goroutines touching different keys never
// contend on the same mutex.
type shard[V Value] struct {
	mu sync.Mutex

	maxBytes   uint64
	minEntries uint64

	totalSize uint64
	items     map[model.ObjectId]*item[V]
	eviction  *list.List // of model.ObjectId, oldest at Front

	hitCount      uint64
	missCount     uint64
	evictionCount uint64
	dropCount     uint64
}

func newShard[V Value](maxBytes, minEntries uint64) *shard[V] {
	return &shard[V]{
		maxBytes:   maxBytes,
		minEntries: minEntries,
		items:      make(map[model.ObjectId]*item[V]),
		eviction:   list.New(),
	}
}

// getLocked looks up key, promoting it to the back of the eviction queue on
// hit. Caller holds s.mu.
func (s *shard[V]) getLocked(key model.ObjectId) (*item[V], bool) {
	it, ok := s.items[key]
	if !ok {
		s.missCount++
		return nil, false
	}
	s.hitCount++
	s.eviction.MoveToBack(it.element)
	return it, true
}

// insertLocked inserts object if key is absent, or promotes the existing
// entry if present, leaving its value intact (first writer wins). Returns
// the resident item and whether it was newly inserted. Caller holds s.mu.
func (s *shard[V]) insertLocked(object V) (*item[V], bool) {
	key := object.Key()
	if it, ok := s.items[key]; ok {
		s.eviction.MoveToBack(it.element)
		return it, false
	}

	it := &item[V]{object: object}
	it.element = s.eviction.PushBack(key)
	s.items[key] = it
	s.totalSize += object.SizeBytes()
	s.evictUntilFits()
	return it, true
}

// evictUntilFits drops entries from the front of the eviction queue until
// the shard is within budget or at the minimum entry floor, whichever comes
// first. minEntries may cause maxBytes to be exceeded; that's deliberate; a
// single oversized value should still be cacheable when minEntries >= 1.
// Stops early if evictOne reports that every resident entry is pinned, since
// no further progress is possible.
func (s *shard[V]) evictUntilFits() {
	for uint64(s.totalSize) > s.maxBytes && uint64(s.eviction.Len()) > s.minEntries {
		if !s.evictOne() {
			return
		}
	}
}

// evictOne walks the eviction queue from the front, skipping over any entry
// whose referenceCount is non-zero (held open by an interest handle or a
// LikelyNeededAgain pin), and evicts the first unpinned entry it finds. This
// mirrors the original's ObjectCache-inl.h evictUntilFits/evictOne walking
// past pinned nodes rather than assuming the front of the list is always
// evictable. Returns false if every resident entry in the shard is pinned.
func (s *shard[V]) evictOne() bool {
	for el := s.eviction.Front(); el != nil; el = el.Next() {
		key := el.Value.(model.ObjectId)
		it, ok := s.items[key]
		if !ok || it.referenceCount > 0 {
			continue
		}
		s.evictionCount++
		s.evictElementLocked(el)
		return true
	}
	return false
}

// evictElementLocked removes the entry identified by el from both the
// eviction queue and the item table, adjusting the size total. Caller holds
// s.mu.
func (s *shard[V]) evictElementLocked(el *list.Element) {
	key := el.Value.(model.ObjectId)
	it, ok := s.items[key]
	if !ok {
		return
	}
	s.eviction.Remove(el)
	delete(s.items, key)
	s.totalSize -= it.object.SizeBytes()
}

func (s *shard[V]) statsLocked() Stats {
	return Stats{
		ObjectCount:    uint64(len(s.items)),
		TotalSizeBytes: s.totalSize,
		HitCount:       s.hitCount,
		MissCount:      s.missCount,
		EvictionCount:  s.evictionCount,
		DropCount:      s.dropCount,
	}
}

func shardCountOrDefault(shardCount int) int {
	if shardCount <= 0 {
		return 8
	}
	return shardCount
}

// perShardBudget splits a whole-cache budget across shardCount shards,
// rounding up, with a floor of 1 entry per shard whenever the whole-cache
// minimum is itself at least 1.
func perShardBudget(total uint64, shardCount int) uint64 {
	if shardCount <= 0 {
		return total
	}
	per := (total + uint64(shardCount) - 1) / uint64(shardCount)
	return per
}

func perShardMinEntries(total uint64, shardCount int) uint64 {
	per := perShardBudget(total, shardCount)
	if total >= 1 && per == 0 {
		return 1
	}
	return per
}

func shardFor(key model.ObjectId, shardCount int) int {
	h := fnv.New32a()
	_, _ = h.Write(key.Bytes())
	return int(h.Sum32()) % shardCount
}

func (s *shard[V]) aggregateInto(total *Stats) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.statsLocked()
	total.ObjectCount += st.ObjectCount
	total.TotalSizeBytes += st.TotalSizeBytes
	total.HitCount += st.HitCount
	total.MissCount += st.MissCount
	total.EvictionCount += st.EvictionCount
	total.DropCount += st.DropCount
}

// idGenerator is the source of cache-item generation numbers, satisfied by
// *idgen.Generator; parameterized so tests can supply a deterministic stub.
type idGenerator interface {
	Next() uint64
}

var _ idGenerator = (*idgen.Generator)(nil)
