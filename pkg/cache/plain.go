package cache

import "github.com/edenfs-io/edenfs/pkg/model"

// Cache is the plain flavor of the object cache: Get and Insert hand back
// values directly, with no interest-handle bookkeeping. It is suitable for
// caches where a live reference to a value need not keep it pinned against
// eviction, e.g. the status cache's internal result table.
type Cache[V Value] struct {
	shards []*shard[V]
}

// New constructs a plain cache with the given whole-cache byte budget,
// minimum resident entry count, and shard count. A non-positive shardCount
// selects a default of 8.
func New[V Value](maxBytes, minEntries uint64, shardCount int) *Cache[V] {
	shardCount = shardCountOrDefault(shardCount)
	perBytes := perShardBudget(maxBytes, shardCount)
	perMin := perShardMinEntries(minEntries, shardCount)

	shards := make([]*shard[V], shardCount)
	for i := range shards {
		shards[i] = newShard[V](perBytes, perMin)
	}
	return &Cache[V]{shards: shards}
}

func (c *Cache[V]) shardFor(key model.ObjectId) *shard[V] {
	return c.shards[shardFor(key, len(c.shards))]
}

// Get returns the cached value for key, promoting it to most-recently-used.
func (c *Cache[V]) Get(key model.ObjectId) (V, bool) {
	s := c.shardFor(key)
	s.mu.Lock()
	defer s.mu.Unlock()
	it, ok := s.getLocked(key)
	if !ok {
		var zero V
		return zero, false
	}
	return it.object, true
}

// Insert adds object under its own key if absent, or promotes the existing
// entry if present. Returns true if the object was newly inserted.
func (c *Cache[V]) Insert(object V) bool {
	s := c.shardFor(object.Key())
	s.mu.Lock()
	defer s.mu.Unlock()
	_, inserted := s.insertLocked(object)
	return inserted
}

// Contains reports whether key is currently resident, without affecting LRU
// order or hit/miss counters.
func (c *Cache[V]) Contains(key model.ObjectId) bool {
	s := c.shardFor(key)
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.items[key]
	return ok
}

// Clear empties every shard, discarding all entries and resetting size
// accounting. Hit/miss/eviction counters are left untouched.
func (c *Cache[V]) Clear() {
	for _, s := range c.shards {
		s.mu.Lock()
		s.items = make(map[model.ObjectId]*item[V])
		s.eviction.Init()
		s.totalSize = 0
		s.mu.Unlock()
	}
}

// Stats aggregates counters across all shards.
func (c *Cache[V]) Stats() Stats {
	var total Stats
	for _, s := range c.shards {
		s.aggregateInto(&total)
	}
	return total
}
