// Package objectstore implements the object store orchestrator (§4.H): the
// component every other piece of the core calls through to resolve a tree,
// blob, or blob aux data ID. It stitches together the in-memory object
// cache, the on-disk local store, the backing-store facade, and the
// priority import queue into a single three-tier lookup, publishing a
// trace event at every enqueue/start/finish transition of a tree, blob, or
// blob aux data fetch. Prefetch requests publish no trace events.
package objectstore

import (
	"bytes"
	"context"
	"fmt"

	"github.com/alitto/pond"

	"github.com/edenfs-io/edenfs/pkg/backingstore"
	"github.com/edenfs-io/edenfs/pkg/cache"
	"github.com/edenfs-io/edenfs/pkg/edenerr"
	"github.com/edenfs-io/edenfs/pkg/importqueue"
	"github.com/edenfs-io/edenfs/pkg/localstore"
	"github.com/edenfs-io/edenfs/pkg/logging"
	"github.com/edenfs-io/edenfs/pkg/model"
	"github.com/edenfs-io/edenfs/pkg/requestcontext"
)

// CachingPolicy selects which object kinds are persisted to the local
// on-disk store when fetched from the backing store. It never affects the
// in-memory cache, which always caches whatever it fetches: the policy
// governs the cost of durable disk writes, not the cheap in-process tier.
type CachingPolicy int

const (
	NoCaching CachingPolicy = iota
	Trees
	Blobs
	BlobAuxData
	TreesAndBlobAuxData
	Anything
)

func (p CachingPolicy) shouldCacheTrees() bool {
	return p == Trees || p == TreesAndBlobAuxData || p == Anything
}

func (p CachingPolicy) shouldCacheBlobs() bool {
	return p == Blobs || p == Anything
}

func (p CachingPolicy) shouldCacheBlobAuxData() bool {
	return p == BlobAuxData || p == TreesAndBlobAuxData || p == Anything
}

// Local store keys are namespaced by a one-byte kind tag so that trees,
// blobs, and blob aux data can share the same table without colliding on
// object IDs that happen to coincide across kinds.
const (
	treeTag byte = iota + 1
	blobTag
	blobAuxTag
)

func localKey(tag byte, id model.ObjectId) []byte {
	key := make([]byte, 0, len(id)+1)
	key = append(key, tag)
	return append(key, id.Bytes()...)
}

var logger = logging.RootLogger.Sublogger("objectstore")

// Config bundles the Store's fixed dependencies and tuning knobs.
type Config struct {
	Backing backingstore.BackingStore
	// Local is optional; a nil Local disables the on-disk tier entirely,
	// falling straight through from memory cache to backing store.
	Local  *localstore.Store
	Policy CachingPolicy

	TreeCacheBytes, TreeCacheMinEntries       uint64
	BlobCacheBytes, BlobCacheMinEntries       uint64
	BlobAuxCacheBytes, BlobAuxCacheMinEntries uint64
	ShardCount                                int

	// BatchSize caps how many same-kind requests a single worker drains
	// per Dequeue call. Defaults to 8 per kind if zero.
	BatchSize int
}

// Store is the object store orchestrator.
type Store struct {
	backing backingstore.BackingStore
	local   *localstore.Store
	policy  CachingPolicy

	treeCache    *cache.Cache[*model.Tree]
	blobCache    *cache.Cache[*model.Blob]
	blobAuxCache *cache.Cache[*model.BlobAuxData]

	queue *importqueue.Queue
	trace *TraceBus
	pool  *pond.WorkerPool

	batchSize int
}

// New constructs a Store from cfg. The returned Store has no running
// workers; call Start to begin draining the import queue.
func New(cfg Config) *Store {
	batchSize := cfg.BatchSize
	if batchSize <= 0 {
		batchSize = 8
	}
	return &Store{
		backing:      cfg.Backing,
		local:        cfg.Local,
		policy:       cfg.Policy,
		treeCache:    cache.New[*model.Tree](cfg.TreeCacheBytes, cfg.TreeCacheMinEntries, cfg.ShardCount),
		blobCache:    cache.New[*model.Blob](cfg.BlobCacheBytes, cfg.BlobCacheMinEntries, cfg.ShardCount),
		blobAuxCache: cache.New[*model.BlobAuxData](cfg.BlobAuxCacheBytes, cfg.BlobAuxCacheMinEntries, cfg.ShardCount),
		queue:        importqueue.New(),
		trace:        NewTraceBus(),
		batchSize:    batchSize,
	}
}

// Trace returns the store's trace bus, for subscribing debug tooling.
func (s *Store) Trace() *TraceBus {
	return s.trace
}

// Start launches workerCount goroutines, each draining the import queue and
// dispatching fetches to the backing store, via a pond worker pool.
func (s *Store) Start(workerCount int) {
	if workerCount <= 0 {
		workerCount = 1
	}
	s.pool = pond.New(workerCount, 0, pond.MinWorkers(workerCount))
	for i := 0; i < workerCount; i++ {
		s.pool.Submit(s.workerLoop)
	}
}

// Stop signals every worker to exit once its current batch finishes, then
// waits for the pool to drain.
func (s *Store) Stop() {
	s.queue.Stop()
	if s.pool != nil {
		s.pool.StopAndWait()
	}
}

func (s *Store) batchSizeForKind(importqueue.RequestKind) int {
	return s.batchSize
}

// workerLoop repeatedly dequeues a same-kind batch of requests and resolves
// them against the backing store, reporting start/finish trace events for
// each. It returns once the queue is stopped.
func (s *Store) workerLoop() {
	for {
		requests, kind, stopped := s.queue.Dequeue(s.batchSizeForKind)
		if stopped {
			return
		}
		switch kind {
		case importqueue.TreeRequest:
			s.fetchTrees(requests)
		case importqueue.BlobRequest:
			s.fetchBlobs(requests)
		case importqueue.BlobAuxDataRequest:
			s.fetchBlobAuxData(requests)
		case importqueue.PrefetchRequest:
			s.fetchPrefetch(requests)
		case importqueue.TreeAuxDataRequest:
			// The backing-store facade has no tree-aux-data fetch method; no
			// backing store in this module's domain produces one, so any
			// such request fails fast rather than blocking forever.
			for _, r := range requests {
				importqueue.MarkFinished[backingstore.BlobAuxDataResult](s.queue, r.ID, backingstore.BlobAuxDataResult{},
					&edenerr.NotFound{Kind: edenerr.ObjectKindTreeAuxData, ID: string(r.ID)})
			}
		}
	}
}

func (s *Store) fetchTrees(requests []importqueue.DequeuedRequest) {
	ctx := context.Background()
	for _, r := range requests {
		requestID := NewRequestID()
		s.trace.Publish(TraceEvent{RequestID: requestID, ID: r.ID, Kind: TraceStart})
		result, err := s.backing.GetTree(ctx, r.ID)
		if err == nil {
			result.Origin = backingstore.FromNetworkFetch
		}
		importqueue.MarkFinished[backingstore.TreeResult](s.queue, r.ID, result, err)
		s.trace.Publish(TraceEvent{RequestID: requestID, ID: r.ID, Kind: TraceFinish, Origin: backingstore.FromNetworkFetch})
	}
}

func (s *Store) fetchBlobs(requests []importqueue.DequeuedRequest) {
	ctx := context.Background()
	for _, r := range requests {
		requestID := NewRequestID()
		s.trace.Publish(TraceEvent{RequestID: requestID, ID: r.ID, Kind: TraceStart})
		result, err := s.backing.GetBlob(ctx, r.ID)
		if err == nil {
			result.Origin = backingstore.FromNetworkFetch
		}
		importqueue.MarkFinished[backingstore.BlobResult](s.queue, r.ID, result, err)
		s.trace.Publish(TraceEvent{RequestID: requestID, ID: r.ID, Kind: TraceFinish, Origin: backingstore.FromNetworkFetch})
	}
}

func (s *Store) fetchBlobAuxData(requests []importqueue.DequeuedRequest) {
	ctx := context.Background()
	for _, r := range requests {
		requestID := NewRequestID()
		s.trace.Publish(TraceEvent{RequestID: requestID, ID: r.ID, Kind: TraceStart})
		result, err := s.backing.GetBlobAuxData(ctx, r.ID)
		if err == nil {
			result.Origin = backingstore.FromNetworkFetch
		}
		importqueue.MarkFinished[backingstore.BlobAuxDataResult](s.queue, r.ID, result, err)
		s.trace.Publish(TraceEvent{RequestID: requestID, ID: r.ID, Kind: TraceFinish, Origin: backingstore.FromNetworkFetch})
	}
}

func (s *Store) fetchPrefetch(requests []importqueue.DequeuedRequest) {
	ids := make([]model.ObjectId, len(requests))
	for i, r := range requests {
		ids[i] = r.ID
	}
	err := s.backing.PrefetchBlobs(context.Background(), ids)
	for _, r := range requests {
		importqueue.MarkFinished[struct{}](s.queue, r.ID, struct{}{}, err)
	}
}

// GetRootTree resolves root directly against the backing store: the
// root-to-tree mapping is a commit lookup, not a content address, so it is
// never cached or deduplicated the way GetTree's object IDs are. The
// resolved tree is seeded into the tree cache so a following GetTree(id)
// for the same tree is a memory-cache hit.
func (s *Store) GetRootTree(ctx context.Context, root model.RootId, rc *requestcontext.Context) (*model.Tree, error) {
	tree, err := s.backing.GetRootTree(ctx, root)
	if err != nil {
		rc.DidFetch(backingstore.NotFetched)
		return nil, err
	}
	rc.DidFetch(backingstore.FromNetworkFetch)
	s.treeCache.Insert(tree)
	return tree, nil
}

// GetTree resolves id through the memory cache, the local store, and
// finally the import queue/backing store, in that order.
func (s *Store) GetTree(ctx context.Context, id model.ObjectId, rc *requestcontext.Context) (*model.Tree, error) {
	if tree, ok := s.treeCache.Get(id); ok {
		rc.DidFetch(backingstore.FromMemoryCache)
		return tree, nil
	}

	if s.local != nil {
		if data, ok, err := s.local.Get(localKey(treeTag, id)); err != nil {
			logger.Warn(fmt.Errorf("local store read for tree %q failed: %w", id, err))
		} else if ok {
			if tree, err := decodeTree(data); err != nil {
				logger.Warn(fmt.Errorf("local store tree %q corrupt, treating as miss: %w", id, err))
			} else {
				s.treeCache.Insert(tree)
				rc.DidFetch(backingstore.FromDiskCache)
				return tree, nil
			}
		}
	}

	requestID := NewRequestID()
	s.trace.Publish(TraceEvent{RequestID: requestID, ID: id, Kind: TraceQueued})
	future := importqueue.Enqueue[backingstore.TreeResult](s.queue, importqueue.TreeRequest, id, rc.Priority())
	result, err := future.Wait(ctx)
	if err != nil {
		rc.DidFetch(backingstore.NotFetched)
		return nil, err
	}

	rc.DidFetch(result.Origin)
	s.treeCache.Insert(result.Tree)
	if s.local != nil && s.policy.shouldCacheTrees() {
		if err := s.local.Put(localKey(treeTag, id), encodeTree(result.Tree)); err != nil {
			logger.Warn(fmt.Errorf("local store write for tree %q failed: %w", id, err))
		}
	}
	return result.Tree, nil
}

// GetBlob resolves id through the memory cache, the local store, and
// finally the import queue/backing store, in that order.
func (s *Store) GetBlob(ctx context.Context, id model.ObjectId, rc *requestcontext.Context) (*model.Blob, error) {
	if blob, ok := s.blobCache.Get(id); ok {
		rc.DidFetch(backingstore.FromMemoryCache)
		return blob, nil
	}

	if s.local != nil {
		if data, ok, err := s.local.Get(localKey(blobTag, id)); err != nil {
			logger.Warn(fmt.Errorf("local store read for blob %q failed: %w", id, err))
		} else if ok {
			if blob, err := decodeBlob(data); err != nil {
				logger.Warn(fmt.Errorf("local store blob %q corrupt, treating as miss: %w", id, err))
			} else {
				s.blobCache.Insert(blob)
				rc.DidFetch(backingstore.FromDiskCache)
				return blob, nil
			}
		}
	}

	requestID := NewRequestID()
	s.trace.Publish(TraceEvent{RequestID: requestID, ID: id, Kind: TraceQueued})
	future := importqueue.Enqueue[backingstore.BlobResult](s.queue, importqueue.BlobRequest, id, rc.Priority())
	result, err := future.Wait(ctx)
	if err != nil {
		rc.DidFetch(backingstore.NotFetched)
		return nil, err
	}

	rc.DidFetch(result.Origin)
	s.blobCache.Insert(result.Blob)
	if s.local != nil && s.policy.shouldCacheBlobs() {
		if err := s.local.Put(localKey(blobTag, id), encodeBlob(result.Blob)); err != nil {
			logger.Warn(fmt.Errorf("local store write for blob %q failed: %w", id, err))
		}
	}
	return result.Blob, nil
}

// GetBlobAuxData resolves id's derived metadata through the memory cache,
// the local store, and finally the import queue/backing store.
func (s *Store) GetBlobAuxData(ctx context.Context, id model.ObjectId, rc *requestcontext.Context) (*model.BlobAuxData, error) {
	if aux, ok := s.blobAuxCache.Get(id); ok {
		rc.DidFetch(backingstore.FromMemoryCache)
		return aux, nil
	}

	if s.local != nil {
		if data, ok, err := s.local.Get(localKey(blobAuxTag, id)); err != nil {
			logger.Warn(fmt.Errorf("local store read for blob aux data %q failed: %w", id, err))
		} else if ok {
			if aux, err := decodeBlobAuxData(data); err != nil {
				logger.Warn(fmt.Errorf("local store blob aux data %q corrupt, treating as miss: %w", id, err))
			} else {
				s.blobAuxCache.Insert(aux)
				rc.DidFetch(backingstore.FromDiskCache)
				return aux, nil
			}
		}
	}

	requestID := NewRequestID()
	s.trace.Publish(TraceEvent{RequestID: requestID, ID: id, Kind: TraceQueued})
	future := importqueue.Enqueue[backingstore.BlobAuxDataResult](s.queue, importqueue.BlobAuxDataRequest, id, rc.Priority())
	result, err := future.Wait(ctx)
	if err != nil {
		rc.DidFetch(backingstore.NotFetched)
		return nil, err
	}

	rc.DidFetch(result.Origin)
	if result.Aux == nil {
		return nil, &edenerr.NotFound{Kind: edenerr.ObjectKindBlobAuxData, ID: string(id)}
	}
	s.blobAuxCache.Insert(result.Aux)
	if s.local != nil && s.policy.shouldCacheBlobAuxData() {
		if err := s.local.Put(localKey(blobAuxTag, id), encodeBlobAuxData(result.Aux)); err != nil {
			logger.Warn(fmt.Errorf("local store write for blob aux data %q failed: %w", id, err))
		}
	}
	return result.Aux, nil
}

// PrefetchBlobs requests that every id not already memory-resident be
// pulled into the backing store's own cache ahead of time, without
// necessarily populating this process's caches. Already-cached IDs are
// skipped without enqueuing a request.
func (s *Store) PrefetchBlobs(ctx context.Context, ids []model.ObjectId, rc *requestcontext.Context) error {
	futures := make([]*importqueue.Future[struct{}], 0, len(ids))
	for _, id := range ids {
		if s.blobCache.Contains(id) {
			continue
		}
		futures = append(futures, importqueue.Enqueue[struct{}](s.queue, importqueue.PrefetchRequest, id, rc.Priority()))
	}
	for _, future := range futures {
		if _, err := future.Wait(ctx); err != nil {
			return err
		}
	}
	return nil
}

// AreBlobsEqual reports whether a and b are known to refer to identical
// content. It first asks the backing store's cheap ID-only comparison; only
// when that is Unknown does it fall back to fetching both blobs (at most
// once each, via the same tiered GetBlob path) and comparing their bytes.
func (s *Store) AreBlobsEqual(ctx context.Context, a, b model.ObjectId, rc *requestcontext.Context) (bool, error) {
	switch s.backing.CompareObjectsById(a, b) {
	case backingstore.Identical:
		return true, nil
	case backingstore.Different:
		return false, nil
	}

	blobA, err := s.GetBlob(ctx, a, rc)
	if err != nil {
		return false, err
	}
	blobB, err := s.GetBlob(ctx, b, rc)
	if err != nil {
		return false, err
	}
	return bytes.Equal(blobA.Bytes, blobB.Bytes), nil
}
