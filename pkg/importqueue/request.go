package importqueue

import (
	"sync"

	"github.com/edenfs-io/edenfs/pkg/model"
)

// RequestKind distinguishes the five object facets the core fetches: trees
// and blobs themselves, their derived aux data, and bulk prefetches. Each
// kind has its own bucket so a flood of prefetches can never starve a
// latency-sensitive tree or blob fetch.
type RequestKind uint8

const (
	BlobRequest RequestKind = iota
	TreeRequest
	BlobAuxDataRequest
	TreeAuxDataRequest
	PrefetchRequest

	numRequestKinds = int(PrefetchRequest) + 1
)

func (k RequestKind) String() string {
	switch k {
	case BlobRequest:
		return "blob"
	case TreeRequest:
		return "tree"
	case BlobAuxDataRequest:
		return "blobAuxData"
	case TreeAuxDataRequest:
		return "treeAuxData"
	case PrefetchRequest:
		return "prefetch"
	default:
		return "unknown"
	}
}

// resolver completes one caller's Future. It is produced by a generic
// enqueue call and stored type-erased so a single sharedRequest can hold
// promises that all happen to resolve with the same concrete type (callers
// within one RequestKind always enqueue the same T) without the queue core
// needing to be generic itself.
type resolver func(value any, err error)

// sharedRequest is the in-flight, possibly-deduplicated unit of work
// resident in exactly one bucket for as long as it is queued. Once a worker
// dequeues it, it is removed from its bucket but remains reachable through
// the dedup table until MarkFinished resolves it.
type sharedRequest struct {
	id   model.ObjectId
	kind RequestKind

	mu        sync.Mutex
	priority  int64
	resolvers []resolver

	heapIndex int // maintained by container/heap; -1 once popped
}

func (r *sharedRequest) addResolver(resolve resolver, priority int64) {
	r.mu.Lock()
	r.resolvers = append(r.resolvers, resolve)
	if priority > r.priority {
		r.priority = priority
	}
	r.mu.Unlock()
}

func (r *sharedRequest) resolveAll(value any, err error) {
	r.mu.Lock()
	resolvers := r.resolvers
	r.mu.Unlock()
	for _, resolve := range resolvers {
		resolve(value, err)
	}
}
