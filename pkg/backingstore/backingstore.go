// Package backingstore defines the contract for the external,
// authoritative source of trees, blobs, and blob aux data, plus one
// concrete implementation (Empty) that answers every lookup with NotFound.
package backingstore

import (
	"context"

	"github.com/edenfs-io/edenfs/pkg/model"
)

// Origin records which tier of the object store satisfied a fetch.
type Origin int

const (
	NotFetched Origin = iota
	FromMemoryCache
	FromDiskCache
	FromNetworkFetch
)

func (o Origin) String() string {
	switch o {
	case NotFetched:
		return "not-fetched"
	case FromMemoryCache:
		return "memory-cache"
	case FromDiskCache:
		return "disk-cache"
	case FromNetworkFetch:
		return "network-fetch"
	default:
		return "unknown-origin"
	}
}

// ObjectComparison is the result of comparing two object IDs without
// fetching their contents.
type ObjectComparison int

const (
	// Unknown means the IDs must be fetched and compared to know.
	Unknown ObjectComparison = iota
	// Identical means the IDs are known to refer to the same content.
	Identical
	// Different means the IDs are known to refer to different content.
	Different
)

// TreeResult is the return value of BackingStore.GetTree.
type TreeResult struct {
	Tree   *model.Tree
	Origin Origin
}

// BlobResult is the return value of BackingStore.GetBlob.
type BlobResult struct {
	Blob   *model.Blob
	Origin Origin
}

// BlobAuxDataResult is the return value of BackingStore.GetBlobAuxData. Aux
// may be nil: some backing stores cannot derive aux data without fetching
// the full blob.
type BlobAuxDataResult struct {
	Aux    *model.BlobAuxData
	Origin Origin
}

// BackingStore is the abstract interface to an external, authoritative
// source of trees, blobs, and aux data. Implementations must be safe for
// concurrent use; the object store orchestrator calls these methods from
// many worker goroutines at once.
type BackingStore interface {
	// ParseRootId parses a human-readable root identifier.
	ParseRootId(raw string) (model.RootId, error)
	// RenderRootId renders a root identifier back to its human-readable form.
	RenderRootId(id model.RootId) string
	// ParseObjectId parses an encoded object identifier.
	ParseObjectId(raw string) (model.ObjectId, error)
	// RenderObjectId renders an object identifier back to its encoded form.
	RenderObjectId(id model.ObjectId) string

	// CompareObjectsById reports whether two IDs are known to refer to the
	// same or different content without fetching either.
	CompareObjectsById(one, two model.ObjectId) ObjectComparison

	GetRootTree(ctx context.Context, root model.RootId) (*model.Tree, error)
	GetTree(ctx context.Context, id model.ObjectId) (TreeResult, error)
	GetBlob(ctx context.Context, id model.ObjectId) (BlobResult, error)
	GetBlobAuxData(ctx context.Context, id model.ObjectId) (BlobAuxDataResult, error)
	PrefetchBlobs(ctx context.Context, ids []model.ObjectId) error

	// ImportManifestForRoot opportunistically uploads a known manifest for a
	// root, short-circuiting a future GetRootTree fetch. Implementations that
	// have no use for this are expected to no-op.
	ImportManifestForRoot(ctx context.Context, root model.RootId, manifest []byte) error

	// StartRecordingFetch enables path-fetch recording; a second call before
	// StopRecordingFetch has no effect.
	StartRecordingFetch()
	// StopRecordingFetch disables recording and returns, then clears, the set
	// of paths fetched since the last StartRecordingFetch.
	StopRecordingFetch() map[string]struct{}

	// DropAllPendingRequestsFromQueue is called at shutdown; it reports how
	// many in-flight requests were discarded.
	DropAllPendingRequestsFromQueue() int64

	// RepoName is an optional, best-effort name for logging/metrics
	// labeling.
	RepoName() (string, bool)
}

// Bijective implements CompareObjectsById for the common case where an
// object ID is a content hash: byte-equal IDs mean identical content,
// non-equal IDs mean different content. Concrete backing stores embed this
// to avoid re-deriving the same comparison.
type Bijective struct{}

func (Bijective) CompareObjectsById(one, two model.ObjectId) ObjectComparison {
	if one == two {
		return Identical
	}
	return Different
}
