package backingstore

import (
	"context"
	"sync"

	"github.com/edenfs-io/edenfs/pkg/edenerr"
	"github.com/edenfs-io/edenfs/pkg/model"
)

// Empty is a backing store that answers every lookup with NotFound. It is
// the core's one fully-built concrete implementation, used as the default
// when no real backing store is configured and as the fixture for tests
// that don't need real fetch behavior.
type Empty struct {
	Bijective

	mu        sync.Mutex
	recording bool
	fetched   map[string]struct{}
}

// NewEmpty constructs an Empty backing store.
func NewEmpty() *Empty {
	return &Empty{}
}

func (e *Empty) ParseRootId(raw string) (model.RootId, error) {
	return model.RootId(raw), nil
}

func (e *Empty) RenderRootId(id model.RootId) string {
	return string(id)
}

func (e *Empty) ParseObjectId(raw string) (model.ObjectId, error) {
	return model.ObjectId(raw), nil
}

func (e *Empty) RenderObjectId(id model.ObjectId) string {
	return string(id)
}

func (e *Empty) recordFetch(path string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.recording {
		if e.fetched == nil {
			e.fetched = make(map[string]struct{})
		}
		e.fetched[path] = struct{}{}
	}
}

func (e *Empty) GetRootTree(ctx context.Context, root model.RootId) (*model.Tree, error) {
	e.recordFetch(string(root))
	return nil, &edenerr.NotFound{Kind: edenerr.ObjectKindRoot, ID: string(root)}
}

func (e *Empty) GetTree(ctx context.Context, id model.ObjectId) (TreeResult, error) {
	e.recordFetch(string(id))
	return TreeResult{}, &edenerr.NotFound{Kind: edenerr.ObjectKindTree, ID: string(id)}
}

func (e *Empty) GetBlob(ctx context.Context, id model.ObjectId) (BlobResult, error) {
	e.recordFetch(string(id))
	return BlobResult{}, &edenerr.NotFound{Kind: edenerr.ObjectKindBlob, ID: string(id)}
}

func (e *Empty) GetBlobAuxData(ctx context.Context, id model.ObjectId) (BlobAuxDataResult, error) {
	e.recordFetch(string(id))
	return BlobAuxDataResult{}, &edenerr.NotFound{Kind: edenerr.ObjectKindBlobAuxData, ID: string(id)}
}

func (e *Empty) PrefetchBlobs(ctx context.Context, ids []model.ObjectId) error {
	return nil
}

func (e *Empty) ImportManifestForRoot(ctx context.Context, root model.RootId, manifest []byte) error {
	return nil
}

func (e *Empty) StartRecordingFetch() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.recording {
		return
	}
	e.recording = true
	e.fetched = make(map[string]struct{})
}

func (e *Empty) StopRecordingFetch() map[string]struct{} {
	e.mu.Lock()
	defer e.mu.Unlock()
	fetched := e.fetched
	e.recording = false
	e.fetched = nil
	if fetched == nil {
		return map[string]struct{}{}
	}
	return fetched
}

func (e *Empty) DropAllPendingRequestsFromQueue() int64 {
	return 0
}

func (e *Empty) RepoName() (string, bool) {
	return "", false
}

var _ BackingStore = (*Empty)(nil)
