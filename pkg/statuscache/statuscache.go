// Package statuscache implements the promise-deduplicated status result
// cache: concurrent requests for "what changed between this commit and the
// working copy" for the same (commit, listIgnored) key share one
// computation, and a cached result is reused across calls whose journal
// sequence number hasn't advanced past anything but .hg-internal noise.
package statuscache

import (
	"context"
	"fmt"
	"sync"

	"github.com/edenfs-io/edenfs/pkg/journal"
	"github.com/edenfs-io/edenfs/pkg/model"
)

// Key encodes a (commit, listIgnored) pair as a single ObjectId, the way
// the core's other caches are keyed.
func Key(commit model.RootId, listIgnored bool) model.ObjectId {
	return model.ObjectId(fmt.Sprintf("%s\x00%t", commit, listIgnored))
}

// entry is the internal-cache value: a status result paired with the
// journal sequence it was computed at.
type entry[T any] struct {
	seq    journal.SequenceID
	status T
}

// sharedPromise is a single in-flight computation that every deduplicated
// caller waits on. Exactly one caller — the one who received it from Get as
// a Promise — is responsible for calling Resolve.
type sharedPromise[T any] struct {
	seq  journal.SequenceID
	done chan struct{}
	once sync.Once

	mu    sync.Mutex
	value T
	err   error
}

func newSharedPromise[T any](seq journal.SequenceID) *sharedPromise[T] {
	return &sharedPromise[T]{seq: seq, done: make(chan struct{})}
}

// Resolve fulfills the promise. Only the first call has effect.
func (p *sharedPromise[T]) Resolve(value T, err error) {
	p.once.Do(func() {
		p.mu.Lock()
		p.value, p.err = value, err
		p.mu.Unlock()
		close(p.done)
	})
}

// Wait blocks until the promise is resolved or ctx is done.
func (p *sharedPromise[T]) Wait(ctx context.Context) (T, error) {
	select {
	case <-p.done:
		p.mu.Lock()
		defer p.mu.Unlock()
		return p.value, p.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// Future is what Get returns when an existing or in-flight result can be
// reused: the caller should Wait on it rather than compute a new result.
type Future[T any] struct {
	promise *sharedPromise[T]
	ready   bool
	value   T
	err     error
}

// Wait blocks until the result is available.
func (f *Future[T]) Wait(ctx context.Context) (T, error) {
	if f.ready {
		return f.value, f.err
	}
	return f.promise.Wait(ctx)
}

// Promise is what Get returns when the caller is responsible for computing
// the result themselves, then calling Insert and DropPromise.
type Promise[T any] struct {
	cache *StatusCache[T]
	key   model.ObjectId
	seq   journal.SequenceID
	inner *sharedPromise[T]
}

// Fulfill resolves the shared promise for every other deduplicated waiter,
// inserts the result into the cache if it's still the newest one seen, and
// removes this promise from the promise map.
func (p *Promise[T]) Fulfill(status T, err error) {
	p.inner.Resolve(status, err)
	if err == nil {
		p.cache.Insert(p.key, p.seq, status)
	}
	p.cache.DropPromise(p.key, p.seq)
}

// StatusCache is the promise-deduplicated cache described in §4.I.
type StatusCache[T any] struct {
	journal *journal.Journal

	mu                      sync.Mutex
	internal                map[model.ObjectId]*entry[T]
	promises                map[model.ObjectId]*sharedPromise[T]
	cachedWorkingCopyParent model.RootId
	hasWorkingCopyParent    bool
}

// New constructs an empty StatusCache backed by j for sequence validation.
func New[T any](j *journal.Journal) *StatusCache[T] {
	return &StatusCache[T]{
		journal:  j,
		internal: make(map[model.ObjectId]*entry[T]),
		promises: make(map[model.ObjectId]*sharedPromise[T]),
	}
}

// Get returns either a ready-to-wait-on Future (reusing an existing or
// in-flight result) or a Promise the caller must compute and fulfill.
// Exactly one of the two return values is non-nil.
func (c *StatusCache[T]) Get(key model.ObjectId, curSeq journal.SequenceID) (*Future[T], *Promise[T]) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.internal[key]; ok && c.isSequenceValidLocked(curSeq, e.seq) {
		e.seq = curSeq
		return &Future[T]{ready: true, value: e.status}, nil
	}

	if p, ok := c.promises[key]; ok && c.isSequenceValidLocked(curSeq, p.seq) {
		if curSeq > p.seq {
			p.seq = curSeq
		}
		return &Future[T]{promise: p}, nil
	}

	promise := newSharedPromise[T](curSeq)
	c.promises[key] = promise
	return nil, &Promise[T]{cache: c, key: key, seq: curSeq, inner: promise}
}

// isSequenceValid reports whether a result cached/promised at cachedSeq may
// be reused by a caller currently at curSeq. Trivially true if cached is at
// least as new; otherwise only true if every delta in (cached, cur] is
// .hg-only and contains no root update.
func (c *StatusCache[T]) isSequenceValidLocked(cur, cached journal.SequenceID) bool {
	if cached >= cur {
		return true
	}
	r := c.journal.AccumulateRange(cached + 1)
	if r == nil {
		return true
	}
	return !r.IsTruncated && r.ContainsHgOnlyChanges && !r.ContainsRootUpdate
}

// Insert replaces the cached entry for key if absent or if seq is newer
// than what's already cached; otherwise a no-op.
func (c *StatusCache[T]) Insert(key model.ObjectId, seq journal.SequenceID, status T) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.internal[key]; ok && e.seq >= seq {
		return
	}
	c.internal[key] = &entry[T]{seq: seq, status: status}
}

// DropPromise removes the promise for key only if its sequence still
// matches seq, preventing a late dropper from discarding a newer promise a
// concurrent request has since installed.
func (c *StatusCache[T]) DropPromise(key model.ObjectId, seq journal.SequenceID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if p, ok := c.promises[key]; ok && p.seq == seq {
		delete(c.promises, key)
	}
}

// Clear empties both the internal cache and the promise map.
func (c *StatusCache[T]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.internal = make(map[model.ObjectId]*entry[T])
	c.promises = make(map[model.ObjectId]*sharedPromise[T])
}

// IsCachedWorkingDirValid reports whether the cache's recorded working copy
// parent matches cur. Resolves the Open Question in spec §9: a status
// cache is only trustworthy if the working directory it was computed
// against still matches, independent of sequence validity.
func (c *StatusCache[T]) IsCachedWorkingDirValid(cur model.RootId) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hasWorkingCopyParent && c.cachedWorkingCopyParent == cur
}

// ResetCachedWorkingDir records cur as the working copy parent this cache
// is valid against. Called with the zero RootId, it simply marks the cache
// as having no known-valid working directory.
func (c *StatusCache[T]) ResetCachedWorkingDir(cur model.RootId) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cachedWorkingCopyParent = cur
	c.hasWorkingCopyParent = cur != ""
}
