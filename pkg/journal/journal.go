// Package journal implements the bounded, ordered log of filesystem
// mutations recorded since a mount was opened. Consumers (notably the
// status cache) use Journal.AccumulateRange to decide whether a previously
// computed result is still valid without recomputing it from scratch.
package journal

import (
	"container/list"
	"sync"
	"time"

	"github.com/edenfs-io/edenfs/pkg/model"
	"github.com/edenfs-io/edenfs/pkg/path"
)

// Stats is a point-in-time snapshot of the journal's bookkeeping counters.
type Stats struct {
	EntryCount          uint64
	EarliestTimestamp   time.Time
	LatestTimestamp     time.Time
	MaxFilesAccumulated uint64
}

// deltaState holds everything protected by Journal.mu: the two delta
// deques, the sequence counter, and the memory/stat accounting that moves
// in lockstep with them.
type deltaState struct {
	// fileChangeDeltas and rootUpdateDeltas hold *FileChangeDelta and
	// *RootUpdateDelta respectively, oldest at Front, newest at Back. Each
	// deque is individually ordered by SequenceID; the two are merged by
	// sequence on read (see forEachDeltaLocked) the way the source merges
	// its two std::deques.
	fileChangeDeltas *list.List
	rootUpdateDeltas *list.List

	nextSequence SequenceID
	currentRoot  model.RootId

	memoryLimit      uint64
	deltaMemoryUsage uint64
	stats            *Stats

	// lastModificationHasBeenObserved is cleared whenever a write occurs
	// and a consumer had previously observed the prior state (via GetLatest,
	// AccumulateRange, or ForEachDelta); set back once that consumer's next
	// observation happens. A write only needs to notify subscribers when
	// this transitions true->false, i.e. when someone was actually waiting.
	lastModificationHasBeenObserved bool
}

func newDeltaState(memoryLimit uint64) *deltaState {
	return &deltaState{
		fileChangeDeltas: list.New(),
		rootUpdateDeltas: list.New(),
		nextSequence:     1,
		memoryLimit:      memoryLimit,
	}
}

func (s *deltaState) empty() bool {
	return s.fileChangeDeltas.Len() == 0 && s.rootUpdateDeltas.Len() == 0
}

// frontSequenceID returns the smallest sequence ID present across both
// deques: the oldest delta in the merged order.
func (s *deltaState) frontSequenceID() (SequenceID, bool) {
	fc := s.fileChangeDeltas.Front()
	ru := s.rootUpdateDeltas.Front()
	switch {
	case fc != nil && ru != nil:
		fcSeq := fc.Value.(*FileChangeDelta).SequenceID
		ruSeq := ru.Value.(*RootUpdateDelta).SequenceID
		if fcSeq < ruSeq {
			return fcSeq, true
		}
		return ruSeq, true
	case fc != nil:
		return fc.Value.(*FileChangeDelta).SequenceID, true
	case ru != nil:
		return ru.Value.(*RootUpdateDelta).SequenceID, true
	default:
		return 0, false
	}
}

// frontTime returns the timestamp of the merged-order oldest delta.
func (s *deltaState) frontTime() time.Time {
	fc := s.fileChangeDeltas.Front()
	ru := s.rootUpdateDeltas.Front()
	switch {
	case fc != nil && ru != nil:
		fcD, ruD := fc.Value.(*FileChangeDelta), ru.Value.(*RootUpdateDelta)
		if fcD.SequenceID < ruD.SequenceID {
			return fcD.Time
		}
		return ruD.Time
	case fc != nil:
		return fc.Value.(*FileChangeDelta).Time
	case ru != nil:
		return ru.Value.(*RootUpdateDelta).Time
	default:
		return time.Time{}
	}
}

// popFront removes the merged-order oldest delta, returning its estimated
// memory usage.
func (s *deltaState) popFront() uint64 {
	fc := s.fileChangeDeltas.Front()
	ru := s.rootUpdateDeltas.Front()
	switch {
	case fc != nil && ru != nil:
		if fc.Value.(*FileChangeDelta).SequenceID < ru.Value.(*RootUpdateDelta).SequenceID {
			usage := fc.Value.(*FileChangeDelta).estimateMemoryUsage()
			s.fileChangeDeltas.Remove(fc)
			return usage
		}
		usage := ru.Value.(*RootUpdateDelta).estimateMemoryUsage()
		s.rootUpdateDeltas.Remove(ru)
		return usage
	case fc != nil:
		usage := fc.Value.(*FileChangeDelta).estimateMemoryUsage()
		s.fileChangeDeltas.Remove(fc)
		return usage
	case ru != nil:
		usage := ru.Value.(*RootUpdateDelta).estimateMemoryUsage()
		s.rootUpdateDeltas.Remove(ru)
		return usage
	default:
		return 0
	}
}

// backFileChangeIfGlobalBack returns the back element of fileChangeDeltas
// only if it is also the merged-order newest delta overall (i.e. no
// root-update delta was appended more recently). This is the only shape of
// "back" compaction cares about: a root update never compacts, and a file
// change can only compact against an immediately preceding file change.
func (s *deltaState) backFileChangeIfGlobalBack() *list.Element {
	fc := s.fileChangeDeltas.Back()
	if fc == nil {
		return nil
	}
	ru := s.rootUpdateDeltas.Back()
	if ru == nil {
		return fc
	}
	if fc.Value.(*FileChangeDelta).SequenceID > ru.Value.(*RootUpdateDelta).SequenceID {
		return fc
	}
	return nil
}

const (
	dequeBufferBytes     = 512
	fileChangeElemSize   = 96
	rootUpdateElemSize   = 64
	journalFixedOverhead = 256
	paddingPerBuffer     = 64
)

func paddingFor(n, elemSize int) uint64 {
	perBuf := dequeBufferBytes / elemSize
	if perBuf < 1 {
		perBuf = 1
	}
	bufs := (n + perBuf - 1) / perBuf
	return uint64(bufs) * paddingPerBuffer
}

// estimateMemoryUsage approximates the whole journal's footprint: a fixed
// header, a small padding allowance per underlying deque buffer (the two
// deques hold fixed-capacity chunks internally; this reproduces that
// overhead without depending on a specific allocator), plus the sum of
// each resident delta's own estimate once any delta has ever been
// recorded.
func (s *deltaState) estimateMemoryUsage() uint64 {
	usage := uint64(journalFixedOverhead)
	usage += paddingFor(s.fileChangeDeltas.Len(), fileChangeElemSize)
	usage += paddingFor(s.rootUpdateDeltas.Len(), rootUpdateElemSize)
	if s.stats != nil {
		usage += s.deltaMemoryUsage
	}
	return usage
}

// Journal is the bounded, ordered, compacting log of filesystem deltas for
// one mount.
type Journal struct {
	mu    sync.Mutex
	state *deltaState

	subMu            sync.RWMutex
	subscribers      map[uint64]func()
	nextSubscriberID uint64

	truncatedReads   uint64
	filesAccumulated uint64
}

// New constructs an empty journal with the given initial memory limit (in
// bytes, estimated; see Journal.SetMemoryLimit).
func New(memoryLimit uint64) *Journal {
	return &Journal{
		state:       newDeltaState(memoryLimit),
		subscribers: make(map[uint64]func()),
	}
}

func (j *Journal) truncateIfNecessary() {
	for !j.state.empty() {
		if j.state.estimateMemoryUsage() <= j.state.memoryLimit {
			break
		}
		if j.state.stats != nil && j.state.stats.EntryCount > 0 {
			j.state.stats.EntryCount--
		}
		usage := j.state.popFront()
		if usage <= j.state.deltaMemoryUsage {
			j.state.deltaMemoryUsage -= usage
		} else {
			j.state.deltaMemoryUsage = 0
		}
	}
}

// compactFileChange attempts to merge delta into the current global-back
// delta, per the rule: the back must be a file-change delta, the new delta
// must be a single-path modification (Created/Removed/Changed), and both
// must agree on kind, entry type, and path. On success the back slot is
// overwritten in place (preserving "end state": Info1's ExistedAfter from
// the newest delta, its ExistedBefore from the back delta) and true is
// returned.
func (j *Journal) compactFileChange(delta *FileChangeDelta) bool {
	if !delta.IsModification() {
		return false
	}
	el := j.state.backFileChangeIfGlobalBack()
	if el == nil {
		return false
	}
	back := el.Value.(*FileChangeDelta)
	if !delta.IsSameAction(back) {
		return false
	}

	oldUsage := back.estimateMemoryUsage()
	merged := *delta
	merged.Info1.ExistedBefore = back.Info1.ExistedBefore
	el.Value = &merged

	j.state.deltaMemoryUsage -= oldUsage
	j.state.deltaMemoryUsage += merged.estimateMemoryUsage()
	if j.state.stats != nil {
		j.state.stats.LatestTimestamp = merged.Time
	}
	return true
}

func (j *Journal) ensureStats() {
	if j.state.stats == nil {
		j.state.stats = &Stats{}
	}
}

// addFileChangeDeltaLocked assigns a sequence ID and timestamp, truncates,
// attempts compaction, appends if not compacted, and reports whether
// subscribers should be notified. Caller holds j.mu.
func (j *Journal) addFileChangeDeltaLocked(delta *FileChangeDelta) bool {
	delta.SequenceID = j.state.nextSequence
	j.state.nextSequence++
	delta.Time = time.Now()

	j.truncateIfNecessary()

	if !j.compactFileChange(delta) {
		j.ensureStats()
		j.state.stats.EntryCount++
		j.state.deltaMemoryUsage += delta.estimateMemoryUsage()
		j.state.stats.LatestTimestamp = delta.Time
		j.state.fileChangeDeltas.PushBack(delta)
	}

	j.state.stats.EarliestTimestamp = j.state.frontTime()

	shouldNotify := j.state.lastModificationHasBeenObserved
	j.state.lastModificationHasBeenObserved = false
	return shouldNotify
}

// addRootUpdateDeltaLocked mirrors addFileChangeDeltaLocked for root-update
// deltas, which are never compacted. Caller holds j.mu.
func (j *Journal) addRootUpdateDeltaLocked(delta *RootUpdateDelta) bool {
	delta.SequenceID = j.state.nextSequence
	j.state.nextSequence++
	delta.Time = time.Now()

	j.truncateIfNecessary()

	j.ensureStats()
	j.state.stats.EntryCount++
	j.state.deltaMemoryUsage += delta.estimateMemoryUsage()
	j.state.stats.LatestTimestamp = delta.Time
	j.state.rootUpdateDeltas.PushBack(delta)

	j.state.stats.EarliestTimestamp = j.state.frontTime()

	shouldNotify := j.state.lastModificationHasBeenObserved
	j.state.lastModificationHasBeenObserved = false
	return shouldNotify
}

func (j *Journal) notifySubscribers() {
	j.subMu.RLock()
	callbacks := make([]func(), 0, len(j.subscribers))
	for _, cb := range j.subscribers {
		callbacks = append(callbacks, cb)
	}
	j.subMu.RUnlock()
	for _, cb := range callbacks {
		cb()
	}
}

// RecordCreated records that fileName came into existence.
func (j *Journal) RecordCreated(fileName path.Relative, kind model.EntryKind) {
	j.addDelta(&FileChangeDelta{Kind: Created, Entry: kind, Path1: fileName, Info1: PathChangeInfo{ExistedBefore: false, ExistedAfter: true}})
}

// RecordRemoved records that fileName was deleted.
func (j *Journal) RecordRemoved(fileName path.Relative, kind model.EntryKind) {
	j.addDelta(&FileChangeDelta{Kind: Removed, Entry: kind, Path1: fileName, Info1: PathChangeInfo{ExistedBefore: true, ExistedAfter: false}})
}

// RecordChanged records that fileName's content or metadata changed in
// place.
func (j *Journal) RecordChanged(fileName path.Relative, kind model.EntryKind) {
	j.addDelta(&FileChangeDelta{Kind: Changed, Entry: kind, Path1: fileName, Info1: PathChangeInfo{ExistedBefore: true, ExistedAfter: true}})
}

// RecordRenamed records that oldName was moved to newName via a rename
// that did not overwrite an existing file.
func (j *Journal) RecordRenamed(oldName, newName path.Relative, kind model.EntryKind) {
	j.addDelta(&FileChangeDelta{
		Kind: Renamed, Entry: kind,
		Path1: oldName, Info1: PathChangeInfo{ExistedBefore: true, ExistedAfter: false},
		Path2: newName, Info2: PathChangeInfo{ExistedBefore: false, ExistedAfter: true},
		HasPath2: true,
	})
}

// RecordReplaced records that oldName was moved onto newName, overwriting
// whatever previously occupied newName.
func (j *Journal) RecordReplaced(oldName, newName path.Relative, kind model.EntryKind) {
	j.addDelta(&FileChangeDelta{
		Kind: Replaced, Entry: kind,
		Path1: oldName, Info1: PathChangeInfo{ExistedBefore: true, ExistedAfter: false},
		Path2: newName, Info2: PathChangeInfo{ExistedBefore: true, ExistedAfter: true},
		HasPath2: true,
	})
}

func (j *Journal) addDelta(delta *FileChangeDelta) {
	j.mu.Lock()
	shouldNotify := j.addFileChangeDeltaLocked(delta)
	j.mu.Unlock()
	if shouldNotify {
		j.notifySubscribers()
	}
}

// RecordRootUpdate records a checkout/snapshot transition to toRoot, using
// the journal's current root as the implicit fromRoot.
func (j *Journal) RecordRootUpdate(toRoot model.RootId) {
	j.mu.Lock()
	delta := &RootUpdateDelta{FromRoot: j.state.currentRoot}
	shouldNotify := j.addRootUpdateDeltaLocked(delta)
	j.state.currentRoot = toRoot
	j.mu.Unlock()
	if shouldNotify {
		j.notifySubscribers()
	}
}

// RecordRootUpdateFrom records a transition with an explicit fromRoot,
// as a no-op when fromRoot equals toRoot.
func (j *Journal) RecordRootUpdateFrom(fromRoot, toRoot model.RootId) {
	if fromRoot == toRoot {
		return
	}
	j.mu.Lock()
	delta := &RootUpdateDelta{FromRoot: fromRoot}
	shouldNotify := j.addRootUpdateDeltaLocked(delta)
	j.state.currentRoot = toRoot
	j.mu.Unlock()
	if shouldNotify {
		j.notifySubscribers()
	}
}

// RecordUncleanPaths records a transition along with the set of paths whose
// status could not be determined precisely (e.g. a conflicted checkout). A
// no-op when fromRoot equals toRoot and uncleanPaths is empty.
func (j *Journal) RecordUncleanPaths(fromRoot, toRoot model.RootId, uncleanPaths map[path.Relative]struct{}) {
	if fromRoot == toRoot && len(uncleanPaths) == 0 {
		return
	}
	j.mu.Lock()
	delta := &RootUpdateDelta{FromRoot: fromRoot, UncleanPaths: uncleanPaths}
	shouldNotify := j.addRootUpdateDeltaLocked(delta)
	j.state.currentRoot = toRoot
	j.mu.Unlock()
	if shouldNotify {
		j.notifySubscribers()
	}
}

// Flush discards all deltas and appends a synthetic root-update delta whose
// fromRoot equals the journal's current root (an explicit exception to the
// "no-op when fromRoot == toRoot" rule everywhere else), so that subscribers
// relying on unbroken root continuity see a coherent transition across the
// truncation rather than a gap.
func (j *Journal) Flush() {
	j.mu.Lock()
	j.state.nextSequence++
	lastRoot := j.state.currentRoot
	j.state.fileChangeDeltas.Init()
	j.state.rootUpdateDeltas.Init()
	j.state.stats = nil
	j.state.deltaMemoryUsage = 0

	delta := &RootUpdateDelta{FromRoot: lastRoot}
	shouldNotify := j.addRootUpdateDeltaLocked(delta)
	j.mu.Unlock()
	if shouldNotify {
		j.notifySubscribers()
	}
}

// DeltaInfo describes the most recently recorded delta.
type DeltaInfo struct {
	FromRoot   model.RootId
	ToRoot     model.RootId
	SequenceID SequenceID
	Time       time.Time
}

// GetLatest returns information about the most recently recorded delta, or
// false if the journal is empty.
func (j *Journal) GetLatest() (DeltaInfo, bool) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.state.lastModificationHasBeenObserved = true

	if j.state.empty() {
		return DeltaInfo{}, false
	}

	fc := j.state.fileChangeDeltas.Back()
	ru := j.state.rootUpdateDeltas.Back()
	fileChangeIsBack := ru == nil || (fc != nil && fc.Value.(*FileChangeDelta).SequenceID > ru.Value.(*RootUpdateDelta).SequenceID)

	if fileChangeIsBack {
		back := fc.Value.(*FileChangeDelta)
		return DeltaInfo{FromRoot: j.state.currentRoot, ToRoot: j.state.currentRoot, SequenceID: back.SequenceID, Time: back.Time}, true
	}
	back := ru.Value.(*RootUpdateDelta)
	return DeltaInfo{FromRoot: back.FromRoot, ToRoot: j.state.currentRoot, SequenceID: back.SequenceID, Time: back.Time}, true
}

// RegisterSubscriber registers callback to be invoked, outside any journal
// lock, whenever a write occurs that a prior GetLatest/AccumulateRange/
// ForEachDelta call had been waiting to observe. Returns a subscription ID
// for CancelSubscriber.
func (j *Journal) RegisterSubscriber(callback func()) uint64 {
	j.subMu.Lock()
	defer j.subMu.Unlock()
	id := j.nextSubscriberID
	j.nextSubscriberID++
	j.subscribers[id] = callback
	return id
}

// CancelSubscriber removes a subscription. The callback's own teardown (if
// any) runs after this call returns, never while the subscriber lock is
// held, since some subscribers call CancelSubscriber from their own
// teardown.
func (j *Journal) CancelSubscriber(id uint64) {
	j.subMu.Lock()
	_, ok := j.subscribers[id]
	if ok {
		delete(j.subscribers, id)
	}
	j.subMu.Unlock()
}

// CancelAllSubscribers removes every subscription.
func (j *Journal) CancelAllSubscribers() {
	j.subMu.Lock()
	j.subscribers = make(map[uint64]func())
	j.subMu.Unlock()
}

// IsSubscriberValid reports whether id is still registered.
func (j *Journal) IsSubscriberValid(id uint64) bool {
	j.subMu.RLock()
	defer j.subMu.RUnlock()
	_, ok := j.subscribers[id]
	return ok
}

// GetStats returns a copy of the current stats snapshot, or false if no
// delta has ever been recorded.
func (j *Journal) GetStats() (Stats, bool) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.state.stats == nil {
		return Stats{}, false
	}
	return *j.state.stats, true
}

// SetMemoryLimit adjusts the journal's estimated-byte budget. Does not
// retroactively truncate; the next recorded delta will enforce it.
func (j *Journal) SetMemoryLimit(limit uint64) {
	j.mu.Lock()
	j.state.memoryLimit = limit
	j.mu.Unlock()
}

// GetMemoryLimit returns the journal's current byte budget.
func (j *Journal) GetMemoryLimit() uint64 {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.state.memoryLimit
}

// EstimateMemoryUsage returns the journal's current estimated footprint.
func (j *Journal) EstimateMemoryUsage() uint64 {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.state.estimateMemoryUsage()
}
