package journal

import (
	"container/list"
	"fmt"
	"time"

	"github.com/edenfs-io/edenfs/pkg/logging"
	"github.com/edenfs-io/edenfs/pkg/model"
	"github.com/edenfs-io/edenfs/pkg/path"
)

var logger = logging.RootLogger.Sublogger("journal")

// Range is the accumulated view of every delta recorded in
// (fromSequence-1, toSequence], as produced by Journal.AccumulateRange.
type Range struct {
	FromSequence SequenceID
	ToSequence   SequenceID
	FromTime     time.Time
	ToTime       time.Time

	// SnapshotTransitions lists the roots visited across the range, oldest
	// first: the root the range started on, then one entry per root-update
	// delta encountered. A range with no root update has exactly one entry.
	SnapshotTransitions []model.RootId

	// ChangedFilesInOverlay merges every touched path's PathChangeInfo
	// across the range: a path's ExistedAfter comes from the newest delta
	// that touched it, its ExistedBefore from the oldest.
	ChangedFilesInOverlay map[path.Relative]PathChangeInfo
	UncleanPaths          map[path.Relative]struct{}

	IsTruncated           bool
	ContainsHgOnlyChanges bool
	ContainsRootUpdate    bool
}

const hgDirectoryComponent = ".hg"

func isHgOnlyPath(p path.Relative) bool {
	components := p.Components()
	if len(components) == 0 {
		return false
	}
	return components[0].String() == hgDirectoryComponent
}

// AccumulateRange walks every delta with SequenceID >= from, newest to
// oldest, merging them into a single Range. If the journal's oldest
// resident delta is newer than from, the caller missed deltas that have
// already been dropped; the result carries IsTruncated = true and is
// otherwise empty, mirroring the zero-initialized range the source returns
// in that case (ContainsHgOnlyChanges defaults true there too — it is
// simply never meaningfully set).
func (j *Journal) AccumulateRange(from SequenceID) *Range {
	j.mu.Lock()
	defer func() {
		j.state.lastModificationHasBeenObserved = true
		j.mu.Unlock()
	}()

	if !j.state.empty() {
		if front, ok := j.state.frontSequenceID(); ok && front > from {
			j.truncatedReads++
			return &Range{IsTruncated: true, ContainsHgOnlyChanges: true}
		}
	}

	var result *Range
	filesAccumulated := 0
	currentRoot := j.state.currentRoot

	forEachDeltaLocked(j.state, from, nil,
		func(current *FileChangeDelta) bool {
			filesAccumulated++
			if result == nil {
				result = newRange(current.SequenceID, current.Time, currentRoot)
			}
			result.FromSequence = current.SequenceID
			result.FromTime = current.Time

			for name, info := range current.ChangedFilesInOverlay() {
				if result.ContainsHgOnlyChanges && !isHgOnlyPath(name) {
					result.ContainsHgOnlyChanges = false
				}
				if existing, ok := result.ChangedFilesInOverlay[name]; ok {
					if existing.ExistedBefore != info.ExistedAfter {
						logger.Warn(fmt.Errorf("journal range merge inconsistency for %q: newer delta's existedBefore (%v) disagrees with older delta's existedAfter (%v)", name, existing.ExistedBefore, info.ExistedAfter))
					}
					existing.ExistedBefore = info.ExistedBefore
					result.ChangedFilesInOverlay[name] = existing
				} else {
					result.ChangedFilesInOverlay[name] = info
				}
			}
			return true
		},
		func(current *RootUpdateDelta) bool {
			if result == nil {
				result = newRange(current.SequenceID, current.Time, currentRoot)
			}
			result.FromSequence = current.SequenceID
			result.FromTime = current.Time
			result.SnapshotTransitions = append(result.SnapshotTransitions, current.FromRoot)

			for p := range current.UncleanPaths {
				result.UncleanPaths[p] = struct{}{}
			}
			return true
		},
	)

	if result != nil {
		if result.IsTruncated {
			j.truncatedReads++
		}
		j.filesAccumulated += uint64(filesAccumulated)
		if j.state.stats != nil && uint64(filesAccumulated) > j.state.stats.MaxFilesAccumulated {
			j.state.stats.MaxFilesAccumulated = uint64(filesAccumulated)
		}

		for i, k := 0, len(result.SnapshotTransitions)-1; i < k; i, k = i+1, k-1 {
			result.SnapshotTransitions[i], result.SnapshotTransitions[k] = result.SnapshotTransitions[k], result.SnapshotTransitions[i]
		}
		result.ContainsRootUpdate = len(result.SnapshotTransitions) > 1
	}

	return result
}

func newRange(toSeq SequenceID, toTime time.Time, currentRoot model.RootId) *Range {
	return &Range{
		ToSequence:            toSeq,
		ToTime:                toTime,
		SnapshotTransitions:   []model.RootId{currentRoot},
		ChangedFilesInOverlay: make(map[path.Relative]PathChangeInfo),
		UncleanPaths:          make(map[path.Relative]struct{}),
		ContainsHgOnlyChanges: true,
	}
}

// ForEachDelta walks every delta with SequenceID >= from, newest to oldest,
// invoking fileCb or rootCb as appropriate; a callback returning false stops
// the walk early. lengthLimit, if non-nil, caps the number of deltas
// visited. Returns true if from precedes the oldest resident delta (the
// walk is then skipped entirely, signaling truncation to the caller).
func (j *Journal) ForEachDelta(from SequenceID, lengthLimit *int, fileCb func(*FileChangeDelta) bool, rootCb func(*RootUpdateDelta) bool) bool {
	j.mu.Lock()
	defer func() {
		j.state.lastModificationHasBeenObserved = true
		j.mu.Unlock()
	}()

	if !j.state.empty() {
		if front, ok := j.state.frontSequenceID(); ok && front > from {
			return true
		}
	}
	forEachDeltaLocked(j.state, from, lengthLimit, fileCb, rootCb)
	return false
}

// forEachDeltaLocked merges the two deques by walking both simultaneously
// from their backs (newest) toward their fronts (oldest), at each step
// consuming whichever side currently holds the larger sequence ID. Caller
// holds the journal's mutex.
func forEachDeltaLocked(state *deltaState, from SequenceID, lengthLimit *int, fileCb func(*FileChangeDelta) bool, rootCb func(*RootUpdateDelta) bool) {
	fileElem := state.fileChangeDeltas.Back()
	rootElem := state.rootUpdateDeltas.Back()
	iters := 0

	for fileElem != nil || rootElem != nil {
		isFileChange := rootElem == nil
		if fileElem != nil && rootElem != nil {
			isFileChange = fileElem.Value.(*FileChangeDelta).SequenceID > rootElem.Value.(*RootUpdateDelta).SequenceID
		}

		var seq SequenceID
		if isFileChange {
			seq = fileElem.Value.(*FileChangeDelta).SequenceID
		} else {
			seq = rootElem.Value.(*RootUpdateDelta).SequenceID
		}
		if seq < from {
			break
		}
		if lengthLimit != nil && iters >= *lengthLimit {
			break
		}

		var cont bool
		var next *list.Element
		if isFileChange {
			cont = fileCb(fileElem.Value.(*FileChangeDelta))
			next = fileElem.Prev()
			fileElem = next
		} else {
			cont = rootCb(rootElem.Value.(*RootUpdateDelta))
			next = rootElem.Prev()
			rootElem = next
		}
		iters++
		if !cont {
			break
		}
	}
}
