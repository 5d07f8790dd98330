package journal

import (
	"time"

	"github.com/edenfs-io/edenfs/pkg/model"
	"github.com/edenfs-io/edenfs/pkg/path"
)

// SequenceID is a journal-wide, strictly monotonically increasing delta
// identifier.
type SequenceID uint64

// ChangeKind describes what kind of file-system event a FileChangeDelta
// records.
type ChangeKind uint8

const (
	Created ChangeKind = iota
	Removed
	Changed
	Renamed
	Replaced
)

func (k ChangeKind) String() string {
	switch k {
	case Created:
		return "Created"
	case Removed:
		return "Removed"
	case Changed:
		return "Changed"
	case Renamed:
		return "Renamed"
	case Replaced:
		return "Replaced"
	default:
		return "Unknown"
	}
}

// PathChangeInfo records whether a path existed at the start and end of the
// delta that mentions it.
type PathChangeInfo struct {
	ExistedBefore bool
	ExistedAfter  bool
}

// IsNew reports whether the path came into existence during this delta.
func (p PathChangeInfo) IsNew() bool {
	return !p.ExistedBefore && p.ExistedAfter
}

// FileChangeDelta is a journal entry describing a change to one or two
// paths. Path2/Info2 are only meaningful for Renamed and Replaced.
type FileChangeDelta struct {
	SequenceID SequenceID
	Time       time.Time

	Kind  ChangeKind
	Entry model.EntryKind

	Path1 path.Relative
	Info1 PathChangeInfo

	Path2    path.Relative
	Info2    PathChangeInfo
	HasPath2 bool
}

// IsModification reports whether the delta is a single-path change eligible
// for compaction against an immediately preceding delta on the same path.
// Renamed and Replaced touch two paths and are never compacted.
func (d *FileChangeDelta) IsModification() bool {
	switch d.Kind {
	case Created, Removed, Changed:
		return true
	default:
		return false
	}
}

// IsSameAction reports whether d and other represent the same action
// (kind, entry type, and path), disregarding time and sequence ID. Two
// deltas satisfying this may be compacted into one.
func (d *FileChangeDelta) IsSameAction(other *FileChangeDelta) bool {
	return d.Kind == other.Kind && d.Entry == other.Entry && d.Path1.Equal(other.Path1)
}

// ChangedFilesInOverlay returns the set of paths this delta touches, with
// the PathChangeInfo describing each.
func (d *FileChangeDelta) ChangedFilesInOverlay() map[path.Relative]PathChangeInfo {
	out := map[path.Relative]PathChangeInfo{d.Path1: d.Info1}
	if d.HasPath2 {
		out[d.Path2] = d.Info2
	}
	return out
}

// estimateMemoryUsage approximates the delta's in-memory footprint: both
// paths' lengths plus a fixed per-record overhead for the fields around
// them.
func (d *FileChangeDelta) estimateMemoryUsage() uint64 {
	size := uint64(64) + uint64(len(d.Path1.String()))
	if d.HasPath2 {
		size += uint64(len(d.Path2.String()))
	}
	return size
}

// RootUpdateDelta is a journal entry describing a checkout/snapshot
// transition: the root moves from fromRoot to whatever the journal's
// currentRoot becomes as a result of recording this delta.
type RootUpdateDelta struct {
	SequenceID SequenceID
	Time       time.Time

	FromRoot     model.RootId
	UncleanPaths map[path.Relative]struct{}
}

func (d *RootUpdateDelta) estimateMemoryUsage() uint64 {
	size := uint64(48) + uint64(len(d.FromRoot))
	for p := range d.UncleanPaths {
		size += uint64(len(p.String()))
	}
	return size
}
