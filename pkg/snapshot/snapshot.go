// Package snapshot reads and writes the SNAPSHOT checkpoint file: a small,
// versioned binary record of a mount's working-copy parent, checked-out
// revision, and any in-progress checkout transition.
package snapshot

import (
	"encoding/binary"
	"fmt"
	"os"

	"github.com/edenfs-io/edenfs/pkg/edenerr"
	"github.com/edenfs-io/edenfs/pkg/filesystem"
	"github.com/edenfs-io/edenfs/pkg/logging"
	"github.com/edenfs-io/edenfs/pkg/model"
)

var logger = logging.RootLogger.Sublogger("snapshot")

const (
	magic      = "eden"
	headerSize = 8 // 4-byte magic + 4-byte big-endian version

	versionLegacyHash       uint32 = 1
	versionLegacyLengthTag  uint32 = 2
	versionCheckoutProgress uint32 = 3
	versionWorkingCopyState uint32 = 4

	hash20Size = 20

	// filePermissions matches the permissions the teacher uses for its own
	// atomically-written session state files.
	filePermissions os.FileMode = 0o644
)

// WorkingCopyParentAndCheckedOutRevision is the steady-state snapshot: no
// checkout is in progress. Parent and CheckedOut are equal immediately
// after a checkout and diverge only if the working copy parent is reset
// independently (e.g. by `hg update --merge` bookkeeping).
type WorkingCopyParentAndCheckedOutRevision struct {
	Parent     model.RootId
	CheckedOut model.RootId
}

// CheckoutInProgress is the snapshot observed mid-checkout.
type CheckoutInProgress struct {
	From model.RootId
	To   model.RootId
	Pid  int32
}

// ParentCommit is the result of ReadParentCommit: exactly one of the two
// fields is non-nil.
type ParentCommit struct {
	Steady      *WorkingCopyParentAndCheckedOutRevision
	InProgress  *CheckoutInProgress
}

func corrupt(reason string) error {
	return &edenerr.Corrupt{Reason: reason}
}

// ReadParentCommit parses the SNAPSHOT file at path.
func ReadParentCommit(path string) (ParentCommit, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return ParentCommit{}, &edenerr.IOFailure{Err: err}
	}
	return parseParentCommit(data)
}

func parseParentCommit(data []byte) (ParentCommit, error) {
	if len(data) < headerSize {
		return ParentCommit{}, corrupt(fmt.Sprintf("SNAPSHOT file too short (%d bytes)", len(data)))
	}
	if string(data[:4]) != magic {
		return ParentCommit{}, corrupt("bad SNAPSHOT magic")
	}
	version := binary.BigEndian.Uint32(data[4:8])
	body := data[8:]

	switch version {
	case versionLegacyHash:
		if len(body) != hash20Size && len(body) != hash20Size*2 {
			return ParentCommit{}, corrupt(fmt.Sprintf("unexpected length for v1 SNAPSHOT file (%d bytes)", len(data)))
		}
		root := model.RootId(fmt.Sprintf("%x", body[:hash20Size]))
		return ParentCommit{Steady: &WorkingCopyParentAndCheckedOutRevision{Parent: root, CheckedOut: root}}, nil

	case versionLegacyLengthTag:
		root, _, err := readLengthPrefixed(body)
		if err != nil {
			return ParentCommit{}, err
		}
		return ParentCommit{Steady: &WorkingCopyParentAndCheckedOutRevision{Parent: model.RootId(root), CheckedOut: model.RootId(root)}}, nil

	case versionCheckoutProgress:
		if len(body) < 4 {
			return ParentCommit{}, corrupt("truncated v3 SNAPSHOT file")
		}
		pid := int32(binary.BigEndian.Uint32(body[:4]))
		rest := body[4:]
		from, rest, err := readLengthPrefixed(rest)
		if err != nil {
			return ParentCommit{}, err
		}
		to, _, err := readLengthPrefixed(rest)
		if err != nil {
			return ParentCommit{}, err
		}
		return ParentCommit{InProgress: &CheckoutInProgress{From: model.RootId(from), To: model.RootId(to), Pid: pid}}, nil

	case versionWorkingCopyState:
		parent, rest, err := readLengthPrefixed(body)
		if err != nil {
			return ParentCommit{}, err
		}
		checkedOut, _, err := readLengthPrefixed(rest)
		if err != nil {
			return ParentCommit{}, err
		}
		return ParentCommit{Steady: &WorkingCopyParentAndCheckedOutRevision{
			Parent:     model.RootId(parent),
			CheckedOut: model.RootId(checkedOut),
		}}, nil

	default:
		return ParentCommit{}, corrupt(fmt.Sprintf("unsupported SNAPSHOT file format (version %d)", version))
	}
}

// readLengthPrefixed reads a u32 big-endian length followed by that many
// bytes, returning the string, the remaining bytes, and an error if the
// length overflows what's available.
func readLengthPrefixed(data []byte) (string, []byte, error) {
	if len(data) < 4 {
		return "", nil, corrupt("truncated length prefix in SNAPSHOT file")
	}
	length := binary.BigEndian.Uint32(data[:4])
	data = data[4:]
	if uint64(length) > uint64(len(data)) {
		return "", nil, corrupt(fmt.Sprintf("SNAPSHOT length prefix %d exceeds remaining %d bytes", length, len(data)))
	}
	return string(data[:length]), data[length:], nil
}

func appendLengthPrefixed(buf []byte, s string) []byte {
	var lengthBytes [4]byte
	binary.BigEndian.PutUint32(lengthBytes[:], uint32(len(s)))
	buf = append(buf, lengthBytes[:]...)
	buf = append(buf, s...)
	return buf
}

func writeVersion4(path string, workingCopyParent, checkedOut model.RootId) error {
	buf := make([]byte, 0, headerSize+8+len(workingCopyParent)+len(checkedOut))
	buf = append(buf, magic...)
	var versionBytes [4]byte
	binary.BigEndian.PutUint32(versionBytes[:], versionWorkingCopyState)
	buf = append(buf, versionBytes[:]...)
	buf = appendLengthPrefixed(buf, string(workingCopyParent))
	buf = appendLengthPrefixed(buf, string(checkedOut))
	return filesystem.WriteFileAtomic(path, buf, filePermissions, logger)
}

// SetCheckedOutCommit records that a checkout just completed: both the
// working copy parent and the checked-out revision become commit.
func SetCheckedOutCommit(path string, commit model.RootId) error {
	return writeVersion4(path, commit, commit)
}

// SetWorkingCopyParent updates only the working copy parent, preserving
// whatever revision is currently recorded as checked out.
func SetWorkingCopyParent(path string, commit model.RootId) error {
	parentCommit, err := ReadParentCommit(path)
	if err != nil {
		return err
	}
	if parentCommit.Steady == nil {
		return corrupt("cannot set working copy parent while a checkout is in progress")
	}
	return writeVersion4(path, commit, parentCommit.Steady.CheckedOut)
}

// SetCheckoutInProgress records that a checkout transition from `from` to
// `to` has begun, tagged with the current process ID.
func SetCheckoutInProgress(path string, from, to model.RootId) error {
	pid := os.Getpid()
	buf := make([]byte, 0, headerSize+12+len(from)+len(to))
	buf = append(buf, magic...)
	var versionBytes [4]byte
	binary.BigEndian.PutUint32(versionBytes[:], versionCheckoutProgress)
	buf = append(buf, versionBytes[:]...)
	var pidBytes [4]byte
	binary.BigEndian.PutUint32(pidBytes[:], uint32(pid))
	buf = append(buf, pidBytes[:]...)
	buf = appendLengthPrefixed(buf, string(from))
	buf = appendLengthPrefixed(buf, string(to))
	return filesystem.WriteFileAtomic(path, buf, filePermissions, logger)
}
