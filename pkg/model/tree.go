package model

import (
	"sort"
	"strings"

	"github.com/edenfs-io/edenfs/pkg/path"
)

// CaseSensitivity selects how a Tree's entries are ordered and compared. It
// is a per-mount policy, not a per-tree one, but trees are tagged with it so
// that ordering decisions made at parse time remain self-describing.
type CaseSensitivity bool

const (
	// CaseSensitive orders and compares entry names byte-exactly.
	CaseSensitive CaseSensitivity = true
	// CaseInsensitive orders and compares entry names ignoring case.
	CaseInsensitive CaseSensitivity = false
)

// EntryKind describes the kind of object a TreeEntry refers to.
type EntryKind uint8

const (
	EntryKindTree EntryKind = iota
	EntryKindRegularFile
	EntryKindExecutableFile
	EntryKindSymlink
)

// String renders the entry kind for logging and debug output.
func (k EntryKind) String() string {
	switch k {
	case EntryKindTree:
		return "tree"
	case EntryKindRegularFile:
		return "regular"
	case EntryKindExecutableFile:
		return "executable"
	case EntryKindSymlink:
		return "symlink"
	default:
		return "unknown"
	}
}

// TreeEntry is one row of a directory listing.
type TreeEntry struct {
	Name Component
	ID   ObjectId
	Kind EntryKind
}

// Component is re-exported here (rather than forcing every caller of model
// to also import path) as the key type trees are indexed by.
type Component = path.Component

// Tree is an immutable directory listing, ordered according to its declared
// case-sensitivity.
type Tree struct {
	ID              ObjectId
	CaseSensitivity CaseSensitivity
	entries         map[Component]TreeEntry
	order           []Component
}

// NewTree builds a Tree from an unordered set of entries, computing and
// caching the case-sensitivity-respecting order once up front.
func NewTree(id ObjectId, caseSensitivity CaseSensitivity, entries []TreeEntry) *Tree {
	byName := make(map[Component]TreeEntry, len(entries))
	order := make([]Component, 0, len(entries))
	for _, e := range entries {
		byName[e.Name] = e
		order = append(order, e.Name)
	}

	if caseSensitivity == CaseSensitive {
		sort.Slice(order, func(i, j int) bool {
			return order[i] < order[j]
		})
	} else {
		sort.Slice(order, func(i, j int) bool {
			foldedI, foldedJ := strings.ToLower(string(order[i])), strings.ToLower(string(order[j]))
			if foldedI != foldedJ {
				return foldedI < foldedJ
			}
			return order[i] < order[j]
		})
	}

	return &Tree{
		ID:              id,
		CaseSensitivity: caseSensitivity,
		entries:         byName,
		order:           order,
	}
}

// Len returns the number of entries in the tree.
func (t *Tree) Len() int {
	return len(t.order)
}

// Get looks up an entry by name, respecting the tree's case-sensitivity.
func (t *Tree) Get(name Component) (TreeEntry, bool) {
	if t.CaseSensitivity == CaseSensitive {
		e, ok := t.entries[name]
		return e, ok
	}
	for _, n := range t.order {
		if n.EqualFold(name) {
			return t.entries[n], true
		}
	}
	return TreeEntry{}, false
}

// Entries returns the tree's entries in their declared order.
func (t *Tree) Entries() []TreeEntry {
	result := make([]TreeEntry, len(t.order))
	for i, name := range t.order {
		result[i] = t.entries[name]
	}
	return result
}

// SizeBytes estimates the in-memory footprint of the tree, used by the
// object cache's size accounting.
func (t *Tree) SizeBytes() uint64 {
	var total uint64 = 64
	for name, e := range t.entries {
		total += uint64(len(name)) + uint64(len(e.ID)) + 16
	}
	return total
}

// Key returns the tree's ObjectId, satisfying the object cache's keyed-value
// contract.
func (t *Tree) Key() ObjectId {
	return t.ID
}
