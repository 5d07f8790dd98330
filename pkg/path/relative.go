package path

import (
	"strings"
)

// Relative is a possibly-empty sequence of path components, relative to some
// root (a mount root or a tree). The empty Relative path ("") denotes the
// root itself.
type Relative string

// Root is the empty relative path, denoting the synchronization root.
const Root Relative = ""

// NewRelative parses s into a Relative path, normalizing "." segments away
// and rejecting ".." segments that would climb above the root. Both '/' and
// '\\' are accepted as separators; the canonical rendered form always uses
// '/'.
func NewRelative(s string) (Relative, error) {
	if containsNUL(s) {
		return "", ErrMalformedPath
	}

	raw := splitComponents(s)
	components := make([]string, 0, len(raw))
	for _, c := range raw {
		switch c {
		case ".":
			continue
		case "..":
			if len(components) == 0 {
				return "", ErrMalformedPath
			}
			components = components[:len(components)-1]
		default:
			if !isValidComponentString(c) {
				return "", ErrMalformedPath
			}
			components = append(components, c)
		}
	}

	return Relative(strings.Join(components, "/")), nil
}

// String returns the canonical ('/'-separated) string form.
func (p Relative) String() string {
	return string(p)
}

// IsRoot reports whether p is the empty (root) relative path.
func (p Relative) IsRoot() bool {
	return p == Root
}

// Components returns the path's components in order, front to back. For the
// root path this returns an empty, non-nil slice.
func (p Relative) Components() []Component {
	if p.IsRoot() {
		return []Component{}
	}
	raw := strings.Split(string(p), "/")
	result := make([]Component, len(raw))
	for i, c := range raw {
		result[i] = Component(c)
	}
	return result
}

// RComponents returns the path's components in reverse order, back to front.
// It yields exactly the same (non-empty) set of components as Components,
// reversed.
func (p Relative) RComponents() []Component {
	forward := p.Components()
	reversed := make([]Component, len(forward))
	for i, c := range forward {
		reversed[len(forward)-1-i] = c
	}
	return reversed
}

// Dirname returns the parent of p. The parent of the root is the root.
func (p Relative) Dirname() Relative {
	if p.IsRoot() {
		return Root
	}
	s := string(p)
	if idx := strings.LastIndexByte(s, '/'); idx >= 0 {
		return Relative(s[:idx])
	}
	return Root
}

// Basename returns the final component of p, or "" if p is the root.
func (p Relative) Basename() Component {
	if p.IsRoot() {
		return ""
	}
	s := string(p)
	if idx := strings.LastIndexByte(s, '/'); idx >= 0 {
		return Component(s[idx+1:])
	}
	return Component(s)
}

// Suffixes returns, for each component boundary starting from the front, the
// remaining suffix path. For "a/b/c" this yields ["a/b/c", "b/c", "c"].
func (p Relative) Suffixes() []Relative {
	if p.IsRoot() {
		return []Relative{}
	}
	s := string(p)
	var result []Relative
	for {
		result = append(result, Relative(s))
		idx := strings.IndexByte(s, '/')
		if idx < 0 {
			break
		}
		s = s[idx+1:]
	}
	return result
}

// RSuffixes returns Suffixes in reverse order: shortest (final component)
// first, full path last.
func (p Relative) RSuffixes() []Relative {
	forward := p.Suffixes()
	reversed := make([]Relative, len(forward))
	for i, s := range forward {
		reversed[len(forward)-1-i] = s
	}
	return reversed
}

// Join appends child (a single component, or a relative subpath) to p.
func Join(parent Relative, child Relative) Relative {
	if parent.IsRoot() {
		return child
	}
	if child.IsRoot() {
		return parent
	}
	return Relative(string(parent) + "/" + string(child))
}

// JoinComponent appends a single component to p.
func (p Relative) JoinComponent(c Component) Relative {
	return Join(p, Relative(c))
}

// IsParentDirOf reports whether p is a (possibly indirect) parent directory
// of other. A path is never its own parent.
func (p Relative) IsParentDirOf(other Relative) bool {
	return other.IsSubDirOf(p)
}

// IsSubDirOf reports whether p is a (possibly indirect) descendant of
// parent. A path is never its own subdirectory.
func (p Relative) IsSubDirOf(parent Relative) bool {
	if parent.IsRoot() {
		return !p.IsRoot()
	}
	s, prefix := string(p), string(parent)
	if len(s) <= len(prefix) || !strings.HasPrefix(s, prefix) {
		return false
	}
	return s[len(prefix)] == '/'
}

// Equal performs a byte-exact comparison.
func (p Relative) Equal(other Relative) bool {
	return p == other
}

// EqualFold performs a case-insensitive comparison.
func (p Relative) EqualFold(other Relative) bool {
	return strings.EqualFold(string(p), string(other))
}

// Less orders two relative paths by depth-first traversal order: all entries
// of a directory sort before the entries of directories that follow it
// lexically. This matches the ordering Tree entries are required to respect.
func Less(first, second Relative) bool {
	a, b := string(first), string(second)
	if a == b {
		return false
	} else if a == "" {
		return true
	} else if b == "" {
		return false
	}
	for {
		aIdx := strings.IndexByte(a, '/')
		bIdx := strings.IndexByte(b, '/')
		var aHead, bHead string
		if aIdx == -1 {
			aHead = a
		} else {
			aHead = a[:aIdx]
		}
		if bIdx == -1 {
			bHead = b
		} else {
			bHead = b[:bIdx]
		}
		if aHead < bHead {
			return true
		} else if bHead < aHead {
			return false
		}
		if aIdx == -1 {
			return true
		} else if bIdx == -1 {
			return false
		}
		a, b = a[aIdx+1:], b[bIdx+1:]
	}
}
