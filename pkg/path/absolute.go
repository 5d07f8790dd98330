package path

import (
	"strings"
)

// Absolute is a rooted path. Construction rejects a non-rooted string and a
// trailing separator (other than the root itself, e.g. "/").
type Absolute string

// NewAbsolute parses s into an Absolute path.
func NewAbsolute(s string) (Absolute, error) {
	if containsNUL(s) || s == "" || !isSeparator(s[0]) {
		return "", ErrMalformedPath
	}
	if len(s) > 1 && isSeparator(s[len(s)-1]) {
		return "", ErrMalformedPath
	}

	components := splitComponents(s)
	for _, c := range components {
		if c == "." || c == ".." {
			return "", ErrMalformedPath
		}
		if !isValidComponentString(c) {
			return "", ErrMalformedPath
		}
	}

	if len(components) == 0 {
		return Absolute("/"), nil
	}
	return Absolute("/" + strings.Join(components, "/")), nil
}

// String returns the canonical string form.
func (p Absolute) String() string {
	return string(p)
}

// Dirname returns the parent directory of p. The parent of the root is the
// root itself.
func (p Absolute) Dirname() Absolute {
	s := string(p)
	if s == "/" {
		return p
	}
	idx := strings.LastIndexByte(s, '/')
	if idx <= 0 {
		return Absolute("/")
	}
	return Absolute(s[:idx])
}

// Basename returns the final component of p, or "" if p is the root.
func (p Absolute) Basename() Component {
	s := string(p)
	if s == "/" {
		return ""
	}
	idx := strings.LastIndexByte(s, '/')
	return Component(s[idx+1:])
}

// Join appends a relative path to an absolute one.
func (p Absolute) Join(child Relative) Absolute {
	if child.IsRoot() {
		return p
	}
	if p == "/" {
		return Absolute("/" + string(child))
	}
	return Absolute(string(p) + "/" + string(child))
}

// Equal performs a byte-exact comparison.
func (p Absolute) Equal(other Absolute) bool {
	return p == other
}

// EqualFold performs a case-insensitive comparison.
func (p Absolute) EqualFold(other Absolute) bool {
	return strings.EqualFold(string(p), string(other))
}
