package path

import (
	"errors"
	"strings"
)

// ErrMalformedPath indicates that path construction was given a string that
// cannot represent a valid component, relative path, or absolute path.
var ErrMalformedPath = errors.New("malformed path")

// isSeparator reports whether r is a path separator. Both '/' and '\\' are
// accepted during parsing; comparisons never distinguish which separator was
// used to construct a value; see separators_posix.go / separators_windows.go
// for the platform-specific canonical separator used when rendering.
func isSeparator(r byte) bool {
	return r == '/' || r == '\\'
}

// containsNUL reports whether s contains an embedded NUL byte, which is
// disallowed in every path type defined by this package.
func containsNUL(s string) bool {
	return strings.IndexByte(s, 0) >= 0
}

// splitComponents splits s on any separator run, dropping empty components
// that result from repeated separators. It does not validate components.
func splitComponents(s string) []string {
	var components []string
	start := 0
	for i := 0; i < len(s); i++ {
		if isSeparator(s[i]) {
			if i > start {
				components = append(components, s[start:i])
			}
			start = i + 1
		}
	}
	if start < len(s) {
		components = append(components, s[start:])
	}
	return components
}

// isValidComponentString reports whether s could serve as a single path
// component: non-empty, not "." or "..", and containing no separator.
func isValidComponentString(s string) bool {
	if s == "" || s == "." || s == ".." {
		return false
	}
	for i := 0; i < len(s); i++ {
		if isSeparator(s[i]) {
			return false
		}
	}
	return true
}
