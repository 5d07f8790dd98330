// Package eden holds process-wide constants shared across the object-graph
// storage core: version identifiers and the debug-logging toggle.
package eden

import (
	"fmt"
	"os"
)

const (
	// VersionMajor is the current major version of the core.
	VersionMajor = 0
	// VersionMinor is the current minor version of the core.
	VersionMinor = 1
	// VersionPatch is the current patch version of the core.
	VersionPatch = 0
)

// Version is the human-readable version string.
var Version string

func init() {
	Version = fmt.Sprintf("%d.%d.%d", VersionMajor, VersionMinor, VersionPatch)
}

// DebugEnabled controls whether debug-level logging is emitted. It is set
// automatically from the EDENFS_DEBUG environment variable.
var DebugEnabled bool

func init() {
	DebugEnabled = os.Getenv("EDENFS_DEBUG") == "1"
}
