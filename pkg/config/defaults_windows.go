//go:build windows

package config

// Windows mounts default to case-insensitive trees, ProjectedFS as the
// filesystem channel, and the tree overlay enabled, matching the
// original's Windows-specific defaults.
const (
	defaultCaseSensitive     = false
	defaultProtocol          = "prjfs"
	defaultEnableTreeOverlay = true
)
