//go:build windows

package filesystem

import (
	"os"
)

// Rename performs an atomic rename of source to target using MoveFileEx
// semantics (os.Rename replaces an existing target on Windows as of Go 1.5+).
func Rename(source, target string) error {
	return os.Rename(source, target)
}

// IsCrossDeviceError reports whether err represents a cross-volume rename.
func IsCrossDeviceError(err error) bool {
	_, ok := err.(*os.LinkError)
	return ok
}
