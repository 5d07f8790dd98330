//go:build !windows

package filesystem

import (
	"golang.org/x/sys/unix"
)

// Rename performs an atomic rename of source to target. On POSIX systems this
// is a single renameat(2) syscall relative to the current working directory,
// so a reader of target always observes either the old or the new content.
func Rename(source, target string) error {
	return unix.Renameat(unix.AT_FDCWD, source, unix.AT_FDCWD, target)
}

// IsCrossDeviceError reports whether err represents a cross-device rename,
// which the caller must handle by falling back to copy-then-remove.
func IsCrossDeviceError(err error) bool {
	return err == unix.EXDEV
}
