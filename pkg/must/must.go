// Package must provides helpers for invoking operations whose errors can only
// be logged, not propagated, typically in cleanup paths.
package must

import (
	"io"
	"os"

	"github.com/edenfs-io/edenfs/pkg/logging"
)

// Close closes c, logging any error.
func Close(c io.Closer, logger *logging.Logger) {
	if err := c.Close(); err != nil {
		logger.Warn(err)
	}
}

// OSRemove removes the file at path, logging any error.
func OSRemove(path string, logger *logging.Logger) {
	if err := os.Remove(path); err != nil {
		logger.Warn(err)
	}
}
