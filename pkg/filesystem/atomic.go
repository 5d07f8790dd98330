package filesystem

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/edenfs-io/edenfs/pkg/logging"
	"github.com/edenfs-io/edenfs/pkg/must"
)

// atomicWriteTemporaryNamePrefix is the file name prefix used for the
// intermediate temporary file used in atomic writes.
const atomicWriteTemporaryNamePrefix = TemporaryNamePrefix + "atomic-write"

// WriteFileAtomic writes data to path in an atomic fashion: it writes to a
// temporary file in the same directory and renames it over the destination,
// so a concurrent reader of path always sees either the old or the new
// content in full, never a partial write.
func WriteFileAtomic(path string, data []byte, permissions os.FileMode, logger *logging.Logger) error {
	temporary, err := os.CreateTemp(filepath.Dir(path), atomicWriteTemporaryNamePrefix)
	if err != nil {
		return fmt.Errorf("unable to create temporary file: %w", err)
	}

	if _, err = temporary.Write(data); err != nil {
		must.Close(temporary, logger)
		must.OSRemove(temporary.Name(), logger)
		return fmt.Errorf("unable to write data to temporary file: %w", err)
	}

	if err = temporary.Close(); err != nil {
		must.OSRemove(temporary.Name(), logger)
		return fmt.Errorf("unable to close temporary file: %w", err)
	}

	if err = os.Chmod(temporary.Name(), permissions); err != nil {
		must.OSRemove(temporary.Name(), logger)
		return fmt.Errorf("unable to change file permissions: %w", err)
	}

	if err = Rename(temporary.Name(), path); err != nil {
		must.OSRemove(temporary.Name(), logger)
		return fmt.Errorf("unable to rename file: %w", err)
	}

	return nil
}
