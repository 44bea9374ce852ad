package audiocache

import (
	"fmt"
	"os"
)

// tmpPrefix marks in-progress writes so startup scans can sweep leftovers.
const tmpPrefix = "tmp-"

// StorageError reports a failure to persist or scan artifacts. The caller
// should treat it as a cache miss and resynthesize; it is never fatal to the
// conversation loop.
type StorageError struct {
	Op  string
	Err error
}

// Error implements the error interface.
func (e *StorageError) Error() string {
	return fmt.Sprintf("audiocache: %s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error.
func (e *StorageError) Unwrap() error {
	return e.Err
}

// renameFile is swapped by tests to simulate a crash before the final
// rename.
var renameFile = os.Rename

// writeAtomic writes audio to a temp file in dir and renames it to final.
// On any failure the temp file is removed, so a partial write is never
// visible under the final name.
func writeAtomic(dir, final string, audio []byte) error {
	tmp, err := os.CreateTemp(dir, tmpPrefix+"*")
	if err != nil {
		return &StorageError{Op: "create temp file", Err: err}
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(audio); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return &StorageError{Op: "write audio", Err: err}
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return &StorageError{Op: "close temp file", Err: err}
	}
	if err := renameFile(tmpName, final); err != nil {
		os.Remove(tmpName)
		return &StorageError{Op: "publish artifact", Err: err}
	}
	return nil
}
