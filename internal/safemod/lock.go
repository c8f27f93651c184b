// Package safemod applies a ModificationPlan to a PDF with end-to-end
// safety: an exclusive lock on the source, a mandatory backup committed
// before any mutation, an incremental-update write, and a re-parse
// validation pass that triggers rollback on any discrepancy.
package safemod

import (
	"fmt"
	"os"

	"github.com/fieldbem/pdfrename/internal/bemerrors"
)

// Lock is an exclusive advisory lock on a source path, held for the
// duration of one apply run, guaranteeing no concurrent run mutates the
// same file. Implemented as an O_EXCL sibling lock file rather than
// flock(2) so it stays portable across filesystems that don't support
// advisory byte-range locks.
type Lock struct {
	path string
	file *os.File
}

// AcquireLock creates the lock file exclusively, failing with an
// IoFailure if another run already holds it.
func AcquireLock(sourcePath string) (*Lock, error) {
	lockPath := sourcePath + ".bemlock"
	f, err := os.OpenFile(lockPath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		if os.IsExist(err) {
			return nil, bemerrors.IoFailure(fmt.Sprintf("%s is already locked by another run", sourcePath), err)
		}
		return nil, bemerrors.IoFailure("acquiring lock failed", err)
	}
	return &Lock{path: lockPath, file: f}, nil
}

// Release closes and removes the lock file. Safe to call on a nil Lock
// or more than once, so callers can unconditionally defer it from every
// exit path right after a successful AcquireLock.
func (l *Lock) Release() error {
	if l == nil || l.file == nil {
		return nil
	}
	_ = l.file.Close()
	err := os.Remove(l.path)
	l.file = nil
	if err != nil && !os.IsNotExist(err) {
		return bemerrors.IoFailure("releasing lock failed", err)
	}
	return nil
}
