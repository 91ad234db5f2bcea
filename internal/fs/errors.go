package fs

import (
	"errors"
	"os"
	"syscall"
)

// helpers for classifying filesystem errors: whether an operation should
// retry, and whether a file is held open by another handle.

func isTransient(err error) bool {
	if errors.Is(err, syscall.EAGAIN) ||
		errors.Is(err, syscall.EBUSY) ||
		errors.Is(err, syscall.ETIMEDOUT) {
		return true
	}

	return false
}

// IsLocked reports whether err means the file is in use or access was
// refused. Restore treats these as "still held open, wait and retry".
func IsLocked(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, os.ErrPermission) || errors.Is(err, syscall.EBUSY) {
		return true
	}
	return isPlatformLock(err)
}
