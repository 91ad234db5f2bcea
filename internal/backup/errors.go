package backup

import (
	"errors"
	"fmt"
)

// ErrNothingToBackup is returned when none of the configured datastore files
// exist.
var ErrNothingToBackup = errors.New("no datastore files found to back up")

// VerificationError means the archive was missing or empty after Pack
// reported success.
type VerificationError struct {
	Path string
	Size int64
}

func (e *VerificationError) Error() string {
	return fmt.Sprintf("backup archive %s failed verification (size %d)", e.Path, e.Size)
}

// Error adds the operation and the paths involved to a failure while keeping
// the underlying kind reachable through errors.As and errors.Is.
type Error struct {
	Op        string // backup, restore
	Datastore string
	Dir       string
	Err       error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s failed (datastore %s, dir %s): %v", e.Op, e.Datastore, e.Dir, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }
