package restore

import "fmt"

// EmptyArchiveError means the archive held no recognized datastore files.
type EmptyArchiveError struct {
	Archive string
}

func (e *EmptyArchiveError) Error() string {
	return fmt.Sprintf("archive %s contains no datastore files (.db, .db-wal, .db-shm)", e.Archive)
}

// LockedFileError means a destination file stayed in use through every attempt.
type LockedFileError struct {
	File     string
	Path     string
	Attempts int
	Err      error
}

func (e *LockedFileError) Error() string {
	return fmt.Sprintf("cannot replace %s: still in use after %d attempts; close the application completely and retry", e.File, e.Attempts)
}

func (e *LockedFileError) Unwrap() error { return e.Err }

// FileError is any other I/O failure while putting restored files in place.
type FileError struct {
	File string
	Err  error
}

func (e *FileError) Error() string {
	return fmt.Sprintf("restoring %s: %v", e.File, e.Err)
}

func (e *FileError) Unwrap() error { return e.Err }
