// Package fs defines the filesystem abstraction used by wal-archiver.
// It provides the FS interface, the FileInfo type and the retry and
// lock classification helpers shared by backup and restore.
package fs

import (
	"context"
	"io"
	"os"
	"time"
)

type FileInfo struct {
	Path  string
	Size  int64
	MTime time.Time
	Inode uint64
	Dir   bool
}

type FS interface {
	Stat(path string) (FileInfo, error)
	Open(path string) (io.ReadCloser, error)
	Create(path string) (io.WriteCloser, error)
	ReadDir(path string) ([]os.DirEntry, error)
	MkdirAll(path string) error
	Remove(path string) error
	RemoveAll(path string) error
	// Move renames oldPath onto newPath, copying across devices when needed.
	Move(ctx context.Context, oldPath, newPath string) error
	CopyFile(ctx context.Context, src, dst string) error
}

// Exists reports whether path can be stat'ed. Any error counts as absent.
func Exists(f FS, path string) bool {
	_, err := f.Stat(path)
	return err == nil
}
