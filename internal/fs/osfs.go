package fs

import (
	"context"
	"io"
	"os"
)

// OSFS is the FS backed by the local operating system.
// Platform-specific details (inodes, lock errnos) live in build-tagged files.
type OSFS struct{}

func New() *OSFS {
	return &OSFS{}
}

func (o *OSFS) Stat(path string) (FileInfo, error) {
	st, err := os.Stat(path)
	if err != nil {
		return FileInfo{}, err
	}

	return FileInfo{
		Path:  path,
		Size:  st.Size(),
		MTime: st.ModTime(),
		Inode: inodeOf(st),
		Dir:   st.IsDir(),
	}, nil
}

func (o *OSFS) Open(path string) (io.ReadCloser, error) {
	return os.Open(path)
}

func (o *OSFS) Create(path string) (io.WriteCloser, error) {
	return os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o640)
}

func (o *OSFS) ReadDir(path string) ([]os.DirEntry, error) {
	return os.ReadDir(path)
}

func (o *OSFS) MkdirAll(path string) error {
	return os.MkdirAll(path, 0o755)
}

func (o *OSFS) Remove(path string) error {
	return os.Remove(path)
}

func (o *OSFS) RemoveAll(path string) error {
	return os.RemoveAll(path)
}

func (o *OSFS) CopyFile(ctx context.Context, src, dst string) error {
	return copyWithRetry(ctx, o, src, dst)
}

func (o *OSFS) Move(ctx context.Context, oldPath, newPath string) error {
	return move(ctx, o, oldPath, newPath)
}
