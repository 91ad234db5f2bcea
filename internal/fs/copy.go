package fs

import (
	"context"
	"fmt"
	"io"
	"os"
)

// copyWithRetry copies src to dst, retrying transient errors, and aborts
// when the source changes between attempts.
func copyWithRetry(ctx context.Context, f FS, src, dst string) error {
	orig, err := f.Stat(src)
	if err != nil {
		return err
	}

	return Retry(ctx, transientPolicy, "copy", isTransient, func(int) error {
		now, err := f.Stat(src)
		if err != nil {
			return err
		}

		if SourceChanged(orig, now) {
			return fmt.Errorf("source %s changed during copy", src)
		}

		return copyOnce(src, dst)
	})
}

// SourceChanged reports whether now describes a different or modified file
// than orig.
func SourceChanged(orig, now FileInfo) bool {
	if now.Inode != 0 && orig.Inode != 0 && now.Inode != orig.Inode {
		return true
	}
	if now.MTime.After(orig.MTime) {
		return true
	}
	if now.Size != orig.Size {
		return true
	}
	return false
}

func copyOnce(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer func() {
		_ = out.Close()
	}()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}

	return out.Sync()
}
