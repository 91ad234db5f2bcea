package fs

import (
	"context"
	"fmt"
	"os"
)

// move renames oldPath onto newPath. When the two live on different
// devices it falls back to copy-then-delete, like a shell mv.
func move(ctx context.Context, f FS, oldPath, newPath string) error {
	err := os.Rename(oldPath, newPath)
	if err == nil || !isCrossDevice(err) {
		return err
	}

	if err := f.CopyFile(ctx, oldPath, newPath); err != nil {
		return fmt.Errorf("cross-device copy of %s: %w", oldPath, err)
	}
	return f.Remove(oldPath)
}
