package snapshot

import (
	"os"
	"path/filepath"
	"time"
)

// Artifact is the name, size and mtime of one file: an archive entry for
// inspect, or the last seen state of a watched file.
type Artifact struct {
	Name    string
	Size    int64
	ModTime time.Time
}

// FromFileInfo keeps only the base name of path.
func FromFileInfo(path string, info os.FileInfo) Artifact {
	return Artifact{
		Name:    filepath.Base(path),
		ModTime: info.ModTime(),
		Size:    info.Size(),
	}
}
