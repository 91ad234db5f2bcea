package watcher

import (
	"os"

	"github.com/raoulx24/wal-archiver/internal/snapshot"
)

// detect reloads the config if the file's mtime or size moved since the last
// reload. A missing file is ignored until it reappears.
func (w *Watcher) detect() {
	cur, ok := w.stat()
	if !ok {
		return
	}

	w.mu.RLock()
	last := w.last
	w.mu.RUnlock()

	if cur.ModTime.Equal(last.ModTime) && cur.Size == last.Size {
		return
	}

	if !w.isStable() {
		w.log.Debug("watcher: config still being written", "size", cur.Size)
		return
	}

	w.mu.Lock()
	w.last = cur
	w.mu.Unlock()

	w.reload("file changed")
}

func (w *Watcher) stat() (snapshot.Artifact, bool) {
	w.mu.RLock()
	path := w.path
	w.mu.RUnlock()

	info, err := os.Stat(path)
	if err != nil {
		return snapshot.Artifact{}, false
	}
	return snapshot.FromFileInfo(path, info), true
}
