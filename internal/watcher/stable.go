package watcher

import (
	"os"
	"time"
)

// isStable reports whether the config file kept the same size across the
// stability window. Half-written YAML usually fails to parse, but a truncated
// file can still be valid.
func (w *Watcher) isStable() bool {
	w.mu.RLock()
	path := w.path
	stability := w.stability
	w.mu.RUnlock()

	info1, err := os.Stat(path)
	if err != nil {
		return false
	}

	time.Sleep(stability)

	info2, err := os.Stat(path)
	if err != nil {
		return false
	}

	return info1.Size() == info2.Size()
}
