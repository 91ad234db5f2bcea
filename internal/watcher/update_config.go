package watcher

import (
	"time"

	"github.com/raoulx24/wal-archiver/internal/config"
)

// UpdateConfig applies reloaded settings. A running poller switches to the
// new interval at once and the debounce window applies from the next
// fsnotify event; a method change takes effect when the service restarts.
func (w *Watcher) UpdateConfig(cfg config.ReloadConfig) {
	w.mu.Lock()
	w.mode = cfg.Method
	w.interval = cfg.PollInterval
	if w.interval <= 0 {
		w.interval = 5 * time.Second
	}
	w.debounce = cfg.Debounce
	w.mu.Unlock()

	select {
	case w.settingsChanged <- struct{}{}:
	default:
	}
}

func (w *Watcher) pollInterval() time.Duration {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.interval
}
