package watcher

import (
	"context"
	"time"
)

// StartPolling runs detect() on the configured interval.
func (w *Watcher) StartPolling(ctx context.Context) {
	interval := w.pollInterval()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.settingsChanged:
			if next := w.pollInterval(); next != interval {
				interval = next
				ticker.Reset(interval)
				w.log.Debug("watcher: poll interval changed", "interval", interval)
			}
		case <-ticker.C:
			w.detect()
		}
	}
}
