package watcher

import (
	"context"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// StartFsNotify watches the config file's directory, since editors often
// replace the file by renaming a temp file over it, and runs detect() once
// events for the file have been quiet for the debounce window.
func (w *Watcher) StartFsNotify(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	w.mu.RLock()
	dir := filepath.Dir(w.path)
	name := filepath.Base(w.path)
	w.mu.RUnlock()

	if err := watcher.Add(dir); err != nil {
		return err
	}

	var timer *time.Timer
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-watcher.Events:
			if !ok {
				w.log.Error("watcher: events channel closed")
				return nil
			}

			if filepath.Base(ev.Name) != name {
				continue
			}
			w.log.Debug("watcher: event", "name", ev.Name, "op", ev.Op.String())

			w.mu.RLock()
			debounce := w.debounce
			w.mu.RUnlock()

			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(debounce, func() {
				defer func() {
					if r := recover(); r != nil {
						w.log.Error("watcher: detect panic", "panic", r)
					}
				}()
				w.detect()
			})

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			w.log.Error("watcher: fsnotify error", "error", err)
		}
	}
}
