// Package watcher monitors the config file and publishes reloaded configs.
package watcher

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/raoulx24/wal-archiver/internal/config"
	"github.com/raoulx24/wal-archiver/internal/fsprobe"
	"github.com/raoulx24/wal-archiver/internal/logging"
	"github.com/raoulx24/wal-archiver/internal/mailbox"
	"github.com/raoulx24/wal-archiver/internal/metrics"
	"github.com/raoulx24/wal-archiver/internal/snapshot"
)

// Watcher reloads the config file when it changes and puts every valid
// config into the mailbox. Invalid configs are logged and dropped, so the
// last good config stays in effect.
type Watcher struct {
	mu sync.RWMutex

	path      string
	mode      string
	interval  time.Duration
	debounce  time.Duration
	stability time.Duration

	log logging.Logger

	last snapshot.Artifact

	mb *mailbox.Mailbox[*config.Config]

	// settingsChanged wakes a running poller after UpdateConfig
	settingsChanged chan struct{}
}

// New creates a watcher for the config file at path.
func New(path string, cfg config.ReloadConfig, log logging.Logger, mb *mailbox.Mailbox[*config.Config]) *Watcher {
	w := &Watcher{
		path:      path,
		log:       log,
		stability: 50 * time.Millisecond,
		mb:        mb,

		settingsChanged: make(chan struct{}, 1),
	}
	w.UpdateConfig(cfg)
	w.last, _ = w.stat()
	return w
}

// Serve runs until ctx is done. It matches suture.Service.
func (w *Watcher) Serve(ctx context.Context) error {
	w.mu.RLock()
	mode := w.mode
	dir := filepath.Dir(w.path)
	w.mu.RUnlock()

	switch mode {
	case "fsnotify":
		return w.StartFsNotify(ctx)

	case "poll":
		w.StartPolling(ctx)
		return nil

	case "auto", "":
		res := fsprobe.Probe(dir)
		if res.FsnotifySupported {
			return w.StartFsNotify(ctx)
		}
		w.log.Warn("watcher: fsnotify disabled, polling instead", "reason", res.Reason)
		w.StartPolling(ctx)
		return nil

	default:
		return fmt.Errorf("unknown config reload method %q", mode)
	}
}

func (w *Watcher) String() string { return "config-watcher" }

// Trigger reloads the config immediately, whether or not the file changed.
// Used for SIGHUP.
func (w *Watcher) Trigger() {
	w.reload("signal")
}

func (w *Watcher) reload(reason string) {
	w.mu.RLock()
	path := w.path
	w.mu.RUnlock()

	cfg, err := config.Load(path)
	if err != nil {
		metrics.ConfigReloads.WithLabelValues(metrics.ResultFailure).Inc()
		w.log.Error("watcher: config reload failed, keeping current config", "path", path, "error", err)
		return
	}

	metrics.ConfigReloads.WithLabelValues(metrics.ResultSuccess).Inc()
	w.log.Info("watcher: config reloaded", "path", path, "reason", reason)
	w.mb.Put(cfg)
}
