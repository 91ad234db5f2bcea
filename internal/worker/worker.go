// Package worker is the daemon service that runs scheduled backups and
// applies reloaded configs.
package worker

import (
	"context"
	"sync"
	"time"

	"github.com/raoulx24/wal-archiver/internal/config"
	"github.com/raoulx24/wal-archiver/internal/logging"
	"github.com/raoulx24/wal-archiver/internal/mailbox"
	"github.com/raoulx24/wal-archiver/internal/scheduler"
)

// Worker owns the backup scheduler.
type Worker struct {
	mu      sync.RWMutex
	cfg     *config.Config
	backups Backuper
	sched   *scheduler.Scheduler
	log     logging.Logger
	mb      *mailbox.Mailbox[*config.Config]

	listeners []func(*config.Config)
}

// New creates a worker. cfg must already be validated.
func New(cfg *config.Config, backups Backuper, log logging.Logger, mb *mailbox.Mailbox[*config.Config]) (*Worker, error) {
	schedule, err := scheduler.Parse(cfg.Schedule.Cron, cfg.Schedule.IntervalHours)
	if err != nil {
		return nil, err
	}

	w := &Worker{
		cfg:     cfg,
		backups: backups,
		log:     log,
		mb:      mb,
	}
	w.sched = scheduler.New(schedule, w.backupJob, log)
	return w, nil
}

// Serve starts the scheduler and applies configs from the mailbox until ctx
// is done. It matches suture.Service.
func (w *Worker) Serve(ctx context.Context) error {
	w.log.Info("worker: starting")

	w.mu.RLock()
	enabled := w.cfg.Schedule.Enabled
	w.mu.RUnlock()
	if enabled {
		w.sched.Start()
	}
	defer w.sched.Stop()

	for {
		cfg, ok := w.mb.Take(ctx)
		if !ok {
			w.log.Info("worker: stopping")
			return nil
		}
		w.UpdateConfig(cfg)
	}
}

// OnConfig registers fn to receive every config the worker applies, so
// services outside the worker follow hot reloads too.
func (w *Worker) OnConfig(fn func(*config.Config)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.listeners = append(w.listeners, fn)
}

func (w *Worker) String() string { return "backup-worker" }

// NextBackup reports when the next scheduled backup fires, zero if none.
func (w *Worker) NextBackup() time.Time {
	return w.sched.Next()
}

// Config returns the config currently in effect.
func (w *Worker) Config() *config.Config {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.cfg
}
