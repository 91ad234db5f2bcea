package worker

import (
	"github.com/raoulx24/wal-archiver/internal/backup"
	"github.com/raoulx24/wal-archiver/internal/config"
	"github.com/raoulx24/wal-archiver/internal/scheduler"
)

// UpdateConfig hot-reloads backup settings and the schedule. A schedule that
// fails to parse keeps the previous one.
func (w *Worker) UpdateConfig(cfg *config.Config) {
	w.mu.Lock()
	prev := w.cfg
	w.cfg = cfg
	listeners := append(([]func(*config.Config))(nil), w.listeners...)
	w.mu.Unlock()

	w.backups.UpdateConfig(backup.FromConfig(cfg))
	for _, fn := range listeners {
		fn(cfg)
	}

	if !cfg.Schedule.Enabled {
		if w.sched.Running() {
			w.log.Info("worker: schedule disabled")
		}
		w.sched.Stop()
		return
	}

	if prev.Schedule != cfg.Schedule {
		schedule, err := scheduler.Parse(cfg.Schedule.Cron, cfg.Schedule.IntervalHours)
		if err != nil {
			w.log.Error("worker: invalid schedule, keeping previous", "error", err)
		} else {
			w.sched.Reschedule(schedule)
		}
	}

	if !w.sched.Running() {
		w.sched.Start()
	}
}
