package worker

import (
	"context"
	"errors"

	"github.com/raoulx24/wal-archiver/internal/backup"
)

// Backuper is the part of *backup.Manager the worker drives.
type Backuper interface {
	Backup(ctx context.Context, destDir string) (string, error)
	UpdateConfig(opts backup.Options)
}

// backupJob is the scheduled job: one backup into the configured dir.
// Nothing to back up is logged and treated as a no-op run.
func (w *Worker) backupJob(ctx context.Context) error {
	path, err := w.backups.Backup(ctx, "")
	if errors.Is(err, backup.ErrNothingToBackup) {
		w.log.Warn("worker: scheduled backup skipped, no datastore files found")
		return nil
	}
	if err != nil {
		return err
	}
	w.log.Debug("worker: scheduled backup written", "archive", path)
	return nil
}
