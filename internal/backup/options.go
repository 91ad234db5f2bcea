package backup

import (
	"github.com/raoulx24/wal-archiver/internal/archive"
	"github.com/raoulx24/wal-archiver/internal/config"
	"github.com/raoulx24/wal-archiver/internal/restore"
)

// FromConfig maps the file config onto manager options.
func FromConfig(cfg *config.Config) Options {
	return Options{
		Datastores:    cfg.DatastorePaths(),
		BackupDir:     cfg.Backup.Dir,
		RetentionDays: cfg.Backup.RetentionDays,
		Restore: restore.Options{
			Attempts: cfg.Restore.Attempts,
			Backoff:  cfg.Restore.Backoff,
		},
		Archive: archive.Options{
			CompressionLevel: cfg.Archive.CompressionLevel,
			MaxEntryBytes:    cfg.Archive.MaxEntryBytes,
		},
	}
}
