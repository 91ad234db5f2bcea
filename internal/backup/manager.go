// Package backup is the entry point the host application calls to back up
// and restore its datastore files.
package backup

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/raoulx24/wal-archiver/internal/archive"
	"github.com/raoulx24/wal-archiver/internal/fs"
	"github.com/raoulx24/wal-archiver/internal/logging"
	"github.com/raoulx24/wal-archiver/internal/metrics"
	"github.com/raoulx24/wal-archiver/internal/restore"
	"github.com/raoulx24/wal-archiver/internal/retention"
	"github.com/raoulx24/wal-archiver/internal/snapshot"
)

// Checkpointer flushes WAL content into the main files before packing.
type Checkpointer interface {
	Checkpoint(ctx context.Context, paths []string) error
}

// Packer writes an archive. *archive.Packager satisfies it.
type Packer interface {
	Pack(files []string, destPath string) error
}

// Options is the manager's view of the configuration.
type Options struct {
	Datastores    []string // main datastore paths; the first one's dir is the restore target
	BackupDir     string
	RetentionDays int
	Restore       restore.Options
	Archive       archive.Options
}

// Manager runs backups, restores and pruning one at a time.
type Manager struct {
	mu  sync.Mutex // serializes Backup, Restore and Prune
	cfg sync.RWMutex

	opts Options
	fs   fs.FS
	log  logging.Logger
	now  func() time.Time

	resolver  *snapshot.Resolver
	packager  *archive.Packager
	packer    Packer
	retention *retention.Policy
	restorer  *restore.Orchestrator

	checkpointer Checkpointer
}

func New(opts Options, log logging.Logger, filesystem fs.FS) *Manager {
	if filesystem == nil {
		filesystem = fs.New()
	}
	if opts.BackupDir == "" {
		opts.BackupDir = "backups"
	}

	m := &Manager{
		opts:      opts,
		fs:        filesystem,
		log:       log,
		now:       time.Now,
		resolver:  snapshot.NewResolver(filesystem),
		retention: retention.New(filesystem, log),
	}
	m.packager = archive.New(filesystem, log, opts.Archive)
	m.packer = m.packager
	m.restorer = m.newRestorer(opts.Restore)
	return m
}

func (m *Manager) newRestorer(opts restore.Options) *restore.Orchestrator {
	r := restore.New(m.fs, m.packager, m.log, opts)
	r.OnRetry = func(string) { metrics.RestoreLockRetries.Inc() }
	return r
}

// WithCheckpointer enables a WAL checkpoint before each backup.
func (m *Manager) WithCheckpointer(c Checkpointer) *Manager {
	m.checkpointer = c
	return m
}

// UpdateConfig swaps the options used by the next operation.
func (m *Manager) UpdateConfig(opts Options) {
	if opts.BackupDir == "" {
		opts.BackupDir = "backups"
	}

	m.cfg.Lock()
	defer m.cfg.Unlock()

	m.opts = opts
	m.packager = archive.New(m.fs, m.log, opts.Archive)
	m.packer = m.packager
	m.restorer = m.newRestorer(opts.Restore)
	m.log.Debug("backup: config updated", "datastores", len(opts.Datastores), "dir", opts.BackupDir)
}

func (m *Manager) snapshotOpts() (Options, Packer, *restore.Orchestrator) {
	m.cfg.RLock()
	defer m.cfg.RUnlock()
	return m.opts, m.packer, m.restorer
}

// Options returns the current options.
func (m *Manager) Options() Options {
	opts, _, _ := m.snapshotOpts()
	return opts
}

// Backup archives the current datastore files into destDir (the configured
// backup dir when empty), verifies the archive and prunes old ones.
// It returns the archive path.
func (m *Manager) Backup(ctx context.Context, destDir string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	opts, packer, _ := m.snapshotOpts()
	if destDir == "" {
		destDir = opts.BackupDir
	}

	log := m.log.With("op", "backup", "id", uuid.NewString())
	start := time.Now()

	path, size, err := m.backup(ctx, log, opts, packer, destDir)
	elapsed := time.Since(start)

	switch {
	case errors.Is(err, ErrNothingToBackup):
		metrics.RecordBackup(metrics.ResultEmpty, elapsed, 0)
	case err != nil:
		metrics.RecordBackup(metrics.ResultFailure, elapsed, 0)
	default:
		metrics.RecordBackup(metrics.ResultSuccess, elapsed, size)
	}

	if err != nil {
		log.Error("backup failed", "error", err, "duration", elapsed)
		return "", &Error{Op: "backup", Datastore: primary(opts.Datastores), Dir: destDir, Err: err}
	}

	log.Info("backup complete", "archive", path, "bytes", size, "duration", elapsed)
	return path, nil
}

func (m *Manager) backup(ctx context.Context, log logging.Logger, opts Options, packer Packer, destDir string) (string, int64, error) {
	if err := m.fs.MkdirAll(destDir); err != nil {
		return "", 0, err
	}

	if m.checkpointer != nil {
		if err := m.checkpointer.Checkpoint(ctx, opts.Datastores); err != nil {
			log.Warn("checkpoint failed, backing up WAL as is", "error", err)
		}
	}

	files := m.resolver.Resolve(opts.Datastores)
	if len(files) == 0 {
		return "", 0, ErrNothingToBackup
	}
	log.Debug("resolved datastore files", "files", files)

	if err := ctx.Err(); err != nil {
		return "", 0, err
	}

	path := filepath.Join(destDir, snapshot.ArchiveName(m.now()))
	if err := packer.Pack(files, path); err != nil {
		return "", 0, err
	}

	info, err := m.fs.Stat(path)
	if err != nil || info.Size == 0 {
		return "", 0, &VerificationError{Path: path, Size: info.Size}
	}

	m.prune(log, destDir, opts.RetentionDays)
	return path, info.Size, nil
}

// Restore replaces the datastore files with the contents of archivePath.
// The host must have closed its datastore connections first.
func (m *Manager) Restore(ctx context.Context, archivePath string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	opts, _, restorer := m.snapshotOpts()
	target := filepath.Dir(primary(opts.Datastores))

	log := m.log.With("op", "restore", "id", uuid.NewString())
	log.Info("restore requested", "archive", archivePath, "target", target)

	err := restorer.Restore(ctx, archivePath, target)
	metrics.RecordRestore(err)
	if err != nil {
		log.Error("restore failed", "error", err)
		return &Error{Op: "restore", Datastore: primary(opts.Datastores), Dir: target, Err: err}
	}
	return nil
}

// Prune applies the configured retention to dir (the backup dir when empty).
func (m *Manager) Prune(dir string) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	opts, _, _ := m.snapshotOpts()
	if dir == "" {
		dir = opts.BackupDir
	}
	return m.prune(m.log.With("op", "prune"), dir, opts.RetentionDays)
}

func (m *Manager) prune(log logging.Logger, dir string, days int) int {
	n := m.retention.Prune(dir, days)
	metrics.RecordPruned(n)
	if n > 0 {
		log.Info("pruned old backups", "count", n, "dir", dir, "maxAgeDays", days)
	}
	return n
}

// List returns the archives in dir (the backup dir when empty), newest first.
func (m *Manager) List(dir string) ([]snapshot.Archive, error) {
	if dir == "" {
		dir = m.Options().BackupDir
	}
	return snapshot.List(m.fs, dir)
}

// Contents lists the entries of one archive.
func (m *Manager) Contents(archivePath string) ([]snapshot.Artifact, error) {
	m.cfg.RLock()
	p := m.packager
	m.cfg.RUnlock()
	return p.Contents(archivePath)
}

func primary(datastores []string) string {
	if len(datastores) == 0 {
		return ""
	}
	return datastores[0]
}
