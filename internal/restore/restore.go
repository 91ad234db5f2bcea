// Package restore puts the datastore files from a backup archive back into
// place while the files may still be briefly held open by the host process.
package restore

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/raoulx24/wal-archiver/internal/fs"
	"github.com/raoulx24/wal-archiver/internal/logging"
	"github.com/raoulx24/wal-archiver/internal/snapshot"
)

const scratchPrefix = "restore_temp_"

// Unpacker extracts an archive flat into an existing directory.
type Unpacker interface {
	Unpack(archivePath, destDir string) error
}

// Options bound the wait for locked destination files.
type Options struct {
	Attempts int
	Backoff  time.Duration
}

// DefaultOptions wait up to ~10s: 20 attempts, 500ms apart.
func DefaultOptions() Options {
	return Options{Attempts: 20, Backoff: 500 * time.Millisecond}
}

// Orchestrator runs restores. It never reopens the datastore; the caller
// closes its connection before Restore and reopens it afterwards.
type Orchestrator struct {
	fs       fs.FS
	unpacker Unpacker
	log      logging.Logger
	opts     Options
	now      func() time.Time

	// OnRetry is called for every locked-file retry; used for metrics.
	OnRetry func(file string)
}

func New(filesystem fs.FS, unpacker Unpacker, log logging.Logger, opts Options) *Orchestrator {
	if filesystem == nil {
		filesystem = fs.New()
	}
	if opts.Attempts < 1 {
		opts.Attempts = 1
	}
	return &Orchestrator{
		fs:       filesystem,
		unpacker: unpacker,
		log:      log,
		opts:     opts,
		now:      time.Now,
	}
}

// Restore extracts archivePath into a scratch dir under targetDir and moves
// every recognized datastore file into targetDir. The scratch dir is removed
// on every exit path.
func (o *Orchestrator) Restore(ctx context.Context, archivePath, targetDir string) (err error) {
	scratch := filepath.Join(targetDir, fmt.Sprintf("%s%d", scratchPrefix, o.now().Unix()))
	o.log.Info("restore: starting", "archive", archivePath, "target", targetDir)

	if err := o.fs.MkdirAll(scratch); err != nil {
		return &FileError{File: scratch, Err: err}
	}
	defer func() {
		if rmErr := o.fs.RemoveAll(scratch); rmErr != nil {
			o.log.Warn("restore: failed to remove scratch dir", "dir", scratch, "error", rmErr)
		}
	}()

	if err := o.unpacker.Unpack(archivePath, scratch); err != nil {
		return err
	}
	o.log.Debug("restore: archive extracted", "dir", scratch)

	files, err := o.datastoreFiles(scratch)
	if err != nil {
		return &FileError{File: scratch, Err: err}
	}
	if len(files) == 0 {
		return &EmptyArchiveError{Archive: archivePath}
	}

	restored := make(map[string]bool, len(files))
	for _, name := range files {
		if err := o.place(ctx, filepath.Join(scratch, name), filepath.Join(targetDir, name), name); err != nil {
			return err
		}
		restored[name] = true
		o.log.Info("restore: restored file", "file", name)
	}

	if err := o.dropStaleSidecars(ctx, targetDir, restored); err != nil {
		return err
	}

	o.log.Info("restore: complete", "files", len(files), "target", targetDir)
	return nil
}

// datastoreFiles lists the recognized datastore files in dir, sorted by name
// so main files precede their sidecars.
func (o *Orchestrator) datastoreFiles(dir string) ([]string, error) {
	entries, err := o.fs.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var names []string
	for _, ent := range entries {
		if ent.IsDir() || !snapshot.IsDatastoreFile(ent.Name()) {
			continue
		}
		names = append(names, ent.Name())
	}
	return names, nil
}

// place deletes an existing destination and moves src onto it, retrying
// while the destination is locked.
func (o *Orchestrator) place(ctx context.Context, src, dst, name string) error {
	return o.withLockRetry(ctx, name, dst, func() error {
		if err := o.removeIfExists(dst); err != nil {
			return err
		}
		return o.fs.Move(ctx, src, dst)
	})
}

// dropStaleSidecars removes -wal/-shm files in targetDir that belong to a
// restored main file but were not part of the archive. Left in place, an old
// WAL would be replayed onto the restored data on next open.
func (o *Orchestrator) dropStaleSidecars(ctx context.Context, targetDir string, restored map[string]bool) error {
	for name := range restored {
		if !snapshot.IsMainFile(name) {
			continue
		}
		for _, suffix := range snapshot.Sidecars {
			sidecar := name + suffix
			if restored[sidecar] {
				continue
			}

			path := filepath.Join(targetDir, sidecar)
			if !fs.Exists(o.fs, path) {
				continue
			}

			err := o.withLockRetry(ctx, sidecar, path, func() error {
				return o.removeIfExists(path)
			})
			if err != nil {
				return err
			}
			o.log.Info("restore: removed stale sidecar", "file", sidecar)
		}
	}
	return nil
}

func (o *Orchestrator) withLockRetry(ctx context.Context, name, path string, fn func() error) error {
	policy := fs.Policy{
		Attempts: o.opts.Attempts,
		Backoff:  o.opts.Backoff,
		OnRetry: func(attempt int, err error) {
			o.log.Warn("restore: file in use, retrying",
				"file", name, "attempt", attempt, "of", o.opts.Attempts, "error", err)
			if o.OnRetry != nil {
				o.OnRetry(name)
			}
		},
	}

	err := fs.Retry(ctx, policy, "replace "+name, fs.IsLocked, func(int) error { return fn() })
	if err == nil {
		return nil
	}

	var exhausted *fs.ExhaustedError
	if errors.As(err, &exhausted) {
		return &LockedFileError{File: name, Path: path, Attempts: exhausted.Attempts, Err: exhausted.Err}
	}
	return &FileError{File: name, Err: err}
}

func (o *Orchestrator) removeIfExists(path string) error {
	if !fs.Exists(o.fs, path) {
		return nil
	}
	if err := o.fs.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

