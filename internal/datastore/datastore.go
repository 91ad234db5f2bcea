// Package datastore opens SQLite datastores in WAL mode and runs WAL
// checkpoints before a backup.
package datastore

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"os"

	_ "modernc.org/sqlite"

	"github.com/raoulx24/wal-archiver/internal/logging"
)

const busyTimeoutMillis = 2000

// Store wraps a single SQLite connection.
type Store struct {
	path string
	db   *sql.DB
}

// Open opens (creating if needed) the datastore at path with WAL journaling.
func Open(path string) (*Store, error) {
	return openStore(path, "", true)
}

// openExisting opens a datastore that must already exist and leaves its
// journal mode alone.
func openExisting(path string) (*Store, error) {
	return openStore(path, "rw", false)
}

func openStore(path, mode string, wal bool) (*Store, error) {
	db, err := sql.Open("sqlite", dsn(path, mode))
	if err != nil {
		return nil, fmt.Errorf("failed to open datastore %s: %w", path, err)
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if wal {
		if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode on %s: %w", path, err)
		}
	}

	return &Store{path: path, db: db}, nil
}

func (s *Store) Path() string { return s.path }

// DB returns the underlying connection.
func (s *Store) DB() *sql.DB { return s.db }

// Close releases the connection. A restore must only start once every
// Store on the target files is closed.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Checkpoint copies WAL frames into the main file. mode is one of PASSIVE,
// FULL, RESTART or TRUNCATE.
func (s *Store) Checkpoint(ctx context.Context, mode string) error {
	return checkpoint(ctx, s.db, mode)
}

func checkpoint(ctx context.Context, db *sql.DB, mode string) error {
	switch mode {
	case "", "PASSIVE", "FULL", "RESTART", "TRUNCATE":
	default:
		return fmt.Errorf("unknown checkpoint mode %q", mode)
	}
	if mode == "" {
		mode = "PASSIVE"
	}

	var busy, logFrames, checkpointed int
	row := db.QueryRowContext(ctx, "PRAGMA wal_checkpoint("+mode+")")
	if err := row.Scan(&busy, &logFrames, &checkpointed); err != nil {
		return fmt.Errorf("wal checkpoint: %w", err)
	}
	return nil
}

// WALCheckpointer checkpoints existing datastores on disk without creating
// missing ones. A PASSIVE checkpoint never blocks the host's writers.
type WALCheckpointer struct {
	Mode string
	Log  logging.Logger
}

func (c *WALCheckpointer) Checkpoint(ctx context.Context, paths []string) error {
	for _, path := range paths {
		if _, err := os.Stat(path); err != nil {
			continue
		}
		if err := c.checkpointOne(ctx, path); err != nil {
			return fmt.Errorf("checkpoint %s: %w", path, err)
		}
		if c.Log != nil {
			c.Log.Debug("datastore: checkpointed", "path", path, "mode", c.Mode)
		}
	}
	return nil
}

func (c *WALCheckpointer) checkpointOne(ctx context.Context, path string) error {
	s, err := openExisting(path)
	if err != nil {
		return err
	}
	defer s.Close()

	return s.Checkpoint(ctx, c.Mode)
}

func dsn(path, mode string) string {
	q := url.Values{}
	q.Add("_pragma", fmt.Sprintf("busy_timeout(%d)", busyTimeoutMillis))
	if mode != "" {
		q.Set("mode", mode)
	}
	return "file:" + path + "?" + q.Encode()
}
