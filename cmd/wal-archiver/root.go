package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/raoulx24/wal-archiver/internal/backup"
	"github.com/raoulx24/wal-archiver/internal/config"
	"github.com/raoulx24/wal-archiver/internal/datastore"
	"github.com/raoulx24/wal-archiver/internal/logging"
)

// app carries what every subcommand needs, built once in PersistentPreRunE.
type app struct {
	configPath string
	logLevel   string

	cfg     *config.Config
	log     logging.Logger
	manager *backup.Manager
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "wal-archiver",
		Short: "Back up and restore WAL-mode datastore files",
		Long: `wal-archiver packages a datastore file and its -wal/-shm sidecars into
timestamped zip archives, prunes archives older than the retention window,
and restores an archive back into place.

Stop the host application (or the wal-archiver daemon) before restoring.`,
		SilenceUsage:      true,
		PersistentPreRunE: a.init,
	}

	root.PersistentFlags().StringVar(&a.configPath, "config", "config.yaml", "config file; defaults apply when it does not exist")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "override logging.level")

	root.AddCommand(
		a.backupCmd(),
		a.restoreCmd(),
		a.pruneCmd(),
		a.listCmd(),
		a.inspectCmd(),
		a.runCmd(),
	)
	return root
}

func (a *app) init(cmd *cobra.Command, _ []string) error {
	cfg, err := config.LoadOrDefault(a.configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if a.logLevel != "" {
		cfg.Logging.Level = a.logLevel
	}

	a.cfg = cfg
	a.log = logging.New(logging.Options{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: os.Stderr,
	})
	a.manager = newManager(cfg, a.log)
	return nil
}

func newManager(cfg *config.Config, log logging.Logger) *backup.Manager {
	m := backup.New(backup.FromConfig(cfg), log, nil)
	if cfg.Datastore.Checkpoint {
		m.WithCheckpointer(&datastore.WALCheckpointer{Mode: "PASSIVE", Log: log})
	}
	return m
}
