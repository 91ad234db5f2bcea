package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/thejerf/suture/v4"

	"github.com/raoulx24/wal-archiver/internal/backup"
	"github.com/raoulx24/wal-archiver/internal/config"
	"github.com/raoulx24/wal-archiver/internal/httpapi"
	"github.com/raoulx24/wal-archiver/internal/logging"
	"github.com/raoulx24/wal-archiver/internal/mailbox"
	"github.com/raoulx24/wal-archiver/internal/watcher"
	"github.com/raoulx24/wal-archiver/internal/worker"
)

const exitBackupTimeout = 2 * time.Minute

func (a *app) runCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run scheduled backups until interrupted",
		Long: `Run starts the backup scheduler, the config watcher and, when http.listen
is set, the HTTP API. SIGHUP reloads the config. On SIGINT/SIGTERM the
services stop and, when backup.onExit is set, one last backup is taken.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.run(cmd.Context())
		},
	}
}

func (a *app) run(parent context.Context) error {
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	mb := mailbox.New[*config.Config]()

	w, err := worker.New(a.cfg, a.manager, a.log, mb)
	if err != nil {
		return err
	}
	watch := watcher.New(a.configPath, a.cfg.ConfigReload, a.log, mb)
	w.OnConfig(func(cfg *config.Config) { watch.UpdateConfig(cfg.ConfigReload) })

	sup := suture.New("wal-archiver", suture.Spec{
		EventHook:        supervisorHook(a.log),
		FailureThreshold: 5,
		FailureDecay:     30,
		FailureBackoff:   15 * time.Second,
		Timeout:          10 * time.Second,
	})
	sup.Add(w)
	if a.cfg.ConfigReload.Enabled {
		sup.Add(watch)
	}
	if a.cfg.HTTP.Listen != "" {
		sup.Add(httpapi.New(a.cfg.HTTP.Listen, a.manager, w.NextBackup, a.log))
	}

	go reloadOnSignal(ctx, watch)

	a.log.Info("daemon: started", "config", a.configPath, "datastores", a.cfg.DatastorePaths())
	if err := sup.Serve(ctx); err != nil && ctx.Err() == nil {
		a.log.Error("daemon: supervisor stopped", "error", err)
	}
	a.log.Info("daemon: shutting down")

	if w.Config().Backup.OnExit {
		a.exitBackup()
	}
	a.log.Info("daemon: exit complete")
	return nil
}

// exitBackup takes the final backup after every service has stopped.
func (a *app) exitBackup() {
	ctx, cancel := context.WithTimeout(context.Background(), exitBackupTimeout)
	defer cancel()

	path, err := a.manager.Backup(ctx, "")
	switch {
	case errors.Is(err, backup.ErrNothingToBackup):
		a.log.Warn("daemon: exit backup skipped, no datastore files found")
	case err != nil:
		a.log.Error("daemon: exit backup failed", "error", err)
	default:
		a.log.Info("daemon: exit backup written", "archive", path)
	}
}

// reloadOnSignal reloads the config on SIGHUP, whether or not the file
// watcher is enabled.
func reloadOnSignal(ctx context.Context, watch *watcher.Watcher) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGHUP)
	defer signal.Stop(sigCh)

	for {
		select {
		case <-ctx.Done():
			return
		case <-sigCh:
			watch.Trigger()
		}
	}
}

func supervisorHook(log logging.Logger) suture.EventHook {
	return func(e suture.Event) {
		log.Warn("supervisor: " + e.String())
	}
}
