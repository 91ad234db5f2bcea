package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func (a *app) backupCmd() *cobra.Command {
	var dir string

	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Create a backup archive now",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path, err := a.manager.Backup(cmd.Context(), dir)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	}
	cmd.Flags().StringVar(&dir, "dir", "", "destination dir (default backup.dir)")
	return cmd
}

func (a *app) restoreCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "restore <archive>",
		Short: "Restore datastore files from an archive",
		Long: `Restore extracts the archive next to the primary datastore and moves every
.db, .db-wal and .db-shm file into place. Files still held open are retried
for restore.attempts x restore.backoff before giving up.

The host application and the wal-archiver daemon must be stopped first.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.manager.Restore(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "restored %s\n", args[0])
			return nil
		},
	}
}

func (a *app) pruneCmd() *cobra.Command {
	var dir string
	var days int

	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Delete archives older than the retention window",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Flags().Changed("days") {
				opts := a.manager.Options()
				opts.RetentionDays = days
				a.manager.UpdateConfig(opts)
			}
			n := a.manager.Prune(dir)
			fmt.Fprintf(cmd.OutOrStdout(), "deleted %d archive(s)\n", n)
			return nil
		},
	}
	cmd.Flags().StringVar(&dir, "dir", "", "backup dir (default backup.dir)")
	cmd.Flags().IntVar(&days, "days", 0, "override backup.retentionDays")
	return cmd
}
