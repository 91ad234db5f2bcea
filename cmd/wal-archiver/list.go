package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/goccy/go-json"
	"github.com/spf13/cobra"
)

// archiveRow mirrors snapshot.Archive field for field.
type archiveRow struct {
	Path      string    `json:"path"`
	Name      string    `json:"name"`
	Timestamp time.Time `json:"timestamp"`
	Size      int64     `json:"size"`
	ModTime   time.Time `json:"modTime"`
}

func (a *app) listCmd() *cobra.Command {
	var dir string
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List backup archives, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			archives, err := a.manager.List(dir)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				rows := make([]archiveRow, 0, len(archives))
				for _, arc := range archives {
					rows = append(rows, archiveRow(arc))
				}
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(rows)
			}

			if len(archives) == 0 {
				fmt.Fprintln(out, "no archives")
				return nil
			}

			tw := tabwriter.NewWriter(out, 0, 1, 2, ' ', 0)
			fmt.Fprintln(tw, "NAME\tSIZE\tAGE")
			for _, arc := range archives {
				fmt.Fprintf(tw, "%s\t%s\t%s\n", arc.Name, humanize.Bytes(uint64(arc.Size)), humanize.Time(arc.ModTime))
			}
			return tw.Flush()
		},
	}
	cmd.Flags().StringVar(&dir, "dir", "", "backup dir (default backup.dir)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}

func (a *app) inspectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <archive>",
		Short: "List the files inside an archive",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			items, err := a.manager.Contents(args[0])
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 1, 2, ' ', 0)
			fmt.Fprintln(tw, "FILE\tSIZE\tMODIFIED")
			for _, it := range items {
				fmt.Fprintf(tw, "%s\t%s\t%s\n", it.Name, humanize.Bytes(uint64(it.Size)), it.ModTime.Format(time.DateTime))
			}
			return tw.Flush()
		},
	}
}
