package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"deepresearch/internal/logging"
	"deepresearch/internal/logs"
)

func newLogsCommand(ctx *commandContext) *cobra.Command {
	var (
		lines     int
		follow    bool
		raw       bool
		runID     string
		component string
		level     string
	)

	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Show recent log records",
		Long: `Show records from the JSON log file under paths.log_dir.

Use --run with the trace id printed at the start of a run to see only that
run's records.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			filter := logs.Filter{RunID: runID, Component: component}
			if level != "" {
				minLevel, err := logs.ParseLevel(level)
				if err != nil {
					return err
				}
				filter.MinLevel = minLevel
			}

			path := logging.FilePath(cfg)
			tailer := logs.NewTailer(path, filter, 0)
			records, offset, err := tailer.Last(lines)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			emit := func(rec logs.Record) error {
				return printRecord(out, rec, raw)
			}
			if len(records) == 0 && !follow {
				fmt.Fprintf(cmd.ErrOrStderr(), "No matching log records in %s\n", path)
				return nil
			}
			for _, rec := range records {
				if err := emit(rec); err != nil {
					return err
				}
			}
			if !follow {
				return nil
			}
			return tailer.Follow(cmd.Context(), offset, emit)
		},
	}

	cmd.Flags().IntVarP(&lines, "lines", "n", 50, "Number of records to show")
	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "Keep printing new records")
	cmd.Flags().BoolVar(&raw, "raw", false, "Print the JSON lines unchanged")
	cmd.Flags().StringVar(&runID, "run", "", "Only records for this trace id")
	cmd.Flags().StringVar(&component, "component", "", "Only records from this component (planner, search, writer, ...)")
	cmd.Flags().StringVar(&level, "level", "", "Minimum level (debug, info, warn, error)")
	return cmd
}

func printRecord(w io.Writer, rec logs.Record, raw bool) error {
	line := rec.Format()
	if raw {
		line = rec.Raw
	}
	_, err := fmt.Fprintln(w, line)
	return err
}
