package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"pkg.jsn.cam/toygrep/internal/history"
	"pkg.jsn.cam/toygrep/pkg/storage"
	"pkg.jsn.cam/toygrep/pkg/toygrep"
)

func newHistoryCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history [run_id]",
		Short: "List recorded runs, or show one run in detail",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.historyPath == "" {
				return fmt.Errorf("%w: no history database configured (use --history)", toygrep.ErrInvalidConfig)
			}
			if _, err := os.Stat(opts.historyPath); errors.Is(err, os.ErrNotExist) {
				fmt.Fprintln(cmd.OutOrStdout(), "No runs found")
				return nil
			}

			backend, err := storage.Open(opts.historyPath, time.Second)
			if err != nil {
				return err
			}
			store, err := history.NewStore(backend)
			if err != nil {
				backend.Close()
				return err
			}
			defer store.Close()

			if len(args) == 1 {
				rec, err := store.Get(args[0])
				if err != nil {
					return err
				}
				printRun(cmd.OutOrStdout(), rec)
				return nil
			}

			records, err := store.List(opts.limit)
			if err != nil {
				return err
			}
			printRuns(cmd.OutOrStdout(), records)
			return nil
		},
	}

	cmd.Flags().IntVarP(&opts.limit, "limit", "n", 20, "Maximum number of runs to list (0 for all)")

	return cmd
}

func printRuns(w io.Writer, records []*history.Record) {
	if len(records) == 0 {
		fmt.Fprintln(w, "No runs found")
		return
	}

	fmt.Fprintf(w, "%-36s %-10s %-12s %8s %9s %s\n", "RUN ID", "STATE", "STARTED", "INPUT", "MATCHED", "KEYWORD")
	fmt.Fprintln(w, "─────────────────────────────────────────────────────────────────────────────────────────")
	for _, rec := range records {
		fmt.Fprintf(w, "%-36s %-10s %-12s %8s %9s %s\n",
			rec.ID,
			rec.State,
			humanize.Time(rec.StartedAt),
			humanize.Bytes(uint64(rec.InputSize)),
			humanize.Comma(rec.Matched),
			rec.Keyword)
	}
}

func printRun(w io.Writer, rec *history.Record) {
	fmt.Fprintf(w, "Run Details:\n")
	fmt.Fprintf(w, "  ID:          %s\n", rec.ID)
	fmt.Fprintf(w, "  State:       %s\n", rec.State)
	fmt.Fprintf(w, "  Input:       %s (%s)\n", rec.Input, humanize.Bytes(uint64(rec.InputSize)))
	fmt.Fprintf(w, "  Output:      %s\n", rec.Output)
	fmt.Fprintf(w, "  Keyword:     %q\n", rec.Keyword)
	fmt.Fprintf(w, "  Workers:     %d\n", rec.Workers)
	fmt.Fprintf(w, "  Sort field:  %d\n", rec.Field)
	if rec.Sorter != "" || rec.Counter != "" {
		fmt.Fprintf(w, "  Stages:      sorter=%s counter=%s\n", rec.Sorter, rec.Counter)
	}
	fmt.Fprintf(w, "  Started:     %s\n", rec.StartedAt.Format("2006-01-02 15:04:05"))

	if !rec.CompletedAt.IsZero() {
		fmt.Fprintf(w, "  Completed:   %s\n", rec.CompletedAt.Format("2006-01-02 15:04:05"))
		fmt.Fprintf(w, "  Duration:    %v\n", rec.Duration())
	}

	fmt.Fprintf(w, "  Matched:     %s lines\n", humanize.Comma(rec.Matched))
	if rec.State == toygrep.StateDone {
		fmt.Fprintf(w, "  Reported:    %s lines\n", humanize.Comma(rec.LineCount))
	}

	if len(rec.Chunks) > 0 {
		fmt.Fprintf(w, "\nChunks:\n")
		for i, c := range rec.Chunks {
			fmt.Fprintf(w, "  %3d [%d, %d) %8s %9s lines %9s matched",
				i, c.Start, c.End,
				humanize.Bytes(uint64(c.Bytes)),
				humanize.Comma(c.Lines),
				humanize.Comma(c.Matched))
			if c.Error != "" {
				fmt.Fprintf(w, "  error: %s", c.Error)
			}
			fmt.Fprintln(w)
		}
	}

	if rec.Error != "" {
		fmt.Fprintf(w, "\nError: %s\n", rec.Error)
	}
}
