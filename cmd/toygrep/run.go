package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"strconv"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"pkg.jsn.cam/toygrep/internal/history"
	"pkg.jsn.cam/toygrep/pkg/storage"
	"pkg.jsn.cam/toygrep/pkg/toygrep"
)

func runExtract(cmd *cobra.Command, opts *options, args []string) error {
	input, output, keyword := args[0], args[1], args[3]

	workers, err := parseWorkers(args[2], opts.fileCfg.Workers)
	if err != nil {
		return err
	}

	cfg, err := opts.pipelineConfig(cmd, input, output, keyword, workers)
	if err != nil {
		return err
	}

	if opts.progress {
		if bar := newProgressBar(input); bar != nil {
			cfg.OnScanned = func(n int64) { _ = bar.Add64(n) }
			defer bar.Finish()
		}
	}

	var tracker *history.Tracker
	if store := opts.openHistory(); store != nil {
		defer store.Close()
		tracker = history.NewTracker(store, cfg, opts.logger)
		cfg.Observer = tracker.Observe
	}

	p, err := toygrep.New(cfg)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	res, err := p.Run(ctx)
	if tracker != nil {
		tracker.Finish(res)
	}
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%d %s\n", res.LineCount, res.OutputPath)

	return nil
}

// parseWorkers accepts a positive count or "auto".
func parseWorkers(arg string, configured int) (int, error) {
	if arg == "auto" {
		if configured > 0 {
			return configured, nil
		}
		return runtime.NumCPU(), nil
	}

	n, err := strconv.Atoi(arg)
	if err != nil {
		return 0, fmt.Errorf("%w: worker_count %q is not a number", toygrep.ErrInvalidConfig, arg)
	}
	if n <= 0 {
		return 0, fmt.Errorf("%w: worker_count must be >= 1, got %d", toygrep.ErrInvalidConfig, n)
	}

	return n, nil
}

func (o *options) pipelineConfig(cmd *cobra.Command, input, output, keyword string, workers int) (*toygrep.Config, error) {
	fc := o.fileCfg

	field := fc.Field
	if cmd.Flags().Changed("field") || field <= 0 {
		field = o.field
	}
	if o.sorter != "" {
		fc.Sorter = o.sorter
	}
	if o.counter != "" {
		fc.Counter = o.counter
	}

	sorter, err := fc.NewSorter(field)
	if err != nil {
		return nil, err
	}
	counter, err := fc.NewCounter()
	if err != nil {
		return nil, err
	}

	opts := []toygrep.Option{
		toygrep.WithWorkers(workers),
		toygrep.WithField(field),
		toygrep.WithSorter(sorter),
		toygrep.WithCounter(counter),
		toygrep.WithLogger(o.logger),
	}
	if fc.Buffer > 0 {
		opts = append(opts, toygrep.WithStreamBuffer(fc.Buffer))
	}

	return toygrep.NewConfig(input, output, keyword, opts...), nil
}

// openHistory returns nil when history is disabled or unavailable; a broken
// history database never blocks a run.
func (o *options) openHistory() *history.Store {
	if o.historyPath == "" {
		return nil
	}

	backend, err := storage.Open(o.historyPath, time.Second)
	if err != nil {
		o.logger.Warn("History disabled", zap.String("path", o.historyPath), zap.Error(err))
		return nil
	}

	store, err := history.NewStore(backend)
	if err != nil {
		backend.Close()
		o.logger.Warn("History disabled", zap.String("path", o.historyPath), zap.Error(err))
		return nil
	}

	return store
}

func newProgressBar(input string) *progressbar.ProgressBar {
	info, err := os.Stat(input)
	if err != nil || info.Size() == 0 {
		return nil
	}

	return progressbar.DefaultBytes(info.Size(), "scanning")
}
