package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"pkg.jsn.cam/toygrep/pkg/toygrep"
)

type options struct {
	configPath  string
	historyPath string
	sorter      string
	counter     string
	field       int
	limit       int
	progress    bool
	verbose     bool

	fileCfg *toygrep.FileConfig
	logger  *zap.Logger
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:   "toygrep <input_file> <output_file> <worker_count> <keyword>",
		Short: "Parallel case-insensitive keyword extraction",
		Long: `Splits the input file into line-aligned chunks, scans them concurrently for
the keyword (ASCII case-insensitive substring), merges the matching lines
sorted by a blank-delimited field and writes them to the output file.

worker_count is a positive integer, or "auto" to use the config file's
workers setting (falling back to the number of CPUs).

On success prints "<line_count> <output_file>".`,
		Args: cobra.ExactArgs(4),
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.setup()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if opts.logger != nil {
				_ = opts.logger.Sync()
			}
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExtract(cmd, opts, args)
		},
		SilenceUsage: true,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&opts.configPath, "config", "toygrep.yaml", "YAML config file with defaults")
	pf.StringVar(&opts.historyPath, "history", "", "bbolt run history database (empty disables)")
	pf.BoolVarP(&opts.verbose, "verbose", "v", false, "Enable debug logging")

	f := root.Flags()
	f.IntVar(&opts.field, "field", toygrep.DefaultSortField, "1-based field to sort matches by")
	f.StringVar(&opts.sorter, "sorter", "", "Merge stage: internal or exec (sort -k)")
	f.StringVar(&opts.counter, "counter", "", "Report stage: internal or exec (wc -l)")
	f.BoolVar(&opts.progress, "progress", false, "Show a progress bar on stderr")

	root.AddCommand(newHistoryCmd(opts))

	return root
}

// setup loads the config file and builds the logger. Flags override the
// file's values.
func (o *options) setup() error {
	fc, err := toygrep.LoadFileConfig(o.configPath)
	if err != nil {
		return err
	}
	o.fileCfg = fc

	if o.historyPath == "" {
		o.historyPath = fc.HistoryDB
	}

	config := zap.NewProductionConfig()
	if fc.LogLevel != "" {
		level, err := zap.ParseAtomicLevel(fc.LogLevel)
		if err != nil {
			return fmt.Errorf("%w: log_level: %w", toygrep.ErrInvalidConfig, err)
		}
		config.Level = level
	}
	if o.verbose {
		config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}

	o.logger, err = config.Build()
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	return nil
}
