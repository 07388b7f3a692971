package toygrep

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// Config holds the settings for one extraction run.
type Config struct {
	// InputPath is the line-oriented file to search (required).
	InputPath string

	// OutputPath receives the sorted matches. It is created or truncated.
	OutputPath string

	// Keyword is matched as a case-insensitive substring (required).
	Keyword string

	// Workers is the number of concurrent extractors and of chunks the input
	// is split into. Must be >= 1.
	Workers int

	// Field is the 1-based blank-delimited field the merge stage sorts by.
	// Defaults to 5. It is validated even when Sorter is set.
	Field int

	// StreamBuffer is the number of lines buffered between extractors and the
	// merge stage.
	StreamBuffer int

	// Sorter is the merge stage. If nil, a FieldSorter on Field is used.
	Sorter Sorter

	// Counter is the report stage. If nil, LineCounter is used.
	Counter Counter

	// Observer is notified of every state transition. Optional.
	Observer StateObserver

	// OnScanned is called by extractors with the number of bytes they just
	// scanned. It must be safe for concurrent use. Optional.
	OnScanned func(n int64)

	Logger *zap.Logger
}

type Option func(*Config)

// WithWorkers sets the number of extractors.
func WithWorkers(n int) Option {
	return func(c *Config) {
		c.Workers = n
	}
}

// WithField sets the sort field.
func WithField(field int) Option {
	return func(c *Config) {
		c.Field = field
	}
}

// WithStreamBuffer sets the stream buffer size in lines.
func WithStreamBuffer(n int) Option {
	return func(c *Config) {
		c.StreamBuffer = n
	}
}

// WithSorter replaces the merge stage.
func WithSorter(s Sorter) Option {
	return func(c *Config) {
		c.Sorter = s
	}
}

// WithCounter replaces the report stage.
func WithCounter(counter Counter) Option {
	return func(c *Config) {
		c.Counter = counter
	}
}

// WithObserver sets the state observer.
func WithObserver(fn StateObserver) Option {
	return func(c *Config) {
		c.Observer = fn
	}
}

// WithProgress sets the scanned-bytes callback.
func WithProgress(fn func(n int64)) Option {
	return func(c *Config) {
		c.OnScanned = fn
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *Config) {
		c.Logger = l
	}
}

func defaultConfig() *Config {
	return &Config{
		Workers:      1,
		Field:        DefaultSortField,
		StreamBuffer: DefaultStreamBuffer,
	}
}

// NewConfig builds a Config for the given paths and keyword.
func NewConfig(input, output, keyword string, opts ...Option) *Config {
	cfg := defaultConfig()
	cfg.InputPath = input
	cfg.OutputPath = output
	cfg.Keyword = keyword

	for _, opt := range opts {
		opt(cfg)
	}

	return cfg
}

func (cfg *Config) validate() error {
	if cfg.InputPath == "" {
		return fmt.Errorf("%w: input path is required", ErrInvalidConfig)
	}

	if cfg.OutputPath == "" {
		return fmt.Errorf("%w: output path is required", ErrInvalidConfig)
	}

	if cfg.Keyword == "" {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, ErrEmptyKeyword)
	}

	if cfg.Workers <= 0 {
		return fmt.Errorf("%w: worker count must be >= 1, got %d", ErrInvalidConfig, cfg.Workers)
	}

	if cfg.Field < 1 {
		return fmt.Errorf("%w: sort field must be >= 1, got %d", ErrInvalidConfig, cfg.Field)
	}

	return nil
}

// FileConfig holds defaults read from a YAML file. Command-line flags
// override them.
type FileConfig struct {
	Workers   int    `yaml:"workers"`
	Field     int    `yaml:"field"`
	Sorter    string `yaml:"sorter"`
	Counter   string `yaml:"counter"`
	HistoryDB string `yaml:"history_db"`
	LogLevel  string `yaml:"log_level"`
	Buffer    int    `yaml:"stream_buffer"`
}

// DefaultFileConfig returns the built-in defaults.
func DefaultFileConfig() *FileConfig {
	return &FileConfig{
		Field:    DefaultSortField,
		Sorter:   "internal",
		Counter:  "internal",
		LogLevel: "info",
		Buffer:   DefaultStreamBuffer,
	}
}

// LoadFileConfig reads a YAML config. A missing file yields the defaults.
func LoadFileConfig(path string) (*FileConfig, error) {
	cfg := DefaultFileConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("%w: failed to parse config: %w", ErrInvalidConfig, err)
	}

	if _, err := cfg.NewSorter(cfg.Field); err != nil {
		return nil, err
	}

	if _, err := cfg.NewCounter(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// NewSorter resolves the configured sorter name.
func (fc *FileConfig) NewSorter(field int) (Sorter, error) {
	switch strings.ToLower(fc.Sorter) {
	case "", "internal":
		return FieldSorter{Field: field}, nil
	case "exec":
		return ExecSorter{Field: field}, nil
	default:
		return nil, fmt.Errorf("%w: unknown sorter %q", ErrInvalidConfig, fc.Sorter)
	}
}

// NewCounter resolves the configured counter name.
func (fc *FileConfig) NewCounter() (Counter, error) {
	switch strings.ToLower(fc.Counter) {
	case "", "internal":
		return LineCounter{}, nil
	case "exec":
		return ExecCounter{}, nil
	default:
		return nil, fmt.Errorf("%w: unknown counter %q", ErrInvalidConfig, fc.Counter)
	}
}
