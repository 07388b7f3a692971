package toygrep

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Stage names used in errors and logs.
const (
	StageSetup   = "setup"
	StagePlan    = "plan"
	StageExtract = "extract"
	StageMerge   = "merge"
	StageReport  = "report"
)

// Pipeline runs planner → extractors → merge → report for one input file.
type Pipeline struct {
	cfg     *Config
	logger  *zap.Logger
	sorter  Sorter
	counter Counter
	runID   string
	sm      *stateMachine
}

// New validates cfg and prepares a run. Nothing is opened until Run.
func New(cfg *Config) (*Pipeline, error) {
	if cfg == nil {
		return nil, stageErr(StageSetup, fmt.Errorf("%w: config can't be nil", ErrInvalidConfig))
	}

	if err := cfg.validate(); err != nil {
		return nil, stageErr(StageSetup, err)
	}

	p := &Pipeline{
		cfg:     cfg,
		logger:  cfg.Logger,
		sorter:  cfg.Sorter,
		counter: cfg.Counter,
		runID:   uuid.New().String(),
	}
	if p.logger == nil {
		p.logger = zap.NewNop()
	}
	if p.sorter == nil {
		p.sorter = FieldSorter{Field: cfg.Field}
	}
	if p.counter == nil {
		p.counter = LineCounter{}
	}
	p.logger = p.logger.With(zap.String("run_id", p.runID))
	p.sm = newStateMachine(p.runID, cfg.Observer)

	return p, nil
}

// RunID returns the unique id of this run.
func (p *Pipeline) RunID() string {
	return p.runID
}

// State returns the current lifecycle state.
func (p *Pipeline) State() State {
	return p.sm.State()
}

// Transitions returns the state changes observed so far.
func (p *Pipeline) Transitions() []Transition {
	return p.sm.History()
}

// Run executes the pipeline to completion or failure. A Pipeline runs once.
// The returned Result is always non-nil.
func (p *Pipeline) Run(ctx context.Context) (*Result, error) {
	res := &Result{
		RunID:      p.runID,
		OutputPath: p.cfg.OutputPath,
		StartedAt:  time.Now(),
	}

	if p.sm.State() != StatePlanned {
		err := fmt.Errorf("%w: pipeline %s already ran", ErrInvalidTransition, p.runID)
		res.Err = err
		res.State = p.sm.State()
		return res, err
	}

	p.logger.Info("Starting run",
		zap.String("input", p.cfg.InputPath),
		zap.String("output", p.cfg.OutputPath),
		zap.Int("workers", p.cfg.Workers),
		zap.String("sorter", p.sorter.Name()),
		zap.String("counter", p.counter.Name()))

	err := p.run(ctx, res)
	if err != nil {
		p.sm.fail(err)
		res.Err = err
		p.logger.Error("Run failed", zap.Error(err))
	}

	res.CompletedAt = time.Now()
	res.State = p.sm.State()

	if err == nil {
		p.logger.Info("Run completed",
			zap.Int64("matched", res.Matched),
			zap.Int64("lines", res.LineCount),
			zap.Duration("duration", res.CompletedAt.Sub(res.StartedAt)))
	}

	return res, err
}

func (p *Pipeline) run(ctx context.Context, res *Result) error {
	kw, err := NewKeyword(p.cfg.Keyword)
	if err != nil {
		return stageErr(StageSetup, fmt.Errorf("%w: %w", ErrInvalidConfig, err))
	}
	if kw.Len() > MaxKeywordLen {
		p.logger.Warn("Keyword longer than compatibility limit",
			zap.Int("length", kw.Len()), zap.Int("limit", MaxKeywordLen))
	}

	in, err := OpenInput(p.cfg.InputPath)
	if err != nil {
		return stageErr(StageSetup, err)
	}
	defer func() {
		if cerr := in.Close(); cerr != nil {
			p.logger.Warn("Closing input failed", zap.Error(cerr))
		}
	}()

	view := in.Bytes()
	res.InputSize = in.Size()

	ranges, err := Plan(view, p.cfg.Workers)
	if err != nil {
		return stageErr(StagePlan, err)
	}
	if err := CheckRanges(ranges, view); err != nil {
		return stageErr(StagePlan, err)
	}
	p.logger.Debug("Planned chunks",
		zap.Int("chunks", len(ranges)),
		zap.String("size", humanize.Bytes(uint64(res.InputSize))))

	out, err := os.OpenFile(p.cfg.OutputPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return stageErr(StageSetup, fmt.Errorf("%w: %w", ErrOpenOutput, err))
	}
	outClosed := false
	defer func() {
		if !outClosed {
			out.Close()
		}
	}()

	if err := p.sm.advance(StateExtracting); err != nil {
		return stageErr(StageExtract, err)
	}

	stream := NewStream(p.cfg.StreamBuffer)

	mergeStart := time.Now()
	mergeDone := make(chan error, 1)
	go func() {
		err := p.merge(ctx, stream.Reader(), out)
		// a sorter that stops reading must not leave producers blocked
		stream.Abort()
		mergeDone <- err
	}()

	extractStart := time.Now()
	var extractErr error
	res.Chunks, extractErr = p.extractAll(view, ranges, kw, stream)
	stream.Seal()
	res.ExtractDuration = time.Since(extractStart)

	var chunkErrs []error
	for _, c := range res.Chunks {
		res.Matched += c.Stats.LinesMatched
		if c.Err != nil {
			chunkErrs = append(chunkErrs, c.Err)
		}
	}

	// the merge stage is always awaited, even after extractor failures
	mergeErr := <-mergeDone
	res.MergeDuration = time.Since(mergeStart)

	// extractors cut off by a failed merge stage report the merge failure
	if mergeErr != nil && allStreamClosed(chunkErrs) {
		return stageErr(StageMerge, mergeErr)
	}

	if extractErr != nil {
		p.logger.Error("Extractors failed",
			zap.Int("failed", len(chunkErrs)),
			zap.Int("total", len(res.Chunks)),
			zap.NamedError("first", extractErr))

		errs := chunkErrs
		if mergeErr != nil {
			errs = append(errs, stageErr(StageMerge, mergeErr))
		}
		return stageErr(StageExtract, errors.Join(errs...))
	}

	if err := p.sm.advance(StateMerging); err != nil {
		return stageErr(StageMerge, err)
	}

	if mergeErr != nil {
		return stageErr(StageMerge, mergeErr)
	}

	if err := out.Sync(); err != nil {
		return stageErr(StageMerge, fmt.Errorf("%w: sync %s: %w", ErrWriteOutput, p.cfg.OutputPath, err))
	}
	outClosed = true
	if err := out.Close(); err != nil {
		return stageErr(StageMerge, fmt.Errorf("%w: close %s: %w", ErrWriteOutput, p.cfg.OutputPath, err))
	}
	p.logger.Debug("Merge finished", zap.Duration("duration", res.MergeDuration))

	if err := p.sm.advance(StateReporting); err != nil {
		return stageErr(StageReport, err)
	}

	reportStart := time.Now()
	count, err := p.count(ctx)
	res.ReportDuration = time.Since(reportStart)
	if err != nil {
		return stageErr(StageReport, err)
	}
	res.LineCount = count

	return p.sm.advance(StateDone)
}

func allStreamClosed(errs []error) bool {
	for _, err := range errs {
		if !errors.Is(err, ErrStreamClosed) {
			return false
		}
	}
	return true
}

// extractAll runs one extractor per range and waits for all of them. A failed
// or panicking extractor never stops its siblings. Every outcome is in the
// returned results; the error is the first failure to arrive.
func (p *Pipeline) extractAll(view []byte, ranges []ChunkRange, kw Keyword, stream *Stream) ([]ChunkResult, error) {
	results := make([]ChunkResult, len(ranges))

	var g errgroup.Group
	for i, r := range ranges {
		producer := stream.Producer()
		g.Go(func() error {
			defer producer.Close()
			results[i] = p.extractChunk(i, view, r, kw, producer)
			return results[i].Err
		})
	}

	return results, g.Wait()
}

func (p *Pipeline) extractChunk(i int, view []byte, r ChunkRange, kw Keyword, producer *Producer) (res ChunkResult) {
	res = ChunkResult{Index: i, Range: r}
	log := p.logger.With(zap.Int("chunk", i), zap.Int64("start", r.Start), zap.Int64("end", r.End))

	defer func() {
		if rec := recover(); rec != nil {
			res.Err = fmt.Errorf("%w: chunk %d %s: %v", ErrExtractorPanic, i, r, rec)
			log.Error("[EXTRACTOR] Panic recovered", zap.Any("panic", rec))
		}
	}()

	if r.Empty() {
		log.Debug("[EXTRACTOR] Empty chunk, nothing to scan")
		return res
	}

	stats, err := extract(view, r, kw, producer.WriteLine, p.cfg.OnScanned)
	res.Stats = stats
	if err != nil {
		res.Err = fmt.Errorf("chunk %d %s: %w", i, r, err)
		log.Error("[EXTRACTOR] Chunk failed", zap.Error(err))
		return res
	}

	log.Debug("[EXTRACTOR] Chunk done",
		zap.Int64("lines", stats.LinesScanned),
		zap.Int64("matched", stats.LinesMatched))

	return res
}

func (p *Pipeline) merge(ctx context.Context, in io.Reader, out io.Writer) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("%w: sorter %s panicked: %v", ErrSortFailed, p.sorter.Name(), rec)
		}
	}()

	if err := p.sorter.Sort(ctx, in, out); err != nil {
		if KindOf(err) == KindUnknown {
			return fmt.Errorf("%w: %w", ErrSortFailed, err)
		}
		return err
	}

	return nil
}

func (p *Pipeline) count(ctx context.Context) (n int64, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("%w: counter %s panicked: %v", ErrCountFailed, p.counter.Name(), rec)
		}
	}()

	n, err = p.counter.Count(ctx, p.cfg.OutputPath)
	if err != nil && KindOf(err) == KindUnknown {
		return n, fmt.Errorf("%w: %w", ErrCountFailed, err)
	}

	return n, err
}
