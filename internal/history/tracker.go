package history

import (
	"go.uber.org/zap"

	"pkg.jsn.cam/toygrep/pkg/toygrep"
)

// Tracker keeps a run's record current as the pipeline moves through its
// states. Observe is meant to be passed to toygrep.WithObserver; every
// transition is saved so a run that dies midway still leaves a record.
//
// A Tracker is used by a single run and is not safe for concurrent use.
type Tracker struct {
	store  *Store
	logger *zap.Logger
	rec    *Record
}

// NewTracker starts tracking a run described by cfg.
func NewTracker(store *Store, cfg *toygrep.Config, logger *zap.Logger) *Tracker {
	if logger == nil {
		logger = zap.NewNop()
	}

	rec := &Record{
		Input:   cfg.InputPath,
		Output:  cfg.OutputPath,
		Keyword: cfg.Keyword,
		Workers: cfg.Workers,
		Field:   cfg.Field,
		State:   toygrep.StatePlanned,
	}
	if cfg.Sorter != nil {
		rec.Sorter = cfg.Sorter.Name()
	}
	if cfg.Counter != nil {
		rec.Counter = cfg.Counter.Name()
	}

	return &Tracker{store: store, logger: logger, rec: rec}
}

// Record returns the record being tracked.
func (t *Tracker) Record() *Record {
	return t.rec
}

// Observe records a transition and persists the record.
func (t *Tracker) Observe(tr toygrep.Transition) {
	if t.rec.ID == "" {
		t.rec.ID = tr.RunID
		t.rec.StartedAt = tr.At
	}

	entry := TransitionRecord{At: tr.At, From: tr.From, To: tr.To}
	if tr.Err != nil {
		entry.Error = tr.Err.Error()
	}
	t.rec.Transitions = append(t.rec.Transitions, entry)
	t.rec.State = tr.To

	t.save()
}

// Finish copies the final result into the record and persists it.
func (t *Tracker) Finish(res *toygrep.Result) {
	if res == nil {
		return
	}

	t.rec.ID = res.RunID
	t.rec.StartedAt = res.StartedAt
	t.rec.CompletedAt = res.CompletedAt
	t.rec.State = res.State
	t.rec.InputSize = res.InputSize
	t.rec.Matched = res.Matched
	t.rec.LineCount = res.LineCount
	t.rec.Error = ""
	if res.Err != nil {
		t.rec.Error = res.Err.Error()
	}

	t.rec.Chunks = make([]ChunkRecord, 0, len(res.Chunks))
	for _, c := range res.Chunks {
		cr := ChunkRecord{
			Start:   c.Range.Start,
			End:     c.Range.End,
			Bytes:   c.Stats.BytesScanned,
			Lines:   c.Stats.LinesScanned,
			Matched: c.Stats.LinesMatched,
		}
		if c.Err != nil {
			cr.Error = c.Err.Error()
		}
		t.rec.Chunks = append(t.rec.Chunks, cr)
	}

	t.save()
}

// history is best effort; a failing store never fails the run
func (t *Tracker) save() {
	if t.rec.ID == "" {
		return
	}

	if err := t.store.Save(t.rec); err != nil {
		t.logger.Warn("[HISTORY] Failed to save run", zap.String("run_id", t.rec.ID), zap.Error(err))
	}
}
