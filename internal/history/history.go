// Package history keeps one record per pipeline run in a storage.Backend.
package history

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"pkg.jsn.cam/toygrep/pkg/storage"
	"pkg.jsn.cam/toygrep/pkg/toygrep"
)

var runsBucket = []byte("runs")

// ErrNotFound is returned by Get for an unknown run id.
var ErrNotFound = errors.New("run not found")

// ChunkRecord is the persisted outcome of one extractor.
type ChunkRecord struct {
	Error   string `json:"error,omitempty"`
	Start   int64  `json:"start"`
	End     int64  `json:"end"`
	Bytes   int64  `json:"bytes"`
	Lines   int64  `json:"lines"`
	Matched int64  `json:"matched"`
}

// TransitionRecord is a persisted state change.
type TransitionRecord struct {
	At    time.Time     `json:"at"`
	Error string        `json:"error,omitempty"`
	From  toygrep.State `json:"from"`
	To    toygrep.State `json:"to"`
}

// Record describes one run.
type Record struct {
	StartedAt   time.Time `json:"started_at"`
	CompletedAt time.Time `json:"completed_at,omitzero"`

	ID      string        `json:"id"`
	Input   string        `json:"input"`
	Output  string        `json:"output"`
	Keyword string        `json:"keyword"`
	Sorter  string        `json:"sorter,omitempty"`
	Counter string        `json:"counter,omitempty"`
	State   toygrep.State `json:"state"`
	Error   string        `json:"error,omitempty"`

	Chunks      []ChunkRecord      `json:"chunks,omitempty"`
	Transitions []TransitionRecord `json:"transitions,omitempty"`

	Workers   int   `json:"workers"`
	Field     int   `json:"field"`
	InputSize int64 `json:"input_size"`
	Matched   int64 `json:"matched"`
	LineCount int64 `json:"line_count"`
}

// Duration returns how long the run took, or zero if it never completed.
func (r *Record) Duration() time.Duration {
	if r.CompletedAt.IsZero() {
		return 0
	}

	return r.CompletedAt.Sub(r.StartedAt)
}

// Store persists run records.
type Store struct {
	backend storage.Backend
}

// NewStore creates a store on backend, creating its bucket if needed.
func NewStore(backend storage.Backend) (*Store, error) {
	if err := backend.CreateBucket(runsBucket); err != nil {
		return nil, fmt.Errorf("failed to create bucket: %w", err)
	}

	return &Store{backend: backend}, nil
}

// Save writes rec, replacing any record with the same id.
func (s *Store) Save(rec *Record) error {
	if rec.ID == "" {
		return errors.New("record id is required")
	}

	return storage.PutJSON(s.backend, runsBucket, []byte(rec.ID), rec)
}

// Get loads the record for id.
func (s *Store) Get(id string) (*Record, error) {
	var rec Record
	found, err := storage.GetJSON(s.backend, runsBucket, []byte(id), &rec)
	if err != nil {
		return nil, err
	}

	if !found {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	return &rec, nil
}

// List returns up to limit records, newest first. limit <= 0 returns all.
func (s *Store) List(limit int) ([]*Record, error) {
	var records []*Record
	err := storage.ForEachJSON(s.backend, runsBucket, func(_ []byte, rec Record) error {
		records = append(records, &rec)
		return nil
	})
	if err != nil {
		return nil, err
	}

	slices.SortStableFunc(records, func(a, b *Record) int {
		if c := b.StartedAt.Compare(a.StartedAt); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})

	if limit > 0 && len(records) > limit {
		records = records[:limit]
	}

	return records, nil
}

// Delete removes the record for id. Deleting an unknown id is not an error.
func (s *Store) Delete(id string) error {
	return s.backend.Delete(runsBucket, []byte(id))
}

// Close closes the underlying backend.
func (s *Store) Close() error {
	return s.backend.Close()
}
