package toygrep

import (
	"fmt"
	"time"
)

// ChunkRange is a half-open byte interval [Start, End) of the input file.
// Start is 0 or follows a newline; End is the file size or the Start of the
// next range.
type ChunkRange struct {
	Start int64 `json:"start"`
	End   int64 `json:"end"`
}

// Len returns the number of bytes covered by the range.
func (r ChunkRange) Len() int64 {
	return r.End - r.Start
}

// Empty reports whether the range covers no bytes.
func (r ChunkRange) Empty() bool {
	return r.End <= r.Start
}

func (r ChunkRange) String() string {
	return fmt.Sprintf("[%d,%d)", r.Start, r.End)
}

// Stats counts what an extractor saw in its range.
type Stats struct {
	BytesScanned int64 `json:"bytes_scanned"`
	LinesScanned int64 `json:"lines_scanned"`
	LinesMatched int64 `json:"lines_matched"`
}

// ChunkResult is the outcome of one extractor.
type ChunkResult struct {
	Err   error      `json:"-"`
	Range ChunkRange `json:"range"`
	Index int        `json:"index"`
	Stats Stats      `json:"stats"`
}

// Result summarises a pipeline run.
type Result struct {
	StartedAt   time.Time     `json:"started_at"`
	CompletedAt time.Time     `json:"completed_at"`
	Err         error         `json:"-"`
	RunID       string        `json:"run_id"`
	State       State         `json:"state"`
	OutputPath  string        `json:"output_path"`
	Chunks      []ChunkResult `json:"chunks"`
	InputSize   int64         `json:"input_size"`
	Matched     int64         `json:"matched"`
	LineCount   int64         `json:"line_count"`

	ExtractDuration time.Duration `json:"extract_duration"`
	MergeDuration   time.Duration `json:"merge_duration"`
	ReportDuration  time.Duration `json:"report_duration"`
}

// FailedChunks returns the results of extractors that reported an error.
func (r *Result) FailedChunks() []ChunkResult {
	var failed []ChunkResult
	for _, c := range r.Chunks {
		if c.Err != nil {
			failed = append(failed, c)
		}
	}

	return failed
}
