package toygrep

import (
	"bytes"
	"fmt"
	"iter"
	"sync/atomic"
)

// Extract returns the lines of view[r.Start:r.End] that contain kw, in file
// order and with their original casing. Line terminators are not included.
// A range outside view yields a single ErrRangeOutOfBounds error and no
// lines.
//
// The sequence can be consumed once; later iterations yield nothing. The
// returned slices alias view and must not be modified.
func Extract(view []byte, r ChunkRange, kw Keyword) iter.Seq2[[]byte, error] {
	var used atomic.Bool

	return func(yield func([]byte, error) bool) {
		if used.Swap(true) {
			return
		}

		if err := checkBounds(view, r); err != nil {
			yield(nil, err)
			return
		}

		var scratch []byte
		scanLines(view[r.Start:r.End], func(line []byte) bool {
			var ok bool
			ok, scratch = kw.Matches(line, scratch)
			if ok {
				return yield(line, nil)
			}

			return true
		})
	}
}

// ExtractTo scans r and calls emit for every matching line. It stops at the
// first emit error.
func ExtractTo(view []byte, r ChunkRange, kw Keyword, emit func([]byte) error) (Stats, error) {
	return extract(view, r, kw, emit, nil)
}

// progressStep is how many scanned bytes accumulate before progress is reported.
const progressStep = 1 << 20

func extract(view []byte, r ChunkRange, kw Keyword, emit func([]byte) error, progress func(int64)) (Stats, error) {
	var stats Stats
	if err := checkBounds(view, r); err != nil {
		return stats, err
	}

	var (
		scratch  []byte
		emitErr  error
		reported int64
	)
	scanLines(view[r.Start:r.End], func(line []byte) bool {
		stats.LinesScanned++
		stats.BytesScanned = min(stats.BytesScanned+int64(len(line))+1, r.Len())

		if progress != nil && stats.BytesScanned-reported >= progressStep {
			progress(stats.BytesScanned - reported)
			reported = stats.BytesScanned
		}

		var ok bool
		ok, scratch = kw.Matches(line, scratch)
		if !ok {
			return true
		}

		if emitErr = emit(line); emitErr != nil {
			return false
		}
		stats.LinesMatched++

		return true
	})

	if progress != nil && stats.BytesScanned > reported {
		progress(stats.BytesScanned - reported)
	}

	return stats, emitErr
}

func checkBounds(view []byte, r ChunkRange) error {
	if r.Start < 0 || r.End > int64(len(view)) || r.Start > r.End {
		return fmt.Errorf("%w: %s for file of %d bytes", ErrRangeOutOfBounds, r, len(view))
	}

	return nil
}

// scanLines calls fn for each line in data, without its trailing newline.
// A final segment with no newline is still a line; an empty data yields none.
func scanLines(data []byte, fn func(line []byte) bool) {
	for len(data) > 0 {
		i := bytes.IndexByte(data, '\n')
		if i < 0 {
			fn(data)
			return
		}

		if !fn(data[:i]) {
			return
		}
		data = data[i+1:]
	}
}
