package toygrep

import "fmt"

// Plan splits view into workers contiguous, line-aligned ranges.
//
// The nominal size of each range is len(view)/workers; the last range absorbs
// the remainder. Every inner boundary is moved forward until it sits just past
// a newline or reaches the end of the file, so no line is split between two
// ranges. Ranges may be empty when the file has fewer lines than workers.
func Plan(view []byte, workers int) ([]ChunkRange, error) {
	if workers <= 0 {
		return nil, fmt.Errorf("%w: worker count must be >= 1, got %d", ErrInvalidConfig, workers)
	}

	size := int64(len(view))
	base := size / int64(workers)

	bounds := make([]int64, workers+1)
	bounds[workers] = size

	for i := 1; i < workers; i++ {
		b := max(int64(i)*base, bounds[i-1])
		for b < size && (b == 0 || view[b-1] != '\n') {
			b++
		}
		bounds[i] = b
	}

	ranges := make([]ChunkRange, workers)
	for i := range ranges {
		ranges[i] = ChunkRange{Start: bounds[i], End: bounds[i+1]}
	}

	return ranges, nil
}

// CheckRanges verifies that ranges exactly cover view without gaps or
// overlaps and that no boundary falls inside a line.
func CheckRanges(ranges []ChunkRange, view []byte) error {
	size := int64(len(view))
	if len(ranges) == 0 {
		return fmt.Errorf("%w: no ranges", ErrRangeOutOfBounds)
	}

	if ranges[0].Start != 0 {
		return fmt.Errorf("%w: first range starts at %d", ErrRangeOutOfBounds, ranges[0].Start)
	}

	if last := ranges[len(ranges)-1]; last.End != size {
		return fmt.Errorf("%w: last range ends at %d, file size %d", ErrRangeOutOfBounds, last.End, size)
	}

	for i, r := range ranges {
		if r.Start > r.End {
			return fmt.Errorf("%w: range %d is inverted %s", ErrRangeOutOfBounds, i, r)
		}

		if i > 0 && ranges[i-1].End != r.Start {
			return fmt.Errorf("%w: gap or overlap between range %d and %d", ErrRangeOutOfBounds, i-1, i)
		}

		if r.Start > 0 && r.Start < size && view[r.Start-1] != '\n' {
			return fmt.Errorf("%w: range %d starts inside a line at %d", ErrRangeOutOfBounds, i, r.Start)
		}
	}

	return nil
}
