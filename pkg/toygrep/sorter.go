package toygrep

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"slices"
	"strconv"
)

// DefaultSortField is the 1-based whitespace field the merge stage orders by.
const DefaultSortField = 5

// Sorter is the merge stage: it reads newline-terminated lines from in and
// writes them to out in a deterministic order.
type Sorter interface {
	Sort(ctx context.Context, in io.Reader, out io.Writer) error
	Name() string
}

// FieldSorter orders lines by SortKey, ascending and bytewise, the way
// LC_ALL=C sort -k<Field>,<Field> does. Lines with equal keys are ordered by
// their full content, so the output does not depend on arrival order.
type FieldSorter struct {
	Field int
}

func (s FieldSorter) Name() string {
	return "internal"
}

// Sort buffers all of in, sorts and writes it to out.
func (s FieldSorter) Sort(ctx context.Context, in io.Reader, out io.Writer) error {
	if s.Field < 1 {
		return fmt.Errorf("%w: sort field must be >= 1, got %d", ErrInvalidConfig, s.Field)
	}

	type keyed struct {
		key  []byte
		line []byte
	}

	var lines []keyed
	br := bufio.NewReaderSize(in, 64*1024)
	for {
		line, err := br.ReadBytes('\n')
		if len(line) > 0 {
			line = bytes.TrimSuffix(line, []byte{'\n'})
			lines = append(lines, keyed{key: SortKey(line, s.Field), line: line})
		}

		if err == io.EOF {
			break
		}

		if err != nil {
			return fmt.Errorf("%w: read merged stream: %w", ErrSortFailed, err)
		}
	}

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %w", ErrSortFailed, err)
	}

	slices.SortStableFunc(lines, func(a, b keyed) int {
		if c := bytes.Compare(a.key, b.key); c != 0 {
			return c
		}
		return bytes.Compare(a.line, b.line)
	})

	bw := bufio.NewWriterSize(out, 64*1024)
	for _, l := range lines {
		if _, err := bw.Write(l.line); err != nil {
			return fmt.Errorf("%w: %w", ErrWriteOutput, err)
		}
		if err := bw.WriteByte('\n'); err != nil {
			return fmt.Errorf("%w: %w", ErrWriteOutput, err)
		}
	}

	if err := bw.Flush(); err != nil {
		return fmt.Errorf("%w: %w", ErrWriteOutput, err)
	}

	return nil
}

// Field returns the n-th (1-based) maximal run of non-blank bytes in line,
// or nil when the line has fewer fields.
func Field(line []byte, n int) []byte {
	i := 0
	for field := 1; ; field++ {
		for i < len(line) && isBlank(line[i]) {
			i++
		}

		if i == len(line) {
			return nil
		}

		start := i
		for i < len(line) && !isBlank(line[i]) {
			i++
		}

		if field == n {
			return line[start:i]
		}
	}
}

// SortKey returns the key sort(1) uses for -k<n>,<n> without -b: field n
// together with the blanks that precede it. Blanks are space and tab, as in
// the C locale; any other byte, '\r' included, is field content. The key is
// empty when the line has fewer than n fields.
func SortKey(line []byte, n int) []byte {
	start := 0
	for range n - 1 {
		start = skipField(line, start)
	}

	return line[start:skipField(line, start)]
}

// skipField advances past one run of blanks and the non-blank run after it.
func skipField(line []byte, i int) int {
	for i < len(line) && isBlank(line[i]) {
		i++
	}
	for i < len(line) && !isBlank(line[i]) {
		i++
	}

	return i
}

func isBlank(c byte) bool {
	return c == ' ' || c == '\t'
}

// ExecSorter delegates to the system sort(1) with -k<Field>,<Field>.
type ExecSorter struct {
	// Path is the sort binary; "sort" is resolved through PATH.
	Path  string
	Field int
}

func (s ExecSorter) Name() string {
	return "exec"
}

func (s ExecSorter) Sort(ctx context.Context, in io.Reader, out io.Writer) error {
	if s.Field < 1 {
		return fmt.Errorf("%w: sort field must be >= 1, got %d", ErrInvalidConfig, s.Field)
	}

	path := s.Path
	if path == "" {
		path = "sort"
	}

	k := strconv.Itoa(s.Field)
	cmd := exec.CommandContext(ctx, path, "-k"+k+","+k)
	cmd.Env = append(os.Environ(), "LC_ALL=C")
	cmd.Stdin = in
	cmd.Stdout = out

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if msg := bytes.TrimSpace(stderr.Bytes()); len(msg) > 0 {
			return fmt.Errorf("%w: %s: %w: %s", ErrSortFailed, path, err, msg)
		}
		return fmt.Errorf("%w: %s: %w", ErrSortFailed, path, err)
	}

	return nil
}
