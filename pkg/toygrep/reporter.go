package toygrep

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strconv"
)

// Counter is the report stage: it counts the lines of a finished file.
type Counter interface {
	Count(ctx context.Context, path string) (int64, error)
	Name() string
}

// LineCounter counts newline bytes, like wc -l.
type LineCounter struct{}

func (LineCounter) Name() string {
	return "internal"
}

func (LineCounter) Count(ctx context.Context, path string) (int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrCountFailed, err)
	}
	defer f.Close()

	var (
		n   int64
		buf = make([]byte, 64*1024)
	)
	for {
		read, err := f.Read(buf)
		n += int64(bytes.Count(buf[:read], []byte{'\n'}))

		if errors.Is(err, io.EOF) {
			return n, nil
		}

		if err != nil {
			return n, fmt.Errorf("%w: read %s: %w", ErrCountFailed, path, err)
		}

		if err := ctx.Err(); err != nil {
			return n, fmt.Errorf("%w: %w", ErrCountFailed, err)
		}
	}
}

// ExecCounter delegates to the system wc(1).
type ExecCounter struct {
	// Path is the wc binary; "wc" is resolved through PATH.
	Path string
}

func (ExecCounter) Name() string {
	return "exec"
}

func (c ExecCounter) Count(ctx context.Context, path string) (int64, error) {
	bin := c.Path
	if bin == "" {
		bin = "wc"
	}

	out, err := exec.CommandContext(ctx, bin, "-l", path).Output()
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %w", ErrCountFailed, bin, err)
	}

	sc := bufio.NewScanner(bytes.NewReader(out))
	sc.Split(bufio.ScanWords)
	if !sc.Scan() {
		return 0, fmt.Errorf("%w: %s: empty output", ErrCountFailed, bin)
	}

	n, err := strconv.ParseInt(sc.Text(), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %s: parse %q: %w", ErrCountFailed, bin, sc.Text(), err)
	}

	return n, nil
}
