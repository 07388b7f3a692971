package integration

import (
	"bufio"
	"context"
	"math/rand/v2"
	"os"
	"os/exec"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"pkg.jsn.cam/toygrep/cmd/gendata/generator"
	"pkg.jsn.cam/toygrep/internal/history"
	"pkg.jsn.cam/toygrep/pkg/storage"
	"pkg.jsn.cam/toygrep/pkg/toygrep"
)

// writeGenerated writes n lines from the named generator with keyword planted
// in roughly rate of them, and returns the file path.
func writeGenerated(t *testing.T, name string, n int, keyword string, rate float64) string {
	t.Helper()

	g, err := generator.Get(name)
	if err != nil {
		t.Fatalf("Get(%q) failed: %v", name, err)
	}
	g = generator.Inject(g, keyword, rate)
	g.Init(rand.New(rand.NewPCG(42, 7)))

	path := filepath.Join(t.TempDir(), name+".log")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("Failed to create input: %v", err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	for range n {
		if err := g.WriteLine(w); err != nil {
			t.Fatalf("WriteLine failed: %v", err)
		}
	}
	if err := w.Flush(); err != nil {
		t.Fatalf("Flush failed: %v", err)
	}

	return path
}

// expectedMatches scans path line by line the simple way.
func expectedMatches(t *testing.T, path, keyword string) []string {
	t.Helper()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}

	var out []string
	for line := range strings.Lines(string(data)) {
		line = strings.TrimSuffix(line, "\n")
		if strings.Contains(strings.ToLower(line), strings.ToLower(keyword)) {
			out = append(out, line)
		}
	}

	return out
}

func readLines(t *testing.T, path string) []string {
	t.Helper()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if len(data) == 0 {
		return nil
	}

	return strings.Split(strings.TrimSuffix(string(data), "\n"), "\n")
}

func run(t *testing.T, input, keyword string, workers int, opts ...toygrep.Option) (string, *toygrep.Result) {
	t.Helper()

	output := filepath.Join(t.TempDir(), "out.txt")
	p, err := toygrep.New(toygrep.NewConfig(input, output, keyword, append([]toygrep.Option{toygrep.WithWorkers(workers)}, opts...)...))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	res, err := p.Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	return output, res
}

// TestGeneratedLogs runs every generator through the pipeline with several
// worker counts and checks the output against a sequential scan.
func TestGeneratedLogs(t *testing.T) {
	t.Parallel()

	for _, name := range generator.List() {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			input := writeGenerated(t, name, 20000, "Needle", 0.05)
			want := expectedMatches(t, input, "needle")
			if len(want) == 0 {
				t.Fatal("generator planted no keyword")
			}

			var first []string
			for _, workers := range []int{1, 3, 8, 64} {
				output, res := run(t, input, "NEEDLE", workers)

				got := readLines(t, output)
				if res.LineCount != int64(len(want)) {
					t.Errorf("workers=%d: LineCount = %d, want %d", workers, res.LineCount, len(want))
				}
				if res.Matched != int64(len(want)) {
					t.Errorf("workers=%d: Matched = %d, want %d", workers, res.Matched, len(want))
				}

				sortedGot := slices.Sorted(slices.Values(got))
				sortedWant := slices.Sorted(slices.Values(want))
				if !slices.Equal(sortedGot, sortedWant) {
					t.Fatalf("workers=%d: match set differs from sequential scan", workers)
				}

				// sorted output is byte-identical for every worker count
				if first == nil {
					first = got
				} else if !slices.Equal(first, got) {
					t.Errorf("workers=%d: output differs from workers=1", workers)
				}

				for i := 1; i < len(got); i++ {
					if string(toygrep.SortKey([]byte(got[i-1]), 5)) > string(toygrep.SortKey([]byte(got[i]), 5)) {
						t.Fatalf("workers=%d: output not sorted by field 5 at line %d", workers, i)
					}
				}
			}
		})
	}
}

// TestExecCollaborators checks sort(1) and wc(1) agree with the built-in stages.
func TestExecCollaborators(t *testing.T) {
	t.Parallel()

	for _, bin := range []string{"sort", "wc"} {
		if _, err := exec.LookPath(bin); err != nil {
			t.Skipf("%s not available: %v", bin, err)
		}
	}

	input := writeGenerated(t, "access", 5000, "error", 0.1)

	internalOut, internalRes := run(t, input, "error", 4)
	execOut, execRes := run(t, input, "error", 4,
		toygrep.WithSorter(toygrep.ExecSorter{Field: toygrep.DefaultSortField}),
		toygrep.WithCounter(toygrep.ExecCounter{}))

	if internalRes.LineCount != execRes.LineCount {
		t.Errorf("LineCount internal=%d exec=%d", internalRes.LineCount, execRes.LineCount)
	}

	// compare sort keys position by position, then the line sets
	internalLines := readLines(t, internalOut)
	execLines := readLines(t, execOut)
	if len(internalLines) != len(execLines) {
		t.Fatalf("line count internal=%d exec=%d", len(internalLines), len(execLines))
	}
	for i := range internalLines {
		ik := toygrep.SortKey([]byte(internalLines[i]), 5)
		ek := toygrep.SortKey([]byte(execLines[i]), 5)
		if string(ik) != string(ek) {
			t.Fatalf("line %d key internal=%q exec=%q", i, ik, ek)
		}
	}
	if !slices.Equal(slices.Sorted(slices.Values(internalLines)), slices.Sorted(slices.Values(execLines))) {
		t.Error("exec sorter produced a different line set")
	}
}

// TestEmptyFile runs the pipeline over an empty input file
func TestEmptyFile(t *testing.T) {
	t.Parallel()

	input := filepath.Join(t.TempDir(), "empty.txt")
	if err := os.WriteFile(input, nil, 0o644); err != nil {
		t.Fatalf("Failed to write: %v", err)
	}

	output, res := run(t, input, "x", 4)

	if res.LineCount != 0 {
		t.Errorf("LineCount = %d, want 0", res.LineCount)
	}
	if len(res.Chunks) != 4 {
		t.Errorf("got %d chunks, want 4", len(res.Chunks))
	}
	if got := readLines(t, output); len(got) != 0 {
		t.Errorf("expected empty output, got %v", got)
	}
}

// TestHistoryRoundTrip records a run in a bbolt database and reads it back
func TestHistoryRoundTrip(t *testing.T) {
	t.Parallel()

	input := writeGenerated(t, "applog", 2000, "needle", 0.1)
	output := filepath.Join(t.TempDir(), "out.txt")

	backend, err := storage.Open(filepath.Join(t.TempDir(), "history.db"), 0)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	store, err := history.NewStore(backend)
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}
	defer store.Close()

	cfg := toygrep.NewConfig(input, output, "needle", toygrep.WithWorkers(5))
	tracker := history.NewTracker(store, cfg, nil)
	cfg.Observer = tracker.Observe

	p, err := toygrep.New(cfg)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	res, err := p.Run(context.Background())
	tracker.Finish(res)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	records, err := store.List(0)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("got %d records, want 1", len(records))
	}

	rec := records[0]
	if rec.ID != p.RunID() || rec.State != toygrep.StateDone {
		t.Errorf("record = %s/%s, want %s/done", rec.ID, rec.State, p.RunID())
	}
	if rec.LineCount != res.LineCount || len(rec.Chunks) != 5 {
		t.Errorf("record LineCount=%d chunks=%d", rec.LineCount, len(rec.Chunks))
	}

	var total int64
	for _, c := range rec.Chunks {
		total += c.Bytes
	}
	if total != rec.InputSize {
		t.Errorf("chunk bytes sum to %d, want %d", total, rec.InputSize)
	}
}
