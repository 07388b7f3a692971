package generator

import (
	"bytes"
	"math/rand/v2"
	"strings"
	"testing"
)

func generate(t *testing.T, g Generator, n int) []string {
	t.Helper()

	g.Init(rand.New(rand.NewPCG(1, 2)))

	var buf bytes.Buffer
	for range n {
		if err := g.WriteLine(&buf); err != nil {
			t.Fatalf("WriteLine failed: %v", err)
		}
	}

	out := buf.String()
	if !strings.HasSuffix(out, "\n") {
		t.Fatalf("output does not end with a newline")
	}

	return strings.Split(strings.TrimSuffix(out, "\n"), "\n")
}

func TestGenerators_FiveFields(t *testing.T) {
	for _, name := range List() {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			g, err := Get(name)
			if err != nil {
				t.Fatalf("Get(%q) failed: %v", name, err)
			}
			if g.Description() == "" || g.DefaultCount() <= 0 {
				t.Errorf("generator %s has no description or default count", name)
			}

			lines := generate(t, g, 500)
			if len(lines) != 500 {
				t.Fatalf("got %d lines, want 500", len(lines))
			}
			for _, line := range lines {
				if n := len(strings.Fields(line)); n < 5 {
					t.Fatalf("line %q has %d fields, want >= 5", line, n)
				}
			}
		})
	}
}

func TestGenerators_Deterministic(t *testing.T) {
	t.Parallel()

	a := generate(t, &AppLogGenerator{Services: 3}, 100)
	b := generate(t, &AppLogGenerator{Services: 3}, 100)

	if strings.Join(a, "\n") != strings.Join(b, "\n") {
		t.Error("same seed produced different output")
	}
}

func TestInject(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		rate     float64
		wantAll  bool
		wantNone bool
	}{
		{name: "always", rate: 1, wantAll: true},
		{name: "never", rate: 0, wantNone: true},
		{name: "sometimes", rate: 0.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lines := generate(t, Inject(&MetricGenerator{HostCount: 2}, "Needle", tt.rate), 400)

			hits := 0
			for _, line := range lines {
				if strings.Contains(strings.ToLower(line), "needle") {
					hits++
				}
			}

			switch {
			case tt.wantAll && hits != len(lines):
				t.Errorf("got %d hits, want %d", hits, len(lines))
			case tt.wantNone && hits != 0:
				t.Errorf("got %d hits, want 0", hits)
			case !tt.wantAll && !tt.wantNone && (hits == 0 || hits == len(lines)):
				t.Errorf("got %d hits of %d, want a mix", hits, len(lines))
			}
		})
	}
}

func TestGet_Unknown(t *testing.T) {
	if _, err := Get("nope"); err == nil {
		t.Error("expected error for unknown generator")
	}
}
