package toygrep

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "file.txt")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	return path
}

func TestLineCounter(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		content string
		want    int64
	}{
		{"empty", "", 0},
		{"one line", "BANANA split\n", 1},
		{"no trailing newline", "a\nb", 1},
		{"blank lines", "\n\n\n", 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := LineCounter{}.Count(context.Background(), writeFile(t, tt.content))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLineCounter_MissingFile(t *testing.T) {
	t.Parallel()

	_, err := LineCounter{}.Count(context.Background(), filepath.Join(t.TempDir(), "missing"))
	assert.ErrorIs(t, err, ErrCountFailed)
	assert.Equal(t, KindCollaborator, KindOf(err))
}

func TestExecCounter(t *testing.T) {
	t.Parallel()

	if _, err := exec.LookPath("wc"); err != nil {
		t.Skip("wc not available")
	}

	got, err := ExecCounter{}.Count(context.Background(), writeFile(t, "a\nb\nc\n"))
	require.NoError(t, err)
	assert.EqualValues(t, 3, got)

	_, err = ExecCounter{}.Count(context.Background(), filepath.Join(t.TempDir(), "missing"))
	assert.ErrorIs(t, err, ErrCountFailed)
}
