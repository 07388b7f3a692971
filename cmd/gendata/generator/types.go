package generator

import (
	"io"
	"math/rand/v2"
)

// Generator produces line-oriented test data. Every line carries at least
// five blank-separated fields so the default sort key exists.
type Generator interface {
	// Init initializes the generator with a per-instance random source
	Init(r *rand.Rand)

	// WriteLine writes a single newline-terminated line to w
	WriteLine(w io.Writer) error

	// Description returns a human-readable description of the data format
	Description() string

	// DefaultCount returns the suggested default number of lines to generate
	DefaultCount() int64
}

var levels = []string{"DEBUG", "INFO", "INFO", "INFO", "WARN", "ERROR"}

var words = []string{
	"request", "handled", "cache", "miss", "hit", "retry", "timeout",
	"connection", "reset", "user", "session", "expired", "queue", "flushed",
	"disk", "write", "read", "slow", "query", "commit", "rollback", "auth",
	"token", "refreshed", "upstream", "closed",
}

func pick[T any](r *rand.Rand, s []T) T {
	return s[r.IntN(len(s))]
}
