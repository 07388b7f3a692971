package generator

import (
	"fmt"
	"io"
	"math/rand/v2"
	"strings"
	"time"
)

// AppLogGenerator writes application log lines:
// "{date} {time} {service} {level} {latency_ms} {message...}"
type AppLogGenerator struct {
	Services int
	rand     *rand.Rand
	clock    time.Time
	names    []string
}

func (g *AppLogGenerator) Init(r *rand.Rand) {
	g.rand = r
	g.clock = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	g.names = make([]string, max(g.Services, 1))
	for i := range g.names {
		g.names[i] = fmt.Sprintf("svc-%02d", i)
	}
}

func (g *AppLogGenerator) WriteLine(w io.Writer) error {
	g.clock = g.clock.Add(time.Duration(g.rand.IntN(1000)) * time.Millisecond)

	n := 2 + g.rand.IntN(5)
	msg := make([]string, n)
	for i := range msg {
		msg[i] = pick(g.rand, words)
	}

	_, err := fmt.Fprintf(w, "%s %s %s %s %d %s\n",
		g.clock.Format("2006-01-02"),
		g.clock.Format("15:04:05.000"),
		pick(g.rand, g.names),
		pick(g.rand, levels),
		g.rand.IntN(5000),
		strings.Join(msg, " "))
	return err
}

func (g *AppLogGenerator) Description() string {
	return "Application logs: {date} {time} {service} {level} {latency_ms} {message}"
}

func (g *AppLogGenerator) DefaultCount() int64 {
	return 1e5 // 100,000 lines
}
