package generator

import (
	"fmt"
	"io"
	"math/rand/v2"
)

// MetricGenerator writes metric samples with the value in field 5
type MetricGenerator struct {
	HostCount int
	rand      *rand.Rand
	seq       int64
}

var metricKeys = []string{
	"temperature",
	"humidity",
	"pressure",
	"cpu_usage",
	"memory_usage",
	"disk_io",
	"network_latency",
	"response_time",
	"error_rate",
	"request_count",
}

func (g *MetricGenerator) Init(r *rand.Rand) {
	g.rand = r
}

func (g *MetricGenerator) WriteLine(w io.Writer) error {
	g.seq++
	_, err := fmt.Fprintf(w, "%d host-%d %s sample %06.2f %s\n",
		g.seq,
		g.rand.IntN(max(g.HostCount, 1)),
		pick(g.rand, metricKeys),
		g.rand.Float64()*100,
		pick(g.rand, levels))
	return err
}

func (g *MetricGenerator) Description() string {
	return "Metric samples: {seq} {host} {metric} sample {value} {level}"
}

func (g *MetricGenerator) DefaultCount() int64 {
	return 1e5
}
