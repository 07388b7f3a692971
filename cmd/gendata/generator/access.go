package generator

import (
	"io"
	"math/rand/v2"
	"strconv"
)

// AccessLogGenerator writes HTTP access log lines with the status in field 5
type AccessLogGenerator struct {
	rand *rand.Rand
	buf  []byte
}

var methods = []string{"GET", "GET", "GET", "POST", "PUT", "DELETE"}

var statuses = []int{200, 200, 200, 201, 204, 301, 304, 400, 401, 403, 404, 500, 502, 503}

var domains = []string{
	"google.com",
	"github.com",
	"stackoverflow.com",
	"reddit.com",
	"wikipedia.org",
}

var paths = []string{
	"/",
	"/home",
	"/about",
	"/products",
	"/api/v1",
	"/api/v2",
	"/docs",
	"/search",
	"/user/profile",
}

func (g *AccessLogGenerator) Init(r *rand.Rand) {
	g.rand = r
}

func (g *AccessLogGenerator) WriteLine(w io.Writer) error {
	b := g.buf[:0]
	b = append(b, "10.0."...)
	b = strconv.AppendInt(b, int64(g.rand.IntN(256)), 10)
	b = append(b, '.')
	b = strconv.AppendInt(b, int64(g.rand.IntN(256)), 10)
	b = append(b, " - - "...)
	b = append(b, pick(g.rand, methods)...)
	b = append(b, ' ')
	b = strconv.AppendInt(b, int64(pick(g.rand, statuses)), 10)
	b = append(b, " https://"...)
	b = append(b, pick(g.rand, domains)...)
	b = append(b, pick(g.rand, paths)...)
	b = append(b, ' ')
	b = strconv.AppendInt(b, int64(g.rand.IntN(1<<16)), 10)
	b = append(b, '\n')
	g.buf = b

	_, err := w.Write(b)
	return err
}

func (g *AccessLogGenerator) Description() string {
	return "Access logs: {ip} - - {method} {status} {url} {bytes}"
}

func (g *AccessLogGenerator) DefaultCount() int64 {
	return 5e4
}
