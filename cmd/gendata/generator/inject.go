package generator

import (
	"bytes"
	"io"
	"math/rand/v2"
)

// injector plants a keyword at the end of a fraction of the lines produced
// by the wrapped generator. Case varies so case-insensitive matching is
// exercised.
type injector struct {
	Generator
	keyword string
	rate    float64
	rand    *rand.Rand
	buf     bytes.Buffer
}

// Inject wraps g so that roughly rate of its lines end with keyword.
// An empty keyword or a non-positive rate returns g unchanged.
func Inject(g Generator, keyword string, rate float64) Generator {
	if keyword == "" || rate <= 0 {
		return g
	}

	return &injector{Generator: g, keyword: keyword, rate: rate}
}

func (g *injector) Init(r *rand.Rand) {
	g.rand = r
	g.Generator.Init(r)
}

func (g *injector) WriteLine(w io.Writer) error {
	g.buf.Reset()
	if err := g.Generator.WriteLine(&g.buf); err != nil {
		return err
	}

	if g.rand.Float64() >= g.rate {
		_, err := w.Write(g.buf.Bytes())
		return err
	}

	line := bytes.TrimSuffix(g.buf.Bytes(), []byte("\n"))
	kw := []byte(g.keyword)
	switch g.rand.IntN(3) {
	case 1:
		kw = bytes.ToUpper(kw)
	case 2:
		kw = bytes.ToLower(kw)
	}

	if _, err := w.Write(line); err != nil {
		return err
	}
	if _, err := w.Write([]byte{' '}); err != nil {
		return err
	}
	if _, err := w.Write(kw); err != nil {
		return err
	}
	_, err := w.Write([]byte{'\n'})
	return err
}
