package toygrep

import "bytes"

// MaxKeywordLen is the length above which a run logs a warning. Longer
// keywords still match.
const MaxKeywordLen = 64

// Keyword is an immutable, ASCII-lowercased search term.
type Keyword struct {
	raw   string
	lower []byte
}

// NewKeyword normalises s for case-insensitive matching.
func NewKeyword(s string) (Keyword, error) {
	if s == "" {
		return Keyword{}, ErrEmptyKeyword
	}

	lower := make([]byte, len(s))
	lowerASCII(lower, []byte(s))

	return Keyword{raw: s, lower: lower}, nil
}

// String returns the keyword as given by the user.
func (k Keyword) String() string {
	return k.raw
}

// Len returns the keyword length in bytes.
func (k Keyword) Len() int {
	return len(k.lower)
}

// Matches reports whether line contains the keyword, ignoring ASCII case.
// scratch is reused for the lowercased copy and returned, possibly grown.
func (k Keyword) Matches(line, scratch []byte) (bool, []byte) {
	if len(line) < len(k.lower) {
		return false, scratch
	}

	if cap(scratch) < len(line) {
		scratch = make([]byte, len(line), max(len(line), 2*cap(scratch)))
	}
	scratch = scratch[:len(line)]
	lowerASCII(scratch, line)

	return bytes.Contains(scratch, k.lower), scratch
}

func lowerASCII(dst, src []byte) {
	for i, c := range src {
		if 'A' <= c && c <= 'Z' {
			c += 'a' - 'A'
		}
		dst[i] = c
	}
}
