package toygrep

import (
	"io"
	"sync"
)

// DefaultStreamBuffer is the number of lines buffered between the extractors
// and the merge stage.
const DefaultStreamBuffer = 1024

// Stream carries extracted lines from many producers to a single consumer.
// Each message is one complete line with its terminator, so lines from
// different producers never interleave partially.
type Stream struct {
	lines     chan []byte
	done      chan struct{}
	producers sync.WaitGroup
	sealOnce  sync.Once
	abortOnce sync.Once
}

// NewStream creates a stream that buffers up to buffer lines.
func NewStream(buffer int) *Stream {
	if buffer < 0 {
		buffer = 0
	}

	return &Stream{
		lines: make(chan []byte, buffer),
		done:  make(chan struct{}),
	}
}

// Producer registers a new writer. Every producer must be closed before Seal
// returns.
func (s *Stream) Producer() *Producer {
	s.producers.Add(1)
	return &Producer{stream: s}
}

// Seal waits for all producers to close and then ends the stream. The
// consumer observes end of input only after Seal.
func (s *Stream) Seal() {
	s.sealOnce.Do(func() {
		s.producers.Wait()
		close(s.lines)
	})
}

// Abort is called by the consumer when it stops reading early. Pending and
// future writes fail with ErrStreamClosed instead of blocking.
func (s *Stream) Abort() {
	s.abortOnce.Do(func() { close(s.done) })
}

// Reader returns the consumer end of the stream as an io.Reader.
func (s *Stream) Reader() io.Reader {
	return &streamReader{stream: s}
}

// Producer is one extractor's exclusive write handle.
type Producer struct {
	stream    *Stream
	closeOnce sync.Once
}

// WriteLine sends line followed by a newline as a single message.
func (p *Producer) WriteLine(line []byte) error {
	msg := make([]byte, len(line)+1)
	copy(msg, line)
	msg[len(line)] = '\n'

	select {
	case <-p.stream.done:
		return ErrStreamClosed
	default:
	}

	select {
	case p.stream.lines <- msg:
		return nil
	case <-p.stream.done:
		return ErrStreamClosed
	}
}

// Close releases the handle. It is safe to call more than once.
func (p *Producer) Close() {
	p.closeOnce.Do(p.stream.producers.Done)
}

type streamReader struct {
	stream  *Stream
	pending []byte
}

func (r *streamReader) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}

	if len(r.pending) == 0 {
		msg, ok := <-r.stream.lines
		if !ok {
			return 0, io.EOF
		}
		r.pending = msg
	}

	n := copy(p, r.pending)
	r.pending = r.pending[n:]

	return n, nil
}
