// Package patiotest provides stream doubles for exercising patterns against
// partial and non-blocking I/O.
package patiotest

import (
	"bytes"
	"io"

	"code.hybscloud.com/iox"
)

// Reader hands out its data a few bytes at a time, optionally reporting
// iox.ErrWouldBlock before every chunk.
type Reader struct {
	data    []byte
	chunk   int
	stutter bool
	blocked bool

	Reads  int // Read calls that returned bytes
	Blocks int // Read calls that reported would-block
}

// Trickle returns a reader that yields at most chunk bytes per Read.
func Trickle(data []byte, chunk int) *Reader {
	return &Reader{data: data, chunk: max(chunk, 1)}
}

// Stutter is like Trickle, but every chunk is preceded by a would-block.
func Stutter(data []byte, chunk int) *Reader {
	return &Reader{data: data, chunk: max(chunk, 1), stutter: true}
}

// Read implements the [io.Reader] interface.
func (r *Reader) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	if r.stutter && !r.blocked {
		r.blocked = true
		r.Blocks++
		return 0, iox.ErrWouldBlock
	}
	r.blocked = false
	if len(r.data) == 0 {
		return 0, io.EOF
	}
	n := copy(p[:min(len(p), r.chunk)], r.data)
	r.data = r.data[n:]
	r.Reads++
	return n, nil
}

// Remaining returns the bytes not yet read.
func (r *Reader) Remaining() []byte { return r.data }

// Step is one scripted Read result.
type Step struct {
	B   []byte
	Err error
}

// Script is a reader that replays Steps, one per Read call, then reports io.EOF.
type Script struct {
	Steps []Step
	i     int
}

// NewScript returns a Script over steps.
func NewScript(steps ...Step) *Script { return &Script{Steps: steps} }

// Read implements the [io.Reader] interface. A step's bytes must fit in p.
func (s *Script) Read(p []byte) (int, error) {
	if s.i >= len(s.Steps) {
		return 0, io.EOF
	}
	st := s.Steps[s.i]
	s.i++
	n := copy(p, st.B)
	return n, st.Err
}

// Writer collects written bytes, accepting at most chunk bytes per Write and
// optionally reporting iox.ErrWouldBlock before every accepted chunk.
type Writer struct {
	buf     bytes.Buffer
	chunk   int
	limit   int
	stutter bool
	blocked bool

	Writes  int // Write calls that accepted bytes
	Blocks  int // Write and Flush calls that reported would-block
	Flushes int // successful Flush calls
}

// NewWriter returns a writer that accepts at most chunk bytes per Write.
func NewWriter(chunk int) *Writer {
	return &Writer{chunk: max(chunk, 1), limit: -1}
}

// StutterWriter is like NewWriter, but every chunk and flush is preceded by a
// would-block.
func StutterWriter(chunk int) *Writer {
	return &Writer{chunk: max(chunk, 1), limit: -1, stutter: true}
}

// Limit makes the writer accept at most n bytes in total. Once full, Write
// returns (0, nil) like a closed sink.
func (w *Writer) Limit(n int) *Writer {
	w.limit = n
	return w
}

func (w *Writer) block() bool {
	if w.stutter && !w.blocked {
		w.blocked = true
		w.Blocks++
		return true
	}
	w.blocked = false
	return false
}

// Write implements the [io.Writer] interface.
func (w *Writer) Write(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	if w.block() {
		return 0, iox.ErrWouldBlock
	}
	n := min(len(p), w.chunk)
	if w.limit >= 0 {
		n = min(n, w.limit-w.buf.Len())
	}
	if n <= 0 {
		return 0, nil
	}
	w.buf.Write(p[:n])
	w.Writes++
	return n, nil
}

// Flush implements a Flush() error method, counting calls.
func (w *Writer) Flush() error {
	if w.block() {
		return iox.ErrWouldBlock
	}
	w.Flushes++
	return nil
}

// Bytes returns everything written so far.
func (w *Writer) Bytes() []byte { return w.buf.Bytes() }
