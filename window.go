package patio

import "fmt"

// Window is a buffer decorated with a [start, end) cursor. Exact transfers advance
// start as bytes arrive, so the window alone records how much remains.
//
// Invariant: 0 <= start <= end <= len(buf). Violations are programmer errors and panic.
type Window struct {
	buf        []byte
	start, end int
}

// NewWindow returns a window covering all of b.
func NewWindow(b []byte) Window {
	return Window{buf: b, end: len(b)}
}

// Skip returns w with start advanced by n bytes.
func (w Window) Skip(n int) Window {
	if n < 0 || w.start+n > w.end {
		panic(fmt.Sprintf("patio: window skip %d out of range [%d:%d]", n, w.start, w.end))
	}
	w.start += n
	return w
}

// Take returns w with end pulled back by n bytes.
func (w Window) Take(n int) Window {
	if n < 0 || n > w.end-w.start {
		panic(fmt.Sprintf("patio: window take %d out of range [%d:%d]", n, w.start, w.end))
	}
	w.end -= n
	return w
}

// SetStart moves the start cursor to an absolute position.
func (w Window) SetStart(start int) Window {
	if start < 0 || start > w.end {
		panic(fmt.Sprintf("patio: window start %d out of range [0:%d]", start, w.end))
	}
	w.start = start
	return w
}

// SetEnd moves the end cursor to an absolute position.
func (w Window) SetEnd(end int) Window {
	if end < w.start || end > len(w.buf) {
		panic(fmt.Sprintf("patio: window end %d out of range [%d:%d]", end, w.start, len(w.buf)))
	}
	w.end = end
	return w
}

// Bytes returns the unconsumed region buf[start:end].
func (w Window) Bytes() []byte { return w.buf[w.start:w.end] }

// Filled returns the consumed region buf[:start].
func (w Window) Filled() []byte { return w.buf[:w.start] }

// Inner discards the cursor and returns the whole underlying buffer.
func (w Window) Inner() []byte { return w.buf }

func (w Window) Start() int { return w.start }
func (w Window) End() int   { return w.end }
func (w Window) Len() int   { return w.end - w.start }
