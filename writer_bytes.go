package patio

import (
	"fmt"
	"io"
)

// BytesWriter is a sink over a fixed byte slice. Marshal writes statically sized
// patterns through it, so an encoder that overruns its declared size fails
// instead of growing the output.
type BytesWriter struct {
	buf []byte
	n   int
}

// NewBytesWriter returns a BytesWriter that fills p up to its capacity.
func NewBytesWriter(p []byte) *BytesWriter {
	return &BytesWriter{buf: p[:cap(p)]}
}

// Write copies as much of p as fits. Bytes past the end of the slice are
// rejected with an error wrapping io.ErrShortWrite.
func (w *BytesWriter) Write(p []byte) (int, error) {
	n := copy(w.buf[w.n:], p)
	w.n += n
	if n < len(p) {
		return n, fmt.Errorf("%w: %d bytes past capacity %d", io.ErrShortWrite, len(p)-n, len(w.buf))
	}
	return n, nil
}

// Reset empties the writer for reuse of the same slice.
func (w *BytesWriter) Reset() { w.n = 0 }

// Len returns the number of bytes written.
func (w *BytesWriter) Len() int { return w.n }

// Available returns the number of bytes that still fit.
func (w *BytesWriter) Available() int { return len(w.buf) - w.n }

// Bytes returns the written bytes.
func (w *BytesWriter) Bytes() []byte { return w.buf[:w.n] }
