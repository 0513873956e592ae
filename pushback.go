package patio

import "io"

// Unreader is a stream that can take back bytes it has already served.
type Unreader interface {
	Unread(b ...byte)
}

// PushbackReader is a reader that lets bytes be returned to the front of the stream.
// Until pushes back the bytes it read past a match; callers of Eos can push back
// the stray byte.
type PushbackReader struct {
	R io.Reader // The underlying reader.
	B []byte    // Bytes returned to the stream, served before R.
}

// NewPushbackReader returns a PushbackReader. If the given reader is already a
// PushbackReader, it is returned directly.
func NewPushbackReader(r io.Reader) *PushbackReader {
	if pr, ok := r.(*PushbackReader); ok {
		return pr
	}
	return &PushbackReader{R: r}
}

// Unread returns b to the front of the stream; the next Read yields b first.
func (r *PushbackReader) Unread(b ...byte) {
	if len(b) == 0 {
		return
	}
	r.B = append(append(make([]byte, 0, len(b)+len(r.B)), b...), r.B...)
}

// Buffered returns the number of pushed back bytes not yet read.
func (r *PushbackReader) Buffered() int { return len(r.B) }

// Peek returns the next n bytes without advancing the reader. With a non-blocking
// underlying reader Peek may return fewer bytes together with a would-block error;
// the bytes already fetched stay buffered for the next call.
func (r *PushbackReader) Peek(n int) ([]byte, error) {
	// If the buffer already contains enough bytes, return them.
	if len(r.B) >= n {
		return r.B[:n], nil
	}

	// Read more data from the underlying reader to satisfy the peek request.
	i := len(r.B)
	r.B = append(r.B, make([]byte, n-i)...)

	var err error
	for i < n {
		read, er := r.R.Read(r.B[i:])
		i += read
		if er != nil {
			err = er
			break
		}
		if read == 0 {
			err = io.ErrNoProgress
			break
		}
	}
	// Trim the buffer to the actual number of bytes read.
	r.B = r.B[:i]
	return r.B, err
}

// Read reads data into p. Pushed back bytes are served without touching the
// underlying reader.
func (r *PushbackReader) Read(p []byte) (int, error) {
	if len(r.B) > 0 {
		n := copy(p, r.B)
		r.B = r.B[n:]
		if len(r.B) == 0 {
			r.B = nil
		}
		return n, nil
	}
	return r.R.Read(p)
}

// Close closes the underlying reader if it implements io.Closer.
func (r *PushbackReader) Close() error {
	if c, ok := r.R.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
