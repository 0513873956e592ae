package patio

import "io"

// ReadCounter is an io.Reader that counts the bytes read through it.
// Would-block and other errors pass through untouched.
type ReadCounter struct {
	r     io.Reader
	count int64 // total bytes read
}

// NewReadCounter wraps r. If r is already a *ReadCounter it is returned directly.
func NewReadCounter(r io.Reader) *ReadCounter {
	if c, ok := r.(*ReadCounter); ok {
		return c
	}
	return &ReadCounter{r: r}
}

// Read implements the [io.Reader] interface.
func (c *ReadCounter) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	if n > 0 {
		c.count += int64(n)
	}
	return n, err
}

// Count returns the number of bytes read so far.
func (c *ReadCounter) Count() int64 { return c.count }

// Unread returns b to the stream and takes it off the count. A wrapped reader
// without an Unread method is replaced by a *PushbackReader over it, so Inner
// may change after the first call.
func (c *ReadCounter) Unread(b ...byte) {
	if len(b) == 0 {
		return
	}
	u, ok := c.r.(Unreader)
	if !ok {
		pr := NewPushbackReader(c.r)
		c.r, u = pr, pr
	}
	u.Unread(b...)
	c.count -= int64(len(b))
}

// Inner returns the wrapped reader.
func (c *ReadCounter) Inner() io.Reader { return c.r }

// WriteCounter is an io.Writer that counts the bytes written through it.
type WriteCounter struct {
	w     io.Writer
	count int64 // total bytes written
}

// NewWriteCounter wraps w. If w is already a *WriteCounter it is returned directly.
func NewWriteCounter(w io.Writer) *WriteCounter {
	if c, ok := w.(*WriteCounter); ok {
		return c
	}
	return &WriteCounter{w: w}
}

// Write implements the [io.Writer] interface.
func (c *WriteCounter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	if n > 0 {
		c.count += int64(n)
	}
	return n, err
}

// Flush flushes the wrapped writer when it has a Flush method.
func (c *WriteCounter) Flush() error {
	if f, ok := c.w.(flusher); ok {
		return f.Flush()
	}
	return nil
}

func (c *WriteCounter) Count() int64     { return c.count }
func (c *WriteCounter) Inner() io.Writer { return c.w }
