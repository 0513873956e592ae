package patio

import (
	"bytes"
	"fmt"
	"io"
)

const (
	DefaultMinBuffer = 1024
	DefaultMaxBuffer = 10 * 1024 * 1024
)

// ScanFunc decides whether buf, the bytes scanned so far, holds a complete match.
// eos reports that the stream has ended and no more bytes will follow.
//
// It returns the length of the match with its value, or advance == 0 to ask for
// more bytes. A non-nil error fails the scan.
type ScanFunc[T any] func(buf []byte, eos bool) (advance int, v T, err error)

// Scanned is the value of an Until pattern.
type Scanned[T any] struct {
	Buf   []byte // the matched bytes
	Value T
	// Rest holds bytes read past the match. It is always empty when the stream is
	// an Unreader, such as a *PushbackReader or *ReadCounter, since those bytes are
	// pushed back instead.
	Rest []byte
}

// UntilPattern scans a growing buffer until its ScanFunc reports a match.
type UntilPattern[T any] struct {
	scan     ScanFunc[T]
	min, max int
}

// Until returns a pattern that keeps reading into a buffer and re-invoking scan
// after each read until scan reports a match.
//
// The buffer starts at MinBuffer bytes and doubles whenever it fills, up to
// MaxBuffer; a full buffer at the limit fails with ErrBufferLimit. End of stream
// without a match fails with a *TransferError wrapping io.ErrUnexpectedEOF.
func Until[T any](scan ScanFunc[T]) UntilPattern[T] {
	return UntilPattern[T]{scan: scan, min: DefaultMinBuffer, max: DefaultMaxBuffer}
}

// MinBuffer sets the initial buffer size. It panics if n < 1.
func (u UntilPattern[T]) MinBuffer(n int) UntilPattern[T] {
	if n < 1 {
		panic(fmt.Sprintf("patio: until min buffer %d < 1", n))
	}
	u.min = n
	if u.max < n {
		u.max = n
	}
	return u
}

// MaxBuffer sets the buffer size limit. It panics if n is below the minimum.
func (u UntilPattern[T]) MaxBuffer(n int) UntilPattern[T] {
	if n < u.min {
		panic(fmt.Sprintf("patio: until max buffer %d < min buffer %d", n, u.min))
	}
	u.max = n
	return u
}

func (u UntilPattern[T]) Bind(r io.Reader) Operation[io.Reader, Scanned[T]] {
	if r == nil {
		return &resolved[io.Reader, Scanned[T]]{err: ErrNilIO}
	}
	return &untilOp[T]{r: r, scan: u.scan, max: u.max, w: NewWindow(make([]byte, u.min))}
}

type untilOp[T any] struct {
	r    io.Reader
	scan ScanFunc[T]
	max  int
	w    Window
	done bool
}

func (op *untilOp[T]) Poll() (io.Reader, Scanned[T], error) {
	if op.done {
		polledAfterCompletion("until")
	}
	var zero Scanned[T]
	for {
		n, err := readStep(op.r, op.w.Bytes())
		op.w = op.w.Skip(n)
		switch {
		case err == nil, err == io.EOF:
		case IsWouldBlock(err):
			return nil, zero, err
		default:
			return op.fail(&TransferError{Op: "read", Buf: op.w.Inner(), N: op.w.Start(), Err: err})
		}
		eos := n == 0
		total := op.w.Start()
		buf := op.w.Inner()

		advance, v, err := op.scan(buf[:total], eos)
		switch {
		case err != nil:
			return op.fail(err)
		case advance > total || advance < 0:
			return op.fail(fmt.Errorf("%w: scan advanced %d of %d bytes", ErrInvalidData, advance, total))
		case advance > 0:
			op.done = true
			s := Scanned[T]{Buf: buf[:advance:advance], Value: v}
			if rest := buf[advance:total]; len(rest) > 0 {
				if u, ok := op.r.(Unreader); ok {
					u.Unread(rest...)
				} else {
					s.Rest = rest
				}
			}
			return op.r, s, nil
		case eos:
			return op.fail(&TransferError{Op: "read", Buf: buf, N: total, Err: io.ErrUnexpectedEOF})
		}

		if op.w.Len() == 0 {
			size := min(total*2, op.max)
			if size <= len(buf) {
				return op.fail(fmt.Errorf("%w (%d bytes)", ErrBufferLimit, op.max))
			}
			grown := make([]byte, size)
			copy(grown, buf[:total])
			op.w = NewWindow(grown).Skip(total)
		}
	}
}

func (op *untilOp[T]) fail(err error) (io.Reader, Scanned[T], error) {
	op.done = true
	return op.r, Scanned[T]{}, err
}

// Delimited scans up to and including the first delim byte. At end of stream the
// remaining non-empty bytes are the final match, without a delimiter.
func Delimited(delim byte) UntilPattern[struct{}] {
	return Until(func(buf []byte, eos bool) (int, struct{}, error) {
		if i := bytes.IndexByte(buf, delim); i >= 0 {
			return i + 1, struct{}{}, nil
		}
		if eos {
			return len(buf), struct{}{}, nil
		}
		return 0, struct{}{}, nil
	})
}

// --- Line ---

type linePattern struct{}

// Line reads one byte at a time up to and including '\n'. A non-empty final line
// without a newline is valid at end of stream; an empty one fails with
// io.ErrUnexpectedEOF. Lines that are not valid UTF-8 fail with ErrInvalidData.
//
// Line never reads past the newline, so it is safe on a stream shared with other
// patterns.
func Line() Pattern[io.Reader, string] { return linePattern{} }

func (linePattern) Bind(r io.Reader) Operation[io.Reader, string] {
	if r == nil {
		return &resolved[io.Reader, string]{err: ErrNilIO}
	}
	return &lineOp{r: r}
}

type lineOp struct {
	r    io.Reader
	buf  *bytes.Buffer
	one  [1]byte
	done bool
}

func (op *lineOp) Poll() (io.Reader, string, error) {
	if op.done {
		polledAfterCompletion("line")
	}
	if op.buf == nil {
		op.buf = getBytesBuf()
	}
	for {
		n, err := readStep(op.r, op.one[:])
		switch {
		case err == nil:
		case IsWouldBlock(err):
			return nil, "", err
		case err == io.EOF:
			if op.buf.Len() == 0 {
				return op.finish(io.ErrUnexpectedEOF)
			}
			return op.finish(nil)
		default:
			return op.finish(err)
		}
		if n == 0 {
			continue
		}
		op.buf.WriteByte(op.one[0])
		if op.one[0] == '\n' {
			return op.finish(nil)
		}
	}
}

func (op *lineOp) finish(err error) (io.Reader, string, error) {
	op.done = true
	defer func() {
		putBytesBuf(op.buf)
		op.buf = nil
	}()
	if err != nil {
		return op.r, "", err
	}
	s, err := decodeString(op.buf.Bytes())
	if err != nil {
		return op.r, "", err
	}
	return op.r, s, nil
}
