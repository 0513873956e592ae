package patio

import (
	"bytes"
	"fmt"
	"io"
	"math"
	"unicode/utf8"

	"golang.org/x/exp/constraints"
)

// Bytes reads exactly n bytes into a fresh buffer.
func Bytes(n int) Pattern[io.Reader, []byte] {
	return exactPattern[[]byte]{n: n, decode: func(b []byte) ([]byte, error) { return b, nil }}
}

type bufPattern struct{ b []byte }

// Buf fills b exactly and yields it. Every operation bound from the pattern reads
// into the same b.
func Buf(b []byte) Pattern[io.Reader, []byte] { return bufPattern{b: b} }

func (p bufPattern) Bind(r io.Reader) Operation[io.Reader, []byte] {
	if r == nil {
		return &resolved[io.Reader, []byte]{err: ErrNilIO}
	}
	return &exactOp[[]byte]{
		rx:     ReadExact(r, NewWindow(p.b)),
		decode: func(b []byte) ([]byte, error) { return b, nil },
	}
}

func (p bufPattern) Size() int { return len(p.b) }

// String reads exactly n bytes and yields them as a string. Bytes that are not
// valid UTF-8 fail the pattern with ErrInvalidData and are discarded.
func String(n int) Pattern[io.Reader, string] {
	return exactPattern[string]{n: n, decode: decodeString}
}

func decodeString(b []byte) (string, error) {
	if err := validUTF8(b); err != nil {
		return "", err
	}
	return string(b), nil
}

func validUTF8(b []byte) error {
	if utf8.Valid(b) {
		return nil
	}
	for i := 0; i < len(b); {
		r, size := utf8.DecodeRune(b[i:])
		if r == utf8.RuneError && size <= 1 {
			return fmt.Errorf("%w: invalid UTF-8 at offset %d", ErrInvalidData, i)
		}
		i += size
	}
	return fmt.Errorf("%w: invalid UTF-8", ErrInvalidData)
}

// lengthOf converts a decoded length prefix to an int no larger than limit.
func lengthOf[L constraints.Integer](n L, limit int) (int, error) {
	if n < 0 {
		return 0, fmt.Errorf("%w: negative length %d", ErrInvalidData, n)
	}
	if uint64(n) > uint64(limit) {
		return 0, fmt.Errorf("%w: length %d exceeds limit %d", ErrInvalidData, n, limit)
	}
	return int(n), nil
}

// PrefixedPattern reads a length with an integer prefix pattern and then a body
// of exactly that many bytes.
type PrefixedPattern[L constraints.Integer, T any] struct {
	prefix Pattern[io.Reader, L]
	body   func(n int) Pattern[io.Reader, T]
	max    int
}

// LengthPrefixed reads a length with prefix and then exactly that many bytes.
// The prefix is any integer pattern, e.g. U8() or U32(BE).
func LengthPrefixed[L constraints.Integer](prefix Pattern[io.Reader, L]) PrefixedPattern[L, []byte] {
	return PrefixedPattern[L, []byte]{prefix: prefix, body: Bytes, max: math.MaxInt}
}

// LengthPrefixedString is LengthPrefixed followed by UTF-8 validation.
func LengthPrefixedString[L constraints.Integer](prefix Pattern[io.Reader, L]) PrefixedPattern[L, string] {
	return PrefixedPattern[L, string]{prefix: prefix, body: String, max: math.MaxInt}
}

// MaxLength limits the decoded length to n bytes. A longer prefix fails with
// ErrInvalidData before the body is allocated. It panics if n < 0.
func (p PrefixedPattern[L, T]) MaxLength(n int) PrefixedPattern[L, T] {
	if n < 0 {
		panic(fmt.Sprintf("patio: max length %d < 0", n))
	}
	p.max = n
	return p
}

func (p PrefixedPattern[L, T]) Bind(r io.Reader) Operation[io.Reader, T] {
	return AndThen(p.prefix, func(n L) Pattern[io.Reader, T] {
		size, err := lengthOf(n, p.max)
		if err != nil {
			return Fail[io.Reader, T](err)
		}
		return p.body(size)
	}).Bind(r)
}

// --- Eos ---

type eosPattern struct{}

// Eos asserts the end of the stream. It attempts to read one byte and yields nil
// when the stream is exhausted, or a *StrayByteError carrying the byte it found.
// The stray byte is consumed from the stream; push it back with a PushbackReader
// to keep it. Failures of the stream itself fail the pattern.
func Eos() Pattern[io.Reader, error] { return eosPattern{} }

func (eosPattern) Bind(r io.Reader) Operation[io.Reader, error] {
	if r == nil {
		return &resolved[io.Reader, error]{err: ErrNilIO}
	}
	return &eosOp{rd: AsyncRead(r, NewWindow(make([]byte, 1)))}
}

type eosOp struct {
	rd   *ReadOp
	done bool
}

func (op *eosOp) Poll() (io.Reader, error, error) {
	if op.done {
		polledAfterCompletion("eos")
	}
	r, w, n, err := op.rd.Poll()
	if IsWouldBlock(err) {
		return nil, nil, err
	}
	op.done = true
	if err != nil {
		return r, nil, err
	}
	if n == 0 {
		return r, nil, nil
	}
	return r, &StrayByteError{Byte: w.Inner()[0]}, nil
}

// --- All ---

type allPattern struct{}

// All reads the rest of the stream.
func All() Pattern[io.Reader, []byte] { return allPattern{} }

func (allPattern) Bind(r io.Reader) Operation[io.Reader, []byte] {
	if r == nil {
		return &resolved[io.Reader, []byte]{err: ErrNilIO}
	}
	return &allOp{r: r}
}

type allOp struct {
	r     io.Reader
	buf   *bytes.Buffer
	chunk *[]byte
	done  bool
}

func (op *allOp) Poll() (io.Reader, []byte, error) {
	if op.done {
		polledAfterCompletion("all")
	}
	if op.buf == nil {
		op.buf = getBytesBuf()
		op.chunk = chunkPool.Get().(*[]byte)
	}
	for {
		n, err := readStep(op.r, *op.chunk)
		op.buf.Write((*op.chunk)[:n])
		switch {
		case err == nil:
			continue
		case IsWouldBlock(err):
			return nil, nil, err
		case err == io.EOF:
			return op.finish(nil)
		default:
			return op.finish(err)
		}
	}
}

func (op *allOp) finish(err error) (io.Reader, []byte, error) {
	op.done = true
	var b []byte
	if err == nil {
		b = bytes.Clone(op.buf.Bytes())
		if b == nil {
			b = []byte{}
		}
	}
	putBytesBuf(op.buf)
	chunkPool.Put(op.chunk)
	op.buf, op.chunk = nil, nil
	return op.r, b, err
}

// --- Partial ---

// Chunk is the value of a Partial read: N bytes of Buf were filled. N == 0 means
// the stream ended.
type Chunk struct {
	Buf []byte
	N   int
}

// Bytes returns the filled part of the chunk.
func (c Chunk) Bytes() []byte { return c.Buf[:c.N] }

type partialPattern struct{ b []byte }

// Partial performs a single read into b, taking whatever the stream has.
func Partial(b []byte) Pattern[io.Reader, Chunk] { return partialPattern{b: b} }

func (p partialPattern) Bind(r io.Reader) Operation[io.Reader, Chunk] {
	if r == nil {
		return &resolved[io.Reader, Chunk]{err: ErrNilIO}
	}
	return &partialOp{rd: AsyncRead(r, NewWindow(p.b))}
}

type partialOp struct {
	rd   *ReadOp
	done bool
}

func (op *partialOp) Poll() (io.Reader, Chunk, error) {
	if op.done {
		polledAfterCompletion("partial")
	}
	r, w, n, err := op.rd.Poll()
	if IsWouldBlock(err) {
		return nil, Chunk{}, err
	}
	op.done = true
	if err != nil {
		return r, Chunk{}, err
	}
	return r, Chunk{Buf: w.Inner(), N: n}, nil
}

// --- Discard ---

type discardPattern struct{ n int64 }

// Discard reads and drops exactly n bytes.
func Discard(n int64) Pattern[io.Reader, struct{}] { return discardPattern{n: n} }

func (p discardPattern) Bind(r io.Reader) Operation[io.Reader, struct{}] {
	if r == nil {
		return &resolved[io.Reader, struct{}]{err: ErrNilIO}
	}
	if p.n < 0 {
		return &resolved[io.Reader, struct{}]{s: r, err: ErrNegativeCount}
	}
	return &discardOp{r: r, remain: p.n, total: p.n}
}

func (p discardPattern) Size() int {
	if p.n < 0 || p.n > math.MaxInt {
		return -1
	}
	return int(p.n)
}

type discardOp struct {
	r             io.Reader
	remain, total int64
	done          bool
}

func (op *discardOp) Poll() (io.Reader, struct{}, error) {
	if op.done {
		polledAfterCompletion("discard")
	}
	if op.remain == 0 {
		op.done = true
		return op.r, struct{}{}, nil
	}
	chunk := chunkPool.Get().(*[]byte)
	defer chunkPool.Put(chunk)
	for op.remain > 0 {
		p := *chunk
		if int64(len(p)) > op.remain {
			p = p[:op.remain]
		}
		n, err := readStep(op.r, p)
		op.remain -= int64(n)
		switch {
		case err == nil:
			continue
		case IsWouldBlock(err):
			return nil, struct{}{}, err
		case err == io.EOF:
			err = io.ErrUnexpectedEOF
		}
		op.done = true
		return op.r, struct{}{}, fmt.Errorf("patio: discard failed after %d of %d bytes: %w", op.total-op.remain, op.total, err)
	}
	op.done = true
	return op.r, struct{}{}, nil
}
