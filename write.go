package patio

import (
	"fmt"
	"io"

	"golang.org/x/exp/constraints"
)

type flusher interface {
	Flush() error
}

type putPattern struct{ b []byte }

// PutBytes writes all of b.
func PutBytes(b []byte) Pattern[io.Writer, struct{}] { return putPattern{b: b} }

// PutString writes all of s.
func PutString(s string) Pattern[io.Writer, struct{}] { return putPattern{b: []byte(s)} }

func (p putPattern) Bind(w io.Writer) Operation[io.Writer, struct{}] {
	if w == nil {
		return &resolved[io.Writer, struct{}]{err: ErrNilIO}
	}
	return &putOp{wa: WriteAll(w, NewWindow(p.b))}
}

func (p putPattern) Size() int { return len(p.b) }

type putOp struct {
	wa   *WriteAllOp
	done bool
}

func (op *putOp) Poll() (io.Writer, struct{}, error) {
	if op.done {
		polledAfterCompletion("put")
	}
	w, _, err := op.wa.Poll()
	if IsWouldBlock(err) {
		return nil, struct{}{}, err
	}
	op.done = true
	return w, struct{}{}, err
}

// PutLengthPrefixed writes len(b) with put and then b. It fails with ErrInvalidData
// if L cannot represent len(b).
func PutLengthPrefixed[L constraints.Integer](put func(L) Pattern[io.Writer, struct{}], b []byte) Pattern[io.Writer, struct{}] {
	n := L(len(b))
	if n < 0 || int(n) != len(b) {
		return Fail[io.Writer, struct{}](fmt.Errorf("%w: length %d does not fit the prefix", ErrInvalidData, len(b)))
	}
	return Concat(put(n), PutBytes(b))
}

// PutLengthPrefixedString is PutLengthPrefixed for a string.
func PutLengthPrefixedString[L constraints.Integer](put func(L) Pattern[io.Writer, struct{}], s string) Pattern[io.Writer, struct{}] {
	return PutLengthPrefixed(put, []byte(s))
}

// --- PutZeros ---

type zerosPattern struct{ n int }

// PutZeros writes n zero bytes.
func PutZeros(n int) Pattern[io.Writer, struct{}] { return zerosPattern{n: n} }

func (p zerosPattern) Bind(w io.Writer) Operation[io.Writer, struct{}] {
	if w == nil {
		return &resolved[io.Writer, struct{}]{err: ErrNilIO}
	}
	if p.n < 0 {
		return &resolved[io.Writer, struct{}]{s: w, err: ErrNegativeCount}
	}
	return &zerosOp{w: w, remain: p.n}
}

func (p zerosPattern) Size() int { return p.n }

type zerosOp struct {
	w      io.Writer
	remain int
	done   bool
}

func (op *zerosOp) Poll() (io.Writer, struct{}, error) {
	if op.done {
		polledAfterCompletion("put zeros")
	}
	for op.remain > 0 {
		n, err := writeStep(op.w, empty[:min(op.remain, BUFFER_SIZE)])
		op.remain -= n
		switch {
		case err == nil:
			continue
		case IsWouldBlock(err):
			return nil, struct{}{}, err
		case err == io.EOF:
			err = io.ErrShortWrite
		}
		op.done = true
		return op.w, struct{}{}, fmt.Errorf("patio: zero padding failed with %d bytes left: %w", op.remain, err)
	}
	op.done = true
	return op.w, struct{}{}, nil
}

// --- PutPartial ---

type putPartialPattern struct{ b []byte }

// PutPartial performs a single write of b and yields how many bytes the sink took.
// Zero means the sink accepts nothing more.
func PutPartial(b []byte) Pattern[io.Writer, int] { return putPartialPattern{b: b} }

func (p putPartialPattern) Bind(w io.Writer) Operation[io.Writer, int] {
	if w == nil {
		return &resolved[io.Writer, int]{err: ErrNilIO}
	}
	return &putPartialOp{wr: AsyncWrite(w, NewWindow(p.b))}
}

type putPartialOp struct {
	wr   *WriteOp
	done bool
}

func (op *putPartialOp) Poll() (io.Writer, int, error) {
	if op.done {
		polledAfterCompletion("put partial")
	}
	w, _, n, err := op.wr.Poll()
	if IsWouldBlock(err) {
		return nil, 0, err
	}
	op.done = true
	return w, n, err
}

// --- Flush ---

type flushPattern struct{}

// Flush flushes the writer if it has a Flush() error method and is a no-op
// otherwise. A would-block error from Flush leaves the pattern pending.
func Flush() Pattern[io.Writer, struct{}] { return flushPattern{} }

func (flushPattern) Bind(w io.Writer) Operation[io.Writer, struct{}] {
	if w == nil {
		return &resolved[io.Writer, struct{}]{err: ErrNilIO}
	}
	return &flushOp{w: w}
}

func (flushPattern) Size() int { return 0 }

type flushOp struct {
	w    io.Writer
	done bool
}

func (op *flushOp) Poll() (io.Writer, struct{}, error) {
	if op.done {
		polledAfterCompletion("flush")
	}
	if f, ok := op.w.(flusher); ok {
		err := f.Flush()
		if IsWouldBlock(err) {
			return nil, struct{}{}, err
		}
		op.done = true
		return op.w, struct{}{}, err
	}
	op.done = true
	return op.w, struct{}{}, nil
}
