package patio

import (
	"errors"
	"io"
	"iter"
)

// --- Fold / Iter / Repeat ---

type foldPattern[S, T, A any] struct {
	seq  iter.Seq[Pattern[S, T]]
	init A
	f    func(A, T) A
}

// Fold returns a pattern that runs each pattern of seq in order, folding its value
// into the accumulator with f, and yields the accumulator once seq is exhausted.
//
// The sequence is pulled lazily, one pattern per completed step, so seq may be
// infinite as long as something ends the fold (a failing pattern). An operation that
// is abandoned before completion leaves its iterator unstopped.
func Fold[S, T, A any](seq iter.Seq[Pattern[S, T]], init A, f func(A, T) A) Pattern[S, A] {
	return foldPattern[S, T, A]{seq: seq, init: init, f: f}
}

// Iter runs every pattern of seq in order and discards the values.
func Iter[S, T any](seq iter.Seq[Pattern[S, T]]) Pattern[S, struct{}] {
	return Fold(seq, struct{}{}, func(acc struct{}, _ T) struct{} { return acc })
}

// Repeat returns the infinite sequence of p.
func Repeat[S, T any](p Pattern[S, T]) iter.Seq[Pattern[S, T]] {
	return func(yield func(Pattern[S, T]) bool) {
		for yield(p) {
		}
	}
}

func (p foldPattern[S, T, A]) Bind(s S) Operation[S, A] {
	return &foldOp[S, T, A]{seq: p.seq, acc: p.init, f: p.f, s: s}
}

type foldOp[S, T, A any] struct {
	seq  iter.Seq[Pattern[S, T]]
	next func() (Pattern[S, T], bool)
	stop func()
	f    func(A, T) A
	acc  A
	s    S
	cur  Operation[S, T]
	done bool
}

func (op *foldOp[S, T, A]) Poll() (S, A, error) {
	if op.done {
		polledAfterCompletion("fold")
	}
	var (
		zeroS S
		zeroA A
	)
	if op.next == nil {
		op.next, op.stop = iter.Pull(op.seq)
	}
	for {
		if op.cur == nil {
			p, ok := op.next()
			if !ok {
				op.finish()
				return op.s, op.acc, nil
			}
			op.cur = p.Bind(op.s)
			op.s = zeroS
		}
		s, v, err := op.cur.Poll()
		if IsWouldBlock(err) {
			return zeroS, zeroA, err
		}
		op.cur = nil
		op.s = s
		if err != nil {
			op.finish()
			return s, zeroA, err
		}
		op.acc = op.f(op.acc, v)
	}
}

func (op *foldOp[S, T, A]) finish() {
	op.done = true
	op.stop()
}

// --- Count ---

type countPattern[S, T any] struct {
	n int
	p Pattern[S, T]
}

// Count returns a pattern that runs p exactly n times and collects the values.
func Count[S, T any](n int, p Pattern[S, T]) Pattern[S, []T] {
	return countPattern[S, T]{n: n, p: p}
}

func (c countPattern[S, T]) Bind(s S) Operation[S, []T] {
	if c.n < 0 {
		return &resolved[S, []T]{s: s, err: ErrNegativeCount}
	}
	return &countOp[S, T]{p: c.p, s: s, values: make([]T, 0, c.n), n: c.n}
}

func (c countPattern[S, T]) Size() int {
	if c.n < 0 {
		return -1
	}
	if c.n == 0 {
		return 0
	}
	n := sumSizes(sizerOf(c.p))
	if n < 0 {
		return -1
	}
	return n * c.n
}

type countOp[S, T any] struct {
	p      Pattern[S, T]
	n      int
	s      S
	cur    Operation[S, T]
	values []T
	done   bool
}

func (op *countOp[S, T]) Poll() (S, []T, error) {
	if op.done {
		polledAfterCompletion("count")
	}
	var zero S
	for len(op.values) < op.n {
		if op.cur == nil {
			op.cur = op.p.Bind(op.s)
			op.s = zero
		}
		s, v, err := op.cur.Poll()
		if IsWouldBlock(err) {
			return zero, nil, err
		}
		op.cur = nil
		op.s = s
		if err != nil {
			op.done = true
			return s, nil, err
		}
		op.values = append(op.values, v)
	}
	op.done = true
	return op.s, op.values, nil
}

// --- Many ---

type manyPattern[T any] struct {
	p Pattern[io.Reader, T]
}

// Many returns a pattern that runs p until the stream ends cleanly between two
// items and collects the values. An item that fails after consuming part of its
// bytes is an error, as is an item that succeeds without consuming any.
func Many[T any](p Pattern[io.Reader, T]) Pattern[io.Reader, []T] {
	return manyPattern[T]{p: p}
}

func (m manyPattern[T]) Bind(r io.Reader) Operation[io.Reader, []T] {
	if r == nil {
		return &resolved[io.Reader, []T]{err: ErrNilIO}
	}
	return &manyOp[T]{p: m.p, r: r, c: NewReadCounter(r)}
}

type manyOp[T any] struct {
	p      Pattern[io.Reader, T]
	r      io.Reader
	c      *ReadCounter
	cur    Operation[io.Reader, T]
	mark   int64
	values []T
	done   bool
}

func (op *manyOp[T]) Poll() (io.Reader, []T, error) {
	if op.done {
		polledAfterCompletion("many")
	}
	for {
		if op.cur == nil {
			op.mark = op.c.Count()
			op.cur = op.p.Bind(op.c)
		}
		_, v, err := op.cur.Poll()
		if IsWouldBlock(err) {
			return nil, nil, err
		}
		op.cur = nil
		consumed := op.c.Count() - op.mark
		if err != nil {
			op.done = true
			if endsCleanly(consumed, err) {
				return op.r, op.values, nil
			}
			return op.r, nil, err
		}
		if consumed == 0 {
			op.done = true
			return op.r, nil, io.ErrNoProgress
		}
		op.values = append(op.values, v)
	}
}

// endsCleanly reports whether an item failure is the end of stream at an item
// boundary rather than a truncated item.
func endsCleanly(consumed int64, err error) bool {
	return consumed == 0 && (errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF))
}
