package patio

import "io"

// Operation is an in-flight decode or encode bound to a stream of type S.
//
// Poll drives the operation as far as the stream allows:
//   - while the stream is not ready it returns an error satisfying IsWouldBlock and
//     zero S and T; call Poll again later;
//   - on success it returns (stream, value, nil);
//   - on failure it returns (stream, zero, err).
//
// The stream is handed back on every terminal outcome. Polling an operation again
// after a terminal outcome panics with an error wrapping ErrPolledAfterCompletion.
type Operation[S, T any] interface {
	Poll() (S, T, error)
}

// Pattern is an inert description of what to decode or encode next. It has no
// behavior until Bind ties it to a stream.
//
// Patterns are values: Bind must not mutate the pattern, so the same pattern can be
// bound any number of times.
type Pattern[S, T any] interface {
	Bind(s S) Operation[S, T]
}

// PatternFunc adapts a function into a Pattern.
type PatternFunc[S, T any] func(s S) Operation[S, T]

func (f PatternFunc[S, T]) Bind(s S) Operation[S, T] { return f(s) }

// OperationFunc adapts a resume function into an Operation. The function is
// responsible for the completion and reentry rules of Operation.
type OperationFunc[S, T any] func() (S, T, error)

func (f OperationFunc[S, T]) Poll() (S, T, error) { return f() }

// ReadFrom binds a read pattern to r.
func ReadFrom[T any](p Pattern[io.Reader, T], r io.Reader) Operation[io.Reader, T] {
	return p.Bind(r)
}

// WriteInto binds a write pattern to w.
func WriteInto[T any](p Pattern[io.Writer, T], w io.Writer) Operation[io.Writer, T] {
	return p.Bind(w)
}

// resolved is the operation of an already known outcome.
type resolved[S, T any] struct {
	s    S
	v    T
	err  error
	done bool
}

func (op *resolved[S, T]) Poll() (S, T, error) {
	if op.done {
		polledAfterCompletion("resolved")
	}
	op.done = true
	return op.s, op.v, op.err
}

type okPattern[S, T any] struct{ v T }

func (p okPattern[S, T]) Bind(s S) Operation[S, T] { return &resolved[S, T]{s: s, v: p.v} }

func (p okPattern[S, T]) Size() int { return 0 }

// Ok returns a pattern that yields v without touching the stream.
func Ok[S, T any](v T) Pattern[S, T] { return okPattern[S, T]{v: v} }

type failPattern[S, T any] struct{ err error }

func (p failPattern[S, T]) Bind(s S) Operation[S, T] { return &resolved[S, T]{s: s, err: p.err} }

// Fail returns a pattern that fails with err without touching the stream.
func Fail[S, T any](err error) Pattern[S, T] { return failPattern[S, T]{err: err} }

// Result returns Ok(v) when err is nil and Fail(err) otherwise.
func Result[S, T any](v T, err error) Pattern[S, T] {
	if err != nil {
		return Fail[S, T](err)
	}
	return Ok[S](v)
}

type maybePattern[S, T any] struct{ p Pattern[S, T] }

func (m maybePattern[S, T]) Bind(s S) Operation[S, *T] {
	if m.p == nil {
		return &resolved[S, *T]{s: s}
	}
	return &maybeOp[S, T]{op: m.p.Bind(s)}
}

func (m maybePattern[S, T]) Size() int {
	if m.p == nil {
		return 0
	}
	if n, ok := SizeOf(m.p); ok {
		return n
	}
	return -1
}

type maybeOp[S, T any] struct {
	op   Operation[S, T]
	done bool
}

func (op *maybeOp[S, T]) Poll() (S, *T, error) {
	if op.done {
		polledAfterCompletion("maybe")
	}
	s, v, err := op.op.Poll()
	if IsWouldBlock(err) {
		return s, nil, err
	}
	op.done = true
	if err != nil {
		return s, nil, err
	}
	return s, &v, nil
}

// Maybe is the optional pattern. A nil p yields a nil value without touching the
// stream; otherwise p is driven and its value is returned by pointer.
func Maybe[S, T any](p Pattern[S, T]) Pattern[S, *T] { return maybePattern[S, T]{p: p} }
