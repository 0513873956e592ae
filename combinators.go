package patio

// phase tags the step of a two-step state machine. phaseDone is the sentinel that
// makes a second poll after completion panic.
type phase uint8

const (
	phaseFirst phase = iota
	phaseSecond
	phaseDone
)

// --- Map ---

type mapPattern[S, T, U any] struct {
	p Pattern[S, T]
	f func(T) U
}

// Map returns a pattern that transforms the value of p with f.
func Map[S, T, U any](p Pattern[S, T], f func(T) U) Pattern[S, U] {
	return mapPattern[S, T, U]{p: p, f: f}
}

func (m mapPattern[S, T, U]) Bind(s S) Operation[S, U] {
	return &mapOp[S, T, U]{op: m.p.Bind(s), f: m.f}
}

func (m mapPattern[S, T, U]) Size() int { return sumSizes(sizerOf(m.p)) }

type mapOp[S, T, U any] struct {
	op   Operation[S, T]
	f    func(T) U
	done bool
}

func (op *mapOp[S, T, U]) Poll() (S, U, error) {
	if op.done {
		polledAfterCompletion("map")
	}
	var zero U
	s, v, err := op.op.Poll()
	if IsWouldBlock(err) {
		return s, zero, err
	}
	op.done = true
	if err != nil {
		return s, zero, err
	}
	return s, op.f(v), nil
}

// --- AndThen ---

type andThenPattern[S, T, U any] struct {
	p Pattern[S, T]
	f func(T) Pattern[S, U]
}

// AndThen returns a pattern that runs p, passes its value to f and then runs the
// pattern f returns on the same stream. A failure of p ends the pattern.
func AndThen[S, T, U any](p Pattern[S, T], f func(T) Pattern[S, U]) Pattern[S, U] {
	return andThenPattern[S, T, U]{p: p, f: f}
}

func (a andThenPattern[S, T, U]) Bind(s S) Operation[S, U] {
	return &andThenOp[S, T, U]{first: a.p.Bind(s), f: a.f}
}

type andThenOp[S, T, U any] struct {
	phase  phase
	first  Operation[S, T]
	f      func(T) Pattern[S, U]
	second Operation[S, U]
}

func (op *andThenOp[S, T, U]) Poll() (S, U, error) {
	var zero U
	for {
		switch op.phase {
		case phaseFirst:
			s, v, err := op.first.Poll()
			if IsWouldBlock(err) {
				return s, zero, err
			}
			if err != nil {
				op.phase = phaseDone
				return s, zero, err
			}
			op.first = nil
			op.second = op.f(v).Bind(s)
			op.phase = phaseSecond
		case phaseSecond:
			s, u, err := op.second.Poll()
			if IsWouldBlock(err) {
				return s, zero, err
			}
			op.phase = phaseDone
			return s, u, err
		default:
			polledAfterCompletion("and then")
		}
	}
}

// --- Then ---

type thenPattern[S, T, U any] struct {
	p Pattern[S, T]
	f func(T, error) Pattern[S, U]
}

// Then returns a pattern that runs p and hands its outcome, value or error, to f.
// The pattern f returns runs on the stream p handed back, so f can recover from a
// failure of p by choosing a different next pattern.
func Then[S, T, U any](p Pattern[S, T], f func(T, error) Pattern[S, U]) Pattern[S, U] {
	return thenPattern[S, T, U]{p: p, f: f}
}

func (t thenPattern[S, T, U]) Bind(s S) Operation[S, U] {
	return &thenOp[S, T, U]{first: t.p.Bind(s), f: t.f}
}

type thenOp[S, T, U any] struct {
	phase  phase
	first  Operation[S, T]
	f      func(T, error) Pattern[S, U]
	second Operation[S, U]
}

func (op *thenOp[S, T, U]) Poll() (S, U, error) {
	var zero U
	for {
		switch op.phase {
		case phaseFirst:
			s, v, err := op.first.Poll()
			if IsWouldBlock(err) {
				return s, zero, err
			}
			op.first = nil
			op.second = op.f(v, err).Bind(s)
			op.phase = phaseSecond
		case phaseSecond:
			s, u, err := op.second.Poll()
			if IsWouldBlock(err) {
				return s, zero, err
			}
			op.phase = phaseDone
			return s, u, err
		default:
			polledAfterCompletion("then")
		}
	}
}

// --- OrElse / Or ---

type orElsePattern[S, T any] struct {
	p Pattern[S, T]
	f func(error) Pattern[S, T]
}

// OrElse returns a pattern that runs p and, only if p fails, runs the fallback
// pattern f builds from the error.
func OrElse[S, T any](p Pattern[S, T], f func(error) Pattern[S, T]) Pattern[S, T] {
	return orElsePattern[S, T]{p: p, f: f}
}

// Or returns a pattern that runs q when p fails.
func Or[S, T any](p, q Pattern[S, T]) Pattern[S, T] {
	return OrElse(p, func(error) Pattern[S, T] { return q })
}

func (o orElsePattern[S, T]) Bind(s S) Operation[S, T] {
	return &orElseOp[S, T]{first: o.p.Bind(s), f: o.f}
}

type orElseOp[S, T any] struct {
	phase  phase
	first  Operation[S, T]
	f      func(error) Pattern[S, T]
	second Operation[S, T]
}

func (op *orElseOp[S, T]) Poll() (S, T, error) {
	var zero T
	for {
		switch op.phase {
		case phaseFirst:
			s, v, err := op.first.Poll()
			if IsWouldBlock(err) {
				return s, zero, err
			}
			if err == nil {
				op.phase = phaseDone
				return s, v, nil
			}
			op.first = nil
			op.second = op.f(err).Bind(s)
			op.phase = phaseSecond
		case phaseSecond:
			s, v, err := op.second.Poll()
			if IsWouldBlock(err) {
				return s, zero, err
			}
			op.phase = phaseDone
			return s, v, err
		default:
			polledAfterCompletion("or else")
		}
	}
}

// --- Chain ---

// Pair is the value of a Chain pattern.
type Pair[A, B any] struct {
	First  A
	Second B
}

type chainPattern[S, A, B any] struct {
	p Pattern[S, A]
	q Pattern[S, B]
}

// Chain returns a pattern that runs p to completion and then q, yielding both
// values. q is not bound until p has handed the stream back.
func Chain[S, A, B any](p Pattern[S, A], q Pattern[S, B]) Pattern[S, Pair[A, B]] {
	return chainPattern[S, A, B]{p: p, q: q}
}

func (c chainPattern[S, A, B]) Bind(s S) Operation[S, Pair[A, B]] {
	return &chainOp[S, A, B]{first: c.p.Bind(s), q: c.q}
}

func (c chainPattern[S, A, B]) Size() int { return sumSizes(sizerOf(c.p), sizerOf(c.q)) }

type chainOp[S, A, B any] struct {
	phase  phase
	first  Operation[S, A]
	q      Pattern[S, B]
	a      A
	second Operation[S, B]
}

func (op *chainOp[S, A, B]) Poll() (S, Pair[A, B], error) {
	var zero Pair[A, B]
	for {
		switch op.phase {
		case phaseFirst:
			s, a, err := op.first.Poll()
			if IsWouldBlock(err) {
				return s, zero, err
			}
			if err != nil {
				op.phase = phaseDone
				return s, zero, err
			}
			op.a = a
			op.first = nil
			op.second = op.q.Bind(s)
			op.phase = phaseSecond
		case phaseSecond:
			s, b, err := op.second.Poll()
			if IsWouldBlock(err) {
				return s, zero, err
			}
			op.phase = phaseDone
			if err != nil {
				return s, zero, err
			}
			return s, Pair[A, B]{First: op.a, Second: b}, nil
		default:
			polledAfterCompletion("chain")
		}
	}
}
