package patio

// T2 is the value of a Tuple2 pattern.
type T2[A, B any] struct {
	V0 A
	V1 B
}

// T3 is the value of a Tuple3 pattern.
type T3[A, B, C any] struct {
	V0 A
	V1 B
	V2 C
}

// T4 is the value of a Tuple4 pattern.
type T4[A, B, C, D any] struct {
	V0 A
	V1 B
	V2 C
	V3 D
}

// Tuple2 runs a then b.
func Tuple2[S, A, B any](a Pattern[S, A], b Pattern[S, B]) Pattern[S, T2[A, B]] {
	return Map(Chain(a, b), func(p Pair[A, B]) T2[A, B] {
		return T2[A, B]{p.First, p.Second}
	})
}

// Tuple3 runs a, b and c in order.
func Tuple3[S, A, B, C any](a Pattern[S, A], b Pattern[S, B], c Pattern[S, C]) Pattern[S, T3[A, B, C]] {
	return Map(Chain(Chain(a, b), c), func(p Pair[Pair[A, B], C]) T3[A, B, C] {
		return T3[A, B, C]{p.First.First, p.First.Second, p.Second}
	})
}

// Tuple4 runs a, b, c and d in order.
func Tuple4[S, A, B, C, D any](a Pattern[S, A], b Pattern[S, B], c Pattern[S, C], d Pattern[S, D]) Pattern[S, T4[A, B, C, D]] {
	return Map(Chain(Chain(Chain(a, b), c), d), func(p Pair[Pair[Pair[A, B], C], D]) T4[A, B, C, D] {
		return T4[A, B, C, D]{p.First.First.First, p.First.First.Second, p.First.Second, p.Second}
	})
}

// --- Seq / Concat / Into ---

type seqPattern[S any] struct {
	parts []Pattern[S, any]
}

// Seq runs any number of patterns strictly in order and collects their values.
// Use Erase to bring differently typed patterns to a common type, or Into to have
// each part store its value in a typed destination.
func Seq[S any](ps ...Pattern[S, any]) Pattern[S, []any] {
	return seqPattern[S]{parts: ps}
}

func (p seqPattern[S]) Bind(s S) Operation[S, []any] {
	return &seqOp[S]{parts: p.parts, s: s, values: make([]any, 0, len(p.parts))}
}

func (p seqPattern[S]) Size() int {
	sizers := make([]Sizer, len(p.parts))
	for i, part := range p.parts {
		sizers[i] = sizerOf(part)
	}
	return sumSizes(sizers...)
}

type seqOp[S any] struct {
	parts  []Pattern[S, any]
	s      S
	cur    Operation[S, any]
	values []any
	done   bool
}

func (op *seqOp[S]) Poll() (S, []any, error) {
	if op.done {
		polledAfterCompletion("seq")
	}
	var zero S
	for len(op.values) < len(op.parts) {
		if op.cur == nil {
			op.cur = op.parts[len(op.values)].Bind(op.s)
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

// Concat runs write patterns (or any value-less patterns) in order.
func Concat[S any](ps ...Pattern[S, struct{}]) Pattern[S, struct{}] {
	parts := make([]Pattern[S, any], len(ps))
	for i, p := range ps {
		parts[i] = Erase(p)
	}
	return Map(Seq(parts...), func([]any) struct{} { return struct{}{} })
}

// Into returns a pattern that stores the value of p in *dst and yields it as any, so
// typed fields can be captured from inside a Seq.
func Into[S, T any](dst *T, p Pattern[S, T]) Pattern[S, any] {
	return Map(p, func(v T) any {
		*dst = v
		return v
	})
}
