package patio

// boxed is a pattern whose concrete pattern and operation types are hidden
// behind closures.
type boxed[S, T any] struct {
	bind func(s S) Operation[S, T]
	size int
}

func (b boxed[S, T]) Bind(s S) Operation[S, T] { return b.bind(s) }

func (b boxed[S, T]) Size() int { return b.size }

func staticSize[S, T any](p Pattern[S, T]) int {
	if n, ok := SizeOf(p); ok {
		return n
	}
	return -1
}

// Box erases the concrete type of p and of the operations it binds. Long chains
// built from Box values have a fixed type no matter how deeply they nest, at the
// cost of one closure allocation per bind. Size information is kept.
func Box[S, T any](p Pattern[S, T]) Pattern[S, T] {
	if b, ok := p.(boxed[S, T]); ok {
		return b
	}
	return boxed[S, T]{
		bind: func(s S) Operation[S, T] {
			return OperationFunc[S, T](p.Bind(s).Poll)
		},
		size: staticSize(p),
	}
}

// Erase boxes p to a pattern of any, so patterns with different value types can
// share a slice, e.g. for Seq. A failed operation yields a nil value.
func Erase[S, T any](p Pattern[S, T]) Pattern[S, any] {
	if e, ok := any(p).(Pattern[S, any]); ok {
		return e
	}
	return boxed[S, any]{
		bind: func(s S) Operation[S, any] {
			op := p.Bind(s)
			return OperationFunc[S, any](func() (S, any, error) {
				s, v, err := op.Poll()
				if err != nil {
					return s, nil, err
				}
				return s, v, nil
			})
		},
		size: staticSize(p),
	}
}
