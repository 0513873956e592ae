package patio

import (
	"context"
	"io"
	"iter"
)

// Stream decodes p from r over and over and yields each value. It stops after the
// stream ends cleanly between two values, or after yielding the first error.
// Values are awaited, so r may be non-blocking; ctx bounds the whole stream.
func Stream[T any](ctx context.Context, p Pattern[io.Reader, T], r io.Reader) iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		var zero T
		if r == nil {
			yield(zero, ErrNilIO)
			return
		}
		c := NewReadCounter(r)
		for {
			mark := c.Count()
			_, v, err := Await(ctx, p.Bind(c))
			consumed := c.Count() - mark
			switch {
			case err != nil && endsCleanly(consumed, err):
				return
			case err != nil:
				yield(zero, err)
				return
			case consumed == 0:
				yield(zero, io.ErrNoProgress)
				return
			}
			if !yield(v, nil) {
				return
			}
		}
	}
}
