package patio

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"reflect"

	"code.hybscloud.com/iox"
)

// Run polls op once. On streams that never report would-block (in-memory
// buffers, files, blocking sockets) that is enough to complete it. Otherwise Run
// returns ErrWouldBlock and op stays resumable.
func Run[S, T any](op Operation[S, T]) (S, T, error) {
	return Drive(op, iox.ReturnPolicy{})
}

// Drive polls op until it completes, asking policy what to do each time the
// stream would block: PolicyRetry yields through the policy and polls again,
// PolicyReturn hands the would-block error back to the caller. A nil policy
// behaves like iox.ReturnPolicy.
func Drive[S, T any](op Operation[S, T], policy iox.SemanticPolicy) (S, T, error) {
	side := sideOf[S]()
	for {
		s, v, err := op.Poll()
		if !IsWouldBlock(err) {
			return s, v, err
		}
		if policy == nil || policy.OnWouldBlock(side) != iox.PolicyRetry {
			return s, v, err
		}
		policy.Yield(side)
	}
}

// sideOf names the stream side of S for a SemanticPolicy.
func sideOf[S any]() iox.Op {
	if reflect.TypeFor[S]().Implements(reflect.TypeFor[io.Writer]()) {
		return iox.OpCopyWrite
	}
	return iox.OpCopyRead
}

// Await polls op until it completes, sleeping with an iox.Backoff between polls
// that would block. It gives up with the context's error when ctx is done; op is
// then left pending and may be resumed later.
func Await[S, T any](ctx context.Context, op Operation[S, T]) (S, T, error) {
	var b iox.Backoff
	return awaitWith(ctx, op, b.Wait)
}

func awaitWith[S, T any](ctx context.Context, op Operation[S, T], wait func()) (S, T, error) {
	for {
		if err := ctx.Err(); err != nil {
			var (
				s S
				v T
			)
			return s, v, context.Cause(ctx)
		}
		s, v, err := op.Poll()
		if !IsWouldBlock(err) {
			return s, v, err
		}
		wait()
	}
}

// Decode reads one value of p from r and drops the stream from the result.
func Decode[T any](p Pattern[io.Reader, T], r io.Reader) (T, error) {
	_, v, err := Run(p.Bind(r))
	return v, err
}

// Encode writes p to w and drops the stream from the result.
func Encode[T any](p Pattern[io.Writer, T], w io.Writer) error {
	_, _, err := Run(p.Bind(w))
	return err
}

// Unmarshal decodes p from data. It rejects data that p does not consume
// completely, including bytes a greedy pattern read ahead and pushed back.
func Unmarshal[T any](p Pattern[io.Reader, T], data []byte) (T, error) {
	r := NewBytesReader(data)
	pr := NewPushbackReader(r)
	v, err := Decode(p, pr)
	if err != nil {
		return v, err
	}
	if n := r.Available() + pr.Buffered(); n > 0 {
		var zero T
		return zero, fmt.Errorf("%w: %d bytes after offset %d", ErrTrailingData, n, len(data)-n)
	}
	return v, nil
}

// Marshal encodes p into a new slice. Patterns with a static size are written into
// an exactly sized buffer.
func Marshal[T any](p Pattern[io.Writer, T]) ([]byte, error) {
	if size, ok := SizeOf(p); ok {
		bw := NewBytesWriter(make([]byte, size))
		w := NewWriteCounter(bw)
		if err := Encode(p, w); err != nil {
			return nil, err
		}
		if w.Count() < int64(size) {
			return nil, fmt.Errorf("%w: expected %d bytes, but wrote %d", io.ErrShortWrite, size, w.Count())
		}
		return bw.Bytes(), nil
	}

	buf := getBytesBuf()
	defer putBytesBuf(buf)
	if err := Encode(p, buf); err != nil {
		return nil, err
	}
	return bytes.Clone(buf.Bytes()), nil
}
