package patio

import (
	"io"
	"math"

	"golang.org/x/exp/constraints"
)

// exactPattern reads exactly n bytes into a fresh buffer and decodes them.
type exactPattern[T any] struct {
	n      int
	decode func([]byte) (T, error)
}

func (p exactPattern[T]) Bind(r io.Reader) Operation[io.Reader, T] {
	if r == nil {
		return &resolved[io.Reader, T]{err: ErrNilIO}
	}
	if p.n < 0 {
		return &resolved[io.Reader, T]{s: r, err: ErrNegativeCount}
	}
	return &exactOp[T]{rx: ReadExact(r, NewWindow(make([]byte, p.n))), decode: p.decode}
}

func (p exactPattern[T]) Size() int { return p.n }

type exactOp[T any] struct {
	rx     *ReadExactOp
	decode func([]byte) (T, error)
	done   bool
}

func (op *exactOp[T]) Poll() (io.Reader, T, error) {
	if op.done {
		polledAfterCompletion("read exact")
	}
	var zero T
	r, w, err := op.rx.Poll()
	if IsWouldBlock(err) {
		return nil, zero, err
	}
	op.done = true
	if err != nil {
		return r, zero, err
	}
	v, err := op.decode(w.Inner())
	if err != nil {
		return r, zero, err
	}
	return r, v, nil
}

func uintN[T constraints.Unsigned](n int, e Endian) Pattern[io.Reader, T] {
	checkWidth(n)
	return exactPattern[T]{n: n, decode: func(b []byte) (T, error) { return T(e.Uint(b)), nil }}
}

func intN[T constraints.Signed](n int, e Endian) Pattern[io.Reader, T] {
	checkWidth(n)
	return exactPattern[T]{n: n, decode: func(b []byte) (T, error) { return T(e.Int(b)), nil }}
}

func U8() Pattern[io.Reader, uint8] { return uintN[uint8](1, BE) }
func I8() Pattern[io.Reader, int8]  { return intN[int8](1, BE) }

func U16(e Endian) Pattern[io.Reader, uint16] { return uintN[uint16](2, e) }
func I16(e Endian) Pattern[io.Reader, int16]  { return intN[int16](2, e) }

// U24 and I24 read three bytes; I24 sign extends.
func U24(e Endian) Pattern[io.Reader, uint32] { return uintN[uint32](3, e) }
func I24(e Endian) Pattern[io.Reader, int32]  { return intN[int32](3, e) }

func U32(e Endian) Pattern[io.Reader, uint32] { return uintN[uint32](4, e) }
func I32(e Endian) Pattern[io.Reader, int32]  { return intN[int32](4, e) }

func U40(e Endian) Pattern[io.Reader, uint64] { return uintN[uint64](5, e) }
func I40(e Endian) Pattern[io.Reader, int64]  { return intN[int64](5, e) }
func U48(e Endian) Pattern[io.Reader, uint64] { return uintN[uint64](6, e) }
func I48(e Endian) Pattern[io.Reader, int64]  { return intN[int64](6, e) }
func U56(e Endian) Pattern[io.Reader, uint64] { return uintN[uint64](7, e) }
func I56(e Endian) Pattern[io.Reader, int64]  { return intN[int64](7, e) }

func U64(e Endian) Pattern[io.Reader, uint64] { return uintN[uint64](8, e) }
func I64(e Endian) Pattern[io.Reader, int64]  { return intN[int64](8, e) }

// F32 reads an IEEE 754 single precision value.
func F32(e Endian) Pattern[io.Reader, float32] {
	return exactPattern[float32]{n: 4, decode: func(b []byte) (float32, error) {
		return math.Float32frombits(uint32(e.Uint(b))), nil
	}}
}

// F64 reads an IEEE 754 double precision value.
func F64(e Endian) Pattern[io.Reader, float64] {
	return exactPattern[float64]{n: 8, decode: func(b []byte) (float64, error) {
		return math.Float64frombits(e.Uint(b)), nil
	}}
}

// --- writers ---

// putN encodes the low n bytes of v up front; binding writes them with WriteAll.
func putN(n int, e Endian, v uint64) Pattern[io.Writer, struct{}] {
	checkWidth(n)
	b := make([]byte, n)
	e.PutUint(b, v)
	return PutBytes(b)
}

func PutU8(v uint8) Pattern[io.Writer, struct{}] { return putN(1, BE, uint64(v)) }
func PutI8(v int8) Pattern[io.Writer, struct{}]  { return putN(1, BE, uint64(v)) }

func PutU16(e Endian, v uint16) Pattern[io.Writer, struct{}] { return putN(2, e, uint64(v)) }
func PutI16(e Endian, v int16) Pattern[io.Writer, struct{}]  { return putN(2, e, uint64(v)) }

// PutU24 and PutI24 write the low three bytes of v.
func PutU24(e Endian, v uint32) Pattern[io.Writer, struct{}] { return putN(3, e, uint64(v)) }
func PutI24(e Endian, v int32) Pattern[io.Writer, struct{}]  { return putN(3, e, uint64(v)) }

func PutU32(e Endian, v uint32) Pattern[io.Writer, struct{}] { return putN(4, e, uint64(v)) }
func PutI32(e Endian, v int32) Pattern[io.Writer, struct{}]  { return putN(4, e, uint64(v)) }

func PutU40(e Endian, v uint64) Pattern[io.Writer, struct{}] { return putN(5, e, v) }
func PutI40(e Endian, v int64) Pattern[io.Writer, struct{}]  { return putN(5, e, uint64(v)) }
func PutU48(e Endian, v uint64) Pattern[io.Writer, struct{}] { return putN(6, e, v) }
func PutI48(e Endian, v int64) Pattern[io.Writer, struct{}]  { return putN(6, e, uint64(v)) }
func PutU56(e Endian, v uint64) Pattern[io.Writer, struct{}] { return putN(7, e, v) }
func PutI56(e Endian, v int64) Pattern[io.Writer, struct{}]  { return putN(7, e, uint64(v)) }

func PutU64(e Endian, v uint64) Pattern[io.Writer, struct{}] { return putN(8, e, v) }
func PutI64(e Endian, v int64) Pattern[io.Writer, struct{}]  { return putN(8, e, uint64(v)) }

func PutF32(e Endian, v float32) Pattern[io.Writer, struct{}] {
	return putN(4, e, uint64(math.Float32bits(v)))
}

func PutF64(e Endian, v float64) Pattern[io.Writer, struct{}] {
	return putN(8, e, math.Float64bits(v))
}
