// Package format compiles compact format strings into patio patterns.
//
// A format is a sequence of pattern words. Whitespace is ignored; every other
// word describes one field:
//
//	1..8   : an unsigned integer of that many bytes
//	-1..-8 : a signed (two's complement) integer of that many bytes
//	f      : a float32 (4 bytes)
//	d      : a float64 (8 bytes)
//	%      : a Boolean stored in one byte
//	p      : a Pascal style string with a 1-byte length prefix
//	s      : a string with a 4-byte length prefix
//	l      : a line terminated by "\n"
//	r      : a raw string running to the end of the stream
//	z<n>   : a string stored in exactly n bytes, padded with NUL
//	x<n>   : n bytes of padding (skipped on decode, zeros on encode)
//	e      : the end of the stream (no value)
//
// Fixed-width numbers use big-endian order by default; "<" switches to
// little-endian and ">" back to big-endian for the fields that follow.
package format

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/creachadair/mds/value"
	"github.com/oy3o/patio"
	"github.com/puzpuzpuz/xsync/v4"
)

// ErrSyntax reports an invalid format string.
var ErrSyntax = errors.New("format: invalid format")

// ErrArgs reports arguments that do not match a format.
var ErrArgs = errors.New("format: invalid arguments")

// MaxStringLength bounds the length prefix of an "s" field on decode.
const MaxStringLength = patio.DefaultMaxBuffer

type kind uint8

const (
	kindUint kind = iota
	kindInt
	kindF32
	kindF64
	kindBool
	kindPascal
	kindString
	kindLine
	kindRest
	kindFixed
	kindPad
	kindEos
)

type field struct {
	kind  kind
	n     int // width in bytes for numbers, length for z and x
	order patio.Endian
}

// hasValue reports whether the field decodes to a value and takes an argument
// when encoding.
func (fd field) hasValue() bool { return fd.kind != kindPad && fd.kind != kindEos }

// size returns the static size of the field, or -1.
func (fd field) size() int {
	switch fd.kind {
	case kindUint, kindInt, kindFixed, kindPad:
		return fd.n
	case kindF32:
		return 4
	case kindF64:
		return 8
	case kindBool:
		return 1
	case kindEos:
		return 0
	}
	return -1
}

// Format is a compiled format string. It is safe for concurrent use.
type Format struct {
	src    string
	fields []field
	values int
}

// cache holds compiled formats by source text.
var cache = xsync.NewMap[string, *Format]()

// Compile parses src. Compiled formats are cached, so compiling the same text
// again is cheap.
func Compile(src string) (*Format, error) {
	if f, ok := cache.Load(src); ok {
		return f, nil
	}
	f, err := parse(src)
	if err != nil {
		return nil, err
	}
	f, _ = cache.LoadOrStore(src, f)
	return f, nil
}

// MustCompile is Compile that panics on error.
func MustCompile(src string) *Format {
	f, err := Compile(src)
	if err != nil {
		panic(err)
	}
	return f
}

func parse(src string) (*Format, error) {
	f := &Format{src: src}
	order := patio.BE
	for i := 0; i < len(src); i++ {
		c := src[i]
		fd := field{order: order}
		switch {
		case c == ' ' || c == '\t' || c == '\n':
			continue
		case c == '<' || c == '>':
			order = value.Cond(c == '<', patio.LE, patio.BE)
			continue
		case c >= '1' && c <= '8':
			fd.kind, fd.n = kindUint, int(c-'0')
		case c == '-':
			if i+1 >= len(src) || src[i+1] < '1' || src[i+1] > '8' {
				return nil, fmt.Errorf("%w: %q at offset %d needs a width 1-8", ErrSyntax, c, i)
			}
			i++
			fd.kind, fd.n = kindInt, int(src[i]-'0')
		case c == 'f':
			fd.kind = kindF32
		case c == 'd':
			fd.kind = kindF64
		case c == '%':
			fd.kind = kindBool
		case c == 'p':
			fd.kind = kindPascal
		case c == 's':
			fd.kind = kindString
		case c == 'l':
			fd.kind = kindLine
		case c == 'r':
			fd.kind = kindRest
		case c == 'e':
			fd.kind = kindEos
		case c == 'z' || c == 'x':
			j := i + 1
			for j < len(src) && src[j] >= '0' && src[j] <= '9' {
				j++
			}
			if j == i+1 {
				return nil, fmt.Errorf("%w: %q at offset %d needs a length", ErrSyntax, c, i)
			}
			n, err := strconv.Atoi(src[i+1 : j])
			if err != nil {
				return nil, fmt.Errorf("%w: %q at offset %d: %v", ErrSyntax, c, i, err)
			}
			fd.kind, fd.n = value.Cond(c == 'z', kindFixed, kindPad), n
			i = j - 1
		default:
			return nil, fmt.Errorf("%w: invalid pattern word %q at offset %d", ErrSyntax, c, i)
		}
		if fd.hasValue() {
			f.values++
		}
		f.fields = append(f.fields, fd)
	}
	return f, nil
}

// String returns the source text of f.
func (f *Format) String() string { return f.src }

// NumValues returns the number of values f decodes, which is also the number of
// arguments Encoder takes.
func (f *Format) NumValues() int { return f.values }

// Size returns the number of bytes f covers when that does not depend on the data.
func (f *Format) Size() (int, bool) {
	total := 0
	for _, fd := range f.fields {
		n := fd.size()
		if n < 0 {
			return 0, false
		}
		total += n
	}
	return total, true
}

// skipped marks a decoded field without a value.
type skipped struct{}

// Decoder returns a pattern that reads one record of f. Integers decode as uint64
// or int64, floats as float32 or float64, Booleans as bool and every string form
// as string.
func (f *Format) Decoder() patio.Pattern[io.Reader, []any] {
	parts := make([]patio.Pattern[io.Reader, any], len(f.fields))
	for i, fd := range f.fields {
		parts[i] = fd.decoder()
	}
	return patio.Map(patio.Seq(parts...), func(vs []any) []any {
		out := make([]any, 0, f.values)
		for _, v := range vs {
			if _, ok := v.(skipped); !ok {
				out = append(out, v)
			}
		}
		return out
	})
}

func (fd field) decoder() patio.Pattern[io.Reader, any] {
	switch fd.kind {
	case kindUint:
		return patio.Erase(readUint(fd.n, fd.order))
	case kindInt:
		return patio.Erase(readInt(fd.n, fd.order))
	case kindF32:
		return patio.Erase(patio.F32(fd.order))
	case kindF64:
		return patio.Erase(patio.F64(fd.order))
	case kindBool:
		return patio.Map(patio.U8(), func(b uint8) any { return b != 0 })
	case kindPascal:
		return patio.Erase[io.Reader, string](patio.LengthPrefixedString(patio.U8()))
	case kindString:
		return patio.Erase[io.Reader, string](patio.LengthPrefixedString(patio.U32(fd.order)).MaxLength(MaxStringLength))
	case kindLine:
		return patio.Map(patio.Line(), func(s string) any { return strings.TrimSuffix(s, "\n") })
	case kindRest:
		return patio.Map(patio.All(), func(b []byte) any { return string(b) })
	case kindFixed:
		return patio.Map(patio.String(fd.n), func(s string) any { return strings.TrimRight(s, "\x00") })
	case kindPad:
		return patio.Map(patio.Discard(int64(fd.n)), func(struct{}) any { return skipped{} })
	case kindEos:
		return patio.AndThen(patio.Eos(), func(stray error) patio.Pattern[io.Reader, any] {
			if stray != nil {
				return patio.Fail[io.Reader, any](stray)
			}
			return patio.Ok[io.Reader, any](skipped{})
		})
	}
	panic(fmt.Sprintf("format: unknown field kind %d", fd.kind))
}

func widen[T uint8 | uint16 | uint32 | uint64](v T) uint64 { return uint64(v) }

func readUint(n int, e patio.Endian) patio.Pattern[io.Reader, uint64] {
	switch n {
	case 1:
		return patio.Map(patio.U8(), widen[uint8])
	case 2:
		return patio.Map(patio.U16(e), widen[uint16])
	case 3:
		return patio.Map(patio.U24(e), widen[uint32])
	case 4:
		return patio.Map(patio.U32(e), widen[uint32])
	case 5:
		return patio.U40(e)
	case 6:
		return patio.U48(e)
	case 7:
		return patio.U56(e)
	default:
		return patio.U64(e)
	}
}

func widenInt[T int8 | int16 | int32 | int64](v T) int64 { return int64(v) }

func readInt(n int, e patio.Endian) patio.Pattern[io.Reader, int64] {
	switch n {
	case 1:
		return patio.Map(patio.I8(), widenInt[int8])
	case 2:
		return patio.Map(patio.I16(e), widenInt[int16])
	case 3:
		return patio.Map(patio.I24(e), widenInt[int32])
	case 4:
		return patio.Map(patio.I32(e), widenInt[int32])
	case 5:
		return patio.I40(e)
	case 6:
		return patio.I48(e)
	case 7:
		return patio.I56(e)
	default:
		return patio.I64(e)
	}
}

// Encoder returns a pattern that writes one record of f, parsing each field from
// the matching argument. Integers accept any base strconv understands.
func (f *Format) Encoder(args ...string) (patio.Pattern[io.Writer, struct{}], error) {
	if len(args) != f.values {
		return nil, fmt.Errorf("%w: format %q takes %d arguments, got %d", ErrArgs, f.src, f.values, len(args))
	}
	parts := make([]patio.Pattern[io.Writer, struct{}], 0, len(f.fields))
	for _, fd := range f.fields {
		var arg string
		if fd.hasValue() {
			arg, args = args[0], args[1:]
		}
		p, err := fd.encoder(arg)
		if err != nil {
			return nil, err
		}
		parts = append(parts, p)
	}
	return patio.Concat(parts...), nil
}

func (fd field) encoder(arg string) (patio.Pattern[io.Writer, struct{}], error) {
	switch fd.kind {
	case kindUint:
		v, err := strconv.ParseUint(arg, 0, fd.n*8)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid uint%d: %v", ErrArgs, fd.n*8, err)
		}
		return writeUint(fd.n, fd.order, v), nil
	case kindInt:
		v, err := strconv.ParseInt(arg, 0, fd.n*8)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid int%d: %v", ErrArgs, fd.n*8, err)
		}
		return writeInt(fd.n, fd.order, v), nil
	case kindF32:
		v, err := strconv.ParseFloat(arg, 32)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid float32: %v", ErrArgs, err)
		}
		return patio.PutF32(fd.order, float32(v)), nil
	case kindF64:
		v, err := strconv.ParseFloat(arg, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid float64: %v", ErrArgs, err)
		}
		return patio.PutF64(fd.order, v), nil
	case kindBool:
		v, err := strconv.ParseBool(arg)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid bool: %v", ErrArgs, err)
		}
		return patio.PutU8(value.Cond[uint8](v, 1, 0)), nil
	case kindPascal:
		if len(arg) > 255 {
			return nil, fmt.Errorf("%w: length %d > 255 too long for p", ErrArgs, len(arg))
		}
		return patio.PutLengthPrefixedString(patio.PutU8, arg), nil
	case kindString:
		return patio.PutLengthPrefixedString(func(n uint32) patio.Pattern[io.Writer, struct{}] {
			return patio.PutU32(fd.order, n)
		}, arg), nil
	case kindLine:
		if strings.Contains(arg, "\n") {
			return nil, fmt.Errorf("%w: line %q contains a newline", ErrArgs, arg)
		}
		return patio.PutString(arg + "\n"), nil
	case kindRest:
		return patio.PutString(arg), nil
	case kindFixed:
		if len(arg) > fd.n {
			return nil, fmt.Errorf("%w: length %d > %d too long for z%d", ErrArgs, len(arg), fd.n, fd.n)
		}
		return patio.Concat(patio.PutString(arg), patio.PutZeros(fd.n-len(arg))), nil
	case kindPad:
		return patio.PutZeros(fd.n), nil
	case kindEos:
		return patio.Ok[io.Writer](struct{}{}), nil
	}
	panic(fmt.Sprintf("format: unknown field kind %d", fd.kind))
}

func writeUint(n int, e patio.Endian, v uint64) patio.Pattern[io.Writer, struct{}] {
	switch n {
	case 1:
		return patio.PutU8(uint8(v))
	case 2:
		return patio.PutU16(e, uint16(v))
	case 3:
		return patio.PutU24(e, uint32(v))
	case 4:
		return patio.PutU32(e, uint32(v))
	case 5:
		return patio.PutU40(e, v)
	case 6:
		return patio.PutU48(e, v)
	case 7:
		return patio.PutU56(e, v)
	default:
		return patio.PutU64(e, v)
	}
}

func writeInt(n int, e patio.Endian, v int64) patio.Pattern[io.Writer, struct{}] {
	switch n {
	case 1:
		return patio.PutI8(int8(v))
	case 2:
		return patio.PutI16(e, int16(v))
	case 3:
		return patio.PutI24(e, int32(v))
	case 4:
		return patio.PutI32(e, int32(v))
	case 5:
		return patio.PutI40(e, v)
	case 6:
		return patio.PutI48(e, v)
	case 7:
		return patio.PutI56(e, v)
	default:
		return patio.PutI64(e, v)
	}
}

// Pack compiles src and encodes args into a new slice.
func Pack(src string, args ...string) ([]byte, error) {
	f, err := Compile(src)
	if err != nil {
		return nil, err
	}
	enc, err := f.Encoder(args...)
	if err != nil {
		return nil, err
	}
	return patio.Marshal(enc)
}

// Unpack compiles src and decodes exactly one record from data.
func Unpack(src string, data []byte) ([]any, error) {
	f, err := Compile(src)
	if err != nil {
		return nil, err
	}
	return patio.Unmarshal(f.Decoder(), data)
}
