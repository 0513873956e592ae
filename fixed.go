package patio

import (
	"encoding/binary"
	"fmt"
	"io"
	"reflect"

	"github.com/puzpuzpuz/xsync/v4"
)

// sizeCache avoids the cost of reflection in `binary.Size` on every bind.
var sizeCache = xsync.NewMap[reflect.Type, int]()

// fixedSize returns the encoded size of T, or -1 if T is not fixed size.
func fixedSize[T any]() int {
	t := reflect.TypeFor[T]()
	if size, ok := sizeCache.Load(t); ok {
		return size
	}
	var v T
	size := binary.Size(&v)
	sizeCache.Store(t, size)
	return size
}

// Fixed reads a value of T, a struct or array composed only of fixed-size fields,
// with encoding/binary in the given order.
//
// Constraint: T MUST NOT contain variable-size fields like slices, maps, or strings.
// Such a T yields a pattern that fails with ErrInvalidData.
func Fixed[T any](e Endian) Pattern[io.Reader, T] {
	n := fixedSize[T]()
	if n < 0 {
		return Fail[io.Reader, T](fmt.Errorf("%w: %s is not fixed size", ErrInvalidData, reflect.TypeFor[T]()))
	}
	order := e.ByteOrder()
	return exactPattern[T]{n: n, decode: func(b []byte) (T, error) {
		var v T
		if _, err := binary.Decode(b, order, &v); err != nil {
			return v, fmt.Errorf("%w: %v", ErrInvalidData, err)
		}
		return v, nil
	}}
}

// PutFixed writes v with encoding/binary in the given order. The bytes are encoded
// when the pattern is built.
func PutFixed[T any](e Endian, v T) Pattern[io.Writer, struct{}] {
	n := fixedSize[T]()
	if n < 0 {
		return Fail[io.Writer, struct{}](fmt.Errorf("%w: %s is not fixed size", ErrInvalidData, reflect.TypeFor[T]()))
	}
	buf := make([]byte, n)
	if _, err := binary.Encode(buf, e.ByteOrder(), &v); err != nil {
		return Fail[io.Writer, struct{}](fmt.Errorf("%w: %v", ErrInvalidData, err))
	}
	return PutBytes(buf)
}
