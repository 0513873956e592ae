package patio

import (
	"encoding/binary"
	"fmt"
)

// Endian is the byte order of a multi-byte numeric pattern.
type Endian uint8

const (
	BE Endian = iota // big endian, most significant byte first
	LE               // little endian, least significant byte first
)

// ByteOrder returns the encoding/binary order for e.
func (e Endian) ByteOrder() binary.ByteOrder {
	if e == LE {
		return binary.LittleEndian
	}
	return binary.BigEndian
}

func (e Endian) String() string {
	switch e {
	case BE:
		return "BE"
	case LE:
		return "LE"
	}
	return fmt.Sprintf("Endian(%d)", uint8(e))
}

// Uint decodes an unsigned value from b, which holds 1 to 8 bytes.
func (e Endian) Uint(b []byte) uint64 {
	checkWidth(len(b))
	var v uint64
	if e == LE {
		for i := len(b) - 1; i >= 0; i-- {
			v = v<<8 | uint64(b[i])
		}
		return v
	}
	for _, c := range b {
		v = v<<8 | uint64(c)
	}
	return v
}

// Int decodes a two's complement value from b and sign extends it to 64 bits.
func (e Endian) Int(b []byte) int64 {
	return signExtend(e.Uint(b), len(b)*8)
}

// PutUint encodes the low len(b) bytes of v into b.
func (e Endian) PutUint(b []byte, v uint64) {
	checkWidth(len(b))
	if e == LE {
		for i := range b {
			b[i] = byte(v)
			v >>= 8
		}
		return
	}
	for i := len(b) - 1; i >= 0; i-- {
		b[i] = byte(v)
		v >>= 8
	}
}

// Append appends the low n bytes of v to b.
func (e Endian) Append(b []byte, n int, v uint64) []byte {
	b = append(b, make([]byte, n)...)
	e.PutUint(b[len(b)-n:], v)
	return b
}

func signExtend(v uint64, bits int) int64 {
	shift := 64 - bits
	return int64(v<<shift) >> shift
}

func checkWidth(n int) {
	if n < 1 || n > 8 {
		panic(fmt.Sprintf("patio: numeric width %d out of range [1:8]", n))
	}
}
