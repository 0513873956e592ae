package patio

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/oy3o/patio/patiotest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLengthPrefixedString(t *testing.T) {
	r := NewBytesReader([]byte{5, 'h', 'e', 'l', 'l', 'o', 'X'})
	s, err := Decode(LengthPrefixedString(U8()), r)
	require.NoError(t, err)
	assert.Equal(t, "hello", s)
	assert.Equal(t, []byte("X"), r.Remaining())

	t.Run("Trickled", func(t *testing.T) {
		src := patiotest.Stutter([]byte{0, 3, 'a', 'b', 'c'}, 1)
		_, b, _, err := pollUntilDone(t, LengthPrefixed(U16(BE)).Bind(src))
		require.NoError(t, err)
		assert.Equal(t, []byte("abc"), b)
	})

	t.Run("NegativeLength", func(t *testing.T) {
		_, err := Unmarshal(LengthPrefixed(I8()), []byte{0xff})
		assert.ErrorIs(t, err, ErrInvalidData)
	})

	t.Run("MaxLength", func(t *testing.T) {
		_, err := Unmarshal(LengthPrefixed(U32(BE)).MaxLength(1024), []byte{0xff, 0xff, 0xff, 0xff})
		require.ErrorIs(t, err, ErrInvalidData)
		assert.Contains(t, err.Error(), "exceeds limit 1024")

		s, err := Unmarshal(LengthPrefixedString(U8()).MaxLength(2), []byte{2, 'o', 'k'})
		require.NoError(t, err)
		assert.Equal(t, "ok", s)

		assert.Panics(t, func() { LengthPrefixed(U8()).MaxLength(-1) })
	})

	t.Run("Truncated", func(t *testing.T) {
		_, err := Unmarshal(LengthPrefixedString(U8()), []byte{4, 'a'})
		var te *TransferError
		require.ErrorAs(t, err, &te)
		assert.Equal(t, []byte("a"), te.Partial())
	})
}

func TestString(t *testing.T) {
	s, err := Unmarshal(String(6), []byte("héllo"))
	require.NoError(t, err)
	assert.Equal(t, "héllo", s)

	_, err = Unmarshal(String(3), []byte{'a', 0xff, 0xfe})
	require.ErrorIs(t, err, ErrInvalidData)
	assert.Contains(t, err.Error(), "offset 1")

	_, _, err = String(-1).Bind(NewBytesReader(nil)).Poll()
	assert.ErrorIs(t, err, ErrNegativeCount)
}

func TestBuf(t *testing.T) {
	b := make([]byte, 3)
	p := Buf(b)
	n, ok := SizeOf(p)
	require.True(t, ok)
	assert.Equal(t, 3, n)

	r := NewBytesReader([]byte("abcdef"))
	got, err := Decode(p, r)
	require.NoError(t, err)
	assert.Equal(t, []byte("abc"), got)
	got, err = Decode(p, r)
	require.NoError(t, err)
	assert.Equal(t, []byte("def"), b)
	assert.Same(t, &b[0], &got[0])
}

func TestDelimited(t *testing.T) {
	t.Run("Pushback", func(t *testing.T) {
		r := NewPushbackReader(NewBytesReader([]byte("hello\nworld")))
		first, err := Decode(Delimited('\n'), r)
		require.NoError(t, err)
		assert.Equal(t, []byte("hello\n"), first.Buf)
		assert.Empty(t, first.Rest)
		assert.Equal(t, 5, r.Buffered())

		second, err := Decode(Delimited('\n'), r)
		require.NoError(t, err)
		assert.Equal(t, []byte("world"), second.Buf)

		_, err = Decode(Delimited('\n'), r)
		assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
	})

	t.Run("Rest", func(t *testing.T) {
		v, err := Decode(Delimited('\n'), NewBytesReader([]byte("hello\nworld")))
		require.NoError(t, err)
		assert.Equal(t, []byte("hello\n"), v.Buf)
		assert.Equal(t, []byte("world"), v.Rest)
	})

	t.Run("CountedStream", func(t *testing.T) {
		c := NewReadCounter(NewBytesReader([]byte("hello\nworld")))
		v, err := Decode(Delimited('\n'), c)
		require.NoError(t, err)
		assert.Empty(t, v.Rest)
		assert.Equal(t, int64(6), c.Count())

		rest, err := io.ReadAll(c)
		require.NoError(t, err)
		assert.Equal(t, "world", string(rest))
	})

	t.Run("ReadFailure", func(t *testing.T) {
		r := patiotest.NewScript(patiotest.Step{B: []byte("ab"), Err: errBoom})
		_, err := Decode(Delimited('\n'), r)
		require.ErrorIs(t, err, errBoom)
		var te *TransferError
		require.ErrorAs(t, err, &te)
		assert.Equal(t, "read", te.Op)
		assert.Equal(t, []byte("ab"), te.Partial())
	})

	t.Run("Stutter", func(t *testing.T) {
		r := patiotest.Stutter([]byte("ab\ncd"), 1)
		_, v, pending, err := pollUntilDone(t, Delimited('\n').Bind(r))
		require.NoError(t, err)
		assert.Equal(t, []byte("ab\n"), v.Buf)
		assert.Equal(t, 3, pending)
		assert.Equal(t, []byte("cd"), r.Remaining())
	})

	t.Run("Growth", func(t *testing.T) {
		data := strings.Repeat("x", 40) + ";"
		v, err := Decode(Delimited(';').MinBuffer(4).MaxBuffer(64), NewBytesReader([]byte(data)))
		require.NoError(t, err)
		assert.Equal(t, data, string(v.Buf))
	})

	t.Run("Limit", func(t *testing.T) {
		_, err := Decode(Delimited(';').MinBuffer(4).MaxBuffer(8), NewBytesReader(make([]byte, 20)))
		assert.ErrorIs(t, err, ErrBufferLimit)
	})

	t.Run("Options", func(t *testing.T) {
		assert.Panics(t, func() { Delimited(0).MinBuffer(0) })
		assert.Panics(t, func() { Delimited(0).MinBuffer(16).MaxBuffer(8) })
		u := Delimited(0).MaxBuffer(DefaultMinBuffer).MinBuffer(4096)
		assert.Equal(t, 4096, u.max)
	})
}

func TestUntilScanError(t *testing.T) {
	boom := errors.New("boom")
	p := Until(func(buf []byte, eos bool) (int, int, error) {
		if len(buf) >= 2 {
			return 0, 0, boom
		}
		return 0, 0, nil
	})
	_, err := Decode(p, patiotest.Trickle([]byte("abc"), 1))
	assert.ErrorIs(t, err, boom)

	bad := Until(func(buf []byte, eos bool) (int, int, error) { return len(buf) + 1, 0, nil })
	_, err = Decode(bad, NewBytesReader([]byte("abc")))
	assert.ErrorIs(t, err, ErrInvalidData)
}

func TestEos(t *testing.T) {
	v, err := Decode(Eos(), NewBytesReader(nil))
	require.NoError(t, err)
	assert.NoError(t, v)

	r := NewBytesReader([]byte("XY"))
	v, err = Decode(Eos(), r)
	require.NoError(t, err)
	var stray *StrayByteError
	require.ErrorAs(t, v, &stray)
	assert.Equal(t, byte('X'), stray.Byte)
	assert.ErrorIs(t, v, ErrTrailingData)
	assert.Equal(t, []byte("Y"), r.Remaining())

	_, _, pending, err := pollUntilDone(t, Eos().Bind(patiotest.Stutter(nil, 1)))
	require.NoError(t, err)
	assert.Equal(t, 1, pending)
}

func TestLine(t *testing.T) {
	r := NewBytesReader([]byte("one\ntwo"))
	line, err := Decode(Line(), r)
	require.NoError(t, err)
	assert.Equal(t, "one\n", line)
	assert.Equal(t, []byte("two"), r.Remaining())

	line, err = Decode(Line(), r)
	require.NoError(t, err)
	assert.Equal(t, "two", line)

	_, err = Decode(Line(), r)
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)

	_, err = Decode(Line(), NewBytesReader([]byte{0xc3, '\n'}))
	assert.ErrorIs(t, err, ErrInvalidData)

	_, line, _, err = pollUntilDone(t, Line().Bind(patiotest.Stutter([]byte("hi\nthere"), 2)))
	require.NoError(t, err)
	assert.Equal(t, "hi\n", line)
}

func TestAll(t *testing.T) {
	data := bytes.Repeat([]byte("0123456789"), 10000)
	_, got, pending, err := pollUntilDone(t, All().Bind(patiotest.Stutter(data, 777)))
	require.NoError(t, err)
	assert.Equal(t, data, got)
	assert.Positive(t, pending)

	none, err := Decode(All(), NewBytesReader(nil))
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)
}

func TestPartial(t *testing.T) {
	r := patiotest.Trickle([]byte("abcdef"), 4)
	c, err := Decode(Partial(make([]byte, 8)), r)
	require.NoError(t, err)
	assert.Equal(t, 4, c.N)
	assert.Equal(t, []byte("abcd"), c.Bytes())

	c, err = Decode(Partial(make([]byte, 8)), NewBytesReader(nil))
	require.NoError(t, err)
	assert.Zero(t, c.N)
}

func TestDiscard(t *testing.T) {
	r := NewBytesReader([]byte("abcdef"))
	_, err := Decode(Discard(3), r)
	require.NoError(t, err)
	assert.Equal(t, []byte("def"), r.Remaining())

	_, err = Decode(Discard(10), NewBytesReader([]byte("abc")))
	require.ErrorIs(t, err, io.ErrUnexpectedEOF)
	assert.Contains(t, err.Error(), "after 3 of 10 bytes")

	_, err = Decode(Discard(-1), NewBytesReader(nil))
	assert.ErrorIs(t, err, ErrNegativeCount)

	src := patiotest.Stutter(make([]byte, 100000), 5000)
	_, _, _, err = pollUntilDone(t, Discard(99999).Bind(src))
	require.NoError(t, err)
	assert.Len(t, src.Remaining(), 1)
}

func TestPutZeros(t *testing.T) {
	out, err := Marshal(PutZeros(5000))
	require.NoError(t, err)
	assert.Equal(t, make([]byte, 5000), out)

	err = Encode(PutZeros(10), patiotest.NewWriter(4).Limit(6))
	require.ErrorIs(t, err, io.ErrShortWrite)
	assert.Contains(t, err.Error(), "4 bytes left")

	_, err = Marshal(PutZeros(-1))
	assert.ErrorIs(t, err, ErrNegativeCount)
}

func TestPutPartial(t *testing.T) {
	w := patiotest.NewWriter(3)
	_, n, err := Run(PutPartial([]byte("hello")).Bind(w))
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, []byte("hel"), w.Bytes())

	_, n, err = Run(PutPartial([]byte("x")).Bind(patiotest.NewWriter(3).Limit(0)))
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestFlush(t *testing.T) {
	w := patiotest.StutterWriter(4)
	op := Flush().Bind(w)
	_, _, err := op.Poll()
	require.True(t, IsWouldBlock(err))
	_, _, err = op.Poll()
	require.NoError(t, err)
	assert.Equal(t, 1, w.Flushes)
	requireRepollPanics(t, func() { op.Poll() })

	require.NoError(t, Encode(Flush(), new(bytes.Buffer)))

	counted := NewWriteCounter(patiotest.NewWriter(4))
	require.NoError(t, Encode(Concat(PutString("ab"), Flush()), counted))
	assert.Equal(t, 1, counted.Inner().(*patiotest.Writer).Flushes)
}

func TestPutLengthPrefixed(t *testing.T) {
	out, err := Marshal(PutLengthPrefixedString(PutU8, "hi"))
	require.NoError(t, err)
	assert.Equal(t, []byte{2, 'h', 'i'}, out)

	s, err := Unmarshal(LengthPrefixedString(U8()), out)
	require.NoError(t, err)
	assert.Equal(t, "hi", s)

	_, err = Marshal(PutLengthPrefixed(PutU8, make([]byte, 300)))
	assert.ErrorIs(t, err, ErrInvalidData)

	be16 := func(n uint16) Pattern[io.Writer, struct{}] { return PutU16(BE, n) }
	out, err = Marshal(PutLengthPrefixed(be16, make([]byte, 300)))
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 44}, out[:2])
	assert.Len(t, out, 302)
}
