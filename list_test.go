package patio

import (
	"io"
	"iter"
	"slices"
	"testing"

	"github.com/fortytw2/leaktest"
	"github.com/google/go-cmp/cmp"
	"github.com/oy3o/patio/patiotest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFold(t *testing.T) {
	// Fold pulls its sequence from a coroutine that must be stopped.
	defer leaktest.Check(t)()
	sum := func(acc int, v uint8) int { return acc + int(v) }

	t.Run("Finite", func(t *testing.T) {
		ps := slices.Values([]Pattern[io.Reader, uint8]{U8(), U8(), U8()})
		r := NewBytesReader([]byte{1, 2, 3, 4})
		total, err := Decode(Fold(ps, 10, sum), r)
		require.NoError(t, err)
		assert.Equal(t, 16, total)
		assert.Equal(t, []byte{4}, r.Remaining())
	})

	t.Run("Empty", func(t *testing.T) {
		total, err := Unmarshal(Fold(slices.Values([]Pattern[io.Reader, uint8](nil)), 7, sum), nil)
		require.NoError(t, err)
		assert.Equal(t, 7, total)
	})

	t.Run("Lazy", func(t *testing.T) {
		pulled := 0
		var seq iter.Seq[Pattern[io.Reader, uint8]] = func(yield func(Pattern[io.Reader, uint8]) bool) {
			for range 3 {
				pulled++
				if !yield(U8()) {
					return
				}
			}
		}
		op := Fold(seq, 0, sum).Bind(patiotest.Stutter([]byte{1, 2, 3}, 1))
		_, _, err := op.Poll()
		require.True(t, IsWouldBlock(err))
		assert.Equal(t, 1, pulled)

		_, total, _, err := pollUntilDone(t, op)
		require.NoError(t, err)
		assert.Equal(t, 6, total)
		assert.Equal(t, 3, pulled)
	})

	t.Run("RepeatUntilFailure", func(t *testing.T) {
		r := NewBytesReader([]byte{1, 2, 3})
		_, err := Decode(Iter(Repeat(U8())), r)
		assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
		assert.Zero(t, r.Available())
	})
}

func TestCount(t *testing.T) {
	p := Count(3, U16(BE))
	n, ok := SizeOf(p)
	require.True(t, ok)
	assert.Equal(t, 6, n)

	vs, err := Unmarshal(p, []byte{0, 1, 0, 2, 0, 3})
	require.NoError(t, err)
	assert.Equal(t, []uint16{1, 2, 3}, vs)

	_, vs, pending, err := pollUntilDone(t, p.Bind(patiotest.Stutter([]byte{0, 1, 0, 2, 0, 3}, 4)))
	require.NoError(t, err)
	assert.Equal(t, []uint16{1, 2, 3}, vs)
	assert.Equal(t, 3, pending)

	none, err := Unmarshal(Count(0, U8()), nil)
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)

	_, err = Unmarshal(Count(-1, U8()), nil)
	assert.ErrorIs(t, err, ErrNegativeCount)
	_, ok = SizeOf(Count(-1, U8()))
	assert.False(t, ok)
	_, ok = SizeOf(Count(2, All()))
	assert.False(t, ok)

	_, err = Unmarshal(Count(3, U16(BE)), []byte{0, 1, 0, 2, 0})
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
}

func TestMany(t *testing.T) {
	t.Run("CleanEnd", func(t *testing.T) {
		r := NewBytesReader([]byte{0, 1, 0, 2})
		st, vs, err := Run(Many(U16(BE)).Bind(r))
		require.NoError(t, err)
		assert.Same(t, r, st)
		assert.Equal(t, []uint16{1, 2}, vs)
	})

	t.Run("EmptyStream", func(t *testing.T) {
		vs, err := Unmarshal(Many(U16(BE)), nil)
		require.NoError(t, err)
		assert.Empty(t, vs)
	})

	t.Run("TruncatedItem", func(t *testing.T) {
		_, err := Unmarshal(Many(U16(BE)), []byte{0, 1, 0})
		assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
	})

	t.Run("NoProgress", func(t *testing.T) {
		_, err := Unmarshal(Many(Ok[io.Reader](1)), []byte{1})
		assert.ErrorIs(t, err, io.ErrNoProgress)
	})

	t.Run("Stutter", func(t *testing.T) {
		lines := []string{"a\n", "bc\n", "def"}
		r := patiotest.Stutter([]byte("a\nbc\ndef"), 3)
		_, got, _, err := pollUntilDone(t, Many(Line()).Bind(r))
		require.NoError(t, err)
		if diff := cmp.Diff(lines, got); diff != "" {
			t.Errorf("Many(Line()) (-want, +got):\n%s", diff)
		}
	})

	t.Run("GreedyItems", func(t *testing.T) {
		want := []string{"a\n", "b\n", "c\n"}
		for name, r := range map[string]io.Reader{
			"Pushback": NewPushbackReader(NewBytesReader([]byte("a\nb\nc\n"))),
			"Plain":    NewBytesReader([]byte("a\nb\nc\n")),
			"Stutter":  patiotest.Stutter([]byte("a\nb\nc\n"), 2),
		} {
			t.Run(name, func(t *testing.T) {
				st, got, _, err := pollUntilDone(t, Many(lines()).Bind(r))
				require.NoError(t, err)
				assert.Same(t, r, st)
				if diff := cmp.Diff(want, got); diff != "" {
					t.Errorf("Many(lines()) (-want, +got):\n%s", diff)
				}
			})
		}
	})

	t.Run("CountedStream", func(t *testing.T) {
		c := NewReadCounter(NewBytesReader([]byte{1, 2, 3}))
		st, vs, err := Run(Many(U8()).Bind(c))
		require.NoError(t, err)
		assert.Same(t, c, st)
		assert.Equal(t, []uint8{1, 2, 3}, vs)
		assert.Equal(t, int64(3), c.Count())
	})

	t.Run("NilReader", func(t *testing.T) {
		_, _, err := Many(U8()).Bind(nil).Poll()
		assert.ErrorIs(t, err, ErrNilIO)
	})
}

func TestSeq(t *testing.T) {
	var (
		tag  uint8
		name string
	)
	p := Seq(Into(&tag, U8()), Into(&name, LengthPrefixedString(U8())), Erase(U16(LE)))
	vs, err := Unmarshal(p, []byte{7, 2, 'h', 'i', 1, 0})
	require.NoError(t, err)
	assert.Equal(t, []any{uint8(7), "hi", uint16(1)}, vs)
	assert.Equal(t, uint8(7), tag)
	assert.Equal(t, "hi", name)

	_, ok := SizeOf(p)
	assert.False(t, ok)
	n, ok := SizeOf(Seq(Erase(U8()), Erase(U32(BE))))
	require.True(t, ok)
	assert.Equal(t, 5, n)

	vs, err = Unmarshal(Seq[io.Reader](), nil)
	require.NoError(t, err)
	assert.Empty(t, vs)
}

func TestConcat(t *testing.T) {
	p := Concat(PutU8(1), PutString("ab"), PutZeros(2))
	n, ok := SizeOf(p)
	require.True(t, ok)
	assert.Equal(t, 5, n)

	out, err := Marshal(p)
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 'a', 'b', 0, 0}, out)

	w := patiotest.StutterWriter(1)
	_, _, pending, err := pollUntilDone(t, p.Bind(w))
	require.NoError(t, err)
	assert.Equal(t, out, w.Bytes())
	assert.Equal(t, 5, pending)
}

func TestTuples(t *testing.T) {
	v2, err := Unmarshal(Tuple2(U8(), String(3)), []byte{1, 'a', 'b', 'c'})
	require.NoError(t, err)
	assert.Equal(t, T2[uint8, string]{1, "abc"}, v2)

	p4 := Tuple4(U8(), I8(), U16(LE), F32(BE))
	n, ok := SizeOf(p4)
	require.True(t, ok)
	assert.Equal(t, 8, n)
	v4, err := Unmarshal(p4, []byte{1, 0xff, 2, 0, 0x3f, 0x80, 0, 0})
	require.NoError(t, err)
	assert.Equal(t, T4[uint8, int8, uint16, float32]{1, -1, 2, 1}, v4)
}
