package patio

import (
	"testing"

	"github.com/creachadair/mds/mtest"
	"github.com/stretchr/testify/assert"
)

func TestWindowSkipAssociative(t *testing.T) {
	buf := []byte("0123456789")
	for n1 := 0; n1 <= len(buf); n1++ {
		for n2 := 0; n1+n2 <= len(buf); n2++ {
			w := NewWindow(buf)
			assert.Equal(t, w.Skip(n1+n2), w.Skip(n1).Skip(n2), "skip %d then %d", n1, n2)
		}
	}
}

func TestWindowRegions(t *testing.T) {
	w := NewWindow([]byte("abcdef")).Skip(2).Take(1)

	assert.Equal(t, []byte("cde"), w.Bytes())
	assert.Equal(t, []byte("ab"), w.Filled())
	assert.Equal(t, []byte("abcdef"), w.Inner())
	assert.Equal(t, 2, w.Start())
	assert.Equal(t, 5, w.End())
	assert.Equal(t, 3, w.Len())

	w = w.SetStart(0).SetEnd(6)
	assert.Equal(t, []byte("abcdef"), w.Bytes())
}

func TestWindowBounds(t *testing.T) {
	w := NewWindow(make([]byte, 4))

	t.Run("SkipPastEnd", func(t *testing.T) { mtest.MustPanic(t, func() { w.Skip(5) }) })
	t.Run("SkipNegative", func(t *testing.T) { mtest.MustPanic(t, func() { w.Skip(-1) }) })
	t.Run("TakeTooMuch", func(t *testing.T) { mtest.MustPanic(t, func() { w.Skip(1).Take(4) }) })
	t.Run("StartPastEnd", func(t *testing.T) { mtest.MustPanic(t, func() { w.Take(2).SetStart(3) }) })
	t.Run("EndBeforeStart", func(t *testing.T) { mtest.MustPanic(t, func() { w.Skip(3).SetEnd(2) }) })
	t.Run("EndPastBuffer", func(t *testing.T) { mtest.MustPanic(t, func() { w.SetEnd(5) }) })
}
