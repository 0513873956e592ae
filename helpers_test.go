package patio

import (
	"errors"
	"io"
	"testing"

	"github.com/creachadair/mds/mtest"
	"github.com/stretchr/testify/require"
)

// pollUntilDone polls op until it stops reporting would-block. It returns the
// result and how many polls were pending.
func pollUntilDone[S, T any](t testing.TB, op Operation[S, T]) (S, T, int, error) {
	t.Helper()
	for pending := 0; ; pending++ {
		s, v, err := op.Poll()
		if !IsWouldBlock(err) {
			return s, v, pending, err
		}
		require.Less(t, pending, 100000, "operation never completed")
	}
}

// requireRepollPanics checks that poll panics with ErrPolledAfterCompletion.
func requireRepollPanics(t testing.TB, poll func()) {
	t.Helper()
	v := mtest.MustPanic(t, poll)
	err, ok := v.(error)
	require.True(t, ok, "panic value %v is not an error", v)
	require.True(t, errors.Is(err, ErrPolledAfterCompletion), "panic value: %v", err)
}

// stuckReader never makes progress and never fails.
type stuckReader struct{ calls int }

func (r *stuckReader) Read([]byte) (int, error) {
	r.calls++
	return 0, nil
}

// blockedReader always reports would-block.
type blockedReader struct{}

func (blockedReader) Read([]byte) (int, error) { return 0, ErrWouldBlock }

// lines decodes newline-terminated records as strings.
func lines() Pattern[io.Reader, string] {
	return Map(Pattern[io.Reader, Scanned[struct{}]](Delimited('\n')), func(s Scanned[struct{}]) string {
		return string(s.Buf)
	})
}
