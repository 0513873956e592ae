package patio

import (
	"errors"
	"fmt"

	"code.hybscloud.com/iox"
)

var (
	// ErrWouldBlock is the pending signal of a non-blocking stream. Poll returns it
	// (or an error wrapping it) while an operation is still in flight; it is never a
	// terminal result.
	ErrWouldBlock = iox.ErrWouldBlock

	// ErrPolledAfterCompletion is the panic value (wrapped) raised when an operation is
	// polled again after it already produced its final result.
	ErrPolledAfterCompletion = errors.New("patio: operation polled after completion")

	// ErrInvalidData indicates that bytes were transferred successfully but failed
	// semantic validation, e.g. a string that is not valid UTF-8.
	ErrInvalidData = errors.New("patio: invalid data")

	// ErrBufferLimit indicates that an Until scan grew its buffer to the configured
	// maximum without the predicate being satisfied.
	ErrBufferLimit = errors.New("patio: buffer size limit reached")

	// ErrTrailingData indicates that bytes remain after the expected end of a pattern.
	ErrTrailingData = errors.New("patio: trailing data after end of pattern")

	// ErrNilIO indicates a pattern was bound to a nil stream.
	ErrNilIO = errors.New("patio: nil io.Reader/io.Writer")

	// ErrInvalidWrite indicates that an io.Writer returned an invalid (negative or
	// oversized) count from Write.
	ErrInvalidWrite = errors.New("patio: writer returned invalid count from Write")

	// ErrInvalidRead indicates that an io.Reader returned an invalid (negative or
	// oversized) count from Read.
	ErrInvalidRead = errors.New("patio: reader returned invalid count from Read")

	// ErrNegativeCount indicates a pattern was built with a negative byte count.
	ErrNegativeCount = errors.New("patio: negative byte count")
)

// IsWouldBlock reports whether err is the pending signal rather than a failure.
func IsWouldBlock(err error) bool { return iox.IsWouldBlock(err) }

// TransferError reports a failed exact transfer. It keeps the buffer so callers can
// inspect how much progress was made before the failure.
type TransferError struct {
	Op  string // "read" or "write"
	Buf []byte // the whole buffer of the transfer
	N   int    // bytes transferred before the failure
	Err error
}

func (e *TransferError) Error() string {
	return fmt.Sprintf("patio: %s failed after %d of %d bytes: %v", e.Op, e.N, len(e.Buf), e.Err)
}

func (e *TransferError) Unwrap() error { return e.Err }

// Partial returns the bytes transferred before the failure.
func (e *TransferError) Partial() []byte { return e.Buf[:e.N] }

// StrayByteError is the value of an Eos pattern when the stream was not exhausted.
// Byte is the first byte found after the expected end.
type StrayByteError struct {
	Byte byte
}

func (e *StrayByteError) Error() string {
	return fmt.Sprintf("%v: found byte 0x%02x", ErrTrailingData, e.Byte)
}

func (e *StrayByteError) Unwrap() error { return ErrTrailingData }

func polledAfterCompletion(name string) {
	panic(fmt.Errorf("%w: %s", ErrPolledAfterCompletion, name))
}
