package patio

import (
	"io"

	"code.hybscloud.com/iox"
)

// maxConsecutiveEmptyTransfers mirrors bufio: a stream that keeps returning (0, nil)
// is reported as making no progress.
const maxConsecutiveEmptyTransfers = 100

// readStep performs one logical Read and normalizes its result:
//   - n > 0: progress; err is nil unless the stream reported a real failure.
//   - io.EOF with n == 0: end of stream.
//   - would-block with n == 0: not ready.
//
// A stream returning (0, nil) or (0, iox.ErrMore) is asked again, and reported as
// io.ErrNoProgress after maxConsecutiveEmptyTransfers attempts.
func readStep(r io.Reader, p []byte) (int, error) {
	for range maxConsecutiveEmptyTransfers {
		n, err := r.Read(p)
		if n < 0 || n > len(p) {
			return 0, ErrInvalidRead
		}
		if n > 0 {
			if err == io.EOF || iox.IsNonFailure(err) {
				return n, nil
			}
			return n, err
		}
		if err != nil && !iox.IsMore(err) {
			return 0, err
		}
	}
	return 0, io.ErrNoProgress
}

// writeStep performs exactly one Write call. A (0, nil) write of a non-empty buffer
// means the sink accepts nothing more and is reported as io.EOF.
func writeStep(w io.Writer, p []byte) (int, error) {
	n, err := w.Write(p)
	if n < 0 || n > len(p) {
		return 0, ErrInvalidWrite
	}
	if n > 0 {
		if iox.IsNonFailure(err) {
			return n, nil
		}
		return n, err
	}
	if err == nil {
		return 0, io.EOF
	}
	return 0, err
}

// ReadOp is a single read attempt into a window.
type ReadOp struct {
	r    io.Reader
	w    Window
	done bool
}

// AsyncRead returns an operation that reads once from r into w.Bytes().
func AsyncRead(r io.Reader, w Window) *ReadOp {
	return &ReadOp{r: r, w: w}
}

// Poll attempts the read. It yields (r, w, n, nil) with n == 0 meaning end of
// stream, a would-block error while the stream is not ready, or (r, w, n, err) on
// failure. The window is returned unchanged; callers Skip by n.
func (op *ReadOp) Poll() (io.Reader, Window, int, error) {
	if op.done {
		polledAfterCompletion("read")
	}
	if op.w.Len() == 0 {
		op.done = true
		return op.r, op.w, 0, nil
	}
	n, err := readStep(op.r, op.w.Bytes())
	switch {
	case err == nil:
	case err == io.EOF:
		err = nil
	case IsWouldBlock(err):
		return nil, Window{}, 0, err
	}
	op.done = true
	return op.r, op.w, n, err
}

// WriteOp is a single write attempt from a window.
type WriteOp struct {
	w    io.Writer
	win  Window
	done bool
}

// AsyncWrite returns an operation that writes win.Bytes() to w once.
func AsyncWrite(w io.Writer, win Window) *WriteOp {
	return &WriteOp{w: w, win: win}
}

// Poll attempts the write. n == 0 on success means the sink accepted nothing.
func (op *WriteOp) Poll() (io.Writer, Window, int, error) {
	if op.done {
		polledAfterCompletion("write")
	}
	if op.win.Len() == 0 {
		op.done = true
		return op.w, op.win, 0, nil
	}
	n, err := writeStep(op.w, op.win.Bytes())
	switch {
	case err == io.EOF:
		err = nil
	case IsWouldBlock(err):
		return nil, Window{}, 0, err
	}
	op.done = true
	return op.w, op.win, n, err
}

// ReadExactOp fills a window completely, across as many polls as it takes.
type ReadExactOp struct {
	r    io.Reader
	w    Window
	done bool
}

// ReadExact returns an operation that reads until w is fully consumed.
func ReadExact(r io.Reader, w Window) *ReadExactOp {
	return &ReadExactOp{r: r, w: w}
}

// Poll reads until the window is empty or the stream would block. End of stream
// with bytes still pending fails with a *TransferError wrapping io.ErrUnexpectedEOF.
func (op *ReadExactOp) Poll() (io.Reader, Window, error) {
	if op.done {
		polledAfterCompletion("read exact")
	}
	for op.w.Len() > 0 {
		n, err := readStep(op.r, op.w.Bytes())
		if n > 0 {
			op.w = op.w.Skip(n)
		}
		switch {
		case err == nil:
			continue
		case IsWouldBlock(err):
			return nil, Window{}, err
		case err == io.EOF:
			return op.fail(io.ErrUnexpectedEOF)
		default:
			return op.fail(err)
		}
	}
	op.done = true
	return op.r, op.w, nil
}

func (op *ReadExactOp) fail(err error) (io.Reader, Window, error) {
	op.done = true
	return op.r, op.w, &TransferError{Op: "read", Buf: op.w.Inner(), N: op.w.Start(), Err: err}
}

// WriteAllOp drains a window completely into a writer.
type WriteAllOp struct {
	w    io.Writer
	win  Window
	done bool
}

// WriteAll returns an operation that writes until win is fully consumed.
func WriteAll(w io.Writer, win Window) *WriteAllOp {
	return &WriteAllOp{w: w, win: win}
}

// Poll writes until the window is empty or the sink would block. A sink that stops
// accepting bytes fails with a *TransferError wrapping io.ErrShortWrite.
func (op *WriteAllOp) Poll() (io.Writer, Window, error) {
	if op.done {
		polledAfterCompletion("write all")
	}
	for op.win.Len() > 0 {
		n, err := writeStep(op.w, op.win.Bytes())
		if n > 0 {
			op.win = op.win.Skip(n)
		}
		switch {
		case err == nil:
			continue
		case IsWouldBlock(err):
			return nil, Window{}, err
		case err == io.EOF:
			return op.fail(io.ErrShortWrite)
		default:
			return op.fail(err)
		}
	}
	op.done = true
	return op.w, op.win, nil
}

func (op *WriteAllOp) fail(err error) (io.Writer, Window, error) {
	op.done = true
	return op.w, op.win, &TransferError{Op: "write", Buf: op.win.Inner(), N: op.win.Start(), Err: err}
}
