package patio

import (
	"bytes"
	"sync"
)

// bytesBufPool reuses buffers for accumulating variable-length data (Line, All).
// We pool *bytes.Buffer because they are easily reset and resized.
var bytesBufPool = sync.Pool{
	New: func() any {
		// A 4KB default is chosen to avoid re-allocations for common line sizes.
		return bytes.NewBuffer(make([]byte, 0, 4096))
	},
}

// maxPooledBuffer keeps a single huge read from pinning memory in the pool.
const maxPooledBuffer = 1 << 20

func getBytesBuf() *bytes.Buffer {
	buf := bytesBufPool.Get().(*bytes.Buffer)
	buf.Reset()
	return buf
}

func putBytesBuf(buf *bytes.Buffer) {
	if buf.Cap() > maxPooledBuffer {
		return
	}
	bytesBufPool.Put(buf)
}

const CHUNK_SIZE = 32 * 1024

// chunkPool holds scratch chunks for reads whose bytes are copied out or dropped
// (All, Discard). 32KB is the default size used by io.Copy.
var chunkPool = sync.Pool{
	New: func() any {
		b := make([]byte, CHUNK_SIZE)
		return &b
	},
}

const BUFFER_SIZE = 4096

// empty is the read-only source of PutZeros.
var empty [BUFFER_SIZE]byte
