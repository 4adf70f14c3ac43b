// Package pool provides arena-friendly buffer pooling for codec output and packer
// output buffers.
//
// Decoders accept a caller-provided output buffer sized to the declared unpacked
// size (spec resource policy); packers allocate one contiguous output buffer sized
// to the final archive length. Both are good candidates for pooling in batch runs
// over many archives, so this package centralizes the pool instead of letting every
// decode/pack call reach for make([]byte, n) directly.
package pool

import "sync"

// Default and max-retained sizes for the two pools this package exposes.
const (
	DecodeBufferDefaultSize = 1024 * 16  // 16KiB: typical unpacked payload size
	DecodeBufferMaxRetained = 1024 * 512 // 512KiB: buffers larger than this are discarded, not pooled
	PackBufferDefaultSize   = 1024 * 64  // 64KiB: typical archive size
	PackBufferMaxRetained   = 1024 * 1024 * 16
)

// ByteBuffer is a growable byte buffer backed by a reusable slice.
type ByteBuffer struct {
	// B is the underlying byte slice.
	B []byte
}

// NewByteBuffer creates a new ByteBuffer with the specified default capacity.
func NewByteBuffer(defaultSize int) *ByteBuffer {
	return &ByteBuffer{
		B: make([]byte, 0, defaultSize),
	}
}

// Bytes returns the underlying byte slice.
func (bb *ByteBuffer) Bytes() []byte {
	return bb.B
}

// Reset empties the buffer but retains the allocated memory for reuse.
func (bb *ByteBuffer) Reset() {
	bb.B = bb.B[:0]
}

// Len returns the length of the buffer.
func (bb *ByteBuffer) Len() int {
	return len(bb.B)
}

// Cap returns the capacity of the buffer.
func (bb *ByteBuffer) Cap() int {
	return cap(bb.B)
}

// Grow ensures the buffer can hold n more bytes without reallocating.
func (bb *ByteBuffer) Grow(n int) {
	available := cap(bb.B) - len(bb.B)
	if available >= n {
		return
	}

	newBuf := make([]byte, len(bb.B), len(bb.B)+n)
	copy(newBuf, bb.B)
	bb.B = newBuf
}

// SetLength sets the length of the buffer to n, growing it first if necessary.
// Panics if n is negative.
func (bb *ByteBuffer) SetLength(n int) {
	if n < 0 {
		panic("pool: SetLength: negative length")
	}
	if n > cap(bb.B) {
		bb.Grow(n - len(bb.B))
	}
	bb.B = bb.B[:n]
}

// Write appends data to the buffer, growing it as needed. Implements io.Writer.
func (bb *ByteBuffer) Write(data []byte) (int, error) {
	bb.B = append(bb.B, data...)
	return len(data), nil
}

// bufferPool is a sync.Pool of *ByteBuffer with a cap on retained buffer size,
// so a handful of oversized archives don't bloat the pool for the rest of a batch run.
type bufferPool struct {
	pool         sync.Pool
	maxRetained  int
	defaultSize  int
}

func newBufferPool(defaultSize, maxRetained int) *bufferPool {
	bp := &bufferPool{defaultSize: defaultSize, maxRetained: maxRetained}
	bp.pool.New = func() any { return NewByteBuffer(defaultSize) }

	return bp
}

// Get retrieves a ByteBuffer from the pool, empty and ready for use.
func (bp *bufferPool) Get() *ByteBuffer {
	bb, _ := bp.pool.Get().(*ByteBuffer)
	return bb
}

// Put returns a ByteBuffer to the pool for reuse. Buffers whose capacity exceeds
// maxRetained are dropped instead, so the pool can't accumulate unbounded memory
// from a few outsized archives.
func (bp *bufferPool) Put(bb *ByteBuffer) {
	if bb == nil {
		return
	}
	if cap(bb.B) > bp.maxRetained {
		return
	}
	bb.Reset()
	bp.pool.Put(bb)
}

var (
	decodePool = newBufferPool(DecodeBufferDefaultSize, DecodeBufferMaxRetained)
	packPool   = newBufferPool(PackBufferDefaultSize, PackBufferMaxRetained)
)

// GetDecodeBuffer retrieves a pooled ByteBuffer sized for a single decoder's output.
func GetDecodeBuffer() *ByteBuffer { return decodePool.Get() }

// PutDecodeBuffer returns a decode buffer to the pool.
func PutDecodeBuffer(bb *ByteBuffer) { decodePool.Put(bb) }

// GetPackBuffer retrieves a pooled ByteBuffer sized for a whole-archive pack output.
func GetPackBuffer() *ByteBuffer { return packPool.Get() }

// PutPackBuffer returns a pack buffer to the pool.
func PutPackBuffer(bb *ByteBuffer) { packPool.Put(bb) }
