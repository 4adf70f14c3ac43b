package bin

import "encoding/binary"

// Writer is an append-only little-endian byte buffer, used by the NRes and RsLi
// packers to emit output incrementally while tracking offsets as they go.
type Writer struct {
	buf []byte
}

// NewWriter creates a Writer with the given initial capacity hint.
func NewWriter(capHint int) *Writer {
	return &Writer{buf: make([]byte, 0, capHint)}
}

// NewWriterWithBuf creates a Writer backed by buf's existing storage (reusing
// its capacity instead of allocating fresh), starting empty. Used by the
// packers to write into a pooled buffer (internal/pool) instead of a
// throwaway allocation per archive.
func NewWriterWithBuf(buf []byte) *Writer {
	return &Writer{buf: buf[:0]}
}

// Len returns the number of bytes written so far.
func (w *Writer) Len() int { return len(w.buf) }

// Bytes returns the accumulated buffer.
func (w *Writer) Bytes() []byte { return w.buf }

// Write appends raw bytes. Implements io.Writer.
func (w *Writer) Write(p []byte) (int, error) {
	w.buf = append(w.buf, p...)
	return len(p), nil
}

// PutU8 appends a single byte.
func (w *Writer) PutU8(v uint8) { w.buf = append(w.buf, v) }

// PutU16 appends a little-endian uint16.
func (w *Writer) PutU16(v uint16) {
	var b [2]byte
	binary.LittleEndian.PutUint16(b[:], v)
	w.buf = append(w.buf, b[:]...)
}

// PutU32 appends a little-endian uint32.
func (w *Writer) PutU32(v uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	w.buf = append(w.buf, b[:]...)
}

// PutI16 appends a little-endian int16.
func (w *Writer) PutI16(v int16) { w.PutU16(uint16(v)) }

// PadTo appends zero bytes until Len() is a multiple of align. Returns the
// number of padding bytes written.
func (w *Writer) PadTo(align int) int {
	pad := (-w.Len()) % align
	if pad < 0 {
		pad += align
	}
	if pad == 0 {
		return 0
	}
	w.buf = append(w.buf, make([]byte, pad)...)
	return pad
}

// PatchAt overwrites len(data) bytes starting at offset with data. Panics if the
// range is outside the written buffer — this is only ever used to back-patch a
// header placeholder the packer itself reserved.
func (w *Writer) PatchAt(offset int, data []byte) {
	if offset < 0 || offset+len(data) > len(w.buf) {
		panic("bin: PatchAt out of range")
	}
	copy(w.buf[offset:offset+len(data)], data)
}
