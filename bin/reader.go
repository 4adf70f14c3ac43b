// Package bin provides bounds-checked little-endian byte primitives shared by every
// parser in this module: fixed-width reads over a borrowed slice, a SHA-256 digest
// helper, and a filesystem-safe name sanitizer. Every method fails closed with a
// errs.Truncated instead of panicking on short input.
package bin

import (
	"encoding/binary"
	"math"

	"github.com/relicfmt/relicfmt/errs"
)

// Reader is a cursor over a borrowed byte slice. It never copies the input and
// never mutates it; every read advances an internal offset and is bounds-checked.
type Reader struct {
	data []byte
	off  int
	// Where names the structure being parsed, used in Truncated error messages.
	Where string
}

// NewReader creates a Reader positioned at the start of data.
func NewReader(data []byte, where string) *Reader {
	return &Reader{data: data, Where: where}
}

// Len returns the number of unread bytes remaining.
func (r *Reader) Len() int { return len(r.data) - r.off }

// Offset returns the current read offset.
func (r *Reader) Offset() int { return r.off }

// Seek repositions the cursor to an absolute offset, which must be within [0, len(data)].
func (r *Reader) Seek(offset int) error {
	if offset < 0 || offset > len(r.data) {
		return &errs.Truncated{Where: r.Where, Need: offset, Have: len(r.data)}
	}
	r.off = offset
	return nil
}

func (r *Reader) need(n int) error {
	if r.Len() < n {
		return &errs.Truncated{Where: r.Where, Need: n, Have: r.Len()}
	}
	return nil
}

// Bytes reads and returns the next n bytes without copying.
func (r *Reader) Bytes(n int) ([]byte, error) {
	if err := r.need(n); err != nil {
		return nil, err
	}
	b := r.data[r.off : r.off+n]
	r.off += n
	return b, nil
}

// U8 reads a single byte.
func (r *Reader) U8() (uint8, error) {
	b, err := r.Bytes(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

// U16 reads a little-endian uint16.
func (r *Reader) U16() (uint16, error) {
	b, err := r.Bytes(2)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(b), nil
}

// I16 reads a little-endian int16.
func (r *Reader) I16() (int16, error) {
	v, err := r.U16()
	return int16(v), err
}

// U32 reads a little-endian uint32.
func (r *Reader) U32() (uint32, error) {
	b, err := r.Bytes(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

// I32 reads a little-endian int32.
func (r *Reader) I32() (int32, error) {
	v, err := r.U32()
	return int32(v), err
}

// U64 reads a little-endian uint64.
func (r *Reader) U64() (uint64, error) {
	b, err := r.Bytes(8)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b), nil
}

// F32 reads a little-endian IEEE-754 float32.
func (r *Reader) F32() (float32, error) {
	v, err := r.U32()
	if err != nil {
		return 0, err
	}
	return math.Float32frombits(v), nil
}

// CString reads exactly n bytes and returns the portion before the first NUL
// (or the whole slice if there is none), leaving the raw n-byte field available
// via the second return value so callers can preserve it verbatim.
func (r *Reader) CString(n int) (name string, raw []byte, err error) {
	raw, err = r.Bytes(n)
	if err != nil {
		return "", nil, err
	}
	end := len(raw)
	for i, b := range raw {
		if b == 0 {
			end = i
			break
		}
	}
	return string(raw[:end]), raw, nil
}

// PeekBytes returns the next n bytes without advancing the cursor.
func (r *Reader) PeekBytes(n int) ([]byte, error) {
	if err := r.need(n); err != nil {
		return nil, err
	}
	return r.data[r.off : r.off+n], nil
}

// Remaining returns every unread byte without advancing the cursor.
func (r *Reader) Remaining() []byte {
	return r.data[r.off:]
}

// ReadAt slices [offset, offset+n) from the underlying data directly, ignoring
// the cursor. Used by validators that jump around a chunk by declared offsets
// (e.g. MSH cross-table reference checks) instead of reading sequentially.
func ReadAt(data []byte, where string, offset, n int) ([]byte, error) {
	if offset < 0 || n < 0 || offset+n > len(data) {
		return nil, &errs.Truncated{Where: where, Need: offset + n, Have: len(data)}
	}
	return data[offset : offset+n], nil
}
