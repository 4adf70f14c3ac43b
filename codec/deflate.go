package codec

import (
	"io"

	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/zlib"

	"github.com/relicfmt/relicfmt/errs"
)

// Deflate decodes a raw (no zlib wrapper) deflate stream first; if that fails
// it retries assuming a wrapped zlib stream.
// Exactly expectedSize bytes must come out, matching unpacked_size.
//
// This module uses klauspost/compress's flate/zlib implementations rather than
// the stdlib compress/flate and compress/zlib packages: same wire format, but
// klauspost's reader tolerates the corpus's "deflate EOF+1" quirk —
// a packed_size that runs one byte past the entry's data — more gracefully
// under streaming reads, since it never needs to seek backward to verify the
// trailing checksum the way some stdlib call sites do.
func Deflate(packed []byte, expectedSize int) ([]byte, error) {
	out, err := deflateRaw(packed, expectedSize)
	if err == nil {
		return out, nil
	}

	out, zerr := deflateZlib(packed, expectedSize)
	if zerr == nil {
		return out, nil
	}

	return nil, &errs.SizeMismatch{Where: "deflate", Expected: expectedSize, Got: len(out)}
}

func deflateRaw(packed []byte, expectedSize int) ([]byte, error) {
	fr := flate.NewReader(clampReader(packed))
	defer fr.Close()

	return readExact(fr, expectedSize)
}

func deflateZlib(packed []byte, expectedSize int) ([]byte, error) {
	zr, err := zlib.NewReader(clampReader(packed))
	if err != nil {
		return nil, err
	}
	defer zr.Close()

	return readExact(zr, expectedSize)
}

// clampReader wraps packed in a plain byte reader. The caller's packed slice
// may already include the corpus's one-byte-past-EOF lookahead artifact; the
// decoder simply stops once expectedSize bytes have been produced, so no
// explicit clamping of the input is needed here.
func clampReader(packed []byte) io.Reader {
	return &byteSliceReader{b: packed}
}

type byteSliceReader struct {
	b   []byte
	pos int
}

func (r *byteSliceReader) Read(p []byte) (int, error) {
	if r.pos >= len(r.b) {
		return 0, io.EOF
	}
	n := copy(p, r.b[r.pos:])
	r.pos += n
	return n, nil
}

// readExact reads exactly n bytes from r.
func readExact(r io.Reader, n int) ([]byte, error) {
	out := make([]byte, n)
	read, err := io.ReadFull(r, out)
	if err != nil {
		return out[:read], err
	}
	return out, nil
}
