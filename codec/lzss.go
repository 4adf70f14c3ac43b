package codec

import "github.com/relicfmt/relicfmt/errs"

const (
	lzssRingSize = 0x1000
	lzssRingFill = 0xFEE
)

// LZSSDecode decompresses an LZSS stream into exactly expectedSize bytes.
//
// The ring buffer is 4096 bytes, pre-filled with 0x20, with the write cursor
// starting at 0xFEE. Control bytes are consumed LSB-first: a 1 bit emits one
// literal byte (also fed into the ring); a 0 bit emits a 2-byte back-reference
// whose nibble layout is inverted relative to the textbook LZSS variant —
// the high nibble of the second byte extends the offset, and the low nibble
// holds (length-3). This is pinned by the corpus encoder and must not be
// "corrected".
func LZSSDecode(data []byte, expectedSize int) ([]byte, error) {
	ring := make([]byte, lzssRingSize)
	for i := range ring {
		ring[i] = 0x20
	}
	ringPos := lzssRingFill

	out := make([]byte, 0, expectedSize)
	pos := 0
	var control byte
	bitsLeft := 0

	emit := func(b byte) {
		out = append(out, b)
		ring[ringPos] = b
		ringPos = (ringPos + 1) & (lzssRingSize - 1)
	}

	for len(out) < expectedSize && pos < len(data) {
		if bitsLeft == 0 {
			control = data[pos]
			pos++
			bitsLeft = 8
		}

		if control&1 != 0 {
			if pos >= len(data) {
				break
			}
			emit(data[pos])
			pos++
		} else {
			if pos+1 >= len(data) {
				break
			}
			low := data[pos]
			high := data[pos+1]
			pos += 2

			offset := int(low) | (int(high&0xF0) << 4)
			length := int(high&0x0F) + 3

			for step := 0; step < length; step++ {
				emit(ring[(offset+step)&(lzssRingSize-1)])
				if len(out) >= expectedSize {
					break
				}
			}
		}

		control >>= 1
		bitsLeft--
	}

	if len(out) != expectedSize {
		return nil, &errs.SizeMismatch{Where: "lzss", Expected: expectedSize, Got: len(out)}
	}
	return out, nil
}
