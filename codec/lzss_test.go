package codec

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// control byte 0xFF = eight literals.
func TestLZSSDecode_LiteralOnly(t *testing.T) {
	input := append([]byte{0xFF}, []byte("ABCDEFGH")...)
	out, err := LZSSDecode(input, 8)
	require.NoError(t, err)
	require.Equal(t, "ABCDEFGH", string(out))
}

func TestLZSSDecode_BackReference(t *testing.T) {
	// Ring starts filled with 0x20 (space) and write cursor at 0xFEE.
	// Emit two literals "AB" (control bit 1,1), then a back-reference copying
	// those same two bytes plus one more repeat via length=3.
	// offset = low | ((high&0xF0)<<4); length = (high&0x0F)+3.
	// We want offset = 0xFEE (where "AB" was written) and length = 3.
	offset := 0xFEE
	low := byte(offset & 0xFF)
	high := byte(((offset >> 4) & 0xF0) | 0x00) // length-3 = 0 -> length 3

	// control byte: bit0=1 (literal 'A'), bit1=1 (literal 'B'), bit2=0 (back-ref)
	control := byte(0b0000_0011)
	input := []byte{control, 'A', 'B', low, high}

	out, err := LZSSDecode(input, 5)
	require.NoError(t, err)
	require.Equal(t, "ABABA", string(out))
}

func TestLZSSDecode_SizeMismatch(t *testing.T) {
	_, err := LZSSDecode([]byte{0xFF, 'A'}, 8)
	require.Error(t, err)
}
