package bin

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/relicfmt/relicfmt/errs"
)

func TestReader_FixedWidthReads(t *testing.T) {
	data := []byte{0x01, 0x02, 0x03, 0x04, 0xAA, 0xBB}
	r := NewReader(data, "test")

	u8, err := r.U8()
	require.NoError(t, err)
	require.Equal(t, uint8(0x01), u8)

	u16, err := r.U16()
	require.NoError(t, err)
	require.Equal(t, uint16(0x0302), u16)

	u16b, err := r.U16()
	require.NoError(t, err)
	require.Equal(t, uint16(0xAA04), u16b)
}

func TestReader_TruncatedFails(t *testing.T) {
	r := NewReader([]byte{0x01, 0x02}, "short")
	_, err := r.U32()
	require.Error(t, err)

	var trunc *errs.Truncated
	require.ErrorAs(t, err, &trunc)
	require.Equal(t, "short", trunc.Where)
	require.Equal(t, 4, trunc.Need)
	require.Equal(t, 2, trunc.Have)
}

func TestReader_CString(t *testing.T) {
	raw := append([]byte("a.bin"), make([]byte, 31)...) // 36 bytes total
	r := NewReader(raw, "name")
	name, rawOut, err := r.CString(36)
	require.NoError(t, err)
	require.Equal(t, "a.bin", name)
	require.Len(t, rawOut, 36)
}

func TestReader_CString_NoNUL(t *testing.T) {
	raw := []byte("abcd")
	r := NewReader(raw, "name")
	name, _, err := r.CString(4)
	require.NoError(t, err)
	require.Equal(t, "abcd", name)
}

func TestReadAt(t *testing.T) {
	data := []byte{0, 1, 2, 3, 4, 5}
	got, err := ReadAt(data, "x", 2, 3)
	require.NoError(t, err)
	require.Equal(t, []byte{2, 3, 4}, got)

	_, err = ReadAt(data, "x", 4, 4)
	require.Error(t, err)
}

func TestSafeComponent(t *testing.T) {
	require.Equal(t, "a_b", SafeComponent("a/b", "fallback", 80))
	require.Equal(t, "fallback", SafeComponent("...", "fallback", 80))
	require.Equal(t, "ab", SafeComponent("ab", "fallback", 2))
}

func TestSHA256Hex(t *testing.T) {
	require.Equal(t, "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855", SHA256Hex(nil))
}
