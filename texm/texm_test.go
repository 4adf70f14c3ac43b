package texm

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/relicfmt/relicfmt/format"
)

func buildHeader(width, height, mipCount, flags4, flags5, unk6, pixelFormat uint32) []byte {
	b := make([]byte, headerSize)
	binary.LittleEndian.PutUint32(b[0:4], format.MagicTexm)
	binary.LittleEndian.PutUint32(b[4:8], width)
	binary.LittleEndian.PutUint32(b[8:12], height)
	binary.LittleEndian.PutUint32(b[12:16], mipCount)
	binary.LittleEndian.PutUint32(b[16:20], flags4)
	binary.LittleEndian.PutUint32(b[20:24], flags5)
	binary.LittleEndian.PutUint32(b[24:28], unk6)
	binary.LittleEndian.PutUint32(b[28:32], pixelFormat)
	return b
}

func TestValidate_SingleMip8bppPalette(t *testing.T) {
	header := buildHeader(2, 2, 1, 0, 0, 0, 0)
	body := make([]byte, 2*2*1+format.TexmPaletteSize)
	data := append(header, body...)

	rep, h, err := Validate(data)
	require.NoError(t, err)
	require.True(t, rep.OK())
	require.EqualValues(t, 2, h.Width)
}

func TestValidate_UnsupportedFormatIsStructuralError(t *testing.T) {
	header := buildHeader(2, 2, 1, 0, 0, 0, 999)
	_, _, err := Validate(header)
	require.Error(t, err)
}

func TestValidate_TooSmallPayloadIsIssue(t *testing.T) {
	header := buildHeader(4, 4, 1, 0, 0, 0, 8888)
	data := append(header, make([]byte, 3)...)
	rep, _, err := Validate(data)
	require.NoError(t, err)
	require.False(t, rep.OK())
}

func TestValidate_PageTrailer(t *testing.T) {
	header := buildHeader(1, 1, 1, 0, 0, 0, 0)
	body := make([]byte, 1*1*1+format.TexmPaletteSize)
	trailer := make([]byte, 8+8*2)
	copy(trailer[:4], format.MagicPage[:])
	binary.LittleEndian.PutUint32(trailer[4:8], 2)

	data := append(header, body...)
	data = append(data, trailer...)

	rep, _, err := Validate(data)
	require.NoError(t, err)
	require.True(t, rep.OK())
}

func TestValidate_UnknownFlags5Warns(t *testing.T) {
	header := buildHeader(1, 1, 1, 0, 0x12345678, 0, 0)
	body := make([]byte, 1*1*1+format.TexmPaletteSize)
	rep, _, err := Validate(append(header, body...))
	require.NoError(t, err)
	require.True(t, rep.OK())
	require.NotEmpty(t, rep.Issues)
}
