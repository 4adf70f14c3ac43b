// Package texm validates the Texm texture payload: the fixed header, the
// mip pyramid's byte accounting, the optional palette, and the optional
// trailing "Page" rect chunk.
package texm

import (
	"bytes"

	"github.com/relicfmt/relicfmt/bin"
	"github.com/relicfmt/relicfmt/errs"
	"github.com/relicfmt/relicfmt/format"
	"github.com/relicfmt/relicfmt/report"
)

// Header is the parsed 32-byte Texm header.
type Header struct {
	Width     uint32
	Height    uint32
	MipCount  uint32
	Flags4    uint32
	Flags5    uint32
	Unknown6  uint32
	Format    uint32
}

const headerSize = 32

// Validate parses a Texm payload's header, computes the mip-pyramid and
// palette byte accounting, and checks any trailing "Page" rect chunk. A
// truncated header, a wrong magic, or an unrecognized format is a structural
// error; everything else — a flags5 value outside the known set, a payload
// too small for its pixels, a malformed trailer — is a report issue. flags4
// is not checked.
func Validate(data []byte) (*report.Report, *Header, error) {
	if len(data) < headerSize {
		return nil, nil, &errs.Truncated{Where: "texm.header", Need: headerSize, Have: len(data)}
	}
	r := bin.NewReader(data, "texm.header")
	magic, _ := r.U32()
	width, _ := r.U32()
	height, _ := r.U32()
	mipCount, _ := r.U32()
	flags4, _ := r.U32()
	flags5, _ := r.U32()
	unk6, _ := r.U32()
	pixelFormat, _ := r.U32()

	rep := report.NewReport()

	if magic != format.MagicTexm {
		return nil, nil, &errs.BadMagic{Where: "texm.header", Want: u32ToBytes(format.MagicTexm), Got: u32ToBytes(magic)}
	}

	bpp, known := format.BytesPerPixel(pixelFormat)
	if !known {
		return nil, nil, &errs.UnsupportedFormat{Format: pixelFormat}
	}

	h := &Header{Width: width, Height: height, MipCount: mipCount, Flags4: flags4, Flags5: flags5, Unknown6: unk6, Format: pixelFormat}

	if !knownFlags5.has(flags5) {
		rep.Warnf("flags", "texm", "", "flags5=0x%08X not in the known value set (preserved, meaning unknown)", flags5)
	}

	pixelBytes := mipPyramidBytes(width, height, mipCount) * uint64(bpp)
	paletteBytes := uint64(0)
	if pixelFormat == 0 {
		paletteBytes = format.TexmPaletteSize
	}
	body := uint64(len(data)) - headerSize

	need := pixelBytes + paletteBytes
	if need > body {
		rep.Errorf("size", "texm", "", "header+palette+pixels=%d exceeds payload size=%d", need, body)
		return rep, h, nil
	}

	tail := data[headerSize+int(need):]
	if len(tail) > 0 {
		validateTrailer(rep, tail)
	}

	return rep, h, nil
}

// mipPyramidBytes returns sum(w*h) across mipCount levels, halving each
// dimension per level with a floor of 1.
func mipPyramidBytes(width, height, mipCount uint32) uint64 {
	var total uint64
	w, h := width, height
	for i := uint32(0); i < mipCount; i++ {
		total += uint64(w) * uint64(h)
		if w > 1 {
			w /= 2
		}
		if h > 1 {
			h /= 2
		}
	}
	return total
}

// validateTrailer checks the optional "Page" rect chunk: magic, a u32
// rectCount, and exactly 8*rectCount bytes of rect data.
func validateTrailer(rep *report.Report, tail []byte) {
	if len(tail) < 8 || !bytes.Equal(tail[:4], format.MagicPage[:]) {
		rep.Errorf("trailer", "texm", "", "trailing %d bytes do not form a Page chunk", len(tail))
		return
	}
	r := bin.NewReader(tail, "texm.trailer")
	_, _ = r.Bytes(4)
	rectCount, err := r.U32()
	if err != nil {
		rep.Errorf("trailer", "texm", "", "truncated Page rectCount")
		return
	}
	want := 8 + 8*int(rectCount)
	if len(tail) != want {
		rep.Errorf("trailer", "texm", "", "Page chunk size=%d != 8+8*rectCount=%d", len(tail), want)
	}
}

func u32ToBytes(v uint32) []byte {
	return []byte{byte(v), byte(v >> 8), byte(v >> 16), byte(v >> 24)}
}

// knownFlags5 whitelists flags5 values observed in known data; anything
// else is preserved but flagged as a warning.
var knownFlags5 = flagSet{0, 0x00800000, 0x04000000}

type flagSet []uint32

func (s flagSet) has(v uint32) bool {
	for _, x := range s {
		if x == v {
			return true
		}
	}
	return false
}
