// Package relicfmt is the root of the codec layer for this engine's two
// archive containers (NRes, RsLi) and their nested payloads. It
// exposes only signature-based format detection; the container
// parsers/packers and payload validators live in their own subpackages
// (nres, rsli, msh, texm, fxid, terrain).
package relicfmt

import "bytes"

// Format identifies which container, if any, a byte blob's signature matches.
type Format int

const (
	FormatUnknown Format = iota
	FormatNRes
	FormatRsLi
)

func (f Format) String() string {
	switch f {
	case FormatNRes:
		return "NRes"
	case FormatRsLi:
		return "RsLi"
	default:
		return "unknown"
	}
}

var (
	nresMagic = []byte{0x4E, 0x52, 0x65, 0x73} // "NRes"
	rsliMagic = []byte{0x4E, 0x4C, 0x00, 0x01} // "NL\x00\x01"
)

// Sniff inspects data's leading bytes and reports which container format it
// matches, if any. File extensions are advisory only; this is
// the sole ground truth the core relies on.
func Sniff(data []byte) Format {
	switch {
	case len(data) >= 4 && bytes.Equal(data[:4], nresMagic):
		return FormatNRes
	case len(data) >= 4 && bytes.Equal(data[:4], rsliMagic):
		return FormatRsLi
	default:
		return FormatUnknown
	}
}
