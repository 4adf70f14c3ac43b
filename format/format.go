// Package format holds the magic constants, RsLi method codes, and MSH chunk
// type identifiers shared across the container and validator packages.
package format

// Magic signatures, as raw bytes matched at fixed file offsets.
var (
	MagicNRes = [4]byte{'N', 'R', 'e', 's'}
	MagicRsLi = [4]byte{'N', 'L', 0x00, 0x01}
	MagicPage = [4]byte{'P', 'a', 'g', 'e'}
	MagicAO   = [2]byte{'A', 'O'}
)

// Fixed 32-bit little-endian magic values used inside typed payloads.
const (
	MagicTexm uint32 = 0x6D786554 // "Texm" read as little-endian u32
	MagicFXID uint32 = 0x44495846 // FXID type code
)

// NRes container layout constants.
const (
	NResHeaderSize     = 16
	NResDirectoryEntry = 64
	NResNameFieldSize  = 36
	NResDefaultVersion = 0x100
	NResDataAlign      = 8
	NResMinDataOffset  = 16
)

// RsLi container layout constants.
const (
	RsLiHeaderSize     = 32
	RsLiDirectoryEntry = 32
	RsLiNameFieldSize  = 12
	RsLiReservedSize   = 4
	RsLiTrailerSize    = 6
	RsLiPresortedMagic = 0xABBA
	RsLiMethodMask     = 0x1E0
)

// RsLiMethod is the closed tag set over the decode strategy for an RsLi entry.
type RsLiMethod uint16

const (
	RsLiMethodIdentity RsLiMethod = 0x000
	RsLiMethodXOR      RsLiMethod = 0x020
	RsLiMethodLZSS     RsLiMethod = 0x040
	RsLiMethodXORLZSS  RsLiMethod = 0x060
	RsLiMethodDeflate  RsLiMethod = 0x100
)

func (m RsLiMethod) String() string {
	switch m {
	case RsLiMethodIdentity:
		return "identity"
	case RsLiMethodXOR:
		return "xor"
	case RsLiMethodLZSS:
		return "lzss"
	case RsLiMethodXORLZSS:
		return "xor_lzss"
	case RsLiMethodDeflate:
		return "deflate"
	default:
		return "unknown"
	}
}

// MethodFromFlags extracts the method code from an RsLi directory entry's flags field.
func MethodFromFlags(flags int16) RsLiMethod {
	return RsLiMethod(uint16(flags) & RsLiMethodMask)
}

// MSH chunk type identifiers.
const (
	MSHTypeNodes       = 1
	MSHTypeSlots       = 2
	MSHTypeVertices    = 3
	MSHTypeAttr4       = 4
	MSHTypeAttr5       = 5
	MSHTypeIndices     = 6
	MSHTypeTriangles   = 7
	MSHTypeAnimKeys    = 8
	MSHTypeNodeNames   = 10
	MSHTypeBatches     = 13
	MSHTypeAux15       = 15
	MSHTypeAux16       = 16
	MSHTypeAux18       = 18
	MSHTypeNodeAnimMap = 19
)

// Fixed per-type strides (bytes): a chunk's payload size must be an exact
// multiple of its type's stride.
var MSHStride = map[uint32]uint32{
	MSHTypeNodes:       38, // or 24, see msh package
	MSHTypeSlots:       68,
	MSHTypeVertices:    12,
	MSHTypeAttr4:       4,
	MSHTypeAttr5:       4,
	MSHTypeIndices:     2,
	MSHTypeTriangles:   16,
	MSHTypeAnimKeys:    24,
	MSHTypeBatches:     20,
	MSHTypeAux15:       8,
	MSHTypeAux16:       8,
	MSHTypeAux18:       4,
	MSHTypeNodeAnimMap: 2,
}

// Texm known pixel formats.
var TexmKnownFormats = map[uint32]bool{
	0:    true,
	565:  true,
	556:  true,
	4444: true,
	888:  true,
	8888: true,
}

// BytesPerPixel returns the byte size of one texel for a known Texm format, and
// whether format is recognized. format == 0 denotes an 8bpp palette format.
func BytesPerPixel(f uint32) (int, bool) {
	switch f {
	case 0:
		return 1, true
	case 565, 556, 4444:
		return 2, true
	case 888:
		return 4, true
	case 8888:
		return 4, true
	default:
		return 0, false
	}
}

// TexmPaletteSize is the fixed size of the palette block for format==0.
const TexmPaletteSize = 1024

// FXID command layout.
const (
	FXIDHeaderEnd    = 0x3C
	FXIDOpcode1Tail6 = 136
	FXIDOpcode1Ref1  = 160
	FXIDOpcode1Ref2  = 192
	FXIDRefFieldSize = 32
	FXIDTail6Size    = 24
)

// FXIDCommandSize maps opcode (low byte of the command's first u32) to its
// fixed total size in bytes.
var FXIDCommandSize = map[int]int{
	1: 224, 2: 148, 3: 200, 4: 204, 5: 112, 6: 4, 7: 208, 8: 248, 9: 208, 10: 208,
}

// MSHSlotHeaderSize is the fixed preamble before Type 2's slot records.
const MSHSlotHeaderSize = 0x8C

// Terrain ArealMap record layout.
const (
	TerrainAreaRecordHeaderSize = 56
	TerrainMSHType              = 12
)
