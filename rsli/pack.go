package rsli

import (
	"github.com/relicfmt/relicfmt/bin"
	"github.com/relicfmt/relicfmt/codec"
	"github.com/relicfmt/relicfmt/errs"
	"github.com/relicfmt/relicfmt/format"
	"github.com/relicfmt/relicfmt/internal/pool"
	"github.com/relicfmt/relicfmt/manifest"
)

// PayloadFor supplies the preserved packed blob for one manifest entry.
type PayloadFor func(e manifest.RsLiEntry) ([]byte, error)

// Pack reproduces an RsLi archive's bytes exactly from a manifest and its
// preserved packed blobs:
//
//  1. rebuild the 32-byte header, patching magic/entry_count/presorted_flag/
//     seed over the preserved raw bytes;
//  2. XOR-encrypt a freshly built 32-byte-per-entry directory;
//  3. allocate an output buffer sized from source_size (or, lacking that,
//     the maximum data_offset+packed_size across entries);
//  4. write every preserved packed blob at its recorded data_offset, with a
//     conflict check that forbids overlapping writes of differing bytes
//     (the one documented exception: a deflate entry's virtual EOF+1 byte
//     may fall exactly one byte past the buffer and is silently dropped);
//  5. append the trailer if present.
func Pack(m *manifest.RsLi, payloadFor PayloadFor) ([]byte, error) {
	if len(m.Entries) == 0 {
		return nil, errs.ErrEmptyManifest
	}

	headerRaw, err := bin.HexDecode(m.HeaderRawHex)
	if err != nil || len(headerRaw) != format.RsLiHeaderSize {
		headerRaw = make([]byte, format.RsLiHeaderSize)
	} else {
		headerRaw = append([]byte(nil), headerRaw...)
	}
	hw := bin.NewWriter(0)
	hw.Write(headerRaw)
	patch4 := bin.NewWriter(4)
	patch4.Write(format.MagicRsLi[:])
	hw.PatchAt(0, patch4.Bytes())
	patchEntryCount := bin.NewWriter(2)
	patchEntryCount.PutI16(m.Header.EntryCount)
	hw.PatchAt(4, patchEntryCount.Bytes())
	patchPresorted := bin.NewWriter(2)
	patchPresorted.PutU16(m.Header.PresortedFlag)
	hw.PatchAt(14, patchPresorted.Bytes())
	patchSeed := bin.NewWriter(4)
	patchSeed.PutU32(m.Header.Seed)
	hw.PatchAt(20, patchSeed.Bytes())
	header := hw.Bytes()

	dw := bin.NewWriter(len(m.Entries) * format.RsLiDirectoryEntry)
	for _, e := range m.Entries {
		dw.Write(nameField(e))
		dw.Write(reservedField(e))
		dw.PutI16(e.FlagsSigned)
		dw.PutI16(e.SortToOriginal)
		dw.PutU32(e.UnpackedSize)
		dw.PutU32(e.DataOffset)
		dw.PutU32(e.PackedSize)
	}
	directory := codec.XOR(dw.Bytes(), uint16(m.Header.Seed))

	trailerLen := 0
	if m.Trailer.Present {
		trailerLen = format.RsLiTrailerSize
	}
	contentLen := m.SourceSize - trailerLen
	if contentLen <= 0 {
		contentLen = format.RsLiHeaderSize + len(directory)
		overlay := 0
		if m.Trailer.Present {
			overlay = int(m.Trailer.OverlayOffset)
		}
		for _, e := range m.Entries {
			if end := int(e.DataOffset) + overlay + int(e.PackedSize); end > contentLen {
				contentLen = end
			}
		}
	}

	pb := pool.GetPackBuffer()
	defer pool.PutPackBuffer(pb)
	pb.SetLength(contentLen)
	buf := pb.Bytes()
	for i := range buf {
		buf[i] = 0 // unused gap bytes (e.g. reserved/overlay regions) must not carry a prior pooled call's residue
	}
	written := make([]bool, contentLen)
	copy(buf, header)
	copy(buf[format.RsLiHeaderSize:], directory)
	for i := format.RsLiHeaderSize; i < format.RsLiHeaderSize+len(directory); i++ {
		written[i] = true
	}

	for _, e := range m.Entries {
		packed, err := payloadFor(e)
		if err != nil {
			return nil, err
		}
		effective := int(e.DataOffset)
		if m.Trailer.Present {
			effective += int(m.Trailer.OverlayOffset)
		}
		allowOverflowByOne := e.Method == "deflate"
		if err := writeAt(buf, written, effective, packed, allowOverflowByOne); err != nil {
			return nil, err
		}
	}

	if m.Trailer.Present {
		if raw, err := bin.HexDecode(m.Trailer.RawHex); err == nil && len(raw) == format.RsLiTrailerSize {
			buf = append(buf, raw...)
		} else {
			tw := bin.NewWriter(format.RsLiTrailerSize)
			tw.Write(format.MagicAO[:])
			tw.PutU32(m.Trailer.OverlayOffset)
			buf = append(buf, tw.Bytes()...)
		}
	}

	// Copy out of the pooled buffer before it's released back for reuse by
	// the next Pack call.
	return append([]byte(nil), buf...), nil
}

// writeAt copies data into buf starting at offset, erroring on an out-of-range
// write or a conflicting overlap (two writes at the same position disagreeing
// on the byte value). When allowOverflowByOne is set, a single trailing byte
// landing exactly at len(buf) is dropped instead of erroring — the deflate
// decoder's documented EOF+1 lookahead byte.
func writeAt(buf []byte, written []bool, offset int, data []byte, allowOverflowByOne bool) error {
	for i, b := range data {
		pos := offset + i
		if pos >= len(buf) {
			if allowOverflowByOne && pos == len(buf) && i == len(data)-1 {
				return nil
			}
			return &errs.OverlongWrite{Where: "rsli.pack", Offset: offset, Length: len(data), Cap: len(buf)}
		}
		if written[pos] {
			if buf[pos] != b {
				return &errs.WriteConflict{Where: "rsli.pack", Offset: pos}
			}
			continue
		}
		buf[pos] = b
		written[pos] = true
	}
	return nil
}

func nameField(e manifest.RsLiEntry) []byte {
	if raw, err := bin.HexDecode(e.NameRawHex); err == nil && len(raw) == format.RsLiNameFieldSize {
		return raw
	}
	raw := make([]byte, format.RsLiNameFieldSize)
	copy(raw, e.Name)
	return raw
}

func reservedField(e manifest.RsLiEntry) []byte {
	if raw, err := bin.HexDecode(e.ReservedRawHex); err == nil && len(raw) == format.RsLiReservedSize {
		return raw
	}
	return make([]byte, format.RsLiReservedSize)
}
