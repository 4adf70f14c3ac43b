package nres

import (
	"sort"

	"github.com/relicfmt/relicfmt/bin"
	"github.com/relicfmt/relicfmt/errs"
	"github.com/relicfmt/relicfmt/format"
	"github.com/relicfmt/relicfmt/internal/pool"
	"github.com/relicfmt/relicfmt/manifest"
)

// PayloadFor supplies the payload bytes for one manifest entry, by its
// original index, during Pack.
type PayloadFor func(e manifest.NResEntry) ([]byte, error)

// Pack reproduces an NRes archive's bytes exactly from a manifest and its
// payloads:
//
//  1. reserve the 16-byte header;
//  2. write each entry's payload, in manifest order, 8-byte aligned, recording
//     its data_offset;
//  3. derive sort_index by case-insensitive name order;
//  4. write the 64-byte directory rows, in manifest order;
//  5. back-patch the header with the final entry_count/total_size.
func Pack(m *manifest.NRes, payloadFor PayloadFor) ([]byte, error) {
	if len(m.Entries) == 0 {
		return nil, errs.ErrEmptyManifest
	}

	pb := pool.GetPackBuffer()
	defer pool.PutPackBuffer(pb)
	w := bin.NewWriterWithBuf(pb.B)
	w.Write(make([]byte, format.NResHeaderSize)) // placeholder, patched at the end

	dataOffsets := make([]uint32, len(m.Entries))
	sizes := make([]uint32, len(m.Entries))

	for i, e := range m.Entries {
		payload, err := payloadFor(e)
		if err != nil {
			return nil, err
		}
		w.PadTo(format.NResDataAlign)
		dataOffsets[i] = uint32(w.Len())
		sizes[i] = uint32(len(payload))
		w.Write(payload)
	}
	w.PadTo(format.NResDataAlign)

	// sort_index[i] stores order[i]: the original index of the entry ranked
	// i-th, written at directory row i.
	order := packSortOrder(m.Entries)
	sortIndex := make([]uint32, len(m.Entries))
	for i, o := range order {
		sortIndex[i] = uint32(o)
	}

	directoryOffset := w.Len()
	for i, e := range m.Entries {
		w.PutU32(e.TypeID)
		w.PutU32(e.Attr1)
		w.PutU32(e.Attr2)
		w.PutU32(sizes[i])
		w.PutU32(e.Attr3)
		w.Write(nameField(e))
		w.PutU32(dataOffsets[i])
		w.PutU32(sortIndex[i])
	}

	if w.Len()-directoryOffset != len(m.Entries)*format.NResDirectoryEntry {
		return nil, &errs.BadDirectory{Where: "nres.pack", Detail: "directory size mismatch"}
	}

	out := w.Bytes()
	version := m.Header.Version
	if version == 0 {
		version = format.NResDefaultVersion
	}
	header := bin.NewWriter(format.NResHeaderSize)
	header.Write(format.MagicNRes[:])
	header.PutU32(version)
	header.PutU32(uint32(len(m.Entries)))
	header.PutU32(uint32(len(out)))
	w.PatchAt(0, header.Bytes())

	// Copy out of the pooled buffer before it's released back for reuse by
	// the next Pack call: the pool backs the write, the caller owns an
	// independent copy of the result.
	return append([]byte(nil), w.Bytes()...), nil
}

// nameField returns the 36-byte raw name field for an entry: its stored raw
// bytes if present (preserving anything past the first NUL byte-exactly), or
// the name padded with NUL otherwise.
func nameField(e manifest.NResEntry) []byte {
	if e.NameRawHex != "" {
		if raw, err := bin.HexDecode(e.NameRawHex); err == nil && len(raw) == format.NResNameFieldSize {
			return raw
		}
	}
	raw := make([]byte, format.NResNameFieldSize)
	copy(raw, e.Name)
	return raw
}

// packSortOrder returns entry indices ranked by case-insensitive name order,
// mirroring sortedIndicesByName for manifest.NResEntry.
func packSortOrder(entries []manifest.NResEntry) []int {
	order := make([]int, len(entries))
	for i := range entries {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return lowerString(entries[order[a]].Name) < lowerString(entries[order[b]].Name)
	})
	return order
}

func lowerString(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'A' && c <= 'Z' {
			b[i] = c + ('a' - 'A')
		}
	}
	return string(b)
}
