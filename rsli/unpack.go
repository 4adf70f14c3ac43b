package rsli

import (
	"fmt"

	"github.com/relicfmt/relicfmt/bin"
	"github.com/relicfmt/relicfmt/codec"
	"github.com/relicfmt/relicfmt/manifest"
)

// Payload carries both the packed blob (always preserved) and, when decoding
// succeeded, the unpacked bytes for one entry.
type Payload struct {
	Index    int
	Name     string
	Packed   []byte
	Unpacked []byte // nil if decode failed
}

// Unpack slices the packed range for every entry and persists it verbatim,
// then attempts to decode it. A decode failure is recorded on the manifest
// entry's unpack_error field without aborting the rest of the archive —
// the packed blob alone is sufficient to repack.
func Unpack(p *Parsed, sourcePath, sourceSHA256 string) (*manifest.RsLi, []Payload, error) {
	m := &manifest.RsLi{
		Format:       "RsLi",
		SourcePath:   sourcePath,
		SourceSize:   len(p.Data),
		SourceSHA256: sourceSHA256,
		HeaderRawHex: bin.HexEncode(p.Header.Raw),
		Header: manifest.RsLiHeader{
			Magic:         "NL\x00\x01",
			EntryCount:    p.Header.EntryCount,
			Seed:          p.Header.Seed,
			PresortedFlag: p.Header.PresortedFlag,
		},
		Trailer: manifest.RsLiTrailer{Present: p.Trailer.Present},
		Issues:  append([]string(nil), p.Issues...),
	}
	if p.Trailer.Present {
		m.Trailer.Signature = "AO"
		m.Trailer.OverlayOffset = p.Trailer.OverlayOffset
		m.Trailer.RawHex = bin.HexEncode(p.Trailer.Raw)
	}

	payloads := make([]Payload, 0, len(p.Entries))
	m.Entries = make([]manifest.RsLiEntry, 0, len(p.Entries))

	for _, e := range p.Entries {
		me := manifest.RsLiEntry{
			Index: e.Index, Name: e.Name,
			NameRawHex:          bin.HexEncode(e.NameRaw),
			ReservedRawHex:      bin.HexEncode(e.Reserved),
			FlagsSigned:         e.FlagsSigned,
			Method:              e.Method.String(),
			SortToOriginal:      e.SortToOriginal,
			UnpackedSize:        e.UnpackedSize,
			DataOffset:          e.DataOffset,
			EffectiveDataOffset: e.EffectiveDataOffset,
			PackedSize:          e.PackedSize,
		}

		packed, err := bin.ReadAt(p.Data, "rsli.entry", int(e.EffectiveDataOffset), int(e.PackedSize))
		if err != nil {
			// The documented deflate EOF+1 exception: one virtual zero byte past file end.
			if e.Method.String() == "deflate" && int(e.EffectiveDataOffset)+int(e.PackedSize) == len(p.Data)+1 {
				packed = append(append([]byte(nil), p.Data[e.EffectiveDataOffset:]...), 0)
				err = nil
			}
		}
		if err != nil {
			m.Issues = append(m.Issues, fmt.Sprintf("entry %d (%s): packed range out of bounds: %v", e.Index, e.Name, err))
			payloads = append(payloads, Payload{Index: e.Index, Name: e.Name})
			m.Entries = append(m.Entries, me)
			continue
		}
		me.PackedSHA256 = bin.SHA256Hex(packed)

		unpacked, decErr := codec.RsLiDecode(e.Method, packed, uint16(e.SortToOriginal), int(e.UnpackedSize))
		if decErr != nil {
			me.UnpackError = decErr.Error()
		} else {
			me.UnpackedSHA256 = bin.SHA256Hex(unpacked)
		}

		m.Entries = append(m.Entries, me)
		payloads = append(payloads, Payload{Index: e.Index, Name: e.Name, Packed: packed, Unpacked: unpacked})
	}

	return m, payloads, nil
}
