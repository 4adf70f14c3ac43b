package nres

import (
	"fmt"

	"github.com/relicfmt/relicfmt/bin"
	"github.com/relicfmt/relicfmt/manifest"
)

// Payload is one entry's raw data slice, named for sidecar extraction.
type Payload struct {
	Index int
	Name  string
	Data  []byte
}

// Unpack turns a Parsed archive into a manifest.NRes plus the raw payload for
// every entry. It never fails on a structural issue already
// recorded in p.Issues; a payload that falls outside the file (which Parse
// would already have flagged) is reported per-entry as an empty slice plus an
// appended issue rather than aborting the whole unpack.
func Unpack(p *Parsed, sourcePath, sourceSHA256 string) (*manifest.NRes, []Payload, error) {
	m := &manifest.NRes{
		Format:       "NRes",
		SourcePath:   sourcePath,
		SourceSHA256: sourceSHA256,
		Header: manifest.NResHeader{
			Magic:           "NRes",
			Version:         p.Header.Version,
			EntryCount:      p.Header.EntryCount,
			TotalSize:       p.Header.TotalSize,
			DirectoryOffset: p.Header.DirectoryOffset,
		},
		Issues: append([]string(nil), p.Issues...),
	}

	payloads := make([]Payload, 0, len(p.Entries))
	m.Entries = make([]manifest.NResEntry, 0, len(p.Entries))

	for _, e := range p.Entries {
		me := manifest.NResEntry{
			Index:      e.Index,
			TypeID:     e.TypeID,
			Attr1:      e.Attr1,
			Attr2:      e.Attr2,
			Size:       e.Size,
			Attr3:      e.Attr3,
			Name:       e.Name,
			NameRawHex: bin.HexEncode(e.NameRaw),
			DataOffset: e.DataOffset,
			SortIndex:  e.SortIndex,
		}

		data, err := bin.ReadAt(p.Data, "nres.entry", int(e.DataOffset), int(e.Size))
		if err != nil {
			m.Issues = append(m.Issues, fmt.Sprintf("entry %d (%s): payload out of range: %v", e.Index, e.Name, err))
			data = nil
		} else {
			me.SHA256 = bin.SHA256Hex(data)
		}

		m.Entries = append(m.Entries, me)
		payloads = append(payloads, Payload{Index: e.Index, Name: e.Name, Data: data})
	}

	return m, payloads, nil
}
