// Package rsli implements the RsLi archive container: header/trailer
// detection, XOR-encrypted directory parsing, and a byte-exact packer.
package rsli

import (
	"bytes"
	"fmt"

	"github.com/relicfmt/relicfmt/bin"
	"github.com/relicfmt/relicfmt/codec"
	"github.com/relicfmt/relicfmt/errs"
	"github.com/relicfmt/relicfmt/format"
)

// Entry is one decrypted 32-byte RsLi directory row.
type Entry struct {
	Index               int
	Name                string
	NameRaw             []byte // 12 bytes
	Reserved            []byte // 4 bytes, opaque
	FlagsSigned         int16
	Method              format.RsLiMethod
	SortToOriginal      int16
	UnpackedSize        uint32
	DataOffset          uint32
	EffectiveDataOffset uint32
	PackedSize          uint32
}

// Header is the parsed RsLi header: the three known fields plus the raw
// 32-byte block they were extracted from, preserved for exact repacking.
type Header struct {
	Raw           []byte // 32 bytes
	EntryCount    int16
	PresortedFlag uint16
	Seed          uint32
}

// Trailer describes the optional 6-byte "AO" overlay suffix.
type Trailer struct {
	Present       bool
	OverlayOffset uint32
	Raw           []byte // 6 bytes, only set when Present
}

// Parsed is the structural result of Parse.
type Parsed struct {
	Data    []byte
	Header  Header
	Entries []Entry
	Trailer Trailer
	Issues  []string
}

// Parse reads the header, detects the optional trailer, and decrypts and
// walks the directory. It returns a structural error only when
// the archive can't be meaningfully read further (bad magic, truncation,
// a directory that doesn't fit); everything else — a broken presorted
// permutation, an out-of-range packed range not covered by the documented
// deflate-EOF-plus-one exception — is recorded as a non-fatal issue.
func Parse(data []byte, opts ...ParseOption) (*Parsed, error) {
	cfg, err := resolveParseConfig(opts)
	if err != nil {
		return nil, err
	}
	if len(data) < format.RsLiHeaderSize {
		return nil, &errs.Truncated{Where: "rsli.header", Need: format.RsLiHeaderSize, Have: len(data)}
	}
	if !bytes.Equal(data[:4], format.MagicRsLi[:]) {
		return nil, &errs.BadMagic{Where: "rsli.header", Want: format.MagicRsLi[:], Got: data[:4]}
	}

	headerRaw := append([]byte(nil), data[:format.RsLiHeaderSize]...)
	hr := bin.NewReader(data, "rsli.header")
	_ = hr.Seek(4)
	entryCount, err := hr.I16()
	if err != nil {
		return nil, err
	}
	_ = hr.Seek(14)
	presortedFlag, err := hr.U16()
	if err != nil {
		return nil, err
	}
	_ = hr.Seek(20)
	seed, err := hr.U32()
	if err != nil {
		return nil, err
	}

	p := &Parsed{
		Data: data,
		Header: Header{
			Raw: headerRaw, EntryCount: entryCount, PresortedFlag: presortedFlag, Seed: seed,
		},
	}

	p.Trailer = detectTrailer(data)

	if entryCount < 0 {
		return nil, &errs.BadDirectory{Where: "rsli", Detail: "negative entry_count"}
	}
	dirLen := int(entryCount) * format.RsLiDirectoryEntry
	dirEnd := format.RsLiHeaderSize + dirLen
	if dirEnd > len(data) {
		return nil, &errs.Truncated{Where: "rsli.directory", Need: dirEnd, Have: len(data)}
	}

	encrypted := data[format.RsLiHeaderSize:dirEnd]
	decrypted := codec.XOR(encrypted, uint16(seed))

	entries := make([]Entry, entryCount)
	for i := 0; i < int(entryCount); i++ {
		row := decrypted[i*format.RsLiDirectoryEntry : (i+1)*format.RsLiDirectoryEntry]
		er := bin.NewReader(row, "rsli.directory")

		nameRaw, _ := er.Bytes(format.RsLiNameFieldSize)
		name, _, _ := bin.NewReader(nameRaw, "rsli.directory.name").CString(format.RsLiNameFieldSize)
		reserved, _ := er.Bytes(format.RsLiReservedSize)
		flags, _ := er.I16()
		sortToOriginal, _ := er.I16()
		unpackedSize, _ := er.U32()
		dataOffset, _ := er.U32()
		packedSize, _ := er.U32()

		effective := dataOffset
		if p.Trailer.Present {
			effective += p.Trailer.OverlayOffset
		}

		entries[i] = Entry{
			Index: i, Name: name, NameRaw: append([]byte(nil), nameRaw...),
			Reserved: append([]byte(nil), reserved...), FlagsSigned: flags,
			Method: format.MethodFromFlags(flags), SortToOriginal: sortToOriginal,
			UnpackedSize: unpackedSize, DataOffset: dataOffset, EffectiveDataOffset: effective,
			PackedSize: packedSize,
		}
	}
	p.Entries = entries

	p.Issues = append(p.Issues, p.checkInvariants()...)

	if cfg.FailOnIssues && len(p.Issues) > 0 {
		return nil, &errs.BadDirectory{Where: "rsli", Detail: "fail-on-issues: " + p.Issues[0]}
	}

	return p, nil
}

// detectTrailer reports whether the file's last 6 bytes are "AO" followed by
// a little-endian u32 overlay_offset.
func detectTrailer(data []byte) Trailer {
	if len(data) < format.RsLiTrailerSize {
		return Trailer{}
	}
	tail := data[len(data)-format.RsLiTrailerSize:]
	if !bytes.Equal(tail[:2], format.MagicAO[:]) {
		return Trailer{}
	}
	tr := bin.NewReader(tail, "rsli.trailer")
	_ = tr.Seek(2)
	overlay, err := tr.U32()
	if err != nil {
		return Trailer{}
	}
	return Trailer{Present: true, OverlayOffset: overlay, Raw: append([]byte(nil), tail...)}
}

// checkInvariants checks the presorted permutation and packed-range bounds
// (with the documented deflate EOF+1 exception).
func (p *Parsed) checkInvariants() []string {
	var issues []string

	if p.Header.PresortedFlag == format.RsLiPresortedMagic {
		seen := make([]bool, len(p.Entries))
		ok := true
		for _, e := range p.Entries {
			v := int(e.SortToOriginal)
			if v < 0 || v >= len(p.Entries) || seen[v] {
				ok = false
				break
			}
			seen[v] = true
		}
		if !ok {
			issues = append(issues, "presorted_flag set but sort_to_original is not a permutation of 0..N-1")
		}
	}

	fileLen := len(p.Data)
	for _, e := range p.Entries {
		start := int(e.EffectiveDataOffset)
		end := start + int(e.PackedSize)
		limit := fileLen
		if e.Method == format.RsLiMethodDeflate {
			limit = fileLen + 1
		}
		if start < 0 || end > limit {
			issues = append(issues, fmt.Sprintf("entry %d (%s): packed range [%d, %d) exceeds file bounds", e.Index, e.Name, start, end))
		}
	}

	return issues
}
