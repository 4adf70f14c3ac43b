// Package nres implements the NRes archive container: strict parsing, a
// structural-issue-accumulating unpacker, and a byte-exact packer.
package nres

import (
	"bytes"
	"fmt"
	"sort"

	"github.com/relicfmt/relicfmt/bin"
	"github.com/relicfmt/relicfmt/errs"
	"github.com/relicfmt/relicfmt/format"
)

// Entry is one parsed 64-byte NRes directory row.
type Entry struct {
	Index      int
	TypeID     uint32
	Attr1      uint32
	Attr2      uint32
	Size       uint32
	Attr3      uint32
	Name       string
	NameRaw    []byte // 36 bytes, preserved verbatim including bytes past the first NUL
	DataOffset uint32
	SortIndex  uint32
}

// Header is the parsed NRes header plus the derived directory offset.
type Header struct {
	Version         uint32
	EntryCount      uint32
	TotalSize       uint32
	DirectoryOffset uint32
}

// Parsed is the structural result of Parse: a header, its directory, and any
// non-fatal spec-deviation issues observed along the way.
type Parsed struct {
	Data    []byte
	Header  Header
	Entries []Entry
	Issues  []string
}

// Parse validates the magic and walks the directory, returning a structural
// error only when the archive can't be meaningfully read further (bad magic,
// truncation, an out-of-range directory_offset). Everything else — version
// mismatch, misaligned offsets, overlaps, non-zero padding, a wrong
// sort_index table — is recorded as a non-fatal issue.
func Parse(data []byte, opts ...ParseOption) (*Parsed, error) {
	cfg, err := resolveParseConfig(opts)
	if err != nil {
		return nil, err
	}
	if len(data) < format.NResHeaderSize {
		return nil, &errs.Truncated{Where: "nres.header", Need: format.NResHeaderSize, Have: len(data)}
	}

	r := bin.NewReader(data, "nres.header")
	magic, err := r.Bytes(4)
	if err != nil {
		return nil, err
	}
	if !bytes.Equal(magic, format.MagicNRes[:]) {
		return nil, &errs.BadMagic{Where: "nres.header", Want: format.MagicNRes[:], Got: magic}
	}

	version, err := r.U32()
	if err != nil {
		return nil, err
	}
	entryCount, err := r.U32()
	if err != nil {
		return nil, err
	}
	totalSize, err := r.U32()
	if err != nil {
		return nil, err
	}

	p := &Parsed{Data: data, Header: Header{Version: version, EntryCount: entryCount, TotalSize: totalSize}}

	if int(totalSize) != len(data) {
		p.Issues = append(p.Issues, issuef("header.total_size=%d != actual_size=%d", totalSize, len(data)))
	}
	if version != format.NResDefaultVersion {
		p.Issues = append(p.Issues, issuef("version=0x%08X != 0x%08X", version, format.NResDefaultVersion))
	}

	dirOffset := int(totalSize) - int(entryCount)*format.NResDirectoryEntry
	if dirOffset < format.NResMinDataOffset || dirOffset > len(data) {
		return nil, &errs.BadDirectory{Where: "nres", Detail: "directory offset out of range"}
	}
	if dirOffset+int(entryCount)*format.NResDirectoryEntry != len(data) {
		p.Issues = append(p.Issues, "directory_offset + entry_count*64 != file_size")
	}
	p.Header.DirectoryOffset = uint32(dirOffset)

	entries := make([]Entry, entryCount)
	for i := 0; i < int(entryCount); i++ {
		off := dirOffset + i*format.NResDirectoryEntry
		if off+format.NResDirectoryEntry > len(data) {
			return nil, &errs.Truncated{Where: "nres.directory", Need: off + format.NResDirectoryEntry, Have: len(data)}
		}
		er := bin.NewReader(data[off:off+format.NResDirectoryEntry], "nres.directory")

		typeID, _ := er.U32()
		attr1, _ := er.U32()
		attr2, _ := er.U32()
		size, _ := er.U32()
		attr3, _ := er.U32()
		name, nameRaw, _ := er.CString(format.NResNameFieldSize)
		dataOffset, _ := er.U32()
		sortIndex, _ := er.U32()

		entries[i] = Entry{
			Index: i, TypeID: typeID, Attr1: attr1, Attr2: attr2, Size: size, Attr3: attr3,
			Name: name, NameRaw: append([]byte(nil), nameRaw...), DataOffset: dataOffset, SortIndex: sortIndex,
		}
	}
	p.Entries = entries

	p.Issues = append(p.Issues, p.checkDirectoryInvariants()...)

	if cfg.FailOnIssues && len(p.Issues) > 0 {
		return nil, &errs.BadDirectory{Where: "nres", Detail: "fail-on-issues: " + p.Issues[0]}
	}

	return p, nil
}

// checkDirectoryInvariants checks directory invariants: 8-byte
// alignment, bounds, non-overlap, zero padding, and sort_index construction.
func (p *Parsed) checkDirectoryInvariants() []string {
	var issues []string
	dirOffset := int(p.Header.DirectoryOffset)

	// sort_index[i] stores order[i]: the original index of the entry ranked i-th.
	order := sortedIndicesByName(p.Entries)
	mismatch := false
	for i, e := range p.Entries {
		if int(e.SortIndex) != order[i] {
			mismatch = true
			break
		}
	}
	if mismatch {
		issues = append(issues, "sort_index table does not match case-insensitive name order")
	}

	type region struct {
		idx, start, size int
	}
	regions := make([]region, len(p.Entries))
	for i, e := range p.Entries {
		regions[i] = region{i, int(e.DataOffset), int(e.Size)}
	}
	sort.Slice(regions, func(a, b int) bool { return regions[a].start < regions[b].start })

	for _, reg := range regions {
		if reg.start%format.NResDataAlign != 0 {
			issues = append(issues, issuef("entry %d: data_offset=%d not aligned to %d", reg.idx, reg.start, format.NResDataAlign))
		}
		if reg.start < format.NResMinDataOffset || reg.start+reg.size > dirOffset {
			issues = append(issues, issuef("entry %d: data range [%d, %d) out of data area", reg.idx, reg.start, reg.start+reg.size))
		}
	}
	for i := 0; i+1 < len(regions); i++ {
		cur, next := regions[i], regions[i+1]
		if cur.start+cur.size > next.start {
			issues = append(issues, issuef("entry overlap at data_offset=%d, next=%d", cur.start, next.start))
			continue
		}
		padStart := cur.start + cur.size
		if padStart < next.start && padStart+next.start-padStart <= len(p.Data) {
			padding := p.Data[padStart:next.start]
			for _, b := range padding {
				if b != 0 {
					issues = append(issues, issuef("non-zero padding after data block at offset=%d", padStart))
					break
				}
			}
		}
	}

	return issues
}

// sortedIndicesByName returns the original indices of entries, ordered by
// case-insensitive comparison of their raw name bytes (up to the first NUL),
// ties broken by original index.
func sortedIndicesByName(entries []Entry) []int {
	order := make([]int, len(entries))
	for i := range entries {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return lowerString(entries[order[a]].Name) < lowerString(entries[order[b]].Name)
	})
	return order
}

func issuef(f string, args ...any) string {
	return fmt.Sprintf(f, args...)
}
