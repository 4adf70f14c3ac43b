// Package msh validates the nested-NRes model payload carried by `.msh`
// archive entries: per-chunk stride/attr checks and the cross-table
// referential-integrity graph between nodes, slots, batches, indices, and
// vertices.
package msh

import (
	"github.com/relicfmt/relicfmt/bin"
	"github.com/relicfmt/relicfmt/format"
	"github.com/relicfmt/relicfmt/nres"
	"github.com/relicfmt/relicfmt/report"
)

const (
	catStructure = "structure"
	catStride    = "stride"
	catReserved  = "reserved"
	catCrossRef  = "cross-ref"
)

var requiredTypes = []uint32{format.MSHTypeNodes, format.MSHTypeSlots, format.MSHTypeVertices, format.MSHTypeIndices, format.MSHTypeBatches}

// chunk pairs a parsed directory entry with its sliced payload bytes.
type chunk struct {
	entry nres.Entry
	data  []byte
}

// Validate parses data as a nested NRes archive and checks every chunk and
// cross-table invariant it carries. A structural error is returned
// only when the outer NRes container itself can't be parsed; everything
// else accumulates as a report.Issue instead.
func Validate(data []byte) (*report.Report, error) {
	p, err := nres.Parse(data)
	if err != nil {
		return nil, err
	}

	rep := report.NewReport()
	for _, issue := range p.Issues {
		rep.Warnf(catStructure, "msh", "", "nested NRes: %s", issue)
	}

	byType := map[uint32][]chunk{}
	for _, e := range p.Entries {
		payload, err := bin.ReadAt(p.Data, "msh.entry", int(e.DataOffset), int(e.Size))
		if err != nil {
			rep.Errorf(catStructure, "msh", entryTag(e), "payload out of range: %v", err)
			continue
		}
		byType[e.TypeID] = append(byType[e.TypeID], chunk{entry: e, data: payload})
	}

	for _, t := range requiredTypes {
		if len(byType[t]) == 0 {
			rep.Errorf(catStructure, "msh", "", "missing required chunk type %d", t)
		}
	}

	for typeID, chunks := range byType {
		stride, hasFixedStride := format.MSHStride[typeID]
		for _, c := range chunks {
			validateChunkShape(rep, typeID, c, stride, hasFixedStride)
		}
	}

	validateCrossTable(rep, byType)

	return rep, nil
}

func entryTag(e nres.Entry) string {
	if e.Name != "" {
		return e.Name
	}
	return genericIndexTag(e.Index)
}

func genericIndexTag(i int) string {
	return "entry[" + itoa(i) + "]"
}

func itoa(i int) string {
	if i == 0 {
		return "0"
	}
	neg := i < 0
	if neg {
		i = -i
	}
	var buf [20]byte
	pos := len(buf)
	for i > 0 {
		pos--
		buf[pos] = byte('0' + i%10)
		i /= 10
	}
	if neg {
		pos--
		buf[pos] = '-'
	}
	return string(buf[pos:])
}

// validateChunkShape checks the generic per-chunk rule: size % stride
// == 0, attr1 == size/stride, attr3 == stride, and attr2 == 0 except for the
// documented exceptions (Type 19's attr2 carries frames-per-node; Type 1 may
// be non-zero).
func validateChunkShape(rep *report.Report, typeID uint32, c chunk, fixedStride uint32, hasFixedStride bool) {
	entryStride := c.entry.Attr3
	tag := entryTag(c.entry)

	switch typeID {
	case format.MSHTypeNodes:
		if entryStride != 38 && entryStride != 24 {
			rep.Errorf(catStride, "msh", tag, "type 1: attr3=%d is neither known node stride (24 or 38)", entryStride)
			return
		}
	case format.MSHTypeNodeNames:
		validateNodeNames(rep, c)
		return
	case format.MSHTypeSlots:
		validateSlotShape(rep, c)
		return
	default:
		if hasFixedStride && entryStride != fixedStride {
			rep.Errorf(catStride, "msh", tag, "type %d: attr3=%d != expected stride %d", typeID, entryStride, fixedStride)
		}
	}

	if entryStride == 0 {
		rep.Errorf(catStride, "msh", tag, "type %d: zero stride", typeID)
		return
	}
	if uint32(len(c.data))%entryStride != 0 {
		rep.Errorf(catStride, "msh", tag, "type %d: size=%d not a multiple of stride=%d", typeID, len(c.data), entryStride)
	}
	if want := uint32(len(c.data)) / entryStride; c.entry.Attr1 != want {
		rep.Errorf(catStride, "msh", tag, "type %d: attr1=%d != size/stride=%d", typeID, c.entry.Attr1, want)
	}

	if c.entry.Attr2 != 0 && typeID != format.MSHTypeNodes && typeID != format.MSHTypeNodeAnimMap {
		rep.Warnf(catReserved, "msh", tag, "type %d: attr2=%d, expected 0", typeID, c.entry.Attr2)
	}
}

// validateSlotShape checks Type 2's layout: a fixed 0x8C-byte header followed
// by attr1 records of 68 bytes each.
func validateSlotShape(rep *report.Report, c chunk) {
	if len(c.data) < format.MSHSlotHeaderSize {
		rep.Errorf(catStride, "msh", "type2", "size=%d shorter than slot header (%d)", len(c.data), format.MSHSlotHeaderSize)
		return
	}
	body := len(c.data) - format.MSHSlotHeaderSize
	if c.entry.Attr3 != 68 {
		rep.Errorf(catStride, "msh", "type2", "attr3=%d != expected slot stride 68", c.entry.Attr3)
	}
	if body%68 != 0 {
		rep.Errorf(catStride, "msh", "type2", "post-header size=%d not a multiple of 68", body)
		return
	}
	if want := uint32(body / 68); c.entry.Attr1 != want {
		rep.Errorf(catStride, "msh", "type2", "attr1=%d != record count=%d", c.entry.Attr1, want)
	}
}

// validateNodeNames checks the length-prefixed NUL-terminated string stream:
// a u32 length per node followed by length+1 bytes (including the trailing
// NUL) when length is nonzero.
func validateNodeNames(rep *report.Report, c chunk) {
	r := bin.NewReader(c.data, "msh.type10")
	count := 0
	for r.Len() > 0 {
		length, err := r.U32()
		if err != nil {
			rep.Errorf(catStructure, "msh", "type10", "truncated length prefix at record %d", count)
			return
		}
		if length > 0 {
			if _, err := r.Bytes(int(length) + 1); err != nil {
				rep.Errorf(catStructure, "msh", "type10", "truncated string at record %d (length=%d)", count, length)
				return
			}
		}
		count++
	}
	if c.entry.Attr1 != uint32(count) {
		rep.Warnf(catStride, "msh", "type10", "attr1=%d != parsed record count=%d", c.entry.Attr1, count)
	}
}
