package msh

import (
	"math"

	"github.com/relicfmt/relicfmt/bin"
	"github.com/relicfmt/relicfmt/format"
	"github.com/relicfmt/relicfmt/report"
)

// slotRecord is one parsed Type 2 slot.
type slotRecord struct {
	triStart, triCount     uint16
	batchStart, batchCount uint16
	bounds                 [10]float32
}

// triangleRecord is one parsed Type 7 triangle descriptor.
type triangleRecord struct {
	link0, link1, link2 uint16
}

// nodeRecord is one parsed Type 1 node; slots is nil for the 24-byte variant,
// which carries no slot matrix (its leading bytes are opaque and preserved
// unreinterpreted).
type nodeRecord struct {
	mapOffset        uint16
	fallbackKeyIndex uint16
	slots            []uint16
}

const sentinelSlot = 0xFFFF

// validateCrossTable walks the chunk referential-integrity graph:
// node -> slot -> (triangle range, batch range) -> index -> vertex, plus the
// node name/animation-map counts and the fallback-key bound.
func validateCrossTable(rep *report.Report, byType map[uint32][]chunk) {
	vertexCount := recordCount(byType, format.MSHTypeVertices, 12)
	indexCount := recordCount(byType, format.MSHTypeIndices, 2)
	triangleCount := recordCount(byType, format.MSHTypeTriangles, 16)
	batchCount := recordCount(byType, format.MSHTypeBatches, 20)
	animKeyCount := recordCount(byType, format.MSHTypeAnimKeys, 24)
	nodeAnimMapCount := recordCount(byType, format.MSHTypeNodeAnimMap, 2)

	for _, aux := range []uint32{format.MSHTypeAttr4, format.MSHTypeAttr5} {
		for _, c := range byType[aux] {
			if got := uint32(len(c.data)) / 4; got != vertexCount {
				rep.Errorf(catCrossRef, "msh", entryTag(c.entry), "type %d count=%d != vertex count=%d", aux, got, vertexCount)
			}
		}
	}

	slots := parseSlots(byType)
	for i, s := range slots {
		if uint32(s.triStart)+uint32(s.triCount) > triangleCount {
			rep.Errorf(catCrossRef, "msh", "type2", "slot %d: triangle range [%d,%d) exceeds triangle count %d", i, s.triStart, s.triStart+s.triCount, triangleCount)
		}
		if uint32(s.batchStart)+uint32(s.batchCount) > batchCount {
			rep.Errorf(catCrossRef, "msh", "type2", "slot %d: batch range [%d,%d) exceeds batch count %d", i, s.batchStart, s.batchStart+s.batchCount, batchCount)
		}
		for b, v := range s.bounds {
			if !isFiniteF32(v) {
				rep.Errorf(catCrossRef, "msh", "type2", "slot %d: bound[%d]=%v is not finite", i, b, v)
			}
		}
	}

	triangles := parseTriangles(byType)
	triDescCount := uint32(len(triangles))
	for i, t := range triangles {
		for _, link := range []uint16{t.link0, t.link1, t.link2} {
			if link != sentinelSlot && uint32(link) >= triDescCount {
				rep.Errorf(catCrossRef, "msh", "type7", "triangle %d: link %d outside tri_desc_count %d", i, link, triDescCount)
			}
		}
	}

	for _, c := range byType[format.MSHTypeBatches] {
		n := len(c.data) / 20
		for i := 0; i < n; i++ {
			row := c.data[i*20 : (i+1)*20]
			r := bin.NewReader(row, "msh.batch")
			_, _ = r.U16() // flags
			_, _ = r.U16() // matIdx
			_, _ = r.U16() // unk4
			_, _ = r.U16() // unk6
			indexCnt, _ := r.U16()
			indexStart, _ := r.U32()
			_, _ = r.U16() // unk14
			baseVertex, _ := r.U32()

			if uint32(indexStart)+uint32(indexCnt) > indexCount {
				rep.Errorf(catCrossRef, "msh", "type13", "batch %d: index range [%d,%d) exceeds index count %d", i, indexStart, uint32(indexStart)+uint32(indexCnt), indexCount)
				continue
			}
			maxIdx := maxU16InIndexRange(byType, int(indexStart), int(indexCnt))
			if baseVertex+uint32(maxIdx) >= vertexCount {
				rep.Errorf(catCrossRef, "msh", "type13", "batch %d: baseVertex=%d + maxIndex=%d >= vertex count=%d", i, baseVertex, maxIdx, vertexCount)
			}
		}
	}

	nodes := parseNodes(byType)
	slotCount := uint32(len(slots))
	for i, n := range nodes {
		for _, slotIdx := range n.slots {
			if slotIdx != sentinelSlot && uint32(slotIdx) >= slotCount {
				rep.Errorf(catCrossRef, "msh", "type1", "node %d: slot index %d exceeds slot count %d", i, slotIdx, slotCount)
			}
		}
		if len(byType[format.MSHTypeAnimKeys]) > 0 && n.fallbackKeyIndex != sentinelSlot && uint32(n.fallbackKeyIndex) >= animKeyCount {
			rep.Errorf(catCrossRef, "msh", "type1", "node %d: fallback key index %d exceeds anim key count %d", i, n.fallbackKeyIndex, animKeyCount)
		}
		if len(byType[format.MSHTypeNodeAnimMap]) > 0 {
			frames := nodeAnimFrames(byType, i)
			if uint32(n.mapOffset)+frames > nodeAnimMapCount {
				rep.Errorf(catCrossRef, "msh", "type1", "node %d: map range [%d,%d) exceeds anim map count %d", i, n.mapOffset, uint32(n.mapOffset)+frames, nodeAnimMapCount)
			}
		}
	}

	if names := byType[format.MSHTypeNodeNames]; len(names) > 0 {
		if c := names[0]; c.entry.Attr1 != uint32(len(nodes)) {
			rep.Warnf(catCrossRef, "msh", "type10", "node name count=%d != node count=%d", c.entry.Attr1, len(nodes))
		}
	}
}

func recordCount(byType map[uint32][]chunk, typeID uint32, stride int) uint32 {
	var total uint32
	for _, c := range byType[typeID] {
		total += uint32(len(c.data) / stride)
	}
	return total
}

func parseSlots(byType map[uint32][]chunk) []slotRecord {
	var out []slotRecord
	for _, c := range byType[format.MSHTypeSlots] {
		if len(c.data) < format.MSHSlotHeaderSize {
			continue
		}
		body := c.data[format.MSHSlotHeaderSize:]
		n := len(body) / 68
		for i := 0; i < n; i++ {
			row := body[i*68 : (i+1)*68]
			r := bin.NewReader(row, "msh.slot")
			triStart, _ := r.U16()
			triCount, _ := r.U16()
			batchStart, _ := r.U16()
			batchCount, _ := r.U16()
			_ = r.Seek(8)
			var bounds [10]float32
			for b := 0; b < 10; b++ {
				bounds[b], _ = r.F32()
			}
			out = append(out, slotRecord{
				triStart: triStart, triCount: triCount,
				batchStart: batchStart, batchCount: batchCount,
				bounds: bounds,
			})
		}
	}
	return out
}

// parseTriangles parses every Type 7 triangle descriptor's link0/link1/link2
// self-referential fields (each 0xFFFF or an index into Type 7).
func parseTriangles(byType map[uint32][]chunk) []triangleRecord {
	var out []triangleRecord
	for _, c := range byType[format.MSHTypeTriangles] {
		n := len(c.data) / 16
		for i := 0; i < n; i++ {
			row := c.data[i*16 : (i+1)*16]
			r := bin.NewReader(row, "msh.triangle")
			_, _ = r.U16() // flags
			link0, _ := r.U16()
			link1, _ := r.U16()
			link2, _ := r.U16()
			out = append(out, triangleRecord{link0: link0, link1: link1, link2: link2})
		}
	}
	return out
}

// isFiniteF32 reports whether v is neither NaN nor +-Inf.
func isFiniteF32(v float32) bool {
	f := float64(v)
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// parseNodes parses every Type 1 record. The 38-byte variant carries
// mapOffset@+4, fallbackKeyIndex@+6, and a 15x u16 slot matrix at +8; the
// 24-byte variant is treated as opaque (no documented sub-layout).
func parseNodes(byType map[uint32][]chunk) []nodeRecord {
	var out []nodeRecord
	for _, c := range byType[format.MSHTypeNodes] {
		stride := int(c.entry.Attr3)
		if stride != 38 && stride != 24 {
			continue
		}
		n := len(c.data) / stride
		for i := 0; i < n; i++ {
			row := c.data[i*stride : (i+1)*stride]
			if stride == 24 {
				out = append(out, nodeRecord{mapOffset: sentinelSlot, fallbackKeyIndex: sentinelSlot})
				continue
			}
			r := bin.NewReader(row, "msh.node")
			_ = r.Seek(4)
			mapOffset, _ := r.U16()
			fallbackKeyIndex, _ := r.U16()
			_ = r.Seek(8)
			slots := make([]uint16, 15)
			for s := 0; s < 15; s++ {
				slots[s], _ = r.U16()
			}
			out = append(out, nodeRecord{mapOffset: mapOffset, fallbackKeyIndex: fallbackKeyIndex, slots: slots})
		}
	}
	return out
}

// maxU16InIndexRange scans Type 6's u16 index stream over [start, start+count)
// and returns the maximum value found.
func maxU16InIndexRange(byType map[uint32][]chunk, start, count int) uint16 {
	var max uint16
	pos := 0
	for _, c := range byType[format.MSHTypeIndices] {
		n := len(c.data) / 2
		for i := 0; i < n; i++ {
			if pos >= start && pos < start+count {
				v := uint16(c.data[i*2]) | uint16(c.data[i*2+1])<<8
				if v > max {
					max = v
				}
			}
			pos++
		}
	}
	return max
}

// nodeAnimFrames returns the frames-per-node count for node i, carried in the
// Type 19 chunk's attr2 field.
func nodeAnimFrames(byType map[uint32][]chunk, _ int) uint32 {
	for _, c := range byType[format.MSHTypeNodeAnimMap] {
		return c.entry.Attr2
	}
	return 0
}
