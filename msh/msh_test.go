package msh

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/relicfmt/relicfmt/format"
	"github.com/relicfmt/relicfmt/manifest"
	"github.com/relicfmt/relicfmt/nres"
)

func le16(v uint16) []byte { b := make([]byte, 2); binary.LittleEndian.PutUint16(b, v); return b }
func le32(v uint32) []byte { b := make([]byte, 4); binary.LittleEndian.PutUint32(b, v); return b }

// buildMinimalModel constructs the smallest mesh that satisfies every
// required-chunk and cross-table invariant: one node (24-byte
// opaque variant), one slot whose triangle/batch ranges are both empty, one
// vertex, one index, and one batch referencing that single index/vertex.
func buildMinimalModel(t *testing.T) []byte {
	t.Helper()

	node := make([]byte, 24) // opaque 24-byte node variant

	slot := make([]byte, format.MSHSlotHeaderSize+68) // header + one all-zero slot record

	vertex := make([]byte, 12)

	index := le16(0)

	batch := append([]byte{}, le16(0)...) // flags
	batch = append(batch, le16(0)...)     // matIdx
	batch = append(batch, le16(0)...)     // unk4
	batch = append(batch, le16(0)...)     // unk6
	batch = append(batch, le16(1)...)     // indexCount
	batch = append(batch, le32(0)...)     // indexStart
	batch = append(batch, le16(0)...)     // unk14
	batch = append(batch, le32(0)...)     // baseVertex
	require.Len(t, batch, 20)

	m := &manifest.NRes{
		Entries: []manifest.NResEntry{
			{Index: 0, TypeID: format.MSHTypeNodes, Attr1: 1, Attr3: 24, Name: "nodes"},
			{Index: 1, TypeID: format.MSHTypeSlots, Attr1: 1, Attr3: 68, Name: "slots"},
			{Index: 2, TypeID: format.MSHTypeVertices, Attr1: 1, Attr3: 12, Name: "verts"},
			{Index: 3, TypeID: format.MSHTypeIndices, Attr1: 1, Attr3: 2, Name: "indices"},
			{Index: 4, TypeID: format.MSHTypeBatches, Attr1: 1, Attr3: 20, Name: "batches"},
		},
	}
	payloads := map[int][]byte{0: node, 1: slot, 2: vertex, 3: index, 4: batch}
	out, err := nres.Pack(m, func(e manifest.NResEntry) ([]byte, error) {
		return payloads[e.Index], nil
	})
	require.NoError(t, err)
	return out
}

func TestValidate_MinimalModelHasNoErrors(t *testing.T) {
	data := buildMinimalModel(t)
	rep, err := Validate(data)
	require.NoError(t, err)
	require.True(t, rep.OK(), "%+v", rep.Issues)
}

func TestValidate_MissingRequiredChunkIsError(t *testing.T) {
	data := buildMinimalModel(t)
	p, err := nres.Parse(data)
	require.NoError(t, err)
	m, payloads, err := nres.Unpack(p, "", "")
	require.NoError(t, err)

	// Drop the batches chunk entirely.
	m.Entries = m.Entries[:len(m.Entries)-1]
	byIndex := map[int][]byte{}
	for _, pl := range payloads {
		byIndex[pl.Index] = pl.Data
	}
	repacked, err := nres.Pack(m, func(e manifest.NResEntry) ([]byte, error) {
		return byIndex[e.Index], nil
	})
	require.NoError(t, err)

	rep, err := Validate(repacked)
	require.NoError(t, err)
	require.False(t, rep.OK())
}

func TestValidate_BatchIndexOutOfRangeIsError(t *testing.T) {
	data := buildMinimalModel(t)
	p, err := nres.Parse(data)
	require.NoError(t, err)
	m, payloads, err := nres.Unpack(p, "", "")
	require.NoError(t, err)

	byIndex := map[int][]byte{}
	for _, pl := range payloads {
		byIndex[pl.Index] = append([]byte(nil), pl.Data...)
	}
	// Batch's indexCount field (offset 8) claims 5 indices, but there's only 1.
	binary.LittleEndian.PutUint16(byIndex[4][8:10], 5)

	repacked, err := nres.Pack(m, func(e manifest.NResEntry) ([]byte, error) {
		return byIndex[e.Index], nil
	})
	require.NoError(t, err)

	rep, err := Validate(repacked)
	require.NoError(t, err)
	require.False(t, rep.OK())
}

func TestValidate_SlotNonFiniteBoundIsError(t *testing.T) {
	data := buildMinimalModel(t)
	p, err := nres.Parse(data)
	require.NoError(t, err)
	m, payloads, err := nres.Unpack(p, "", "")
	require.NoError(t, err)

	byIndex := map[int][]byte{}
	for _, pl := range payloads {
		byIndex[pl.Index] = append([]byte(nil), pl.Data...)
	}
	// Slot chunk index is 1; the slot record starts right after the
	// MSHSlotHeaderSize preamble, and its first bound f32 sits at +8.
	boundOff := format.MSHSlotHeaderSize + 8
	binary.LittleEndian.PutUint32(byIndex[1][boundOff:boundOff+4], math.Float32bits(float32(math.NaN())))

	repacked, err := nres.Pack(m, func(e manifest.NResEntry) ([]byte, error) {
		return byIndex[e.Index], nil
	})
	require.NoError(t, err)

	rep, err := Validate(repacked)
	require.NoError(t, err)
	require.False(t, rep.OK())
}

func TestValidate_TriangleLinkOutOfRangeIsError(t *testing.T) {
	node := make([]byte, 24)
	slot := make([]byte, format.MSHSlotHeaderSize+68)
	vertex := make([]byte, 12)
	index := le16(0)

	// One Type 7 triangle descriptor: flags, link0, link1, link2, then 8
	// opaque trailing bytes. link0 claims index 5 with only one descriptor
	// present.
	triangle := append([]byte{}, le16(0)...) // flags
	triangle = append(triangle, le16(5)...)  // link0, out of range
	triangle = append(triangle, le16(sentinelSlot)...)
	triangle = append(triangle, le16(sentinelSlot)...)
	triangle = append(triangle, make([]byte, 8)...)
	require.Len(t, triangle, 16)

	batch := append([]byte{}, le16(0)...)
	batch = append(batch, le16(0)...)
	batch = append(batch, le16(0)...)
	batch = append(batch, le16(0)...)
	batch = append(batch, le16(1)...)
	batch = append(batch, le32(0)...)
	batch = append(batch, le16(0)...)
	batch = append(batch, le32(0)...)

	m := &manifest.NRes{
		Entries: []manifest.NResEntry{
			{Index: 0, TypeID: format.MSHTypeNodes, Attr1: 1, Attr3: 24, Name: "nodes"},
			{Index: 1, TypeID: format.MSHTypeSlots, Attr1: 1, Attr3: 68, Name: "slots"},
			{Index: 2, TypeID: format.MSHTypeVertices, Attr1: 1, Attr3: 12, Name: "verts"},
			{Index: 3, TypeID: format.MSHTypeIndices, Attr1: 1, Attr3: 2, Name: "indices"},
			{Index: 4, TypeID: format.MSHTypeBatches, Attr1: 1, Attr3: 20, Name: "batches"},
			{Index: 5, TypeID: format.MSHTypeTriangles, Attr1: 1, Attr3: 16, Name: "tris"},
		},
	}
	payloads := map[int][]byte{0: node, 1: slot, 2: vertex, 3: index, 4: batch, 5: triangle}
	data, err := nres.Pack(m, func(e manifest.NResEntry) ([]byte, error) {
		return payloads[e.Index], nil
	})
	require.NoError(t, err)

	rep, err := Validate(data)
	require.NoError(t, err)
	require.False(t, rep.OK())
}
