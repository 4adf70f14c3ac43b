// Package terrain validates the Type 12 ArealMap chunk carried inside a map
// NRes archive: the variable-length areal record stream, the vertex/link/
// polygon tables each record owns, the trailing 2D cell grid, and the
// cross-record link and shoelace-area invariants.
package terrain

import (
	"math"

	"github.com/relicfmt/relicfmt/bin"
	"github.com/relicfmt/relicfmt/errs"
	"github.com/relicfmt/relicfmt/format"
	"github.com/relicfmt/relicfmt/nres"
	"github.com/relicfmt/relicfmt/report"
)

const (
	catStructure = "structure"
	catLink      = "link"
	catArea      = "area"
	catNormal    = "normal"
	catGrid      = "grid"
)

// Vec3 is a 3D position or direction.
type Vec3 struct{ X, Y, Z float32 }

// LinkRef is one (area_ref, edge_ref) pair from a record's link table.
type LinkRef struct {
	AreaRef int32
	EdgeRef int32
}

// Polygon is one payload-indexed polygon from a record's polygon table.
type Polygon struct {
	Indices []uint32
}

// Areal is one parsed Type 12 record.
type Areal struct {
	Index     int
	Anchor    Vec3
	U12       uint32
	Area      float32
	Normal    Vec3
	LogicFlag uint32
	U36       uint32
	ClassID   uint32
	U44       uint32
	Vertices  []Vec3
	EdgeLinks []LinkRef // first vertex_count entries of the link table
	PolyLinks []LinkRef // remaining 3*poly_count entries of the link table
	Polygons  []Polygon
}

// Cell is one entry of the trailing 2D grid: the areal indices that hit it.
type Cell struct {
	AreaIDs []uint16
}

// Map is the full parsed ArealMap chunk.
type Map struct {
	Areals []Areal
	CellsX uint32
	CellsY uint32
	Cells  []Cell // len == CellsX*CellsY, x-major then y
}

const recordHeaderSize = format.TerrainAreaRecordHeaderSize

// Parse walks exactly arealCount variable-length areal records (arealCount
// comes from the owning NRes directory entry's attr1, per the reference
// tool — the stream itself carries no record count) followed by the 2D cell
// grid. Returns a structural error on truncation or an out-of-bounds count
// field. Cross-record and cross-table semantic checks are
// performed separately by Validate.
func Parse(data []byte, arealCount int) (*Map, error) {
	if arealCount < 0 {
		return nil, &errs.BadDirectory{Where: "terrain.areal", Detail: "negative areal_count"}
	}

	r := bin.NewReader(data, "terrain.areal")

	areals := make([]Areal, 0, arealCount)
	for idx := 0; idx < arealCount; idx++ {
		a, err := parseAreal(r, idx)
		if err != nil {
			return nil, err
		}
		areals = append(areals, *a)
	}

	m := &Map{Areals: areals}

	cellsX, err := r.U32()
	if err != nil {
		return nil, err
	}
	cellsY, err := r.U32()
	if err != nil {
		return nil, err
	}
	m.CellsX, m.CellsY = cellsX, cellsY

	total := int(cellsX) * int(cellsY)
	cells := make([]Cell, 0, total)
	for x := uint32(0); x < cellsX; x++ {
		for y := uint32(0); y < cellsY; y++ {
			hitCount, err := r.U16()
			if err != nil {
				return nil, err
			}
			ids := make([]uint16, hitCount)
			for j := range ids {
				v, err := r.U16()
				if err != nil {
					return nil, err
				}
				ids[j] = v
			}
			cells = append(cells, Cell{AreaIDs: ids})
		}
	}
	m.Cells = cells

	if r.Len() != 0 {
		return nil, &errs.BadDirectory{Where: "terrain.areal", Detail: "trailing bytes after cell grid"}
	}

	return m, nil
}

func parseAreal(r *bin.Reader, idx int) (*Areal, error) {
	a := &Areal{Index: idx}

	anchor, err := readVec3(r)
	if err != nil {
		return nil, err
	}
	a.Anchor = anchor

	if a.U12, err = r.U32(); err != nil {
		return nil, err
	}
	if a.Area, err = r.F32(); err != nil {
		return nil, err
	}

	normal, err := readVec3(r)
	if err != nil {
		return nil, err
	}
	a.Normal = normal

	if a.LogicFlag, err = r.U32(); err != nil {
		return nil, err
	}
	if a.U36, err = r.U32(); err != nil {
		return nil, err
	}
	if a.ClassID, err = r.U32(); err != nil {
		return nil, err
	}
	if a.U44, err = r.U32(); err != nil {
		return nil, err
	}
	vertexCount, err := r.U32()
	if err != nil {
		return nil, err
	}
	polyCount, err := r.U32()
	if err != nil {
		return nil, err
	}

	vertices := make([]Vec3, vertexCount)
	for i := range vertices {
		v, err := readVec3(r)
		if err != nil {
			return nil, err
		}
		vertices[i] = v
	}
	a.Vertices = vertices

	edgeLinks := make([]LinkRef, vertexCount)
	for i := range edgeLinks {
		l, err := readLinkRef(r)
		if err != nil {
			return nil, err
		}
		edgeLinks[i] = l
	}
	a.EdgeLinks = edgeLinks

	polyLinks := make([]LinkRef, 3*polyCount)
	for i := range polyLinks {
		l, err := readLinkRef(r)
		if err != nil {
			return nil, err
		}
		polyLinks[i] = l
	}
	a.PolyLinks = polyLinks

	polys := make([]Polygon, polyCount)
	for i := range polys {
		n, err := r.U32()
		if err != nil {
			return nil, err
		}
		payload := make([]uint32, 3*n)
		for j := range payload {
			v, err := r.U32()
			if err != nil {
				return nil, err
			}
			payload[j] = v
		}
		polys[i] = Polygon{Indices: payload}
	}
	a.Polygons = polys

	return a, nil
}

func readVec3(r *bin.Reader) (Vec3, error) {
	x, err := r.F32()
	if err != nil {
		return Vec3{}, err
	}
	y, err := r.F32()
	if err != nil {
		return Vec3{}, err
	}
	z, err := r.F32()
	if err != nil {
		return Vec3{}, err
	}
	return Vec3{X: x, Y: y, Z: z}, nil
}

func readLinkRef(r *bin.Reader) (LinkRef, error) {
	areaRef, err := r.I32()
	if err != nil {
		return LinkRef{}, err
	}
	edgeRef, err := r.I32()
	if err != nil {
		return LinkRef{}, err
	}
	return LinkRef{AreaRef: areaRef, EdgeRef: edgeRef}, nil
}

// areaTolerance is the relative-error threshold past which a record's
// declared area is flagged as discrepant (5%).
const areaTolerance = 0.05

// ValidateMap parses mapData as an NRes archive, locates its single Type 12
// ArealMap chunk, and validates it. A structural error is returned when the
// outer container or the chunk itself can't be parsed.
func ValidateMap(mapData []byte) (*report.Report, *Map, error) {
	p, err := nres.Parse(mapData)
	if err != nil {
		return nil, nil, err
	}

	rep := report.NewReport()
	for _, issue := range p.Issues {
		rep.Warnf(catStructure, "terrain", "", "nres: %s", issue)
	}

	var chunk *nres.Entry
	for i := range p.Entries {
		if p.Entries[i].TypeID == format.TerrainMSHType {
			chunk = &p.Entries[i]
			break
		}
	}
	if chunk == nil {
		rep.Errorf(catStructure, "terrain", "", "no type %d (ArealMap) chunk found", format.TerrainMSHType)
		return rep, nil, nil
	}

	payload, err := bin.ReadAt(p.Data, "terrain.chunk", int(chunk.DataOffset), int(chunk.Size))
	if err != nil {
		return nil, nil, err
	}

	chunkRep, m, err := Validate(payload, int(chunk.Attr1))
	if err != nil {
		return nil, nil, err
	}
	rep.Issues = append(rep.Issues, chunkRep.Issues...)
	rep.Summary.Errors += chunkRep.Summary.Errors
	rep.Summary.Warnings += chunkRep.Summary.Warnings
	for k, v := range chunkRep.Extras {
		rep.Extras[k] = v
	}

	return rep, m, nil
}

// Validate parses data as an ArealMap chunk payload (arealCount taken from
// the owning NRes entry's attr1) and checks every link, area, and grid
// invariant the record stream carries. A structural error is returned only
// when the record stream itself can't be parsed.
func Validate(data []byte, arealCount int) (*report.Report, *Map, error) {
	m, err := Parse(data, arealCount)
	if err != nil {
		return nil, nil, err
	}

	rep := report.NewReport()

	var maxAbs, maxRel float64
	var overTolerance int
	minNormal, maxNormal := math.Inf(1), math.Inf(-1)

	for _, a := range m.Areals {
		nlen := normalLength(a.Normal)
		if nlen < minNormal {
			minNormal = nlen
		}
		if nlen > maxNormal {
			maxNormal = nlen
		}
		if math.Abs(nlen-1) > 1e-3 {
			rep.Warnf(catNormal, "terrain", arealTag(a.Index), "|normal|=%.6f deviates from 1", nlen)
		}

		if len(a.Vertices) >= 3 {
			shoelace := math.Abs(shoelaceAreaXY(a.Vertices)) * 0.5
			declared := float64(a.Area)
			absErr := math.Abs(shoelace - declared)
			denom := math.Max(1, shoelace)
			relErr := absErr / denom
			if absErr > maxAbs {
				maxAbs = absErr
			}
			if relErr > maxRel {
				maxRel = relErr
			}
			if relErr > areaTolerance {
				overTolerance++
				rep.Warnf(catArea, "terrain", arealTag(a.Index), "declared area=%.4f vs shoelace=%.4f (relative error %.2f%%)", declared, shoelace, relErr*100)
			}
		}

		validateLinks(rep, a, m)
	}

	rep.Extras["area_discrepancy"] = map[string]any{
		"max_abs":        maxAbs,
		"max_rel":        maxRel,
		"over_tolerance": overTolerance,
		"total":          len(m.Areals),
	}
	if len(m.Areals) > 0 {
		rep.Extras["normal_length"] = map[string]any{"min": minNormal, "max": maxNormal}
	}

	validateGrid(rep, m)

	return rep, m, nil
}

func arealTag(i int) string {
	return "areal[" + itoa(i) + "]"
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

func normalLength(n Vec3) float64 {
	x, y, z := float64(n.X), float64(n.Y), float64(n.Z)
	return math.Sqrt(x*x + y*y + z*z)
}

// shoelaceAreaXY computes twice the signed shoelace area of the vertex
// loop's XY projection; callers take
// abs(...)/2 to compare against the declared, always-positive area field.
func shoelaceAreaXY(vertices []Vec3) float64 {
	n := len(vertices)
	var sum float64
	for i := 0; i < n; i++ {
		j := (i + 1) % n
		xi, yi := float64(vertices[i].X), float64(vertices[i].Y)
		xj, yj := float64(vertices[j].X), float64(vertices[j].Y)
		sum += xi*yj - xj*yi
	}
	return sum
}

// validateLinks checks link-table invariants across both the
// edge-link and poly-link halves of a record's link table: a sentinel
// area_ref (-1) requires a sentinel edge_ref; a non-sentinel area_ref must
// index a real areal, whose vertex count bounds edge_ref (edge-link checks
// only — poly_links are validated for area_ref range, matching the
// reference tool, which does not bounds-check poly edge_ref against a
// target vertex count).
func validateLinks(rep *report.Report, a Areal, m *Map) {
	tag := arealTag(a.Index)
	for i, link := range a.EdgeLinks {
		if link.AreaRef == -1 {
			if link.EdgeRef != -1 {
				rep.Warnf(catLink, "terrain", tag, "edge_link[%d]: area_ref=-1 but edge_ref=%d (expected -1)", i, link.EdgeRef)
			}
			continue
		}
		if link.AreaRef < 0 || int(link.AreaRef) >= len(m.Areals) {
			rep.Errorf(catLink, "terrain", tag, "edge_link[%d]: area_ref=%d out of range [0,%d)", i, link.AreaRef, len(m.Areals))
			continue
		}
		target := m.Areals[link.AreaRef]
		if link.EdgeRef < 0 || int(link.EdgeRef) >= len(target.Vertices) {
			rep.Errorf(catLink, "terrain", tag, "edge_link[%d]: edge_ref=%d out of range for target areal %d (vertex_count=%d)", i, link.EdgeRef, link.AreaRef, len(target.Vertices))
		}
	}
	for i, link := range a.PolyLinks {
		if link.AreaRef == -1 {
			if link.EdgeRef != -1 {
				rep.Warnf(catLink, "terrain", tag, "poly_link[%d]: area_ref=-1 but edge_ref=%d (expected -1)", i, link.EdgeRef)
			}
			continue
		}
		if link.AreaRef < 0 || int(link.AreaRef) >= len(m.Areals) {
			rep.Errorf(catLink, "terrain", tag, "poly_link[%d]: area_ref=%d out of range [0,%d)", i, link.AreaRef, len(m.Areals))
		}
	}
}

// validateGrid checks the grid dimensions are non-degenerate and that every
// cell's area_id indexes a real areal record.
func validateGrid(rep *report.Report, m *Map) {
	if m.CellsX == 0 || m.CellsY == 0 {
		rep.Errorf(catGrid, "terrain", "", "cells_x=%d, cells_y=%d: grid has zero dimension", m.CellsX, m.CellsY)
	}

	arealCount := len(m.Areals)
	for ci, cell := range m.Cells {
		for _, id := range cell.AreaIDs {
			if int(id) >= arealCount {
				rep.Errorf(catGrid, "terrain", "", "cell[%d]: area_id=%d >= areal_count=%d", ci, id, arealCount)
			}
		}
	}
}
