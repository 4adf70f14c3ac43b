// Package fxid validates the FXID effect command stream and hosts the
// deterministic RNG reference generator used by the original tooling's
// audit harness.
package fxid

import (
	"github.com/relicfmt/relicfmt/bin"
	"github.com/relicfmt/relicfmt/errs"
	"github.com/relicfmt/relicfmt/format"
	"github.com/relicfmt/relicfmt/report"
)

const opcode1 = 1

// maxSamples caps how many opcode-1 instrumentation samples are retained in
// a report's extras, mirroring the original audit tool's capped sample list.
const maxSamples = 32

// opcode1Sample records one opcode-1 command's tail6/optref presence, as
// sampled by the original tool's abs100 audit.
type opcode1Sample struct {
	Index          int    `json:"index"`
	Offset         int    `json:"offset"`
	Tail6Present   bool   `json:"tail6_present"`
	OptRefNonEmpty bool   `json:"optref_non_empty"`
	ArchiveRef     string `json:"archive_ref,omitempty"`
	NameRef        string `json:"name_ref,omitempty"`
}

// Validate walks the FXID command stream starting at offset 0x3C, validating
// that every command's declared opcode has a known size and that the stream
// is consumed exactly. An unknown opcode or a truncated
// command is a structural error; a mismatched total length at the end of the
// declared cmd_count commands becomes a report issue.
func Validate(data []byte) (*report.Report, error) {
	if len(data) < format.FXIDHeaderEnd {
		return nil, &errs.Truncated{Where: "fxid.header", Need: format.FXIDHeaderEnd, Have: len(data)}
	}
	r := bin.NewReader(data, "fxid")
	cmdCount, err := r.U32()
	if err != nil {
		return nil, err
	}

	rep := report.NewReport()
	histogram := map[int]int{}
	var samples []opcode1Sample

	offset := format.FXIDHeaderEnd
	for i := 0; i < int(cmdCount); i++ {
		if offset+4 > len(data) {
			return nil, &errs.Truncated{Where: "fxid.command", Need: offset + 4, Have: len(data)}
		}
		word := bin.NewReader(data[offset:], "fxid.opcode")
		first, _ := word.U32()
		opcode := int(first & 0xFF)

		size, known := format.FXIDCommandSize[opcode]
		if !known {
			return nil, &errs.UnknownOpcode{Opcode: opcode, Offset: offset}
		}
		if offset+size > len(data) {
			return nil, &errs.Truncated{Where: "fxid.command", Need: offset + size, Have: len(data)}
		}

		histogram[opcode]++
		if opcode == opcode1 {
			samples = appendOpcode1Sample(samples, i, offset, data[offset:offset+size])
		}

		offset += size
	}

	rep.Extras["opcode_histogram"] = histogram
	if samples != nil {
		rep.Extras["opcode1_samples"] = samples
	}

	if offset != len(data) {
		rep.Errorf("structure", "fxid", "", "parsed_end=0x%X != payload length 0x%X", offset, len(data))
	}

	return rep, nil
}

func appendOpcode1Sample(samples []opcode1Sample, index, offset int, cmd []byte) []opcode1Sample {
	if len(samples) >= maxSamples {
		return samples
	}
	tail6 := cmd[format.FXIDOpcode1Tail6 : format.FXIDOpcode1Tail6+format.FXIDTail6Size]
	ref1 := cmd[format.FXIDOpcode1Ref1 : format.FXIDOpcode1Ref1+format.FXIDRefFieldSize]
	ref2 := cmd[format.FXIDOpcode1Ref2 : format.FXIDOpcode1Ref2+format.FXIDRefFieldSize]

	name1, _, _ := bin.NewReader(ref1, "fxid.ref1").CString(format.FXIDRefFieldSize)
	name2, _, _ := bin.NewReader(ref2, "fxid.ref2").CString(format.FXIDRefFieldSize)

	return append(samples, opcode1Sample{
		Index: index, Offset: offset,
		Tail6Present:   !allZero(tail6),
		OptRefNonEmpty: name1 != "" || name2 != "",
		ArchiveRef:     name1, NameRef: name2,
	})
}

func allZero(b []byte) bool {
	for _, v := range b {
		if v != 0 {
			return false
		}
	}
	return true
}
