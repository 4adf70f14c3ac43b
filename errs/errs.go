// Package errs defines the structural errors returned by relicfmt's parsers and
// decoders: conditions that abort the current container or payload.
//
// Deviations from the expected layout (misalignment, bad padding, sort-index
// drift, ...) are never errors — they accumulate in a report.Report or a
// manifest's Issues slice instead. Only conditions that make further parsing
// meaningless belong here.
package errs

import "fmt"

// Truncated reports a bounds-checked read that ran past the end of the input.
type Truncated struct {
	Where string // e.g. "nres.header", "rsli.directory[3]"
	Need  int    // bytes required
	Have  int    // bytes available
}

func (e *Truncated) Error() string {
	return fmt.Sprintf("%s: truncated: need %d bytes, have %d", e.Where, e.Need, e.Have)
}

// BadMagic reports a signature mismatch at a fixed offset.
type BadMagic struct {
	Where string
	Want  []byte
	Got   []byte
}

func (e *BadMagic) Error() string {
	return fmt.Sprintf("%s: bad magic: want % x, got % x", e.Where, e.Want, e.Got)
}

// BadDirectory reports a directory/header field that makes the container
// structurally unparseable (as opposed to merely non-canonical).
type BadDirectory struct {
	Where  string
	Detail string
}

func (e *BadDirectory) Error() string {
	return fmt.Sprintf("%s: invalid directory: %s", e.Where, e.Detail)
}

// SizeMismatch reports a decoder that produced a different number of bytes than
// the directory declared.
type SizeMismatch struct {
	Where    string
	Expected int
	Got      int
}

func (e *SizeMismatch) Error() string {
	return fmt.Sprintf("%s: size mismatch: expected %d bytes, got %d", e.Where, e.Expected, e.Got)
}

// UnsupportedMethod reports an RsLi method code with no known decoder.
type UnsupportedMethod struct {
	Method uint16
}

func (e *UnsupportedMethod) Error() string {
	return fmt.Sprintf("rsli: unsupported method 0x%03X", e.Method)
}

// UnknownOpcode reports an FXID command opcode absent from the size table.
type UnknownOpcode struct {
	Opcode int
	Offset int
}

func (e *UnknownOpcode) Error() string {
	return fmt.Sprintf("fxid: unknown opcode %d at offset 0x%X", e.Opcode, e.Offset)
}

// UnsupportedFormat reports a Texm pixel format outside the known set.
type UnsupportedFormat struct {
	Format uint32
}

func (e *UnsupportedFormat) Error() string {
	return fmt.Sprintf("texm: unsupported format %d", e.Format)
}

// OverlongWrite reports a packer attempt to write past its allocated output
// buffer (e.g. an RsLi entry whose declared data_offset+packed_size runs past
// the end of the archive body).
type OverlongWrite struct {
	Where  string
	Offset int
	Length int
	Cap    int
}

func (e *OverlongWrite) Error() string {
	return fmt.Sprintf("%s: write [%d, %d) exceeds output buffer of length %d", e.Where, e.Offset, e.Offset+e.Length, e.Cap)
}

// WriteConflict reports two packer writes at overlapping offsets with differing bytes.
type WriteConflict struct {
	Where  string
	Offset int
}

func (e *WriteConflict) Error() string {
	return fmt.Sprintf("%s: conflicting write at offset %d: overlapping bytes differ", e.Where, e.Offset)
}

// LimitExceeded reports a declared unpacked_size past a caller-imposed bound,
// letting callers cap accepted unpacked_size to avoid adversarial allocation.
type LimitExceeded struct {
	Where string
	Limit int
	Got   int
}

func (e *LimitExceeded) Error() string {
	return fmt.Sprintf("%s: declared size %d exceeds limit %d", e.Where, e.Got, e.Limit)
}

// Sentinel errors for conditions that carry no further structured detail.
var (
	ErrEmptyManifest  = fmt.Errorf("manifest: no entries")
	ErrMissingPayload = fmt.Errorf("manifest: missing payload for entry")
	ErrNotNRes        = fmt.Errorf("relicfmt: not an NRes archive")
	ErrNotRsLi        = fmt.Errorf("relicfmt: not an RsLi archive")
)
