package rsli

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/relicfmt/relicfmt/codec"
	"github.com/relicfmt/relicfmt/format"
	"github.com/relicfmt/relicfmt/manifest"
)

// buildFixture constructs a minimal 2-entry RsLi archive: one identity-method
// entry and one XOR-method entry, sealed with the documented "AO" overlay
// trailer (bytes 41 4F 10 00 00 00).
func buildFixture(t *testing.T) []byte {
	t.Helper()
	const seed = uint32(0xBEEF)
	const overlay = uint32(0x10)

	plainA := []byte("identity-entry-payload!!")
	plainB := []byte("xor-entry-payload-bytes!")
	sortKeyB := int16(1)
	packedB := codec.XOR(plainB, uint16(sortKeyB))

	dataStart := format.RsLiHeaderSize + 2*format.RsLiDirectoryEntry

	m := &manifest.RsLi{
		Header: manifest.RsLiHeader{EntryCount: 2, Seed: seed, PresortedFlag: 0xABBA},
		Trailer: manifest.RsLiTrailer{
			Present: true, OverlayOffset: overlay,
		},
		Entries: []manifest.RsLiEntry{
			{
				Index: 0, Name: "a.dat", Method: "identity", SortToOriginal: 0,
				UnpackedSize: uint32(len(plainA)), DataOffset: uint32(dataStart), PackedSize: uint32(len(plainA)),
			},
			{
				Index: 1, Name: "b.dat", Method: "xor", FlagsSigned: int16(format.RsLiMethodXOR),
				SortToOriginal: sortKeyB, UnpackedSize: uint32(len(plainB)),
				DataOffset: uint32(dataStart + len(plainA)), PackedSize: uint32(len(packedB)),
			},
		},
	}
	m.SourceSize = dataStart + int(overlay) + len(plainA) + len(packedB) + format.RsLiTrailerSize

	payloads := map[int][]byte{0: plainA, 1: packedB}
	out, err := Pack(m, func(e manifest.RsLiEntry) ([]byte, error) {
		return payloads[e.Index], nil
	})
	require.NoError(t, err)
	return out
}

func TestParse_DetectsTrailerAndDecryptsDirectory(t *testing.T) {
	data := buildFixture(t)
	require.Equal(t, []byte{'A', 'O', 0x10, 0, 0, 0}, data[len(data)-6:])

	p, err := Parse(data)
	require.NoError(t, err)
	require.True(t, p.Trailer.Present)
	require.EqualValues(t, 0x10, p.Trailer.OverlayOffset)
	require.Len(t, p.Entries, 2)
	require.Equal(t, "a.dat", p.Entries[0].Name)
	require.Equal(t, "b.dat", p.Entries[1].Name)
	require.Equal(t, format.RsLiMethodIdentity, p.Entries[0].Method)
	require.Equal(t, format.RsLiMethodXOR, p.Entries[1].Method)
	require.Equal(t, p.Entries[0].DataOffset+p.Trailer.OverlayOffset, p.Entries[0].EffectiveDataOffset)
}

func TestParse_RejectsBadMagic(t *testing.T) {
	data := buildFixture(t)
	corrupt := append([]byte(nil), data...)
	corrupt[0] = 'X'
	_, err := Parse(corrupt)
	require.Error(t, err)
}

func TestUnpack_DecodesEveryMethodAndPreservesPackedBlob(t *testing.T) {
	data := buildFixture(t)
	p, err := Parse(data)
	require.NoError(t, err)

	m, payloads, err := Unpack(p, "", "")
	require.NoError(t, err)
	require.Empty(t, m.Entries[0].UnpackError)
	require.Empty(t, m.Entries[1].UnpackError)
	require.Equal(t, "identity-entry-payload!!", string(payloads[0].Unpacked))
	require.Equal(t, "xor-entry-payload-bytes!", string(payloads[1].Unpacked))
}

func TestPackThenParse_RoundTripsByteExact(t *testing.T) {
	data := buildFixture(t)
	p, err := Parse(data)
	require.NoError(t, err)
	m, payloads, err := Unpack(p, "", "")
	require.NoError(t, err)

	byIndex := map[int][]byte{}
	for _, pl := range payloads {
		byIndex[pl.Index] = pl.Packed
	}
	repacked, err := Pack(m, func(e manifest.RsLiEntry) ([]byte, error) {
		return byIndex[e.Index], nil
	})
	require.NoError(t, err)
	require.Equal(t, data, repacked)
}

func TestParse_FlagsBrokenPresortedPermutation(t *testing.T) {
	data := buildFixture(t)
	p, err := Parse(data)
	require.NoError(t, err)
	require.Empty(t, p.Issues)

	// Break the permutation by duplicating sort_to_original across entries
	// (re-encrypt directory row 1's sort_to_original field at offset 18). The
	// directory is one XOR stream, so it is decrypted and re-encrypted whole.
	corrupt := append([]byte(nil), data...)
	dirStart := format.RsLiHeaderSize
	dirEnd := dirStart + 2*format.RsLiDirectoryEntry
	dir := codec.XOR(corrupt[dirStart:dirEnd], uint16(p.Header.Seed))
	row1 := format.RsLiDirectoryEntry
	dir[row1+18], dir[row1+19] = 0, 0 // sort_to_original = 0, colliding with entry 0
	reencrypted := codec.XOR(dir, uint16(p.Header.Seed))
	copy(corrupt[dirStart:dirEnd], reencrypted)

	p2, err := Parse(corrupt)
	require.NoError(t, err)
	require.NotEmpty(t, p2.Issues)
}

func TestParse_WithFailOnIssuesRejectsBrokenPermutation(t *testing.T) {
	data := buildFixture(t)
	p, err := Parse(data)
	require.NoError(t, err)

	corrupt := append([]byte(nil), data...)
	dirStart := format.RsLiHeaderSize
	dirEnd := dirStart + 2*format.RsLiDirectoryEntry
	dir := codec.XOR(corrupt[dirStart:dirEnd], uint16(p.Header.Seed))
	row1 := format.RsLiDirectoryEntry
	dir[row1+18], dir[row1+19] = 0, 0
	reencrypted := codec.XOR(dir, uint16(p.Header.Seed))
	copy(corrupt[dirStart:dirEnd], reencrypted)

	_, err = Parse(corrupt, WithFailOnIssues())
	require.Error(t, err)

	_, err = Parse(data, WithFailOnIssues())
	require.NoError(t, err)
}
