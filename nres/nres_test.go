package nres

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/relicfmt/relicfmt/manifest"
)

// buildFixture constructs the literal 2-entry archive used throughout this
// suite: entry0 "b.bin" -> [0xAA], entry1 "a.bin" -> [0xBB, 0xCC]. Expected
// layout: data_offset[0]=16, data_offset[1]=24, directory_offset=32,
// total_size=160, sort_index=[1,0] (b ranks after a case-insensitively).
func buildFixture(t *testing.T) []byte {
	t.Helper()
	m := &manifest.NRes{
		Entries: []manifest.NResEntry{
			{Index: 0, TypeID: 1, Name: "b.bin"},
			{Index: 1, TypeID: 1, Name: "a.bin"},
		},
	}
	payloads := map[int][]byte{0: {0xAA}, 1: {0xBB, 0xCC}}
	out, err := Pack(m, func(e manifest.NResEntry) ([]byte, error) {
		return payloads[e.Index], nil
	})
	require.NoError(t, err)
	return out
}

func TestPack_MatchesLiteralFixtureLayout(t *testing.T) {
	out := buildFixture(t)
	require.Len(t, out, 160)

	p, err := Parse(out)
	require.NoError(t, err)
	require.Empty(t, p.Issues)

	require.EqualValues(t, 32, p.Header.DirectoryOffset)
	require.EqualValues(t, 160, p.Header.TotalSize)
	require.Len(t, p.Entries, 2)

	require.EqualValues(t, 16, p.Entries[0].DataOffset)
	require.EqualValues(t, 24, p.Entries[1].DataOffset)
	require.EqualValues(t, 1, p.Entries[0].SortIndex)
	require.EqualValues(t, 0, p.Entries[1].SortIndex)
}

func TestParse_RejectsBadMagic(t *testing.T) {
	data := buildFixture(t)
	corrupt := append([]byte(nil), data...)
	corrupt[0] = 'X'
	_, err := Parse(corrupt)
	require.Error(t, err)
}

func TestParse_RejectsTruncatedHeader(t *testing.T) {
	_, err := Parse([]byte{'N', 'R', 'e'})
	require.Error(t, err)
}

func TestUnpack_RecoversPayloadsAndManifest(t *testing.T) {
	data := buildFixture(t)
	p, err := Parse(data)
	require.NoError(t, err)

	m, payloads, err := Unpack(p, "archive.nres", "deadbeef")
	require.NoError(t, err)
	require.Empty(t, m.Issues)
	require.Equal(t, "NRes", m.Format)
	require.Len(t, payloads, 2)
	require.Equal(t, "b.bin", payloads[0].Name)
	require.Equal(t, []byte{0xAA}, payloads[0].Data)
	require.Equal(t, "a.bin", payloads[1].Name)
	require.Equal(t, []byte{0xBB, 0xCC}, payloads[1].Data)
	require.NotEmpty(t, m.Entries[0].SHA256)
}

func TestPackThenParse_RoundTripsByteExact(t *testing.T) {
	data := buildFixture(t)
	p, err := Parse(data)
	require.NoError(t, err)
	m, payloads, err := Unpack(p, "", "")
	require.NoError(t, err)

	byIndex := map[int][]byte{}
	for _, pl := range payloads {
		byIndex[pl.Index] = pl.Data
	}
	repacked, err := Pack(m, func(e manifest.NResEntry) ([]byte, error) {
		return byIndex[e.Index], nil
	})
	require.NoError(t, err)
	require.Equal(t, data, repacked)
}

func TestParse_FlagsNonCanonicalSortIndex(t *testing.T) {
	data := buildFixture(t)
	corrupt := append([]byte(nil), data...)
	// directory starts at 32; entry0's sort_index field is the last 4 bytes
	// of its 64-byte row.
	corrupt[32+60] = 0xFF
	p, err := Parse(corrupt)
	require.NoError(t, err)
	require.NotEmpty(t, p.Issues)
}

func TestParse_WithFailOnIssuesRejectsDeviations(t *testing.T) {
	data := buildFixture(t)
	corrupt := append([]byte(nil), data...)
	corrupt[32+60] = 0xFF

	_, err := Parse(corrupt, WithFailOnIssues())
	require.Error(t, err)

	_, err = Parse(data, WithFailOnIssues())
	require.NoError(t, err)
}
