package codon

import (
	"testing"

	"github.com/inodb/vibe-serve/internal/genome"
	"github.com/stretchr/testify/assert"
)

func TestTranslate(t *testing.T) {
	tab := Standard()
	tests := []struct {
		name    string
		triplet string
		want    byte
	}{
		{"ATG -> Met (start)", "ATG", 'M'},
		{"GGT -> Gly", "GGT", 'G'},
		{"GTG -> Val", "GTG", 'V'},
		{"TAA -> Stop", "TAA", '*'},
		{"TGA -> Stop", "TGA", '*'},
		{"too short", "AT", 'X'},
		{"too long", "ATGG", 'X'},
		{"invalid bases", "XYZ", 'X'},
		{"empty", "", 'X'},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tab.Translate(tt.triplet))
		})
	}
}

func TestCodonsFor(t *testing.T) {
	tab := Standard()
	assert.Equal(t, []string{"GTA", "GTC", "GTG", "GTT"}, tab.CodonsFor('V'))
	assert.Equal(t, []string{"ATG"}, tab.CodonsFor('M'))
	assert.Len(t, tab.CodonsFor('L'), 6)
	assert.Empty(t, tab.CodonsFor('B'))
}

func TestSynonymousTriplets_Forward(t *testing.T) {
	tab := Standard()
	assert.Equal(t, []string{"GTC", "GTG", "GTT"}, tab.SynonymousTriplets("GTA", genome.Forward))
	assert.Empty(t, tab.SynonymousTriplets("ATG", genome.Forward))
	assert.Equal(t, []string{"TAG", "TGA"}, tab.SynonymousTriplets("TAA", genome.Forward))
}

func TestSynonymousTriplets_Reverse(t *testing.T) {
	tab := Standard()
	// TAC on the reverse strand reads GTA (Val) in coding orientation.
	got := tab.SynonymousTriplets("TAC", genome.Reverse)
	assert.Equal(t, []string{"AAC", "CAC", "GAC"}, got)
	for _, s := range got {
		assert.Equal(t, byte('V'), tab.Translate(genome.ReverseComplement(s)))
	}
}

func TestSynonymousTriplets_Malformed(t *testing.T) {
	tab := Standard()
	assert.Empty(t, tab.SynonymousTriplets("GT", genome.Forward))
	assert.Empty(t, tab.SynonymousTriplets("GTAA", genome.Forward))
	assert.Empty(t, tab.SynonymousTriplets("GTN", genome.Reverse))
	assert.Empty(t, tab.SynonymousTriplets("gta", genome.Forward))
}

func TestAminoAcidMaps(t *testing.T) {
	assert.Equal(t, "Val", SingleToThree['V'])
	assert.Equal(t, byte('E'), ThreeToSingle["Glu"])
	assert.Equal(t, byte('*'), ThreeToSingle["Ter"])
	assert.True(t, IsAminoAcid('*'))
	assert.False(t, IsAminoAcid('X'))
	assert.False(t, IsAminoAcid('B'))
}
