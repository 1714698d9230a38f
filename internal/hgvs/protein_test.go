package hgvs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseProteinChange(t *testing.T) {
	tests := []struct {
		input string
		want  ProteinChange
	}{
		{"V600E", ProteinChange{Kind: ChangeMissense, StartAA: 'V', StartPos: 600, EndAA: 'V', EndPos: 600, AltAAs: "E"}},
		{"p.V600E", ProteinChange{Kind: ChangeMissense, StartAA: 'V', StartPos: 600, EndAA: 'V', EndPos: 600, AltAAs: "E"}},
		{"p.Val600Glu", ProteinChange{Kind: ChangeMissense, StartAA: 'V', StartPos: 600, EndAA: 'V', EndPos: 600, AltAAs: "E"}},
		{"R213*", ProteinChange{Kind: ChangeMissense, StartAA: 'R', StartPos: 213, EndAA: 'R', EndPos: 213, AltAAs: "*"}},
		{"p.Arg213Ter", ProteinChange{Kind: ChangeMissense, StartAA: 'R', StartPos: 213, EndAA: 'R', EndPos: 213, AltAAs: "*"}},
		{"E746_A750del", ProteinChange{Kind: ChangeDeletion, StartAA: 'E', StartPos: 746, EndAA: 'A', EndPos: 750}},
		{"L858del", ProteinChange{Kind: ChangeDeletion, StartAA: 'L', StartPos: 858, EndAA: 'L', EndPos: 858}},
		{"A767_V769dup", ProteinChange{Kind: ChangeDuplication, StartAA: 'A', StartPos: 767, EndAA: 'V', EndPos: 769}},
		{"D770_N771insG", ProteinChange{Kind: ChangeInsertion, StartAA: 'D', StartPos: 770, EndAA: 'N', EndPos: 771, AltAAs: "G"}},
		{"p.Asp770_Asn771insGlyTyr", ProteinChange{Kind: ChangeInsertion, StartAA: 'D', StartPos: 770, EndAA: 'N', EndPos: 771, AltAAs: "GY"}},
		{"L747fs", ProteinChange{Kind: ChangeFrameshift, StartAA: 'L', StartPos: 747, EndAA: 'L', EndPos: 747}},
		{"L747Sfs*3", ProteinChange{Kind: ChangeFrameshift, StartAA: 'L', StartPos: 747, EndAA: 'L', EndPos: 747, AltAAs: "S"}},
		{"p.Leu747SerfsTer3", ProteinChange{Kind: ChangeFrameshift, StartAA: 'L', StartPos: 747, EndAA: 'L', EndPos: 747, AltAAs: "S"}},
		{"T790delinsGY", ProteinChange{Kind: ChangeDelIns, StartAA: 'T', StartPos: 790, EndAA: 'T', EndPos: 790, AltAAs: "GY"}},
		{"E746_T751delinsA", ProteinChange{Kind: ChangeDelIns, StartAA: 'E', StartPos: 746, EndAA: 'T', EndPos: 751, AltAAs: "A"}},
		{"p.(G12C)", ProteinChange{Kind: ChangeMissense, StartAA: 'G', StartPos: 12, EndAA: 'G', EndPos: 12, AltAAs: "C"}},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseProteinChange(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseProteinChange_Unsupported(t *testing.T) {
	inputs := []string{
		"",
		"V600",
		"amplification",
		"EXON 19 DELETION",
		"V0E",
		"A750_E746del",
		"D770_N772insG",
		"V600Xyz",
		"T790delinsBJ",
		"c.1799T>A",
	}

	for _, input := range inputs {
		t.Run(input, func(t *testing.T) {
			_, err := ParseProteinChange(input)
			assert.ErrorIs(t, err, ErrUnsupportedNotation)
		})
	}
}

func TestProteinChange_String(t *testing.T) {
	for _, input := range []string{"V600E", "E746_A750del", "A767_V769dup", "D770_N771insG", "L747Sfs", "T790delinsGY"} {
		pc, err := ParseProteinChange(input)
		require.NoError(t, err)
		assert.Equal(t, input, pc.String())
	}
}

func TestKind_String(t *testing.T) {
	assert.Equal(t, "snv_mnv", SnvMnv{}.Kind().String())
	assert.Equal(t, "complex_insert_delete", ComplexInsertDelete{}.Kind().String())
	assert.Equal(t, "unknown", Kind(42).String())
	assert.Equal(t, "delins", ChangeDelIns.String())
}
