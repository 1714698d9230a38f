package vcf

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVariant_Shape(t *testing.T) {
	tests := []struct {
		name      string
		ref       string
		alt       string
		snv       bool
		indel     bool
		insertion bool
		deletion  bool
	}{
		{"SNV", "G", "C", true, false, false, false},
		{"MNV", "AT", "GC", false, false, false, false},
		{"deletion", "ATG", "A", false, true, false, true},
		{"insertion", "A", "AT", false, true, true, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := &Variant{Ref: tt.ref, Alt: tt.alt}
			assert.Equal(t, tt.snv, v.IsSNV())
			assert.Equal(t, tt.indel, v.IsIndel())
			assert.Equal(t, tt.insertion, v.IsInsertion())
			assert.Equal(t, tt.deletion, v.IsDeletion())
		})
	}
}

func TestVariant_IsValid(t *testing.T) {
	assert.True(t, (&Variant{Pos: 1, Ref: "A", Alt: "C"}).IsValid())
	assert.False(t, (&Variant{Pos: 0, Ref: "A", Alt: "C"}).IsValid())
	assert.False(t, (&Variant{Pos: 1, Ref: "", Alt: "C"}).IsValid())
	assert.False(t, (&Variant{Pos: 1, Ref: "A", Alt: ""}).IsValid())
}

func TestVariant_Key(t *testing.T) {
	a := &Variant{Chrom: "chr12", Pos: 25245351, Ref: "C", Alt: "A"}
	b := &Variant{Chrom: "12", Pos: 25245351, Ref: "C", Alt: "A"}
	assert.Equal(t, "12:25245351:C:A", a.Key())
	assert.Equal(t, a.Key(), b.Key())
	assert.Equal(t, "chr12:25245351 C>A", a.String())
}

func TestVariant_NormalizeChrom(t *testing.T) {
	assert.Equal(t, "12", (&Variant{Chrom: "chr12"}).NormalizeChrom())
	assert.Equal(t, "X", (&Variant{Chrom: "X"}).NormalizeChrom())
}

func TestVariant_Trim(t *testing.T) {
	tests := []struct {
		name          string
		pos           int64
		ref, alt      string
		wantPos       int64
		wantRef, want string
	}{
		{"minimal snv", 10, "A", "C", 10, "A", "C"},
		{"padded insertion", 10, "ACT", "ACTT", 11, "C", "CT"},
		{"padded mnv", 10, "ACGT", "AGCT", 11, "CG", "GC"},
		{"anchored deletion", 10, "ATT", "A", 10, "ATT", "A"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := &Variant{Chrom: "1", Pos: tt.pos, Ref: tt.ref, Alt: tt.alt}
			got := v.Trim()
			assert.Equal(t, tt.wantPos, got.Pos)
			assert.Equal(t, tt.wantRef, got.Ref)
			assert.Equal(t, tt.want, got.Alt)
			assert.Equal(t, tt.pos, v.Pos, "receiver unchanged")
		})
	}
}

func TestVariant_Class(t *testing.T) {
	tests := []struct {
		ref, alt string
		want     string
	}{
		{"G", "C", ClassSNV},
		{"GG", "TT", ClassMNV},
		{"ACGT", "ACCT", ClassSNV},
		{"ATG", "A", ClassDel},
		{"A", "AT", ClassIns},
		{"ACT", "ACTT", ClassIns},
		{"AGTT", "C", ClassDelIns},
		{"GGAATTAAGAGAAGC", "-", ClassDel},
		{"-", "GCATACGTGATG", ClassIns},
	}
	for _, tt := range tests {
		t.Run(tt.ref+">"+tt.alt, func(t *testing.T) {
			assert.Equal(t, tt.want, (&Variant{Pos: 1, Ref: tt.ref, Alt: tt.alt}).Class())
		})
	}
}
