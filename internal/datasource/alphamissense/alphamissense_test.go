package alphamissense

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inodb/vibe-serve/internal/vcf"
)

// Two transcripts carry the KRAS C>A allele with the same score.
const testTSV = `# Copyright 2023 DeepMind Technologies Limited
#
# Licensed under CC BY 4.0
#CHROM	POS	REF	ALT	genome	uniprot_id	transcript_id	protein_variant	am_pathogenicity	am_class
chr1	69094	G	A	hg38	Q8NH21	ENST00000335137.4	V2M	0.0782	likely_benign
chr12	25245350	C	A	hg38	P01116	ENST00000256078.10	G12V	0.9876	likely_pathogenic
chr12	25245350	C	A	hg38	P01116	ENST00000311936.8	G12V	0.9876	likely_pathogenic
chr12	25245350	C	T	hg38	P01116	ENST00000256078.10	G12D	0.8234	likely_pathogenic
chr17	7674220	C	T	hg38	P04637	ENST00000269305.9	R248Q	0.6543	ambiguous
`

func loadedStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "AlphaMissense_hg38.tsv")
	require.NoError(t, os.WriteFile(path, []byte(testTSV), 0644))

	s, err := Open("")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	require.NoError(t, s.Load(path))
	return s
}

func TestLoad(t *testing.T) {
	s := loadedStore(t)

	n, err := s.Count()
	require.NoError(t, err)
	assert.Equal(t, int64(4), n, "per-transcript duplicates collapse")
}

func TestLoad_Replaces(t *testing.T) {
	path := filepath.Join(t.TempDir(), "am.tsv")
	require.NoError(t, os.WriteFile(path, []byte(testTSV), 0644))

	s, err := Open(filepath.Join(t.TempDir(), "scores", "am.duckdb"))
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.Load(path))
	require.NoError(t, s.Load(path))
	n, err := s.Count()
	require.NoError(t, err)
	assert.Equal(t, int64(4), n)
}

func TestLookup(t *testing.T) {
	s := loadedStore(t)

	tests := []struct {
		name     string
		chrom    string
		pos      int64
		ref, alt string
		want     Result
		found    bool
	}{
		{name: "prefixed chrom", chrom: "chr12", pos: 25245350, ref: "C", alt: "A", want: Result{Score: 0.9876, Class: ClassLikelyPathogenic}, found: true},
		{name: "bare chrom", chrom: "12", pos: 25245350, ref: "C", alt: "T", want: Result{Score: 0.8234, Class: ClassLikelyPathogenic}, found: true},
		{name: "ambiguous", chrom: "17", pos: 7674220, ref: "C", alt: "T", want: Result{Score: 0.6543, Class: ClassAmbiguous}, found: true},
		{name: "other allele", chrom: "12", pos: 25245350, ref: "C", alt: "G"},
		{name: "unknown position", chrom: "12", pos: 99999999, ref: "A", alt: "T"},
		{name: "not an SNV", chrom: "12", pos: 25245350, ref: "CC", alt: "AA"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok, err := s.Lookup(tt.chrom, tt.pos, tt.ref, tt.alt)
			require.NoError(t, err)
			assert.Equal(t, tt.found, ok)
			assert.InDelta(t, tt.want.Score, got.Score, 0.0001)
			assert.Equal(t, tt.want.Class, got.Class)
		})
	}
}

func TestLookup_Empty(t *testing.T) {
	s, err := Open("")
	require.NoError(t, err)
	defer s.Close()

	_, ok, err := s.Lookup("1", 69094, "G", "A")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestScoreAllele(t *testing.T) {
	s := loadedStore(t)

	score, class, err := s.ScoreAllele(&vcf.Variant{Chrom: "chr1", Pos: 69094, Ref: "G", Alt: "A"})
	require.NoError(t, err)
	assert.InDelta(t, 0.0782, score, 0.0001)
	assert.Equal(t, ClassLikelyBenign, class)

	_, class, err = s.ScoreAllele(&vcf.Variant{Chrom: "1", Pos: 69094, Ref: "G", Alt: "GA"})
	require.NoError(t, err)
	assert.Empty(t, class)
}
