package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/inodb/vibe-serve/internal/cache"
)

func TestParseConfigValue(t *testing.T) {
	tests := []struct {
		in   string
		want any
	}{
		{"true", true},
		{"off", false},
		{"20", 20},
		{"GRCh37", "GRCh37"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, parseConfigValue(tt.in), tt.in)
	}
}

func TestGetGENCODEURLs(t *testing.T) {
	gtf, fasta := getGENCODEURLs("GRCh38")
	assert.Equal(t, "gencode.v46.basic.annotation.gtf.gz", filepath.Base(gtf))
	assert.Equal(t, "GRCh38.primary_assembly.genome.fa.gz", filepath.Base(fasta))

	gtf, fasta = getGENCODEURLs("grch37")
	assert.Contains(t, gtf, "GRCh37_mapping/gencode.v46lift37.basic.annotation.gtf.gz")
	assert.Equal(t, "GRCh37.primary_assembly.genome.fa.gz", filepath.Base(fasta))
}

func TestFindDataFiles(t *testing.T) {
	base := t.TempDir()
	viper.Set("data_dir", base)
	viper.Set("assembly", "GRCh38")
	t.Cleanup(viper.Reset)

	_, err := findDataFiles("GRCh38")
	require.Error(t, err)

	dir := filepath.Join(base, "grch38")
	require.NoError(t, os.MkdirAll(dir, 0755))
	for _, name := range []string{
		"gencode.v46.basic.annotation.gtf.gz",
		"GRCh38.primary_assembly.genome.fa.gz",
		cache.CanonicalFileName,
	} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), nil, 0644))
	}

	files, err := findDataFiles("GRCh38")
	require.NoError(t, err)
	assert.Equal(t, dir, files.Dir)
	assert.Equal(t, filepath.Join(dir, "gencode.v46.basic.annotation.gtf.gz"), files.GTF)
	assert.Equal(t, filepath.Join(dir, "GRCh38.primary_assembly.genome.fa.gz"), files.FASTA)
	assert.Equal(t, filepath.Join(dir, cache.CanonicalFileName), files.Canonical)
}

func TestFormatSize(t *testing.T) {
	assert.Equal(t, "512 B", formatSize(512))
	assert.Equal(t, "1.5 KB", formatSize(1536))
	assert.Equal(t, "2.0 MB", formatSize(2*1024*1024))
}

func TestRootCmd_Subcommands(t *testing.T) {
	root := newRootCmd()
	var names []string
	for _, c := range root.Commands() {
		names = append(names, c.Name())
	}
	for _, want := range []string{"config", "download", "codons", "exons", "hotspots", "extract", "match"} {
		assert.Contains(t, names, want)
	}
}

func TestDetectInputFormat(t *testing.T) {
	dir := t.TempDir()
	mafTxt := filepath.Join(dir, "calls.txt")
	require.NoError(t, os.WriteFile(mafTxt, []byte("Hugo_Symbol\tChromosome\tStart_Position\n"), 0o644))
	vcfTxt := filepath.Join(dir, "other.txt")
	require.NoError(t, os.WriteFile(vcfTxt, []byte("##fileformat=VCFv4.2\n"), 0o644))

	tests := []struct {
		path string
		want string
	}{
		{"calls.vcf", "vcf"},
		{"calls.VCF.gz", "vcf"},
		{"calls.maf.gz", "maf"},
		{"study/data_mutations.txt", "maf"},
		{"-", "vcf"},
		{mafTxt, "maf"},
		{vcfTxt, "vcf"},
		{filepath.Join(dir, "missing.txt"), "vcf"},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, detectInputFormat(tt.path))
		})
	}
}

func TestScoreDBPath(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"AlphaMissense_hg38.tsv.gz", "AlphaMissense_hg38.duckdb"},
		{"data/am.tsv", "data/am.duckdb"},
		{"data/am.duckdb", "data/am.duckdb"},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, scoreDBPath(tt.path))
		})
	}
}

func TestOpenScores(t *testing.T) {
	const tsv = `# Copyright 2023 DeepMind Technologies Limited
#
# Licensed under CC BY 4.0
#CHROM	POS	REF	ALT	genome	uniprot_id	transcript_id	protein_variant	am_pathogenicity	am_class
chr12	25245350	C	A	hg38	P01116	ENST00000256078.10	G12V	0.9876	likely_pathogenic
`
	dir := t.TempDir()
	tsvPath := filepath.Join(dir, "am.tsv")
	require.NoError(t, os.WriteFile(tsvPath, []byte(tsv), 0o644))

	am, err := openScores(tsvPath, zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, am.Close())
	require.FileExists(t, filepath.Join(dir, "am.duckdb"))

	// The database is reused without the TSV.
	require.NoError(t, os.Remove(tsvPath))
	am, err = openScores(filepath.Join(dir, "am.duckdb"), zap.NewNop())
	require.NoError(t, err)
	defer am.Close()
	r, ok, err := am.Lookup("12", 25245350, "C", "A")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "likely_pathogenic", r.Class)

	_, err = openScores(filepath.Join(dir, "empty.duckdb"), zap.NewNop())
	assert.ErrorContains(t, err, "no AlphaMissense scores")
}
