package maf

import (
	"compress/gzip"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inodb/vibe-serve/internal/genome"
	"github.com/inodb/vibe-serve/internal/vcf"
)

const sampleMAF = "#version 2.4\n" +
	"Hugo_Symbol\tEntrez_Gene_Id\tChromosome\tStart_Position\tEnd_Position\tReference_Allele\tTumor_Seq_Allele1\tTumor_Seq_Allele2\tTumor_Sample_Barcode\tHGVSp_Short\n" +
	"KRAS\t3845\t12\t25245350\t25245350\tC\tC\tA\tS1\tp.G12V\n" +
	"BRAF\t673\t7\t140753336\t140753336\tA\tA\tT\tS2\tp.V600E\n" +
	"EGFR\t1956\t7\t55174772\t55174786\tGGAATTAAGAGAAGC\tGGAATTAAGAGAAGC\t-\tS3\tp.E746_A750del\n" +
	"ERBB2\t2064\t17\t39724759\t39724760\t-\t-\tGCATACGTGATG\tS4\tp.A775_G776insYVMA\n"

func newTestParser(t *testing.T, content string) *Parser {
	t.Helper()
	p, err := NewParserFromReader(strings.NewReader(content))
	require.NoError(t, err)
	return p
}

func readAll(t *testing.T, p *Parser) []*vcf.Variant {
	t.Helper()
	var out []*vcf.Variant
	for {
		v, err := p.Next()
		require.NoError(t, err)
		if v == nil {
			return out
		}
		out = append(out, v)
	}
}

func TestParser_ParseVariants(t *testing.T) {
	p := newTestParser(t, sampleMAF)

	cols := p.Columns()
	assert.Equal(t, 2, cols.Chromosome)
	assert.Equal(t, 3, cols.StartPosition)
	assert.Equal(t, 5, cols.ReferenceAllele)
	assert.Equal(t, 7, cols.TumorSeqAllele2)
	assert.Equal(t, 0, cols.HugoSymbol)
	assert.Equal(t, 9, cols.HGVSpShort)

	vs := readAll(t, p)
	require.Len(t, vs, 4)

	assert.Equal(t, "12", vs[0].Chrom)
	assert.Equal(t, int64(25245350), vs[0].Pos)
	assert.Equal(t, "C", vs[0].Ref)
	assert.Equal(t, "A", vs[0].Alt)
	assert.Equal(t, "KRAS", vs[0].Info[InfoGene])
	assert.Equal(t, "p.G12V", vs[0].Info[InfoHGVSp])
	assert.Equal(t, "S1", vs[0].Info[InfoSample])

	// Without a reference indels keep their MAF alleles.
	assert.Equal(t, int64(55174772), vs[2].Pos)
	assert.Equal(t, "-", vs[2].Alt)
	assert.Equal(t, "-", vs[3].Ref)
	assert.Equal(t, 6, p.LineNumber())
}

func TestParser_AnchorsIndels(t *testing.T) {
	ref := genome.NewSequences()
	// chrT: positions 1-10 = ACGTACGTAC
	ref.Add("T", "ACGTACGTAC")

	content := "Chromosome\tStart_Position\tReference_Allele\tTumor_Seq_Allele2\n" +
		"T\t4\tTAC\t-\n" +
		"T\t6\t-\tGG\n" +
		"T\t2\tC\tG\n"

	p := newTestParser(t, content)
	p.SetReference(ref)
	vs := readAll(t, p)
	require.Len(t, vs, 3)

	tests := []struct {
		pos      int64
		ref, alt string
	}{
		{3, "GTAC", "G"},
		{6, "C", "CGG"},
		{2, "C", "G"},
	}
	for i, tt := range tests {
		assert.Equal(t, tt.pos, vs[i].Pos, "variant %d", i)
		assert.Equal(t, tt.ref, vs[i].Ref, "variant %d", i)
		assert.Equal(t, tt.alt, vs[i].Alt, "variant %d", i)
	}
}

func TestParser_AnchorOutOfRange(t *testing.T) {
	ref := genome.NewSequences()
	ref.Add("T", "ACGT")

	p := newTestParser(t, "Chromosome\tStart_Position\tReference_Allele\tTumor_Seq_Allele2\nT\t1\tA\t-\n")
	p.SetReference(ref)
	_, err := p.Next()
	var pe *ParseError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, 2, pe.Line)
}

func TestParser_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"missing column", "Chromosome\tStart_Position\tReference_Allele\n", "Tumor_Seq_Allele2"},
		{"no header", "#comment only\n", "no header line"},
		{"bad position", "Chromosome\tStart_Position\tReference_Allele\tTumor_Seq_Allele2\n1\tabc\tA\tT\n", "invalid position"},
		{"short row", "Chromosome\tStart_Position\tReference_Allele\tTumor_Seq_Allele2\n1\t5\n", "expected at least 4 columns"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := NewParserFromReader(strings.NewReader(tt.content))
			if err == nil {
				_, err = p.Next()
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestParser_Gzip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sample.maf.gz")
	f, err := os.Create(path)
	require.NoError(t, err)
	zw := gzip.NewWriter(f)
	_, err = zw.Write([]byte(sampleMAF))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())

	p, err := NewParser(path)
	require.NoError(t, err)
	defer p.Close()
	assert.Equal(t, 0, p.Columns().HugoSymbol)
	assert.Len(t, readAll(t, p), 4)
}

func TestParseError(t *testing.T) {
	err := &ParseError{Line: 42, Message: "test error"}
	assert.Equal(t, "maf parse error at line 42: test error", err.Error())
}

func TestParser_ImplementsVariantParser(t *testing.T) {
	var _ vcf.VariantParser = (*Parser)(nil)
}
