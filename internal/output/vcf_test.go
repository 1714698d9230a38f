package output

import (
	"bytes"
	"slices"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inodb/vibe-serve/internal/extract"
	"github.com/inodb/vibe-serve/internal/vcf"
)

func records(s string) []string {
	var out []string
	for _, l := range lines(s) {
		if !strings.HasPrefix(l, "#") {
			out = append(out, l)
		}
	}
	return out
}

func TestHotspotVCFWriter_SortAndMerge(t *testing.T) {
	var buf bytes.Buffer
	w := NewHotspotVCFWriter(&buf, "GRCh38")

	require.NoError(t, w.Write(extract.Result{Hotspots: []extract.Hotspot{
		{Chrom: "X", Pos: 100, Ref: "G", Alt: "A", Gene: "AR", Event: "T878A", Source: "oncokb"},
		{Chrom: "12", Pos: 25245350, Ref: "C", Alt: "A", Gene: "KRAS", TranscriptID: "ENST00000311936", Event: "G12V", Source: "oncokb"},
	}}))
	require.NoError(t, w.Write(extract.Result{Hotspots: []extract.Hotspot{
		{Chrom: "chr2", Pos: 500, Ref: "T", Alt: "C", Gene: "ALK", Event: "F1174L", Source: "civic"},
		{Chrom: "12", Pos: 25245350, Ref: "C", Alt: "A", Gene: "KRAS", TranscriptID: "ENST00000311936", Event: "G12V", Source: "civic"},
		// Exact repeat is dropped.
		{Chrom: "12", Pos: 25245350, Ref: "C", Alt: "A", Gene: "KRAS", TranscriptID: "ENST00000311936", Event: "G12V", Source: "civic"},
	}}))
	require.NoError(t, w.Flush())

	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "##fileformat=VCFv4.2\n"))
	assert.Contains(t, out, "##reference=GRCh38\n")
	assert.Contains(t, out, "##INFO=<ID=EVENT,")

	got := records(out)
	require.Len(t, got, 3)
	assert.True(t, strings.HasPrefix(got[0], "2\t500\t.\tT\tC\t"), got[0])
	assert.Equal(t,
		"12\t25245350\t.\tC\tA\t.\t.\tGENE=KRAS,KRAS;TRANSCRIPT=ENST00000311936,ENST00000311936;EVENT=G12V,G12V;SOURCE=oncokb,civic",
		got[1])
	assert.Equal(t, "X\t100\t.\tG\tA\t.\t.\tGENE=AR;TRANSCRIPT=.;EVENT=T878A;SOURCE=oncokb", got[2])
}

func TestHotspotVCFWriter_EscapesInfo(t *testing.T) {
	var buf bytes.Buffer
	w := NewHotspotVCFWriter(&buf, "")
	w.Add(extract.Hotspot{Chrom: "1", Pos: 10, Ref: "A", Alt: "T", Gene: "G", Event: "a b;c=d,e", Source: "s"})
	require.NoError(t, w.Flush())

	assert.NotContains(t, buf.String(), "##reference")
	got := records(buf.String())
	require.Len(t, got, 1)
	assert.Contains(t, got[0], "EVENT=a%20b%3Bc%3Dd%2Ce;")
}

func TestHotspotVCFWriter_Readable(t *testing.T) {
	var buf bytes.Buffer
	w := NewHotspotVCFWriter(&buf, "GRCh38")
	w.Add(extract.Hotspot{Chrom: "7", Pos: 140753336, Ref: "A", Alt: "T", Gene: "BRAF", Event: "V600E", Source: "oncokb"})
	require.NoError(t, w.Flush())

	p, err := vcf.NewParserFromReader(&buf)
	require.NoError(t, err)
	v, err := p.Next()
	require.NoError(t, err)
	require.NotNil(t, v)
	assert.Equal(t, "7:140753336:A:T", v.Key())
	assert.Equal(t, "BRAF", v.Info["GENE"])
	assert.Equal(t, "V600E", v.Info["EVENT"])
}

func TestCompareChrom(t *testing.T) {
	chroms := []string{"MT", "Y", "GL000220.1", "10", "X", "2", "1"}
	slices.SortFunc(chroms, compareChrom)
	assert.Equal(t, []string{"1", "2", "10", "X", "Y", "MT", "GL000220.1"}, chroms)
}

