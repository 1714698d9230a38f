package output

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inodb/vibe-serve/internal/events"
	"github.com/inodb/vibe-serve/internal/extract"
	"github.com/inodb/vibe-serve/internal/match"
	"github.com/inodb/vibe-serve/internal/vcf"
)

func lines(s string) []string {
	return strings.Split(strings.TrimSuffix(s, "\n"), "\n")
}

func TestHotspotTSVWriter(t *testing.T) {
	var buf bytes.Buffer
	w := NewHotspotTSVWriter(&buf)

	require.NoError(t, w.WriteHeader())
	require.NoError(t, w.Write(extract.Result{
		Hotspots: []extract.Hotspot{
			{Chrom: "7", Pos: 140753336, Ref: "A", Alt: "T", Gene: "BRAF", TranscriptID: "ENST00000646891", Event: "V600E", Source: "oncokb"},
			{Chrom: "7", Pos: 140753335, Ref: "CA", Alt: "TT", Gene: "BRAF", Event: "V600E"},
		},
		Regions: []extract.Region{{Chrom: "7", Start: 1, End: 2}},
	}))
	require.NoError(t, w.Flush())

	got := lines(buf.String())
	require.Len(t, got, 3)
	assert.Equal(t, "#Chrom\tPos\tRef\tAlt\tGene\tTranscript\tEvent\tSource\tScore\tScoreClass", got[0])
	assert.Equal(t, "7\t140753336\tA\tT\tBRAF\tENST00000646891\tV600E\toncokb", got[1])
	assert.Equal(t, "7\t140753335\tCA\tTT\tBRAF\t-\tV600E\t-", got[2])
}

func TestRegionTSVWriter(t *testing.T) {
	var buf bytes.Buffer
	w := NewRegionTSVWriter(&buf)

	require.NoError(t, w.WriteHeader())
	require.NoError(t, w.Write(extract.Result{
		Hotspots: []extract.Hotspot{{Chrom: "7", Pos: 1, Ref: "A", Alt: "T"}},
		Regions: []extract.Region{{
			Kind: events.TypeExon, Chrom: "7", Start: 55174712, End: 55174830,
			Gene: "EGFR", TranscriptID: "ENST00000275493", Event: "EXON 19 DELETION", Source: "oncokb",
		}},
	}))
	require.NoError(t, w.Flush())

	got := lines(buf.String())
	require.Len(t, got, 2)
	assert.Equal(t, "#Chrom\tStart\tEnd\tKind\tGene\tTranscript\tEvent\tSource\tScore\tScoreClass", got[0])
	assert.Equal(t, "7\t55174712\t55174830\texon\tEGFR\tENST00000275493\tEXON 19 DELETION\toncokb", got[1])
}

func TestMatchTSVWriter(t *testing.T) {
	var buf bytes.Buffer
	w := NewMatchTSVWriter(&buf)

	require.NoError(t, w.WriteHeader())
	require.NoError(t, w.Write(match.Match{
		Variant:    &vcf.Variant{Chrom: "12", Pos: 25245350, Ref: "C", Alt: "G"},
		Level:      match.LevelCodon,
		Gene:       "KRAS",
		GeneType:   "ONCOGENE",
		Event:      "G12",
		Source:     "civic",
		Score:      0.91234,
		ScoreClass: "likely_pathogenic",
	}))
	require.NoError(t, w.Write(match.Match{
		Variant: &vcf.Variant{Chrom: "7", Pos: 55174771, Ref: "AGGAATTAAGAGAAGC", Alt: "A"},
		Level:   match.LevelExon,
		Gene:    "EGFR",
		Event:   "EXON 19 DELETION",
		Source:  "oncokb",
	}))
	require.NoError(t, w.Flush())

	got := lines(buf.String())
	require.Len(t, got, 3)
	assert.Equal(t, "#Chrom\tPos\tRef\tAlt\tClass\tLevel\tGene\tGeneType\tTranscript\tEvent\tSource\tScore\tScoreClass", got[0])
	assert.Equal(t, "7\t55174771\tAGGAATTAAGAGAAGC\tA\tDEL\texon\tEGFR\t-\t-\tEXON 19 DELETION\toncokb\t-\t-", got[2])
	assert.Equal(t, "12\t25245350\tC\tG\tSNV\tcodon\tKRAS\tONCOGENE\t-\tG12\tcivic\t0.9123\tlikely_pathogenic", got[1])
}
