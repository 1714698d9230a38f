package cache

import (
	"testing"

	"github.com/inodb/vibe-serve/internal/genome"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func reverseTranscript() *Transcript {
	return &Transcript{
		ID:       "ENST_REV",
		GeneName: "REV",
		Chrom:    "1",
		Start:    100,
		End:      400,
		Strand:   -1,
		CDSStart: 120,
		CDSEnd:   380,
		Exons: []Exon{
			{Number: 3, Start: 100, End: 150, CDSStart: 120, CDSEnd: 150},
			{Number: 2, Start: 200, End: 250, CDSStart: 200, CDSEnd: 250},
			{Number: 1, Start: 300, End: 400, CDSStart: 300, CDSEnd: 380},
		},
	}
}

func TestStrandSortedExons(t *testing.T) {
	tr := reverseTranscript()
	sorted := tr.StrandSortedExons()
	require.Len(t, sorted, 3)
	assert.Equal(t, int64(300), sorted[0].Start)
	assert.Equal(t, int64(100), sorted[2].Start)
	// Genomic order of the model is untouched.
	assert.Equal(t, int64(100), tr.Exons[0].Start)

	tr.Strand = 1
	assert.Equal(t, tr.Exons, tr.StrandSortedExons())
	assert.Equal(t, genome.Forward, tr.GenomeStrand())
}

func TestExonByRank(t *testing.T) {
	tr := reverseTranscript()

	e, ok := tr.ExonByRank(1)
	require.True(t, ok)
	assert.Equal(t, int64(300), e.Start)
	assert.Equal(t, 1, e.Number)

	e, ok = tr.ExonByRank(3)
	require.True(t, ok)
	assert.Equal(t, int64(100), e.Start)

	_, ok = tr.ExonByRank(0)
	assert.False(t, ok)
	_, ok = tr.ExonByRank(4)
	assert.False(t, ok)
}

func TestFindExon(t *testing.T) {
	tr := reverseTranscript()
	require.NotNil(t, tr.FindExon(225))
	assert.Equal(t, 2, tr.FindExon(225).Number)
	assert.Nil(t, tr.FindExon(175))
	assert.Nil(t, tr.FindExon(401))
}

func TestTranscriptPredicates(t *testing.T) {
	tr := reverseTranscript()
	assert.True(t, tr.IsProteinCoding())
	assert.True(t, tr.IsReverseStrand())
	assert.True(t, tr.Contains(100))
	assert.True(t, tr.ContainsCDS(120))
	assert.False(t, tr.ContainsCDS(119))

	nc := &Transcript{ID: "NC", Start: 1, End: 10}
	assert.False(t, nc.IsProteinCoding())
	assert.False(t, nc.ContainsCDS(5))
}

func TestValidate(t *testing.T) {
	require.NoError(t, reverseTranscript().Validate())

	tr := reverseTranscript()
	tr.CDSEnd = 0
	assert.Error(t, tr.Validate(), "one boundary set")

	tr = reverseTranscript()
	tr.CDSStart, tr.CDSEnd = 380, 120
	assert.Error(t, tr.Validate(), "inverted boundaries")

	tr = reverseTranscript()
	tr.Exons[1].Start = 140
	assert.Error(t, tr.Validate(), "overlapping exons")

	tr = reverseTranscript()
	tr.Exons[0].End = 90
	assert.Error(t, tr.Validate(), "inverted exon")
}
