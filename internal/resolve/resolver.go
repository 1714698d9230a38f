// Package resolve maps codon and exon ranks on a transcript to genomic regions.
package resolve

import (
	"sort"

	"github.com/inodb/vibe-serve/internal/cache"
	"github.com/inodb/vibe-serve/internal/genome"
)

// DefaultSpliceMargin is the number of bases added on each side of an exon
// when an exon-rank event is turned into a genomic region.
const DefaultSpliceMargin = 10

// codingExon is the part of an exon inside the coding window, described from
// its first base in translation order.
type codingExon struct {
	origin int64 // first coding base in translation order
	length int64
}

// codingExons returns the coding parts of the exons of t in translation order.
// Exons entirely outside the coding window are skipped.
func codingExons(t *cache.Transcript) []codingExon {
	strand := t.GenomeStrand()
	exons := t.StrandSortedExons()
	out := make([]codingExon, 0, len(exons))
	for _, e := range exons {
		start := max(e.Start, t.CDSStart)
		end := min(e.End, t.CDSEnd)
		if end < start {
			continue
		}
		origin := start
		if strand == genome.Reverse {
			origin = end
		}
		out = append(out, codingExon{origin: origin, length: end - start + 1})
	}
	return out
}

// CodonRangeByRank returns the genomic regions covered by codons startCodon
// through endCodon (1-based, inclusive) of t. One region is returned per exon
// the range touches, sorted by genomic position. The second return value is
// false when a codon is below 1, the range is inverted, t is non-coding or the
// range extends past the translated length of t.
func CodonRangeByRank(t *cache.Transcript, startCodon, endCodon int64) ([]genome.GenomeRegion, bool) {
	if startCodon < 1 || endCodon < startCodon || !t.IsProteinCoding() {
		return nil, false
	}

	strand := t.GenomeStrand()
	startBase := 1 + 3*(startCodon-1)
	endBase := 3 + 3*(endCodon-1)

	var (
		covered    int64
		startFound bool
		regions    []genome.GenomeRegion
	)
	for _, ce := range codingExons(t) {
		from := ce.origin
		to := strand.Shift(ce.origin, ce.length-1)

		if !startFound {
			if covered+ce.length < startBase {
				covered += ce.length
				continue
			}
			startFound = true
			from = strand.Shift(ce.origin, startBase-covered-1)
		}

		done := covered+ce.length >= endBase
		if done {
			to = strand.Shift(ce.origin, endBase-covered-1)
		}
		regions = append(regions, genome.GenomeRegion{
			Chrom: t.Chrom,
			Start: min(from, to),
			End:   max(from, to),
		})
		if done {
			sort.Slice(regions, func(i, j int) bool {
				return regions[i].Start < regions[j].Start
			})
			return regions, true
		}
		covered += ce.length
	}

	return nil, false
}

// CodonPositions returns the genomic positions of the three bases of codon
// (1-based) in translation order. The positions are not contiguous when the
// codon straddles a splice junction.
func CodonPositions(t *cache.Transcript, codon int64) ([3]int64, bool) {
	var pos [3]int64
	if codon < 1 {
		return pos, false
	}
	for i := range pos {
		p := CDSToGenomic(t, 3*(codon-1)+int64(i)+1)
		if p == 0 {
			return pos, false
		}
		pos[i] = p
	}
	return pos, true
}

// ExonRangeByRank returns the exon with the given rank, clipped to the coding
// window of a coding transcript and widened by margin bases on each side.
// It returns false for ranks outside the transcript and for exons that lie
// entirely in the untranslated region of a coding transcript.
func ExonRangeByRank(t *cache.Transcript, rank int, margin int64) (genome.GenomeRegion, bool) {
	e, ok := t.ExonByRank(rank)
	if !ok {
		return genome.GenomeRegion{}, false
	}

	start, end := e.Start, e.End
	if t.IsProteinCoding() {
		start = max(start, t.CDSStart)
		end = min(end, t.CDSEnd)
		if end < start {
			return genome.GenomeRegion{}, false
		}
	}

	return genome.GenomeRegion{
		Chrom: t.Chrom,
		Start: max(1, start-margin),
		End:   end + margin,
	}, true
}

// CDSToGenomic converts a 1-based CDS position to a genomic position.
// Returns 0 if the CDS position is out of range.
func CDSToGenomic(t *cache.Transcript, cdsPos int64) int64 {
	if !t.IsProteinCoding() || cdsPos < 1 {
		return 0
	}

	strand := t.GenomeStrand()
	var covered int64
	for _, ce := range codingExons(t) {
		if covered+ce.length >= cdsPos {
			return strand.Shift(ce.origin, cdsPos-covered-1)
		}
		covered += ce.length
	}
	return 0
}

// GenomicToCDS converts a genomic position to a 1-based CDS position.
// Returns 0 if the position is not in the coding sequence, including
// intronic positions inside the coding window.
func GenomicToCDS(t *cache.Transcript, pos int64) int64 {
	if !t.ContainsCDS(pos) || t.FindExon(pos) == nil {
		return 0
	}

	strand := t.GenomeStrand()
	var covered int64
	for _, ce := range codingExons(t) {
		far := strand.Shift(ce.origin, ce.length-1)
		if pos >= min(ce.origin, far) && pos <= max(ce.origin, far) {
			offset := pos - ce.origin
			if strand == genome.Reverse {
				offset = ce.origin - pos
			}
			return covered + offset + 1
		}
		covered += ce.length
	}
	return 0
}
