// Package cache holds the transcript model used to resolve codon and exon
// ranks and to anchor protein changes on the genome.
package cache

import (
	"fmt"

	"github.com/inodb/vibe-serve/internal/genome"
)

// Transcript represents a specific gene isoform.
// A Transcript is treated as read-only once its loader has returned.
type Transcript struct {
	ID           string // Transcript ID without version (e.g., ENST00000288602)
	GeneID       string // Parent gene ID
	GeneName     string // Parent gene symbol
	Chrom        string // Chromosome without "chr" prefix
	Start        int64  // Transcript start (1-based)
	End          int64  // Transcript end (1-based, inclusive)
	Strand       int8   // +1 or -1
	Biotype      string // Transcript biotype
	IsCanonical  bool   // Ensembl canonical flag
	IsMANESelect bool   // MANE Select transcript
	Exons        []Exon // Exons in genomic order
	CDSStart     int64  // CDS start (genomic, 1-based), 0 if non-coding
	CDSEnd       int64  // CDS end (genomic, 1-based), 0 if non-coding
}

// Exon represents a single exon within a transcript.
type Exon struct {
	Number   int   // Exon rank along the transcript (1 = first translated exon side)
	Start    int64 // Genomic start (1-based)
	End      int64 // Genomic end (1-based, inclusive)
	CDSStart int64 // CDS portion start, 0 if entirely non-coding
	CDSEnd   int64 // CDS portion end, 0 if entirely non-coding
}

// IsProteinCoding returns true if the transcript has coding boundaries.
func (t *Transcript) IsProteinCoding() bool {
	return t.CDSStart > 0 && t.CDSEnd > 0
}

// GenomeStrand returns the transcript strand as a genome.Strand.
func (t *Transcript) GenomeStrand() genome.Strand {
	return genome.FromInt8(t.Strand)
}

// IsReverseStrand returns true if the transcript is on the reverse strand.
func (t *Transcript) IsReverseStrand() bool {
	return t.Strand == -1
}

// Contains returns true if the given position is within the transcript boundaries.
func (t *Transcript) Contains(pos int64) bool {
	return pos >= t.Start && pos <= t.End
}

// ContainsCDS returns true if the given position is within the CDS boundaries.
func (t *Transcript) ContainsCDS(pos int64) bool {
	if !t.IsProteinCoding() {
		return false
	}
	return pos >= t.CDSStart && pos <= t.CDSEnd
}

// StrandSortedExons returns the exons in translation order: genomic order on
// the forward strand, reversed on the reverse strand. The returned slice is a
// copy on the reverse strand and must not be modified on the forward strand.
func (t *Transcript) StrandSortedExons() []Exon {
	if !t.IsReverseStrand() {
		return t.Exons
	}
	n := len(t.Exons)
	sorted := make([]Exon, n)
	for i, e := range t.Exons {
		sorted[n-1-i] = e
	}
	return sorted
}

// ExonByRank returns the exon with the given 1-based rank in translation order.
func (t *Transcript) ExonByRank(rank int) (Exon, bool) {
	n := len(t.Exons)
	if rank < 1 || rank > n {
		return Exon{}, false
	}
	if t.IsReverseStrand() {
		return t.Exons[n-rank], true
	}
	return t.Exons[rank-1], true
}

// FindExon returns the exon containing the given genomic position, or nil if not in an exon.
// Uses binary search over the genomically ordered exons.
func (t *Transcript) FindExon(pos int64) *Exon {
	lo, hi := 0, len(t.Exons)-1
	for lo <= hi {
		mid := lo + (hi-lo)/2
		e := &t.Exons[mid]
		if pos >= e.Start && pos <= e.End {
			return e
		}
		if pos < e.Start {
			hi = mid - 1
		} else {
			lo = mid + 1
		}
	}
	return nil
}

// Validate checks the structural invariants loaders must uphold: exons are
// sorted and never overlap, and coding boundaries are either both set with
// CDSStart <= CDSEnd or both unset.
func (t *Transcript) Validate() error {
	if (t.CDSStart == 0) != (t.CDSEnd == 0) {
		return fmt.Errorf("transcript %s: only one coding boundary set (%d, %d)", t.ID, t.CDSStart, t.CDSEnd)
	}
	if t.CDSStart > t.CDSEnd {
		return fmt.Errorf("transcript %s: coding start %d after coding end %d", t.ID, t.CDSStart, t.CDSEnd)
	}
	for i, e := range t.Exons {
		if e.Start > e.End {
			return fmt.Errorf("transcript %s: exon %d has start %d after end %d", t.ID, e.Number, e.Start, e.End)
		}
		if i > 0 && e.Start <= t.Exons[i-1].End {
			return fmt.Errorf("transcript %s: exon %d overlaps exon %d", t.ID, e.Number, t.Exons[i-1].Number)
		}
	}
	return nil
}
