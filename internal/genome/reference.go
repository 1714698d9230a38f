package genome

import (
	"errors"
	"fmt"
	"strings"
)

// ErrOutOfRange is returned when a requested interval falls outside a sequence.
var ErrOutOfRange = errors.New("position out of range")

// Reference provides access to reference genome bases.
// Implementations must be safe for concurrent reads.
type Reference interface {
	// Bases returns the upper-case bases of chrom from start to end (1-based, inclusive).
	Bases(chrom string, start, end int64) (string, error)
}

// Sequences is an in-memory Reference keyed by chromosome name.
// It is populated once by a loader and only read afterwards.
type Sequences struct {
	seqs map[string]string
}

// NewSequences creates an empty in-memory reference.
func NewSequences() *Sequences {
	return &Sequences{seqs: make(map[string]string)}
}

// Add stores the sequence of a chromosome, replacing any previous one.
func (s *Sequences) Add(chrom, seq string) {
	s.seqs[NormalizeChrom(chrom)] = strings.ToUpper(seq)
}

// Bases implements Reference.
func (s *Sequences) Bases(chrom string, start, end int64) (string, error) {
	seq, ok := s.seqs[NormalizeChrom(chrom)]
	if !ok {
		return "", fmt.Errorf("chromosome %q not in reference", chrom)
	}
	if start < 1 || end < start || end > int64(len(seq)) {
		return "", fmt.Errorf("%s:%d-%d: %w", chrom, start, end, ErrOutOfRange)
	}
	return seq[start-1 : end], nil
}

// Len returns the length of a chromosome, or 0 when it is unknown.
func (s *Sequences) Len(chrom string) int64 {
	return int64(len(s.seqs[NormalizeChrom(chrom)]))
}

// ChromosomeCount returns the number of loaded chromosomes.
func (s *Sequences) ChromosomeCount() int {
	return len(s.seqs)
}

// Base returns the single reference base at pos.
func Base(ref Reference, chrom string, pos int64) (string, error) {
	return ref.Bases(chrom, pos, pos)
}

// NormalizeChrom removes a "chr" prefix so GENCODE ("chr12") and
// knowledgebase ("12") chromosome names compare equal.
func NormalizeChrom(chrom string) string {
	if strings.HasPrefix(chrom, "chr") {
		return chrom[3:]
	}
	return chrom
}
