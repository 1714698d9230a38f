// Package codon provides the standard genetic code and synonymous codon lookup.
package codon

import (
	"sort"

	"github.com/inodb/vibe-serve/internal/genome"
)

// Standard genetic code: DNA codon to amino acid (single letter).
var standardCode = map[string]byte{
	"TTT": 'F', "TTC": 'F', "TTA": 'L', "TTG": 'L',
	"TCT": 'S', "TCC": 'S', "TCA": 'S', "TCG": 'S',
	"TAT": 'Y', "TAC": 'Y', "TAA": '*', "TAG": '*',
	"TGT": 'C', "TGC": 'C', "TGA": '*', "TGG": 'W',

	"CTT": 'L', "CTC": 'L', "CTA": 'L', "CTG": 'L',
	"CCT": 'P', "CCC": 'P', "CCA": 'P', "CCG": 'P',
	"CAT": 'H', "CAC": 'H', "CAA": 'Q', "CAG": 'Q',
	"CGT": 'R', "CGC": 'R', "CGA": 'R', "CGG": 'R',

	"ATT": 'I', "ATC": 'I', "ATA": 'I', "ATG": 'M',
	"ACT": 'T', "ACC": 'T', "ACA": 'T', "ACG": 'T',
	"AAT": 'N', "AAC": 'N', "AAA": 'K', "AAG": 'K',
	"AGT": 'S', "AGC": 'S', "AGA": 'R', "AGG": 'R',

	"GTT": 'V', "GTC": 'V', "GTA": 'V', "GTG": 'V',
	"GCT": 'A', "GCC": 'A', "GCA": 'A', "GCG": 'A',
	"GAT": 'D', "GAC": 'D', "GAA": 'E', "GAG": 'E',
	"GGT": 'G', "GGC": 'G', "GGA": 'G', "GGG": 'G',
}

// Table maps triplets to amino acids and amino acids to their codons.
// A Table is immutable after construction and safe for concurrent use.
type Table struct {
	toAA map[string]byte
	byAA map[byte][]string // sorted codons per amino acid
}

var standard = newTable(standardCode)

// Standard returns the process-wide standard genetic code table.
func Standard() *Table {
	return standard
}

func newTable(code map[string]byte) *Table {
	t := &Table{
		toAA: code,
		byAA: make(map[byte][]string),
	}
	for triplet, aa := range code {
		t.byAA[aa] = append(t.byAA[aa], triplet)
	}
	for aa := range t.byAA {
		sort.Strings(t.byAA[aa])
	}
	return t
}

// Translate returns the amino acid for a coding-orientation triplet.
// Returns 'X' for unknown or malformed triplets and '*' for stop codons.
func (t *Table) Translate(triplet string) byte {
	if len(triplet) != 3 {
		return 'X'
	}
	if aa, ok := t.toAA[triplet]; ok {
		return aa
	}
	return 'X'
}

// CodonsFor returns all coding-orientation codons for an amino acid, sorted.
// The returned slice must not be modified.
func (t *Table) CodonsFor(aa byte) []string {
	return t.byAA[aa]
}

// SynonymousTriplets returns every triplet other than triplet itself that
// encodes the same amino acid. The triplet is given as read on the genome for
// the given strand: reverse strand triplets are reverse-complemented before
// lookup and the results are reverse-complemented back. Malformed triplets
// yield an empty result.
func (t *Table) SynonymousTriplets(triplet string, strand genome.Strand) []string {
	if len(triplet) != 3 || !genome.IsACGT(triplet) {
		return nil
	}

	coding := triplet
	if strand == genome.Reverse {
		coding = genome.ReverseComplement(triplet)
	}
	aa, ok := t.toAA[coding]
	if !ok {
		return nil
	}

	var result []string
	for _, c := range t.byAA[aa] {
		if c == coding {
			continue
		}
		if strand == genome.Reverse {
			c = genome.ReverseComplement(c)
		}
		result = append(result, c)
	}
	sort.Strings(result)
	return result
}
