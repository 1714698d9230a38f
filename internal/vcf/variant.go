// Package vcf provides the genomic variant value type and a VCF reader.
package vcf

import (
	"strconv"
	"strings"
)

// Variant is a single genomic allele. Variants produced by the interpreter
// only carry Chrom, Pos, Ref and Alt.
type Variant struct {
	Chrom  string            // Chromosome name (e.g., "12", "chr12")
	Pos    int64             // 1-based genomic position
	ID     string            // Variant identifier (e.g., rs ID)
	Ref    string            // Reference allele
	Alt    string            // Alternate allele (single allele after splitting)
	Qual   float64           // Quality score
	Filter string            // Filter status (PASS or filter name)
	Info   map[string]string // INFO key-value pairs, flags map to ""
}

// IsSNV returns true if the variant is a single nucleotide variant.
func (v *Variant) IsSNV() bool {
	return len(v.Ref) == 1 && len(v.Alt) == 1
}

// IsIndel returns true if the variant is an insertion or deletion.
func (v *Variant) IsIndel() bool {
	return len(v.Ref) != len(v.Alt)
}

// IsInsertion returns true if the variant is an insertion.
func (v *Variant) IsInsertion() bool {
	return len(v.Alt) > len(v.Ref)
}

// IsDeletion returns true if the variant is a deletion.
func (v *Variant) IsDeletion() bool {
	return len(v.Ref) > len(v.Alt)
}

// Variant classes reported by Class.
const (
	ClassSNV    = "SNV"
	ClassMNV    = "MNV"
	ClassIns    = "INS"
	ClassDel    = "DEL"
	ClassDelIns = "DELINS"
)

// Class names the shape of the variant after trimming shared bases.
// Unanchored MAF alleles ("-") are recognized as well.
func (v *Variant) Class() string {
	switch {
	case v.Ref == "-":
		return ClassIns
	case v.Alt == "-":
		return ClassDel
	}
	t := v.Trim()
	switch {
	case t.IsSNV():
		return ClassSNV
	case !t.IsIndel():
		return ClassMNV
	case t.IsInsertion() && t.Alt[0] == t.Ref[0] && len(t.Ref) == 1:
		return ClassIns
	case t.IsDeletion() && t.Alt[0] == t.Ref[0] && len(t.Alt) == 1:
		return ClassDel
	default:
		return ClassDelIns
	}
}

// Trim returns the shortest equivalent form of v. The common suffix and
// then the common prefix of Ref and Alt are removed, keeping at least one
// base in each allele, and Pos advances by the removed prefix length.
func (v *Variant) Trim() Variant {
	t := *v
	for len(t.Ref) > 1 && len(t.Alt) > 1 && t.Ref[len(t.Ref)-1] == t.Alt[len(t.Alt)-1] {
		t.Ref = t.Ref[:len(t.Ref)-1]
		t.Alt = t.Alt[:len(t.Alt)-1]
	}
	for len(t.Ref) > 1 && len(t.Alt) > 1 && t.Ref[0] == t.Alt[0] {
		t.Ref = t.Ref[1:]
		t.Alt = t.Alt[1:]
		t.Pos++
	}
	return t
}

// IsValid returns true if the variant has a position and both alleles.
func (v *Variant) IsValid() bool {
	return v.Pos >= 1 && v.Ref != "" && v.Alt != ""
}

// NormalizeChrom returns the chromosome name without "chr" prefix.
func (v *Variant) NormalizeChrom() string {
	return strings.TrimPrefix(v.Chrom, "chr")
}

// Key returns "chrom:pos:ref:alt" with the chromosome normalized. Two variants
// describing the same allele have the same key.
func (v *Variant) Key() string {
	var sb strings.Builder
	sb.Grow(len(v.Chrom) + len(v.Ref) + len(v.Alt) + 16)
	sb.WriteString(v.NormalizeChrom())
	sb.WriteByte(':')
	sb.WriteString(strconv.FormatInt(v.Pos, 10))
	sb.WriteByte(':')
	sb.WriteString(v.Ref)
	sb.WriteByte(':')
	sb.WriteString(v.Alt)
	return sb.String()
}

// String formats the variant as chrom:pos ref>alt.
func (v *Variant) String() string {
	return v.Chrom + ":" + strconv.FormatInt(v.Pos, 10) + " " + v.Ref + ">" + v.Alt
}
