package interpret

import "github.com/inodb/vibe-serve/internal/vcf"

// ReduceComplexityForComplexInsDel returns the shortest equivalent form of v.
// The common suffix and then the common prefix of Ref and Alt are trimmed,
// keeping at least one base in each allele, and Pos advances by the trimmed
// prefix length. Applying it twice gives the same result as once.
func ReduceComplexityForComplexInsDel(v vcf.Variant) vcf.Variant {
	return v.Trim()
}
