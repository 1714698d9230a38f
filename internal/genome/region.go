package genome

import "fmt"

// GenomeRegion is an inclusive, 1-based genomic interval.
type GenomeRegion struct {
	Chrom string
	Start int64
	End   int64
}

// Len returns the number of bases covered by the region.
func (r GenomeRegion) Len() int64 {
	return r.End - r.Start + 1
}

// Contains returns true if pos lies within the region.
func (r GenomeRegion) Contains(pos int64) bool {
	return pos >= r.Start && pos <= r.End
}

// Overlaps returns true if both regions share at least one base.
func (r GenomeRegion) Overlaps(o GenomeRegion) bool {
	return r.Chrom == o.Chrom && r.Start <= o.End && o.Start <= r.End
}

// String formats the region as chrom:start-end.
func (r GenomeRegion) String() string {
	return fmt.Sprintf("%s:%d-%d", r.Chrom, r.Start, r.End)
}
