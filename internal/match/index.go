// Package match compares called variants against known hotspots and regions.
package match

import (
	"slices"
	"sort"

	"github.com/inodb/vibe-serve/internal/extract"
	"github.com/inodb/vibe-serve/internal/genome"
)

// RegionIndex provides O(log n + k) overlap queries over known regions using
// a sorted slice per chromosome. It is built once and never modified.
type RegionIndex struct {
	byChrom map[string]*regionList
	count   int
}

type regionList struct {
	regions []extract.Region
	maxEnd  []int64 // maxEnd[i] = max(End) for regions[:i+1]
}

// NewRegionIndex creates an index over regions.
func NewRegionIndex(regions []extract.Region) *RegionIndex {
	grouped := make(map[string][]extract.Region)
	for _, r := range regions {
		chrom := genome.NormalizeChrom(r.Chrom)
		grouped[chrom] = append(grouped[chrom], r)
	}

	ix := &RegionIndex{byChrom: make(map[string]*regionList, len(grouped)), count: len(regions)}
	for chrom, rs := range grouped {
		sort.SliceStable(rs, func(i, j int) bool {
			return rs[i].Start < rs[j].Start
		})

		maxEnd := make([]int64, len(rs))
		maxEnd[0] = rs[0].End
		for i := 1; i < len(rs); i++ {
			maxEnd[i] = max(maxEnd[i-1], rs[i].End)
		}
		ix.byChrom[chrom] = &regionList{regions: rs, maxEnd: maxEnd}
	}
	return ix
}

// Len returns the number of indexed regions.
func (ix *RegionIndex) Len() int {
	return ix.count
}

// FindOverlaps returns all regions on chrom containing pos.
func (ix *RegionIndex) FindOverlaps(chrom string, pos int64) []extract.Region {
	return ix.FindOverlapping(chrom, pos, pos)
}

// FindOverlapping returns all regions on chrom sharing a base with [start, end].
func (ix *RegionIndex) FindOverlapping(chrom string, start, end int64) []extract.Region {
	l := ix.byChrom[genome.NormalizeChrom(chrom)]
	if l == nil {
		return nil
	}

	// hi is the first index with Start > end; candidates are [0, hi).
	hi := sort.Search(len(l.regions), func(i int) bool {
		return l.regions[i].Start > end
	})

	var result []extract.Region
	for i := hi - 1; i >= 0; i-- {
		// No region in [0, i] reaches start.
		if l.maxEnd[i] < start {
			break
		}
		if l.regions[i].End >= start {
			result = append(result, l.regions[i])
		}
	}

	slices.Reverse(result)
	return result
}
