package match

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/inodb/vibe-serve/internal/events"
	"github.com/inodb/vibe-serve/internal/extract"
)

func region(chrom string, start, end int64, event string) extract.Region {
	return extract.Region{Kind: events.TypeCodon, Chrom: chrom, Start: start, End: end, Event: event}
}

func eventsOf(rs []extract.Region) []string {
	out := make([]string, len(rs))
	for i, r := range rs {
		out[i] = r.Event
	}
	return out
}

func TestRegionIndex_Empty(t *testing.T) {
	ix := NewRegionIndex(nil)
	assert.Zero(t, ix.Len())
	assert.Empty(t, ix.FindOverlaps("1", 100))
}

func TestRegionIndex_SingleRegion(t *testing.T) {
	ix := NewRegionIndex([]extract.Region{region("7", 100, 200, "A")})

	assert.Len(t, ix.FindOverlaps("7", 150), 1)
	assert.Len(t, ix.FindOverlaps("7", 100), 1, "start boundary inclusive")
	assert.Len(t, ix.FindOverlaps("7", 200), 1, "end boundary inclusive")
	assert.Empty(t, ix.FindOverlaps("7", 99), "before start")
	assert.Empty(t, ix.FindOverlaps("7", 201), "after end")
	assert.Empty(t, ix.FindOverlaps("8", 150), "other chromosome")
	assert.Len(t, ix.FindOverlaps("chr7", 150), 1, "chr prefix ignored")
}

func TestRegionIndex_Overlapping(t *testing.T) {
	ix := NewRegionIndex([]extract.Region{
		region("1", 200, 400, "C"),
		region("1", 100, 300, "A"),
		region("1", 150, 250, "B"),
		region("1", 500, 600, "D"),
	})
	assert.Equal(t, 4, ix.Len())

	tests := []struct {
		name       string
		start, end int64
		want       []string
	}{
		{"pos 175", 175, 175, []string{"A", "B"}},
		{"pos 225", 225, 225, []string{"A", "B", "C"}},
		{"pos 350", 350, 350, []string{"C"}},
		{"gap", 450, 450, nil},
		{"span across gap", 390, 510, []string{"C", "D"}},
		{"span before all", 1, 99, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ix.FindOverlapping("1", tt.start, tt.end)
			if tt.want == nil {
				assert.Empty(t, got)
				return
			}
			assert.Equal(t, tt.want, eventsOf(got))
		})
	}
}

func TestRegionIndex_LongRegionNotPruned(t *testing.T) {
	// A long early region must be found past many short later ones.
	regions := []extract.Region{region("1", 1, 10_000, "long")}
	for i := int64(0); i < 50; i++ {
		regions = append(regions, region("1", 100+i*10, 105+i*10, "short"))
	}
	ix := NewRegionIndex(regions)

	assert.Equal(t, []string{"long"}, eventsOf(ix.FindOverlaps("1", 5_000)))
}
