// Package genome provides strand, region and reference sequence primitives
// shared by the coordinate resolver and the variant interpreter.
package genome

import "fmt"

// Strand is the genomic strand a transcript is read from.
type Strand int8

const (
	Forward Strand = 1
	Reverse Strand = -1
)

// ParseStrand converts "+", "-", "1" or "-1" to a Strand.
func ParseStrand(s string) (Strand, error) {
	switch s {
	case "+", "1", "+1":
		return Forward, nil
	case "-", "-1":
		return Reverse, nil
	}
	return 0, fmt.Errorf("invalid strand %q", s)
}

// FromInt8 converts the +1/-1 encoding used by transcript loaders.
func FromInt8(v int8) Strand {
	if v < 0 {
		return Reverse
	}
	return Forward
}

// String returns "+" or "-".
func (s Strand) String() string {
	if s == Reverse {
		return "-"
	}
	return "+"
}

// Shift moves pos by offset bases in translation order: towards higher
// coordinates on the forward strand, towards lower ones on the reverse strand.
// Every strand-dependent coordinate calculation goes through this helper.
func (s Strand) Shift(pos, offset int64) int64 {
	if s == Reverse {
		return pos - offset
	}
	return pos + offset
}
