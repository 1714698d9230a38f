// Package events reads curated knowledgebase events and classifies their
// free-text descriptions.
package events

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/inodb/vibe-serve/internal/codon"
	"github.com/inodb/vibe-serve/internal/hgvs"
)

// Event is one curated gene-level event.
type Event struct {
	Gene         string
	TranscriptID string // empty selects the canonical transcript
	Text         string // e.g. "V600E", "V600", "EXON 19 DELETION"
	Source       string
	Line         int
}

// Type is the shape of an event description.
type Type int

const (
	TypeUnknown Type = iota
	TypeHotspot
	TypeCodon
	TypeCodonRange
	TypeExon
)

var typeNames = [...]string{
	TypeUnknown:    "unknown",
	TypeHotspot:    "hotspot",
	TypeCodon:      "codon",
	TypeCodonRange: "codon_range",
	TypeExon:       "exon",
}

func (t Type) String() string {
	if t < 0 || int(t) >= len(typeNames) {
		return "unknown"
	}
	return typeNames[t]
}

// ParseType returns the Type named s, or TypeUnknown.
func ParseType(s string) Type {
	for i, name := range typeNames {
		if name == s {
			return Type(i)
		}
	}
	return TypeUnknown
}

// Classification is the structured form of an event description.
type Classification struct {
	Type       Type
	Change     hgvs.ProteinChange // TypeHotspot
	StartCodon int64              // TypeCodon, TypeCodonRange
	EndCodon   int64
	StartExon  int // TypeExon
	EndExon    int
}

// Regexes for event description classification.
var (
	// V600, V600X, Val600, p.V600?
	reCodon = regexp.MustCompile(`^p?\.?([A-Z](?:[a-z]{2})?)(\d+)(?:X|\?)?$`)
	// V600_K601, codons 600-601, codon 12
	reCodonRange = regexp.MustCompile(`^p?\.?([A-Z](?:[a-z]{2})?)(\d+)_([A-Z](?:[a-z]{2})?)(\d+)$`)
	reCodonWord  = regexp.MustCompile(`(?i)^codons?\s+(\d+)(?:\s*-\s*(\d+))?$`)
	// exon 19, EXON 19 DELETION, Exon 20 insertions, exons 18-21 mutation
	reExon = regexp.MustCompile(`(?i)^exons?\s+(\d+)(?:\s*-\s*(\d+))?(?:\s+(?:deletions?|insertions?|mutations?|alterations?|skipping|indels?))?$`)
)

// Classify determines the type of an event description. Descriptions that
// fit no known shape classify as TypeUnknown.
func Classify(text string) Classification {
	text = strings.TrimSpace(text)

	if pc, err := hgvs.ParseProteinChange(text); err == nil {
		return Classification{Type: TypeHotspot, Change: pc}
	}

	if m := reCodon.FindStringSubmatch(text); m != nil && isResidue(m[1]) {
		n, err := strconv.ParseInt(m[2], 10, 64)
		if err == nil && n > 0 {
			return Classification{Type: TypeCodon, StartCodon: n, EndCodon: n}
		}
	}

	if m := reCodonRange.FindStringSubmatch(text); m != nil && isResidue(m[1]) && isResidue(m[3]) {
		if c, ok := codonRange(m[2], m[4]); ok {
			return c
		}
	}

	if m := reCodonWord.FindStringSubmatch(text); m != nil {
		end := m[2]
		if end == "" {
			end = m[1]
		}
		if c, ok := codonRange(m[1], end); ok {
			return c
		}
	}

	if m := reExon.FindStringSubmatch(text); m != nil {
		start, err := strconv.Atoi(m[1])
		if err != nil || start < 1 {
			return Classification{}
		}
		end := start
		if m[2] != "" {
			end, err = strconv.Atoi(m[2])
			if err != nil || end < start {
				return Classification{}
			}
		}
		return Classification{Type: TypeExon, StartExon: start, EndExon: end}
	}

	return Classification{}
}

func codonRange(startStr, endStr string) (Classification, bool) {
	start, err := strconv.ParseInt(startStr, 10, 64)
	if err != nil || start < 1 {
		return Classification{}, false
	}
	end, err := strconv.ParseInt(endStr, 10, 64)
	if err != nil || end < start {
		return Classification{}, false
	}
	typ := TypeCodonRange
	if start == end {
		typ = TypeCodon
	}
	return Classification{Type: typ, StartCodon: start, EndCodon: end}, true
}

func isResidue(code string) bool {
	if len(code) == 1 {
		return codon.IsAminoAcid(code[0])
	}
	_, ok := codon.ThreeToSingle[code]
	return ok
}
