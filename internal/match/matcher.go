package match

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/inodb/vibe-serve/internal/events"
	"github.com/inodb/vibe-serve/internal/extract"
	"github.com/inodb/vibe-serve/internal/vcf"
)

// Level is how a called variant relates to a known event.
type Level int

const (
	LevelNone Level = iota
	LevelHotspot
	LevelCodon
	LevelExon
)

func (l Level) String() string {
	switch l {
	case LevelHotspot:
		return "hotspot"
	case LevelCodon:
		return "codon"
	case LevelExon:
		return "exon"
	default:
		return "none"
	}
}

// Match links a called variant to one known event.
type Match struct {
	Variant      *vcf.Variant
	Level        Level
	Gene         string
	TranscriptID string
	Event        string
	Source       string
	GeneType     string
	// Score and ScoreClass come from the AlleleScorer; ScoreClass is empty
	// when the allele is not scored.
	Score      float64
	ScoreClass string
}

// GeneClassifier labels genes, e.g. as oncogene or tumor suppressor.
type GeneClassifier interface {
	GeneType(gene string) string
}

// AlleleScorer scores a called allele, such as a missense pathogenicity
// predictor. An empty class means the allele is not scored.
type AlleleScorer interface {
	ScoreAllele(v *vcf.Variant) (score float64, class string, err error)
}

// Matcher matches called variants against known hotspots and regions.
type Matcher struct {
	hotspots map[string][]extract.Hotspot
	regions  *RegionIndex
	genes    GeneClassifier
	scorer   AlleleScorer
	logger   *zap.Logger
}

// NewMatcher creates a matcher over the given known events.
func NewMatcher(hotspots []extract.Hotspot, regions []extract.Region) *Matcher {
	m := &Matcher{
		hotspots: make(map[string][]extract.Hotspot, len(hotspots)),
		regions:  NewRegionIndex(regions),
		logger:   zap.NewNop(),
	}
	for _, h := range hotspots {
		v := h.Variant()
		key := v.Key()
		m.hotspots[key] = append(m.hotspots[key], h)
	}
	return m
}

// SetLogger sets the logger for the matcher.
func (m *Matcher) SetLogger(l *zap.Logger) {
	m.logger = l
}

// SetGeneClassifier sets the classifier used to fill Match.GeneType.
func (m *Matcher) SetGeneClassifier(c GeneClassifier) {
	m.genes = c
}

// SetAlleleScorer sets the scorer applied to matched SNVs.
func (m *Matcher) SetAlleleScorer(s AlleleScorer) {
	m.scorer = s
}

// Match returns the known events v hits. An exact hotspot allele match wins;
// otherwise every codon or exon region overlapping the reference allele is
// reported. Codon matches precede exon matches.
func (m *Matcher) Match(v *vcf.Variant) []Match {
	if hs := m.hotspots[v.Key()]; len(hs) > 0 {
		out := make([]Match, len(hs))
		for i, h := range hs {
			out[i] = Match{
				Variant:      v,
				Level:        LevelHotspot,
				Gene:         h.Gene,
				TranscriptID: h.TranscriptID,
				Event:        h.Event,
				Source:       h.Source,
				GeneType:     m.geneType(h.Gene),
			}
		}
		return m.scored(v, out)
	}

	end := v.Pos + int64(max(len(v.Ref), 1)) - 1
	var codons, exons []Match
	for _, r := range m.regions.FindOverlapping(v.Chrom, v.Pos, end) {
		mt := Match{
			Variant:      v,
			Gene:         r.Gene,
			TranscriptID: r.TranscriptID,
			Event:        r.Event,
			Source:       r.Source,
			GeneType:     m.geneType(r.Gene),
		}
		if r.Kind == events.TypeExon {
			mt.Level = LevelExon
			exons = append(exons, mt)
		} else {
			mt.Level = LevelCodon
			codons = append(codons, mt)
		}
	}
	return m.scored(v, append(codons, exons...))
}

// scored sets the allele score on the matches of an SNV. Lookup failures
// are logged and leave the matches unscored.
func (m *Matcher) scored(v *vcf.Variant, matches []Match) []Match {
	if m.scorer == nil || len(matches) == 0 || !v.IsSNV() {
		return matches
	}
	score, class, err := m.scorer.ScoreAllele(v)
	if err != nil {
		m.logger.Warn("allele score lookup failed", zap.Stringer("variant", v), zap.Error(err))
		return matches
	}
	for i := range matches {
		matches[i].Score = score
		matches[i].ScoreClass = class
	}
	return matches
}

func (m *Matcher) geneType(gene string) string {
	if m.genes == nil {
		return ""
	}
	return m.genes.GeneType(gene)
}

// MatchAll matches every variant read from p, splitting multi-allelic records,
// and calls fn for each match in input order. It returns the number of
// variants read.
func (m *Matcher) MatchAll(p vcf.VariantParser, fn func(Match) error) (int, error) {
	n := 0
	for {
		v, err := p.Next()
		if err != nil {
			return n, fmt.Errorf("read variant: %w", err)
		}
		if v == nil {
			break
		}
		for _, sv := range vcf.SplitMultiAllelic(v) {
			n++
			matches := m.Match(sv)
			if len(matches) == 0 {
				m.logger.Debug("no known event", zap.Stringer("variant", sv))
			}
			for _, mt := range matches {
				if err := fn(mt); err != nil {
					return n, err
				}
			}
		}
	}
	return n, nil
}
