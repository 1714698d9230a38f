// Package extract turns curated events into known hotspots and known regions.
package extract

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/inodb/vibe-serve/internal/cache"
	"github.com/inodb/vibe-serve/internal/codon"
	"github.com/inodb/vibe-serve/internal/events"
	"github.com/inodb/vibe-serve/internal/genome"
	"github.com/inodb/vibe-serve/internal/hgvs"
	"github.com/inodb/vibe-serve/internal/interpret"
	"github.com/inodb/vibe-serve/internal/resolve"
	"github.com/inodb/vibe-serve/internal/vcf"
)

var (
	// ErrUnclassified is returned for event descriptions of no known shape.
	ErrUnclassified = errors.New("unclassified event")
	// ErrUnresolved is returned when an event maps to no genomic location.
	ErrUnresolved = errors.New("unresolved event")
)

// TranscriptLookup resolves the transcript an event refers to.
type TranscriptLookup interface {
	Resolve(gene, transcriptID string) (*cache.Transcript, error)
}

// Hotspot is a genomic variant derived from a curated event.
type Hotspot struct {
	Chrom        string
	Pos          int64
	Ref          string
	Alt          string
	Gene         string
	TranscriptID string
	Event        string
	Source       string
}

// Variant returns the hotspot allele as a VCF variant.
func (h *Hotspot) Variant() vcf.Variant {
	return vcf.Variant{Chrom: h.Chrom, Pos: h.Pos, Ref: h.Ref, Alt: h.Alt}
}

// Region is a genomic interval derived from a codon or exon event.
type Region struct {
	Kind         events.Type
	Chrom        string
	Start        int64
	End          int64
	Gene         string
	TranscriptID string
	Event        string
	Source       string
}

// GenomeRegion returns the interval covered by the region.
func (r *Region) GenomeRegion() genome.GenomeRegion {
	return genome.GenomeRegion{Chrom: r.Chrom, Start: r.Start, End: r.End}
}

// Extractor resolves events against the transcript model and reference genome.
type Extractor struct {
	lookup      TranscriptLookup
	builder     *hgvs.Builder
	interpreter *interpret.Interpreter
	margin      int64
	logger      *zap.Logger
}

// New creates an extractor. Exon regions are widened by
// resolve.DefaultSpliceMargin unless SetSpliceMargin is called.
func New(lookup TranscriptLookup, ref genome.Reference, table *codon.Table) *Extractor {
	return &Extractor{
		lookup:      lookup,
		builder:     hgvs.NewBuilder(ref, table),
		interpreter: interpret.New(ref, table),
		margin:      resolve.DefaultSpliceMargin,
		logger:      zap.NewNop(),
	}
}

// SetSpliceMargin sets the number of bases added around exon regions.
func (e *Extractor) SetSpliceMargin(margin int64) {
	e.margin = margin
}

// SetLogger sets the logger for the extractor and its interpreter.
func (e *Extractor) SetLogger(l *zap.Logger) {
	e.logger = l
	e.interpreter.SetLogger(l)
}

// Extract resolves a single event. Failures are reported in Result.Err.
func (e *Extractor) Extract(ev *events.Event) Result {
	res := Result{Event: ev}
	class := events.Classify(ev.Text)
	res.Type = class.Type
	if class.Type == events.TypeUnknown {
		res.Err = fmt.Errorf("%q: %w", ev.Text, ErrUnclassified)
		return res
	}

	t, err := e.lookup.Resolve(ev.Gene, ev.TranscriptID)
	if err != nil {
		res.Err = err
		return res
	}
	res.TranscriptID = t.ID

	switch class.Type {
	case events.TypeHotspot:
		res.Err = e.extractHotspots(t, ev, class.Change, &res)
	case events.TypeCodon, events.TypeCodonRange:
		regions, ok := resolve.CodonRangeByRank(t, class.StartCodon, class.EndCodon)
		if !ok {
			res.Err = fmt.Errorf("codons %d-%d of %s: %w", class.StartCodon, class.EndCodon, t.ID, ErrUnresolved)
			return res
		}
		for _, r := range regions {
			res.Regions = append(res.Regions, newRegion(class.Type, r, t, ev))
		}
	case events.TypeExon:
		for rank := class.StartExon; rank <= class.EndExon; rank++ {
			r, ok := resolve.ExonRangeByRank(t, rank, e.margin)
			if !ok {
				res.Regions = nil
				res.Err = fmt.Errorf("exon %d of %s: %w", rank, t.ID, ErrUnresolved)
				return res
			}
			res.Regions = append(res.Regions, newRegion(class.Type, r, t, ev))
		}
	}
	return res
}

func (e *Extractor) extractHotspots(t *cache.Transcript, ev *events.Event, pc hgvs.ProteinChange, res *Result) error {
	rec, err := e.builder.Build(t, pc)
	if err != nil {
		return err
	}
	variants := e.interpreter.ConvertRecordToVariants(rec, t.GenomeStrand())
	if len(variants) == 0 {
		return fmt.Errorf("%s %s: %w", ev.Gene, pc, ErrUnresolved)
	}
	for _, v := range variants {
		res.Hotspots = append(res.Hotspots, Hotspot{
			Chrom:        v.Chrom,
			Pos:          v.Pos,
			Ref:          v.Ref,
			Alt:          v.Alt,
			Gene:         ev.Gene,
			TranscriptID: t.ID,
			Event:        ev.Text,
			Source:       ev.Source,
		})
	}
	return nil
}

func newRegion(kind events.Type, r genome.GenomeRegion, t *cache.Transcript, ev *events.Event) Region {
	return Region{
		Kind:         kind,
		Chrom:        r.Chrom,
		Start:        r.Start,
		End:          r.End,
		Gene:         ev.Gene,
		TranscriptID: t.ID,
		Event:        ev.Text,
		Source:       ev.Source,
	}
}
