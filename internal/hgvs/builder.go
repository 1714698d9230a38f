package hgvs

import (
	"errors"
	"fmt"
	"strings"

	"github.com/inodb/vibe-serve/internal/cache"
	"github.com/inodb/vibe-serve/internal/codon"
	"github.com/inodb/vibe-serve/internal/genome"
	"github.com/inodb/vibe-serve/internal/resolve"
)

var (
	// ErrSpansExons is returned for indels whose affected bases are split by an intron.
	ErrSpansExons = errors.New("change spans multiple exons")
	// ErrReferenceMismatch is returned when the notation's reference residue
	// does not match the translated reference genome.
	ErrReferenceMismatch = errors.New("reference amino acid mismatch")
	// ErrCodonOutOfRange is returned for codons beyond the translated length.
	ErrCodonOutOfRange = errors.New("codon out of range")
)

// Builder anchors protein changes on the genome of a transcript.
type Builder struct {
	ref   genome.Reference
	table *codon.Table
}

// NewBuilder creates a builder reading reference bases from ref.
func NewBuilder(ref genome.Reference, table *codon.Table) *Builder {
	return &Builder{ref: ref, table: table}
}

// Build converts a protein change on t into an anchored Record.
func (b *Builder) Build(t *cache.Transcript, pc ProteinChange) (Record, error) {
	if !t.IsProteinCoding() {
		return Record{}, fmt.Errorf("transcript %s: %w", t.ID, cache.ErrNotCoding)
	}

	rec := Record{Chrom: t.Chrom, TranscriptID: t.ID}
	var err error
	switch pc.Kind {
	case ChangeMissense:
		err = b.buildSubstitution(t, pc, &rec)
	case ChangeDeletion:
		err = b.buildDeletion(t, pc, &rec)
	case ChangeDuplication:
		err = b.buildDuplication(t, pc, &rec)
	case ChangeInsertion:
		err = b.buildInsertion(t, pc, &rec)
	case ChangeFrameshift:
		err = b.buildFrameshift(t, pc, &rec)
	case ChangeDelIns:
		err = b.buildDelIns(t, pc, &rec)
	default:
		err = fmt.Errorf("kind %s: %w", pc.Kind, ErrUnsupportedNotation)
	}
	if err != nil {
		return Record{}, fmt.Errorf("%s %s: %w", t.GeneName, pc, err)
	}
	return rec, nil
}

func (b *Builder) buildSubstitution(t *cache.Transcript, pc ProteinChange, rec *Record) error {
	if len(pc.AltAAs) != 1 {
		return fmt.Errorf("substitution needs one alternate residue, got %q: %w", pc.AltAAs, ErrUnsupportedNotation)
	}
	if pc.AltAAs[0] == pc.StartAA {
		return fmt.Errorf("synonymous change: %w", ErrUnsupportedNotation)
	}
	refCodon, pos, err := b.codonAt(t, pc.StartPos, pc.StartAA)
	if err != nil {
		return err
	}
	candidates := b.table.CodonsFor(pc.AltAAs[0])
	strand := t.GenomeStrand()
	spans := !contiguous(strand, pos[:])

	var (
		best        string
		first, last int
		bestDiffs   = 4
	)
	for _, c := range candidates {
		f, l, ok := genome.DiffRange(refCodon, c)
		if !ok {
			continue
		}
		if spans && !contiguous(strand, pos[f:l+1]) {
			continue
		}
		if n := countDiffs(refCodon, c); n < bestDiffs {
			best, first, last, bestDiffs = c, f, l, n
		}
	}
	if best == "" {
		return fmt.Errorf("no codon for %c differs from reference codon %s: %w", pc.AltAAs[0], refCodon, ErrUnsupportedNotation)
	}

	gdnaRef := refCodon[first : last+1]
	gdnaAlt := best[first : last+1]
	anchor := pos[first]
	if strand == genome.Reverse {
		gdnaRef = genome.ReverseComplement(gdnaRef)
		gdnaAlt = genome.ReverseComplement(gdnaAlt)
		anchor = pos[last]
	}

	rec.GDNAPosition = anchor
	rec.SpansMultipleExons = spans
	rec.Annotation = SnvMnv{
		GDNARef:         gdnaRef,
		GDNAAlt:         gdnaAlt,
		ReferenceCodon:  refCodon,
		CandidateCodons: candidates,
	}
	return nil
}

func (b *Builder) buildDeletion(t *cache.Transcript, pc ProteinChange, rec *Record) error {
	lo, hi, err := b.residueSpan(t, pc)
	if err != nil {
		return err
	}
	n := hi - lo + 1
	rec.GDNAPosition = b.shiftDeletion(t.Chrom, lo, n, 1)
	rec.Annotation = Deletion{
		DeletedBaseCount:        int(n),
		LeftAlignedGDNAPosition: b.shiftDeletion(t.Chrom, lo, n, -1),
	}
	return nil
}

func (b *Builder) buildDuplication(t *cache.Transcript, pc ProteinChange, rec *Record) error {
	lo, hi, err := b.residueSpan(t, pc)
	if err != nil {
		return err
	}
	rec.GDNAPosition = lo
	rec.Annotation = Duplication{DuplicatedBaseCount: int(hi - lo + 1)}
	return nil
}

func (b *Builder) buildInsertion(t *cache.Transcript, pc ProteinChange, rec *Record) error {
	if _, _, err := b.codonAt(t, pc.StartPos, pc.StartAA); err != nil {
		return err
	}
	if _, _, err := b.codonAt(t, pc.EndPos, pc.EndAA); err != nil {
		return err
	}

	// The insertion sits between the last base of the start codon and the
	// first base of the end codon.
	before := resolve.CDSToGenomic(t, 3*pc.StartPos)
	after := resolve.CDSToGenomic(t, 3*pc.StartPos+1)
	strand := t.GenomeStrand()
	if strand.Shift(before, 1) != after {
		return ErrSpansExons
	}

	inserted, err := b.firstCodons(pc.AltAAs)
	if err != nil {
		return err
	}
	anchor := before
	if strand == genome.Reverse {
		inserted = genome.ReverseComplement(inserted)
		anchor = after
	}

	left, err := b.leftAlignInsertion(t.Chrom, anchor, inserted)
	if err != nil {
		return err
	}
	rec.GDNAPosition = anchor
	rec.Annotation = Insertion{
		InsertedBases:           inserted,
		LeftAlignedGDNAPosition: left,
	}
	return nil
}

func (b *Builder) buildFrameshift(t *cache.Transcript, pc ProteinChange, rec *Record) error {
	_, pos, err := b.codonAt(t, pc.StartPos, pc.StartAA)
	if err != nil {
		return err
	}
	rec.GDNAPosition = pos[0]
	rec.Annotation = Frameshift{IsFrameshiftInsideStartCodon: pc.StartPos == 1}
	return nil
}

func (b *Builder) buildDelIns(t *cache.Transcript, pc ProteinChange, rec *Record) error {
	lo, hi, err := b.residueSpan(t, pc)
	if err != nil {
		return err
	}
	inserted, err := b.firstCodons(pc.AltAAs)
	if err != nil {
		return err
	}
	if t.IsReverseStrand() {
		inserted = genome.ReverseComplement(inserted)
	}

	ann := ComplexInsertDelete{
		DeletedBaseCount: int(hi - lo + 1),
		InsertedSequence: inserted,
	}
	if len(pc.AltAAs) == 1 {
		ann.CandidateAlternativeCodons = b.table.CodonsFor(pc.AltAAs[0])
	}
	rec.GDNAPosition = lo
	rec.Annotation = ann
	return nil
}

// codonAt returns the coding-orientation reference codon and its genomic
// positions in translation order, checking it translates to aa.
func (b *Builder) codonAt(t *cache.Transcript, n int64, aa byte) (string, [3]int64, error) {
	pos, ok := resolve.CodonPositions(t, n)
	if !ok {
		return "", pos, fmt.Errorf("codon %d of %s: %w", n, t.ID, ErrCodonOutOfRange)
	}

	var buf [3]byte
	for i, p := range pos {
		base, err := genome.Base(b.ref, t.Chrom, p)
		if err != nil {
			return "", pos, fmt.Errorf("codon %d of %s: %w", n, t.ID, err)
		}
		buf[i] = base[0]
		if t.IsReverseStrand() {
			buf[i] = genome.Complement(buf[i])
		}
	}

	refCodon := string(buf[:])
	if got := b.table.Translate(refCodon); got != aa {
		return "", pos, fmt.Errorf("codon %d of %s is %s (%c), not %c: %w", n, t.ID, refCodon, got, aa, ErrReferenceMismatch)
	}
	return refCodon, pos, nil
}

// residueSpan returns the genomic interval covered by codons StartPos through
// EndPos, after checking both flanking residues.
func (b *Builder) residueSpan(t *cache.Transcript, pc ProteinChange) (int64, int64, error) {
	if _, _, err := b.codonAt(t, pc.StartPos, pc.StartAA); err != nil {
		return 0, 0, err
	}
	if _, _, err := b.codonAt(t, pc.EndPos, pc.EndAA); err != nil {
		return 0, 0, err
	}

	regions, ok := resolve.CodonRangeByRank(t, pc.StartPos, pc.EndPos)
	if !ok {
		return 0, 0, fmt.Errorf("codons %d-%d of %s: %w", pc.StartPos, pc.EndPos, t.ID, ErrCodonOutOfRange)
	}
	if len(regions) != 1 {
		return 0, 0, ErrSpansExons
	}
	return regions[0].Start, regions[0].End, nil
}

// shiftDeletion moves a deletion of n bases starting at start one base at a
// time in direction step while the deleted sequence stays equivalent.
func (b *Builder) shiftDeletion(chrom string, start, n, step int64) int64 {
	for {
		x, y := start, start+n
		if step < 0 {
			x, y = start-1, start+n-1
		}
		bx, err := genome.Base(b.ref, chrom, x)
		if err != nil {
			return start
		}
		by, err := genome.Base(b.ref, chrom, y)
		if err != nil || bx != by {
			return start
		}
		start += step
	}
}

// leftAlignInsertion returns the leftmost anchor at which inserting the
// rotated sequence after it yields the same allele.
func (b *Builder) leftAlignInsertion(chrom string, anchor int64, inserted string) (int64, error) {
	if _, err := genome.Base(b.ref, chrom, anchor); err != nil {
		return 0, err
	}
	seq := inserted
	for anchor > 1 {
		base, err := genome.Base(b.ref, chrom, anchor)
		if err != nil || base[0] != seq[len(seq)-1] {
			break
		}
		seq = seq[len(seq)-1:] + seq[:len(seq)-1]
		anchor--
	}
	return anchor, nil
}

// firstCodons encodes each residue with its first codon in sorted order.
func (b *Builder) firstCodons(aas string) (string, error) {
	var sb strings.Builder
	for i := 0; i < len(aas); i++ {
		codons := b.table.CodonsFor(aas[i])
		if len(codons) == 0 {
			return "", fmt.Errorf("no codon for %c: %w", aas[i], ErrUnsupportedNotation)
		}
		sb.WriteString(codons[0])
	}
	return sb.String(), nil
}

// contiguous reports whether positions follow each other in translation order.
func contiguous(strand genome.Strand, pos []int64) bool {
	for i := 1; i < len(pos); i++ {
		if strand.Shift(pos[i-1], 1) != pos[i] {
			return false
		}
	}
	return true
}

func countDiffs(a, b string) int {
	n := 0
	for i := 0; i < len(a) && i < len(b); i++ {
		if a[i] != b[i] {
			n++
		}
	}
	return n
}
