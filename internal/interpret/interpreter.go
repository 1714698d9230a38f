// Package interpret converts anchored HGVS annotations into the genomic
// variants consistent with them.
package interpret

import (
	"slices"

	"go.uber.org/zap"

	"github.com/inodb/vibe-serve/internal/codon"
	"github.com/inodb/vibe-serve/internal/genome"
	"github.com/inodb/vibe-serve/internal/hgvs"
	"github.com/inodb/vibe-serve/internal/vcf"
)

// Interpreter enumerates every genomic representation of a protein-level
// mutation. It only reads its reference and codon table and is safe for
// concurrent use.
type Interpreter struct {
	ref    genome.Reference
	table  *codon.Table
	logger *zap.Logger
}

// New creates an interpreter reading reference bases from ref.
func New(ref genome.Reference, table *codon.Table) *Interpreter {
	return &Interpreter{ref: ref, table: table, logger: zap.NewNop()}
}

// SetLogger sets the logger used to report records that yield no variants.
func (in *Interpreter) SetLogger(l *zap.Logger) {
	in.logger = l
}

// ConvertRecordToVariants returns the candidate variants for rec on a
// transcript read on strand. The literal representation comes first, followed
// by alternates in enumeration order. Records that cannot be resolved yield
// an empty slice.
func (in *Interpreter) ConvertRecordToVariants(rec hgvs.Record, strand genome.Strand) []vcf.Variant {
	if rec.GDNAPosition < 1 || rec.Annotation == nil {
		in.logger.Debug("unanchored record", zap.String("chrom", rec.Chrom), zap.Int64("gdna_position", rec.GDNAPosition))
		return nil
	}

	var variants []vcf.Variant
	switch ann := rec.Annotation.(type) {
	case hgvs.SnvMnv:
		variants = in.snvMnv(rec, ann, strand)
	case hgvs.Deletion:
		variants = in.deletion(rec, ann)
	case hgvs.Insertion:
		variants = in.insertion(rec, ann, strand)
	case hgvs.Duplication:
		variants = in.duplication(rec, ann)
	case hgvs.Frameshift:
		variants = in.frameshift(rec, ann, strand)
	case hgvs.ComplexInsertDelete:
		variants = in.complexInsertDelete(rec, ann, strand)
	}

	variants = slices.DeleteFunc(variants, func(v vcf.Variant) bool {
		return !v.IsValid()
	})
	if len(variants) == 0 {
		in.logger.Debug("record yields no variants",
			zap.String("chrom", rec.Chrom),
			zap.String("transcript", rec.TranscriptID),
			zap.Int64("gdna_position", rec.GDNAPosition),
			zap.Stringer("kind", rec.Annotation.Kind()))
	}
	return variants
}

func (in *Interpreter) snvMnv(rec hgvs.Record, ann hgvs.SnvMnv, strand genome.Strand) []vcf.Variant {
	if ann.GDNARef == "" || ann.GDNARef == ann.GDNAAlt {
		return nil
	}
	variants := []vcf.Variant{{
		Chrom: rec.Chrom,
		Pos:   rec.GDNAPosition,
		Ref:   ann.GDNARef,
		Alt:   ann.GDNAAlt,
	}}
	// Codon-level alternates are unsound once the codon straddles a junction.
	if rec.SpansMultipleExons {
		return variants
	}

	idx, primaryCodon, ok := locateChange(ann, strand)
	if !ok {
		return variants
	}
	codonStart := rec.GDNAPosition - int64(idx)
	if strand == genome.Reverse {
		codonStart = rec.GDNAPosition - int64(3-idx-len(ann.GDNARef))
	}

	refCodon := orient(ann.ReferenceCodon, strand)
	for _, c := range ann.CandidateCodons {
		if len(c) != 3 || c == ann.ReferenceCodon || c == primaryCodon {
			continue
		}
		alt := orient(c, strand)
		first, last, ok := genome.DiffRange(refCodon, alt)
		if !ok {
			continue
		}
		variants = append(variants, vcf.Variant{
			Chrom: rec.Chrom,
			Pos:   codonStart + int64(first),
			Ref:   refCodon[first : last+1],
			Alt:   alt[first : last+1],
		})
	}
	return variants
}

// locateChange finds where the genomic change sits inside the reference codon.
// It returns the coding-orientation index of the first changed base and the
// candidate codon the change produces.
func locateChange(ann hgvs.SnvMnv, strand genome.Strand) (int, string, bool) {
	ref := ann.ReferenceCodon
	from, to := orient(ann.GDNARef, strand), orient(ann.GDNAAlt, strand)
	n := len(from)
	if len(ref) != 3 || n == 0 || n > 3 || len(to) != n {
		return 0, "", false
	}
	for i := 0; i+n <= 3; i++ {
		if ref[i:i+n] != from {
			continue
		}
		changed := ref[:i] + to + ref[i+n:]
		if slices.Contains(ann.CandidateCodons, changed) {
			return i, changed, true
		}
	}
	return 0, "", false
}

func (in *Interpreter) deletion(rec hgvs.Record, ann hgvs.Deletion) []vcf.Variant {
	n := int64(ann.DeletedBaseCount)
	if n < 1 {
		return nil
	}
	left := ann.LeftAlignedGDNAPosition
	if left < 1 || left > rec.GDNAPosition {
		left = rec.GDNAPosition
	}

	var variants []vcf.Variant
	for start := left; start <= rec.GDNAPosition; start++ {
		pos := start - 1
		if pos < 1 {
			continue
		}
		seq, ok := in.bases(rec.Chrom, pos, start+n-1)
		if !ok {
			continue
		}
		variants = append(variants, vcf.Variant{
			Chrom: rec.Chrom,
			Pos:   pos,
			Ref:   seq,
			Alt:   seq[:1],
		})
	}
	return variants
}

func (in *Interpreter) insertion(rec hgvs.Record, ann hgvs.Insertion, strand genome.Strand) []vcf.Variant {
	ins := ann.InsertedBases
	if !genome.IsACGT(ins) {
		return nil
	}
	anchor, ok := in.bases(rec.Chrom, rec.GDNAPosition, rec.GDNAPosition)
	if !ok {
		return nil
	}

	seen := map[string]bool{ins: true}
	variants := []vcf.Variant{{Chrom: rec.Chrom, Pos: rec.GDNAPosition, Ref: anchor, Alt: anchor + ins}}
	add := func(seq string) {
		if seen[seq] {
			return
		}
		seen[seq] = true
		variants = append(variants, vcf.Variant{Chrom: rec.Chrom, Pos: rec.GDNAPosition, Ref: anchor, Alt: anchor + seq})
	}

	left := ann.LeftAlignedGDNAPosition
	if left < 1 || left > rec.GDNAPosition {
		left = rec.GDNAPosition
	}
	rotations := min(int64(len(ins)), rec.GDNAPosition-left+1)
	for k := 1; k < int(rotations); k++ {
		if strand == genome.Reverse {
			add(ins[len(ins)-k:] + ins[:len(ins)-k])
		} else {
			add(ins[k:] + ins[:k])
		}
	}

	if len(ins) == 3 {
		for _, syn := range in.table.SynonymousTriplets(ins, strand) {
			add(syn)
		}
	}
	return variants
}

func (in *Interpreter) duplication(rec hgvs.Record, ann hgvs.Duplication) []vcf.Variant {
	n := int64(ann.DuplicatedBaseCount)
	if n < 1 || rec.GDNAPosition < 2 {
		return nil
	}
	seq, ok := in.bases(rec.Chrom, rec.GDNAPosition-1, rec.GDNAPosition+n-1)
	if !ok {
		return nil
	}
	return []vcf.Variant{{
		Chrom: rec.Chrom,
		Pos:   rec.GDNAPosition - 1,
		Ref:   seq[:1],
		Alt:   seq,
	}}
}

// frameshift enumerates single-base insertions after, and two and three base
// deletions starting at, the first two translated bases of the codon.
func (in *Interpreter) frameshift(rec hgvs.Record, ann hgvs.Frameshift, strand genome.Strand) []vcf.Variant {
	if ann.IsFrameshiftInsideStartCodon {
		return nil
	}
	anchors := [2]int64{rec.GDNAPosition, rec.GDNAPosition + 1}
	if strand == genome.Reverse {
		anchors = [2]int64{rec.GDNAPosition - 2, rec.GDNAPosition - 1}
	}

	var variants []vcf.Variant
	for _, a := range anchors {
		ref, ok := in.bases(rec.Chrom, a, a)
		if !ok {
			continue
		}
		for _, b := range []string{"A", "C", "G", "T"} {
			if b == ref {
				continue
			}
			variants = append(variants, vcf.Variant{Chrom: rec.Chrom, Pos: a, Ref: ref, Alt: ref + b})
		}
	}
	for _, a := range anchors {
		for _, length := range []int64{2, 3} {
			seq, ok := in.bases(rec.Chrom, a, a+length-1)
			if !ok {
				continue
			}
			variants = append(variants, vcf.Variant{Chrom: rec.Chrom, Pos: a, Ref: seq, Alt: seq[:1]})
		}
	}
	return variants
}

func (in *Interpreter) complexInsertDelete(rec hgvs.Record, ann hgvs.ComplexInsertDelete, strand genome.Strand) []vcf.Variant {
	n := int64(ann.DeletedBaseCount)
	if n < 1 || ann.InsertedSequence == "" {
		return nil
	}
	deleted, ok := in.bases(rec.Chrom, rec.GDNAPosition, rec.GDNAPosition+n-1)
	if !ok {
		return nil
	}

	var variants []vcf.Variant
	add := func(alt string) {
		v := ReduceComplexityForComplexInsDel(vcf.Variant{
			Chrom: rec.Chrom,
			Pos:   rec.GDNAPosition,
			Ref:   deleted,
			Alt:   alt,
		})
		if v.Ref != v.Alt {
			variants = append(variants, v)
		}
	}

	add(ann.InsertedSequence)
	if len(ann.InsertedSequence) == 3 {
		for _, c := range ann.CandidateAlternativeCodons {
			if len(c) != 3 {
				continue
			}
			if alt := orient(c, strand); alt != ann.InsertedSequence {
				add(alt)
			}
		}
	}
	return variants
}

func (in *Interpreter) bases(chrom string, start, end int64) (string, bool) {
	seq, err := in.ref.Bases(chrom, start, end)
	if err != nil {
		in.logger.Debug("reference lookup failed", zap.String("chrom", chrom), zap.Int64("start", start), zap.Int64("end", end), zap.Error(err))
		return "", false
	}
	return seq, true
}

// orient converts a coding-orientation sequence to genomic orientation and back.
func orient(seq string, strand genome.Strand) string {
	if strand == genome.Reverse {
		return genome.ReverseComplement(seq)
	}
	return seq
}
