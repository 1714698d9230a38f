// Package hgvs models protein-level mutations anchored on the genome and
// builds them from protein change notation.
package hgvs

// Kind identifies the mutation kind of an Annotation.
type Kind int

const (
	KindSnvMnv Kind = iota
	KindDeletion
	KindInsertion
	KindDuplication
	KindFrameshift
	KindComplexInsertDelete
)

var kindNames = [...]string{
	KindSnvMnv:              "snv_mnv",
	KindDeletion:            "deletion",
	KindInsertion:           "insertion",
	KindDuplication:         "duplication",
	KindFrameshift:          "frameshift",
	KindComplexInsertDelete: "complex_insert_delete",
}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return "unknown"
	}
	return kindNames[k]
}

// Annotation is one of SnvMnv, Deletion, Insertion, Duplication, Frameshift
// or ComplexInsertDelete. The set is closed.
type Annotation interface {
	Kind() Kind
	annotation()
}

// Record anchors an Annotation at a genomic position on a transcript.
type Record struct {
	Chrom              string
	TranscriptID       string
	GDNAPosition       int64 // 1-based genomic anchor
	SpansMultipleExons bool
	Annotation         Annotation
}

// SnvMnv is a substitution of one or more bases within a codon.
// GDNARef and GDNAAlt are genomic-orientation bases at GDNAPosition.
// ReferenceCodon and CandidateCodons are in coding orientation.
type SnvMnv struct {
	GDNARef         string
	GDNAAlt         string
	ReferenceCodon  string
	CandidateCodons []string
}

// Deletion removes DeletedBaseCount bases starting at the record anchor, the
// 3'-most genomic start of the deletion. LeftAlignedGDNAPosition is the
// 5'-most equivalent start.
type Deletion struct {
	DeletedBaseCount        int
	LeftAlignedGDNAPosition int64
}

// Insertion inserts InsertedBases (genomic orientation) after the record
// anchor base. LeftAlignedGDNAPosition is the 5'-most equivalent anchor.
type Insertion struct {
	InsertedBases           string
	LeftAlignedGDNAPosition int64
}

// Duplication duplicates DuplicatedBaseCount bases starting at the record anchor.
type Duplication struct {
	DuplicatedBaseCount int
}

// Frameshift disrupts the reading frame from the codon whose first translated
// base is the record anchor.
type Frameshift struct {
	IsFrameshiftInsideStartCodon bool
}

// ComplexInsertDelete replaces DeletedBaseCount bases starting at the record
// anchor with InsertedSequence (genomic orientation).
// CandidateAlternativeCodons are coding-orientation codons for the inserted
// amino acid when exactly one is inserted.
type ComplexInsertDelete struct {
	DeletedBaseCount           int
	InsertedSequence           string
	CandidateAlternativeCodons []string
}

func (SnvMnv) Kind() Kind              { return KindSnvMnv }
func (Deletion) Kind() Kind            { return KindDeletion }
func (Insertion) Kind() Kind           { return KindInsertion }
func (Duplication) Kind() Kind         { return KindDuplication }
func (Frameshift) Kind() Kind          { return KindFrameshift }
func (ComplexInsertDelete) Kind() Kind { return KindComplexInsertDelete }

func (SnvMnv) annotation()              {}
func (Deletion) annotation()            {}
func (Insertion) annotation()           {}
func (Duplication) annotation()         {}
func (Frameshift) annotation()          {}
func (ComplexInsertDelete) annotation() {}
