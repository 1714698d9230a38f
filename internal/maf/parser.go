// Package maf reads called variants from MAF (Mutation Annotation Format)
// files, such as cBioPortal data_mutations.txt, for matching against known
// events.
package maf

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"go.uber.org/multierr"

	"github.com/inodb/vibe-serve/internal/genome"
	"github.com/inodb/vibe-serve/internal/vcf"
)

// Standard MAF column names
const (
	ColChromosome      = "Chromosome"
	ColStartPosition   = "Start_Position"
	ColReferenceAllele = "Reference_Allele"
	ColTumorSeqAllele2 = "Tumor_Seq_Allele2"
	ColHugoSymbol      = "Hugo_Symbol"
	ColHGVSpShort      = "HGVSp_Short"
	ColSampleBarcode   = "Tumor_Sample_Barcode"
)

// INFO keys set on parsed variants.
const (
	InfoGene   = "GENE"
	InfoHGVSp  = "HGVSP"
	InfoSample = "SAMPLE"
)

// ColumnIndices holds the indices of MAF columns used; -1 when absent.
type ColumnIndices struct {
	Chromosome      int
	StartPosition   int
	ReferenceAllele int
	TumorSeqAllele2 int
	HugoSymbol      int
	HGVSpShort      int
	SampleBarcode   int
}

// Parser reads variants from a MAF file. It implements vcf.VariantParser.
//
// MAF writes indels with "-" for the empty allele and no anchor base. When a
// reference is set, indels are rewritten in VCF form with the preceding base
// as anchor so they compare equal to VCF-derived alleles. Without a reference
// the "-" alleles are kept.
type Parser struct {
	reader     *bufio.Reader
	closer     io.Closer
	ref        genome.Reference
	lineNumber int
	columns    ColumnIndices
}

// NewParser creates a new MAF parser for the given file, "-" meaning stdin.
// Gzipped input is detected from its content.
func NewParser(path string) (*Parser, error) {
	reader, closer, err := vcf.OpenInput(path)
	if err != nil {
		return nil, fmt.Errorf("open maf: %w", err)
	}

	p := &Parser{reader: reader, closer: closer}
	if err := p.parseHeader(); err != nil {
		return nil, multierr.Append(err, closer.Close())
	}
	return p, nil
}

// NewParserFromReader creates a parser from an io.Reader (e.g., stdin).
func NewParserFromReader(r io.Reader) (*Parser, error) {
	p := &Parser{
		reader: bufio.NewReader(r),
	}

	if err := p.parseHeader(); err != nil {
		return nil, err
	}

	return p, nil
}

// SetReference enables VCF-style anchoring of indels.
func (p *Parser) SetReference(ref genome.Reference) {
	p.ref = ref
}

// parseHeader skips comment lines and parses the column header.
func (p *Parser) parseHeader() error {
	for {
		line, err := p.reader.ReadString('\n')
		if err != nil && (err != io.EOF || line == "") {
			if err == io.EOF {
				return &ParseError{Line: p.lineNumber, Message: "no header line found"}
			}
			return fmt.Errorf("read header: %w", err)
		}
		p.lineNumber++

		line = strings.TrimRight(line, "\r\n")
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		return p.parseColumnIndices(line)
	}
}

// parseColumnIndices finds column indices and checks required columns.
func (p *Parser) parseColumnIndices(headerLine string) error {
	p.columns = ColumnIndices{
		Chromosome:      -1,
		StartPosition:   -1,
		ReferenceAllele: -1,
		TumorSeqAllele2: -1,
		HugoSymbol:      -1,
		HGVSpShort:      -1,
		SampleBarcode:   -1,
	}

	for i, col := range strings.Split(headerLine, "\t") {
		switch col {
		case ColChromosome:
			p.columns.Chromosome = i
		case ColStartPosition:
			p.columns.StartPosition = i
		case ColReferenceAllele:
			p.columns.ReferenceAllele = i
		case ColTumorSeqAllele2:
			p.columns.TumorSeqAllele2 = i
		case ColHugoSymbol:
			p.columns.HugoSymbol = i
		case ColHGVSpShort:
			p.columns.HGVSpShort = i
		case ColSampleBarcode:
			p.columns.SampleBarcode = i
		}
	}

	required := []struct {
		name string
		idx  int
	}{
		{ColChromosome, p.columns.Chromosome},
		{ColStartPosition, p.columns.StartPosition},
		{ColReferenceAllele, p.columns.ReferenceAllele},
		{ColTumorSeqAllele2, p.columns.TumorSeqAllele2},
	}
	for _, r := range required {
		if r.idx == -1 {
			return &ParseError{
				Line:    p.lineNumber,
				Message: fmt.Sprintf("required column '%s' not found in header", r.name),
			}
		}
	}
	return nil
}

// Next reads the next variant from the MAF file.
// Returns nil, nil when there are no more variants.
func (p *Parser) Next() (*vcf.Variant, error) {
	for {
		line, err := p.reader.ReadString('\n')
		if err != nil {
			if err != io.EOF {
				return nil, fmt.Errorf("read variant line: %w", err)
			}
			if line == "" {
				return nil, nil
			}
		}
		p.lineNumber++

		line = strings.TrimRight(line, "\r\n")
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		return p.parseLine(line)
	}
}

// parseLine parses a single MAF data line into a Variant.
func (p *Parser) parseLine(line string) (*vcf.Variant, error) {
	fields := strings.Split(line, "\t")

	minCols := max(p.columns.Chromosome, p.columns.StartPosition, p.columns.ReferenceAllele, p.columns.TumorSeqAllele2)
	if len(fields) <= minCols {
		return nil, &ParseError{
			Line:    p.lineNumber,
			Message: fmt.Sprintf("expected at least %d columns, found %d", minCols+1, len(fields)),
		}
	}

	pos, err := strconv.ParseInt(fields[p.columns.StartPosition], 10, 64)
	if err != nil || pos < 1 {
		return nil, &ParseError{
			Line:    p.lineNumber,
			Message: fmt.Sprintf("invalid position: %s", fields[p.columns.StartPosition]),
		}
	}

	v := &vcf.Variant{
		Chrom:  fields[p.columns.Chromosome],
		Pos:    pos,
		ID:     ".",
		Ref:    fields[p.columns.ReferenceAllele],
		Alt:    fields[p.columns.TumorSeqAllele2],
		Filter: ".",
		Info:   make(map[string]string),
	}

	optional := []struct {
		key string
		idx int
	}{
		{InfoGene, p.columns.HugoSymbol},
		{InfoHGVSp, p.columns.HGVSpShort},
		{InfoSample, p.columns.SampleBarcode},
	}
	for _, o := range optional {
		if o.idx >= 0 && o.idx < len(fields) && fields[o.idx] != "" {
			v.Info[o.key] = fields[o.idx]
		}
	}

	if p.ref != nil && (v.Ref == "-" || v.Alt == "-") {
		if err := p.anchor(v); err != nil {
			return nil, &ParseError{Line: p.lineNumber, Message: err.Error()}
		}
	}
	return v, nil
}

// anchor rewrites a MAF indel in VCF form. MAF insertions sit between
// Start_Position and Start_Position+1; deletions start at Start_Position.
func (p *Parser) anchor(v *vcf.Variant) error {
	anchorPos := v.Pos
	if v.Alt == "-" {
		anchorPos = v.Pos - 1
	}
	base, err := genome.Base(p.ref, v.Chrom, anchorPos)
	if err != nil {
		return fmt.Errorf("anchor base for %s:%d: %w", v.Chrom, v.Pos, err)
	}

	v.Pos = anchorPos
	v.Ref = base + strings.TrimPrefix(v.Ref, "-")
	v.Alt = base + strings.TrimPrefix(v.Alt, "-")
	return nil
}

// Columns returns the parsed column indices.
func (p *Parser) Columns() ColumnIndices {
	return p.columns
}

// LineNumber returns the current line number being processed.
func (p *Parser) LineNumber() int {
	return p.lineNumber
}

// Close closes the underlying input, if the parser opened it.
func (p *Parser) Close() error {
	if p.closer == nil {
		return nil
	}
	return p.closer.Close()
}

// ParseError represents an error during MAF parsing with line context.
type ParseError struct {
	Line    int
	Message string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("maf parse error at line %d: %s", e.Line, e.Message)
}
