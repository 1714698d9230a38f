package vcf

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"go.uber.org/multierr"
)

// Parser reads called variants from a VCF file for matching. Alleles are
// upper-cased and checked on read; per-sample columns are ignored.
type Parser struct {
	reader     *bufio.Reader
	closer     io.Closer
	lineNumber int
	passOnly   bool
	skipped    int
}

// NewParser opens a plain or gzipped VCF file; "-" reads stdin.
func NewParser(path string) (*Parser, error) {
	r, closer, err := OpenInput(path)
	if err != nil {
		return nil, fmt.Errorf("open vcf: %w", err)
	}
	p := &Parser{reader: r, closer: closer}
	if err := p.skipHeader(); err != nil {
		return nil, multierr.Append(err, closer.Close())
	}
	return p, nil
}

// NewParserFromReader creates a parser over uncompressed VCF text.
func NewParserFromReader(r io.Reader) (*Parser, error) {
	p := &Parser{reader: bufio.NewReader(r)}
	if err := p.skipHeader(); err != nil {
		return nil, err
	}
	return p, nil
}

// SetPassOnly makes Next skip records whose FILTER is neither PASS nor ".".
func (p *Parser) SetPassOnly(passOnly bool) {
	p.passOnly = passOnly
}

// Skipped returns the number of records dropped by the FILTER check.
func (p *Parser) Skipped() int {
	return p.skipped
}

// skipHeader consumes "##" meta lines up to and including the #CHROM line.
func (p *Parser) skipHeader() error {
	for {
		line, eof, err := p.readLine()
		if err != nil {
			return fmt.Errorf("read header: %w", err)
		}
		switch {
		case strings.HasPrefix(line, "##"):
		case strings.HasPrefix(line, "#CHROM"):
			return nil
		case eof && line == "":
			return &ParseError{Line: p.lineNumber, Message: "no #CHROM header line found"}
		default:
			return &ParseError{Line: p.lineNumber, Message: "expected #CHROM header line"}
		}
		if eof {
			return &ParseError{Line: p.lineNumber, Message: "no #CHROM header line found"}
		}
	}
}

// readLine returns the next line without its terminator. eof is set when the
// input is exhausted; line may still hold a final unterminated line.
func (p *Parser) readLine() (line string, eof bool, err error) {
	line, err = p.reader.ReadString('\n')
	if err == io.EOF {
		eof, err = true, nil
	}
	if err != nil {
		return "", false, err
	}
	if line != "" {
		p.lineNumber++
	}
	return strings.TrimRight(line, "\r\n"), eof, nil
}

// Next reads the next variant. Returns nil, nil when there are no more variants.
func (p *Parser) Next() (*Variant, error) {
	for {
		line, eof, err := p.readLine()
		if err != nil {
			return nil, fmt.Errorf("read variant line: %w", err)
		}
		if line == "" {
			if eof {
				return nil, nil
			}
			continue
		}

		v, err := p.parseLine(line)
		if err != nil {
			return nil, err
		}
		if p.passOnly && v.Filter != "PASS" && v.Filter != "." {
			p.skipped++
			continue
		}
		return v, nil
	}
}

// parseLine parses the eight fixed VCF columns of a data line.
func (p *Parser) parseLine(line string) (*Variant, error) {
	fields := strings.SplitN(line, "\t", 9)
	if len(fields) < 8 {
		return nil, p.errorf("expected at least 8 columns, found %d", len(fields))
	}

	pos, err := strconv.ParseInt(fields[1], 10, 64)
	if err != nil || pos < 1 {
		return nil, p.errorf("invalid position: %s", fields[1])
	}

	ref := strings.ToUpper(fields[3])
	if !isBases(ref) {
		return nil, p.errorf("invalid reference allele: %s", fields[3])
	}
	alt := strings.ToUpper(fields[4])
	if alt == "" || alt == "." {
		return nil, p.errorf("missing alternate allele")
	}

	var qual float64
	if fields[5] != "." {
		if qual, err = strconv.ParseFloat(fields[5], 64); err != nil {
			return nil, p.errorf("invalid quality: %s", fields[5])
		}
	}

	return &Variant{
		Chrom:  fields[0],
		Pos:    pos,
		ID:     fields[2],
		Ref:    ref,
		Alt:    alt,
		Qual:   qual,
		Filter: fields[6],
		Info:   parseInfo(fields[7]),
	}, nil
}

func (p *Parser) errorf(format string, args ...any) error {
	return &ParseError{Line: p.lineNumber, Message: fmt.Sprintf(format, args...)}
}

// isBases reports whether s is a non-empty run of A, C, G, T or N.
func isBases(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case 'A', 'C', 'G', 'T', 'N':
		default:
			return false
		}
	}
	return true
}

// parseInfo parses the INFO field into a map. Flags map to "".
func parseInfo(info string) map[string]string {
	result := make(map[string]string)
	if info == "." || info == "" {
		return result
	}
	for _, kv := range strings.Split(info, ";") {
		key, value, _ := strings.Cut(kv, "=")
		result[key] = value
	}
	return result
}

// SplitMultiAllelic returns one variant per comparable alternate allele of v,
// each trimmed to its minimal form with Trim. Symbolic alleles (<DEL>),
// breakends and the "*" spanning-deletion allele describe no sequence and are
// dropped. The INFO map is shared between the split variants.
func SplitMultiAllelic(v *Variant) []*Variant {
	alts := strings.Split(v.Alt, ",")
	variants := make([]*Variant, 0, len(alts))
	for _, alt := range alts {
		if !isBases(alt) {
			continue
		}
		sv := *v
		sv.Alt = alt
		sv = sv.Trim()
		variants = append(variants, &sv)
	}
	return variants
}

// LineNumber returns the current line number being processed.
func (p *Parser) LineNumber() int {
	return p.lineNumber
}

// Close closes the underlying file.
func (p *Parser) Close() error {
	if p.closer == nil {
		return nil
	}
	return p.closer.Close()
}

// ParseError represents an error during VCF parsing with line context.
type ParseError struct {
	Line    int
	Message string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("vcf parse error at line %d: %s", e.Line, e.Message)
}
