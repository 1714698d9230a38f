package genome

import (
	"bufio"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"strings"
)

// FASTALoader loads a reference genome FASTA (e.g. GRCh38.primary_assembly.genome.fa.gz).
type FASTALoader struct {
	path   string
	chroms map[string]bool // optional chromosome filter
}

// NewFASTALoader creates a new genome FASTA loader.
func NewFASTALoader(path string) *FASTALoader {
	return &FASTALoader{path: path}
}

// OnlyChromosomes restricts loading to the given chromosomes.
func (l *FASTALoader) OnlyChromosomes(chroms ...string) {
	l.chroms = make(map[string]bool, len(chroms))
	for _, c := range chroms {
		l.chroms[NormalizeChrom(c)] = true
	}
}

// Load parses the FASTA file into an in-memory reference.
func (l *FASTALoader) Load() (*Sequences, error) {
	f, err := os.Open(l.path)
	if err != nil {
		return nil, fmt.Errorf("open FASTA file: %w", err)
	}
	defer f.Close()

	var reader io.Reader = f

	// Handle gzipped files
	if strings.HasSuffix(l.path, ".gz") {
		gz, err := gzip.NewReader(f)
		if err != nil {
			return nil, fmt.Errorf("open gzip reader: %w", err)
		}
		defer gz.Close()
		reader = gz
	}

	seqs := NewSequences()
	if err := l.parseFASTA(reader, seqs); err != nil {
		return nil, err
	}
	return seqs, nil
}

// parseFASTA parses FASTA content. Headers look like:
// >chr12  AC:CM000674.2  gi:568336012  LN:133275309  rl:Chromosome  M5:...  AS:GRCh38
// Only the first whitespace-delimited token is used as the chromosome name.
func (l *FASTALoader) parseFASTA(reader io.Reader, seqs *Sequences) error {
	scanner := bufio.NewScanner(reader)
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 10*1024*1024)

	var currentChrom string
	var keep bool
	var currentSeq strings.Builder

	flush := func() {
		if currentChrom != "" && keep && currentSeq.Len() > 0 {
			seqs.Add(currentChrom, currentSeq.String())
		}
	}

	for scanner.Scan() {
		line := scanner.Text()

		if strings.HasPrefix(line, ">") {
			flush()
			currentChrom = parseHeader(line)
			keep = l.chroms == nil || l.chroms[NormalizeChrom(currentChrom)]
			currentSeq.Reset()
			continue
		}
		if keep {
			currentSeq.WriteString(strings.TrimSpace(line))
		}
	}
	flush()

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("scan FASTA: %w", err)
	}
	return nil
}

// parseHeader extracts the sequence name from a FASTA header line.
func parseHeader(header string) string {
	header = strings.TrimPrefix(header, ">")
	if fields := strings.Fields(header); len(fields) > 0 {
		return fields[0]
	}
	return header
}
