package cache

import (
	"bufio"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/inodb/vibe-serve/internal/genome"
)

// GTFLoader loads the transcript model from GENCODE GTF files.
type GTFLoader struct {
	path               string
	canonicalOverrides CanonicalOverrides
	logger             *zap.Logger
}

// NewGTFLoader creates a new GTF loader.
func NewGTFLoader(path string) *GTFLoader {
	return &GTFLoader{path: path, logger: zap.NewNop()}
}

// SetLogger sets the logger used to report skipped transcripts.
func (l *GTFLoader) SetLogger(logger *zap.Logger) {
	l.logger = logger
}

// SetCanonicalOverrides sets canonical transcript overrides.
// For each gene with an override, the matching transcript is marked
// as canonical and other transcripts for that gene are unmarked.
func (l *GTFLoader) SetCanonicalOverrides(overrides CanonicalOverrides) {
	l.canonicalOverrides = overrides
}

// Load loads all transcripts from the GTF file into the cache.
func (l *GTFLoader) Load(c *Cache) error {
	return l.loadGTF(c, "")
}

// LoadChromosome loads transcripts for a specific chromosome.
func (l *GTFLoader) LoadChromosome(c *Cache, chrom string) error {
	return l.loadGTF(c, chrom)
}

// loadGTF parses the GTF file and populates the cache.
// If filterChrom is non-empty, only loads that chromosome.
func (l *GTFLoader) loadGTF(c *Cache, filterChrom string) error {
	f, err := os.Open(l.path)
	if err != nil {
		return fmt.Errorf("open GTF file: %w", err)
	}
	defer f.Close()

	var reader io.Reader = f

	// Handle gzipped files
	if strings.HasSuffix(l.path, ".gz") {
		gz, err := gzip.NewReader(f)
		if err != nil {
			return fmt.Errorf("open gzip reader: %w", err)
		}
		defer gz.Close()
		reader = gz
	}

	transcripts, err := l.parseGTF(reader, filterChrom)
	if err != nil {
		return err
	}

	if len(l.canonicalOverrides) > 0 {
		l.canonicalOverrides.apply(transcripts)
	}

	// Sorted insertion keeps per-gene transcript order stable across runs.
	ids := make([]string, 0, len(transcripts))
	for id := range transcripts {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		c.AddTranscript(transcripts[id])
	}

	return nil
}

// gtfFeature represents a parsed GTF line.
type gtfFeature struct {
	chrom       string
	featureType string
	start       int64
	end         int64
	strand      genome.Strand
	attributes  map[string]string
}

// parseGTF parses GTF content and returns transcripts keyed by versionless ID.
func (l *GTFLoader) parseGTF(reader io.Reader, filterChrom string) (map[string]*Transcript, error) {
	scanner := bufio.NewScanner(reader)
	// Increase buffer size for long lines
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 1024*1024)

	transcripts := make(map[string]*Transcript)
	exonsByTranscript := make(map[string][]Exon)
	cdsByTranscript := make(map[string][][2]int64) // start, end pairs

	for scanner.Scan() {
		line := scanner.Text()

		// Skip comments and empty lines
		if strings.HasPrefix(line, "#") || line == "" {
			continue
		}

		feat, err := parseLine(line)
		if err != nil {
			continue // Skip malformed lines
		}

		if filterChrom != "" && feat.chrom != normalizeChrom(filterChrom) {
			continue
		}

		transcriptID := feat.attributes["transcript_id"]
		if transcriptID == "" {
			continue
		}
		transcriptID = stripVersion(transcriptID)

		switch feat.featureType {
		case "transcript":
			tags := feat.attributes["tag"]
			transcripts[transcriptID] = &Transcript{
				ID:           transcriptID,
				GeneID:       stripVersion(feat.attributes["gene_id"]),
				GeneName:     feat.attributes["gene_name"],
				Chrom:        feat.chrom,
				Start:        feat.start,
				End:          feat.end,
				Strand:       int8(feat.strand),
				Biotype:      feat.attributes["transcript_type"],
				IsCanonical:  strings.Contains(tags, "Ensembl_canonical"),
				IsMANESelect: strings.Contains(tags, "MANE_Select"),
			}

		case "exon":
			exonNum, _ := strconv.Atoi(feat.attributes["exon_number"])
			exonsByTranscript[transcriptID] = append(exonsByTranscript[transcriptID], Exon{
				Number: exonNum,
				Start:  feat.start,
				End:    feat.end,
			})

		case "CDS", "stop_codon":
			// GENCODE CDS features exclude the stop codon; the coding window
			// used for codon ranks includes it.
			cdsByTranscript[transcriptID] = append(cdsByTranscript[transcriptID], [2]int64{feat.start, feat.end})
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan GTF: %w", err)
	}

	for id, t := range transcripts {
		exons := exonsByTranscript[id]
		if len(exons) == 0 {
			delete(transcripts, id)
			continue
		}
		assemble(t, exons, cdsByTranscript[id])

		if err := t.Validate(); err != nil {
			l.logger.Warn("skipping transcript", zap.String("transcript", id), zap.Error(err))
			delete(transcripts, id)
		}
	}

	return transcripts, nil
}

// assemble sorts exons genomically, assigns strand-order ranks and derives the
// coding window and per-exon coding portions from CDS features.
func assemble(t *Transcript, exons []Exon, cdsRegions [][2]int64) {
	sort.Slice(exons, func(i, j int) bool {
		return exons[i].Start < exons[j].Start
	})

	// Ranks are contiguous from 1 in translation order.
	n := len(exons)
	for i := range exons {
		if t.IsReverseStrand() {
			exons[i].Number = n - i
		} else {
			exons[i].Number = i + 1
		}
	}

	if len(cdsRegions) > 0 {
		minStart, maxEnd := cdsRegions[0][0], cdsRegions[0][1]
		for _, region := range cdsRegions[1:] {
			minStart = min(minStart, region[0])
			maxEnd = max(maxEnd, region[1])
		}
		t.CDSStart = minStart
		t.CDSEnd = maxEnd

		for i := range exons {
			e := &exons[i]
			if e.End >= t.CDSStart && e.Start <= t.CDSEnd {
				e.CDSStart = max(e.Start, t.CDSStart)
				e.CDSEnd = min(e.End, t.CDSEnd)
			}
		}
	}

	t.Exons = exons
}

// parseLine parses a single GTF line.
func parseLine(line string) (*gtfFeature, error) {
	fields := strings.Split(line, "\t")
	if len(fields) < 9 {
		return nil, fmt.Errorf("invalid GTF line: expected 9 fields, got %d", len(fields))
	}

	start, err := strconv.ParseInt(fields[3], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("parse start: %w", err)
	}

	end, err := strconv.ParseInt(fields[4], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("parse end: %w", err)
	}

	strand, err := genome.ParseStrand(fields[6])
	if err != nil {
		return nil, err
	}

	return &gtfFeature{
		chrom:       normalizeChrom(fields[0]),
		featureType: fields[2],
		start:       start,
		end:         end,
		strand:      strand,
		attributes:  parseAttributes(fields[8]),
	}, nil
}

// parseAttributes parses GTF attribute column.
// Format: key "value"; key "value"; ...
// Repeated keys such as tag are joined with ",".
func parseAttributes(attrStr string) map[string]string {
	attrs := make(map[string]string)

	for _, part := range strings.Split(attrStr, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		key, value, ok := strings.Cut(part, " ")
		if !ok {
			continue
		}
		value = strings.Trim(strings.TrimSpace(value), "\"")

		if prev, seen := attrs[key]; seen {
			value = prev + "," + value
		}
		attrs[key] = value
	}

	return attrs
}

// stripVersion removes the version suffix from an Ensembl ID.
// e.g., "ENST00000456328.2" -> "ENST00000456328"
func stripVersion(id string) string {
	if idx := strings.LastIndex(id, "."); idx != -1 {
		return id[:idx]
	}
	return id
}

// normalizeChrom normalizes chromosome names by removing "chr" prefix.
func normalizeChrom(chrom string) string {
	return genome.NormalizeChrom(chrom)
}
