package cache

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	// ErrTranscriptNotFound is returned when no transcript matches a gene or ID.
	ErrTranscriptNotFound = errors.New("transcript not found")
	// ErrNotCoding is returned when a gene has no protein-coding transcript.
	ErrNotCoding = errors.New("no protein-coding transcript")
)

// Cache provides lookup of transcripts by chromosome, gene and ID.
// It is filled once by a loader and then shared read-only between workers.
type Cache struct {
	// transcripts stores transcripts indexed by chromosome
	transcripts map[string][]*Transcript
	byID        map[string]*Transcript
	byGene      map[string][]*Transcript
}

// New creates a new empty cache.
func New() *Cache {
	return &Cache{
		transcripts: make(map[string][]*Transcript),
		byID:        make(map[string]*Transcript),
		byGene:      make(map[string][]*Transcript),
	}
}

// AddTranscript adds a transcript to the cache.
func (c *Cache) AddTranscript(t *Transcript) {
	c.transcripts[t.Chrom] = append(c.transcripts[t.Chrom], t)
	c.byID[stripVersion(t.ID)] = t
	if t.GeneName != "" {
		c.byGene[t.GeneName] = append(c.byGene[t.GeneName], t)
	}
}

// FindTranscripts returns all transcripts that overlap a given genomic position.
func (c *Cache) FindTranscripts(chrom string, pos int64) []*Transcript {
	var result []*Transcript
	for _, t := range c.transcripts[normalizeChrom(chrom)] {
		if t.Contains(pos) {
			result = append(result, t)
		}
	}
	return result
}

// GetTranscript returns a specific transcript by ID, with or without version, or nil if not found.
func (c *Cache) GetTranscript(id string) *Transcript {
	return c.byID[stripVersion(id)]
}

// FindTranscriptsByGene returns all transcripts of a gene symbol.
func (c *Cache) FindTranscriptsByGene(gene string) []*Transcript {
	return c.byGene[gene]
}

// CanonicalTranscript returns the canonical protein-coding transcript of a gene,
// falling back to the first protein-coding transcript.
func (c *Cache) CanonicalTranscript(gene string) (*Transcript, error) {
	transcripts := c.byGene[gene]
	if len(transcripts) == 0 {
		return nil, fmt.Errorf("gene %q: %w", gene, ErrTranscriptNotFound)
	}
	var fallback *Transcript
	for _, t := range transcripts {
		if !t.IsProteinCoding() {
			continue
		}
		if t.IsCanonical {
			return t, nil
		}
		if fallback == nil {
			fallback = t
		}
	}
	if fallback == nil {
		return nil, fmt.Errorf("gene %q: %w", gene, ErrNotCoding)
	}
	return fallback, nil
}

// Resolve returns the transcript with the given ID when transcriptID is set,
// otherwise the canonical transcript of gene.
func (c *Cache) Resolve(gene, transcriptID string) (*Transcript, error) {
	if strings.TrimSpace(transcriptID) == "" {
		return c.CanonicalTranscript(gene)
	}
	t := c.GetTranscript(transcriptID)
	if t == nil {
		return nil, fmt.Errorf("transcript %q: %w", transcriptID, ErrTranscriptNotFound)
	}
	return t, nil
}

// TranscriptCount returns the total number of transcripts in the cache.
func (c *Cache) TranscriptCount() int {
	count := 0
	for _, transcripts := range c.transcripts {
		count += len(transcripts)
	}
	return count
}

// Chromosomes returns a sorted list of chromosomes in the cache.
func (c *Cache) Chromosomes() []string {
	chroms := make([]string, 0, len(c.transcripts))
	for chrom := range c.transcripts {
		chroms = append(chroms, chrom)
	}
	sort.Strings(chroms)
	return chroms
}

// FindTranscriptsByChrom returns all transcripts for a chromosome.
func (c *Cache) FindTranscriptsByChrom(chrom string) []*Transcript {
	return c.transcripts[normalizeChrom(chrom)]
}
