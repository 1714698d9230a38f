package cache

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
)

// CanonicalOverrides maps gene symbol -> canonical transcript ID (no version).
type CanonicalOverrides map[string]string

// Genome Nexus canonical transcript file URLs.
const (
	canonicalFileGRCh38 = "https://raw.githubusercontent.com/genome-nexus/genome-nexus-importer/master/data/grch38_ensembl95/export/ensembl_biomart_canonical_transcripts_per_hgnc.txt"
	canonicalFileGRCh37 = "https://raw.githubusercontent.com/genome-nexus/genome-nexus-importer/master/data/grch37_ensembl92/export/ensembl_biomart_canonical_transcripts_per_hgnc.txt"

	// CanonicalFileName is the local file name of the overrides table.
	CanonicalFileName = "ensembl_biomart_canonical_transcripts_per_hgnc.txt"
)

// Preferred override columns, most specific first. Knowledgebases such as
// OncoKB curate against the MSKCC isoform, so it wins when present.
var canonicalColumns = []string{
	"mskcc_canonical_transcript",
	"genome_nexus_canonical_transcript",
}

// CanonicalFileURL returns the URL for the canonical transcript file for the given assembly.
func CanonicalFileURL(assembly string) string {
	if strings.EqualFold(assembly, "GRCh37") {
		return canonicalFileGRCh37
	}
	return canonicalFileGRCh38
}

// LoadCanonicalOverrides loads canonical transcript overrides from a Genome Nexus TSV file.
func LoadCanonicalOverrides(path string) (CanonicalOverrides, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open canonical overrides file: %w", err)
	}
	defer f.Close()

	return parseCanonicalOverrides(f)
}

// parseCanonicalOverrides parses the TSV content. The gene symbol is the
// first column; the transcript column is chosen from the header, falling
// back to column 4 for headerless exports.
func parseCanonicalOverrides(reader io.Reader) (CanonicalOverrides, error) {
	overrides := make(CanonicalOverrides)
	scanner := bufio.NewScanner(reader)

	if !scanner.Scan() {
		return overrides, nil
	}
	txCol := 4
	header := strings.Split(scanner.Text(), "\t")
	for _, want := range canonicalColumns {
		if idx := indexOf(header, want); idx >= 0 {
			txCol = idx
			break
		}
	}

	for scanner.Scan() {
		fields := strings.Split(scanner.Text(), "\t")
		if len(fields) <= txCol {
			continue
		}

		gene, transcript := fields[0], strings.TrimSpace(fields[txCol])
		if gene == "" || transcript == "" || transcript == "nan" {
			continue
		}
		overrides[gene] = stripVersion(transcript)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan canonical overrides: %w", err)
	}

	return overrides, nil
}

// apply marks the override transcript of each gene canonical and unmarks the
// others. Genes whose override transcript was not loaded keep their GTF tags.
func (o CanonicalOverrides) apply(transcripts map[string]*Transcript) {
	byGene := make(map[string][]*Transcript)
	for _, t := range transcripts {
		if t.GeneName != "" {
			byGene[t.GeneName] = append(byGene[t.GeneName], t)
		}
	}

	for gene, canonicalID := range o {
		if _, ok := transcripts[canonicalID]; !ok {
			continue
		}
		for _, t := range byGene[gene] {
			t.IsCanonical = t.ID == canonicalID
		}
	}
}

// DownloadCanonicalOverrides downloads the canonical transcript file to the given path.
func DownloadCanonicalOverrides(ctx context.Context, assembly, destPath string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, CanonicalFileURL(assembly), nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("download canonical overrides: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("download canonical overrides: HTTP %s", resp.Status)
	}

	tmp := destPath + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("create file: %w", err)
	}
	if _, err := io.Copy(f, resp.Body); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("write canonical overrides: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("close canonical overrides: %w", err)
	}

	if err := os.Rename(tmp, destPath); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("rename canonical overrides: %w", err)
	}
	return nil
}

func indexOf(fields []string, name string) int {
	for i, f := range fields {
		if strings.TrimSpace(f) == name {
			return i
		}
	}
	return -1
}
