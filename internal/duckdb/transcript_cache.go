package duckdb

import (
	"encoding/gob"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"go.uber.org/multierr"

	"github.com/inodb/vibe-serve/internal/cache"
)

// transcriptCacheFormat is bumped whenever cache.Transcript changes shape.
const transcriptCacheFormat = "2"

// TranscriptCache manages gob-serialized transcript data on disk.
// Files are stored alongside the GENCODE source files:
//
//	~/.vibe-serve/{assembly}/transcripts.gob       (serialized transcripts)
//	~/.vibe-serve/{assembly}/transcripts.gob.meta  (source file fingerprints)
type TranscriptCache struct {
	dir string // cache directory (e.g. ~/.vibe-serve/grch38)
}

// NewTranscriptCache creates a transcript cache for the given directory.
func NewTranscriptCache(dir string) *TranscriptCache {
	return &TranscriptCache{dir: dir}
}

func (tc *TranscriptCache) gobPath() string {
	return filepath.Join(tc.dir, "transcripts.gob")
}

func (tc *TranscriptCache) metaPath() string {
	return filepath.Join(tc.dir, "transcripts.gob.meta")
}

func fingerprintLines(gtf, canonical FileFingerprint) []string {
	return []string{
		"format=" + transcriptCacheFormat,
		"gtf_size=" + strconv.FormatInt(gtf.Size, 10),
		"gtf_modtime=" + gtf.ModTime.UTC().Format(time.RFC3339Nano),
		"canonical_size=" + strconv.FormatInt(canonical.Size, 10),
		"canonical_modtime=" + canonical.ModTime.UTC().Format(time.RFC3339Nano),
	}
}

// Valid checks whether the cached transcripts match the current source files.
// A missing canonical overrides file is represented by a zero FileFingerprint.
func (tc *TranscriptCache) Valid(gtf, canonical FileFingerprint) bool {
	meta, err := tc.readMeta()
	if err != nil {
		return false
	}

	for _, line := range fingerprintLines(gtf, canonical) {
		k, v, _ := strings.Cut(line, "=")
		if meta[k] != v {
			return false
		}
	}

	if _, err := os.Stat(tc.gobPath()); err != nil {
		return false
	}
	return true
}

// Load reads serialized transcripts from disk into the cache.
func (tc *TranscriptCache) Load(c *cache.Cache) (err error) {
	f, err := os.Open(tc.gobPath())
	if err != nil {
		return fmt.Errorf("open transcript cache: %w", err)
	}
	defer func() {
		err = multierr.Append(err, f.Close())
	}()

	var data map[string][]*cache.Transcript
	if err := gob.NewDecoder(f).Decode(&data); err != nil {
		return fmt.Errorf("decode transcript cache: %w", err)
	}

	for _, transcripts := range data {
		for _, t := range transcripts {
			c.AddTranscript(t)
		}
	}
	return nil
}

// Write serializes all transcripts from the cache to disk. The gob file is
// written to a temporary name and renamed so readers never see a partial file.
func (tc *TranscriptCache) Write(c *cache.Cache, gtf, canonical FileFingerprint) error {
	data := make(map[string][]*cache.Transcript)
	for _, chrom := range c.Chromosomes() {
		data[chrom] = c.FindTranscriptsByChrom(chrom)
	}

	if err := os.MkdirAll(tc.dir, 0755); err != nil {
		return fmt.Errorf("create cache directory: %w", err)
	}

	tmp := tc.gobPath() + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("create transcript cache: %w", err)
	}

	if err := gob.NewEncoder(f).Encode(data); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("encode transcript cache: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("close transcript cache: %w", err)
	}
	if err := os.Rename(tmp, tc.gobPath()); err != nil {
		return fmt.Errorf("install transcript cache: %w", err)
	}

	return tc.writeMeta(gtf, canonical)
}

// Clear removes the cached transcript files.
func (tc *TranscriptCache) Clear() {
	os.Remove(tc.gobPath())
	os.Remove(tc.metaPath())
}

func (tc *TranscriptCache) writeMeta(gtf, canonical FileFingerprint) error {
	lines := append(fingerprintLines(gtf, canonical),
		"created_at="+time.Now().UTC().Format(time.RFC3339),
		"",
	)
	return os.WriteFile(tc.metaPath(), []byte(strings.Join(lines, "\n")), 0644)
}

func (tc *TranscriptCache) readMeta() (map[string]string, error) {
	data, err := os.ReadFile(tc.metaPath())
	if err != nil {
		return nil, err
	}

	meta := make(map[string]string)
	for _, line := range strings.Split(string(data), "\n") {
		if k, v, ok := strings.Cut(line, "="); ok {
			meta[k] = v
		}
	}
	return meta, nil
}
