// Package alphamissense looks up AlphaMissense pathogenicity scores for
// missense SNVs, backed by DuckDB. Scores are loaded from the official TSV
// files (Cheng et al., Science 2023, CC BY 4.0).
package alphamissense

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	_ "github.com/marcboeker/go-duckdb"

	"github.com/inodb/vibe-serve/internal/genome"
	"github.com/inodb/vibe-serve/internal/vcf"
)

// Classes of the am_class column.
const (
	ClassLikelyBenign     = "likely_benign"
	ClassAmbiguous        = "ambiguous"
	ClassLikelyPathogenic = "likely_pathogenic"
)

// Result holds the score of one allele.
type Result struct {
	Score float64
	Class string
}

// Store provides AlphaMissense score lookups. It is safe for concurrent use.
type Store struct {
	db *sql.DB

	mu     sync.Mutex
	lookup *sql.Stmt
}

// Open opens or creates a score database at dbPath. An empty path opens an
// in-memory database.
func Open(dbPath string) (*Store, error) {
	if dbPath != "" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
			return nil, fmt.Errorf("create directory: %w", err)
		}
	}
	db, err := sql.Open("duckdb", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open duckdb: %w", err)
	}
	s := &Store{db: db}
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS alphamissense (
		chrom VARCHAR,
		pos BIGINT,
		ref VARCHAR,
		alt VARCHAR,
		am_pathogenicity FLOAT,
		am_class VARCHAR
	)`); err != nil {
		db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	return s, nil
}

// Load replaces the stored scores with those of an AlphaMissense TSV, plain
// or gzipped. The file has three comment lines and a header:
//
//	#CHROM  POS  REF  ALT  genome  uniprot_id  transcript_id  protein_variant  am_pathogenicity  am_class
//
// An allele appears once per transcript with the same score; one row is kept.
// Chromosomes are stored without the "chr" prefix.
func (s *Store) Load(tsvPath string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin load: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM alphamissense`); err != nil {
		return fmt.Errorf("clear scores: %w", err)
	}
	query := fmt.Sprintf(`INSERT INTO alphamissense
		SELECT DISTINCT regexp_replace(column0, '^chr', ''), column1, column2, column3,
			CAST(column8 AS FLOAT), column9
		FROM read_csv('%s', delim='\t', header=false, skip=4,
			columns={
				'column0': 'VARCHAR',
				'column1': 'BIGINT',
				'column2': 'VARCHAR',
				'column3': 'VARCHAR',
				'column4': 'VARCHAR',
				'column5': 'VARCHAR',
				'column6': 'VARCHAR',
				'column7': 'VARCHAR',
				'column8': 'VARCHAR',
				'column9': 'VARCHAR'
			})`, strings.ReplaceAll(tsvPath, "'", "''"))
	if _, err := tx.Exec(query); err != nil {
		return fmt.Errorf("load AlphaMissense data: %w", err)
	}
	if _, err := tx.Exec(`CREATE INDEX IF NOT EXISTS idx_am_lookup ON alphamissense (chrom, pos, ref, alt)`); err != nil {
		return fmt.Errorf("index scores: %w", err)
	}
	return tx.Commit()
}

// Count returns the number of stored alleles.
func (s *Store) Count() (int64, error) {
	var n int64
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM alphamissense`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count alphamissense rows: %w", err)
	}
	return n, nil
}

// Lookup returns the score of a single-base substitution. Other alleles are
// never scored.
func (s *Store) Lookup(chrom string, pos int64, ref, alt string) (Result, bool, error) {
	if len(ref) != 1 || len(alt) != 1 {
		return Result{}, false, nil
	}

	s.mu.Lock()
	if s.lookup == nil {
		ps, err := s.db.Prepare(`SELECT am_pathogenicity, am_class FROM alphamissense
			WHERE chrom = ? AND pos = ? AND ref = ? AND alt = ? LIMIT 1`)
		if err != nil {
			s.mu.Unlock()
			return Result{}, false, fmt.Errorf("prepare lookup: %w", err)
		}
		s.lookup = ps
	}
	ps := s.lookup
	s.mu.Unlock()

	var r Result
	err := ps.QueryRow(genome.NormalizeChrom(chrom), pos, ref, alt).Scan(&r.Score, &r.Class)
	if errors.Is(err, sql.ErrNoRows) {
		return Result{}, false, nil
	}
	if err != nil {
		return Result{}, false, fmt.Errorf("lookup %s:%d:%s:%s: %w", chrom, pos, ref, alt, err)
	}
	return r, true, nil
}

// ScoreAllele returns the score and class of v, or an empty class when v is
// not scored.
func (s *Store) ScoreAllele(v *vcf.Variant) (float64, string, error) {
	r, ok, err := s.Lookup(v.Chrom, v.Pos, v.Ref, v.Alt)
	if err != nil || !ok {
		return 0, "", err
	}
	return r.Score, r.Class, nil
}

// Close closes the database.
func (s *Store) Close() error {
	if s.lookup != nil {
		s.lookup.Close()
	}
	return s.db.Close()
}
