package duckdb

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"fmt"
	"strings"

	"github.com/google/uuid"
	goduckdb "github.com/marcboeker/go-duckdb"
	"go.uber.org/multierr"

	"github.com/inodb/vibe-serve/internal/events"
	"github.com/inodb/vibe-serve/internal/extract"
	"github.com/inodb/vibe-serve/internal/genome"
)

// hotspotKey is the composite key for deduplicating hotspots before writing.
type hotspotKey struct {
	chrom, ref, alt, transcriptID, event, source string
	pos                                          int64
}

// regionKey is the composite key for deduplicating regions before writing.
type regionKey struct {
	chrom, transcriptID, event, source string
	start, end                         int64
}

// RunWriter buffers the results of one extraction run and writes them on Flush.
// It implements extract.Sink.
type RunWriter struct {
	store    *Store
	runID    string
	hotspots []extract.Hotspot
	regions  []extract.Region
}

// RunID returns the UUID of the run.
func (w *RunWriter) RunID() string {
	return w.runID
}

// Write buffers the hotspots and regions of r.
func (w *RunWriter) Write(r extract.Result) error {
	w.hotspots = append(w.hotspots, r.Hotspots...)
	w.regions = append(w.regions, r.Regions...)
	return nil
}

// Flush writes buffered results and resets the buffers.
func (w *RunWriter) Flush() error {
	if err := w.store.WriteHotspots(w.runID, w.hotspots); err != nil {
		return err
	}
	if err := w.store.WriteRegions(w.runID, w.regions); err != nil {
		return err
	}
	w.hotspots, w.regions = nil, nil
	return nil
}

// WriteHotspots batch-inserts hotspots using the Appender API.
// Duplicate (chrom, pos, ref, alt, transcript_id, event, source) entries are
// deduplicated before writing.
func (s *Store) WriteHotspots(runID string, hotspots []extract.Hotspot) error {
	if len(hotspots) == 0 {
		return nil
	}

	seen := make(map[hotspotKey]bool, len(hotspots))
	return s.appendRows("known_hotspots", func(a *goduckdb.Appender) error {
		for _, h := range hotspots {
			chrom := genome.NormalizeChrom(h.Chrom)
			k := hotspotKey{chrom, h.Ref, h.Alt, h.TranscriptID, h.Event, h.Source, h.Pos}
			if seen[k] {
				continue
			}
			seen[k] = true
			if err := a.AppendRow(runID, chrom, h.Pos, h.Ref, h.Alt, h.Gene, h.TranscriptID, h.Event, h.Source); err != nil {
				return fmt.Errorf("append hotspot: %w", err)
			}
		}
		return nil
	})
}

// WriteRegions batch-inserts regions using the Appender API.
// Duplicate entries are deduplicated before writing.
func (s *Store) WriteRegions(runID string, regions []extract.Region) error {
	if len(regions) == 0 {
		return nil
	}

	seen := make(map[regionKey]bool, len(regions))
	return s.appendRows("known_regions", func(a *goduckdb.Appender) error {
		for _, r := range regions {
			chrom := genome.NormalizeChrom(r.Chrom)
			k := regionKey{chrom, r.TranscriptID, r.Event, r.Source, r.Start, r.End}
			if seen[k] {
				continue
			}
			seen[k] = true
			if err := a.AppendRow(runID, r.Kind.String(), chrom, r.Start, r.End, r.Gene, r.TranscriptID, r.Event, r.Source); err != nil {
				return fmt.Errorf("append region: %w", err)
			}
		}
		return nil
	})
}

// appendRows appends rows into a staging copy of table and then moves them
// over with INSERT OR IGNORE, so rows already stored by an earlier run are
// skipped instead of failing the whole batch on the primary key.
func (s *Store) appendRows(table string, fill func(*goduckdb.Appender) error) (err error) {
	ctx := context.Background()
	conn, err := s.db.Conn(ctx)
	if err != nil {
		return fmt.Errorf("get connection: %w", err)
	}
	defer conn.Close()

	staging := "staging_" + table + "_" + strings.ReplaceAll(uuid.NewString(), "-", "")
	if _, err := conn.ExecContext(ctx, fmt.Sprintf(`CREATE TABLE %s AS SELECT * FROM %s LIMIT 0`, staging, table)); err != nil {
		return fmt.Errorf("create staging table for %s: %w", table, err)
	}
	defer func() {
		_, dropErr := conn.ExecContext(ctx, `DROP TABLE IF EXISTS `+staging)
		err = multierr.Append(err, dropErr)
	}()

	if err := fillTable(conn, staging, fill); err != nil {
		return err
	}

	if _, err := conn.ExecContext(ctx, fmt.Sprintf(`INSERT OR IGNORE INTO %s SELECT * FROM %s`, table, staging)); err != nil {
		return fmt.Errorf("insert into %s: %w", table, err)
	}
	return nil
}

// fillTable runs fill against an appender on table and flushes it.
func fillTable(conn *sql.Conn, table string, fill func(*goduckdb.Appender) error) (err error) {
	var appender *goduckdb.Appender
	if err := conn.Raw(func(driverConn any) error {
		var err error
		appender, err = goduckdb.NewAppenderFromConn(driverConn.(driver.Conn), "", table)
		return err
	}); err != nil {
		return fmt.Errorf("create appender: %w", err)
	}
	defer func() {
		err = multierr.Append(err, appender.Close())
	}()

	return fill(appender)
}

// LookupHotspot returns the known hotspots at a specific allele.
func (s *Store) LookupHotspot(chrom string, pos int64, ref, alt string) ([]extract.Hotspot, error) {
	rows, err := s.db.Query(`SELECT chrom, pos, ref, alt, gene, transcript_id, event, source
		FROM known_hotspots
		WHERE chrom=? AND pos=? AND ref=? AND alt=?
		ORDER BY gene, event, source`,
		genome.NormalizeChrom(chrom), pos, ref, alt)
	if err != nil {
		return nil, fmt.Errorf("query hotspot: %w", err)
	}
	defer rows.Close()
	return scanHotspots(rows)
}

// Hotspots returns every known hotspot ordered by position.
func (s *Store) Hotspots() ([]extract.Hotspot, error) {
	rows, err := s.db.Query(`SELECT chrom, pos, ref, alt, gene, transcript_id, event, source
		FROM known_hotspots
		ORDER BY chrom, pos, ref, alt, event, source`)
	if err != nil {
		return nil, fmt.Errorf("query hotspots: %w", err)
	}
	defer rows.Close()
	return scanHotspots(rows)
}

// HotspotsByGene returns the known hotspots of a gene.
func (s *Store) HotspotsByGene(gene string) ([]extract.Hotspot, error) {
	rows, err := s.db.Query(`SELECT chrom, pos, ref, alt, gene, transcript_id, event, source
		FROM known_hotspots
		WHERE gene=?
		ORDER BY chrom, pos, ref, alt, event, source`, gene)
	if err != nil {
		return nil, fmt.Errorf("query hotspots by gene: %w", err)
	}
	defer rows.Close()
	return scanHotspots(rows)
}

// HotspotCount returns the number of stored hotspots.
func (s *Store) HotspotCount() (int, error) {
	var n int
	if err := s.db.QueryRow(`SELECT count(*) FROM known_hotspots`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count hotspots: %w", err)
	}
	return n, nil
}

// Regions returns every known region ordered by position.
func (s *Store) Regions() ([]extract.Region, error) {
	rows, err := s.db.Query(`SELECT kind, chrom, start_pos, end_pos, gene, transcript_id, event, source
		FROM known_regions
		ORDER BY chrom, start_pos, end_pos, event, source`)
	if err != nil {
		return nil, fmt.Errorf("query regions: %w", err)
	}
	defer rows.Close()
	return scanRegions(rows)
}

// RegionsByChrom returns the known regions on one chromosome.
func (s *Store) RegionsByChrom(chrom string) ([]extract.Region, error) {
	rows, err := s.db.Query(`SELECT kind, chrom, start_pos, end_pos, gene, transcript_id, event, source
		FROM known_regions
		WHERE chrom=?
		ORDER BY start_pos, end_pos, event, source`, genome.NormalizeChrom(chrom))
	if err != nil {
		return nil, fmt.Errorf("query regions by chrom: %w", err)
	}
	defer rows.Close()
	return scanRegions(rows)
}

// RegionCount returns the number of stored regions.
func (s *Store) RegionCount() (int, error) {
	var n int
	if err := s.db.QueryRow(`SELECT count(*) FROM known_regions`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count regions: %w", err)
	}
	return n, nil
}

func scanHotspots(rows *sql.Rows) ([]extract.Hotspot, error) {
	var out []extract.Hotspot
	for rows.Next() {
		var h extract.Hotspot
		if err := rows.Scan(&h.Chrom, &h.Pos, &h.Ref, &h.Alt, &h.Gene, &h.TranscriptID, &h.Event, &h.Source); err != nil {
			return nil, fmt.Errorf("scan hotspot: %w", err)
		}
		out = append(out, h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate hotspots: %w", err)
	}
	return out, nil
}

func scanRegions(rows *sql.Rows) ([]extract.Region, error) {
	var out []extract.Region
	for rows.Next() {
		var r extract.Region
		var kind string
		if err := rows.Scan(&kind, &r.Chrom, &r.Start, &r.End, &r.Gene, &r.TranscriptID, &r.Event, &r.Source); err != nil {
			return nil, fmt.Errorf("scan region: %w", err)
		}
		r.Kind = events.ParseType(kind)
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate regions: %w", err)
	}
	return out, nil
}
