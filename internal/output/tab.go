// Package output provides writers for known events and match results.
package output

import (
	"bufio"
	"io"
	"strconv"
	"strings"

	"github.com/inodb/vibe-serve/internal/extract"
	"github.com/inodb/vibe-serve/internal/match"
)

var (
	hotspotColumns = []string{"#Chrom", "Pos", "Ref", "Alt", "Gene", "Transcript", "Event", "Source"}
	regionColumns  = []string{"#Chrom", "Start", "End", "Kind", "Gene", "Transcript", "Event", "Source"}
	matchColumns   = []string{"#Chrom", "Pos", "Ref", "Alt", "Class", "Level", "Gene", "GeneType", "Transcript", "Event", "Source", "Score", "ScoreClass"}
)

// tabWriter writes tab-delimited rows with "-" for empty fields.
type tabWriter struct {
	w       *bufio.Writer
	columns []string
	row     []string
}

func newTabWriter(w io.Writer, columns []string) tabWriter {
	return tabWriter{w: bufio.NewWriter(w), columns: columns}
}

func (tw *tabWriter) writeHeader() error {
	_, err := tw.w.WriteString(strings.Join(tw.columns, "\t") + "\n")
	return err
}

func (tw *tabWriter) writeRow(fields ...string) error {
	tw.row = tw.row[:0]
	for _, f := range fields {
		if f == "" {
			f = "-"
		}
		tw.row = append(tw.row, f)
	}
	_, err := tw.w.WriteString(strings.Join(tw.row, "\t") + "\n")
	return err
}

// HotspotTSVWriter writes known hotspots in tab-delimited format.
// It implements extract.Sink.
type HotspotTSVWriter struct {
	tabWriter
}

// NewHotspotTSVWriter creates a new hotspot writer.
func NewHotspotTSVWriter(w io.Writer) *HotspotTSVWriter {
	return &HotspotTSVWriter{newTabWriter(w, hotspotColumns)}
}

// WriteHeader writes the header line.
func (hw *HotspotTSVWriter) WriteHeader() error {
	return hw.writeHeader()
}

// Write writes the hotspots of r, one row each.
func (hw *HotspotTSVWriter) Write(r extract.Result) error {
	for _, h := range r.Hotspots {
		if err := hw.WriteHotspot(h); err != nil {
			return err
		}
	}
	return nil
}

// WriteHotspot writes a single hotspot.
func (hw *HotspotTSVWriter) WriteHotspot(h extract.Hotspot) error {
	return hw.writeRow(h.Chrom, strconv.FormatInt(h.Pos, 10), h.Ref, h.Alt,
		h.Gene, h.TranscriptID, h.Event, h.Source)
}

// Flush flushes any buffered data.
func (hw *HotspotTSVWriter) Flush() error {
	return hw.w.Flush()
}

// RegionTSVWriter writes known codon and exon regions in tab-delimited format.
// It implements extract.Sink.
type RegionTSVWriter struct {
	tabWriter
}

// NewRegionTSVWriter creates a new region writer.
func NewRegionTSVWriter(w io.Writer) *RegionTSVWriter {
	return &RegionTSVWriter{newTabWriter(w, regionColumns)}
}

// WriteHeader writes the header line.
func (rw *RegionTSVWriter) WriteHeader() error {
	return rw.writeHeader()
}

// Write writes the regions of r, one row each.
func (rw *RegionTSVWriter) Write(r extract.Result) error {
	for _, reg := range r.Regions {
		if err := rw.WriteRegion(reg); err != nil {
			return err
		}
	}
	return nil
}

// WriteRegion writes a single region.
func (rw *RegionTSVWriter) WriteRegion(reg extract.Region) error {
	return rw.writeRow(reg.Chrom, strconv.FormatInt(reg.Start, 10), strconv.FormatInt(reg.End, 10),
		reg.Kind.String(), reg.Gene, reg.TranscriptID, reg.Event, reg.Source)
}

// Flush flushes any buffered data.
func (rw *RegionTSVWriter) Flush() error {
	return rw.w.Flush()
}

// MatchTSVWriter writes matches of called variants against known events.
type MatchTSVWriter struct {
	tabWriter
}

// NewMatchTSVWriter creates a new match writer.
func NewMatchTSVWriter(w io.Writer) *MatchTSVWriter {
	return &MatchTSVWriter{newTabWriter(w, matchColumns)}
}

// WriteHeader writes the header line.
func (mw *MatchTSVWriter) WriteHeader() error {
	return mw.writeHeader()
}

// Write writes a single match. Unscored alleles get "-" in both score columns.
func (mw *MatchTSVWriter) Write(m match.Match) error {
	v := m.Variant
	score := ""
	if m.ScoreClass != "" {
		score = strconv.FormatFloat(m.Score, 'f', 4, 64)
	}
	return mw.writeRow(v.Chrom, strconv.FormatInt(v.Pos, 10), v.Ref, v.Alt, v.Class(),
		m.Level.String(), m.Gene, m.GeneType, m.TranscriptID, m.Event, m.Source,
		score, m.ScoreClass)
}

// Flush flushes any buffered data.
func (mw *MatchTSVWriter) Flush() error {
	return mw.w.Flush()
}
