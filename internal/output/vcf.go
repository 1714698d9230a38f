package output

import (
	"bufio"
	"cmp"
	"io"
	"slices"
	"strconv"
	"strings"

	"github.com/inodb/vibe-serve/internal/extract"
	"github.com/inodb/vibe-serve/internal/genome"
)

// INFO header lines in output order.
var hotspotInfoLines = []string{
	`##INFO=<ID=GENE,Number=.,Type=String,Description="Gene symbol of each known event">`,
	`##INFO=<ID=TRANSCRIPT,Number=.,Type=String,Description="Transcript the event was resolved on">`,
	`##INFO=<ID=EVENT,Number=.,Type=String,Description="Curated event description (percent-encoded)">`,
	`##INFO=<ID=SOURCE,Number=.,Type=String,Description="Knowledgebase the event came from">`,
}

// infoEscaper percent-encodes characters that are reserved in INFO values.
var infoEscaper = strings.NewReplacer(
	"%", "%25",
	" ", "%20",
	";", "%3B",
	"=", "%3D",
	",", "%2C",
	"\t", "%09",
)

type alleleKey struct {
	chrom    string
	pos      int64
	ref, alt string
}

// HotspotVCFWriter writes known hotspots as a sites-only VCF 4.2 file.
// Hotspots are buffered until Flush, then written sorted by chromosome and
// position. Events sharing an allele are merged into one record whose INFO
// lists have one entry per event.
// It implements extract.Sink.
type HotspotVCFWriter struct {
	w        *bufio.Writer
	assembly string
	order    []alleleKey
	byAllele map[alleleKey][]extract.Hotspot
}

// NewHotspotVCFWriter creates a new VCF writer. assembly is recorded in the
// header when set.
func NewHotspotVCFWriter(w io.Writer, assembly string) *HotspotVCFWriter {
	return &HotspotVCFWriter{
		w:        bufio.NewWriter(w),
		assembly: assembly,
		byAllele: make(map[alleleKey][]extract.Hotspot),
	}
}

// Write buffers the hotspots of r.
func (vw *HotspotVCFWriter) Write(r extract.Result) error {
	for _, h := range r.Hotspots {
		vw.Add(h)
	}
	return nil
}

// Add buffers a single hotspot.
func (vw *HotspotVCFWriter) Add(h extract.Hotspot) {
	k := alleleKey{genome.NormalizeChrom(h.Chrom), h.Pos, h.Ref, h.Alt}
	existing := vw.byAllele[k]
	if len(existing) == 0 {
		vw.order = append(vw.order, k)
	}
	for _, e := range existing {
		if e.TranscriptID == h.TranscriptID && e.Event == h.Event && e.Source == h.Source {
			return
		}
	}
	vw.byAllele[k] = append(existing, h)
}

// Flush writes the header and all buffered records, then flushes the
// underlying writer.
func (vw *HotspotVCFWriter) Flush() error {
	if err := vw.writeHeader(); err != nil {
		return err
	}

	slices.SortFunc(vw.order, func(a, b alleleKey) int {
		return cmp.Or(
			compareChrom(a.chrom, b.chrom),
			cmp.Compare(a.pos, b.pos),
			cmp.Compare(a.ref, b.ref),
			cmp.Compare(a.alt, b.alt),
		)
	})

	var lb strings.Builder
	for _, k := range vw.order {
		lb.Reset()
		writeRecord(&lb, k, vw.byAllele[k])
		if _, err := vw.w.WriteString(lb.String()); err != nil {
			return err
		}
	}
	vw.order = nil
	clear(vw.byAllele)
	return vw.w.Flush()
}

func (vw *HotspotVCFWriter) writeHeader() error {
	lines := []string{"##fileformat=VCFv4.2", "##source=vibe-serve"}
	if vw.assembly != "" {
		lines = append(lines, "##reference="+vw.assembly)
	}
	lines = append(lines, hotspotInfoLines...)
	lines = append(lines, "#CHROM\tPOS\tID\tREF\tALT\tQUAL\tFILTER\tINFO")
	for _, line := range lines {
		if _, err := vw.w.WriteString(line + "\n"); err != nil {
			return err
		}
	}
	return nil
}

func writeRecord(b *strings.Builder, k alleleKey, hs []extract.Hotspot) {
	b.WriteString(k.chrom)
	b.WriteByte('\t')
	b.WriteString(strconv.FormatInt(k.pos, 10))
	b.WriteString("\t.\t")
	b.WriteString(k.ref)
	b.WriteByte('\t')
	b.WriteString(k.alt)
	b.WriteString("\t.\t.\t")

	writeInfo(b, "GENE", hs, func(h extract.Hotspot) string { return h.Gene })
	b.WriteByte(';')
	writeInfo(b, "TRANSCRIPT", hs, func(h extract.Hotspot) string { return h.TranscriptID })
	b.WriteByte(';')
	writeInfo(b, "EVENT", hs, func(h extract.Hotspot) string { return h.Event })
	b.WriteByte(';')
	writeInfo(b, "SOURCE", hs, func(h extract.Hotspot) string { return h.Source })
	b.WriteByte('\n')
}

func writeInfo(b *strings.Builder, key string, hs []extract.Hotspot, field func(extract.Hotspot) string) {
	b.WriteString(key)
	b.WriteByte('=')
	for i, h := range hs {
		if i > 0 {
			b.WriteByte(',')
		}
		v := field(h)
		if v == "" {
			v = "."
		}
		b.WriteString(infoEscaper.Replace(v))
	}
}

// compareChrom orders chromosomes 1-22 numerically, then X, Y, MT, then
// any other contig lexically.
func compareChrom(a, b string) int {
	return cmp.Or(cmp.Compare(chromRank(a), chromRank(b)), cmp.Compare(a, b))
}

func chromRank(c string) int {
	if n, err := strconv.Atoi(c); err == nil && n > 0 {
		return n
	}
	switch c {
	case "X":
		return 1000
	case "Y":
		return 1001
	case "M", "MT":
		return 1002
	}
	return 2000
}
