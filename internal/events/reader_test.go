package events

import (
	"compress/gzip"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testEvents = `# curated events
Gene	Transcript	Event	Source
BRAF		V600E	oncokb
KRAS	ENST00000256078.9	G12	civic

EGFR		EXON 19 DELETION	oncokb
`

func readAll(t *testing.T, r *Reader) []*Event {
	t.Helper()
	var out []*Event
	for {
		ev, err := r.Next()
		require.NoError(t, err)
		if ev == nil {
			return out
		}
		out = append(out, ev)
	}
}

func TestReader_ReadEvents(t *testing.T) {
	r, err := NewReaderFromReader(strings.NewReader(testEvents))
	require.NoError(t, err)
	defer r.Close()

	assert.Equal(t, ColumnIndices{Gene: 0, Transcript: 1, Event: 2, Source: 3}, r.Columns())

	evs := readAll(t, r)
	require.Len(t, evs, 3)
	assert.Equal(t, &Event{Gene: "BRAF", Text: "V600E", Source: "oncokb", Line: 3}, evs[0])
	assert.Equal(t, "ENST00000256078.9", evs[1].TranscriptID)
	assert.Equal(t, "G12", evs[1].Text)
	assert.Equal(t, 6, evs[2].Line)
}

func TestReader_OptionalColumns(t *testing.T) {
	r, err := NewReaderFromReader(strings.NewReader("event\tgene\nV600E\tBRAF"))
	require.NoError(t, err)

	evs := readAll(t, r)
	require.Len(t, evs, 1)
	assert.Equal(t, "BRAF", evs[0].Gene)
	assert.Empty(t, evs[0].TranscriptID)
	assert.Empty(t, evs[0].Source)
}

func TestReader_Errors(t *testing.T) {
	var pe *ParseError

	_, err := NewReaderFromReader(strings.NewReader("gene\tsource\nBRAF\toncokb\n"))
	require.ErrorAs(t, err, &pe)
	assert.Contains(t, pe.Message, "event")

	_, err = NewReaderFromReader(strings.NewReader("# only comments\n"))
	require.ErrorAs(t, err, &pe)

	r, err := NewReaderFromReader(strings.NewReader("gene\tevent\nBRAF\n"))
	require.NoError(t, err)
	_, err = r.Next()
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, 2, pe.Line)

	r, err = NewReaderFromReader(strings.NewReader("gene\tevent\nBRAF\t \n"))
	require.NoError(t, err)
	_, err = r.Next()
	assert.ErrorAs(t, err, &pe)
}

func TestReader_Gzip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.tsv.gz")
	f, err := os.Create(path)
	require.NoError(t, err)
	gz := gzip.NewWriter(f)
	_, err = gz.Write([]byte(testEvents))
	require.NoError(t, err)
	require.NoError(t, gz.Close())
	require.NoError(t, f.Close())

	r, err := NewReader(path)
	require.NoError(t, err)
	defer r.Close()
	assert.Len(t, readAll(t, r), 3)
}

func TestReader_MissingFile(t *testing.T) {
	_, err := NewReader(filepath.Join(t.TempDir(), "missing.tsv"))
	assert.Error(t, err)
}
