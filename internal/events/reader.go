package events

import (
	"bufio"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"strings"

	"go.uber.org/multierr"
)

// Event file column names, matched case-insensitively.
const (
	ColGene       = "gene"
	ColTranscript = "transcript"
	ColEvent      = "event"
	ColSource     = "source"
)

// ColumnIndices holds the indices of the event file columns, -1 if absent.
type ColumnIndices struct {
	Gene       int
	Transcript int
	Event      int
	Source     int
}

// Reader reads events from a tab-delimited file.
type Reader struct {
	reader     *bufio.Reader
	file       *os.File
	gzipReader *gzip.Reader
	lineNumber int
	columns    ColumnIndices
}

// NewReader creates a new event reader for the given file.
// Supports both plain and gzipped files; "-" reads stdin.
func NewReader(path string) (*Reader, error) {
	if path == "-" {
		return NewReaderFromReader(os.Stdin)
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open events file: %w", err)
	}

	r := &Reader{file: file}

	// Check for gzip magic bytes
	buf := make([]byte, 2)
	n, err := file.Read(buf)
	if err != nil && err != io.EOF {
		file.Close()
		return nil, fmt.Errorf("read events header: %w", err)
	}
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		file.Close()
		return nil, fmt.Errorf("seek events file: %w", err)
	}

	if n == 2 && buf[0] == 0x1f && buf[1] == 0x8b {
		r.gzipReader, err = gzip.NewReader(file)
		if err != nil {
			file.Close()
			return nil, fmt.Errorf("create gzip reader: %w", err)
		}
		r.reader = bufio.NewReader(r.gzipReader)
	} else {
		r.reader = bufio.NewReader(file)
	}

	if err := r.parseHeader(); err != nil {
		r.Close()
		return nil, err
	}

	return r, nil
}

// NewReaderFromReader creates an event reader from an io.Reader.
func NewReaderFromReader(in io.Reader) (*Reader, error) {
	r := &Reader{reader: bufio.NewReader(in)}
	if err := r.parseHeader(); err != nil {
		return nil, err
	}
	return r, nil
}

// parseHeader skips comments and reads the column header line.
func (r *Reader) parseHeader() error {
	for {
		line, err := r.reader.ReadString('\n')
		if err != nil && (err != io.EOF || line == "") {
			if err == io.EOF {
				return &ParseError{Line: r.lineNumber, Message: "no header line found"}
			}
			return fmt.Errorf("read header: %w", err)
		}
		r.lineNumber++

		line = strings.TrimRight(line, "\r\n")
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		return r.parseColumnIndices(line)
	}
}

func (r *Reader) parseColumnIndices(headerLine string) error {
	r.columns = ColumnIndices{Gene: -1, Transcript: -1, Event: -1, Source: -1}

	for i, col := range strings.Split(headerLine, "\t") {
		switch strings.ToLower(strings.TrimSpace(col)) {
		case ColGene:
			r.columns.Gene = i
		case ColTranscript:
			r.columns.Transcript = i
		case ColEvent:
			r.columns.Event = i
		case ColSource:
			r.columns.Source = i
		}
	}

	if r.columns.Gene == -1 {
		return &ParseError{Line: r.lineNumber, Message: "required column 'gene' not found in header"}
	}
	if r.columns.Event == -1 {
		return &ParseError{Line: r.lineNumber, Message: "required column 'event' not found in header"}
	}
	return nil
}

// Next reads the next event. Returns nil, nil when there are no more events.
func (r *Reader) Next() (*Event, error) {
	for {
		line, err := r.reader.ReadString('\n')
		if err != nil {
			if err != io.EOF {
				return nil, fmt.Errorf("read event line: %w", err)
			}
			if line == "" {
				return nil, nil
			}
		}
		r.lineNumber++

		line = strings.TrimRight(line, "\r\n")
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		return r.parseLine(line)
	}
}

func (r *Reader) parseLine(line string) (*Event, error) {
	fields := strings.Split(line, "\t")

	minCols := max(r.columns.Gene, r.columns.Event)
	if len(fields) <= minCols {
		return nil, &ParseError{
			Line:    r.lineNumber,
			Message: fmt.Sprintf("expected at least %d columns, found %d", minCols+1, len(fields)),
		}
	}

	ev := &Event{
		Gene: strings.TrimSpace(fields[r.columns.Gene]),
		Text: strings.TrimSpace(fields[r.columns.Event]),
		Line: r.lineNumber,
	}
	if ev.Gene == "" || ev.Text == "" {
		return nil, &ParseError{Line: r.lineNumber, Message: "empty gene or event"}
	}
	if i := r.columns.Transcript; i >= 0 && i < len(fields) {
		ev.TranscriptID = strings.TrimSpace(fields[i])
	}
	if i := r.columns.Source; i >= 0 && i < len(fields) {
		ev.Source = strings.TrimSpace(fields[i])
	}
	return ev, nil
}

// Columns returns the parsed column indices.
func (r *Reader) Columns() ColumnIndices {
	return r.columns
}

// LineNumber returns the current line number being processed.
func (r *Reader) LineNumber() int {
	return r.lineNumber
}

// Close closes the reader and underlying file.
func (r *Reader) Close() error {
	var err error
	if r.gzipReader != nil {
		err = multierr.Append(err, r.gzipReader.Close())
	}
	if r.file != nil {
		err = multierr.Append(err, r.file.Close())
	}
	return err
}

// ParseError represents an error during event file parsing with line context.
type ParseError struct {
	Line    int
	Message string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("events parse error at line %d: %s", e.Line, e.Message)
}
