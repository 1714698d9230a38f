package vcf

import (
	"bufio"
	"compress/gzip"
	"fmt"
	"io"
	"os"

	"go.uber.org/multierr"
)

// closerFunc adapts a function to io.Closer.
type closerFunc func() error

func (f closerFunc) Close() error { return f() }

// OpenInput opens path for line reading, "-" meaning stdin. Gzip input is
// detected from its magic bytes rather than the file name, so piped and
// renamed files decompress too.
func OpenInput(path string) (*bufio.Reader, io.Closer, error) {
	var (
		src    io.Reader = os.Stdin
		closer io.Closer = closerFunc(func() error { return nil })
	)
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, nil, fmt.Errorf("open %s: %w", path, err)
		}
		src, closer = f, f
	}
	return sniffGzip(src, closer)
}

// sniffGzip wraps src in a gzip reader when it starts with the gzip magic.
func sniffGzip(src io.Reader, closer io.Closer) (*bufio.Reader, io.Closer, error) {
	br := bufio.NewReader(src)
	magic, err := br.Peek(2)
	if err != nil && err != io.EOF {
		closer.Close()
		return nil, nil, fmt.Errorf("read input: %w", err)
	}
	if len(magic) < 2 || magic[0] != 0x1f || magic[1] != 0x8b {
		return br, closer, nil
	}

	gz, err := gzip.NewReader(br)
	if err != nil {
		closer.Close()
		return nil, nil, fmt.Errorf("create gzip reader: %w", err)
	}
	return bufio.NewReader(gz), closerFunc(func() error {
		return multierr.Append(gz.Close(), closer.Close())
	}), nil
}
