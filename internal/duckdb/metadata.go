package duckdb

import (
	"errors"
	"io/fs"
	"os"
	"time"
)

// FileFingerprint holds stat-based identity for a file.
type FileFingerprint struct {
	Path    string
	Size    int64
	ModTime time.Time
}

// StatFile creates a FileFingerprint from an on-disk file.
func StatFile(path string) (FileFingerprint, error) {
	info, err := os.Stat(path)
	if err != nil {
		return FileFingerprint{}, err
	}
	return FileFingerprint{
		Path:    path,
		Size:    info.Size(),
		ModTime: info.ModTime(),
	}, nil
}

// StatOptionalFile is StatFile for inputs that may be absent, such as the
// canonical overrides file. A missing file yields a zero fingerprint.
func StatOptionalFile(path string) (FileFingerprint, error) {
	fp, err := StatFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return FileFingerprint{Path: path}, nil
	}
	return fp, err
}
