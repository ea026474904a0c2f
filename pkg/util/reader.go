// Package util provides utility functions for file operations.
package util

import (
	"compress/gzip"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// OpenFile opens a file, automatically decompressing if it's gzip-compressed.
// Returns the reader, a cleanup function (to close resources), and any error.
// The caller must call the cleanup function when done reading.
func OpenFile(path string) (io.Reader, func() error, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	return Decompress(path, file)
}

// Decompress wraps rc in a gzip reader when name indicates gzip compression.
// The returned cleanup closes both the decompressor and rc.
func Decompress(name string, rc io.ReadCloser) (io.Reader, func() error, error) {
	if !IsGzipFile(name) {
		return rc, rc.Close, nil
	}

	gzReader, err := gzip.NewReader(rc)
	if err != nil {
		rc.Close()
		return nil, nil, err
	}
	cleanup := func() error {
		gzReader.Close()
		return rc.Close()
	}
	return gzReader, cleanup, nil
}

// IsGzipFile returns true if the file path indicates gzip compression.
func IsGzipFile(path string) bool {
	return strings.HasSuffix(strings.ToLower(path), ".gz")
}

// StripCompression removes compression extensions (.gz) from a path.
func StripCompression(path string) string {
	lower := strings.ToLower(path)
	if strings.HasSuffix(lower, ".gz") {
		return path[:len(path)-3]
	}
	return path
}

// BaseFormat extracts the format extension after stripping compression.
// e.g., "file.xes.gz" -> ".xes", "file.csv" -> ".csv"
func BaseFormat(path string) string {
	stripped := StripCompression(path)
	return strings.ToLower(filepath.Ext(stripped))
}

// Stem returns the base name of p up to its first dot.
// e.g., "/data/BPI_2012.xes.gz" -> "BPI_2012", "s3://b/k/log.xes" -> "log"
func Stem(p string) string {
	base := path.Base(filepath.ToSlash(p))
	if i := strings.IndexByte(base, '.'); i >= 0 {
		return base[:i]
	}
	return base
}
