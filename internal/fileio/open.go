// Package fileio opens input files that may be stored compressed.
package fileio

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// compressed maps a file extension to a function that wraps a reader with
// the corresponding decompressor.
var compressed = map[string]func(r io.Reader) (io.ReadCloser, error){
	".gz": func(r io.Reader) (io.ReadCloser, error) {
		return gzip.NewReader(r)
	},
	".zst": func(r io.Reader) (io.ReadCloser, error) {
		dec, err := zstd.NewReader(r)
		if err != nil {
			return nil, err
		}
		return dec.IOReadCloser(), nil
	},
	".lz4": func(r io.Reader) (io.ReadCloser, error) {
		return io.NopCloser(lz4.NewReader(r)), nil
	},
}

// Open opens the file at path for reading. If the file name ends with
// ".gz", ".zst" or ".lz4", the returned reader decompresses transparently.
// Closing the returned reader closes the underlying file.
func Open(path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	wrap, ok := compressed[strings.ToLower(filepath.Ext(path))]
	if !ok {
		return f, nil
	}
	r, err := wrap(f)
	if err != nil {
		f.Close()
		return nil, err
	}
	return &stacked{r, f}, nil
}

// Ext returns the extension of path after any compression extension has
// been removed. e.g., "run.dcd.gz" gives ".dcd".
func Ext(path string) string {
	ext := strings.ToLower(filepath.Ext(path))
	if _, ok := compressed[ext]; ok {
		ext = strings.ToLower(filepath.Ext(strings.TrimSuffix(path, filepath.Ext(path))))
	}
	return ext
}

type stacked struct {
	io.ReadCloser
	file *os.File
}

func (s *stacked) Close() error {
	err := s.ReadCloser.Close()
	if ferr := s.file.Close(); err == nil {
		err = ferr
	}
	return err
}
