package utils

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Compression identifies the codec implied by a file suffix.
type Compression string

const (
	CompressionNone Compression = ""
	CompressionZstd Compression = "zstd"
	CompressionLZ4  Compression = "lz4"
)

var extCompression = map[string]Compression{
	".zst":  CompressionZstd,
	".zstd": CompressionZstd,
	".lz4":  CompressionLZ4,
}

// IsCompressedExt reports whether ext (with leading dot) selects a codec.
func IsCompressedExt(ext string) bool {
	_, ok := extCompression[strings.ToLower(ext)]
	return ok
}

// CompressionFor returns the codec selected by path's suffix.
func CompressionFor(path string) Compression {
	return extCompression[strings.ToLower(filepath.Ext(path))]
}

// OpenInput opens path for reading, decompressing .zst and .lz4 files.
func OpenInput(path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open input %s: %w", path, err)
	}
	switch CompressionFor(path) {
	case CompressionZstd:
		dec, err := zstd.NewReader(f)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("zstd reader %s: %w", path, err)
		}
		return &readCloser{Reader: dec, closers: []func() error{
			func() error { dec.Close(); return nil },
			f.Close,
		}}, nil
	case CompressionLZ4:
		return &readCloser{Reader: lz4.NewReader(f), closers: []func() error{f.Close}}, nil
	}
	return f, nil
}

// CreateOutput creates (or truncates) path for writing, compressing the
// stream when the suffix is .zst or .lz4. Close flushes the codec and the file.
func CreateOutput(path string) (io.WriteCloser, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create output %s: %w", path, err)
	}
	switch CompressionFor(path) {
	case CompressionZstd:
		enc, err := zstd.NewWriter(f)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("zstd writer %s: %w", path, err)
		}
		return &writeCloser{Writer: enc, closers: []func() error{enc.Close, f.Close}}, nil
	case CompressionLZ4:
		zw := lz4.NewWriter(f)
		return &writeCloser{Writer: zw, closers: []func() error{zw.Close, f.Close}}, nil
	}
	return f, nil
}

type readCloser struct {
	io.Reader
	closers []func() error
}

func (r *readCloser) Close() error {
	var errs []error
	for _, c := range r.closers {
		errs = append(errs, c())
	}
	return errors.Join(errs...)
}

type writeCloser struct {
	io.Writer
	closers []func() error
}

func (w *writeCloser) Close() error {
	var errs []error
	for _, c := range w.closers {
		errs = append(errs, c())
	}
	return errors.Join(errs...)
}
