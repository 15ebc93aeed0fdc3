// Package source loads speedtest logs into memory.
package source

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"

	"github.com/kindaran/pia-stats/internal/errs"
)

// Load reads the whole file at path. Rotated logs ending in ".gz" or ".zst"
// are decompressed on the fly.
func Load(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", errs.Read(path, err)
	}
	defer f.Close()

	r, closeFn, err := decompressor(path, f)
	if err != nil {
		return "", errs.Read(path, err)
	}
	defer closeFn()

	data, err := io.ReadAll(r)
	if err != nil {
		return "", errs.Read(path, err)
	}
	return string(data), nil
}

// decompressor wraps r according to the file extension.
func decompressor(path string, r io.Reader) (io.Reader, func(), error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".gz":
		zr, err := gzip.NewReader(r)
		if err != nil {
			return nil, nil, fmt.Errorf("gzip: %w", err)
		}
		return zr, func() { _ = zr.Close() }, nil
	case ".zst":
		zr, err := zstd.NewReader(r)
		if err != nil {
			return nil, nil, fmt.Errorf("zstd: %w", err)
		}
		return zr, zr.Close, nil
	default:
		return r, func() {}, nil
	}
}

// Expand resolves glob patterns to file paths, in pattern order and without
// duplicates. Recursive patterns like logs/**/speedtest*.log are supported.
// A pattern without glob syntax is returned as-is even if the file does not
// exist, so that loading it reports the read failure.
func Expand(patterns []string) ([]string, error) {
	var paths []string
	seen := make(map[string]bool)
	add := func(p string) {
		p = filepath.Clean(p)
		if !seen[p] {
			seen[p] = true
			paths = append(paths, p)
		}
	}

	for _, pattern := range patterns {
		if !hasMeta(pattern) {
			add(pattern)
			continue
		}
		matches, err := doublestar.FilepathGlob(pattern, doublestar.WithFilesOnly(), doublestar.WithFailOnIOErrors())
		if err != nil {
			return nil, fmt.Errorf("expand %q: %w", pattern, err)
		}
		for _, m := range matches {
			add(m)
		}
	}
	return paths, nil
}

func hasMeta(pattern string) bool {
	return strings.ContainsAny(pattern, `*?[{\`)
}
