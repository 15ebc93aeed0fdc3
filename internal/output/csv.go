package output

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/kindaran/pia-stats/internal/errs"
	"github.com/kindaran/pia-stats/internal/model"
)

// TimestampLayout is the YYYYMMDDHHMMSS suffix of generated filenames.
const TimestampLayout = "20060102150405"

// ErrNothingToWrite is returned by WriteFile when there are no data rows.
// It is not a failure: no file is created.
var ErrNothingToWrite = errors.New("no data rows to write")

// Filename derives an output name from input as
// <base>_<YYYYMMDDHHMMSS>.<extension>, where base is the last path element
// of input up to its first '.', and the timestamp is now() in local time.
func Filename(input, extension string, now func() time.Time) (string, error) {
	base := filepath.Base(input)
	base, _, _ = strings.Cut(base, ".")
	if base == "" || base == string(filepath.Separator) {
		return "", errs.Filename(input, errors.New("empty base name"))
	}

	extension = strings.TrimPrefix(extension, ".")
	if extension == "" {
		return "", errs.Filename(input, errors.New("empty extension"))
	}

	if now == nil {
		now = time.Now
	}
	return base + "_" + now().Local().Format(TimestampLayout) + "." + extension, nil
}

// WithSuffix inserts _n before the extension of name:
// speedtest_20240101120000.csv becomes speedtest_20240101120000_2.csv.
func WithSuffix(name string, n int) string {
	ext := filepath.Ext(name)
	return fmt.Sprintf("%s_%d%s", strings.TrimSuffix(name, ext), n, ext)
}

// CSVWriter writes records with every field double-quoted.
type CSVWriter struct {
	Comma   rune // field delimiter, ',' by default
	UseCRLF bool // terminate records with \r\n instead of \n
	w       *bufio.Writer
}

// NewCSVWriter returns a quote-all writer using ',' and \r\n.
func NewCSVWriter(w io.Writer) *CSVWriter {
	return &CSVWriter{Comma: ',', UseCRLF: true, w: bufio.NewWriter(w)}
}

// Write writes one record. Embedded quotes are doubled.
func (c *CSVWriter) Write(record []string) error {
	for i, field := range record {
		if i > 0 {
			if _, err := c.w.WriteRune(c.Comma); err != nil {
				return err
			}
		}
		if err := c.w.WriteByte('"'); err != nil {
			return err
		}
		if _, err := c.w.WriteString(strings.ReplaceAll(field, `"`, `""`)); err != nil {
			return err
		}
		if err := c.w.WriteByte('"'); err != nil {
			return err
		}
	}

	eol := "\n"
	if c.UseCRLF {
		eol = "\r\n"
	}
	_, err := c.w.WriteString(eol)
	return err
}

// WriteAll writes every record and flushes.
func (c *CSVWriter) WriteAll(records [][]string) error {
	for _, r := range records {
		if err := c.Write(r); err != nil {
			return err
		}
	}
	return c.Flush()
}

// Flush writes buffered data to the underlying writer.
func (c *CSVWriter) Flush() error {
	return c.w.Flush()
}

// Records prepends the header to rows, ready for WriteAll.
func Records(rows []model.Row) [][]string {
	records := make([][]string, 0, len(rows)+1)
	records = append(records, model.Header)
	for _, r := range rows {
		records = append(records, r.Fields())
	}
	return records
}

// WriteOptions tune WriteFile.
type WriteOptions struct {
	UseCRLF bool
	Perm    os.FileMode
}

// DefaultWriteOptions quote every field and end records with \r\n.
var DefaultWriteOptions = WriteOptions{UseCRLF: true, Perm: 0o644}

// WriteFile writes the header and rows to dir/name. The file is written to
// a temporary name and renamed into place, so a failed run never leaves a
// partial export behind. With no rows it returns ErrNothingToWrite.
func WriteFile(dir, name string, rows []model.Row, opts WriteOptions) (string, error) {
	if len(rows) == 0 {
		return "", ErrNothingToWrite
	}
	if opts.Perm == 0 {
		opts.Perm = DefaultWriteOptions.Perm
	}

	path := filepath.Join(dir, name)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", errs.Write(path, err)
	}

	tmp, err := os.CreateTemp(dir, "."+name+".*.tmp")
	if err != nil {
		return "", errs.Write(path, err)
	}
	defer os.Remove(tmp.Name()) // no-op after a successful rename

	cw := NewCSVWriter(tmp)
	cw.UseCRLF = opts.UseCRLF
	if err := cw.WriteAll(Records(rows)); err != nil {
		tmp.Close()
		return "", errs.Write(path, err)
	}
	if err := tmp.Chmod(opts.Perm); err != nil {
		tmp.Close()
		return "", errs.Write(path, err)
	}
	if err := tmp.Close(); err != nil {
		return "", errs.Write(path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return "", errs.Write(path, fmt.Errorf("rename: %w", err))
	}
	return path, nil
}
