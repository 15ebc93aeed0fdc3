// Package errs defines the failure kinds of an extraction run.
//
// Every stage returns an *Error tagged with one of the sentinel kinds, so
// callers can branch with errors.Is(err, errs.ErrParse) and still reach the
// underlying cause through errors.Unwrap.
package errs

import (
	"errors"
	"fmt"
)

// Failure kinds.
var (
	ErrRead     = errors.New("read failure")
	ErrParse    = errors.New("parse failure")
	ErrWrite    = errors.New("write failure")
	ErrFilename = errors.New("filename generation failure")
)

// Error is a failure tagged with its kind and location.
type Error struct {
	Kind error  // one of the sentinels above
	Op   string // operation that failed, e.g. "classify"
	Path string // file involved, if any
	Line int    // 1-based line number, 0 when not applicable
	Err  error  // underlying cause, may be nil
}

func (e *Error) Error() string {
	msg := e.Kind.Error()
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	switch {
	case e.Path != "" && e.Line > 0:
		msg += fmt.Sprintf(" at %s:%d", e.Path, e.Line)
	case e.Path != "":
		msg += " at " + e.Path
	case e.Line > 0:
		msg += fmt.Sprintf(" at line %d", e.Line)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches the error's kind sentinel.
func (e *Error) Is(target error) bool {
	return target == e.Kind
}

// New builds a tagged error.
func New(kind error, op string, cause error) *Error {
	return &Error{Kind: kind, Op: op, Err: cause}
}

// Read tags a failure to load an input file.
func Read(path string, cause error) *Error {
	return &Error{Kind: ErrRead, Op: "read", Path: path, Err: cause}
}

// Parse tags a failure to classify a line.
func Parse(path string, line int, cause error) *Error {
	return &Error{Kind: ErrParse, Op: "classify", Path: path, Line: line, Err: cause}
}

// Write tags a failure to create or write an output file.
func Write(path string, cause error) *Error {
	return &Error{Kind: ErrWrite, Op: "write", Path: path, Err: cause}
}

// Filename tags a failure to derive an output filename.
func Filename(input string, cause error) *Error {
	return &Error{Kind: ErrFilename, Op: "filename", Path: input, Err: cause}
}

// KindOf returns the failure kind of err, or nil if err carries none.
func KindOf(err error) error {
	for _, kind := range []error{ErrRead, ErrParse, ErrWrite, ErrFilename} {
		if errors.Is(err, kind) {
			return kind
		}
	}
	return nil
}
