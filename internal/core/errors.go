package core

// errors.go defines the error taxonomy for the cache and its pipeline:
//
//   - ErrNotFound: the dataset id is unknown or its file resolves nowhere
//   - FormatError: the file was read but could not be parsed as configured
//   - IOError: the file could not be read or fingerprinted at all
//
// Callers branch on the kind (IsNotFound, IsFormatError); the original
// cause always stays reachable through Unwrap. The Error() strings feed
// the pattern table in messages.go, so their prefixes are load-bearing.

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNotFound marks a dataset that cannot be served: unknown id, or no
// candidate root contains its file. Wrap with %w and test with IsNotFound.
var ErrNotFound = errors.New("not found")

// FormatError reports a file that exists and was read, but does not parse
// under its configured FormatSpec.
type FormatError struct {
	Path   string // resolved file path, backfilled by the cache when known
	Reason string // what is wrong, in parse terms

	// AvailableSheets lists the sheets a workbook does contain when the
	// required one is missing, so the error itself tells the operator
	// what to point the catalog at.
	AvailableSheets []string

	Err error // underlying parser/decoder error, if any
}

func (e *FormatError) Error() string {
	var b strings.Builder
	b.WriteString("format error")
	if e.Path != "" {
		fmt.Fprintf(&b, " in %s", e.Path)
	}
	b.WriteString(": ")
	b.WriteString(e.Reason)
	if len(e.AvailableSheets) > 0 {
		fmt.Fprintf(&b, " (available sheets: %s)", strings.Join(e.AvailableSheets, ", "))
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

func (e *FormatError) Unwrap() error { return e.Err }

// IOError reports a file-system level failure: the file could not be
// opened, read, or hashed. Op is the failed operation ("open", "read",
// "hash") and leads the message so messages.go can tell reads apart
// from fingerprinting.
type IOError struct {
	Path string
	Op   string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("io error: %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *IOError) Unwrap() error { return e.Err }

// IsNotFound reports whether err is or wraps ErrNotFound.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsFormatError reports whether err is or wraps a *FormatError.
func IsFormatError(err error) bool {
	var fe *FormatError
	return errors.As(err, &fe)
}
