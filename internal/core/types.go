// Package core implements the dataset file cache: content-hash staleness
// detection, format-dispatched ingestion, and concurrent-safe snapshots.
// This package has no HTTP dependencies and can be driven by any frontend.
package core

import (
	"time"

	"github.com/JonMunkholm/datafeed/internal/catalog"
)

// RawTable is the format-neutral output of a FormatReader: a header and
// string cells, before any type coercion. Row and column order match the
// source file.
type RawTable struct {
	Columns []string
	Rows    [][]string
}

// Record is one normalized row: column name to a scalar of type string,
// float64, bool, or nil. Timestamps are pre-formatted strings, never a
// native time type, so consumers get a stable text representation.
type Record map[string]any

// Metadata describes a cached dataset snapshot.
type Metadata struct {
	LastUpdated string `json:"last_updated"`
	SizeBytes   int64  `json:"size_bytes"`
	RowCount    int    `json:"row_count"`
}

// Entry is one cached dataset: the normalized records plus the fingerprint
// of the file bytes they were parsed from. Entries are replaced wholesale
// on refresh, never mutated, so a reader holding an Entry always sees a
// consistent snapshot.
type Entry struct {
	Columns     []string
	Records     []Record
	Meta        Metadata
	Fingerprint string
	CheckedAt   time.Time
}

// DatasetInfo describes a configured dataset whose backing file exists.
type DatasetInfo struct {
	ID           string             `json:"id"`
	Kind         catalog.FormatKind `json:"kind"`
	SizeBytes    int64              `json:"size_bytes"`
	LastModified string             `json:"last_modified"`
	Path         string             `json:"path"`
}

// TableReader parses raw file bytes into a RawTable according to the
// dataset's format spec. The cache hands it the same bytes it fingerprints,
// so a cached fingerprint always describes the parsed content.
type TableReader interface {
	Parse(data []byte, spec catalog.FormatSpec) (*RawTable, error)
}
